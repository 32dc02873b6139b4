// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package token implements the token module.
package token

import (
	"fmt"
	"regexp"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
)

var (
	_ modules.Module = (*tokenModule)(nil)

	// regexpSymbol matches valid token symbols.
	regexpSymbol = regexp.MustCompile(`^[a-zA-Z\-]+$`)
)

// tokenModule implements the modules Module interface for the token module.
type tokenModule struct{}

// userErr returns a token module error.
func userErr(e token.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     token.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

func validateTokenInfo(i token.Instantiate) error {
	if len(i.Name) < token.MinNameLength || len(i.Name) > token.MaxNameLength {
		return userErr(token.ErrorCodeTokenInfoInvalid,
			"name must be %v to %v characters",
			token.MinNameLength, token.MaxNameLength)
	}
	if len(i.Symbol) < token.MinSymbolLength ||
		len(i.Symbol) > token.MaxSymbolLength ||
		!regexpSymbol.MatchString(i.Symbol) {
		return userErr(token.ErrorCodeTokenInfoInvalid,
			"symbol must be %v to %v letters or dashes",
			token.MinSymbolLength, token.MaxSymbolLength)
	}
	if i.Decimals > token.MaxDecimals {
		return userErr(token.ErrorCodeTokenInfoInvalid,
			"decimals must not exceed %v", token.MaxDecimals)
	}
	return nil
}

// Instantiate sets up the token info and the initial balances.
//
// This function satisfies the modules Module interface.
func (m *tokenModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i token.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}
	err = validateTokenInfo(i)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(i.InitialBalances))
	var supply = tokenInfo{
		Name:     i.Name,
		Symbol:   i.Symbol,
		Decimals: i.Decimals,
	}
	for _, v := range i.InitialBalances {
		if _, ok := seen[v.Address]; ok {
			return nil, userErr(token.ErrorCodeDuplicateInitialBalance,
				"%v", v.Address)
		}
		seen[v.Address] = struct{}{}
		err = backend.ValidateAddress(v.Address)
		if err != nil {
			return nil, err
		}
		err = setBalance(d.Store, v.Address, v.Amount)
		if err != nil {
			return nil, err
		}
		supply.TotalSupply, err = supply.TotalSupply.Add(v.Amount)
		if err != nil {
			return nil, err
		}
	}
	if i.Mint != nil {
		err = backend.ValidateAddress(i.Mint.Minter)
		if err != nil {
			return nil, err
		}
		if i.Mint.Cap != nil && supply.TotalSupply.Gt(*i.Mint.Cap) {
			return nil, userErr(token.ErrorCodeCannotExceedCap,
				"initial supply %v, cap %v", supply.TotalSupply, *i.Mint.Cap)
		}
		supply.Minter = i.Mint
	}
	err = saveTokenInfo(d.Store, supply)
	if err != nil {
		return nil, err
	}

	log.Debugf("Token %v (%v) instantiated with supply %v",
		env.Contract, i.Symbol, supply.TotalSupply)

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("symbol", i.Symbol), nil
}

// Execute executes a token command.
//
// This function satisfies the modules Module interface.
func (m *tokenModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	switch cmd {
	case token.CmdTransfer:
		return m.cmdTransfer(d, info, payload)
	case token.CmdSend:
		return m.cmdSend(d, info, payload)
	case token.CmdBurn:
		return m.cmdBurn(d, info, payload)
	case token.CmdMint:
		return m.cmdMint(d, info, payload)
	case token.CmdIncreaseAllowance:
		return m.cmdIncreaseAllowance(d, env, info, payload)
	case token.CmdDecreaseAllowance:
		return m.cmdDecreaseAllowance(d, env, info, payload)
	case token.CmdTransferFrom:
		return m.cmdTransferFrom(d, env, info, payload)
	case token.CmdSendFrom:
		return m.cmdSendFrom(d, env, info, payload)
	case token.CmdBurnFrom:
		return m.cmdBurnFrom(d, env, info, payload)
	}

	return nil, backend.ErrCmdInvalid
}

// Query performs a token query.
//
// This function satisfies the modules Module interface.
func (m *tokenModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case token.CmdBalance:
		return m.queryBalance(d, payload)
	case token.CmdTokenInfo:
		return m.queryTokenInfo(d)
	case token.CmdMinter:
		return m.queryMinter(d)
	case token.CmdAllowance:
		return m.queryAllowance(d, payload)
	case token.CmdAllAccounts:
		return m.queryAllAccounts(d, payload)
	case token.CmdInfo:
		return modules.EncodeInfo(token.ID, token.Version)
	}

	return "", backend.ErrCmdInvalid
}

// Reply handles sub-message replies. The token module does not send
// sub-messages that reply.
//
// This function satisfies the modules Module interface.
func (m *tokenModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	return nil, fmt.Errorf("unexpected reply %v", r.ID)
}

// New returns the token module code.
func New() modules.Code {
	return modules.Code{
		Name:   token.ID,
		Module: &tokenModule{},
	}
}
