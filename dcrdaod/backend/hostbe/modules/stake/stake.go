// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stake implements the stake voting module. Tokens of a token module
// are staked by sending them to the module. The voting power of an address
// is its staked balance.
package stake

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/stake"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

var (
	_ modules.Module = (*stakeModule)(nil)
)

// stakeModule implements the modules Module interface for the stake voting
// module.
type stakeModule struct{}

func userErr(e stake.ErrorCodeT, format string, args ...interface{}) error {
	return backend.ModuleError{
		ModuleID:     stake.ID,
		ErrorCode:    uint32(e),
		ErrorContext: fmt.Sprintf(format, args...),
	}
}

// tokenSupply returns the total supply of the token module.
func tokenSupply(q modules.Querier, tokenAddr string) (numeric.Uint128, error) {
	var ti token.TokenInfoReply
	err := modules.QueryJSON(q, tokenAddr, token.CmdTokenInfo,
		token.TokenInfo{}, &ti)
	if err != nil {
		return numeric.Uint128{}, err
	}
	return ti.TotalSupply, nil
}

// validateActiveThreshold verifies that the active threshold can be reached
// with the provided token supply.
func validateActiveThreshold(at *stake.ActiveThreshold, supply numeric.Uint128) error {
	if at == nil {
		return nil
	}
	switch at.Type {
	case stake.ActiveThresholdAbsoluteCount:
		if at.Count == nil || at.Count.IsZero() {
			return userErr(stake.ErrorCodeInvalidActiveCount,
				"count must be greater than zero")
		}
		if at.Count.Gt(supply) {
			return userErr(stake.ErrorCodeInvalidActiveCount,
				"count %v exceeds supply %v", at.Count, supply)
		}
	case stake.ActiveThresholdPercentage:
		if at.Percent == nil || at.Percent.IsZero() ||
			at.Percent.Cmp(numeric.DecimalOne()) > 0 {
			return userErr(stake.ErrorCodeInvalidActivePercentage,
				"percent must be in (0, 1]")
		}
	default:
		return fmt.Errorf("%w: active threshold type %v",
			backend.ErrPayloadInvalid, at.Type)
	}
	return nil
}

// Instantiate sets up the module config. The sender is the DAO.
//
// This function satisfies the modules Module interface.
func (m *stakeModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	log.Tracef("Instantiate: %v", env.Contract)

	var i stake.Instantiate
	err := modules.Decode(payload, &i)
	if err != nil {
		return nil, err
	}
	supply, err := tokenSupply(d.Querier, i.TokenAddress)
	if err != nil {
		return nil, userErr(stake.ErrorCodeInvalidToken, "%v: %v",
			i.TokenAddress, err)
	}
	if i.UnstakingDuration != nil && i.UnstakingDuration.IsZero() {
		return nil, userErr(stake.ErrorCodeInvalidUnstakingDuration, "")
	}
	err = validateActiveThreshold(i.ActiveThreshold, supply)
	if err != nil {
		return nil, err
	}

	err = saveConfig(d.Store, config{
		Dao:               info.Sender,
		Token:             i.TokenAddress,
		UnstakingDuration: i.UnstakingDuration,
	})
	if err != nil {
		return nil, err
	}
	err = saveActiveThreshold(d.Store, i.ActiveThreshold)
	if err != nil {
		return nil, err
	}

	log.Debugf("Stake module %v instantiated for token %v",
		env.Contract, i.TokenAddress)

	return modules.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("token", i.TokenAddress), nil
}

// Execute executes a stake module command.
//
// This function satisfies the modules Module interface.
func (m *stakeModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	log.Tracef("Execute: %v %v %v", env.Contract, info.Sender, cmd)

	switch cmd {
	case stake.CmdReceive:
		return m.cmdReceive(d, env, info, payload)
	case stake.CmdUnstake:
		return m.cmdUnstake(d, env, info, payload)
	case stake.CmdClaim:
		return m.cmdClaim(d, env, info)
	case stake.CmdUpdateConfig:
		return m.cmdUpdateConfig(d, info, payload)
	case stake.CmdUpdateActiveThreshold:
		return m.cmdUpdateActiveThreshold(d, info, payload)
	case stake.CmdAddHook:
		return m.cmdAddHook(d, info, payload)
	case stake.CmdRemoveHook:
		return m.cmdRemoveHook(d, info, payload)
	}

	return nil, backend.ErrCmdInvalid
}

// Query performs a stake module query.
//
// This function satisfies the modules Module interface.
func (m *stakeModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", env.Contract, cmd)

	switch cmd {
	case power.CmdVotingPowerAtHeight:
		return m.queryVotingPower(d, env, payload)
	case power.CmdTotalPowerAtHeight:
		return m.queryTotalPower(d, env, payload)
	case power.CmdIsActive:
		return m.queryIsActive(d)
	case power.CmdDao:
		return m.queryDao(d)
	case power.CmdTokenContract:
		return m.queryTokenContract(d)
	case power.CmdInfo:
		return modules.EncodeInfo(stake.ID, stake.Version)
	case stake.CmdStakedBalanceAtHeight:
		return m.queryStakedBalance(d, env, payload)
	case stake.CmdTotalStakedAtHeight:
		return m.queryTotalStaked(d, env, payload)
	case stake.CmdStakedValue:
		return m.queryStakedValue(d, payload)
	case stake.CmdTotalValue:
		return m.queryTotalValue(d)
	case stake.CmdClaims:
		return m.queryClaims(d, payload)
	case stake.CmdListStakers:
		return m.queryListStakers(d, payload)
	case stake.CmdConfig:
		return m.queryConfig(d)
	case stake.CmdGetHooks:
		return m.queryGetHooks(d)
	case stake.CmdActiveThreshold:
		return m.queryActiveThreshold(d)
	}

	return "", backend.ErrCmdInvalid
}

// Reply handles sub-message replies. The stake module does not send
// sub-messages that reply.
//
// This function satisfies the modules Module interface.
func (m *stakeModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	return nil, errors.New("unexpected reply")
}

// New returns the stake module code.
func New() modules.Code {
	return modules.Code{
		Name:   stake.ID,
		Module: &stakeModule{},
	}
}
