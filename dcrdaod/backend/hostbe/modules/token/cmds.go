// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"encoding/json"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

func verifyAmount(amount numeric.Uint128) error {
	if amount.IsZero() {
		return userErr(token.ErrorCodeZeroAmount, "")
	}
	return nil
}

// move moves tokens between two addresses.
func move(s store.KVStore, from, to string, amount numeric.Uint128) error {
	err := verifyAmount(amount)
	if err != nil {
		return err
	}
	err = backend.ValidateAddress(to)
	if err != nil {
		return err
	}
	err = debit(s, from, amount)
	if err != nil {
		return err
	}
	return credit(s, to, amount)
}

// burn destroys tokens of an address.
func burn(s store.KVStore, from string, amount numeric.Uint128) error {
	err := verifyAmount(amount)
	if err != nil {
		return err
	}
	err = debit(s, from, amount)
	if err != nil {
		return err
	}
	ti, err := loadTokenInfo(s)
	if err != nil {
		return err
	}
	ti.TotalSupply, err = ti.TotalSupply.Sub(amount)
	if err != nil {
		return err
	}
	return saveTokenInfo(s, *ti)
}

// receiveMsg returns the message that executes the receive command on the
// contract that tokens were sent to.
func receiveMsg(contract, sender string, amount numeric.Uint128, msg json.RawMessage) (backend.Msg, error) {
	if len(msg) == 0 {
		msg = json.RawMessage("{}")
	}
	return modules.ExecuteMsg(contract, token.CmdReceive, token.Receive{
		Sender: sender,
		Amount: amount,
		Msg:    msg,
	})
}

// deductAllowance subtracts an amount from the allowance of a spender.
func deductAllowance(s store.KVStore, b block.Info, owner, spender string, amount numeric.Uint128) error {
	a, err := getAllowance(s, owner, spender)
	if err != nil {
		return err
	}
	if a.Expires.IsExpired(b) {
		return userErr(token.ErrorCodeAllowanceExpired, "%v", a.Expires)
	}
	if a.Amount.Lt(amount) {
		return userErr(token.ErrorCodeNoAllowance, "allowance %v, needs %v",
			a.Amount, amount)
	}
	a.Amount = a.Amount.SaturatingSub(amount)
	return setAllowance(s, owner, spender, *a)
}

func (m *tokenModule) cmdTransfer(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var t token.Transfer
	err := modules.Decode(payload, &t)
	if err != nil {
		return nil, err
	}
	err = move(d.Store, info.Sender, t.Recipient, t.Amount)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdTransfer).
		AddAttribute("from", info.Sender).
		AddAttribute("to", t.Recipient).
		AddAttribute("amount", t.Amount.String()), nil
}

func (m *tokenModule) cmdSend(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var sn token.Send
	err := modules.Decode(payload, &sn)
	if err != nil {
		return nil, err
	}
	err = move(d.Store, info.Sender, sn.Contract, sn.Amount)
	if err != nil {
		return nil, err
	}
	msg, err := receiveMsg(sn.Contract, info.Sender, sn.Amount, sn.Msg)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdSend).
		AddAttribute("from", info.Sender).
		AddAttribute("to", sn.Contract).
		AddAttribute("amount", sn.Amount.String()).
		AddMessage(msg), nil
}

func (m *tokenModule) cmdBurn(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var b token.Burn
	err := modules.Decode(payload, &b)
	if err != nil {
		return nil, err
	}
	err = burn(d.Store, info.Sender, b.Amount)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdBurn).
		AddAttribute("from", info.Sender).
		AddAttribute("amount", b.Amount.String()), nil
}

func (m *tokenModule) cmdMint(d modules.Deps, info modules.Info, payload string) (*modules.Response, error) {
	var mt token.Mint
	err := modules.Decode(payload, &mt)
	if err != nil {
		return nil, err
	}
	err = verifyAmount(mt.Amount)
	if err != nil {
		return nil, err
	}
	err = backend.ValidateAddress(mt.Recipient)
	if err != nil {
		return nil, err
	}
	ti, err := loadTokenInfo(d.Store)
	if err != nil {
		return nil, err
	}
	if ti.Minter == nil || ti.Minter.Minter != info.Sender {
		return nil, userErr(token.ErrorCodeUnauthorized, "not the minter")
	}
	ti.TotalSupply, err = ti.TotalSupply.Add(mt.Amount)
	if err != nil {
		return nil, err
	}
	if ti.Minter.Cap != nil && ti.TotalSupply.Gt(*ti.Minter.Cap) {
		return nil, userErr(token.ErrorCodeCannotExceedCap,
			"cap %v", *ti.Minter.Cap)
	}
	err = saveTokenInfo(d.Store, *ti)
	if err != nil {
		return nil, err
	}
	err = credit(d.Store, mt.Recipient, mt.Amount)
	if err != nil {
		return nil, err
	}

	log.Debugf("Minted %v to %v", mt.Amount, mt.Recipient)

	return modules.NewResponse().
		AddAttribute("action", token.CmdMint).
		AddAttribute("to", mt.Recipient).
		AddAttribute("amount", mt.Amount.String()), nil
}

func (m *tokenModule) cmdIncreaseAllowance(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var ia token.IncreaseAllowance
	err := modules.Decode(payload, &ia)
	if err != nil {
		return nil, err
	}
	err = backend.ValidateAddress(ia.Spender)
	if err != nil {
		return nil, err
	}
	if ia.Spender == info.Sender {
		return nil, userErr(token.ErrorCodeCannotSetOwnAccount, "")
	}
	a, err := getAllowance(d.Store, info.Sender, ia.Spender)
	if err != nil {
		return nil, err
	}
	if ia.Expires != nil {
		if ia.Expires.IsExpired(env.Block) {
			return nil, userErr(token.ErrorCodeInvalidExpiration,
				"%v", *ia.Expires)
		}
		a.Expires = *ia.Expires
	}
	a.Amount, err = a.Amount.Add(ia.Amount)
	if err != nil {
		return nil, err
	}
	err = setAllowance(d.Store, info.Sender, ia.Spender, *a)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdIncreaseAllowance).
		AddAttribute("owner", info.Sender).
		AddAttribute("spender", ia.Spender).
		AddAttribute("amount", ia.Amount.String()), nil
}

func (m *tokenModule) cmdDecreaseAllowance(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var da token.DecreaseAllowance
	err := modules.Decode(payload, &da)
	if err != nil {
		return nil, err
	}
	if da.Spender == info.Sender {
		return nil, userErr(token.ErrorCodeCannotSetOwnAccount, "")
	}
	a, err := getAllowance(d.Store, info.Sender, da.Spender)
	if err != nil {
		return nil, err
	}
	if da.Expires != nil {
		if da.Expires.IsExpired(env.Block) {
			return nil, userErr(token.ErrorCodeInvalidExpiration,
				"%v", *da.Expires)
		}
		a.Expires = *da.Expires
	}
	a.Amount = a.Amount.SaturatingSub(da.Amount)
	err = setAllowance(d.Store, info.Sender, da.Spender, *a)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdDecreaseAllowance).
		AddAttribute("owner", info.Sender).
		AddAttribute("spender", da.Spender).
		AddAttribute("amount", da.Amount.String()), nil
}

func (m *tokenModule) cmdTransferFrom(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var tf token.TransferFrom
	err := modules.Decode(payload, &tf)
	if err != nil {
		return nil, err
	}
	err = deductAllowance(d.Store, env.Block, tf.Owner, info.Sender, tf.Amount)
	if err != nil {
		return nil, err
	}
	err = move(d.Store, tf.Owner, tf.Recipient, tf.Amount)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdTransferFrom).
		AddAttribute("from", tf.Owner).
		AddAttribute("to", tf.Recipient).
		AddAttribute("by", info.Sender).
		AddAttribute("amount", tf.Amount.String()), nil
}

func (m *tokenModule) cmdSendFrom(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var sf token.SendFrom
	err := modules.Decode(payload, &sf)
	if err != nil {
		return nil, err
	}
	err = deductAllowance(d.Store, env.Block, sf.Owner, info.Sender, sf.Amount)
	if err != nil {
		return nil, err
	}
	err = move(d.Store, sf.Owner, sf.Contract, sf.Amount)
	if err != nil {
		return nil, err
	}
	msg, err := receiveMsg(sf.Contract, info.Sender, sf.Amount, sf.Msg)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdSendFrom).
		AddAttribute("from", sf.Owner).
		AddAttribute("to", sf.Contract).
		AddAttribute("by", info.Sender).
		AddAttribute("amount", sf.Amount.String()).
		AddMessage(msg), nil
}

func (m *tokenModule) cmdBurnFrom(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	var bf token.BurnFrom
	err := modules.Decode(payload, &bf)
	if err != nil {
		return nil, err
	}
	err = deductAllowance(d.Store, env.Block, bf.Owner, info.Sender, bf.Amount)
	if err != nil {
		return nil, err
	}
	err = burn(d.Store, bf.Owner, bf.Amount)
	if err != nil {
		return nil, err
	}

	return modules.NewResponse().
		AddAttribute("action", token.CmdBurnFrom).
		AddAttribute("from", bf.Owner).
		AddAttribute("by", info.Sender).
		AddAttribute("amount", bf.Amount.String()), nil
}

func (m *tokenModule) queryBalance(d modules.Deps, payload string) (string, error) {
	var b token.BalanceQuery
	err := modules.Decode(payload, &b)
	if err != nil {
		return "", err
	}
	v, err := getBalance(d.Store, b.Address)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(token.BalanceReply{Balance: v})
}

func (m *tokenModule) queryTokenInfo(d modules.Deps) (string, error) {
	ti, err := loadTokenInfo(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(token.TokenInfoReply{
		Name:        ti.Name,
		Symbol:      ti.Symbol,
		Decimals:    ti.Decimals,
		TotalSupply: ti.TotalSupply,
	})
}

func (m *tokenModule) queryMinter(d modules.Deps) (string, error) {
	ti, err := loadTokenInfo(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(token.MinterReply{Minter: ti.Minter})
}

func (m *tokenModule) queryAllowance(d modules.Deps, payload string) (string, error) {
	var a token.Allowance
	err := modules.Decode(payload, &a)
	if err != nil {
		return "", err
	}
	v, err := getAllowance(d.Store, a.Owner, a.Spender)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(token.AllowanceReply{
		Allowance: v.Amount,
		Expires:   v.Expires,
	})
}

func (m *tokenModule) queryAllAccounts(d modules.Deps, payload string) (string, error) {
	var aa token.AllAccounts
	err := modules.Decode(payload, &aa)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(aa.Limit, token.DefaultLimit, token.MaxLimit)
	accounts, err := listAccounts(d.Store, aa.StartAfter, limit)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(token.AllAccountsReply{Accounts: accounts})
}
