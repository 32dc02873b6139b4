// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package prepropose

import (
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/prepropose"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

// checkDenom validates a denomination. Token contracts must answer the
// token info query.
func checkDenom(q modules.Querier, d prepropose.Denom) error {
	switch d.Type {
	case prepropose.DenomNative:
		err := backend.ValidateCoins([]backend.Coin{backend.NewCoin(1, d.Denom)})
		if err != nil {
			return userErr(prepropose.ErrorCodeInvalidDenom, "%v", d.Denom)
		}
	case prepropose.DenomCw20:
		err := backend.ValidateAddress(d.Denom)
		if err != nil {
			return err
		}
		var r token.TokenInfoReply
		err = modules.QueryJSON(q, d.Denom, token.CmdTokenInfo,
			token.TokenInfo{}, &r)
		if err != nil {
			return userErr(prepropose.ErrorCodeInvalidCw20, "%v: %v",
				d.Denom, err)
		}
	default:
		return userErr(prepropose.ErrorCodeInvalidDenom, "type %v", d.Type)
	}
	return nil
}

// votingModuleToken returns the token contract of the voting module of the
// DAO.
func votingModuleToken(q modules.Querier, daoAddr string) (string, error) {
	vm, err := dao.VotingModule(q, daoAddr)
	if err != nil {
		return "", err
	}
	var r power.TokenContractReply
	err = modules.QueryJSON(q, vm, power.CmdTokenContract,
		power.TokenContract{}, &r)
	if err != nil {
		return "", userErr(prepropose.ErrorCodeInvalidCw20,
			"voting module %v has no token: %v", vm, err)
	}
	return r.Token, nil
}

// checkDeposit validates a deposit provided by the DAO and resolves the
// voting module token.
func checkDeposit(q modules.Querier, daoAddr string, u *prepropose.UncheckedDepositInfo) (*prepropose.DepositInfo, error) {
	if u == nil {
		return nil, nil
	}
	if u.Amount.IsZero() {
		return nil, userErr(prepropose.ErrorCodeZeroDeposit, "")
	}
	switch u.RefundPolicy {
	case prepropose.RefundAlways, prepropose.RefundOnlyPassed,
		prepropose.RefundNever:
	default:
		return nil, userErr(prepropose.ErrorCodeInvalidRefundPolicy, "%v",
			u.RefundPolicy)
	}

	var d prepropose.Denom
	switch u.Denom.Type {
	case prepropose.DepositTokenToken:
		if u.Denom.Denom == nil {
			return nil, userErr(prepropose.ErrorCodeInvalidDenom,
				"denom missing")
		}
		d = *u.Denom.Denom
	case prepropose.DepositTokenVotingModule:
		t, err := votingModuleToken(q, daoAddr)
		if err != nil {
			return nil, err
		}
		d = prepropose.Denom{
			Type:  prepropose.DenomCw20,
			Denom: t,
		}
	default:
		return nil, userErr(prepropose.ErrorCodeInvalidDenom,
			"deposit token type %v", u.Denom.Type)
	}
	err := checkDenom(q, d)
	if err != nil {
		return nil, err
	}

	return &prepropose.DepositInfo{
		Denom:        d,
		Amount:       u.Amount,
		RefundPolicy: u.RefundPolicy,
	}, nil
}

// checkNativeDepositPaid verifies that a native deposit was paid exactly.
func checkNativeDepositPaid(d *prepropose.DepositInfo, funds []backend.Coin) error {
	if d == nil || d.Denom.Type != prepropose.DenomNative {
		return nil
	}
	if len(funds) != 1 || funds[0].Denom != d.Denom.Denom ||
		!funds[0].Amount.Equal(d.Amount) {
		return userErr(prepropose.ErrorCodeInvalidDeposit,
			"want %v %v", d.Amount, d.Denom.Denom)
	}
	return nil
}

// takeDepositMsgs returns the messages that move a token deposit from the
// proposer to the module. Native deposits are sent with the proposal.
func takeDepositMsgs(d *prepropose.DepositInfo, proposer, contract string) ([]backend.Msg, error) {
	if d == nil || d.Denom.Type != prepropose.DenomCw20 {
		return []backend.Msg{}, nil
	}
	m, err := modules.ExecuteMsg(d.Denom.Denom, token.CmdTransferFrom,
		token.TransferFrom{
			Owner:     proposer,
			Recipient: contract,
			Amount:    d.Amount,
		})
	if err != nil {
		return nil, err
	}
	return []backend.Msg{m}, nil
}

// transferMsg returns the message that sends an amount of a denomination to
// the recipient.
func transferMsg(d prepropose.Denom, amount numeric.Uint128, to string) (backend.Msg, error) {
	switch d.Type {
	case prepropose.DenomNative:
		return modules.BankSendMsg(to, backend.Coin{
			Denom:  d.Denom,
			Amount: amount,
		}), nil
	case prepropose.DenomCw20:
		return modules.ExecuteMsg(d.Denom, token.CmdTransfer, token.Transfer{
			Recipient: to,
			Amount:    amount,
		})
	}
	return backend.Msg{}, fmt.Errorf("invalid denom type %v", d.Type)
}

// balance returns the balance of an address in the provided denomination.
func balance(q modules.Querier, d prepropose.Denom, addr string) (numeric.Uint128, error) {
	switch d.Type {
	case prepropose.DenomNative:
		return q.Balance(addr, d.Denom)
	case prepropose.DenomCw20:
		var r token.BalanceReply
		err := modules.QueryJSON(q, d.Denom, token.CmdBalance,
			token.BalanceQuery{Address: addr}, &r)
		if err != nil {
			return numeric.Uint128{}, err
		}
		return r.Balance, nil
	}
	return numeric.Uint128{}, fmt.Errorf("invalid denom type %v", d.Type)
}

// shouldRefund returns whether the deposit is returned to the proposer for
// a proposal that completed with the provided status. Execution failures
// count as passed.
func shouldRefund(p prepropose.RefundPolicyT, s voting.StatusT) bool {
	switch p {
	case prepropose.RefundAlways:
		return true
	case prepropose.RefundOnlyPassed:
		return s == voting.StatusExecuted || s == voting.StatusExecutionFailed
	}
	return false
}
