// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token_test

import (
	"encoding/json"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/unittest"
)

func newToken(h *daotest.Harness, minter string) string {
	i := token.Instantiate{
		Name:     "DAO token",
		Symbol:   "DAO",
		Decimals: 6,
		InitialBalances: []token.Balance{
			{Address: "alice", Amount: daotest.Uint128(100)},
			{Address: "bob", Amount: daotest.Uint128(50)},
		},
	}
	if minter != "" {
		c := daotest.Uint128(1000)
		i.Mint = &token.Minter{Minter: minter, Cap: &c}
	}
	return h.Instantiate("alice", token.ID, i)
}

func balance(h *daotest.Harness, contract, addr string) uint64 {
	var br token.BalanceReply
	h.Query(contract, token.CmdBalance, token.BalanceQuery{Address: addr}, &br)
	return br.Balance.Uint64()
}

func TestInstantiate(t *testing.T) {
	h := daotest.New(t)

	var tests = []struct {
		name string
		i    token.Instantiate
		code token.ErrorCodeT
	}{
		{
			"short name",
			token.Instantiate{Name: "ab", Symbol: "DAO"},
			token.ErrorCodeTokenInfoInvalid,
		},
		{
			"bad symbol",
			token.Instantiate{Name: "DAO token", Symbol: "D4O"},
			token.ErrorCodeTokenInfoInvalid,
		},
		{
			"decimals",
			token.Instantiate{Name: "DAO token", Symbol: "DAO", Decimals: 19},
			token.ErrorCodeTokenInfoInvalid,
		},
		{
			"duplicate balance",
			token.Instantiate{
				Name:   "DAO token",
				Symbol: "DAO",
				InitialBalances: []token.Balance{
					{Address: "alice", Amount: daotest.Uint128(1)},
					{Address: "alice", Amount: daotest.Uint128(2)},
				},
			},
			token.ErrorCodeDuplicateInitialBalance,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Host.Instantiate("alice",
				h.InstantiateMsg(token.ID, "token", tc.i))
			daotest.RequireError(t, err, token.ID, uint32(tc.code))
		})
	}

	addr := newToken(h, "carol")
	var ti token.TokenInfoReply
	h.Query(addr, token.CmdTokenInfo, token.TokenInfo{}, &ti)
	want := token.TokenInfoReply{
		Name:        "DAO token",
		Symbol:      "DAO",
		Decimals:    6,
		TotalSupply: daotest.Uint128(150),
	}
	if diff := unittest.DeepEqual(ti, want); diff != "" {
		t.Error(diff)
	}

	var ir power.InfoReply
	h.Query(addr, token.CmdInfo, struct{}{}, &ir)
	if ir.Info.Contract != token.ID || ir.Info.Version != token.Version {
		t.Errorf("unexpected info: %v", ir.Info)
	}
}

func TestTransferAndBurn(t *testing.T) {
	h := daotest.New(t)
	addr := newToken(h, "")

	h.MustExecute("alice", addr, token.CmdTransfer, token.Transfer{
		Recipient: "carol",
		Amount:    daotest.Uint128(30),
	})
	_, err := h.Execute("bob", addr, token.CmdTransfer, token.Transfer{
		Recipient: "carol",
		Amount:    daotest.Uint128(51),
	})
	daotest.RequireError(t, err, token.ID,
		uint32(token.ErrorCodeInsufficientFunds))
	_, err = h.Execute("bob", addr, token.CmdTransfer, token.Transfer{
		Recipient: "carol",
	})
	daotest.RequireError(t, err, token.ID, uint32(token.ErrorCodeZeroAmount))

	h.MustExecute("bob", addr, token.CmdBurn, token.Burn{
		Amount: daotest.Uint128(50),
	})

	for k, v := range map[string]uint64{"alice": 70, "bob": 0, "carol": 30} {
		if got := balance(h, addr, k); got != v {
			t.Errorf("%v: got %v, want %v", k, got, v)
		}
	}

	var ti token.TokenInfoReply
	h.Query(addr, token.CmdTokenInfo, token.TokenInfo{}, &ti)
	if ti.TotalSupply.Uint64() != 100 {
		t.Errorf("got supply %v, want 100", ti.TotalSupply)
	}

	// Zero balances are not listed
	var ar token.AllAccountsReply
	h.Query(addr, token.CmdAllAccounts, token.AllAccounts{}, &ar)
	if diff := unittest.DeepEqual(ar.Accounts, []string{"alice", "carol"}); diff != "" {
		t.Error(diff)
	}
	h.Query(addr, token.CmdAllAccounts, token.AllAccounts{StartAfter: "alice"}, &ar)
	if diff := unittest.DeepEqual(ar.Accounts, []string{"carol"}); diff != "" {
		t.Error(diff)
	}
}

func TestMint(t *testing.T) {
	h := daotest.New(t)
	addr := newToken(h, "carol")

	_, err := h.Execute("alice", addr, token.CmdMint, token.Mint{
		Recipient: "alice",
		Amount:    daotest.Uint128(1),
	})
	daotest.RequireError(t, err, token.ID, uint32(token.ErrorCodeUnauthorized))

	h.MustExecute("carol", addr, token.CmdMint, token.Mint{
		Recipient: "dave",
		Amount:    daotest.Uint128(850),
	})
	_, err = h.Execute("carol", addr, token.CmdMint, token.Mint{
		Recipient: "dave",
		Amount:    daotest.Uint128(1),
	})
	daotest.RequireError(t, err, token.ID,
		uint32(token.ErrorCodeCannotExceedCap))

	if got := balance(h, addr, "dave"); got != 850 {
		t.Errorf("got %v, want 850", got)
	}
}

func TestAllowances(t *testing.T) {
	h := daotest.New(t)
	addr := newToken(h, "")

	_, err := h.Execute("alice", addr, token.CmdIncreaseAllowance,
		token.IncreaseAllowance{Spender: "alice", Amount: daotest.Uint128(1)})
	daotest.RequireError(t, err, token.ID,
		uint32(token.ErrorCodeCannotSetOwnAccount))

	b := h.Block()
	exp := block.AtHeight(b.Height + 2)
	h.MustExecute("alice", addr, token.CmdIncreaseAllowance,
		token.IncreaseAllowance{
			Spender: "bob",
			Amount:  daotest.Uint128(40),
			Expires: &exp,
		})
	h.MustExecute("alice", addr, token.CmdDecreaseAllowance,
		token.DecreaseAllowance{Spender: "bob", Amount: daotest.Uint128(10)})

	var ar token.AllowanceReply
	h.Query(addr, token.CmdAllowance, token.Allowance{
		Owner:   "alice",
		Spender: "bob",
	}, &ar)
	if ar.Allowance.Uint64() != 30 || ar.Expires != exp {
		t.Errorf("unexpected allowance: %v", unittest.Dump(ar))
	}

	_, err = h.Execute("bob", addr, token.CmdTransferFrom, token.TransferFrom{
		Owner:     "alice",
		Recipient: "carol",
		Amount:    daotest.Uint128(31),
	})
	daotest.RequireError(t, err, token.ID, uint32(token.ErrorCodeNoAllowance))

	h.MustExecute("bob", addr, token.CmdTransferFrom, token.TransferFrom{
		Owner:     "alice",
		Recipient: "carol",
		Amount:    daotest.Uint128(20),
	})
	h.MustExecute("bob", addr, token.CmdBurnFrom, token.BurnFrom{
		Owner:  "alice",
		Amount: daotest.Uint128(5),
	})
	if got := balance(h, addr, "alice"); got != 75 {
		t.Errorf("alice: got %v, want 75", got)
	}
	if got := balance(h, addr, "carol"); got != 20 {
		t.Errorf("carol: got %v, want 20", got)
	}

	h.Advance(2, 10)
	_, err = h.Execute("bob", addr, token.CmdTransferFrom, token.TransferFrom{
		Owner:     "alice",
		Recipient: "carol",
		Amount:    daotest.Uint128(1),
	})
	daotest.RequireError(t, err, token.ID,
		uint32(token.ErrorCodeAllowanceExpired))
}

func TestSend(t *testing.T) {
	h := daotest.New(t)
	addr := newToken(h, "")
	other := newToken(h, "")

	// The receiving contract does not implement the receive command so
	// the whole send is rolled back.
	_, err := h.Execute("alice", addr, token.CmdSend, token.Send{
		Contract: other,
		Amount:   daotest.Uint128(10),
		Msg:      json.RawMessage(`{}`),
	})
	if err == nil {
		t.Fatal("expected receive to fail")
	}
	if got := balance(h, addr, "alice"); got != 100 {
		t.Errorf("got %v, want 100", got)
	}
}
