// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package token

import (
	"errors"
	"strings"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	keyTokenInfo    = "tokeninfo"
	prefixBalance   = "balance/"
	prefixAllowance = "allowance/"
)

// tokenInfo is the saved token info.
type tokenInfo struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    uint8           `json:"decimals"`
	TotalSupply numeric.Uint128 `json:"totalsupply"`
	Minter      *token.Minter   `json:"minter,omitempty"`
}

// allowance is the amount a spender may spend on behalf of an owner.
type allowance struct {
	Amount  numeric.Uint128  `json:"amount"`
	Expires block.Expiration `json:"expires"`
}

func balanceKey(addr string) string {
	return prefixBalance + addr
}

func allowanceKey(owner, spender string) string {
	return store.Join(prefixAllowance+owner, spender)
}

func loadTokenInfo(g store.Getter) (*tokenInfo, error) {
	var ti tokenInfo
	err := store.GetJSON(g, keyTokenInfo, &ti)
	if err != nil {
		return nil, err
	}
	return &ti, nil
}

func saveTokenInfo(s store.KVStore, ti tokenInfo) error {
	return store.SetJSON(s, keyTokenInfo, ti)
}

// getBalance returns the token balance of an address. Unknown addresses have
// a zero balance.
func getBalance(g store.Getter, addr string) (numeric.Uint128, error) {
	var v numeric.Uint128
	err := store.GetJSON(g, balanceKey(addr), &v)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return numeric.Uint128{}, nil
	case err != nil:
		return numeric.Uint128{}, err
	}
	return v, nil
}

// setBalance saves the token balance of an address. Zero balances are
// removed.
func setBalance(s store.KVStore, addr string, v numeric.Uint128) error {
	if v.IsZero() {
		s.Delete(balanceKey(addr))
		return nil
	}
	return store.SetJSON(s, balanceKey(addr), v)
}

// debit subtracts an amount from the balance of an address.
func debit(s store.KVStore, addr string, amount numeric.Uint128) error {
	b, err := getBalance(s, addr)
	if err != nil {
		return err
	}
	if b.Lt(amount) {
		return userErr(token.ErrorCodeInsufficientFunds,
			"%v has %v, needs %v", addr, b, amount)
	}
	return setBalance(s, addr, b.SaturatingSub(amount))
}

// credit adds an amount to the balance of an address.
func credit(s store.KVStore, addr string, amount numeric.Uint128) error {
	b, err := getBalance(s, addr)
	if err != nil {
		return err
	}
	b, err = b.Add(amount)
	if err != nil {
		return err
	}
	return setBalance(s, addr, b)
}

// listAccounts returns the addresses with a non-zero balance in ascending
// order.
func listAccounts(g store.Getter, startAfter string, limit int) ([]string, error) {
	q := store.PrefixQuery(prefixBalance, false, limit)
	if startAfter != "" {
		q.Start = store.Successor(balanceKey(startAfter))
	}
	entries, err := g.Range(q)
	if err != nil {
		return nil, err
	}
	accounts := make([]string, 0, len(entries))
	for _, v := range entries {
		accounts = append(accounts, strings.TrimPrefix(v.Key, prefixBalance))
	}
	return accounts, nil
}

// getAllowance returns an allowance. A missing allowance is returned as a
// zero allowance that never expires.
func getAllowance(g store.Getter, owner, spender string) (*allowance, error) {
	var a allowance
	err := store.GetJSON(g, allowanceKey(owner, spender), &a)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &allowance{Expires: block.Never()}, nil
	case err != nil:
		return nil, err
	}
	return &a, nil
}

// setAllowance saves an allowance. Zero allowances are removed.
func setAllowance(s store.KVStore, owner, spender string, a allowance) error {
	if a.Amount.IsZero() {
		s.Delete(allowanceKey(owner, spender))
		return nil
	}
	return store.SetJSON(s, allowanceKey(owner, spender), a)
}
