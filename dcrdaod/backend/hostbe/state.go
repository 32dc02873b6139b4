// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hostbe

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

// Key layout of the runtime state.
const (
	keyBlock          = "host/block"
	keyContractCount  = "host/contractcount"
	keyPrefixContract = "host/contract/"
	keyPrefixBank     = "host/bank/"
	keyPrefixState    = "state/"
)

// contractKey returns the key of the contract info of an address.
func contractKey(addr string) string {
	return keyPrefixContract + addr
}

// balanceKey returns the key of the native balance of an address.
func balanceKey(addr, denom string) string {
	return store.Join(keyPrefixBank+addr, denom)
}

// statePrefix returns the prefix of the state of a contract.
func statePrefix(addr string) string {
	return keyPrefixState + addr + "/"
}

// getBlock returns the current block.
func getBlock(g store.Getter) (*block.Info, error) {
	var b block.Info
	err := store.GetJSON(g, keyBlock, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// setBlock saves the current block.
func setBlock(s store.KVStore, b block.Info) error {
	return store.SetJSON(s, keyBlock, b)
}

// contractInfo returns the contract info of an address.
func contractInfo(g store.Getter, addr string) (*backend.ContractInfo, error) {
	var ci backend.ContractInfo
	err := store.GetJSON(g, contractKey(addr), &ci)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", backend.ErrContractNotFound, addr)
		}
		return nil, err
	}
	return &ci, nil
}

// nextContractAddress assigns and returns a new contract address.
func nextContractAddress(s store.KVStore) (string, error) {
	var n uint64
	err := store.GetJSON(s, keyContractCount, &n)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	n++
	err = store.SetJSON(s, keyContractCount, n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("contract%d", n), nil
}

// getBalance returns the native balance of an address. Addresses without a
// balance have a zero balance.
func getBalance(g store.Getter, addr, denom string) (numeric.Uint128, error) {
	var b numeric.Uint128
	err := store.GetJSON(g, balanceKey(addr, denom), &b)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return numeric.Uint128{}, err
	}
	return b, nil
}

// setBalance saves the native balance of an address.
func setBalance(s store.KVStore, addr, denom string, amount numeric.Uint128) error {
	if amount.IsZero() {
		s.Delete(balanceKey(addr, denom))
		return nil
	}
	return store.SetJSON(s, balanceKey(addr, denom), amount)
}

// mint credits native funds to an address.
func mint(s store.KVStore, addr string, c backend.Coin) error {
	b, err := getBalance(s, addr, c.Denom)
	if err != nil {
		return err
	}
	b, err = b.Add(c.Amount)
	if err != nil {
		return err
	}
	return setBalance(s, addr, c.Denom, b)
}

// transfer moves native funds between two addresses. A transfer event is
// returned for every coin.
func transfer(s store.KVStore, from, to string, coins []backend.Coin) ([]backend.Event, error) {
	err := backend.ValidateCoins(coins)
	if err != nil {
		return nil, err
	}
	events := make([]backend.Event, 0, len(coins))
	for _, c := range coins {
		fb, err := getBalance(s, from, c.Denom)
		if err != nil {
			return nil, err
		}
		if fb.Lt(c.Amount) {
			return nil, fmt.Errorf("%w: %v has %v%v, needs %v%v",
				backend.ErrInsufficientFunds, from, fb, c.Denom,
				c.Amount, c.Denom)
		}
		fb, err = fb.Sub(c.Amount)
		if err != nil {
			return nil, err
		}
		err = setBalance(s, from, c.Denom, fb)
		if err != nil {
			return nil, err
		}
		err = mint(s, to, c)
		if err != nil {
			return nil, err
		}
		events = append(events, backend.Event{
			Type: modules.EventTransfer,
			Attributes: []backend.Attribute{
				{Key: "recipient", Value: to},
				{Key: "sender", Value: from},
				{Key: "amount", Value: c.Amount.String() + c.Denom},
			},
		})
	}
	return events, nil
}
