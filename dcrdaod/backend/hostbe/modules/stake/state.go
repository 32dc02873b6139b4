// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stake

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/snapshot"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/stake"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	keyConfig          = "config"
	keyActiveThreshold = "activethreshold"
	keyBalance         = "balance"
	keyTotal           = "total"
	prefixClaims       = "claims/"
)

var (
	// staked contains the staked balances.
	staked = snapshot.New("staked")

	// totalStaked contains the total staked balance under keyTotal.
	totalStaked = snapshot.New("totalstaked")

	// stakeHooks are notified of every stake change.
	stakeHooks = hooks.New("hooks")
)

// config is the saved module config.
type config struct {
	Dao               string          `json:"dao"`
	Token             string          `json:"token"`
	UnstakingDuration *block.Duration `json:"unstakingduration,omitempty"`
}

func loadConfig(g store.Getter) (*config, error) {
	var c config
	err := store.GetJSON(g, keyConfig, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func saveConfig(s store.KVStore, c config) error {
	return store.SetJSON(s, keyConfig, c)
}

// loadActiveThreshold returns the active threshold. Nil is returned when no
// threshold is set.
func loadActiveThreshold(g store.Getter) (*stake.ActiveThreshold, error) {
	var at stake.ActiveThreshold
	err := store.GetJSON(g, keyActiveThreshold, &at)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &at, nil
}

func saveActiveThreshold(s store.KVStore, at *stake.ActiveThreshold) error {
	if at == nil {
		s.Delete(keyActiveThreshold)
		return nil
	}
	return store.SetJSON(s, keyActiveThreshold, at)
}

// loadBalance returns the amount of tokens that back the stakes. It includes
// staked tokens and funded rewards but not tokens that are being unstaked.
func loadBalance(g store.Getter) (numeric.Uint128, error) {
	var b numeric.Uint128
	err := store.GetJSON(g, keyBalance, &b)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return numeric.Uint128{}, err
	}
	return b, nil
}

func saveBalance(s store.KVStore, b numeric.Uint128) error {
	return store.SetJSON(s, keyBalance, b)
}

func claimsKey(addr string) string {
	return prefixClaims + addr
}

// loadClaims returns the pending claims of an address.
func loadClaims(g store.Getter, addr string) ([]stake.TokenClaim, error) {
	var c []stake.TokenClaim
	err := store.GetJSON(g, claimsKey(addr), &c)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return []stake.TokenClaim{}, nil
	case err != nil:
		return nil, err
	}
	return c, nil
}

func saveClaims(s store.KVStore, addr string, c []stake.TokenClaim) error {
	if len(c) == 0 {
		s.Delete(claimsKey(addr))
		return nil
	}
	return store.SetJSON(s, claimsKey(addr), c)
}

// stakedValue returns the amount of tokens that an amount of stake is
// worth.
func stakedValue(amount, balance, total numeric.Uint128) (numeric.Uint128, error) {
	if total.IsZero() {
		return numeric.Uint128{}, nil
	}
	return amount.MulDiv(balance, total)
}
