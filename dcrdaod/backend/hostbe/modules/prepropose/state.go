// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package prepropose

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/prepropose"
)

const (
	keyProposalModule = "proposalmodule"
	keyDao            = "dao"
	keyConfig         = "config"
	prefixDeposits    = "deposits/"
)

var (
	submittedHooks = hooks.New("submittedhooks")
)

// deposit is the deposit that was taken for a proposal. Deposit is nil if
// no deposit was configured when the proposal was submitted.
type deposit struct {
	Deposit  *prepropose.DepositInfo `json:"deposit,omitempty"`
	Proposer string                  `json:"proposer"`
}

func loadString(g store.Getter, key string) (string, error) {
	var v string
	err := store.GetJSON(g, key, &v)
	if err != nil {
		return "", err
	}
	return v, nil
}

func loadProposalModule(g store.Getter) (string, error) {
	return loadString(g, keyProposalModule)
}

func loadDao(g store.Getter) (string, error) {
	return loadString(g, keyDao)
}

func loadConfig(g store.Getter) (*prepropose.Config, error) {
	var c prepropose.Config
	err := store.GetJSON(g, keyConfig, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func saveConfig(s store.KVStore, c prepropose.Config) error {
	return store.SetJSON(s, keyConfig, c)
}

func depositKey(id uint64) string {
	return prefixDeposits + store.Uint64Key(id)
}

// loadDeposit returns the deposit of a proposal. Nil is returned when no
// deposit was recorded.
func loadDeposit(g store.Getter, id uint64) (*deposit, error) {
	var d deposit
	err := store.GetJSON(g, depositKey(id), &d)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &d, nil
}

func saveDeposit(s store.KVStore, id uint64, d deposit) error {
	return store.SetJSON(s, depositKey(id), d)
}

func deleteDeposit(s store.KVStore, id uint64) {
	s.Delete(depositKey(id))
}
