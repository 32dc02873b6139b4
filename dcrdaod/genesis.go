// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/decred/dcrdao/dcrdaod/api/v1"
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/util"
	"github.com/pkg/errors"
)

const (
	// genesisFilename is the name of the file in the data dir that
	// records the contracts that were instantiated from the genesis
	// file. It prevents the genesis from being applied twice.
	genesisFilename = "genesis.json"
)

// genesisBalance is an initial balance.
type genesisBalance struct {
	Address string    `json:"address"`
	Coins   []v1.Coin `json:"coins"`
}

// genesisContract is a contract that is instantiated on a new chain. The
// code is referenced by name.
type genesisContract struct {
	Sender  string          `json:"sender"`
	Code    string          `json:"code"`
	Label   string          `json:"label"`
	Admin   string          `json:"admin,omitempty"`
	Payload json.RawMessage `json:"payload"`
	Funds   []v1.Coin       `json:"funds,omitempty"`
}

// genesis describes the initial state of a chain.
type genesis struct {
	Time      int64             `json:"time,omitempty"` // Unix timestamp
	Balances  []genesisBalance  `json:"balances"`
	Contracts []genesisContract `json:"contracts"`
}

// genesisRecord is saved to the data dir once the genesis has been
// applied.
type genesisRecord struct {
	Timestamp int64    `json:"timestamp"`
	Contracts []string `json:"contracts"` // Contract addresses
}

// loadGenesis reads a genesis file.
func loadGenesis(fp string) (*genesis, error) {
	b, err := os.ReadFile(fp)
	if err != nil {
		return nil, err
	}
	var g genesis
	err = json.Unmarshal(b, &g)
	if err != nil {
		return nil, fmt.Errorf("decode %v: %v", fp, err)
	}
	return &g, nil
}

// genesisTime returns the genesis block time. The zero time is returned when
// the genesis file does not set one.
func (g *genesis) genesisTime() time.Time {
	if g == nil || g.Time == 0 {
		return time.Time{}
	}
	return time.Unix(g.Time, 0)
}

func convertCoins(coins []v1.Coin) ([]backend.Coin, error) {
	c := make([]backend.Coin, 0, len(coins))
	for _, v := range coins {
		amount, err := numeric.Uint128FromString(v.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", backend.ErrCoinsInvalid, err)
		}
		c = append(c, backend.Coin{
			Denom:  v.Denom,
			Amount: amount,
		})
	}
	return c, nil
}

// codeIDs maps the registered code names to their code IDs.
func codeIDs(b backend.Backend) map[string]uint64 {
	ids := make(map[string]uint64)
	for _, c := range b.Codes() {
		ids[c.Name] = c.CodeID
	}
	return ids
}

// applyGenesis mints the genesis balances and instantiates the genesis
// contracts. It does nothing when the genesis has already been applied to
// the data dir.
func applyGenesis(b backend.Backend, g *genesis, dataDir string) error {
	fp := filepath.Join(dataDir, genesisFilename)
	if util.FileExists(fp) {
		log.Debugf("Genesis already applied")
		return nil
	}

	for _, v := range g.Balances {
		coins, err := convertCoins(v.Coins)
		if err != nil {
			return errors.Wrapf(err, "balance %v", v.Address)
		}
		for _, c := range coins {
			err := b.Mint(v.Address, c)
			if err != nil {
				return errors.Wrapf(err, "mint %v", v.Address)
			}
		}
	}

	ids := codeIDs(b)
	addrs := make([]string, 0, len(g.Contracts))
	for _, v := range g.Contracts {
		id, ok := ids[v.Code]
		if !ok {
			return errors.Errorf("genesis contract %v: unknown code %v",
				v.Label, v.Code)
		}
		funds, err := convertCoins(v.Funds)
		if err != nil {
			return errors.Wrapf(err, "contract %v", v.Label)
		}
		payload := string(v.Payload)
		if payload == "" {
			payload = "{}"
		}
		r, err := b.Instantiate(v.Sender, backend.InstantiateMsg{
			CodeID:  id,
			Label:   v.Label,
			Admin:   v.Admin,
			Payload: payload,
			Funds:   funds,
		})
		if err != nil {
			return errors.Wrapf(err, "instantiate %v", v.Label)
		}
		addrs = append(addrs, r.Address)

		log.Infof("Genesis contract %v: %v %v", v.Label, v.Code, r.Address)
	}

	rec, err := json.Marshal(genesisRecord{
		Timestamp: time.Now().Unix(),
		Contracts: addrs,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(fp, rec, 0600)
}
