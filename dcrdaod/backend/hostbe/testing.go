// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hostbe

import (
	"testing"
	"time"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store/localdb"
)

const (
	// TestChainID is the chain ID of test hosts.
	TestChainID = "dcrdao-test"
)

var (
	// TestGenesisTime is the genesis block time of test hosts.
	TestGenesisTime = time.Unix(1600000000, 0)
)

// NewTestHost returns a hostbe that is backed by an in-memory store and has
// the provided codes registered. The host is closed when the test finishes.
func NewTestHost(t *testing.T, codes ...modules.Code) *hostbe {
	t.Helper()

	kv, err := localdb.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{
		ChainID:     TestChainID,
		GenesisTime: TestGenesisTime,
		Encrypt:     true,
	}
	h, err := New(kv, cfg, codes)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	return h
}
