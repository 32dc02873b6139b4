// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hostbe

import (
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

var (
	_ modules.Querier = (*querier)(nil)
)

// querier implements the modules Querier interface. Queries observe the state
// of the provided getter, which is the cache of the calling module during
// execution and the committed state otherwise.
type querier struct {
	host  *hostbe
	block block.Info
	state store.Getter
	depth int
}

// newQuerier returns a new querier.
func newQuerier(h *hostbe, b block.Info, state store.Getter, depth int) *querier {
	return &querier{
		host:  h,
		block: b,
		state: state,
		depth: depth,
	}
}

// Query performs a query on a contract. Writes made by the queried module
// are discarded.
//
// This function satisfies the modules Querier interface.
func (q *querier) Query(contract, cmd, payload string) (string, error) {
	if q.depth > maxCallDepth {
		return "", backend.ErrCallDepth
	}
	ci, err := contractInfo(q.state, contract)
	if err != nil {
		return "", err
	}
	code, err := q.host.code(ci.CodeID)
	if err != nil {
		return "", err
	}

	scratch := store.NewCache(q.state)
	deps := modules.Deps{
		Store:   store.Prefix(scratch, statePrefix(contract)),
		Querier: newQuerier(q.host, q.block, q.state, q.depth+1),
	}
	env := modules.Env{
		Block:    q.block,
		Contract: contract,
	}
	return code.Module.Query(deps, env, cmd, payload)
}

// Balance returns the native balance of an address.
//
// This function satisfies the modules Querier interface.
func (q *querier) Balance(address, denom string) (numeric.Uint128, error) {
	return getBalance(q.state, address, denom)
}

// ContractInfo returns information about a contract.
//
// This function satisfies the modules Querier interface.
func (q *querier) ContractInfo(address string) (*backend.ContractInfo, error) {
	return contractInfo(q.state, address)
}
