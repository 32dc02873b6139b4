// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package power defines the query API that every voting module answers. The
// core module proxies the voting power queries to its voting module so that
// proposal modules only need to know the address of the DAO.
package power

import (
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	// Voting module queries
	CmdVotingPowerAtHeight = "votingpoweratheight" // Get voting power
	CmdTotalPowerAtHeight  = "totalpoweratheight"  // Get total power
	CmdIsActive            = "isactive"            // Get active status
	CmdDao                 = "dao"                 // Get DAO address
	CmdInfo                = "info"                // Get contract version
	CmdTokenContract       = "tokencontract"       // Get token address
)

// VotingPowerAtHeight requests the voting power of an address. A nil height
// requests the power at the current block height. Changes made during a
// block are only visible from the next block height on.
type VotingPowerAtHeight struct {
	Address string  `json:"address"`
	Height  *uint64 `json:"height,omitempty"`
}

// VotingPowerAtHeightReply is the reply to the VotingPowerAtHeight query.
// Addresses without any history have zero power.
type VotingPowerAtHeightReply struct {
	Power  numeric.Uint128 `json:"power"`
	Height uint64          `json:"height"`
}

// TotalPowerAtHeight requests the total voting power.
type TotalPowerAtHeight struct {
	Height *uint64 `json:"height,omitempty"`
}

// TotalPowerAtHeightReply is the reply to the TotalPowerAtHeight query.
type TotalPowerAtHeightReply struct {
	Power  numeric.Uint128 `json:"power"`
	Height uint64          `json:"height"`
}

// IsActive requests whether the DAO is active. Voting modules without an
// activity threshold may not answer this query, in which case the DAO is
// considered to be active.
type IsActive struct{}

// IsActiveReply is the reply to the IsActive query.
type IsActiveReply struct {
	Active bool `json:"active"`
}

// Dao requests the DAO that a module belongs to.
type Dao struct{}

// DaoReply is the reply to the Dao query.
type DaoReply struct {
	Dao string `json:"dao"`
}

// Info requests the contract version of a module.
type Info struct{}

// InfoReply is the reply to the Info query.
type InfoReply struct {
	Info backend.ContractVersion `json:"info"`
}

// TokenContract requests the token that a voting module is based on.
type TokenContract struct{}

// TokenContractReply is the reply to the TokenContract query.
type TokenContractReply struct {
	Token string `json:"token"`
}

// At returns the height a query refers to.
func At(height *uint64, current uint64) uint64 {
	if height == nil {
		return current
	}
	return *height
}
