// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexer maintains an off-chain index of the proposals and votes of
// the proposal modules that are hosted by the backend.
package indexer

import (
	"errors"
	"strconv"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

const (
	// DefaultLimit is the number of proposals that are returned when a
	// query does not provide a limit.
	DefaultLimit = 10

	// MaxLimit is the maximum number of proposals that are returned by a
	// single query.
	MaxLimit = 100
)

var (
	// ErrShutdown is returned when the index is shutting down.
	ErrShutdown = errors.New("index is shutting down")
)

// Proposal is an indexed proposal.
type Proposal struct {
	Module     string `json:"module"`
	ProposalID uint64 `json:"proposalid"`
	Proposer   string `json:"proposer"`
	Status     string `json:"status"`
	Height     uint64 `json:"height"`    // Creation height
	Timestamp  int64  `json:"timestamp"` // Creation time
}

// Vote is an indexed vote. Revotes replace the previous vote of the voter.
type Vote struct {
	Module     string `json:"module"`
	ProposalID uint64 `json:"proposalid"`
	Voter      string `json:"voter"`
	Vote       string `json:"vote"`
	Power      string `json:"power"`
	Height     uint64 `json:"height"`
}

// StatusChange updates the status of an indexed proposal.
type StatusChange struct {
	Module     string
	ProposalID uint64
	Status     string
	Height     uint64
}

// Batch contains the index changes of a single committed transaction.
// Proposals are applied first, then votes, then status changes in order.
type Batch struct {
	Proposals []Proposal
	Votes     []Vote
	Statuses  []StatusChange
}

// IsEmpty returns whether the batch contains no changes.
func (b Batch) IsEmpty() bool {
	return len(b.Proposals) == 0 && len(b.Votes) == 0 &&
		len(b.Statuses) == 0
}

// Query filters the proposals that are returned by the index. Empty fields
// match everything.
type Query struct {
	Module string
	Status string
	Offset int
	Limit  int
}

// Indexer is the off-chain proposal index.
type Indexer interface {
	// Apply applies a batch of changes atomically.
	Apply(Batch) error

	// Proposals returns the proposals that match the query ordered by
	// module and proposal ID.
	Proposals(Query) ([]Proposal, error)

	// Votes returns the votes of a proposal ordered by voter.
	Votes(module string, proposalID uint64) ([]Vote, error)

	// Close performs cleanup of the index.
	Close() error
}

// actionStatus contains the proposal status that results from an action that
// does not report the status itself.
var actionStatus = map[string]voting.StatusT{
	"execute": voting.StatusExecuted,
	"close":   voting.StatusClosed,
	"veto":    voting.StatusVetoed,
}

// Parse extracts the index changes from the events of a committed
// transaction. Events that were not emitted by a proposal module are
// ignored.
func Parse(b block.Info, events []backend.Event) (*Batch, error) {
	var batch Batch
	for _, e := range events {
		if e.Type != modules.EventWasm {
			continue
		}
		module, ok := e.Attr(modules.AttrContractAddress)
		if !ok {
			continue
		}

		// Execution failures are reported by the reply of the
		// proposal module.
		if v, ok := e.Attr("proposal_execution_failed"); ok {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, err
			}
			batch.Statuses = append(batch.Statuses, StatusChange{
				Module:     module,
				ProposalID: id,
				Status:     voting.StatusExecutionFailed.String(),
				Height:     b.Height,
			})
			continue
		}

		action, _ := e.Attr("action")
		v, ok := e.Attr("proposal_id")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, err
		}
		status, _ := e.Attr("status")

		switch action {
		case "propose":
			proposer, _ := e.Attr("proposer")
			batch.Proposals = append(batch.Proposals, Proposal{
				Module:     module,
				ProposalID: id,
				Proposer:   proposer,
				Status:     status,
				Height:     b.Height,
				Timestamp:  int64(b.Time),
			})
		case "vote":
			voter, _ := e.Attr("sender")
			position, _ := e.Attr("position")
			power, _ := e.Attr("power")
			batch.Votes = append(batch.Votes, Vote{
				Module:     module,
				ProposalID: id,
				Voter:      voter,
				Vote:       position,
				Power:      power,
				Height:     b.Height,
			})
			batch.Statuses = append(batch.Statuses, StatusChange{
				Module:     module,
				ProposalID: id,
				Status:     status,
				Height:     b.Height,
			})
		default:
			s, ok := actionStatus[action]
			if !ok {
				continue
			}
			batch.Statuses = append(batch.Statuses, StatusChange{
				Module:     module,
				ProposalID: id,
				Status:     s.String(),
				Height:     b.Height,
			})
		}
	}
	return &batch, nil
}

// Handler returns a backend event handler that applies the events of every
// committed transaction to the index. Index failures are logged and do not
// affect the backend.
func Handler(i Indexer) backend.EventHandler {
	return func(b block.Info, events []backend.Event) {
		batch, err := Parse(b, events)
		if err != nil {
			log.Errorf("Parse events at height %v: %v", b.Height, err)
			return
		}
		if batch.IsEmpty() {
			return
		}
		err = i.Apply(*batch)
		if err != nil {
			log.Errorf("Apply index batch at height %v: %v", b.Height, err)
			return
		}

		log.Debugf("Indexed height %v: %v proposals, %v votes, %v status "+
			"changes", b.Height, len(batch.Proposals), len(batch.Votes),
			len(batch.Statuses))
	}
}
