// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multiple

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/multiple"
)

const (
	keyConfig       = "config"
	prefixProposals = "proposals/"
	prefixBallots   = "ballots/"
)

var (
	proposalHooks = hooks.New("proposalhooks")
	voteHooks     = hooks.New("votehooks")
)

func loadConfig(g store.Getter) (*multiple.Config, error) {
	var c multiple.Config
	err := store.GetJSON(g, keyConfig, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func saveConfig(s store.KVStore, c multiple.Config) error {
	return store.SetJSON(s, keyConfig, c)
}

func proposalKey(id uint64) string {
	return prefixProposals + store.Uint64Key(id)
}

// loadProposal returns a multiple. A user error is returned when the
// proposal does not exist.
func loadProposal(g store.Getter, id uint64) (*multiple.Proposal, error) {
	var p multiple.Proposal
	err := store.GetJSON(g, proposalKey(id), &p)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, userErr(multiple.ErrorCodeNoSuchProposal, "%v", id)
	case err != nil:
		return nil, err
	}
	return &p, nil
}

// saveProposal saves a proposal and returns the size of its encoding.
func saveProposal(s store.KVStore, id uint64, p multiple.Proposal) (int, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return 0, err
	}
	s.Set(proposalKey(id), b)
	return len(b), nil
}

// listProposals returns a page of proposals. Ascending pages start after
// the provided ID and descending pages start before it. A zero ID starts
// at the first, or the last, multiple.
func listProposals(g store.Getter, from uint64, reverse bool, limit int) ([]multiple.ProposalReply, error) {
	q := store.PrefixQuery(prefixProposals, reverse, limit)
	if from != 0 {
		if reverse {
			q.End = proposalKey(from)
		} else {
			q.Start = store.Successor(proposalKey(from))
		}
	}
	entries, err := g.Range(q)
	if err != nil {
		return nil, err
	}
	reply := make([]multiple.ProposalReply, 0, len(entries))
	for _, e := range entries {
		var r multiple.ProposalReply
		err = json.Unmarshal(e.Value, &r.Proposal)
		if err != nil {
			return nil, err
		}
		r.ID, err = parseProposalKey(e.Key)
		if err != nil {
			return nil, err
		}
		reply = append(reply, r)
	}
	return reply, nil
}

func parseProposalKey(key string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(key, prefixProposals), 10, 64)
}

func ballotPrefix(id uint64) string {
	return prefixBallots + store.Uint64Key(id) + store.Separator
}

func ballotKey(id uint64, voter string) string {
	return ballotPrefix(id) + voter
}

// loadBallot returns the ballot of a voter. Nil is returned when the voter
// did not vote.
func loadBallot(g store.Getter, id uint64, voter string) (*multiple.Ballot, error) {
	var b multiple.Ballot
	err := store.GetJSON(g, ballotKey(id, voter), &b)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &b, nil
}

func saveBallot(s store.KVStore, id uint64, voter string, b multiple.Ballot) error {
	return store.SetJSON(s, ballotKey(id, voter), b)
}

// listBallots returns a page of the votes of a proposal in ascending voter
// order.
func listBallots(g store.Getter, id uint64, startAfter string, limit int) ([]multiple.VoteInfo, error) {
	prefix := ballotPrefix(id)
	q := store.PrefixQuery(prefix, false, limit)
	if startAfter != "" {
		q.Start = store.Successor(prefix + startAfter)
	}
	entries, err := g.Range(q)
	if err != nil {
		return nil, err
	}
	votes := make([]multiple.VoteInfo, 0, len(entries))
	for _, e := range entries {
		var b multiple.Ballot
		err = json.Unmarshal(e.Value, &b)
		if err != nil {
			return nil, err
		}
		votes = append(votes, multiple.VoteInfo{
			Voter:     strings.TrimPrefix(e.Key, prefix),
			Vote:      b.Vote,
			Power:     b.Power,
			Rationale: b.Rationale,
		})
	}
	return votes, nil
}
