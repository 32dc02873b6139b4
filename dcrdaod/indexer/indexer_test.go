// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexer_test

import (
	"sort"
	"strconv"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/indexer"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/voting"
	"github.com/decred/dcrdao/unittest"
)

// memIndex is an in-memory Indexer.
type memIndex struct {
	proposals map[string]*indexer.Proposal
	votes     map[string]indexer.Vote
}

func newMemIndex() *memIndex {
	return &memIndex{
		proposals: make(map[string]*indexer.Proposal),
		votes:     make(map[string]indexer.Vote),
	}
}

func proposalKey(module string, id uint64) string {
	return module + "/" + strconv.FormatUint(id, 10)
}

func (m *memIndex) Apply(b indexer.Batch) error {
	for _, p := range b.Proposals {
		p := p
		m.proposals[proposalKey(p.Module, p.ProposalID)] = &p
	}
	for _, v := range b.Votes {
		m.votes[proposalKey(v.Module, v.ProposalID)+"/"+v.Voter] = v
	}
	for _, s := range b.Statuses {
		p, ok := m.proposals[proposalKey(s.Module, s.ProposalID)]
		if !ok {
			continue
		}
		p.Status = s.Status
	}
	return nil
}

func (m *memIndex) Proposals(q indexer.Query) ([]indexer.Proposal, error) {
	props := make([]indexer.Proposal, 0, len(m.proposals))
	for _, p := range m.proposals {
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		props = append(props, *p)
	}
	sort.Slice(props, func(i, j int) bool {
		return props[i].ProposalID < props[j].ProposalID
	})
	return props, nil
}

func (m *memIndex) Votes(module string, id uint64) ([]indexer.Vote, error) {
	var votes []indexer.Vote
	for _, v := range m.votes {
		if v.Module == module && v.ProposalID == id {
			votes = append(votes, v)
		}
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].Voter < votes[j].Voter
	})
	return votes, nil
}

func (m *memIndex) Close() error { return nil }

func wasm(contract string, attrs ...string) backend.Event {
	e := backend.Event{
		Type: modules.EventWasm,
		Attributes: []backend.Attribute{{
			Key:   modules.AttrContractAddress,
			Value: contract,
		}},
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attributes = append(e.Attributes, backend.Attribute{
			Key:   attrs[i],
			Value: attrs[i+1],
		})
	}
	return e
}

func TestParse(t *testing.T) {
	b := block.Info{Height: 7, Time: 1000}
	events := []backend.Event{
		{Type: modules.EventExecute},
		wasm("contract2", "action", "propose", "sender", "contract5",
			"proposer", "alice", "proposal_id", "3", "status", "open"),
		wasm("contract2", "action", "vote", "sender", "bob",
			"proposal_id", "3", "position", "no", "power", "4",
			"status", "rejected"),
		wasm("contract5", "action", "execute_propose", "proposal_id", "3"),
		wasm("contract2", "action", "close", "proposal_id", "3"),
		wasm("contract2", "proposal_execution_failed", "1", "error", "x"),
		wasm("contract9", "action", "add_hook", "address", "contract4"),
	}
	got, err := indexer.Parse(b, events)
	if err != nil {
		t.Fatal(err)
	}
	want := &indexer.Batch{
		Proposals: []indexer.Proposal{{
			Module:     "contract2",
			ProposalID: 3,
			Proposer:   "alice",
			Status:     "open",
			Height:     7,
			Timestamp:  1000,
		}},
		Votes: []indexer.Vote{{
			Module:     "contract2",
			ProposalID: 3,
			Voter:      "bob",
			Vote:       "no",
			Power:      "4",
			Height:     7,
		}},
		Statuses: []indexer.StatusChange{
			{Module: "contract2", ProposalID: 3, Status: "rejected", Height: 7},
			{Module: "contract2", ProposalID: 3, Status: "closed", Height: 7},
			{Module: "contract2", ProposalID: 1, Status: "executionfailed", Height: 7},
		},
	}
	if diff := unittest.DeepEqual(got, want); diff != "" {
		t.Fatal(diff)
	}

	_, err = indexer.Parse(b, []backend.Event{
		wasm("contract2", "action", "vote", "proposal_id", "x"),
	})
	if err == nil {
		t.Fatal("expected error for malformed proposal id")
	}
}

func TestHandler(t *testing.T) {
	h := daotest.New(t)
	idx := newMemIndex()
	h.Host.Subscribe(indexer.Handler(idx))

	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 2},
		members.Member{Addr: "bob", Weight: 1},
	)
	h.Advance(1, 5)

	pm := dao.Proposal()
	h.MustExecute("alice", pm, proposal.CmdPropose, proposal.Propose{
		Title:       "title",
		Description: "description",
	})
	props, err := idx.Proposals(indexer.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 1 {
		t.Fatalf("got %v proposals, want 1", len(props))
	}
	if props[0].Module != pm || props[0].Proposer != "alice" ||
		props[0].Status != voting.StatusOpen.String() {
		t.Fatalf("unexpected proposal %+v", props[0])
	}

	h.MustExecute("alice", pm, proposal.CmdVote, proposal.Vote{
		ProposalID: 1,
		Vote:       voting.VoteYes,
	})
	props, err = idx.Proposals(indexer.Query{
		Status: voting.StatusPassed.String(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 1 {
		t.Fatalf("got %v passed proposals, want 1", len(props))
	}
	votes, err := idx.Votes(pm, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []indexer.Vote{{
		Module:     pm,
		ProposalID: 1,
		Voter:      "alice",
		Vote:       voting.VoteYes.String(),
		Power:      "2",
		Height:     h.Block().Height,
	}}
	if diff := unittest.DeepEqual(votes, want); diff != "" {
		t.Fatal(diff)
	}

	h.MustExecute("bob", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	props, err = idx.Proposals(indexer.Query{
		Status: voting.StatusExecuted.String(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(props) != 1 {
		t.Fatalf("got %v executed proposals, want 1", len(props))
	}
}
