// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multiple_test

import (
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/multiple"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

func newDao(t *testing.T) (*daotest.Harness, daotest.Dao) {
	h := daotest.New(t)
	dao := h.NewDao(
		h.MembersVoting(
			members.Member{Addr: "alice", Weight: 3},
			members.Member{Addr: "bob", Weight: 2},
			members.Member{Addr: "carol", Weight: 1},
		),
		h.ModuleInfo(multiple.ID, "multiple", multiple.Instantiate{
			VotingStrategy: voting.VotingStrategy{
				Quorum: voting.Percent(numeric.Percent(20)),
			},
			MaxVotingPeriod: block.Height(10),
			PreProposeInfo: voting.PreProposeInfo{
				Type: voting.PolicyAnyone,
			},
		}),
	)
	h.Mint(dao.Core, 100)
	h.Advance(1, 5)
	return h, dao
}

func options(msgs ...[]backend.Msg) voting.MultipleChoiceOptions {
	var o voting.MultipleChoiceOptions
	for _, m := range msgs {
		o.Options = append(o.Options, voting.MultipleChoiceOption{
			Title:       "option",
			Description: "option",
			Msgs:        m,
		})
	}
	return o
}

func vote(h *daotest.Harness, module, voter string, id uint64, option uint32) error {
	_, err := h.Execute(voter, module, multiple.CmdVote, multiple.Vote{
		ProposalID: id,
		Vote:       multiple.MultipleChoiceVote{OptionID: option},
	})
	return err
}

func proposalReply(h *daotest.Harness, module string, id uint64) multiple.ProposalReply {
	var r multiple.ProposalReply
	h.Query(module, multiple.CmdProposal, multiple.ProposalQuery{
		ProposalID: id,
	}, &r)
	return r
}

func TestPropose(t *testing.T) {
	h, dao := newDao(t)
	pm := dao.Proposal()

	_, err := h.Execute("alice", pm, multiple.CmdPropose, multiple.Propose{
		Title:   "one option",
		Choices: options(nil),
	})
	daotest.RequireError(t, err, multiple.ID,
		uint32(multiple.ErrorCodeWrongNumberOfChoices))

	h.MustExecute("alice", pm, multiple.CmdPropose, multiple.Propose{
		Title:   "two options",
		Choices: options(nil, nil),
	})
	r := proposalReply(h, pm, 1)
	if len(r.Proposal.Choices) != 3 {
		t.Fatalf("got %v choices, want 3", len(r.Proposal.Choices))
	}
	if r.Proposal.Choices[2].Type != voting.OptionNone {
		t.Fatalf("last choice is %v", r.Proposal.Choices[2].Type)
	}
	if r.Proposal.TotalPower.Uint64() != 6 {
		t.Fatalf("got total power %v, want 6", r.Proposal.TotalPower)
	}

	err = vote(h, pm, "alice", 1, 3)
	daotest.RequireError(t, err, multiple.ID,
		uint32(multiple.ErrorCodeInvalidVote))
}

func TestUnbeatableOption(t *testing.T) {
	h, dao := newDao(t)
	pm := dao.Proposal()

	send := []backend.Msg{{
		BankSend: &backend.BankSendMsg{
			ToAddress: "dave",
			Amount:    []backend.Coin{backend.NewCoin(5, daotest.Denom)},
		},
	}}
	h.MustExecute("alice", pm, multiple.CmdPropose, multiple.Propose{
		Title:   "pay dave",
		Choices: options(send, nil),
	})

	// Three of six may still be caught up with.
	err := vote(h, pm, "alice", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s := proposalReply(h, pm, 1).Proposal.Status.Type; s != voting.StatusOpen {
		t.Fatalf("got status %v, want open", s)
	}
	err = vote(h, pm, "alice", 1, 1)
	daotest.RequireError(t, err, multiple.ID,
		uint32(multiple.ErrorCodeAlreadyVoted))

	err = vote(h, pm, "bob", 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s := proposalReply(h, pm, 1).Proposal.Status.Type; s != voting.StatusPassed {
		t.Fatalf("got status %v, want passed", s)
	}

	h.MustExecute("carol", pm, multiple.CmdExecute,
		multiple.Execute{ProposalID: 1})
	if got := h.Balance("dave").Uint64(); got != 5 {
		t.Fatalf("got balance %v, want 5", got)
	}
}

func TestTie(t *testing.T) {
	h, dao := newDao(t)
	pm := dao.Proposal()
	h.MustExecute("alice", pm, multiple.CmdPropose, multiple.Propose{
		Title:   "tie",
		Choices: options(nil, nil),
	})

	for _, v := range []struct {
		voter  string
		option uint32
	}{
		{"alice", 1},
		{"bob", 0},
		{"carol", 0},
	} {
		err := vote(h, pm, v.voter, 1, v.option)
		if err != nil {
			t.Fatal(err)
		}
	}

	// Everyone voted and the two options are tied.
	if s := proposalReply(h, pm, 1).Proposal.Status.Type; s != voting.StatusRejected {
		t.Fatalf("got status %v, want rejected", s)
	}
	_, err := h.Execute("alice", pm, multiple.CmdExecute,
		multiple.Execute{ProposalID: 1})
	daotest.RequireError(t, err, multiple.ID,
		uint32(multiple.ErrorCodeNotPassed))

	h.MustExecute("alice", pm, multiple.CmdClose,
		multiple.Close{ProposalID: 1})
	if s := proposalReply(h, pm, 1).Proposal.Status.Type; s != voting.StatusClosed {
		t.Fatalf("got status %v, want closed", s)
	}

	var lv multiple.ListVotesReply
	h.Query(pm, multiple.CmdListVotes, multiple.ListVotes{
		ProposalID: 1,
		Limit:      2,
	}, &lv)
	if len(lv.Votes) != 2 || lv.Votes[0].Voter != "alice" ||
		lv.Votes[1].Voter != "bob" {
		t.Fatalf("unexpected votes %+v", lv.Votes)
	}
}
