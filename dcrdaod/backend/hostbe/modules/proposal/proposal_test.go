// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package proposal_test

import (
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
	"github.com/decred/dcrdao/unittest"
)

func status(h *daotest.Harness, module string, id uint64) voting.StatusT {
	var r proposal.ProposalReply
	h.Query(module, proposal.CmdProposal, proposal.ProposalQuery{
		ProposalID: id,
	}, &r)
	return r.Proposal.Status.Type
}

func requireStatus(t *testing.T, h *daotest.Harness, module string, id uint64, want voting.StatusT) {
	t.Helper()

	if got := status(h, module, id); got != want {
		t.Fatalf("proposal %v: got status %v, want %v", id, got, want)
	}
}

func vote(h *daotest.Harness, module, voter string, id uint64, v voting.VoteT) error {
	_, err := h.Execute(voter, module, proposal.CmdVote, proposal.Vote{
		ProposalID: id,
		Vote:       v,
	})
	return err
}

func propose(h *daotest.Harness, module, proposer string, msgs ...backend.Msg) {
	h.MustExecute(proposer, module, proposal.CmdPropose, proposal.Propose{
		Title:       "title",
		Description: "description",
		Msgs:        msgs,
	})
}

func TestProposalLifecycle(t *testing.T) {
	h := daotest.New(t)
	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 3},
		members.Member{Addr: "bob", Weight: 1},
		members.Member{Addr: "carol", Weight: 1},
	)
	h.Mint(dao.Core, 100)
	h.Advance(1, 5)

	pm := dao.Proposal()
	propose(h, pm, "alice", backend.Msg{
		BankSend: &backend.BankSendMsg{
			ToAddress: "dave",
			Amount:    []backend.Coin{backend.NewCoin(10, daotest.Denom)},
		},
	})
	requireStatus(t, h, pm, 1, voting.StatusOpen)

	_, err := h.Execute("alice", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNotPassed))

	err = vote(h, pm, "dave", 1, voting.VoteYes)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNotRegistered))
	err = vote(h, pm, "alice", 2, voting.VoteYes)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNoSuchProposal))

	// Three out of five passes before the expiration.
	err = vote(h, pm, "alice", 1, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	requireStatus(t, h, pm, 1, voting.StatusPassed)

	err = vote(h, pm, "alice", 1, voting.VoteNo)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeAlreadyVoted))

	// Decided proposals accept votes until they expire.
	err = vote(h, pm, "bob", 1, voting.VoteNo)
	if err != nil {
		t.Fatal(err)
	}

	var gv proposal.GetVoteReply
	h.Query(pm, proposal.CmdGetVote, proposal.GetVote{
		ProposalID: 1,
		Voter:      "alice",
	}, &gv)
	if gv.Vote == nil || gv.Vote.Vote != voting.VoteYes ||
		gv.Vote.Power.Uint64() != 3 {
		t.Fatalf("unexpected vote %+v", gv.Vote)
	}
	var lv proposal.ListVotesReply
	h.Query(pm, proposal.CmdListVotes, proposal.ListVotes{ProposalID: 1}, &lv)
	if len(lv.Votes) != 2 || lv.Votes[0].Voter != "alice" ||
		lv.Votes[1].Voter != "bob" {
		t.Fatalf("unexpected votes %+v", lv.Votes)
	}

	h.MustExecute("bob", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	requireStatus(t, h, pm, 1, voting.StatusExecuted)
	if got := h.Balance("dave").Uint64(); got != 10 {
		t.Fatalf("got balance %v, want 10", got)
	}
	if got := h.Balance(dao.Core).Uint64(); got != 90 {
		t.Fatalf("got treasury %v, want 90", got)
	}

	_, err = h.Execute("bob", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNotPassed))
	err = vote(h, pm, "carol", 1, voting.VoteYes)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNotOpen))
}

func TestRevoting(t *testing.T) {
	h := daotest.New(t)
	dao := h.NewDao(
		h.MembersVoting(
			members.Member{Addr: "alice", Weight: 3},
			members.Member{Addr: "bob", Weight: 2},
		),
		h.ModuleInfo(proposal.ID, "single", proposal.Instantiate{
			Threshold:       voting.AbsolutePercentage(voting.Majority()),
			MaxVotingPeriod: block.Height(10),
			AllowRevoting:   true,
			PreProposeInfo: voting.PreProposeInfo{
				Type: voting.PolicyAnyone,
			},
		}),
	)
	h.Advance(1, 5)
	pm := dao.Proposal()
	propose(h, pm, "bob")

	err := vote(h, pm, "alice", 1, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}

	// Nothing is decided before the expiration.
	requireStatus(t, h, pm, 1, voting.StatusOpen)

	err = vote(h, pm, "alice", 1, voting.VoteYes)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeAlreadyCast))
	err = vote(h, pm, "alice", 1, voting.VoteNo)
	if err != nil {
		t.Fatal(err)
	}

	var r proposal.ProposalReply
	h.Query(pm, proposal.CmdProposal, proposal.ProposalQuery{ProposalID: 1},
		&r)
	if !r.Proposal.Votes.Yes.IsZero() || r.Proposal.Votes.No.Uint64() != 3 {
		t.Fatalf("unexpected votes %+v", r.Proposal.Votes)
	}

	h.Advance(10, 50)
	requireStatus(t, h, pm, 1, voting.StatusRejected)
	err = vote(h, pm, "bob", 1, voting.VoteYes)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeExpired))

	h.MustExecute("bob", pm, proposal.CmdClose, proposal.Close{ProposalID: 1})
	requireStatus(t, h, pm, 1, voting.StatusClosed)
	_, err = h.Execute("bob", pm, proposal.CmdClose,
		proposal.Close{ProposalID: 1})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeWrongCloseStatus))
}

func TestQuorum(t *testing.T) {
	h := daotest.New(t)
	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 2},
		members.Member{Addr: "bob", Weight: 1},
		members.Member{Addr: "carol", Weight: 7},
	)
	h.Advance(1, 5)
	pm := dao.Proposal()

	// Below quorum
	propose(h, pm, "alice")
	err := vote(h, pm, "bob", 1, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}

	// Quorum is met and yes wins among the votes cast.
	propose(h, pm, "alice")
	err = vote(h, pm, "alice", 2, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	err = vote(h, pm, "bob", 2, voting.VoteNo)
	if err != nil {
		t.Fatal(err)
	}
	requireStatus(t, h, pm, 1, voting.StatusOpen)
	requireStatus(t, h, pm, 2, voting.StatusOpen)

	h.Advance(10, 50)
	requireStatus(t, h, pm, 1, voting.StatusRejected)
	requireStatus(t, h, pm, 2, voting.StatusPassed)

	var pr proposal.ProposalsReply
	h.Query(pm, proposal.CmdReverseProposals, proposal.ReverseProposals{},
		&pr)
	if len(pr.Proposals) != 2 || pr.Proposals[0].ID != 2 ||
		pr.Proposals[0].Proposal.Status.Type != voting.StatusPassed {
		t.Fatalf("unexpected proposals %+v", pr.Proposals)
	}
}

func TestThresholdValidation(t *testing.T) {
	h := daotest.New(t)
	vm := h.MembersVoting(members.Member{Addr: "alice", Weight: 1})
	var tests = []struct {
		name      string
		threshold voting.Threshold
		want      proposal.ErrorCodeT
	}{
		{
			"zero percent",
			voting.AbsolutePercentage(voting.Percent(numeric.Percent(0))),
			proposal.ErrorCodeInvalidThreshold,
		},
		{
			"above one hundred percent",
			voting.AbsolutePercentage(voting.Percent(numeric.Percent(101))),
			proposal.ErrorCodeUnreachableThreshold,
		},
		{
			"zero count",
			voting.AbsoluteCount(numeric.NewUint128(0)),
			proposal.ErrorCodeInvalidThreshold,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Host.Instantiate(daotest.Creator, h.InstantiateMsg(
				core.ID, "dao", core.Instantiate{
					Name:         "dao",
					VotingModule: vm,
					ProposalModules: []backend.ModuleInstantiateInfo{
						h.SingleChoice(tc.threshold, block.Height(10)),
					},
				}))
			daotest.RequireError(t, err, proposal.ID, uint32(tc.want))
		})
	}
}

func TestHookReplies(t *testing.T) {
	h := daotest.New(t)
	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 3},
		members.Member{Addr: "bob", Weight: 1},
	)
	h.Advance(1, 5)
	pm := dao.Proposal()

	// Hooks may only be added by the DAO.
	_, err := h.Execute("alice", pm, proposal.CmdAddProposalHook,
		hookv1.Hook{Address: "nobody"})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeUnauthorized))

	propose(h, pm, "alice", backend.Msg{
		Execute: &backend.ExecuteMsg{
			Contract: pm,
			Cmd:      proposal.CmdAddProposalHook,
			Payload:  h.Encode(hookv1.Hook{Address: "nobody"}),
		},
	})
	err = vote(h, pm, "alice", 1, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	h.MustExecute("alice", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})

	var hr hookv1.HooksReply
	h.Query(pm, proposal.CmdProposalHooks, hookv1.Hooks{}, &hr)
	if len(hr.Hooks) != 1 || hr.Hooks[0] != "nobody" {
		t.Fatalf("unexpected hooks %v", hr.Hooks)
	}

	// The hook fails since nobody is not a contract. The failure is
	// routed back to the proposal module, which removes the hook, and
	// the proposal is still created.
	propose(h, pm, "bob")
	requireStatus(t, h, pm, 2, voting.StatusOpen)
	h.Query(pm, proposal.CmdProposalHooks, hookv1.Hooks{}, &hr)
	if len(hr.Hooks) != 0 {
		t.Fatalf("failed hook was not removed: %v", hr.Hooks)
	}
}

// addHooks passes and executes a proposal that adds the hooks to the
// proposal module. alice must hold a majority.
func addHooks(t *testing.T, h *daotest.Harness, pm, cmd string, addrs ...string) {
	t.Helper()

	var c proposal.ProposalCountReply
	h.Query(pm, proposal.CmdProposalCount, proposal.ProposalCount{}, &c)
	id := c.Count + 1

	msgs := make([]backend.Msg, 0, len(addrs))
	for _, addr := range addrs {
		msgs = append(msgs, backend.Msg{
			Execute: &backend.ExecuteMsg{
				Contract: pm,
				Cmd:      cmd,
				Payload:  h.Encode(hookv1.Hook{Address: addr}),
			},
		})
	}
	propose(h, pm, "alice", msgs...)
	err := vote(h, pm, "alice", id, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	h.MustExecute("alice", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: id})
}

func hookList(h *daotest.Harness, pm, cmd string) []string {
	var hr hookv1.HooksReply
	h.Query(pm, cmd, hookv1.Hooks{}, &hr)
	return hr.Hooks
}

func TestFailedHooksArePrunedByAddress(t *testing.T) {
	h := daotest.NewWithSink(t)
	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 3},
		members.Member{Addr: "bob", Weight: 1},
	)
	h.Advance(1, 5)
	pm := dao.Proposal()
	sinkOne := h.Instantiate(daotest.Creator, daotest.SinkID, struct{}{})
	sinkTwo := h.Instantiate(daotest.Creator, daotest.SinkID, struct{}{})

	// Broken and healthy vote hooks are interleaved. Pruning the first
	// broken hook must not shift the second one out of reach.
	addHooks(t, h, pm, proposal.CmdAddVoteHook,
		"badone", sinkOne, "badtwo", sinkTwo)
	want := []string{"badone", sinkOne, "badtwo", sinkTwo}
	if diff := unittest.DeepEqual(hookList(h, pm, proposal.CmdVoteHooks),
		want); diff != "" {
		t.Fatal(diff)
	}

	propose(h, pm, "bob")
	id := uint64(2)
	err := vote(h, pm, "bob", id, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	want = []string{sinkOne, sinkTwo}
	if diff := unittest.DeepEqual(hookList(h, pm, proposal.CmdVoteHooks),
		want); diff != "" {
		t.Fatal(diff)
	}
	for _, sink := range want {
		if n := h.Received(sink); n != 1 {
			t.Errorf("%v: got %v notifications, want 1", sink, n)
		}
	}

	// Every proposal hook fails. The proposal is still created and the
	// list ends up empty.
	addHooks(t, h, pm, proposal.CmdAddProposalHook, "badone", "badtwo")
	if got := hookList(h, pm, proposal.CmdProposalHooks); len(got) != 2 {
		t.Fatalf("unexpected proposal hooks %v", got)
	}
	propose(h, pm, "bob")
	requireStatus(t, h, pm, 4, voting.StatusOpen)
	if got := hookList(h, pm, proposal.CmdProposalHooks); len(got) != 0 {
		t.Fatalf("failed hooks were not removed: %v", got)
	}
}

func TestVotingPowerSnapshot(t *testing.T) {
	h := daotest.New(t)
	dao := h.MembersDao(
		members.Member{Addr: "alice", Weight: 3},
		members.Member{Addr: "bob", Weight: 1},
	)
	h.Advance(1, 5)
	pm := dao.Proposal()

	propose(h, pm, "alice", backend.Msg{
		Execute: &backend.ExecuteMsg{
			Contract: dao.Voting,
			Cmd:      members.CmdUpdateMembers,
			Payload: h.Encode(members.UpdateMembers{
				Add: []members.Member{{Addr: "dave", Weight: 10}},
			}),
		},
	})
	propose(h, pm, "bob")
	err := vote(h, pm, "alice", 1, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	h.MustExecute("alice", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	h.Advance(1, 5)

	// Proposal 2 uses the voting power at its creation.
	err = vote(h, pm, "dave", 2, voting.VoteYes)
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNotRegistered))

	propose(h, pm, "bob")
	err = vote(h, pm, "dave", 3, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	var r proposal.ProposalReply
	h.Query(pm, proposal.CmdProposal, proposal.ProposalQuery{ProposalID: 3},
		&r)
	if r.Proposal.TotalPower.Uint64() != 14 {
		t.Fatalf("got total power %v, want 14", r.Proposal.TotalPower)
	}
	if r.Proposal.Status.Type != voting.StatusPassed {
		t.Fatalf("got status %v, want passed", r.Proposal.Status.Type)
	}

	var pr proposal.ProposalsReply
	h.Query(pm, proposal.CmdListProposals, proposal.ListProposals{
		StartAfter: 1,
		Limit:      1,
	}, &pr)
	if len(pr.Proposals) != 1 || pr.Proposals[0].ID != 2 {
		t.Fatalf("unexpected page %+v", pr.Proposals)
	}
}

func TestVeto(t *testing.T) {
	h := daotest.New(t)
	dao := h.NewDao(
		h.MembersVoting(
			members.Member{Addr: "alice", Weight: 3},
			members.Member{Addr: "bob", Weight: 1},
		),
		h.ModuleInfo(proposal.ID, "single", proposal.Instantiate{
			Threshold: voting.ThresholdQuorum(voting.Majority(),
				voting.Percent(numeric.Percent(20))),
			MaxVotingPeriod: block.Height(10),
			PreProposeInfo:  voting.PreProposeInfo{Type: voting.PolicyAnyone},
			Veto: &voting.VetoConfig{
				TimelockDuration: block.Height(5),
				Vetoer:           "vetoer",
				EarlyExecute:     true,
			},
		}),
	)
	h.Advance(1, 5)
	pm := dao.Proposal()

	// A passed proposal sits in the timelock. Members must wait for it
	// to end while the vetoer may execute early.
	propose(h, pm, "alice")
	err := vote(h, pm, "alice", 1, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	requireStatus(t, h, pm, 1, voting.StatusVetoTimelock)
	_, err = h.Execute("bob", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeTimelocked))
	h.MustExecute("vetoer", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	requireStatus(t, h, pm, 1, voting.StatusExecuted)

	// Vetoed is final.
	propose(h, pm, "alice")
	err = vote(h, pm, "alice", 2, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	_, err = h.Execute("alice", pm, proposal.CmdVeto, proposal.Veto{
		ProposalID: 2,
	})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeUnauthorized))
	h.MustExecute("vetoer", pm, proposal.CmdVeto, proposal.Veto{
		ProposalID: 2,
	})
	requireStatus(t, h, pm, 2, voting.StatusVetoed)

	_, err = h.Execute("vetoer", pm, proposal.CmdVeto, proposal.Veto{
		ProposalID: 2,
	})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeInvalidProposalStatus))
	_, err = h.Execute("vetoer", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 2})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeNotPassed))
	_, err = h.Execute("alice", pm, proposal.CmdClose,
		proposal.Close{ProposalID: 2})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeWrongCloseStatus))

	// The proposal passes once the timelock has expired and can no
	// longer be vetoed.
	propose(h, pm, "alice")
	err = vote(h, pm, "alice", 3, voting.VoteYes)
	if err != nil {
		t.Fatal(err)
	}
	h.Advance(20, 100)
	requireStatus(t, h, pm, 3, voting.StatusPassed)
	_, err = h.Execute("vetoer", pm, proposal.CmdVeto, proposal.Veto{
		ProposalID: 3,
	})
	daotest.RequireError(t, err, proposal.ID,
		uint32(proposal.ErrorCodeTimelockExpired))
	h.MustExecute("bob", pm, proposal.CmdExecute,
		proposal.Execute{ProposalID: 3})
	requireStatus(t, h, pm, 3, voting.StatusExecuted)
}

func TestExecutionFailure(t *testing.T) {
	tests := []struct {
		name           string
		closeOnFailure bool
		wantErr        bool
		wantStatus     voting.StatusT
	}{
		{"close on failure", true, false, voting.StatusExecutionFailed},
		{"abort on failure", false, true, voting.StatusPassed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := daotest.New(t)
			dao := h.NewDao(
				h.MembersVoting(
					members.Member{Addr: "alice", Weight: 3},
					members.Member{Addr: "bob", Weight: 1},
				),
				h.ModuleInfo(proposal.ID, "single", proposal.Instantiate{
					Threshold:       voting.AbsolutePercentage(voting.Majority()),
					MaxVotingPeriod: block.Height(10),
					PreProposeInfo: voting.PreProposeInfo{
						Type: voting.PolicyAnyone,
					},
					CloseProposalOnExecutionFailure: tc.closeOnFailure,
				}),
			)
			h.Advance(1, 5)
			pm := dao.Proposal()

			// The treasury is empty so the transfer fails.
			propose(h, pm, "alice", backend.Msg{
				BankSend: &backend.BankSendMsg{
					ToAddress: "dave",
					Amount: []backend.Coin{
						backend.NewCoin(10, daotest.Denom),
					},
				},
			})
			err := vote(h, pm, "alice", 1, voting.VoteYes)
			if err != nil {
				t.Fatal(err)
			}
			_, err = h.Execute("bob", pm, proposal.CmdExecute,
				proposal.Execute{ProposalID: 1})
			if (err != nil) != tc.wantErr {
				t.Fatalf("got error %v, want error %v", err, tc.wantErr)
			}
			requireStatus(t, h, pm, 1, tc.wantStatus)
			if got := h.Balance("dave").Uint64(); got != 0 {
				t.Fatalf("got balance %v, want 0", got)
			}
		})
	}
}
