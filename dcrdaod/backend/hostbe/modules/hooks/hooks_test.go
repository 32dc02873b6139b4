// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hooks

import (
	"errors"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/voting"
	"github.com/decred/dcrdao/unittest"
)

func errorCode(err error) uint32 {
	var me backend.ModuleError
	if !errors.As(err, &me) {
		return 0
	}
	return me.ErrorCode
}

func TestHooks(t *testing.T) {
	s := store.NewTestCache()
	h := New("proposalhooks")

	for _, v := range []string{"alice", "bob", "carol"} {
		err := h.Add(s, v)
		if err != nil {
			t.Fatal(err)
		}
	}

	err := h.Add(s, "bob")
	if errorCode(err) != uint32(hooks.ErrorCodeHookAlreadyRegistered) {
		t.Errorf("got %v, want hook already registered", err)
	}
	err = h.Add(s, "B")
	if !errors.Is(err, backend.ErrAddressInvalid) {
		t.Errorf("got %v, want %v", err, backend.ErrAddressInvalid)
	}
	err = h.Remove(s, "dave")
	if errorCode(err) != uint32(hooks.ErrorCodeHookNotRegistered) {
		t.Errorf("got %v, want hook not registered", err)
	}

	removed, err := h.Prune(s, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Errorf("bob was not pruned")
	}
	removed, err = h.Prune(s, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Errorf("bob was pruned twice")
	}

	got, err := h.List(s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(got, []string{"alice", "carol"}); diff != "" {
		t.Error(diff)
	}

	err = h.Remove(s, "alice")
	if err != nil {
		t.Fatal(err)
	}
	err = h.Remove(s, "carol")
	if err != nil {
		t.Fatal(err)
	}
	got, err = h.List(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no hooks", got)
	}
}

func TestNotifications(t *testing.T) {
	s := store.NewTestCache()
	h := New("hooks")
	for _, v := range []string{"alice", "bob"} {
		err := h.Add(s, v)
		if err != nil {
			t.Fatal(err)
		}
	}

	// New proposal hooks reply on error with the hook index
	msgs, err := NewProposalHooks(s, h, 3, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %v messages, want 2", len(msgs))
	}
	for i, m := range msgs {
		if m.ReplyOn != modules.ReplyOnError {
			t.Errorf("%v: got reply on %v", i, m.ReplyOn)
		}
		r, err := voting.ParseReplyID(m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if r.Type != voting.ReplyFailedProposalHook || r.Value != uint64(i) {
			t.Errorf("%v: got reply %v %v", i, r.Type, r.Value)
		}
		if m.Msg.Execute.Cmd != hooks.CmdNewProposalHook {
			t.Errorf("%v: got cmd %v", i, m.Msg.Execute.Cmd)
		}
	}
	if msgs[1].Msg.Execute.Contract != "bob" {
		t.Errorf("got contract %v, want bob", msgs[1].Msg.Execute.Contract)
	}
	if msgs[0].Msg.Execute.Payload != `{"proposalid":3,"proposer":"carol"}` {
		t.Errorf("got payload %v", msgs[0].Msg.Execute.Payload)
	}

	// Unchanged statuses are not sent
	msgs, err = ProposalStatusChangedHooks(s, h, 3, voting.StatusOpen,
		voting.StatusOpen)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %v messages, want 0", len(msgs))
	}
	msgs, err = ProposalStatusChangedHooks(s, h, 3, voting.StatusOpen,
		voting.StatusPassed)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"proposalid":3,"oldstatus":"open","newstatus":"passed"}`
	if len(msgs) != 2 || msgs[0].Msg.Execute.Payload != want {
		t.Errorf("unexpected messages: %v", unittest.Dump(msgs))
	}

	// Vote hooks use the vote hook tag
	msgs, err = NewVoteHooks(s, h, 3, "dave", voting.VoteYes.String())
	if err != nil {
		t.Fatal(err)
	}
	r, err := voting.ParseReplyID(msgs[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if r.Type != voting.ReplyFailedVoteHook || r.Value != 1 {
		t.Errorf("got reply %v %v", r.Type, r.Value)
	}

	// Stake hooks never reply
	msgs, err = StakeChangedHooks(s, h, hooks.StakeChangedHook{
		Type:    hooks.StakeChangeStake,
		Address: "dave",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range msgs {
		if m.ReplyOn != modules.ReplyOnNever {
			t.Errorf("got reply on %v", m.ReplyOn)
		}
	}
}

func TestProposalCompletedHook(t *testing.T) {
	msgs, err := ProposalCompletedHook(voting.AnyonePolicy(), 1,
		voting.StatusExecuted)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %v messages, want 0", len(msgs))
	}

	msgs, err = ProposalCompletedHook(voting.ModulePolicy("contract3"), 1,
		voting.StatusExecuted)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %v messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.ID != voting.FailedPreProposeModuleHookID ||
		m.ReplyOn != modules.ReplyOnError {
		t.Errorf("got id %v reply on %v", m.ID, m.ReplyOn)
	}
	if m.Msg.Execute.Contract != "contract3" ||
		m.Msg.Execute.Payload != `{"proposalid":1,"newstatus":4}` {
		t.Errorf("unexpected message: %v", unittest.Dump(m))
	}
}
