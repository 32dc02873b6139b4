// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package members_test

import (
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/unittest"
)

func votingPower(h *daotest.Harness, contract, addr string, height uint64) uint64 {
	var r power.VotingPowerAtHeightReply
	h.Query(contract, power.CmdVotingPowerAtHeight, power.VotingPowerAtHeight{
		Address: addr,
		Height:  &height,
	}, &r)
	return r.Power.Uint64()
}

func totalPower(h *daotest.Harness, contract string, height uint64) uint64 {
	var r power.TotalPowerAtHeightReply
	h.Query(contract, power.CmdTotalPowerAtHeight, power.TotalPowerAtHeight{
		Height: &height,
	}, &r)
	return r.Power.Uint64()
}

func TestInstantiate(t *testing.T) {
	h := daotest.New(t)

	_, err := h.Host.Instantiate("dao", h.InstantiateMsg(members.ID, "m",
		members.Instantiate{
			Members: []members.Member{
				{Addr: "alice", Weight: 1},
				{Addr: "alice", Weight: 2},
			},
		}))
	daotest.RequireError(t, err, members.ID,
		uint32(members.ErrorCodeDuplicateMember))

	_, err = h.Host.Instantiate("dao", h.InstantiateMsg(members.ID, "m",
		members.Instantiate{
			Members: []members.Member{{Addr: "alice", Weight: 0}},
		}))
	daotest.RequireError(t, err, members.ID, uint32(members.ErrorCodeNoMembers))

	addr := h.Instantiate("dao", members.ID, members.Instantiate{
		Members: []members.Member{
			{Addr: "alice", Weight: 3},
			{Addr: "bob", Weight: 1},
		},
	})

	var dr power.DaoReply
	h.Query(addr, power.CmdDao, power.Dao{}, &dr)
	if dr.Dao != "dao" {
		t.Errorf("got dao %v, want dao", dr.Dao)
	}
}

func TestSnapshots(t *testing.T) {
	h := daotest.New(t)
	addr := h.Instantiate("dao", members.ID, members.Instantiate{
		Members: []members.Member{
			{Addr: "alice", Weight: 3},
			{Addr: "bob", Weight: 1},
		},
	})
	start := h.Block().Height

	// Changes made during a block are visible from the next height on.
	if got := votingPower(h, addr, "alice", start); got != 0 {
		t.Errorf("got %v at instantiation height, want 0", got)
	}
	h.Advance(1, 5)
	if got := totalPower(h, addr, start+1); got != 4 {
		t.Errorf("got total %v, want 4", got)
	}

	_, err := h.Execute("alice", addr, members.CmdUpdateMembers,
		members.UpdateMembers{Remove: []string{"bob"}})
	daotest.RequireError(t, err, members.ID,
		uint32(members.ErrorCodeUnauthorized))

	h.MustExecute("dao", addr, members.CmdUpdateMembers, members.UpdateMembers{
		Add:    []members.Member{{Addr: "carol", Weight: 5}},
		Remove: []string{"bob"},
	})
	_, err = h.Execute("dao", addr, members.CmdUpdateMembers,
		members.UpdateMembers{Remove: []string{"alice", "carol"}})
	daotest.RequireError(t, err, members.ID, uint32(members.ErrorCodeNoMembers))
	h.Advance(1, 5)

	var tests = []struct {
		addr   string
		height uint64
		want   uint64
	}{
		{"alice", start + 1, 3},
		{"bob", start + 1, 1},
		{"carol", start + 1, 0},
		{"alice", start + 2, 3},
		{"bob", start + 2, 0},
		{"carol", start + 2, 5},
		{"dave", start + 2, 0},
	}
	for _, tc := range tests {
		got := votingPower(h, addr, tc.addr, tc.height)
		if got != tc.want {
			t.Errorf("%v at %v: got %v, want %v", tc.addr, tc.height,
				got, tc.want)
		}
	}
	if got := totalPower(h, addr, start+1); got != 4 {
		t.Errorf("got total %v, want 4", got)
	}
	if got := totalPower(h, addr, start+2); got != 8 {
		t.Errorf("got total %v, want 8", got)
	}

	var lr members.ListMembersReply
	h.Query(addr, members.CmdListMembers, members.ListMembers{}, &lr)
	want := []members.Member{
		{Addr: "alice", Weight: 3},
		{Addr: "carol", Weight: 5},
	}
	if diff := unittest.DeepEqual(lr.Members, want); diff != "" {
		t.Error(diff)
	}
	h.Query(addr, members.CmdListMembers, members.ListMembers{
		StartAfter: "alice",
		Limit:      1,
	}, &lr)
	if diff := unittest.DeepEqual(lr.Members, want[1:]); diff != "" {
		t.Error(diff)
	}

	var mr members.MemberReply
	h.Query(addr, members.CmdMember, members.MemberQuery{Addr: "bob"}, &mr)
	if mr.Weight != nil {
		t.Errorf("got weight %v for removed member", *mr.Weight)
	}
}
