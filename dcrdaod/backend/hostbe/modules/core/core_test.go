// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core_test

import (
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/daotest"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	"github.com/decred/dcrdao/dcrdaod/modules/members"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/modules/token"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
	"github.com/decred/dcrdao/unittest"
)

const admin = "admin"

type fixture struct {
	*daotest.Harness
	core string
}

// newFixture returns a DAO that is administered by the admin account. The
// admin sends self calls through admin messages.
func newFixture(t *testing.T, pms int) *fixture {
	h := daotest.New(t)
	infos := make([]backend.ModuleInstantiateInfo, 0, pms)
	for i := 0; i < pms; i++ {
		infos = append(infos, singleChoice(h))
	}
	addr := h.Instantiate(daotest.Creator, core.ID, core.Instantiate{
		Name:        "Test DAO",
		Description: "A DAO used by the tests",
		Admin:       admin,
		VotingModule: h.MembersVoting(
			members.Member{Addr: "alice", Weight: 3},
			members.Member{Addr: "bob", Weight: 1},
		),
		ProposalModules:       infos,
		AutomaticallyAddCw20s: true,
		InitialItems:          []core.Item{{Key: "meta", Value: "1"}},
	})
	h.Advance(1, 5)
	return &fixture{
		Harness: h,
		core:    addr,
	}
}

func singleChoice(h *daotest.Harness) backend.ModuleInstantiateInfo {
	return h.SingleChoice(voting.AbsolutePercentage(voting.Majority()),
		block.Height(10))
}

// self executes a command on the core module on behalf of the core module.
func (f *fixture) self(cmd string, payload interface{}) error {
	_, err := f.Execute(admin, f.core, core.CmdExecuteAdminMsgs,
		core.ExecuteAdminMsgs{
			Msgs: []backend.Msg{f.selfMsg(cmd, payload)},
		})
	return err
}

func (f *fixture) selfMsg(cmd string, payload interface{}) backend.Msg {
	return backend.Msg{
		Execute: &backend.ExecuteMsg{
			Contract: f.core,
			Cmd:      cmd,
			Payload:  f.Encode(payload),
		},
	}
}

func (f *fixture) modules(cmd string) []core.ProposalModule {
	var r core.ProposalModulesReply
	f.Query(f.core, cmd, core.ProposalModules{}, &r)
	return r.Modules
}

func TestInstantiate(t *testing.T) {
	h := daotest.New(t)
	_, err := h.Host.Instantiate(daotest.Creator, h.InstantiateMsg(core.ID,
		"dao", core.Instantiate{
			Name: "no modules",
			VotingModule: h.MembersVoting(
				members.Member{Addr: "alice", Weight: 1}),
		}))
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeNoActiveProposalModules))

	f := newFixture(t, 2)
	var ds core.DumpStateReply
	f.Query(f.core, core.CmdDumpState, core.DumpState{}, &ds)
	if ds.Admin != admin {
		t.Errorf("got admin %v, want %v", ds.Admin, admin)
	}
	if ds.Version.Contract != core.ID || ds.Version.Version != core.Version {
		t.Errorf("unexpected version %+v", ds.Version)
	}
	if ds.PauseInfo.Paused {
		t.Errorf("new DAO is paused")
	}
	if ds.ActiveProposalModuleCount != 2 || ds.TotalProposalModuleCount != 2 {
		t.Errorf("got counts %v/%v, want 2/2", ds.ActiveProposalModuleCount,
			ds.TotalProposalModuleCount)
	}
	if len(ds.ProposalModules) != 2 ||
		ds.ProposalModules[0].Prefix != "A" ||
		ds.ProposalModules[1].Prefix != "B" {
		t.Fatalf("unexpected modules %+v", ds.ProposalModules)
	}

	// The proposal modules report the core module as their DAO.
	for _, m := range ds.ProposalModules {
		var r power.DaoReply
		f.Query(m.Address, power.CmdDao, power.Dao{}, &r)
		if r.Dao != f.core {
			t.Errorf("%v: got dao %v, want %v", m.Address, r.Dao, f.core)
		}
	}
	var vr power.DaoReply
	f.Query(ds.VotingModule, power.CmdDao, power.Dao{}, &vr)
	if vr.Dao != f.core {
		t.Errorf("voting module: got dao %v, want %v", vr.Dao, f.core)
	}
}

func TestVotingPowerQueries(t *testing.T) {
	f := newFixture(t, 1)
	height := f.Block().Height

	var vr power.VotingPowerAtHeightReply
	f.Query(f.core, power.CmdVotingPowerAtHeight, power.VotingPowerAtHeight{
		Address: "alice",
		Height:  &height,
	}, &vr)
	if vr.Power.Uint64() != 3 {
		t.Errorf("got power %v, want 3", vr.Power)
	}
	var tr power.TotalPowerAtHeightReply
	f.Query(f.core, power.CmdTotalPowerAtHeight, power.TotalPowerAtHeight{
		Height: &height,
	}, &tr)
	if tr.Power.Uint64() != 4 {
		t.Errorf("got total power %v, want 4", tr.Power)
	}
}

func TestItems(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.Execute("alice", f.core, core.CmdSetItem,
		core.SetItem{Key: "a", Value: "1"})
	daotest.RequireError(t, err, core.ID, uint32(core.ErrorCodeUnauthorized))

	for _, k := range []string{"a", "b", "c"} {
		err = f.self(core.CmdSetItem, core.SetItem{Key: k, Value: k + k})
		if err != nil {
			t.Fatal(err)
		}
	}
	err = f.self(core.CmdRemoveItem, core.RemoveItem{Key: "meta"})
	if err != nil {
		t.Fatal(err)
	}
	err = f.self(core.CmdRemoveItem, core.RemoveItem{Key: "meta"})
	daotest.RequireError(t, err, core.ID, uint32(core.ErrorCodeKeyMissing))

	var lr core.ListItemsReply
	f.Query(f.core, core.CmdListItems, core.ListItems{}, &lr)
	want := []core.Item{
		{Key: "c", Value: "cc"},
		{Key: "b", Value: "bb"},
		{Key: "a", Value: "aa"},
	}
	if diff := unittest.DeepEqual(lr.Items, want); diff != "" {
		t.Fatal(diff)
	}
	f.Query(f.core, core.CmdListItems, core.ListItems{
		StartAfter: "c",
		Limit:      1,
	}, &lr)
	if diff := unittest.DeepEqual(lr.Items, want[1:2]); diff != "" {
		t.Fatal(diff)
	}

	var gr core.GetItemReply
	f.Query(f.core, core.CmdGetItem, core.GetItem{Key: "b"}, &gr)
	if gr.Item == nil || *gr.Item != "bb" {
		t.Fatalf("unexpected item %v", gr.Item)
	}
	gr = core.GetItemReply{}
	f.Query(f.core, core.CmdGetItem, core.GetItem{Key: "meta"}, &gr)
	if gr.Item != nil {
		t.Fatalf("removed item %v", *gr.Item)
	}
}

func TestPause(t *testing.T) {
	f := newFixture(t, 1)
	f.Mint(f.core, 10)

	_, err := f.Execute("alice", f.core, core.CmdPause,
		core.Pause{Duration: block.Height(5)})
	daotest.RequireError(t, err, core.ID, uint32(core.ErrorCodeUnauthorized))
	_, err = f.Execute(admin, f.core, core.CmdPause,
		core.Pause{Duration: block.Height(0)})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeInvalidDuration))

	f.MustExecute(admin, f.core, core.CmdPause,
		core.Pause{Duration: block.Height(5)})
	var pr core.PauseInfoReply
	f.Query(f.core, core.CmdPauseInfo, core.PauseInfo{}, &pr)
	if !pr.Paused || pr.Expiration == nil {
		t.Fatalf("unexpected pause info %+v", pr)
	}

	// Self calls are rejected while paused. The admin may still move
	// funds.
	err = f.self(core.CmdSetItem, core.SetItem{Key: "a", Value: "a"})
	daotest.RequireError(t, err, core.ID, uint32(core.ErrorCodePaused))
	f.MustExecute(admin, f.core, core.CmdExecuteAdminMsgs,
		core.ExecuteAdminMsgs{
			Msgs: []backend.Msg{{
				BankSend: &backend.BankSendMsg{
					ToAddress: "carol",
					Amount: []backend.Coin{
						backend.NewCoin(10, daotest.Denom),
					},
				},
			}},
		})
	if got := f.Balance("carol").Uint64(); got != 10 {
		t.Fatalf("got balance %v, want 10", got)
	}

	f.Advance(5, 25)
	f.Query(f.core, core.CmdPauseInfo, core.PauseInfo{}, &pr)
	if pr.Paused {
		t.Fatal("DAO is still paused")
	}
	err = f.self(core.CmdSetItem, core.SetItem{Key: "a", Value: "a"})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUpdateProposalModules(t *testing.T) {
	f := newFixture(t, 1)
	old := f.modules(core.CmdProposalModules)[0].Address

	err := f.self(core.CmdUpdateProposalModules, core.UpdateProposalModules{
		ToDisable: []string{old},
	})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeNoActiveProposalModules))
	err = f.self(core.CmdUpdateProposalModules, core.UpdateProposalModules{
		ToDisable: []string{"contract99"},
	})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeProposalModuleDoesNotExist))

	// Pass a proposal in the old module before it is disabled.
	f.MustExecute("alice", old, proposal.CmdPropose, proposal.Propose{
		Title: "pay carol",
		Msgs: []backend.Msg{{
			BankSend: &backend.BankSendMsg{
				ToAddress: "carol",
				Amount:    []backend.Coin{backend.NewCoin(1, daotest.Denom)},
			},
		}},
	})
	f.MustExecute("alice", old, proposal.CmdVote, proposal.Vote{
		ProposalID: 1,
		Vote:       voting.VoteYes,
	})

	err = f.self(core.CmdUpdateProposalModules, core.UpdateProposalModules{
		ToAdd:     []backend.ModuleInstantiateInfo{singleChoice(f.Harness)},
		ToDisable: []string{old},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = f.self(core.CmdUpdateProposalModules, core.UpdateProposalModules{
		ToDisable: []string{old},
	})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeModuleAlreadyDisabled))

	all := f.modules(core.CmdProposalModules)
	active := f.modules(core.CmdActiveProposalModules)
	if len(all) != 2 || len(active) != 1 {
		t.Fatalf("got %v modules and %v active, want 2 and 1", len(all),
			len(active))
	}
	if active[0].Prefix != "B" || active[0].Address == old {
		t.Fatalf("unexpected active module %+v", active[0])
	}
	var cr core.ProposalModuleCountReply
	f.Query(f.core, core.CmdProposalModuleCount, core.ProposalModuleCount{},
		&cr)
	if cr.Active != 1 || cr.Total != 2 {
		t.Fatalf("got counts %+v, want 1/2", cr)
	}

	// Disabled modules may not execute proposals.
	f.Mint(f.core, 1)
	_, err = f.Execute("alice", old, proposal.CmdExecute,
		proposal.Execute{ProposalID: 1})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeModuleDisabledCannotExecute))
}

func TestAdminNomination(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.Execute(admin, f.core, core.CmdWithdrawAdminNomination,
		core.WithdrawAdminNomination{})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodeNoAdminNomination))

	bob := "bob"
	f.MustExecute(admin, f.core, core.CmdNominateAdmin,
		core.NominateAdmin{Admin: &bob})
	_, err = f.Execute(admin, f.core, core.CmdNominateAdmin,
		core.NominateAdmin{Admin: &bob})
	daotest.RequireError(t, err, core.ID,
		uint32(core.ErrorCodePendingNomination))
	_, err = f.Execute("alice", f.core, core.CmdAcceptAdminNomination,
		core.AcceptAdminNomination{})
	daotest.RequireError(t, err, core.ID, uint32(core.ErrorCodeUnauthorized))

	f.MustExecute(bob, f.core, core.CmdAcceptAdminNomination,
		core.AcceptAdminNomination{})
	var ar core.AdminReply
	f.Query(f.core, core.CmdAdmin, core.Admin{}, &ar)
	if ar.Admin != bob {
		t.Fatalf("got admin %v, want %v", ar.Admin, bob)
	}
	var nr core.AdminNominationReply
	f.Query(f.core, core.CmdAdminNomination, core.AdminNomination{}, &nr)
	if nr.Nomination != nil {
		t.Fatalf("nomination %v still pending", *nr.Nomination)
	}

	// Without a nominee the DAO becomes its own admin.
	f.MustExecute(bob, f.core, core.CmdNominateAdmin, core.NominateAdmin{})
	f.Query(f.core, core.CmdAdmin, core.Admin{}, &ar)
	if ar.Admin != f.core {
		t.Fatalf("got admin %v, want %v", ar.Admin, f.core)
	}
}

func TestSubDaos(t *testing.T) {
	f := newFixture(t, 1)

	err := f.self(core.CmdUpdateSubDaos, core.UpdateSubDaos{
		ToAdd: []core.SubDao{
			{Addr: "subdaob", Charter: "b"},
			{Addr: "subdaoa"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	err = f.self(core.CmdUpdateSubDaos, core.UpdateSubDaos{
		ToRemove: []string{"subdaoa"},
	})
	if err != nil {
		t.Fatal(err)
	}
	var r core.ListSubDaosReply
	f.Query(f.core, core.CmdListSubDaos, core.ListSubDaos{}, &r)
	want := []core.SubDao{{Addr: "subdaob", Charter: "b"}}
	if diff := unittest.DeepEqual(r.SubDaos, want); diff != "" {
		t.Fatal(diff)
	}
}

func TestCw20List(t *testing.T) {
	f := newFixture(t, 1)
	tk := f.Instantiate("alice", token.ID, token.Instantiate{
		Name:     "DAO token",
		Symbol:   "DAO",
		Decimals: 6,
		InitialBalances: []token.Balance{
			{Address: "alice", Amount: numeric.NewUint128(100)},
		},
	})

	err := f.self(core.CmdUpdateCw20List, core.UpdateCw20List{
		ToAdd: []string{f.core},
	})
	daotest.RequireError(t, err, core.ID, uint32(core.ErrorCodeInvalidCw20))

	// Tokens sent to the DAO are added automatically.
	f.MustExecute("alice", tk, token.CmdSend, token.Send{
		Contract: f.core,
		Amount:   numeric.NewUint128(40),
	})
	var lr core.Cw20ListReply
	f.Query(f.core, core.CmdCw20List, core.Cw20List{}, &lr)
	if len(lr.Tokens) != 1 || lr.Tokens[0] != tk {
		t.Fatalf("unexpected tokens %v", lr.Tokens)
	}
	var br core.Cw20BalancesReply
	f.Query(f.core, core.CmdCw20Balances, core.Cw20Balances{}, &br)
	if len(br.Balances) != 1 || br.Balances[0].Balance.Uint64() != 40 {
		t.Fatalf("unexpected balances %+v", br.Balances)
	}

	err = f.self(core.CmdUpdateCw20List, core.UpdateCw20List{
		ToRemove: []string{tk},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.Query(f.core, core.CmdCw20List, core.Cw20List{}, &lr)
	if len(lr.Tokens) != 0 {
		t.Fatalf("unexpected tokens %v", lr.Tokens)
	}
}
