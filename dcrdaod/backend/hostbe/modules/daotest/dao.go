// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package daotest

import (
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	membersv1 "github.com/decred/dcrdao/dcrdaod/modules/members"
	proposalv1 "github.com/decred/dcrdao/dcrdaod/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

// Creator is the address that instantiates the DAOs of the harness.
const Creator = "creator"

// Dao contains the addresses of an instantiated DAO.
type Dao struct {
	Core            string
	Voting          string
	ProposalModules []string
}

// Proposal returns the address of the first proposal module.
func (d Dao) Proposal() string {
	return d.ProposalModules[0]
}

// MembersVoting returns the instantiate info of a members voting module.
func (h *Harness) MembersVoting(m ...membersv1.Member) backend.ModuleInstantiateInfo {
	h.t.Helper()

	return h.ModuleInfo(membersv1.ID, "voting", membersv1.Instantiate{
		Members: m,
	})
}

// SingleChoice returns the instantiate info of a single choice proposal
// module that allows anyone to propose.
func (h *Harness) SingleChoice(t voting.Threshold, maxVotingPeriod block.Duration) backend.ModuleInstantiateInfo {
	h.t.Helper()

	return h.ModuleInfo(proposalv1.ID, "single", proposalv1.Instantiate{
		Threshold:       t,
		MaxVotingPeriod: maxVotingPeriod,
		PreProposeInfo:  voting.PreProposeInfo{Type: voting.PolicyAnyone},
	})
}

// NewDao instantiates a core module with the provided voting module and
// proposal modules and returns the addresses of the DAO.
func (h *Harness) NewDao(vm backend.ModuleInstantiateInfo, pms ...backend.ModuleInstantiateInfo) Dao {
	h.t.Helper()

	addr := h.Instantiate(Creator, core.ID, core.Instantiate{
		Name:            "Test DAO",
		Description:     "A DAO used by the tests",
		VotingModule:    vm,
		ProposalModules: pms,
	})

	var vr core.VotingModuleReply
	h.Query(addr, core.CmdVotingModule, core.VotingModule{}, &vr)
	var pr core.ProposalModulesReply
	h.Query(addr, core.CmdProposalModules, core.ProposalModules{
		Limit: core.MaxLimit,
	}, &pr)
	pm := make([]string, 0, len(pr.Modules))
	for _, m := range pr.Modules {
		pm = append(pm, m.Address)
	}

	return Dao{
		Core:            addr,
		Voting:          vr.Address,
		ProposalModules: pm,
	}
}

// MembersDao instantiates a DAO with a members voting module and a single
// choice proposal module. The proposal module requires a majority of all
// votes cast and a quorum of 20%, and proposals are open for 10 blocks.
func (h *Harness) MembersDao(m ...membersv1.Member) Dao {
	h.t.Helper()

	return h.NewDao(h.MembersVoting(m...), h.SingleChoice(
		voting.ThresholdQuorum(voting.Majority(),
			voting.Percent(numeric.Percent(20))),
		block.Height(10)))
}
