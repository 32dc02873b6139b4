// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package proposal

import (
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/block"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/proposal"
)

func (m *proposalModule) queryConfig(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ConfigReply{Config: *c})
}

func (m *proposalModule) queryDao(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(power.DaoReply{Dao: c.Dao})
}

func (m *proposalModule) queryProposal(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q proposal.ProposalQuery
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	p, err := loadProposal(d.Store, q.ProposalID)
	if err != nil {
		return "", err
	}
	err = updateStatus(p, env.Block)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ProposalReply{
		ID:       q.ProposalID,
		Proposal: *p,
	})
}

// withStatus recomputes the status of every proposal of a page.
func withStatus(props []proposal.ProposalReply, b block.Info) error {
	for i := range props {
		err := updateStatus(&props[i].Proposal, b)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *proposalModule) queryListProposals(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q proposal.ListProposals
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, proposal.DefaultLimit, 0)
	props, err := listProposals(d.Store, q.StartAfter, false, limit)
	if err != nil {
		return "", err
	}
	err = withStatus(props, env.Block)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ProposalsReply{Proposals: props})
}

func (m *proposalModule) queryReverseProposals(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q proposal.ReverseProposals
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, proposal.DefaultLimit, 0)
	props, err := listProposals(d.Store, q.StartBefore, true, limit)
	if err != nil {
		return "", err
	}
	err = withStatus(props, env.Block)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ProposalsReply{Proposals: props})
}

func (m *proposalModule) queryGetVote(d modules.Deps, payload string) (string, error) {
	var q proposal.GetVote
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	b, err := loadBallot(d.Store, q.ProposalID, q.Voter)
	if err != nil {
		return "", err
	}
	var reply proposal.GetVoteReply
	if b != nil {
		reply.Vote = &proposal.VoteInfo{
			Voter:     q.Voter,
			Vote:      b.Vote,
			Power:     b.Power,
			Rationale: b.Rationale,
		}
	}
	return modules.EncodeReply(reply)
}

func (m *proposalModule) queryListVotes(d modules.Deps, payload string) (string, error) {
	var q proposal.ListVotes
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, proposal.DefaultLimit,
		proposal.MaxVoteLimit)
	votes, err := listBallots(d.Store, q.ProposalID, q.StartAfter, limit)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ListVotesReply{Votes: votes})
}

func (m *proposalModule) queryProposalCount(d modules.Deps) (string, error) {
	n, err := dao.ProposalCount(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ProposalCountReply{Count: n})
}

func (m *proposalModule) queryNextProposalID(d modules.Deps) (string, error) {
	id, err := dao.NextProposalID(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.NextProposalIDReply{ID: id})
}

func (m *proposalModule) queryCreationPolicy(d modules.Deps) (string, error) {
	p, err := dao.LoadPolicy(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(proposal.ProposalCreationPolicyReply{
		Policy: *p,
	})
}

func (m *proposalModule) queryHooks(d modules.Deps, h hooks.Hooks) (string, error) {
	addrs, err := h.List(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(hookv1.HooksReply{Hooks: addrs})
}
