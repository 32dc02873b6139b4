// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package multiple

import (
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/dao"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/block"
	hookv1 "github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/modules/multiple"
)

func (m *multipleModule) queryConfig(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.ConfigReply{Config: *c})
}

func (m *multipleModule) queryDao(d modules.Deps) (string, error) {
	c, err := loadConfig(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(power.DaoReply{Dao: c.Dao})
}

func (m *multipleModule) queryProposal(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q multiple.ProposalQuery
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
	return modules.EncodeReply(multiple.ProposalReply{
		ID:       q.ProposalID,
		Proposal: *p,
	})
}

// withStatus recomputes the status of every proposal of a page.
func withStatus(props []multiple.ProposalReply, b block.Info) error {
	for i := range props {
		err := updateStatus(&props[i].Proposal, b)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *multipleModule) queryListProposals(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q multiple.ListProposals
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, multiple.DefaultLimit, 0)
	props, err := listProposals(d.Store, q.StartAfter, false, limit)
	if err != nil {
		return "", err
	}
	err = withStatus(props, env.Block)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.ProposalsReply{Proposals: props})
}

func (m *multipleModule) queryReverseProposals(d modules.Deps, env modules.Env, payload string) (string, error) {
	var q multiple.ReverseProposals
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, multiple.DefaultLimit, 0)
	props, err := listProposals(d.Store, q.StartBefore, true, limit)
	if err != nil {
		return "", err
	}
	err = withStatus(props, env.Block)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.ProposalsReply{Proposals: props})
}

func (m *multipleModule) queryGetVote(d modules.Deps, payload string) (string, error) {
	var q multiple.GetVote
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	b, err := loadBallot(d.Store, q.ProposalID, q.Voter)
	if err != nil {
		return "", err
	}
	var reply multiple.GetVoteReply
	if b != nil {
		reply.Vote = &multiple.VoteInfo{
			Voter:     q.Voter,
			Vote:      b.Vote,
			Power:     b.Power,
			Rationale: b.Rationale,
		}
	}
	return modules.EncodeReply(reply)
}

func (m *multipleModule) queryListVotes(d modules.Deps, payload string) (string, error) {
	var q multiple.ListVotes
	err := modules.Decode(payload, &q)
	if err != nil {
		return "", err
	}
	limit := modules.PageLimit(q.Limit, multiple.DefaultLimit,
		multiple.MaxVoteLimit)
	votes, err := listBallots(d.Store, q.ProposalID, q.StartAfter, limit)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.ListVotesReply{Votes: votes})
}

func (m *multipleModule) queryProposalCount(d modules.Deps) (string, error) {
	n, err := dao.ProposalCount(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.ProposalCountReply{Count: n})
}

func (m *multipleModule) queryNextProposalID(d modules.Deps) (string, error) {
	id, err := dao.NextProposalID(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.NextProposalIDReply{ID: id})
}

func (m *multipleModule) queryCreationPolicy(d modules.Deps) (string, error) {
	p, err := dao.LoadPolicy(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(multiple.ProposalCreationPolicyReply{
		Policy: *p,
	})
}

func (m *multipleModule) queryHooks(d modules.Deps, h hooks.Hooks) (string, error) {
	addrs, err := h.List(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(hookv1.HooksReply{Hooks: addrs})
}
