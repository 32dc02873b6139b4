// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dao contains the state and the DAO queries that are shared by the
// proposal modules.
package dao

import (
	"errors"
	"strconv"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/core"
	"github.com/decred/dcrdao/dcrdaod/modules/power"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
	pkgerrors "github.com/pkg/errors"
)

const (
	keyPolicy = "creationpolicy"
	keyCount  = "proposalcount"
)

var (
	// ErrNotPermitted is returned when the creation policy does not
	// permit the sender to create proposals.
	ErrNotPermitted = errors.New("not permitted to create proposals")

	// ErrInvalidProposer is returned when a proposer is provided by a
	// sender that may not provide one, or is missing.
	ErrInvalidProposer = errors.New("invalid proposer")
)

// VotingPower returns the voting power of an address at the provided
// height. The core proxies the query to its voting module.
func VotingPower(q modules.Querier, dao, addr string, height uint64) (numeric.Uint128, error) {
	var r power.VotingPowerAtHeightReply
	err := modules.QueryJSON(q, dao, power.CmdVotingPowerAtHeight,
		power.VotingPowerAtHeight{Address: addr, Height: &height}, &r)
	if err != nil {
		return numeric.Uint128{}, err
	}
	return r.Power, nil
}

// TotalPower returns the total voting power of the DAO at the provided
// height.
func TotalPower(q modules.Querier, dao string, height uint64) (numeric.Uint128, error) {
	var r power.TotalPowerAtHeightReply
	err := modules.QueryJSON(q, dao, power.CmdTotalPowerAtHeight,
		power.TotalPowerAtHeight{Height: &height}, &r)
	if err != nil {
		return numeric.Uint128{}, err
	}
	return r.Power, nil
}

// VotingModule returns the address of the voting module of the DAO.
func VotingModule(q modules.Querier, dao string) (string, error) {
	var r core.VotingModuleReply
	err := modules.QueryJSON(q, dao, core.CmdVotingModule,
		core.VotingModule{}, &r)
	if err != nil {
		return "", err
	}
	return r.Address, nil
}

// IsActive returns whether the DAO is active. Voting modules that do not
// answer the query are considered active.
func IsActive(q modules.Querier, dao string) (bool, error) {
	vm, err := VotingModule(q, dao)
	if err != nil {
		return false, err
	}
	var r power.IsActiveReply
	err = modules.QueryJSON(q, vm, power.CmdIsActive, power.IsActive{}, &r)
	if err != nil {
		log.Debugf("Voting module %v did not answer isactive: %v", vm, err)
		return true, nil
	}
	return r.Active, nil
}

// LoadPolicy returns the proposal creation policy.
func LoadPolicy(g store.Getter) (*voting.ProposalCreationPolicy, error) {
	var p voting.ProposalCreationPolicy
	err := store.GetJSON(g, keyPolicy, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePolicy saves the proposal creation policy.
func SavePolicy(s store.KVStore, p voting.ProposalCreationPolicy) error {
	return store.SetJSON(s, keyPolicy, p)
}

// Proposer returns the proposer of a new proposal. Anyone may propose
// for themselves when the policy permits it. The pre-propose module has
// to provide the proposer.
func Proposer(p voting.ProposalCreationPolicy, sender string, proposer *string) (string, error) {
	if !p.IsPermitted(sender) {
		return "", ErrNotPermitted
	}
	switch {
	case proposer == nil && p.Type == voting.PolicyAnyone:
		return sender, nil
	case proposer != nil && p.Type == voting.PolicyModule:
		return *proposer, nil
	}
	return "", ErrInvalidProposer
}

// ProposalCount returns the number of created proposals.
func ProposalCount(g store.Getter) (uint64, error) {
	var n uint64
	err := store.GetJSON(g, keyCount, &n)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	return n, nil
}

// NextProposalID returns the ID of the next proposal. IDs start at 1.
func NextProposalID(g store.Getter) (uint64, error) {
	n, err := ProposalCount(g)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// AdvanceProposalID allocates the next proposal ID.
func AdvanceProposalID(s store.KVStore) (uint64, error) {
	id, err := NextProposalID(s)
	if err != nil {
		return 0, err
	}
	return id, store.SetJSON(s, keyCount, id)
}

// Reply routes a tagged reply of a proposal module. Failed hooks are
// removed from their list. executionFailed is called with the proposal ID
// of a failed proposal execution.
func Reply(s store.KVStore, r modules.Reply, proposalHooks, voteHooks hooks.Hooks, executionFailed func(id uint64) error) (*modules.Response, error) {
	t, err := voting.ParseReplyID(r.ID)
	if err != nil {
		return nil, err
	}

	log.Debugf("Reply %v: %v", voting.Replies[t.Type], t.Value)

	resp := modules.NewResponse()
	switch t.Type {
	case voting.ReplyFailedProposalExecution:
		err = executionFailed(t.Value)
		if err != nil {
			return nil, err
		}
		resp.AddAttribute("proposal_execution_failed",
			strconv.FormatUint(t.Value, 10)).
			AddAttribute("error", r.Result.Err)

	case voting.ReplyFailedProposalHook:
		removed, err := proposalHooks.Prune(s, r.Target)
		if err != nil {
			return nil, err
		}
		if removed {
			resp.AddAttribute("removed_proposal_hook", r.Target)
		}

	case voting.ReplyFailedVoteHook:
		removed, err := voteHooks.Prune(s, r.Target)
		if err != nil {
			return nil, err
		}
		if removed {
			resp.AddAttribute("removed_vote_hook", r.Target)
		}

	case voting.ReplyPreProposeInstantiation:
		addr, ok := r.ContractAddress()
		if !ok {
			return nil, pkgerrors.New("pre-propose instantiation " +
				"reply without contract address")
		}
		err = SavePolicy(s, voting.ModulePolicy(addr))
		if err != nil {
			return nil, err
		}
		resp.AddAttribute("update_pre_propose_module", addr)

	case voting.ReplyFailedPreProposeHook:
		p, err := LoadPolicy(s)
		if err != nil {
			return nil, err
		}
		if p.Type != voting.PolicyModule {
			return nil, pkgerrors.Errorf("pre-propose hook failed "+
				"with creation policy %v", voting.Policies[p.Type])
		}
		err = SavePolicy(s, voting.AnyonePolicy())
		if err != nil {
			return nil, err
		}
		resp.AddAttribute("failed_prepropose_module_hook", p.Addr)

	default:
		return nil, pkgerrors.Errorf("unhandled reply type %v", t.Type)
	}

	return resp, nil
}
