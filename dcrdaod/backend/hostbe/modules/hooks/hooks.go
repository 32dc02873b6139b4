// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hooks implements the hook subscriber lists of the DAO modules and
// builds the sub-messages that notify the subscribers.
package hooks

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/modules/hooks"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

// Hooks is an ordered list of subscriber addresses that is saved under a
// module chosen key.
type Hooks struct {
	key string
}

// New returns the hook list that is saved under the provided key.
func New(key string) Hooks {
	return Hooks{key: key}
}

// List returns the subscribers in the order they were added.
func (h Hooks) List(g store.Getter) ([]string, error) {
	var addrs []string
	err := store.GetJSON(g, h.key, &addrs)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return []string{}, nil
	case err != nil:
		return nil, err
	}
	return addrs, nil
}

func (h Hooks) save(s store.KVStore, addrs []string) error {
	if len(addrs) == 0 {
		s.Delete(h.key)
		return nil
	}
	return store.SetJSON(s, h.key, addrs)
}

// Add appends a subscriber to the list.
func (h Hooks) Add(s store.KVStore, addr string) error {
	err := backend.ValidateAddress(addr)
	if err != nil {
		return err
	}
	addrs, err := h.List(s)
	if err != nil {
		return err
	}
	for _, v := range addrs {
		if v == addr {
			return backend.ModuleError{
				ModuleID:     hooks.ModuleID,
				ErrorCode:    uint32(hooks.ErrorCodeHookAlreadyRegistered),
				ErrorContext: addr,
			}
		}
	}
	addrs = append(addrs, addr)

	log.Debugf("Hook added to %v: %v", h.key, addr)

	return h.save(s, addrs)
}

// Remove removes a subscriber from the list.
func (h Hooks) Remove(s store.KVStore, addr string) error {
	addrs, err := h.List(s)
	if err != nil {
		return err
	}
	for i, v := range addrs {
		if v != addr {
			continue
		}
		addrs = append(addrs[:i], addrs[i+1:]...)

		log.Debugf("Hook removed from %v: %v", h.key, addr)

		return h.save(s, addrs)
	}
	return backend.ModuleError{
		ModuleID:     hooks.ModuleID,
		ErrorCode:    uint32(hooks.ErrorCodeHookNotRegistered),
		ErrorContext: addr,
	}
}

// Prune removes a subscriber whose notification failed and returns whether
// it was still registered. Several notifications of the same operation may
// fail, so the subscriber is looked up by address and a subscriber that is
// already gone is not an error.
func (h Hooks) Prune(s store.KVStore, addr string) (bool, error) {
	err := h.Remove(s, addr)
	var me backend.ModuleError
	switch {
	case errors.As(err, &me) &&
		me.ErrorCode == uint32(hooks.ErrorCodeHookNotRegistered):
		return false, nil
	case err != nil:
		return false, err
	}

	log.Debugf("Failed hook pruned from %v: %v", h.key, addr)

	return true, nil
}

// Prepare returns a sub-message for every subscriber. The sub-message is
// built by fn from the index and the address of the subscriber.
func (h Hooks) Prepare(g store.Getter, fn func(index uint64, addr string) (modules.SubMsg, error)) ([]modules.SubMsg, error) {
	addrs, err := h.List(g)
	if err != nil {
		return nil, err
	}
	msgs := make([]modules.SubMsg, 0, len(addrs))
	for i, addr := range addrs {
		m, err := fn(uint64(i), addr)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// NewProposalHooks returns the notifications for a new proposal. Failed
// notifications reply with the tagged proposal hook index.
func NewProposalHooks(g store.Getter, h Hooks, proposalID uint64, proposer string) ([]modules.SubMsg, error) {
	p := hooks.NewProposalHook{
		ProposalID: proposalID,
		Proposer:   proposer,
	}
	return h.Prepare(g, func(i uint64, addr string) (modules.SubMsg, error) {
		m, err := modules.ExecuteMsg(addr, hooks.CmdNewProposalHook, p)
		if err != nil {
			return modules.SubMsg{}, err
		}
		return modules.SubMsgOnError(m, voting.MaskProposalHookIndex(i)), nil
	})
}

// ProposalStatusChangedHooks returns the notifications for a proposal status
// change. No notifications are sent when the status did not change.
func ProposalStatusChangedHooks(g store.Getter, h Hooks, proposalID uint64, from, to voting.StatusT) ([]modules.SubMsg, error) {
	if from == to {
		return []modules.SubMsg{}, nil
	}
	p := hooks.ProposalStatusChangedHook{
		ProposalID: proposalID,
		OldStatus:  from.String(),
		NewStatus:  to.String(),
	}
	return h.Prepare(g, func(i uint64, addr string) (modules.SubMsg, error) {
		m, err := modules.ExecuteMsg(addr, hooks.CmdProposalStatusChangedHook, p)
		if err != nil {
			return modules.SubMsg{}, err
		}
		return modules.SubMsgOnError(m, voting.MaskProposalHookIndex(i)), nil
	})
}

// NewVoteHooks returns the notifications for a cast vote. Failed
// notifications reply with the tagged vote hook index.
func NewVoteHooks(g store.Getter, h Hooks, proposalID uint64, voter, vote string) ([]modules.SubMsg, error) {
	p := hooks.NewVoteHook{
		ProposalID: proposalID,
		Voter:      voter,
		Vote:       vote,
	}
	return h.Prepare(g, func(i uint64, addr string) (modules.SubMsg, error) {
		m, err := modules.ExecuteMsg(addr, hooks.CmdNewVoteHook, p)
		if err != nil {
			return modules.SubMsg{}, err
		}
		return modules.SubMsgOnError(m, voting.MaskVoteHookIndex(i)), nil
	})
}

// StakeChangedHooks returns the notifications for a stake change. A failed
// notification aborts the stake change.
func StakeChangedHooks(g store.Getter, h Hooks, c hooks.StakeChangedHook) ([]modules.SubMsg, error) {
	return h.Prepare(g, func(i uint64, addr string) (modules.SubMsg, error) {
		m, err := modules.ExecuteMsg(addr, hooks.CmdStakeChangedHook, c)
		if err != nil {
			return modules.SubMsg{}, err
		}
		return modules.NewSubMsg(m), nil
	})
}

// ProposalSubmittedHooks returns the notifications for a proposal that was
// submitted through a pre-propose module. A failed notification aborts the
// submission.
func ProposalSubmittedHooks(g store.Getter, h Hooks, p hooks.ProposalSubmittedHook) ([]modules.SubMsg, error) {
	return h.Prepare(g, func(i uint64, addr string) (modules.SubMsg, error) {
		m, err := modules.ExecuteMsg(addr, hooks.CmdProposalSubmittedHook, p)
		if err != nil {
			return modules.SubMsg{}, err
		}
		return modules.NewSubMsg(m), nil
	})
}

// ProposalCompletedHook returns the notification that is sent to the
// pre-propose module when a proposal reaches a final status. Nothing is sent
// when proposals are not created through a pre-propose module. A failed
// notification replies with the failed pre-propose hook ID.
func ProposalCompletedHook(policy voting.ProposalCreationPolicy, proposalID uint64, status voting.StatusT) ([]modules.SubMsg, error) {
	if policy.Type != voting.PolicyModule {
		return []modules.SubMsg{}, nil
	}
	p := hooks.ProposalCompletedHook{
		ProposalID: proposalID,
		NewStatus:  status,
	}
	m, err := modules.ExecuteMsg(policy.Addr, hooks.CmdProposalCompletedHook, p)
	if err != nil {
		return nil, err
	}
	return []modules.SubMsg{
		modules.SubMsgOnError(m, voting.FailedPreProposeModuleHookID),
	}, nil
}
