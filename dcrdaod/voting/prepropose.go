// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/backend"
)

// ErrPreProposeInfoInvalid is returned when a module may propose but no
// module instantiate info was provided.
var ErrPreProposeInfoInvalid = errors.New("pre-propose info invalid")

// PolicyT represents a proposal creation policy type.
type PolicyT uint32

const (
	// PolicyInvalid is an invalid policy.
	PolicyInvalid PolicyT = 0

	// PolicyAnyone allows anyone to create proposals.
	PolicyAnyone PolicyT = 1

	// PolicyModule only allows a pre-propose module to create
	// proposals.
	PolicyModule PolicyT = 2

	// PolicyLast is used for unit test validation of human readable
	// policies.
	PolicyLast PolicyT = 3
)

var (
	// Policies contains the human readable proposal creation policies.
	Policies = map[PolicyT]string{
		PolicyInvalid: "invalid",
		PolicyAnyone:  "anyone",
		PolicyModule:  "module",
	}
)

// ProposalCreationPolicy determines who may create proposals.
type ProposalCreationPolicy struct {
	Type PolicyT `json:"type"`
	Addr string  `json:"addr,omitempty"` // Module address
}

// AnyonePolicy returns a policy that allows anyone to create proposals.
func AnyonePolicy() ProposalCreationPolicy {
	return ProposalCreationPolicy{Type: PolicyAnyone}
}

// ModulePolicy returns a policy that only allows the provided module to
// create proposals.
func ModulePolicy(addr string) ProposalCreationPolicy {
	return ProposalCreationPolicy{Type: PolicyModule, Addr: addr}
}

// IsPermitted returns whether the creator may create proposals.
func (p ProposalCreationPolicy) IsPermitted(creator string) bool {
	switch p.Type {
	case PolicyAnyone:
		return true
	case PolicyModule:
		return creator == p.Addr
	}
	return false
}

// PreProposeInfo describes how proposals are created. A module is
// instantiated on behalf of the DAO when a pre-propose module is requested.
type PreProposeInfo struct {
	Type PolicyT                        `json:"type"`
	Info *backend.ModuleInstantiateInfo `json:"info,omitempty"`
}

// InitialPolicy returns the creation policy that is used until the
// pre-propose module, if any, has been instantiated, and the messages that
// instantiate it. The caller sends the messages with a reply on success
// that uses PreProposeModuleInstantiationID.
func (p PreProposeInfo) InitialPolicy(dao string) (ProposalCreationPolicy, []backend.Msg, error) {
	switch p.Type {
	case PolicyAnyone:
		return AnyonePolicy(), nil, nil
	case PolicyModule:
		if p.Info == nil {
			return ProposalCreationPolicy{}, nil, ErrPreProposeInfoInvalid
		}
		return AnyonePolicy(), []backend.Msg{p.Info.Msg(dao)}, nil
	}
	return ProposalCreationPolicy{}, nil, ErrPreProposeInfoInvalid
}
