// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import "fmt"

// Reply IDs of the proposal modules are tagged. The low bits select the
// reply type and the remaining bits carry a proposal ID or a hook index.
const (
	replyTypeBits = 3
	replyTypeMask = (1 << replyTypeBits) - 1

	replyFailedProposalExecution = 0
	replyFailedProposalHook      = 1
	replyFailedVoteHook          = 2
	replyPreProposeInstantiation = 3
	replyFailedPreProposeHook    = 4
)

// ReplyT represents the type of a tagged reply.
type ReplyT uint32

const (
	// ReplyInvalid is an invalid reply type.
	ReplyInvalid ReplyT = 0

	// ReplyFailedProposalExecution is the reply to a failed proposal
	// execution. The value is the proposal ID.
	ReplyFailedProposalExecution ReplyT = 1

	// ReplyFailedProposalHook is the reply to a failed proposal hook.
	// The value is the hook index.
	ReplyFailedProposalHook ReplyT = 2

	// ReplyFailedVoteHook is the reply to a failed vote hook. The
	// value is the hook index.
	ReplyFailedVoteHook ReplyT = 3

	// ReplyPreProposeInstantiation is the reply to the instantiation
	// of a pre-propose module.
	ReplyPreProposeInstantiation ReplyT = 4

	// ReplyFailedPreProposeHook is the reply to a failed pre-propose
	// module completed hook.
	ReplyFailedPreProposeHook ReplyT = 5

	// ReplyLast is used for unit test validation of human readable
	// reply types.
	ReplyLast ReplyT = 6
)

var (
	// Replies contains the human readable reply types.
	Replies = map[ReplyT]string{
		ReplyInvalid:                 "invalid",
		ReplyFailedProposalExecution: "failed proposal execution",
		ReplyFailedProposalHook:      "failed proposal hook",
		ReplyFailedVoteHook:          "failed vote hook",
		ReplyPreProposeInstantiation: "pre-propose module instantiation",
		ReplyFailedPreProposeHook:    "failed pre-propose module hook",
	}
)

// TaggedReplyID is a decoded reply ID.
type TaggedReplyID struct {
	Type  ReplyT
	Value uint64
}

// ParseReplyID decodes a tagged reply ID.
func ParseReplyID(id uint64) (*TaggedReplyID, error) {
	v := id >> replyTypeBits
	switch id & replyTypeMask {
	case replyFailedProposalExecution:
		return &TaggedReplyID{ReplyFailedProposalExecution, v}, nil
	case replyFailedProposalHook:
		return &TaggedReplyID{ReplyFailedProposalHook, v}, nil
	case replyFailedVoteHook:
		return &TaggedReplyID{ReplyFailedVoteHook, v}, nil
	case replyPreProposeInstantiation:
		return &TaggedReplyID{Type: ReplyPreProposeInstantiation}, nil
	case replyFailedPreProposeHook:
		return &TaggedReplyID{Type: ReplyFailedPreProposeHook}, nil
	}
	return nil, fmt.Errorf("unknown reply id %v", id)
}

// MaskProposalExecutionID returns the reply ID for a failed execution of the
// proposal.
func MaskProposalExecutionID(proposalID uint64) uint64 {
	return replyFailedProposalExecution | proposalID<<replyTypeBits
}

// MaskProposalHookIndex returns the reply ID for a failed proposal hook.
func MaskProposalHookIndex(index uint64) uint64 {
	return replyFailedProposalHook | index<<replyTypeBits
}

// MaskVoteHookIndex returns the reply ID for a failed vote hook.
func MaskVoteHookIndex(index uint64) uint64 {
	return replyFailedVoteHook | index<<replyTypeBits
}

// PreProposeModuleInstantiationID is the reply ID for the instantiation of a
// pre-propose module.
const PreProposeModuleInstantiationID uint64 = replyPreProposeInstantiation

// FailedPreProposeModuleHookID is the reply ID for a failed pre-propose
// module completed hook.
const FailedPreProposeModuleHookID uint64 = replyFailedPreProposeHook
