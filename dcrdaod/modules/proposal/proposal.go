// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package proposal defines the API of the single choice proposal module.
// Proposals carry a list of messages that are executed by the DAO if the
// proposal passes. Voters vote yes, no, abstain or veto.
package proposal

import (
	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

const (
	// ID is the module ID.
	ID = "proposal"

	// Version is the version of the module.
	Version = "1"

	// Commands
	CmdPropose              = "propose"              // Create a proposal
	CmdVote                 = "vote"                 // Cast a vote
	CmdUpdateRationale      = "updaterationale"      // Update a rationale
	CmdExecute              = "execute"              // Execute a proposal
	CmdVeto                 = "veto"                 // Veto a proposal
	CmdClose                = "close"                // Close a proposal
	CmdUpdateConfig         = "updateconfig"         // Update config
	CmdUpdatePreProposeInfo = "updatepreproposeinfo" // Update policy
	CmdAddProposalHook      = "addproposalhook"      // Add proposal hook
	CmdRemoveProposalHook   = "removeproposalhook"   // Remove proposal hook
	CmdAddVoteHook          = "addvotehook"          // Add vote hook
	CmdRemoveVoteHook       = "removevotehook"       // Remove vote hook

	// Queries
	CmdConfig                 = "config"                 // Get config
	CmdProposal               = "proposal"               // Get proposal
	CmdListProposals          = "listproposals"          // List proposals
	CmdReverseProposals       = "reverseproposals"       // List in reverse
	CmdGetVote                = "getvote"                // Get a vote
	CmdListVotes              = "listvotes"              // List votes
	CmdProposalCount          = "proposalcount"          // Get count
	CmdNextProposalID         = "nextproposalid"         // Get next ID
	CmdProposalCreationPolicy = "proposalcreationpolicy" // Get policy
	CmdProposalHooks          = "proposalhooks"          // Get proposal hooks
	CmdVoteHooks              = "votehooks"              // Get vote hooks
)

const (
	// MaxProposalSize is the maximum size in bytes of the JSON encoded
	// proposal.
	MaxProposalSize = 30000

	// DefaultLimit is the number of entries that are returned by the
	// paginated queries when no limit is provided.
	DefaultLimit = 10

	// MaxVoteLimit is the maximum number of votes that are returned by
	// the ListVotes query.
	MaxVoteLimit = 30
)

// ErrorCodeT represents a error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeUnauthorized is returned when the sender may not execute
	// the command.
	ErrorCodeUnauthorized ErrorCodeT = 1

	// ErrorCodeInvalidProposer is returned when a proposer is provided
	// by a sender that is not the pre-propose module, or is missing
	// when the sender is the pre-propose module.
	ErrorCodeInvalidProposer ErrorCodeT = 2

	// ErrorCodeInactiveDao is returned when a proposal is created while
	// the voting module reports the DAO as inactive.
	ErrorCodeInactiveDao ErrorCodeT = 3

	// ErrorCodeNoSuchProposal is returned when a proposal does not
	// exist.
	ErrorCodeNoSuchProposal ErrorCodeT = 4

	// ErrorCodeExpired is returned when a vote is cast on an expired
	// proposal.
	ErrorCodeExpired ErrorCodeT = 5

	// ErrorCodeNotOpen is returned when a vote is cast on a proposal
	// that has been decided for good.
	ErrorCodeNotOpen ErrorCodeT = 6

	// ErrorCodeNotRegistered is returned when the voter did not have
	// any voting power at the proposal start height.
	ErrorCodeNotRegistered ErrorCodeT = 7

	// ErrorCodeAlreadyCast is returned when a revote repeats the
	// previous vote.
	ErrorCodeAlreadyCast ErrorCodeT = 8

	// ErrorCodeAlreadyVoted is returned when a voter votes twice and
	// revoting is not allowed.
	ErrorCodeAlreadyVoted ErrorCodeT = 9

	// ErrorCodeNoSuchVote is returned when a rationale is updated for a
	// vote that does not exist.
	ErrorCodeNoSuchVote ErrorCodeT = 10

	// ErrorCodeNotPassed is returned when a proposal that has not
	// passed is executed.
	ErrorCodeNotPassed ErrorCodeT = 11

	// ErrorCodeWrongCloseStatus is returned when a proposal that has
	// not been rejected is closed.
	ErrorCodeWrongCloseStatus ErrorCodeT = 12

	// ErrorCodeProposalTooLarge is returned when the encoded proposal
	// exceeds MaxProposalSize.
	ErrorCodeProposalTooLarge ErrorCodeT = 13

	// ErrorCodeInvalidThreshold is returned when a threshold is
	// malformed or zero.
	ErrorCodeInvalidThreshold ErrorCodeT = 14

	// ErrorCodeUnreachableThreshold is returned when a threshold can
	// never be reached.
	ErrorCodeUnreachableThreshold ErrorCodeT = 15

	// ErrorCodeInvalidMinVotingPeriod is returned when the min voting
	// period exceeds the max voting period.
	ErrorCodeInvalidMinVotingPeriod ErrorCodeT = 16

	// ErrorCodeDurationUnitsConflict is returned when the voting
	// periods use different units.
	ErrorCodeDurationUnitsConflict ErrorCodeT = 17

	// ErrorCodeNoVetoConfiguration is returned when a proposal without
	// a veto config is vetoed.
	ErrorCodeNoVetoConfiguration ErrorCodeT = 18

	// ErrorCodeTimelockExpired is returned when a proposal is vetoed
	// after its timelock expired.
	ErrorCodeTimelockExpired ErrorCodeT = 19

	// ErrorCodeTimelocked is returned when a timelocked proposal is
	// executed by someone other than the vetoer.
	ErrorCodeTimelocked ErrorCodeT = 20

	// ErrorCodeInvalidProposalStatus is returned when a proposal with
	// a status that can not be vetoed is vetoed.
	ErrorCodeInvalidProposalStatus ErrorCodeT = 21

	// ErrorCodeVetoTimelockUnitsMismatch is returned when the veto
	// timelock and the max voting period use different units.
	ErrorCodeVetoTimelockUnitsMismatch ErrorCodeT = 22

	// ErrorCodeNoEarlyExecute is returned when the vetoer executes a
	// timelocked proposal and early execution is disabled.
	ErrorCodeNoEarlyExecute ErrorCodeT = 23

	// ErrorCodeNoVetoBeforePassed is returned when the vetoer vetoes an
	// open proposal and veto before passed is disabled.
	ErrorCodeNoVetoBeforePassed ErrorCodeT = 24

	// ErrorCodeInvalidPreProposeInfo is returned when the pre-propose
	// info requests a module without providing its instantiate info.
	ErrorCodeInvalidPreProposeInfo ErrorCodeT = 25

	// ErrorCodeInvalidVote is returned when a vote option is invalid.
	ErrorCodeInvalidVote ErrorCodeT = 26

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error will
	// never be returned.
	ErrorCodeLast ErrorCodeT = 27
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:                   "error code invalid",
		ErrorCodeUnauthorized:              "unauthorized",
		ErrorCodeInvalidProposer:           "invalid proposer",
		ErrorCodeInactiveDao:               "the dao is currently inactive",
		ErrorCodeNoSuchProposal:            "no such proposal",
		ErrorCodeExpired:                   "proposal is expired",
		ErrorCodeNotOpen:                   "proposal is not open",
		ErrorCodeNotRegistered:             "not registered to vote (no voting power) at time of proposal creation",
		ErrorCodeAlreadyCast:               "already cast a vote with that option",
		ErrorCodeAlreadyVoted:              "already voted",
		ErrorCodeNoSuchVote:                "no vote exists",
		ErrorCodeNotPassed:                 "proposal is not in 'passed' state",
		ErrorCodeWrongCloseStatus:          "only rejected proposals may be closed",
		ErrorCodeProposalTooLarge:          "proposal is too large",
		ErrorCodeInvalidThreshold:          "threshold invalid",
		ErrorCodeUnreachableThreshold:      "threshold can never be reached",
		ErrorCodeInvalidMinVotingPeriod:    "min voting period must be less than or equal to max voting period",
		ErrorCodeDurationUnitsConflict:     "min and max voting periods must have the same units",
		ErrorCodeNoVetoConfiguration:       "proposal is not vetoable",
		ErrorCodeTimelockExpired:           "proposal veto timelock has expired",
		ErrorCodeTimelocked:                "proposal is timelocked",
		ErrorCodeInvalidProposalStatus:     "proposal status can not be vetoed",
		ErrorCodeVetoTimelockUnitsMismatch: "veto timelock duration must have the same units as the max voting period",
		ErrorCodeNoEarlyExecute:            "early execution during the veto timelock is not enabled",
		ErrorCodeNoVetoBeforePassed:        "veto before passed is not enabled",
		ErrorCodeInvalidPreProposeInfo:     "pre-propose info invalid",
		ErrorCodeInvalidVote:               "vote invalid",
	}
)

// Config is the proposal module config. New proposals copy the threshold,
// the voting periods, the veto config and the revoting flag. Config changes
// do not affect existing proposals.
type Config struct {
	Threshold                       voting.Threshold   `json:"threshold"`
	MaxVotingPeriod                 block.Duration     `json:"maxvotingperiod"`
	MinVotingPeriod                 *block.Duration    `json:"minvotingperiod,omitempty"`
	OnlyMembersExecute              bool               `json:"onlymembersexecute"`
	AllowRevoting                   bool               `json:"allowrevoting"`
	Dao                             string             `json:"dao"`
	CloseProposalOnExecutionFailure bool               `json:"closeproposalonexecutionfailure"`
	Veto                            *voting.VetoConfig `json:"veto,omitempty"`
}

// Instantiate is the payload used to instantiate the module. The sender of
// the instantiation is the DAO.
type Instantiate struct {
	Threshold                       voting.Threshold      `json:"threshold"`
	MaxVotingPeriod                 block.Duration        `json:"maxvotingperiod"`
	MinVotingPeriod                 *block.Duration       `json:"minvotingperiod,omitempty"`
	OnlyMembersExecute              bool                  `json:"onlymembersexecute"`
	AllowRevoting                   bool                  `json:"allowrevoting"`
	PreProposeInfo                  voting.PreProposeInfo `json:"preproposeinfo"`
	CloseProposalOnExecutionFailure bool                  `json:"closeproposalonexecutionfailure"`
	Veto                            *voting.VetoConfig    `json:"veto,omitempty"`
}

// Proposal is a single choice proposal.
type Proposal struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Proposer    string `json:"proposer"`

	// StartHeight is the height the voting power of the voters is
	// taken from.
	StartHeight uint64 `json:"startheight"`

	// MinVotingPeriod is the earliest point a proposal may be decided
	// when it is set.
	MinVotingPeriod *block.Expiration `json:"minvotingperiod,omitempty"`
	Expiration      block.Expiration  `json:"expiration"`

	Threshold     voting.Threshold   `json:"threshold"`
	TotalPower    numeric.Uint128    `json:"totalpower"`
	Msgs          []backend.Msg      `json:"msgs"`
	Status        voting.Status      `json:"status"`
	Veto          *voting.VetoConfig `json:"veto,omitempty"`
	Votes         voting.Votes       `json:"votes"`
	AllowRevoting bool               `json:"allowrevoting"`
}

// Ballot is a cast vote. The power is the voting power of the voter at the
// proposal start height.
type Ballot struct {
	Power     numeric.Uint128 `json:"power"`
	Vote      voting.VoteT    `json:"vote"`
	Rationale *string         `json:"rationale,omitempty"`
}

// Propose creates a proposal. The proposer must only be set by the
// pre-propose module.
type Propose struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Msgs        []backend.Msg `json:"msgs"`
	Proposer    *string       `json:"proposer,omitempty"`
}

// ProposeReply is set as the response data of the Propose command.
type ProposeReply struct {
	ProposalID uint64 `json:"proposalid"`
}

// Vote casts a vote.
type Vote struct {
	ProposalID uint64       `json:"proposalid"`
	Vote       voting.VoteT `json:"vote"`
	Rationale  *string      `json:"rationale,omitempty"`
}

// UpdateRationale replaces the rationale of a cast vote.
type UpdateRationale struct {
	ProposalID uint64  `json:"proposalid"`
	Rationale  *string `json:"rationale,omitempty"`
}

// Execute executes the messages of a passed proposal.
type Execute struct {
	ProposalID uint64 `json:"proposalid"`
}

// Veto vetoes a proposal. Only the vetoer may veto.
type Veto struct {
	ProposalID uint64 `json:"proposalid"`
}

// Close closes a rejected proposal.
type Close struct {
	ProposalID uint64 `json:"proposalid"`
}

// UpdateConfig replaces the module config. Only the DAO may update the
// config.
type UpdateConfig struct {
	Threshold                       voting.Threshold   `json:"threshold"`
	MaxVotingPeriod                 block.Duration     `json:"maxvotingperiod"`
	MinVotingPeriod                 *block.Duration    `json:"minvotingperiod,omitempty"`
	OnlyMembersExecute              bool               `json:"onlymembersexecute"`
	AllowRevoting                   bool               `json:"allowrevoting"`
	Dao                             string             `json:"dao"`
	CloseProposalOnExecutionFailure bool               `json:"closeproposalonexecutionfailure"`
	Veto                            *voting.VetoConfig `json:"veto,omitempty"`
}

// UpdatePreProposeInfo replaces the proposal creation policy. A new
// pre-propose module is instantiated when one is requested.
type UpdatePreProposeInfo struct {
	Info voting.PreProposeInfo `json:"info"`
}

// ConfigQuery requests the module config.
type ConfigQuery struct{}

// ConfigReply is the reply to the ConfigQuery query.
type ConfigReply struct {
	Config Config `json:"config"`
}

// ProposalQuery requests a proposal.
type ProposalQuery struct {
	ProposalID uint64 `json:"proposalid"`
}

// ProposalReply contains a proposal. The status is the status at the block
// of the query.
type ProposalReply struct {
	ID       uint64   `json:"id"`
	Proposal Proposal `json:"proposal"`
}

// ListProposals requests a page of proposals in ascending ID order.
type ListProposals struct {
	StartAfter uint64 `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// ReverseProposals requests a page of proposals in descending ID order. A
// zero StartBefore starts at the newest proposal.
type ReverseProposals struct {
	StartBefore uint64 `json:"startbefore,omitempty"`
	Limit       uint32 `json:"limit,omitempty"`
}

// ProposalsReply is the reply to the ListProposals and the
// ReverseProposals queries.
type ProposalsReply struct {
	Proposals []ProposalReply `json:"proposals"`
}

// VoteInfo is a cast vote.
type VoteInfo struct {
	Voter     string          `json:"voter"`
	Vote      voting.VoteT    `json:"vote"`
	Power     numeric.Uint128 `json:"power"`
	Rationale *string         `json:"rationale,omitempty"`
}

// GetVote requests the vote of a voter.
type GetVote struct {
	ProposalID uint64 `json:"proposalid"`
	Voter      string `json:"voter"`
}

// GetVoteReply is the reply to the GetVote query. The vote is nil when the
// voter did not vote.
type GetVoteReply struct {
	Vote *VoteInfo `json:"vote,omitempty"`
}

// ListVotes requests a page of the votes of a proposal in ascending voter
// order.
type ListVotes struct {
	ProposalID uint64 `json:"proposalid"`
	StartAfter string `json:"startafter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// ListVotesReply is the reply to the ListVotes query.
type ListVotesReply struct {
	Votes []VoteInfo `json:"votes"`
}

// ProposalCount requests the number of created proposals.
type ProposalCount struct{}

// ProposalCountReply is the reply to the ProposalCount query.
type ProposalCountReply struct {
	Count uint64 `json:"count"`
}

// NextProposalID requests the ID of the next proposal.
type NextProposalID struct{}

// NextProposalIDReply is the reply to the NextProposalID query.
type NextProposalIDReply struct {
	ID uint64 `json:"id"`
}

// ProposalCreationPolicy requests the proposal creation policy.
type ProposalCreationPolicy struct{}

// ProposalCreationPolicyReply is the reply to the ProposalCreationPolicy
// query.
type ProposalCreationPolicyReply struct {
	Policy voting.ProposalCreationPolicy `json:"policy"`
}
