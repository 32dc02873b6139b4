// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hooks defines the notifications that DAO modules send to their
// hook subscribers and the payloads used to manage the subscriber lists.
package hooks

import (
	"encoding/json"

	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/dcrdaod/voting"
)

const (
	// ModuleID is the module ID of hook errors.
	ModuleID = "hooks"

	// Hook commands. These are executed on the hook subscribers.
	CmdNewProposalHook           = "newproposalhook"
	CmdProposalStatusChangedHook = "proposalstatuschangedhook"
	CmdNewVoteHook               = "newvotehook"
	CmdStakeChangedHook          = "stakechangedhook"
	CmdProposalSubmittedHook     = "proposalsubmittedhook"
	CmdProposalCompletedHook     = "proposalcompletedhook"
)

// ErrorCodeT represents a error that was caused by the user.
type ErrorCodeT uint32

const (
	// ErrorCodeInvalid is an invalid error code.
	ErrorCodeInvalid ErrorCodeT = 0

	// ErrorCodeHookAlreadyRegistered is returned when a hook is added
	// twice.
	ErrorCodeHookAlreadyRegistered ErrorCodeT = 1

	// ErrorCodeHookNotRegistered is returned when a hook that does not
	// exist is removed.
	ErrorCodeHookNotRegistered ErrorCodeT = 2

	// ErrorCodeLast is used by unit tests to verify that all error codes
	// have a human readable entry in the ErrorCodes map. This error will
	// never be returned.
	ErrorCodeLast ErrorCodeT = 3
)

var (
	// ErrorCodes contains the human readable error messages.
	ErrorCodes = map[ErrorCodeT]string{
		ErrorCodeInvalid:               "error code invalid",
		ErrorCodeHookAlreadyRegistered: "given address already registered as a hook",
		ErrorCodeHookNotRegistered:     "given address not registered as a hook",
	}
)

// NewProposalHook is sent when a proposal is created.
type NewProposalHook struct {
	ProposalID uint64 `json:"proposalid"`
	Proposer   string `json:"proposer"`
}

// ProposalStatusChangedHook is sent when the status of a proposal changes.
// The statuses are human readable.
type ProposalStatusChangedHook struct {
	ProposalID uint64 `json:"proposalid"`
	OldStatus  string `json:"oldstatus"`
	NewStatus  string `json:"newstatus"`
}

// NewVoteHook is sent when a vote is cast. The vote is human readable.
type NewVoteHook struct {
	ProposalID uint64 `json:"proposalid"`
	Voter      string `json:"voter"`
	Vote       string `json:"vote"`
}

// StakeChangeT represents the type of a stake change.
type StakeChangeT uint32

const (
	// StakeChangeInvalid is an invalid stake change.
	StakeChangeInvalid StakeChangeT = 0

	// StakeChangeStake is sent when tokens are staked.
	StakeChangeStake StakeChangeT = 1

	// StakeChangeUnstake is sent when tokens are unstaked.
	StakeChangeUnstake StakeChangeT = 2

	// StakeChangeLast is used for unit test validation of human readable
	// stake changes.
	StakeChangeLast StakeChangeT = 3
)

var (
	// StakeChanges contains the human readable stake changes.
	StakeChanges = map[StakeChangeT]string{
		StakeChangeInvalid: "invalid",
		StakeChangeStake:   "stake",
		StakeChangeUnstake: "unstake",
	}
)

// StakeChangedHook is sent by staking modules when a stake changes.
type StakeChangedHook struct {
	Type    StakeChangeT    `json:"type"`
	Address string          `json:"address"`
	Amount  numeric.Uint128 `json:"amount"`
}

// ProposalSubmittedHook is sent by pre-propose modules when a proposal is
// submitted through them. Msg is the propose payload that was forwarded to
// the proposal module.
type ProposalSubmittedHook struct {
	ProposalID uint64          `json:"proposalid"`
	Proposer   string          `json:"proposer"`
	Msg        json.RawMessage `json:"msg"`
}

// ProposalCompletedHook is sent by proposal modules to their pre-propose
// module when a proposal reaches a final status.
type ProposalCompletedHook struct {
	ProposalID uint64         `json:"proposalid"`
	NewStatus  voting.StatusT `json:"newstatus"`
}

// Hook is the payload of the commands that add or remove a hook.
type Hook struct {
	Address string `json:"address"`
}

// Hooks requests the hook subscribers of a list.
type Hooks struct{}

// HooksReply is the reply to the hook list queries.
type HooksReply struct {
	Hooks []string `json:"hooks"`
}
