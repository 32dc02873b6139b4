// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/block"
)

// StatusT represents the status of a proposal.
type StatusT uint32

const (
	// StatusInvalid is an invalid proposal status.
	StatusInvalid StatusT = 0

	// StatusOpen indicates that the proposal is accepting votes.
	StatusOpen StatusT = 1

	// StatusRejected indicates that the proposal has been rejected.
	StatusRejected StatusT = 2

	// StatusPassed indicates that the proposal has passed and can be
	// executed.
	StatusPassed StatusT = 3

	// StatusExecuted indicates that the proposal has been executed.
	StatusExecuted StatusT = 4

	// StatusClosed indicates that a rejected proposal has been closed.
	StatusClosed StatusT = 5

	// StatusExecutionFailed indicates that the proposal messages failed
	// to execute and the module is configured to close proposals on
	// execution failures.
	StatusExecutionFailed StatusT = 6

	// StatusVetoTimelock indicates that the proposal has passed but
	// can still be vetoed until the timelock expires.
	StatusVetoTimelock StatusT = 7

	// StatusVetoed indicates that the proposal has been vetoed.
	StatusVetoed StatusT = 8

	// StatusLast is used for unit test validation of human readable
	// statuses.
	StatusLast StatusT = 9
)

var (
	// Statuses contains the human readable proposal statuses.
	Statuses = map[StatusT]string{
		StatusInvalid:         "invalid",
		StatusOpen:            "open",
		StatusRejected:        "rejected",
		StatusPassed:          "passed",
		StatusExecuted:        "executed",
		StatusClosed:          "closed",
		StatusExecutionFailed: "executionfailed",
		StatusVetoTimelock:    "vetotimelock",
		StatusVetoed:          "vetoed",
	}
)

// String satisfies the fmt.Stringer interface.
func (s StatusT) String() string {
	if v, ok := Statuses[s]; ok {
		return v
	}
	return Statuses[StatusInvalid]
}

// StatusFromString returns the status for a human readable status.
func StatusFromString(s string) (StatusT, bool) {
	for k, v := range Statuses {
		if v == s && k != StatusInvalid {
			return k, true
		}
	}
	return StatusInvalid, false
}

// IsFinal returns whether no further votes, executions, closes or vetoes are
// possible once a proposal has the status.
func (s StatusT) IsFinal() bool {
	switch s {
	case StatusExecuted, StatusClosed, StatusExecutionFailed, StatusVetoed:
		return true
	}
	return false
}

// Status is the status of a proposal. The expiration is only set for
// proposals in the veto timelock and marks the end of the timelock.
type Status struct {
	Type       StatusT          `json:"type"`
	Expiration block.Expiration `json:"expiration"`
}

// NewStatus returns a status without an expiration.
func NewStatus(s StatusT) Status {
	return Status{Type: s, Expiration: block.Never()}
}

// String satisfies the fmt.Stringer interface.
func (s Status) String() string {
	if s.Type == StatusVetoTimelock {
		return fmt.Sprintf("%v (%v)", s.Type, s.Expiration)
	}
	return s.Type.String()
}

// CurrentStatus returns the status of a proposal at the provided block. The
// status is recomputed lazily from the stored status, the evaluation outcome
// and the clock:
//
// An open proposal that passed moves into the veto timelock when a veto is
// configured and the timelock, which starts at the proposal expiration, has
// not expired yet. Otherwise it is passed. An open proposal that expired or
// was rejected is rejected. A timelocked proposal whose timelock expired is
// passed.
func CurrentStatus(s Status, b block.Info, expiration block.Expiration, veto *VetoConfig, outcome OutcomeT) (Status, error) {
	switch {
	case s.Type == StatusOpen && outcome == OutcomePassed:
		if veto == nil {
			return NewStatus(StatusPassed), nil
		}
		e, err := expiration.Add(veto.TimelockDuration)
		if err != nil {
			return Status{}, err
		}
		if e.IsExpired(b) {
			return NewStatus(StatusPassed), nil
		}
		return Status{Type: StatusVetoTimelock, Expiration: e}, nil

	case s.Type == StatusOpen &&
		(expiration.IsExpired(b) || outcome == OutcomeRejected):
		return NewStatus(StatusRejected), nil

	case s.Type == StatusVetoTimelock && s.Expiration.IsExpired(b):
		return NewStatus(StatusPassed), nil
	}

	return s, nil
}

var (
	// ErrNoVetoConfiguration is returned when a veto is attempted on a
	// proposal without a veto config.
	ErrNoVetoConfiguration = errors.New("proposal is not vetoable")

	// ErrTimelockDurationUnitsMismatch is returned when the timelock
	// duration and the max voting period use different units.
	ErrTimelockDurationUnitsMismatch = errors.New("veto timelock duration " +
		"must have the same units as the max voting period")

	// ErrTimelockExpired is returned when a veto is attempted after the
	// timelock expired.
	ErrTimelockExpired = errors.New("proposal veto timelock has expired")

	// ErrTimelocked is returned when a non vetoer attempts to execute a
	// proposal that is in the veto timelock.
	ErrTimelocked = errors.New("proposal is timelocked")

	// ErrVetoInvalidProposalStatus is returned when a veto is attempted
	// on a proposal with a status that can not be vetoed.
	ErrVetoInvalidProposalStatus = errors.New("proposal status can not be " +
		"vetoed")

	// ErrVetoUnauthorized is returned when the sender is not the
	// vetoer.
	ErrVetoUnauthorized = errors.New("only the vetoer can veto")

	// ErrNoEarlyExecute is returned when the vetoer attempts to execute
	// a timelocked proposal and early execution is disabled.
	ErrNoEarlyExecute = errors.New("early execution during the veto " +
		"timelock is not enabled")

	// ErrNoVetoBeforePassed is returned when the vetoer attempts to
	// veto an open proposal and veto before passed is disabled.
	ErrNoVetoBeforePassed = errors.New("veto before passed is not enabled")
)

// VetoConfig describes who may veto a proposal and for how long.
type VetoConfig struct {
	// TimelockDuration is the time after the proposal expiration during
	// which a passed proposal can still be vetoed.
	TimelockDuration block.Duration `json:"timelockduration"`

	// Vetoer is the address that may veto.
	Vetoer string `json:"vetoer"`

	// EarlyExecute allows the vetoer to execute a proposal during the
	// timelock.
	EarlyExecute bool `json:"earlyexecute"`

	// VetoBeforePassed allows the vetoer to veto open proposals.
	VetoBeforePassed bool `json:"vetobeforepassed"`
}

// Validate verifies that the timelock duration uses the same units as the
// max voting period.
func (v VetoConfig) Validate(maxVotingPeriod block.Duration) error {
	if err := v.TimelockDuration.Validate(); err != nil {
		return err
	}
	if !v.TimelockDuration.SameUnits(maxVotingPeriod) {
		return ErrTimelockDurationUnitsMismatch
	}
	return nil
}

// CheckIsVetoer returns ErrVetoUnauthorized if the sender is not the vetoer.
func (v VetoConfig) CheckIsVetoer(sender string) error {
	if v.Vetoer != sender {
		return ErrVetoUnauthorized
	}
	return nil
}

// CheckEarlyExecuteEnabled returns ErrNoEarlyExecute if early execution is
// disabled.
func (v VetoConfig) CheckEarlyExecuteEnabled() error {
	if !v.EarlyExecute {
		return ErrNoEarlyExecute
	}
	return nil
}

// CheckVetoBeforePassedEnabled returns ErrNoVetoBeforePassed if open
// proposals can not be vetoed.
func (v VetoConfig) CheckVetoBeforePassedEnabled() error {
	if !v.VetoBeforePassed {
		return ErrNoVetoBeforePassed
	}
	return nil
}

// CheckVeto verifies that the sender may veto a proposal that has the
// provided, up to date, status.
func CheckVeto(veto *VetoConfig, s Status, b block.Info, sender string) error {
	if veto == nil {
		return ErrNoVetoConfiguration
	}
	if err := veto.CheckIsVetoer(sender); err != nil {
		return err
	}
	switch s.Type {
	case StatusOpen:
		return veto.CheckVetoBeforePassedEnabled()
	case StatusPassed:
		return ErrTimelockExpired
	case StatusVetoTimelock:
		if s.Expiration.IsExpired(b) {
			return ErrTimelockExpired
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrVetoInvalidProposalStatus, s.Type)
}
