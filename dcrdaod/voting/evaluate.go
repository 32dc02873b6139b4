// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/holiman/uint256"
)

// OutcomeT represents the outcome of evaluating the votes of an open
// proposal.
type OutcomeT uint32

const (
	// OutcomeInvalid is an invalid outcome.
	OutcomeInvalid OutcomeT = 0

	// OutcomeOpen indicates that the proposal has not been decided.
	OutcomeOpen OutcomeT = 1

	// OutcomePassed indicates that the proposal has passed.
	OutcomePassed OutcomeT = 2

	// OutcomeRejected indicates that the proposal has been rejected.
	OutcomeRejected OutcomeT = 3

	// OutcomeLast is used for unit test validation of human readable
	// outcomes.
	OutcomeLast OutcomeT = 4
)

var (
	// Outcomes contains the human readable outcomes.
	Outcomes = map[OutcomeT]string{
		OutcomeInvalid:  "invalid",
		OutcomeOpen:     "open",
		OutcomePassed:   "passed",
		OutcomeRejected: "rejected",
	}
)

// Evaluation contains everything that is needed to decide a single choice
// proposal.
type Evaluation struct {
	Votes      Votes
	TotalPower numeric.Uint128
	Threshold  Threshold

	// Expired is whether the voting period has ended.
	Expired bool

	// MinVotingPeriodElapsed is whether the min voting period has
	// ended. It must be true when there is no min voting period.
	MinVotingPeriodElapsed bool

	// AllowRevoting is whether voters may change their votes. Nothing
	// is decided before the expiration when revoting is allowed.
	AllowRevoting bool
}

// tally contains the evaluation counts as 256 bit integers so that sums
// can never overflow.
type tally struct {
	yes     *uint256.Int
	against *uint256.Int // no + veto
	abstain *uint256.Int
	total   *uint256.Int
	power   *uint256.Int
}

func (e Evaluation) tally() tally {
	var against, total uint256.Int
	against.Add(e.Votes.No.Int(), e.Votes.Veto.Int())
	total.Add(e.Votes.Yes.Int(), &against)
	total.Add(&total, e.Votes.Abstain.Int())
	return tally{
		yes:     e.Votes.Yes.Int(),
		against: &against,
		abstain: e.Votes.Abstain.Int(),
		total:   &total,
		power:   e.TotalPower.Int(),
	}
}

// saturatingSub returns a - b or zero if b > a.
func saturatingSub(a, b *uint256.Int) *uint256.Int {
	var r uint256.Int
	if _, underflow := r.SubOverflow(a, b); underflow {
		return new(uint256.Int)
	}
	return &r
}

// rejectsAtHundredPercent returns whether a proposal that requires every
// vote has been rejected.
func rejectsAtHundredPercent(options, against *uint256.Int) bool {
	if options.IsZero() {
		return true
	}
	return !against.IsZero()
}

// IsPassed returns whether the proposal has passed.
func (e Evaluation) IsPassed() bool {
	if e.AllowRevoting && !e.Expired {
		return false
	}
	if !e.MinVotingPeriodElapsed {
		return false
	}

	t := e.tally()
	switch e.Threshold.Type {
	case ThresholdAbsolutePercentage:
		if e.Threshold.Percentage == nil {
			return false
		}
		options := saturatingSub(t.power, t.abstain)
		return doesVoteCountPass(t.yes, options, *e.Threshold.Percentage)

	case ThresholdThresholdQuorum:
		if e.Threshold.Threshold == nil || e.Threshold.Quorum == nil {
			return false
		}
		if !doesVoteCountPass(t.total, t.power, *e.Threshold.Quorum) {
			return false
		}
		var options *uint256.Int
		if e.Expired {
			options = saturatingSub(t.total, t.abstain)
		} else {
			options = saturatingSub(t.power, t.abstain)
		}
		return doesVoteCountPass(t.yes, options, *e.Threshold.Threshold)

	case ThresholdAbsoluteCount:
		if e.Threshold.Count == nil {
			return false
		}
		return !t.yes.Lt(e.Threshold.Count.Int())
	}

	return false
}

// IsRejected returns whether the proposal has been rejected. Unlike
// passing, rejection is possible before the min voting period has ended.
func (e Evaluation) IsRejected() bool {
	if e.AllowRevoting && !e.Expired {
		return false
	}

	t := e.tally()
	switch e.Threshold.Type {
	case ThresholdAbsolutePercentage:
		if e.Threshold.Percentage == nil {
			return false
		}
		p := *e.Threshold.Percentage
		options := saturatingSub(t.power, t.abstain)
		if p.isHundredPercent() {
			return rejectsAtHundredPercent(options, t.against)
		}
		return doesVoteCountFail(t.against, options, p)

	case ThresholdThresholdQuorum:
		if e.Threshold.Threshold == nil || e.Threshold.Quorum == nil {
			return false
		}
		p := *e.Threshold.Threshold
		quorum := doesVoteCountPass(t.total, t.power, *e.Threshold.Quorum)

		var options *uint256.Int
		switch {
		case !quorum && e.Expired:
			return true
		case quorum && e.Expired:
			options = saturatingSub(t.total, t.abstain)
		default:
			options = saturatingSub(t.power, t.abstain)
		}
		if p.isHundredPercent() {
			return rejectsAtHundredPercent(options, t.against)
		}
		return doesVoteCountFail(t.against, options, p)

	case ThresholdAbsoluteCount:
		if e.Threshold.Count == nil {
			return false
		}
		var best uint256.Int
		outstanding := saturatingSub(t.power, t.total)
		best.Add(t.yes, outstanding)
		return best.Lt(e.Threshold.Count.Int())
	}

	return false
}

// Outcome returns the outcome of the evaluation. Passing is checked before
// rejection.
func (e Evaluation) Outcome() OutcomeT {
	switch {
	case e.IsPassed():
		return OutcomePassed
	case e.IsRejected():
		return OutcomeRejected
	}
	return OutcomeOpen
}

// Evaluate returns the outcome of the provided evaluation.
func Evaluate(e Evaluation) OutcomeT {
	return e.Outcome()
}
