// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package voting contains the vote tallies, threshold policies and the pure
// functions that decide whether a proposal has passed or has been rejected.
// Nothing in this package touches storage.
package voting

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/holiman/uint256"
)

var (
	// ErrZeroThreshold is returned when a required threshold is zero.
	ErrZeroThreshold = errors.New("required threshold cannot be zero")

	// ErrUnreachableThreshold is returned when a threshold can never be
	// reached, e.g. a percentage above 100%.
	ErrUnreachableThreshold = errors.New("not possible to reach required " +
		"(passing) threshold")

	// ErrThresholdInvalid is returned when a threshold is missing the
	// fields required by its type.
	ErrThresholdInvalid = errors.New("threshold invalid")

	// ErrInvalidMinVotingPeriod is returned when the min voting period
	// is longer than the max voting period.
	ErrInvalidMinVotingPeriod = errors.New("min voting period must be " +
		"less than or equal to max voting period")

	// ErrDurationUnitsConflict is returned when the min and max voting
	// periods use different units.
	ErrDurationUnitsConflict = errors.New("min and max voting periods must " +
		"have the same units (height or time)")
)

// precisionFactor is multiplied into both sides of a vote count comparison
// so that the percentage rounding happens well below the unit of a vote.
var precisionFactor = uint256.NewInt(1_000_000_000)

// decimalFractional is the scale of the decimal atomics.
var decimalFractional = uint256.NewInt(1_000_000_000_000_000_000)

// PercentageT represents the type of a percentage threshold.
type PercentageT uint32

const (
	// PercentageInvalid is an invalid percentage type.
	PercentageInvalid PercentageT = 0

	// PercentageMajority requires more than half of the votes.
	PercentageMajority PercentageT = 1

	// PercentagePercent requires at least the provided percent of the
	// votes.
	PercentagePercent PercentageT = 2

	// PercentageLast is used for unit test validation of human
	// readable percentage types.
	PercentageLast PercentageT = 3
)

var (
	// Percentages contains the human readable percentage types.
	Percentages = map[PercentageT]string{
		PercentageInvalid:  "invalid",
		PercentageMajority: "majority",
		PercentagePercent:  "percent",
	}
)

// PercentageThreshold is either a simple majority or an explicit
// percentage in the range (0, 1].
type PercentageThreshold struct {
	Type    PercentageT     `json:"type"`
	Percent numeric.Decimal `json:"percent"` // Only used by percent
}

// Majority returns a majority percentage threshold.
func Majority() PercentageThreshold {
	return PercentageThreshold{Type: PercentageMajority}
}

// Percent returns a percentage threshold for the provided percentage.
func Percent(d numeric.Decimal) PercentageThreshold {
	return PercentageThreshold{Type: PercentagePercent, Percent: d}
}

// isHundredPercent returns whether the threshold requires every vote.
func (p PercentageThreshold) isHundredPercent() bool {
	return p.Type == PercentagePercent && p.Percent.Equal(numeric.DecimalOne())
}

// validatePercentage validates a passing threshold.
func validatePercentage(p PercentageThreshold) error {
	switch p.Type {
	case PercentageMajority:
		return nil
	case PercentagePercent:
		switch {
		case p.Percent.IsZero():
			return ErrZeroThreshold
		case p.Percent.Cmp(numeric.DecimalOne()) > 0:
			return ErrUnreachableThreshold
		}
		return nil
	}
	return ErrThresholdInvalid
}

// ValidateQuorum validates a quorum. A zero quorum is allowed.
func ValidateQuorum(q PercentageThreshold) error {
	switch q.Type {
	case PercentageMajority:
		return nil
	case PercentagePercent:
		if q.Percent.Cmp(numeric.DecimalOne()) > 0 {
			return ErrUnreachableThreshold
		}
		return nil
	}
	return ErrThresholdInvalid
}

// ThresholdT represents the type of a threshold policy.
type ThresholdT uint32

const (
	// ThresholdInvalid is an invalid threshold type.
	ThresholdInvalid ThresholdT = 0

	// ThresholdAbsolutePercentage requires a percentage of the total
	// voting power, excluding abstentions, to vote yes.
	ThresholdAbsolutePercentage ThresholdT = 1

	// ThresholdThresholdQuorum requires a quorum of the total voting
	// power to turn out, and a percentage of the non-abstaining
	// turnout to vote yes.
	ThresholdThresholdQuorum ThresholdT = 2

	// ThresholdAbsoluteCount requires a fixed amount of yes votes.
	ThresholdAbsoluteCount ThresholdT = 3

	// ThresholdLast is used for unit test validation of human readable
	// threshold types.
	ThresholdLast ThresholdT = 4
)

var (
	// Thresholds contains the human readable threshold types.
	Thresholds = map[ThresholdT]string{
		ThresholdInvalid:            "invalid",
		ThresholdAbsolutePercentage: "absolute percentage",
		ThresholdThresholdQuorum:    "threshold quorum",
		ThresholdAbsoluteCount:      "absolute count",
	}
)

// Threshold is the policy that decides when a single choice proposal
// passes. Only the fields of the selected type are used.
type Threshold struct {
	Type ThresholdT `json:"type"`

	// Percentage is used by absolute percentage thresholds.
	Percentage *PercentageThreshold `json:"percentage,omitempty"`

	// Threshold and Quorum are used by threshold quorum thresholds.
	Threshold *PercentageThreshold `json:"threshold,omitempty"`
	Quorum    *PercentageThreshold `json:"quorum,omitempty"`

	// Count is used by absolute count thresholds.
	Count *numeric.Uint128 `json:"count,omitempty"`
}

// AbsolutePercentage returns an absolute percentage threshold.
func AbsolutePercentage(p PercentageThreshold) Threshold {
	return Threshold{
		Type:       ThresholdAbsolutePercentage,
		Percentage: &p,
	}
}

// ThresholdQuorum returns a threshold quorum threshold.
func ThresholdQuorum(threshold, quorum PercentageThreshold) Threshold {
	return Threshold{
		Type:      ThresholdThresholdQuorum,
		Threshold: &threshold,
		Quorum:    &quorum,
	}
}

// AbsoluteCount returns an absolute count threshold.
func AbsoluteCount(count numeric.Uint128) Threshold {
	return Threshold{
		Type:  ThresholdAbsoluteCount,
		Count: &count,
	}
}

// Validate verifies that the threshold can be used for a proposal.
func (t Threshold) Validate() error {
	switch t.Type {
	case ThresholdAbsolutePercentage:
		if t.Percentage == nil {
			return ErrThresholdInvalid
		}
		return validatePercentage(*t.Percentage)

	case ThresholdThresholdQuorum:
		if t.Threshold == nil || t.Quorum == nil {
			return ErrThresholdInvalid
		}
		if err := validatePercentage(*t.Threshold); err != nil {
			return err
		}
		return ValidateQuorum(*t.Quorum)

	case ThresholdAbsoluteCount:
		if t.Count == nil {
			return ErrThresholdInvalid
		}
		if t.Count.IsZero() {
			return ErrZeroThreshold
		}
		return nil
	}
	return ErrThresholdInvalid
}

// ValidateVotingPeriod verifies that the min voting period, if set, uses the
// same units as the max voting period and is not longer than it.
func ValidateVotingPeriod(min *block.Duration, max block.Duration) error {
	if err := max.Validate(); err != nil {
		return err
	}
	if min == nil {
		return nil
	}
	if !min.SameUnits(max) {
		return ErrDurationUnitsConflict
	}
	if min.Value > max.Value {
		return ErrInvalidMinVotingPeriod
	}
	return nil
}

// CmpT represents the comparison used by CompareVoteCount.
type CmpT int

const (
	// CmpGreater compares using >.
	CmpGreater CmpT = iota

	// CmpGeq compares using >=.
	CmpGeq
)

// CompareVoteCount compares votes with total * percent. Both sides are
// scaled by 10^9 before the percentage is applied and the scaled threshold
// is rounded down. All arithmetic is done using at least 256 bits.
//
// The threshold is not rounded up. For example, 7 votes out of 13 are
// greater than 7/13 of 13 since 7/13 is rounded down to 0.538461538461538461.
func CompareVoteCount(votes numeric.Uint128, cmp CmpT, total numeric.Uint128, percent numeric.Decimal) bool {
	return compareVoteCount(votes.Int(), cmp, total.Int(), percent)
}

func compareVoteCount(votes *uint256.Int, cmp CmpT, total *uint256.Int, percent numeric.Decimal) bool {
	var v, t uint256.Int
	v.Mul(votes, precisionFactor)
	t.Mul(total, precisionFactor)

	// The intermediate product of MulDivOverflow is 512 bits wide. The
	// quotient is at most total * 10^9 * percent which fits in 256 bits.
	t.MulDivOverflow(&t, percent.Atomics(), decimalFractional)

	switch cmp {
	case CmpGreater:
		return v.Gt(&t)
	default:
		return !v.Lt(&t)
	}
}

// DoesVoteCountPass returns whether yes out of options meets the passing
// threshold. Nothing passes when there are no options, i.e. when every vote
// is an abstention.
func DoesVoteCountPass(yes, options numeric.Uint128, p PercentageThreshold) bool {
	return doesVoteCountPass(yes.Int(), options.Int(), p)
}

func doesVoteCountPass(yes, options *uint256.Int, p PercentageThreshold) bool {
	if options.IsZero() {
		return false
	}
	switch p.Type {
	case PercentageMajority:
		var d uint256.Int
		d.Lsh(yes, 1)
		return d.Gt(options)
	default:
		return compareVoteCount(yes, CmpGeq, options, p.Percent)
	}
}

// DoesVoteCountFail returns whether no out of options makes it impossible to
// reach the passing threshold. Everything fails when there are no options.
func DoesVoteCountFail(no, options numeric.Uint128, p PercentageThreshold) bool {
	return doesVoteCountFail(no.Int(), options.Int(), p)
}

func doesVoteCountFail(no, options *uint256.Int, p PercentageThreshold) bool {
	if options.IsZero() {
		return true
	}
	switch p.Type {
	case PercentageMajority:
		var d uint256.Int
		d.Lsh(no, 1)
		return !d.Lt(options)
	default:
		rest, err := numeric.DecimalOne().Sub(p.Percent)
		if err != nil {
			// Percentages above one never validate
			return false
		}
		return compareVoteCount(no, CmpGreater, options, rest)
	}
}
