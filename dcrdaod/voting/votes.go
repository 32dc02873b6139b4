// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"errors"

	"github.com/decred/dcrdao/dcrdaod/numeric"
)

// ErrVoteInvalid is returned when a vote option is not recognized.
var ErrVoteInvalid = errors.New("vote invalid")

// VoteT represents a single choice vote option.
type VoteT uint32

const (
	// VoteInvalid is an invalid vote.
	VoteInvalid VoteT = 0

	// VoteYes marks support for the proposal.
	VoteYes VoteT = 1

	// VoteNo marks opposition to the proposal.
	VoteNo VoteT = 2

	// VoteAbstain marks participation without support or opposition.
	// Abstentions count towards quorum but not towards the ratio of
	// yes to no votes.
	VoteAbstain VoteT = 3

	// VoteVeto marks strong opposition to the proposal. Veto votes
	// count towards quorum and are counted as no votes.
	VoteVeto VoteT = 4

	// VoteLast is used for unit test validation of human readable
	// votes.
	VoteLast VoteT = 5
)

var (
	// VoteOptions contains the human readable vote options.
	VoteOptions = map[VoteT]string{
		VoteInvalid: "invalid",
		VoteYes:     "yes",
		VoteNo:      "no",
		VoteAbstain: "abstain",
		VoteVeto:    "veto",
	}
)

// String satisfies the fmt.Stringer interface.
func (v VoteT) String() string {
	if s, ok := VoteOptions[v]; ok {
		return s
	}
	return VoteOptions[VoteInvalid]
}

// Votes is the running tally of a single choice proposal.
type Votes struct {
	Yes     numeric.Uint128 `json:"yes"`
	No      numeric.Uint128 `json:"no"`
	Abstain numeric.Uint128 `json:"abstain"`
	Veto    numeric.Uint128 `json:"veto"`
}

// field returns the tally entry for the vote.
func (v *Votes) field(vote VoteT) (*numeric.Uint128, error) {
	switch vote {
	case VoteYes:
		return &v.Yes, nil
	case VoteNo:
		return &v.No, nil
	case VoteAbstain:
		return &v.Abstain, nil
	case VoteVeto:
		return &v.Veto, nil
	}
	return nil, ErrVoteInvalid
}

// Add adds the power to the tally of the vote option.
func (v *Votes) Add(vote VoteT, power numeric.Uint128) error {
	f, err := v.field(vote)
	if err != nil {
		return err
	}
	r, err := f.Add(power)
	if err != nil {
		return err
	}
	*f = r
	return nil
}

// Remove removes the power from the tally of the vote option. The power must
// have been previously added.
func (v *Votes) Remove(vote VoteT, power numeric.Uint128) error {
	f, err := v.field(vote)
	if err != nil {
		return err
	}
	r, err := f.Sub(power)
	if err != nil {
		return err
	}
	*f = r
	return nil
}

// Total returns the total number of votes cast. Voters can not vote twice
// so the total never exceeds the total voting power of a well behaved
// voting module. A misbehaving module is reported as an overflow.
func (v Votes) Total() (numeric.Uint128, error) {
	return numeric.Sum(v.Yes, v.No, v.Abstain, v.Veto)
}

// against returns the votes that count against the proposal.
func (v Votes) against() (numeric.Uint128, error) {
	return v.No.Add(v.Veto)
}
