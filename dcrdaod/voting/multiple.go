// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/holiman/uint256"
)

const (
	// MaxChoices is the maximum number of options a multiple choice
	// proposal may have, excluding the none of the above option.
	MaxChoices = 20

	// MinChoices is the minimum number of options a multiple choice
	// proposal must have, excluding the none of the above option.
	MinChoices = 2

	// NoneOfTheAbove is the title and description of the option that
	// is appended to every multiple choice proposal.
	NoneOfTheAbove = "None of the above"
)

// ErrWrongNumberOfChoices is returned when a multiple choice proposal has too
// few or too many options.
var ErrWrongNumberOfChoices = errors.New("wrong number of choices")

// OptionT represents the type of a multiple choice option.
type OptionT uint32

const (
	// OptionInvalid is an invalid option type.
	OptionInvalid OptionT = 0

	// OptionStandard is an option provided by the proposer.
	OptionStandard OptionT = 1

	// OptionNone is the none of the above option.
	OptionNone OptionT = 2

	// OptionLast is used for unit test validation of human readable
	// option types.
	OptionLast OptionT = 3
)

var (
	// Options contains the human readable option types.
	Options = map[OptionT]string{
		OptionInvalid:  "invalid",
		OptionStandard: "standard",
		OptionNone:     "none",
	}
)

// MultipleChoiceOption is an option that is submitted with a multiple choice
// proposal.
type MultipleChoiceOption struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Msgs        []backend.Msg `json:"msgs"`
}

// MultipleChoiceOptions are the options of a multiple choice proposal.
type MultipleChoiceOptions struct {
	Options []MultipleChoiceOption `json:"options"`
}

// CheckedMultipleChoiceOption is a validated multiple choice option.
type CheckedMultipleChoiceOption struct {
	Index       uint32          `json:"index"`
	Type        OptionT         `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Msgs        []backend.Msg   `json:"msgs"`
	VoteCount   numeric.Uint128 `json:"votecount"`
}

// Checked validates the options and appends the none of the above option.
func (m MultipleChoiceOptions) Checked() ([]CheckedMultipleChoiceOption, error) {
	if len(m.Options) < MinChoices || len(m.Options) > MaxChoices {
		return nil, fmt.Errorf("%w: got %v, want %v to %v",
			ErrWrongNumberOfChoices, len(m.Options), MinChoices, MaxChoices)
	}
	checked := make([]CheckedMultipleChoiceOption, 0, len(m.Options)+1)
	for i, v := range m.Options {
		msgs := v.Msgs
		if msgs == nil {
			msgs = []backend.Msg{}
		}
		checked = append(checked, CheckedMultipleChoiceOption{
			Index:       uint32(i),
			Type:        OptionStandard,
			Title:       v.Title,
			Description: v.Description,
			Msgs:        msgs,
		})
	}
	checked = append(checked, CheckedMultipleChoiceOption{
		Index:       uint32(len(m.Options)),
		Type:        OptionNone,
		Title:       NoneOfTheAbove,
		Description: NoneOfTheAbove,
		Msgs:        []backend.Msg{},
	})
	return checked, nil
}

// VotingStrategy is the strategy used to decide a multiple choice proposal.
// The only strategy is a single choice vote with a quorum.
type VotingStrategy struct {
	Quorum PercentageThreshold `json:"quorum"`
}

// Validate validates the voting strategy.
func (v VotingStrategy) Validate() error {
	return ValidateQuorum(v.Quorum)
}

// MultipleChoiceVotes is the running tally of a multiple choice proposal,
// indexed by option index.
type MultipleChoiceVotes struct {
	VoteWeights []numeric.Uint128 `json:"voteweights"`
}

// NewMultipleChoiceVotes returns a zeroed tally for n options.
func NewMultipleChoiceVotes(n int) MultipleChoiceVotes {
	return MultipleChoiceVotes{
		VoteWeights: make([]numeric.Uint128, n),
	}
}

// Add adds the weight to the tally of the option.
func (m *MultipleChoiceVotes) Add(option uint32, weight numeric.Uint128) error {
	if int(option) >= len(m.VoteWeights) {
		return ErrVoteInvalid
	}
	r, err := m.VoteWeights[option].Add(weight)
	if err != nil {
		return err
	}
	m.VoteWeights[option] = r
	return nil
}

// Remove removes the weight from the tally of the option.
func (m *MultipleChoiceVotes) Remove(option uint32, weight numeric.Uint128) error {
	if int(option) >= len(m.VoteWeights) {
		return ErrVoteInvalid
	}
	r, err := m.VoteWeights[option].Sub(weight)
	if err != nil {
		return err
	}
	m.VoteWeights[option] = r
	return nil
}

// Total returns the total weight of all votes.
func (m MultipleChoiceVotes) Total() (numeric.Uint128, error) {
	return numeric.Sum(m.VoteWeights...)
}

// total returns the total weight of all votes using 256 bits.
func (m MultipleChoiceVotes) total() *uint256.Int {
	var t uint256.Int
	for _, v := range m.VoteWeights {
		t.Add(&t, v.Int())
	}
	return &t
}

// Result is the result of a multiple choice tally. Winner is only valid when
// Tie is false.
type Result struct {
	Tie    bool
	Winner uint32
}

// Result returns the option with the most votes, or a tie if more than one
// option shares the highest weight. An empty tally is a tie.
func (m MultipleChoiceVotes) Result() Result {
	if len(m.VoteWeights) == 0 {
		return Result{Tie: true}
	}
	var (
		winner uint32
		count  int
	)
	for i, v := range m.VoteWeights {
		switch c := v.Cmp(m.VoteWeights[winner]); {
		case i == 0:
			count = 1
		case c > 0:
			winner = uint32(i)
			count = 1
		case c == 0:
			count++
		}
	}
	if count > 1 {
		return Result{Tie: true}
	}
	return Result{Winner: winner}
}

// MultipleChoiceEvaluation contains everything that is needed to decide a
// multiple choice proposal.
type MultipleChoiceEvaluation struct {
	Votes      MultipleChoiceVotes
	Choices    []CheckedMultipleChoiceOption
	TotalPower numeric.Uint128
	Strategy   VotingStrategy

	Expired                bool
	MinVotingPeriodElapsed bool
	AllowRevoting          bool
}

// optionType returns the type of the option at index i.
func (e MultipleChoiceEvaluation) optionType(i uint32) OptionT {
	if int(i) >= len(e.Choices) {
		return OptionInvalid
	}
	return e.Choices[i].Type
}

// isUnbeatable returns whether the winning option can no longer be overtaken
// by the second highest option, even if all of the remaining voting power
// votes for it. A none of the above winner only needs to stay level with the
// second highest option.
func (e MultipleChoiceEvaluation) isUnbeatable(winner uint32) bool {
	w := e.Votes.VoteWeights[winner]
	var (
		second numeric.Uint128
		found  bool
	)
	for _, v := range e.Votes.VoteWeights {
		if v.Lt(w) && (!found || v.Gt(second)) {
			second = v
			found = true
		}
	}
	if !found {
		return false
	}

	var rhs uint256.Int
	remaining := saturatingSub(e.TotalPower.Int(), e.Votes.total())
	rhs.Add(second.Int(), remaining)
	if e.optionType(winner) == OptionNone {
		return !w.Int().Lt(&rhs)
	}
	return w.Int().Gt(&rhs)
}

// quorumMet returns whether enough of the total voting power voted.
func (e MultipleChoiceEvaluation) quorumMet() bool {
	return doesVoteCountPass(e.Votes.total(), e.TotalPower.Int(),
		e.Strategy.Quorum)
}

// IsPassed returns whether a standard option has won.
func (e MultipleChoiceEvaluation) IsPassed() bool {
	if e.AllowRevoting && !e.Expired {
		return false
	}
	if !e.MinVotingPeriodElapsed {
		return false
	}
	if !e.quorumMet() {
		return false
	}
	r := e.Votes.Result()
	if r.Tie || e.optionType(r.Winner) == OptionNone {
		return false
	}
	if e.Expired {
		return true
	}
	return e.isUnbeatable(r.Winner)
}

// IsRejected returns whether the proposal has been rejected. A tie is
// rejected once the proposal expired or everyone voted.
func (e MultipleChoiceEvaluation) IsRejected() bool {
	if e.AllowRevoting && !e.Expired {
		return false
	}

	r := e.Votes.Result()
	if r.Tie {
		return e.Expired || e.TotalPower.Int().Eq(e.Votes.total())
	}

	none := e.optionType(r.Winner) == OptionNone
	quorum := e.quorumMet()
	switch {
	case quorum && e.Expired:
		return none
	case !e.Expired:
		return none && e.isUnbeatable(r.Winner)
	}

	// Expired without quorum
	return true
}

// Outcome returns the outcome of the evaluation. Passing is checked before
// rejection.
func (e MultipleChoiceEvaluation) Outcome() OutcomeT {
	switch {
	case e.IsPassed():
		return OutcomePassed
	case e.IsRejected():
		return OutcomeRejected
	}
	return OutcomeOpen
}
