// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package voting

import (
	"errors"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/unittest"
)

func u(v uint64) numeric.Uint128 {
	return numeric.NewUint128(v)
}

func TestConstMaps(t *testing.T) {
	var tests = []struct {
		name string
		m    interface{}
		last uint64
	}{
		{"percentages", Percentages, uint64(PercentageLast)},
		{"thresholds", Thresholds, uint64(ThresholdLast)},
		{"votes", VoteOptions, uint64(VoteLast)},
		{"outcomes", Outcomes, uint64(OutcomeLast)},
		{"statuses", Statuses, uint64(StatusLast)},
		{"options", Options, uint64(OptionLast)},
		{"policies", Policies, uint64(PolicyLast)},
		{"replies", Replies, uint64(ReplyLast)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := unittest.TestGenericConstMap(tc.m, tc.last)
			if err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestCompareVoteCount(t *testing.T) {
	sevenThirteenths, err := numeric.DecimalFromRatio(u(7), u(13))
	if err != nil {
		t.Fatal(err)
	}
	sixThirteenths, err := numeric.DecimalOne().Sub(sevenThirteenths)
	if err != nil {
		t.Fatal(err)
	}

	var tests = []struct {
		votes   uint64
		cmp     CmpT
		total   uint64
		percent numeric.Decimal
		want    bool
	}{
		{7, CmpGeq, 15, numeric.Percent(50), false},
		{7, CmpGreater, 15, numeric.Percent(50), false},
		{7, CmpGeq, 14, numeric.Percent(50), true},
		{7, CmpGreater, 14, numeric.Percent(50), false},
		{7, CmpGeq, 13, sevenThirteenths, true},
		{6, CmpGreater, 13, sixThirteenths, false},
		{7, CmpGreater, 13, sevenThirteenths, true},
		{4, CmpGeq, 9, numeric.Percent(50), false},
		{1, CmpGeq, 3, numeric.Permille(333), true},
		{1, CmpGeq, 3, numeric.Permille(334), false},
		{2, CmpGeq, 3, numeric.Permille(334), true},
		{11, CmpGeq, 30, numeric.Permille(333), true},
		{15, CmpGeq, 30, numeric.Permille(500), true},
		{15, CmpGreater, 30, numeric.Permille(500), false},
		{0, CmpGeq, 0, numeric.Permille(500), true},
		{0, CmpGreater, 0, numeric.Permille(500), false},
		{0, CmpGeq, 1, numeric.Permille(1), false},
		{1, CmpGeq, 1, numeric.Permille(1), true},
		{1, CmpGreater, 1, numeric.Permille(1), true},
		{0, CmpGeq, 1, numeric.Permille(999), false},
		{0, CmpGeq, 1, numeric.Percent(0), true},
		{0, CmpGreater, 1, numeric.Percent(0), false},
	}
	for i, tc := range tests {
		got := CompareVoteCount(u(tc.votes), tc.cmp, u(tc.total), tc.percent)
		if got != tc.want {
			t.Errorf("%v: %v %v of %v at %v: got %v, want %v", i,
				tc.votes, tc.cmp, tc.total, tc.percent, got, tc.want)
		}
	}

	// Exactly half is always met and never exceeded
	for count := uint64(1); count < 2000; count++ {
		half := numeric.Percent(50)
		if !CompareVoteCount(u(count), CmpGeq, u(count*2), half) {
			t.Fatalf("%v of %v did not meet 50%%", count, count*2)
		}
		if CompareVoteCount(u(count), CmpGreater, u(count*2), half) {
			t.Fatalf("%v of %v exceeded 50%%", count, count*2)
		}
	}

	// Large values must not overflow
	max := numeric.MaxUint128()
	if !CompareVoteCount(max, CmpGeq, max, numeric.DecimalOne()) {
		t.Fatalf("max of max did not meet 100%%")
	}
}

func TestThresholdValidate(t *testing.T) {
	var tests = []struct {
		name      string
		threshold Threshold
		want      error
	}{
		{
			"zero absolute count",
			AbsoluteCount(u(0)),
			ErrZeroThreshold,
		},
		{
			"zero percentage",
			AbsolutePercentage(Percent(numeric.Percent(0))),
			ErrZeroThreshold,
		},
		{
			"percentage above one",
			AbsolutePercentage(Percent(numeric.Percent(101))),
			ErrUnreachableThreshold,
		},
		{
			"quorum above one",
			ThresholdQuorum(Majority(), Percent(numeric.Percent(101))),
			ErrUnreachableThreshold,
		},
		{
			"zero quorum",
			ThresholdQuorum(Majority(), Percent(numeric.Percent(0))),
			nil,
		},
		{
			"zero threshold with quorum",
			ThresholdQuorum(Percent(numeric.Percent(0)), Majority()),
			ErrZeroThreshold,
		},
		{
			"hundred percent",
			AbsolutePercentage(Percent(numeric.Percent(100))),
			nil,
		},
		{
			"missing fields",
			Threshold{Type: ThresholdThresholdQuorum},
			ErrThresholdInvalid,
		},
		{
			"invalid type",
			Threshold{},
			ErrThresholdInvalid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.threshold.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateVotingPeriod(t *testing.T) {
	min := block.Height(10)
	if err := ValidateVotingPeriod(&min, block.Height(10)); err != nil {
		t.Fatal(err)
	}
	if err := ValidateVotingPeriod(nil, block.Time(10)); err != nil {
		t.Fatal(err)
	}
	err := ValidateVotingPeriod(&min, block.Height(9))
	if !errors.Is(err, ErrInvalidMinVotingPeriod) {
		t.Fatalf("got %v, want %v", err, ErrInvalidMinVotingPeriod)
	}
	err = ValidateVotingPeriod(&min, block.Time(100))
	if !errors.Is(err, ErrDurationUnitsConflict) {
		t.Fatalf("got %v, want %v", err, ErrDurationUnitsConflict)
	}
}

func TestVotes(t *testing.T) {
	var v Votes
	for _, vote := range []struct {
		v VoteT
		p uint64
	}{
		{VoteYes, 5}, {VoteNo, 10}, {VoteYes, 30}, {VoteAbstain, 40},
		{VoteVeto, 2},
	} {
		if err := v.Add(vote.v, u(vote.p)); err != nil {
			t.Fatal(err)
		}
	}
	total, err := v.Total()
	if err != nil {
		t.Fatal(err)
	}
	if total.Uint64() != 87 || v.Yes.Uint64() != 35 {
		t.Fatalf("got total %v yes %v", total, v.Yes)
	}
	if err := v.Remove(VoteYes, u(35)); err != nil {
		t.Fatal(err)
	}
	if !v.Yes.IsZero() {
		t.Fatalf("got yes %v, want 0", v.Yes)
	}
	if err := v.Remove(VoteNo, u(11)); !errors.Is(err, numeric.ErrOverflow) {
		t.Fatalf("got %v, want %v", err, numeric.ErrOverflow)
	}
	if err := v.Add(VoteInvalid, u(1)); !errors.Is(err, ErrVoteInvalid) {
		t.Fatalf("got %v, want %v", err, ErrVoteInvalid)
	}
}

func TestEvaluate(t *testing.T) {
	majority := AbsolutePercentage(Majority())
	half := Percent(numeric.Percent(50))
	everyone := AbsolutePercentage(Percent(numeric.Percent(100)))

	var tests = []struct {
		name string
		e    Evaluation
		want OutcomeT
	}{
		{
			"majority passes early",
			Evaluation{
				Votes:                  Votes{Yes: u(7), No: u(4), Abstain: u(2)},
				TotalPower:             u(15),
				Threshold:              majority,
				MinVotingPeriodElapsed: true,
			},
			OutcomePassed,
		},
		{
			"majority not reached",
			Evaluation{
				Votes:                  Votes{Yes: u(7), No: u(4), Abstain: u(2)},
				TotalPower:             u(17),
				Threshold:              majority,
				MinVotingPeriodElapsed: true,
			},
			OutcomeOpen,
		},
		{
			"min voting period blocks pass",
			Evaluation{
				Votes:      Votes{Yes: u(7), No: u(4), Abstain: u(2)},
				TotalPower: u(15),
				Threshold:  majority,
			},
			OutcomeOpen,
		},
		{
			"min voting period does not block rejection",
			Evaluation{
				Votes:      Votes{Yes: u(4), No: u(7), Abstain: u(2)},
				TotalPower: u(15),
				Threshold:  majority,
			},
			OutcomeRejected,
		},
		{
			"revoting defers decision",
			Evaluation{
				Votes:                  Votes{Yes: u(15)},
				TotalPower:             u(15),
				Threshold:              majority,
				MinVotingPeriodElapsed: true,
				AllowRevoting:          true,
			},
			OutcomeOpen,
		},
		{
			"revoting decides once expired",
			Evaluation{
				Votes:                  Votes{Yes: u(15)},
				TotalPower:             u(15),
				Threshold:              majority,
				Expired:                true,
				MinVotingPeriodElapsed: true,
				AllowRevoting:          true,
			},
			OutcomePassed,
		},
		{
			"veto counts against",
			Evaluation{
				Votes:                  Votes{Yes: u(1), Veto: u(5)},
				TotalPower:             u(10),
				Threshold:              majority,
				MinVotingPeriodElapsed: true,
			},
			OutcomeRejected,
		},
		{
			"quorum threshold passes",
			Evaluation{
				Votes:                  Votes{Yes: u(16), Abstain: u(2)},
				TotalPower:             u(23),
				Threshold:              ThresholdQuorum(half, Percent(numeric.Percent(75))),
				MinVotingPeriodElapsed: true,
			},
			OutcomePassed,
		},
		{
			"quorum threshold passes when expired",
			Evaluation{
				Votes:                  Votes{Yes: u(16), Abstain: u(2)},
				TotalPower:             u(23),
				Threshold:              ThresholdQuorum(half, Percent(numeric.Percent(75))),
				Expired:                true,
				MinVotingPeriodElapsed: true,
			},
			OutcomePassed,
		},
		{
			"quorum not met is open",
			Evaluation{
				Votes:                  Votes{Yes: u(5)},
				TotalPower:             u(23),
				Threshold:              ThresholdQuorum(half, Percent(numeric.Percent(75))),
				MinVotingPeriodElapsed: true,
			},
			OutcomeOpen,
		},
		{
			"quorum not met at expiration rejects",
			Evaluation{
				Votes:                  Votes{Yes: u(5)},
				TotalPower:             u(23),
				Threshold:              ThresholdQuorum(half, Percent(numeric.Percent(75))),
				Expired:                true,
				MinVotingPeriodElapsed: true,
			},
			OutcomeRejected,
		},
		{
			"quorum counts turnout once expired",
			Evaluation{
				Votes:                  Votes{Yes: u(3), No: u(2)},
				TotalPower:             u(10),
				Threshold:              ThresholdQuorum(Majority(), Percent(numeric.Percent(50))),
				Expired:                true,
				MinVotingPeriodElapsed: true,
			},
			OutcomePassed,
		},
		{
			"hundred percent rejects any no",
			Evaluation{
				Votes:                  Votes{Yes: u(5), No: u(1)},
				TotalPower:             u(10),
				Threshold:              everyone,
				MinVotingPeriodElapsed: true,
			},
			OutcomeRejected,
		},
		{
			"hundred percent all abstain rejects",
			Evaluation{
				Votes:                  Votes{Abstain: u(10)},
				TotalPower:             u(10),
				Threshold:              everyone,
				MinVotingPeriodElapsed: true,
			},
			OutcomeRejected,
		},
		{
			"hundred percent passes",
			Evaluation{
				Votes:                  Votes{Yes: u(9), Abstain: u(1)},
				TotalPower:             u(10),
				Threshold:              everyone,
				MinVotingPeriodElapsed: true,
			},
			OutcomePassed,
		},
		{
			"absolute count passes",
			Evaluation{
				Votes:                  Votes{Yes: u(10)},
				TotalPower:             u(100),
				Threshold:              AbsoluteCount(u(10)),
				MinVotingPeriodElapsed: true,
			},
			OutcomePassed,
		},
		{
			"absolute count still reachable",
			Evaluation{
				Votes:                  Votes{Yes: u(5), No: u(90)},
				TotalPower:             u(100),
				Threshold:              AbsoluteCount(u(10)),
				MinVotingPeriodElapsed: true,
			},
			OutcomeOpen,
		},
		{
			"absolute count unreachable",
			Evaluation{
				Votes:                  Votes{Yes: u(5), No: u(91)},
				TotalPower:             u(100),
				Threshold:              AbsoluteCount(u(10)),
				MinVotingPeriodElapsed: true,
			},
			OutcomeRejected,
		},
		{
			"absolute count at max does not overflow",
			Evaluation{
				Votes: Votes{
					Yes: numeric.MaxUint128().SaturatingSub(u(1)),
					No:  u(1),
				},
				TotalPower:             numeric.MaxUint128(),
				Threshold:              AbsoluteCount(numeric.MaxUint128()),
				MinVotingPeriodElapsed: true,
			},
			OutcomeRejected,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.e)
			if got != tc.want {
				t.Fatalf("got %v, want %v", Outcomes[got], Outcomes[tc.want])
			}
			// Evaluation is deterministic
			if again := tc.e.Outcome(); again != got {
				t.Fatalf("second evaluation got %v, want %v",
					Outcomes[again], Outcomes[got])
			}
		})
	}
}

func TestCurrentStatus(t *testing.T) {
	expiration := block.AtHeight(100)
	veto := &VetoConfig{
		TimelockDuration: block.Height(10),
		Vetoer:           "vetoer",
	}
	open := NewStatus(StatusOpen)

	var tests = []struct {
		name    string
		status  Status
		height  uint64
		veto    *VetoConfig
		outcome OutcomeT
		want    Status
	}{
		{
			"open stays open",
			open, 50, nil, OutcomeOpen, open,
		},
		{
			"passed without veto",
			open, 50, nil, OutcomePassed, NewStatus(StatusPassed),
		},
		{
			"passed into timelock",
			open, 50, veto, OutcomePassed,
			Status{Type: StatusVetoTimelock, Expiration: block.AtHeight(110)},
		},
		{
			"passed after timelock",
			open, 110, veto, OutcomePassed, NewStatus(StatusPassed),
		},
		{
			"expired is rejected",
			open, 100, nil, OutcomeOpen, NewStatus(StatusRejected),
		},
		{
			"rejected",
			open, 50, nil, OutcomeRejected, NewStatus(StatusRejected),
		},
		{
			"timelock expires",
			Status{Type: StatusVetoTimelock, Expiration: block.AtHeight(110)},
			110, veto, OutcomeOpen, NewStatus(StatusPassed),
		},
		{
			"timelock active",
			Status{Type: StatusVetoTimelock, Expiration: block.AtHeight(110)},
			109, veto, OutcomeOpen,
			Status{Type: StatusVetoTimelock, Expiration: block.AtHeight(110)},
		},
		{
			"executed is final",
			NewStatus(StatusExecuted), 500, nil, OutcomeRejected,
			NewStatus(StatusExecuted),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := block.Info{Height: tc.height}
			got, err := CurrentStatus(tc.status, b, expiration, tc.veto,
				tc.outcome)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	// The timelock units must match the expiration units
	_, err := CurrentStatus(open, block.Info{}, block.AtTime(100),
		veto, OutcomePassed)
	if !errors.Is(err, block.ErrUnitsMismatch) {
		t.Fatalf("got %v, want %v", err, block.ErrUnitsMismatch)
	}
}

func TestCheckVeto(t *testing.T) {
	b := block.Info{Height: 100}
	veto := &VetoConfig{
		TimelockDuration: block.Height(10),
		Vetoer:           "vetoer",
	}
	timelocked := Status{
		Type:       StatusVetoTimelock,
		Expiration: block.AtHeight(105),
	}

	var tests = []struct {
		name   string
		veto   *VetoConfig
		status Status
		sender string
		want   error
	}{
		{"no config", nil, timelocked, "vetoer", ErrNoVetoConfiguration},
		{"not vetoer", veto, timelocked, "alice", ErrVetoUnauthorized},
		{"timelocked", veto, timelocked, "vetoer", nil},
		{"open", veto, NewStatus(StatusOpen), "vetoer", ErrNoVetoBeforePassed},
		{"passed", veto, NewStatus(StatusPassed), "vetoer", ErrTimelockExpired},
		{"executed", veto, NewStatus(StatusExecuted), "vetoer",
			ErrVetoInvalidProposalStatus},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckVeto(tc.veto, tc.status, b, tc.sender)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	early := *veto
	early.VetoBeforePassed = true
	if err := CheckVeto(&early, NewStatus(StatusOpen), b, "vetoer"); err != nil {
		t.Fatal(err)
	}
	if err := veto.Validate(block.Time(100)); !errors.Is(err,
		ErrTimelockDurationUnitsMismatch) {
		t.Fatalf("got %v, want %v", err, ErrTimelockDurationUnitsMismatch)
	}
}

func TestMultipleChoiceOptionsChecked(t *testing.T) {
	opts := MultipleChoiceOptions{
		Options: []MultipleChoiceOption{
			{Title: "a", Description: "option a"},
			{Title: "b", Description: "option b"},
		},
	}
	checked, err := opts.Checked()
	if err != nil {
		t.Fatal(err)
	}
	if len(checked) != 3 {
		t.Fatalf("got %v options, want 3", len(checked))
	}
	if checked[2].Type != OptionNone || checked[2].Index != 2 ||
		checked[2].Description != NoneOfTheAbove {
		t.Fatalf("none option invalid: %+v", checked[2])
	}
	if checked[0].Type != OptionStandard || checked[1].Index != 1 {
		t.Fatalf("standard options invalid: %+v", checked[:2])
	}

	opts.Options = opts.Options[:1]
	if _, err := opts.Checked(); !errors.Is(err, ErrWrongNumberOfChoices) {
		t.Fatalf("got %v, want %v", err, ErrWrongNumberOfChoices)
	}
	opts.Options = make([]MultipleChoiceOption, MaxChoices+1)
	if _, err := opts.Checked(); !errors.Is(err, ErrWrongNumberOfChoices) {
		t.Fatalf("got %v, want %v", err, ErrWrongNumberOfChoices)
	}
}

func weights(w ...uint64) MultipleChoiceVotes {
	m := NewMultipleChoiceVotes(len(w))
	for i, v := range w {
		m.VoteWeights[i] = u(v)
	}
	return m
}

func TestMultipleChoiceResult(t *testing.T) {
	var tests = []struct {
		name string
		m    MultipleChoiceVotes
		want Result
	}{
		{"empty", MultipleChoiceVotes{}, Result{Tie: true}},
		{"all zero", weights(0, 0, 0), Result{Tie: true}},
		{"first", weights(5, 1, 0), Result{Winner: 0}},
		{"last", weights(1, 2, 3), Result{Winner: 2}},
		{"tie", weights(3, 1, 3), Result{Tie: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.m.Result()
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEvaluateMultiple(t *testing.T) {
	opts := MultipleChoiceOptions{
		Options: []MultipleChoiceOption{
			{Title: "a"}, {Title: "b"},
		},
	}
	choices, err := opts.Checked()
	if err != nil {
		t.Fatal(err)
	}
	majority := VotingStrategy{Quorum: Majority()}
	half := VotingStrategy{Quorum: Percent(numeric.Percent(50))}

	var tests = []struct {
		name     string
		votes    MultipleChoiceVotes
		power    uint64
		strategy VotingStrategy
		expired  bool
		want     OutcomeT
	}{
		{"beatable winner", weights(10, 5, 0), 20, majority, false, OutcomeOpen},
		{"winner at expiration", weights(10, 5, 0), 20, majority, true, OutcomePassed},
		{"unbeatable winner", weights(12, 3, 0), 20, majority, false, OutcomePassed},
		{"unbeatable none", weights(2, 0, 10), 20, half, false, OutcomeRejected},
		{"none at expiration", weights(2, 0, 10), 20, half, true, OutcomeRejected},
		{"tie with votes left", weights(5, 5, 0), 20, half, false, OutcomeOpen},
		{"tie everyone voted", weights(5, 5, 0), 10, half, false, OutcomeRejected},
		{"tie at expiration", weights(5, 5, 0), 20, half, true, OutcomeRejected},
		{"no quorum at expiration", weights(1, 0, 0), 100, half, true, OutcomeRejected},
		{"no quorum", weights(1, 0, 0), 100, half, false, OutcomeOpen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := MultipleChoiceEvaluation{
				Votes:                  tc.votes,
				Choices:                choices,
				TotalPower:             u(tc.power),
				Strategy:               tc.strategy,
				Expired:                tc.expired,
				MinVotingPeriodElapsed: true,
			}
			got := e.Outcome()
			if got != tc.want {
				t.Fatalf("got %v, want %v", Outcomes[got], Outcomes[tc.want])
			}
		})
	}
}

func TestReplyIDs(t *testing.T) {
	maxID := uint64(1)<<61 - 1

	var tests = []struct {
		id        uint64
		wantType  ReplyT
		wantValue uint64
	}{
		{MaskProposalExecutionID(maxID), ReplyFailedProposalExecution, maxID},
		{MaskProposalHookIndex(1234), ReplyFailedProposalHook, 1234},
		{MaskVoteHookIndex(4321), ReplyFailedVoteHook, 4321},
		{PreProposeModuleInstantiationID, ReplyPreProposeInstantiation, 0},
		{FailedPreProposeModuleHookID, ReplyFailedPreProposeHook, 0},
	}
	for _, tc := range tests {
		r, err := ParseReplyID(tc.id)
		if err != nil {
			t.Fatal(err)
		}
		if r.Type != tc.wantType || r.Value != tc.wantValue {
			t.Errorf("%v: got %v %v, want %v %v", tc.id,
				Replies[r.Type], r.Value, Replies[tc.wantType], tc.wantValue)
		}
	}

	if _, err := ParseReplyID(7); err == nil {
		t.Fatalf("unknown reply id did not error")
	}
}

func TestProposalCreationPolicy(t *testing.T) {
	if !AnyonePolicy().IsPermitted("alice") {
		t.Fatalf("anyone policy did not permit")
	}
	p := ModulePolicy("contract2")
	if p.IsPermitted("alice") || !p.IsPermitted("contract2") {
		t.Fatalf("module policy permission invalid")
	}

	info := PreProposeInfo{Type: PolicyModule}
	if _, _, err := info.InitialPolicy("contract1"); err == nil {
		t.Fatalf("missing module info did not error")
	}
	info.Info = &backend.ModuleInstantiateInfo{CodeID: 4, Label: "prepropose"}
	policy, msgs, err := info.InitialPolicy("contract1")
	if err != nil {
		t.Fatal(err)
	}
	if policy.Type != PolicyAnyone || len(msgs) != 1 ||
		msgs[0].Instantiate == nil || msgs[0].Instantiate.CodeID != 4 {
		t.Fatalf("got %+v %+v", policy, msgs)
	}
}
