// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package numeric

import (
	"encoding/json"
	"errors"
	"testing"
)

const maxUint128Str = "340282366920938463463374607431768211455"

func TestUint128FromString(t *testing.T) {
	var tests = []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"zero", "0", "0", false},
		{"small", "42", "42", false},
		{"max", maxUint128Str, maxUint128Str, false},
		{"max plus one", "340282366920938463463374607431768211456", "", true},
		{"negative", "-1", "", true},
		{"garbage", "12a", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := Uint128FromString(tc.in)
			switch {
			case tc.wantErr && err == nil:
				t.Fatalf("got nil error, want error")
			case !tc.wantErr && err != nil:
				t.Fatalf("got error %v", err)
			case tc.wantErr:
				return
			}
			if u.String() != tc.want {
				t.Fatalf("got %v, want %v", u, tc.want)
			}
		})
	}
}

func TestUint128Arithmetic(t *testing.T) {
	max := MaxUint128()
	one := NewUint128(1)

	_, err := max.Add(one)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("max + 1: got %v, want %v", err, ErrOverflow)
	}
	_, err = NewUint128(0).Sub(one)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("0 - 1: got %v, want %v", err, ErrOverflow)
	}
	if !NewUint128(3).SaturatingSub(NewUint128(5)).IsZero() {
		t.Fatalf("saturating sub did not saturate")
	}

	// max * max / max must not overflow the intermediate product
	r, err := max.MulDiv(max, max)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Equal(max) {
		t.Fatalf("got %v, want %v", r, max)
	}
	_, err = one.MulDiv(one, Uint128{})
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("got %v, want %v", err, ErrDivideByZero)
	}

	s, err := Sum(NewUint128(1), NewUint128(2), NewUint128(3))
	if err != nil {
		t.Fatal(err)
	}
	if s.Uint64() != 6 {
		t.Fatalf("got %v, want 6", s)
	}
}

func TestUint128JSON(t *testing.T) {
	type wrapper struct {
		Amount Uint128 `json:"amount"`
	}
	b, err := json.Marshal(wrapper{Amount: MaxUint128()})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"amount":"` + maxUint128Str + `"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	var w wrapper
	err = json.Unmarshal([]byte(`{"amount":12}`), &w)
	if err != nil {
		t.Fatal(err)
	}
	if w.Amount.Uint64() != 12 {
		t.Fatalf("got %v, want 12", w.Amount)
	}
}

func TestDecimalFromString(t *testing.T) {
	var tests = []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"one", "1", "1", false},
		{"half", "0.5", "0.5", false},
		{"trailing zeros", "0.750", "0.75", false},
		{"smallest", "0.000000000000000001", "0.000000000000000001", false},
		{"too precise", "0.0000000000000000001", "", true},
		{"negative", "-0.1", "", true},
		{"garbage", "abc", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := DecimalFromString(tc.in)
			switch {
			case tc.wantErr && err == nil:
				t.Fatalf("got nil error, want error")
			case !tc.wantErr && err != nil:
				t.Fatalf("got error %v", err)
			case tc.wantErr:
				return
			}
			if d.String() != tc.want {
				t.Fatalf("got %v, want %v", d, tc.want)
			}
		})
	}
}

func TestDecimalConstructors(t *testing.T) {
	if !Percent(100).Equal(DecimalOne()) {
		t.Fatalf("100%% != 1")
	}
	if !Permille(500).Equal(Percent(50)) {
		t.Fatalf("500 permille != 50%%")
	}
	d, err := DecimalFromRatio(NewUint128(1), NewUint128(3))
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "0.333333333333333333" {
		t.Fatalf("got %v", d)
	}
	r, err := DecimalOne().Sub(Percent(75))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Equal(Percent(25)) {
		t.Fatalf("got %v, want 0.25", r)
	}
	_, err = Percent(1).Sub(Percent(2))
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("got %v, want %v", err, ErrOverflow)
	}
}

func TestDecimalMulCeil(t *testing.T) {
	var tests = []struct {
		pct  uint64
		in   uint64
		want uint64
	}{
		{50, 10, 5},
		{50, 11, 6},
		{33, 100, 33},
		{33, 101, 34},
		{100, 7, 7},
	}
	for _, tc := range tests {
		got, err := Percent(tc.pct).MulCeil(NewUint128(tc.in))
		if err != nil {
			t.Fatal(err)
		}
		if got.Uint64() != tc.want {
			t.Errorf("%v%% of %v: got %v, want %v", tc.pct, tc.in,
				got, tc.want)
		}
	}
}
