// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package snapshot

import (
	"math"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/unittest"
)

func TestLoadAtHeight(t *testing.T) {
	s := store.NewTestCache()
	m := New("staked")

	// Changes made during a block count from the next height on
	saves := []struct {
		key    string
		value  uint64
		height uint64
	}{
		{"alice", 10, 5},
		{"alice", 25, 8},
		{"bob", 7, 8},
		{"alice", 0, 12},
		{"al", 3, 6},
	}
	for _, v := range saves {
		err := m.Save(s, v.key, numeric.NewUint128(v.value), v.height)
		if err != nil {
			t.Fatal(err)
		}
	}

	var tests = []struct {
		key    string
		height uint64
		want   uint64
	}{
		{"alice", 1, 0},
		{"alice", 5, 0},
		{"alice", 6, 10},
		{"alice", 8, 10},
		{"alice", 9, 25},
		{"alice", 12, 25},
		{"alice", 13, 0},
		{"alice", 100, 0},
		{"bob", 8, 0},
		{"bob", 9, 7},
		{"al", 7, 3},
		{"carol", 9, 0},
		{"alice", math.MaxUint64, 0},
		{"bob", math.MaxUint64, 7},
		{"al", math.MaxUint64, 3},
	}
	for _, tc := range tests {
		got, err := m.LoadAtHeight(s, tc.key, tc.height)
		if err != nil {
			t.Fatal(err)
		}
		if got.Uint64() != tc.want {
			t.Errorf("%v at %v: got %v, want %v",
				tc.key, tc.height, got, tc.want)
		}
	}

	// Latest values
	v, err := m.Load(s, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsZero() {
		t.Errorf("alice: got %v, want 0", v)
	}
	v, err = m.Load(s, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint64() != 7 {
		t.Errorf("bob: got %v, want 7", v)
	}
}

func TestLastHeight(t *testing.T) {
	s := store.NewTestCache()
	m := New("staked")

	err := m.Save(s, "carol", numeric.NewUint128(4), math.MaxUint64)
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		height uint64
		want   uint64
	}{
		{0, 0},
		{math.MaxUint64 - 1, 0},
		{math.MaxUint64, 4},
	} {
		got, err := m.LoadAtHeight(s, "carol", tc.height)
		if err != nil {
			t.Fatal(err)
		}
		if got.Uint64() != tc.want {
			t.Errorf("at %v: got %v, want %v", tc.height, got, tc.want)
		}
	}
}

func TestUpdateAndList(t *testing.T) {
	s := store.NewTestCache()
	m := New("members")

	add := func(n uint64) func(numeric.Uint128) (numeric.Uint128, error) {
		return func(v numeric.Uint128) (numeric.Uint128, error) {
			return v.Add(numeric.NewUint128(n))
		}
	}
	for _, k := range []string{"dave", "bob", "carol", "alice"} {
		_, err := m.Update(s, k, 1, add(1))
		if err != nil {
			t.Fatal(err)
		}
	}
	v, err := m.Update(s, "bob", 2, add(4))
	if err != nil {
		t.Fatal(err)
	}
	if v.Uint64() != 5 {
		t.Errorf("got %v, want 5", v)
	}
	_, err = m.Update(s, "carol", 2, func(numeric.Uint128) (numeric.Uint128, error) {
		return numeric.Uint128{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := m.List(s, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{"alice", numeric.NewUint128(1)},
		{"bob", numeric.NewUint128(5)},
		{"dave", numeric.NewUint128(1)},
	}
	if diff := unittest.DeepEqual(all, want); diff != "" {
		t.Error(diff)
	}

	page, err := m.List(s, "alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := unittest.DeepEqual(page, want[1:2]); diff != "" {
		t.Error(diff)
	}
}
