// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package core

import "testing"

func TestProposalModulePrefix(t *testing.T) {
	var tests = []struct {
		index uint64
		want  string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{52, "BA"},
		{53, "BB"},
		{78, "CA"},
		{260, "JA"},
		{650, "YA"},
		{676, "ZA"},
		{701, "ZZ"},
		{702, "AAA"},
		{17576, "YZA"},
	}
	for _, tc := range tests {
		got := proposalModulePrefix(tc.index)
		if got != tc.want {
			t.Errorf("%v: got %v, want %v", tc.index, got, tc.want)
		}
	}
}
