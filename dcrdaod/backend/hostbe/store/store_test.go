// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testEmptyGetter is a Getter without any entries.
type testEmptyGetter struct{}

func (testEmptyGetter) Get(key string) ([]byte, error) {
	return nil, ErrNotFound
}

func (testEmptyGetter) Range(q Query) ([]Entry, error) {
	return nil, nil
}

func keys(entries []Entry) []string {
	k := make([]string, 0, len(entries))
	for _, v := range entries {
		k = append(k, v.Key)
	}
	return k
}

func TestCache(t *testing.T) {
	root := NewCache(testEmptyGetter{})
	root.Set("a", []byte("1"))
	root.Set("b", []byte("2"))
	root.Set("c", []byte("3"))

	// A discarded branch leaves no trace
	branch := root.Branch()
	branch.Set("d", []byte("4"))
	branch.Delete("a")
	if _, err := branch.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want %v", err, ErrNotFound)
	}
	if _, err := root.Get("d"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want %v", err, ErrNotFound)
	}
	b, err := root.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1" {
		t.Fatalf("got %s, want 1", b)
	}

	// A written branch is merged into the parent
	branch.Write()
	if branch.Len() != 0 {
		t.Fatalf("branch not reset")
	}
	var tests = []struct {
		name string
		q    Query
		want []string
	}{
		{
			"all",
			Query{},
			[]string{"b", "c", "d"},
		},
		{
			"reverse",
			Query{Reverse: true},
			[]string{"d", "c", "b"},
		},
		{
			"limit",
			Query{Limit: 2},
			[]string{"b", "c"},
		},
		{
			"bounded",
			Query{Start: "c", End: "d"},
			[]string{"c"},
		},
		{
			"reverse limit",
			Query{Start: "a", End: "d", Reverse: true, Limit: 1},
			[]string{"c"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := root.Range(tc.q)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, keys(entries)); diff != "" {
				t.Errorf("(-want +got):\n%v", diff)
			}
		})
	}
}

func TestCacheHidesParentEntries(t *testing.T) {
	root := NewCache(testEmptyGetter{})
	for _, k := range []string{"a", "b", "c", "d"} {
		root.Set(k, []byte(k))
	}
	branch := root.Branch()
	branch.Delete("a")
	branch.Delete("b")

	entries, err := branch.Range(Query{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"c", "d"}, keys(entries)); diff != "" {
		t.Errorf("(-want +got):\n%v", diff)
	}
}

func TestPrefix(t *testing.T) {
	root := NewCache(testEmptyGetter{})
	root.Set("other", []byte("x"))
	p := Prefix(root, "ns/")
	p.Set("a", []byte("1"))
	p.Set("b", []byte("2"))

	if _, err := root.Get("ns/a"); err != nil {
		t.Fatal(err)
	}
	entries, err := p.Range(Query{Reverse: true})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, keys(entries)); diff != "" {
		t.Errorf("(-want +got):\n%v", diff)
	}

	p.Delete("a")
	ok, err := Has(root, "ns/a")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Errorf("deleted entry still exists")
	}
}

func TestPrefixEnd(t *testing.T) {
	var tests = []struct {
		prefix string
		want   string
	}{
		{"", ""},
		{"a", "b"},
		{"ab", "ac"},
		{"a\xff", "b"},
		{"\xff\xff", ""},
	}
	for _, tc := range tests {
		t.Run(tc.prefix, func(t *testing.T) {
			got := PrefixEnd(tc.prefix)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	type thing struct {
		Name string `json:"name"`
	}
	c := NewCache(testEmptyGetter{})
	err := SetJSON(c, Join("things", Uint64Key(7)), thing{Name: "seven"})
	if err != nil {
		t.Fatal(err)
	}
	var got thing
	err = GetJSON(c, "things"+Separator+"00000000000000000007", &got)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "seven" {
		t.Errorf("got %v, want seven", got.Name)
	}
	err = GetJSON(c, "missing", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want %v", err, ErrNotFound)
	}
}
