// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"errors"
	"testing"

	errs "github.com/pkg/errors"
)

func TestZero(t *testing.T) {
	b, err := Random(32)
	if err != nil {
		t.Fatal(err)
	}
	Zero(b)
	if !bytes.Equal(b, make([]byte, 32)) {
		t.Errorf("not zeroed: %x", b)
	}
	Zero(nil)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var p payload
	err := DecodeJSON("", &p)
	if err != nil {
		t.Fatal(err)
	}
	err = DecodeJSON(`{"name":"dao"}`, &p)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "dao" {
		t.Errorf("got %v, want dao", p.Name)
	}
	err = DecodeJSON(`{"name":`, &p)
	if err == nil {
		t.Errorf("expected error")
	}

	s, err := EncodeJSON(p)
	if err != nil {
		t.Fatal(err)
	}
	if s != `{"name":"dao"}` {
		t.Errorf("got %v", s)
	}
}

func TestStackTrace(t *testing.T) {
	_, ok := StackTrace(errors.New("stdlib"))
	if ok {
		t.Errorf("stdlib errors do not have stack traces")
	}
	st, ok := StackTrace(errs.New("pkg"))
	if !ok || st == "" {
		t.Errorf("stack trace not found")
	}
}

func TestNormalizeAddress(t *testing.T) {
	var tests = []struct {
		addr string
		want string
	}{
		{"localhost", "localhost:49374"},
		{"localhost:1", "localhost:1"},
		{"::1", "[::1]:49374"},
	}
	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			got := NormalizeAddress(tc.addr, "49374")
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
