// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package backend

import (
	"errors"
	"testing"

	"github.com/decred/dcrdao/unittest"
)

func TestAdmins(t *testing.T) {
	err := unittest.TestGenericConstMap(Admins, uint64(AdminLast))
	if err != nil {
		t.Fatal(err)
	}
}

func TestValidateAddress(t *testing.T) {
	var tests = []struct {
		addr    string
		wantErr bool
	}{
		{"alice", false},
		{"contract12", false},
		{"ab", true},
		{"Alice", true},
		{"1alice", true},
		{"ali ce", true},
		{"", true},
	}
	for _, tc := range tests {
		err := ValidateAddress(tc.addr)
		switch {
		case tc.wantErr && !errors.Is(err, ErrAddressInvalid):
			t.Errorf("%q: got %v, want %v", tc.addr, err, ErrAddressInvalid)
		case !tc.wantErr && err != nil:
			t.Errorf("%q: got %v", tc.addr, err)
		}
	}
}

func TestMsgValidate(t *testing.T) {
	if err := (Msg{}).Validate(); !errors.Is(err, ErrMsgInvalid) {
		t.Fatalf("empty msg: got %v, want %v", err, ErrMsgInvalid)
	}
	m := Msg{
		Execute:  &ExecuteMsg{Contract: "contract1", Cmd: "x"},
		BankSend: &BankSendMsg{ToAddress: "alice"},
	}
	if err := m.Validate(); !errors.Is(err, ErrMsgInvalid) {
		t.Fatalf("two actions: got %v, want %v", err, ErrMsgInvalid)
	}
	m.BankSend = nil
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestModuleInstantiateInfoMsg(t *testing.T) {
	info := ModuleInstantiateInfo{
		CodeID: 3,
		Label:  "voting",
		Admin:  &Admin{Type: AdminCore},
	}
	m := info.Msg("contract1")
	if m.Instantiate == nil || m.Instantiate.Admin != "contract1" {
		t.Fatalf("core admin not set: %+v", m.Instantiate)
	}

	info.Admin = nil
	m = info.Msg("contract1")
	if m.Instantiate.Admin != "" {
		t.Fatalf("got admin %v, want none", m.Instantiate.Admin)
	}
}

func TestValidateCoins(t *testing.T) {
	var tests = []struct {
		name  string
		coins []Coin
		err   error
	}{
		{"valid", []Coin{NewCoin(1, "udcr"), NewCoin(5, "ibc/abc")}, nil},
		{"empty", nil, nil},
		{"zero amount", []Coin{NewCoin(0, "udcr")}, ErrCoinsInvalid},
		{"bad denom", []Coin{NewCoin(1, "1dcr")}, ErrCoinsInvalid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoins(tc.coins)
			if !errors.Is(err, tc.err) {
				t.Errorf("got %v, want %v", err, tc.err)
			}
		})
	}
}
