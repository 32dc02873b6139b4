// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package modules

import (
	"errors"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/unittest"
)

func TestReplyOns(t *testing.T) {
	err := unittest.TestGenericConstMap(ReplyOns, uint64(ReplyOnLast))
	if err != nil {
		t.Fatal(err)
	}
}

func TestWantsReply(t *testing.T) {
	var tests = []struct {
		replyOn ReplyOnT
		success bool
		failure bool
	}{
		{ReplyOnNever, false, false},
		{ReplyOnSuccess, true, false},
		{ReplyOnError, false, true},
		{ReplyOnAlways, true, true},
	}
	for _, tc := range tests {
		t.Run(ReplyOns[tc.replyOn], func(t *testing.T) {
			s := SubMsg{ReplyOn: tc.replyOn}
			if s.WantsReply(false) != tc.success {
				t.Errorf("success: got %v, want %v",
					s.WantsReply(false), tc.success)
			}
			if s.WantsReply(true) != tc.failure {
				t.Errorf("failure: got %v, want %v",
					s.WantsReply(true), tc.failure)
			}
		})
	}
}

func TestReplyContractAddress(t *testing.T) {
	r := Reply{
		Result: SubMsgResult{
			Events: []backend.Event{
				{
					Type: EventExecute,
					Attributes: []backend.Attribute{
						{Key: AttrContractAddress, Value: "contract1"},
					},
				},
				{
					Type: EventInstantiate,
					Attributes: []backend.Attribute{
						{Key: AttrContractAddress, Value: "contract2"},
						{Key: AttrCodeID, Value: "3"},
					},
				},
			},
		},
	}
	addr, ok := r.ContractAddress()
	if !ok {
		t.Fatal("address not found")
	}
	if addr != "contract2" {
		t.Errorf("got %v, want contract2", addr)
	}
	if r.Failed() {
		t.Errorf("reply should not be failed")
	}
}

func TestResponse(t *testing.T) {
	r := NewResponse().
		AddAttribute("action", "propose").
		AddMessage(BankSendMsg("alice", backend.NewCoin(1, "udcr")))
	err := r.SetData(7)
	if err != nil {
		t.Fatal(err)
	}
	if r.Data != "7" {
		t.Errorf("got data %v, want 7", r.Data)
	}
	if len(r.Messages) != 1 || r.Messages[0].ReplyOn != ReplyOnNever {
		t.Errorf("unexpected messages: %v", unittest.Dump(r.Messages))
	}
	m, err := ExecuteMsg("contract1", "vote", map[string]int{"id": 1})
	if err != nil {
		t.Fatal(err)
	}
	if m.Execute.Payload != `{"id":1}` {
		t.Errorf("got payload %v", m.Execute.Payload)
	}
}

func TestDecode(t *testing.T) {
	var p struct {
		ID uint64 `json:"id"`
	}
	err := Decode("", &p)
	if err != nil {
		t.Fatal(err)
	}
	err = Decode(`{"id":"x"}`, &p)
	if !errors.Is(err, backend.ErrPayloadInvalid) {
		t.Errorf("got %v, want %v", err, backend.ErrPayloadInvalid)
	}
}

func TestPageLimit(t *testing.T) {
	var tests = []struct {
		limit, def, max uint32
		want            int
	}{
		{0, 10, 30, 10},
		{5, 10, 30, 5},
		{50, 10, 30, 30},
		{50, 10, 0, 50},
	}
	for _, tc := range tests {
		got := PageLimit(tc.limit, tc.def, tc.max)
		if got != tc.want {
			t.Errorf("PageLimit(%v, %v, %v): got %v, want %v",
				tc.limit, tc.def, tc.max, got, tc.want)
		}
	}
}
