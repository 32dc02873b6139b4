// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package daotest provides a test harness that runs the DAO modules on an
// in-memory module runtime. It is for unit tests only.
package daotest

import (
	"errors"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/core"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/members"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/multiple"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/prepropose"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/proposal"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/stake"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules/token"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
	"github.com/decred/dcrdao/util"
)

// Denom is the native denomination used by the tests.
const Denom = "udcr"

// Host is the module runtime used by the harness.
type Host interface {
	backend.Backend

	// CodeID returns the code ID of a module.
	CodeID(name string) (uint64, error)
}

// Codes returns all DAO module codes.
func Codes() []modules.Code {
	return []modules.Code{
		core.New(),
		proposal.New(),
		multiple.New(),
		prepropose.New(),
		stake.New(),
		members.New(),
		token.New(),
	}
}

// Harness wraps a test host with helpers that fail the test on unexpected
// errors.
type Harness struct {
	t    *testing.T
	Host Host
}

// New returns a new harness with all DAO modules registered.
func New(t *testing.T) *Harness {
	t.Helper()

	return &Harness{
		t:    t,
		Host: hostbe.NewTestHost(t, Codes()...),
	}
}

// NewWithSink returns a new harness with all DAO modules and the sink module
// registered.
func NewWithSink(t *testing.T) *Harness {
	t.Helper()

	codes := append(Codes(), modules.Code{
		Name:   SinkID,
		Module: &sinkModule{},
	})
	return &Harness{
		t:    t,
		Host: hostbe.NewTestHost(t, codes...),
	}
}

// CodeID returns the code ID of a module.
func (h *Harness) CodeID(name string) uint64 {
	h.t.Helper()

	id, err := h.Host.CodeID(name)
	if err != nil {
		h.t.Fatal(err)
	}
	return id
}

// Encode returns the JSON encoding of v.
func (h *Harness) Encode(v interface{}) string {
	h.t.Helper()

	s, err := util.EncodeJSON(v)
	if err != nil {
		h.t.Fatal(err)
	}
	return s
}

// InstantiateMsg returns the instantiate message of a module.
func (h *Harness) InstantiateMsg(name, label string, payload interface{}, funds ...backend.Coin) backend.InstantiateMsg {
	h.t.Helper()

	return backend.InstantiateMsg{
		CodeID:  h.CodeID(name),
		Label:   label,
		Payload: h.Encode(payload),
		Funds:   funds,
	}
}

// ModuleInfo returns the instantiate info of a module that is instantiated
// by the core module.
func (h *Harness) ModuleInfo(name, label string, payload interface{}) backend.ModuleInstantiateInfo {
	h.t.Helper()

	return backend.ModuleInstantiateInfo{
		CodeID:  h.CodeID(name),
		Payload: h.Encode(payload),
		Admin:   &backend.Admin{Type: backend.AdminCore},
		Label:   label,
	}
}

// Instantiate instantiates a module and returns the contract address.
func (h *Harness) Instantiate(sender, name string, payload interface{}, funds ...backend.Coin) string {
	h.t.Helper()

	r, err := h.Host.Instantiate(sender, h.InstantiateMsg(name, name, payload,
		funds...))
	if err != nil {
		h.t.Fatalf("instantiate %v: %v", name, err)
	}
	return r.Address
}

// Execute executes a command with the JSON encoding of payload.
func (h *Harness) Execute(sender, contract, cmd string, payload interface{}, funds ...backend.Coin) (*backend.Result, error) {
	h.t.Helper()

	return h.Host.Execute(sender, backend.ExecuteMsg{
		Contract: contract,
		Cmd:      cmd,
		Payload:  h.Encode(payload),
		Funds:    funds,
	})
}

// MustExecute executes a command and fails the test on error.
func (h *Harness) MustExecute(sender, contract, cmd string, payload interface{}, funds ...backend.Coin) *backend.Result {
	h.t.Helper()

	r, err := h.Execute(sender, contract, cmd, payload, funds...)
	if err != nil {
		h.t.Fatalf("execute %v %v: %v", contract, cmd, err)
	}
	return r
}

// Query performs a query and decodes the reply into reply.
func (h *Harness) Query(contract, cmd string, payload, reply interface{}) {
	h.t.Helper()

	r, err := h.Host.Query(contract, cmd, h.Encode(payload))
	if err != nil {
		h.t.Fatalf("query %v %v: %v", contract, cmd, err)
	}
	err = util.DecodeJSON(r, reply)
	if err != nil {
		h.t.Fatal(err)
	}
}

// Mint credits native funds to an address.
func (h *Harness) Mint(addr string, amount uint64) {
	h.t.Helper()

	err := h.Host.Mint(addr, backend.NewCoin(amount, Denom))
	if err != nil {
		h.t.Fatal(err)
	}
}

// Balance returns the native balance of an address.
func (h *Harness) Balance(addr string) numeric.Uint128 {
	h.t.Helper()

	b, err := h.Host.Balance(addr, Denom)
	if err != nil {
		h.t.Fatal(err)
	}
	return b
}

// Advance moves the block clock forward.
func (h *Harness) Advance(heights, seconds uint64) block.Info {
	h.t.Helper()

	b, err := h.Host.AdvanceBlock(heights, seconds)
	if err != nil {
		h.t.Fatal(err)
	}
	return *b
}

// Block returns the current block.
func (h *Harness) Block() block.Info {
	h.t.Helper()

	b, err := h.Host.Block()
	if err != nil {
		h.t.Fatal(err)
	}
	return b
}

// ModuleError returns the module error that is wrapped by err.
func ModuleError(err error) (*backend.ModuleError, bool) {
	var me backend.ModuleError
	if !errors.As(err, &me) {
		return nil, false
	}
	return &me, true
}

// RequireError fails the test if err is not the module error with the
// provided module ID and error code.
func RequireError(t *testing.T, err error, moduleID string, code uint32) {
	t.Helper()

	me, ok := ModuleError(err)
	if !ok {
		t.Fatalf("got error %v, want %v module error %v", err, moduleID, code)
	}
	if me.ModuleID != moduleID || me.ErrorCode != code {
		t.Fatalf("got %v module error %v (%v), want %v module error %v",
			me.ModuleID, me.ErrorCode, me.ErrorContext, moduleID, code)
	}
}

// Uint128 returns n as a Uint128.
func Uint128(n uint64) numeric.Uint128 {
	return numeric.NewUint128(n)
}
