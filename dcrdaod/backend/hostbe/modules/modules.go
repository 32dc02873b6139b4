// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package modules defines the interface between the module runtime and the
// DAO modules that it hosts.
package modules

import (
	"encoding/json"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	// EventInstantiate is the type of the event that is emitted when a
	// contract is instantiated.
	EventInstantiate = "instantiate"

	// EventExecute is the type of the event that is emitted when a
	// contract is executed.
	EventExecute = "execute"

	// EventWasm is the type of the event that carries the attributes
	// that are returned by a module.
	EventWasm = "wasm"

	// EventTransfer is the type of the event that is emitted when
	// native funds are moved.
	EventTransfer = "transfer"

	// AttrContractAddress is the attribute that is added to every event
	// that is emitted on behalf of a contract.
	AttrContractAddress = "_contract_address"

	// AttrCodeID is the code ID attribute of instantiate events.
	AttrCodeID = "code_id"
)

// Env describes the environment a module is executed in.
type Env struct {
	Block    block.Info
	Contract string // Address of the executing contract
}

// Info contains the sender of a message and the funds that were sent with
// it. The funds have been moved to the contract before it is executed.
type Info struct {
	Sender string
	Funds  []backend.Coin
}

// Querier performs read only queries on behalf of a module.
type Querier interface {
	// Query performs a query on a contract. The reply payload is JSON
	// encoded.
	Query(contract, cmd, payload string) (string, error)

	// Balance returns the native balance of an address.
	Balance(address, denom string) (numeric.Uint128, error)

	// ContractInfo returns information about a contract.
	ContractInfo(address string) (*backend.ContractInfo, error)
}

// Deps contains the dependencies that are injected into a module call. The
// store is namespaced to the executing contract.
type Deps struct {
	Store   store.KVStore
	Querier Querier
}

// ReplyOnT represents when the caller of a sub-message wants to receive a
// reply.
type ReplyOnT uint32

const (
	// ReplyOnInvalid is an invalid reply on value.
	ReplyOnInvalid ReplyOnT = 0

	// ReplyOnNever never replies. A failure aborts the caller.
	ReplyOnNever ReplyOnT = 1

	// ReplyOnSuccess replies on success. A failure aborts the caller.
	ReplyOnSuccess ReplyOnT = 2

	// ReplyOnError replies on failure. The state changes of the failed
	// sub-message are discarded.
	ReplyOnError ReplyOnT = 3

	// ReplyOnAlways replies on success and on failure.
	ReplyOnAlways ReplyOnT = 4

	// ReplyOnLast is used for unit test validation of human readable
	// reply on values.
	ReplyOnLast ReplyOnT = 5
)

var (
	// ReplyOns contains the human readable reply on values.
	ReplyOns = map[ReplyOnT]string{
		ReplyOnInvalid: "invalid",
		ReplyOnNever:   "never",
		ReplyOnSuccess: "success",
		ReplyOnError:   "error",
		ReplyOnAlways:  "always",
	}
)

// SubMsg is a message that is dispatched by a module after the module call
// returned successfully.
type SubMsg struct {
	ID      uint64
	Msg     backend.Msg
	ReplyOn ReplyOnT
}

// NewSubMsg returns a sub-message that never replies.
func NewSubMsg(m backend.Msg) SubMsg {
	return SubMsg{Msg: m, ReplyOn: ReplyOnNever}
}

// SubMsgOnError returns a sub-message that replies with the provided ID if
// it fails.
func SubMsgOnError(m backend.Msg, id uint64) SubMsg {
	return SubMsg{ID: id, Msg: m, ReplyOn: ReplyOnError}
}

// SubMsgOnSuccess returns a sub-message that replies with the provided ID if
// it succeeds.
func SubMsgOnSuccess(m backend.Msg, id uint64) SubMsg {
	return SubMsg{ID: id, Msg: m, ReplyOn: ReplyOnSuccess}
}

// WantsReply returns whether a reply should be delivered for the outcome of
// the sub-message.
func (s SubMsg) WantsReply(failed bool) bool {
	switch s.ReplyOn {
	case ReplyOnAlways:
		return true
	case ReplyOnSuccess:
		return !failed
	case ReplyOnError:
		return failed
	}
	return false
}

// SubMsgResult is the outcome of a sub-message. Err is set when the
// sub-message failed.
type SubMsgResult struct {
	Events []backend.Event
	Data   string
	Err    string
}

// Reply is delivered to the module that dispatched a sub-message. Target is
// the address that the sub-message was sent to. It is empty for
// instantiations.
type Reply struct {
	ID     uint64
	Target string
	Result SubMsgResult
}

// Failed returns whether the sub-message failed.
func (r Reply) Failed() bool {
	return r.Result.Err != ""
}

// ContractAddress returns the address of the contract that was instantiated
// by the sub-message.
func (r Reply) ContractAddress() (string, bool) {
	for _, e := range r.Result.Events {
		if e.Type != EventInstantiate {
			continue
		}
		return e.Attr(AttrContractAddress)
	}
	return "", false
}

// Response is returned by a module call.
type Response struct {
	Messages   []SubMsg
	Attributes []backend.Attribute
	Events     []backend.Event
	Data       string
}

// NewResponse returns a new empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddAttribute adds an attribute to the response.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, backend.Attribute{
		Key:   key,
		Value: value,
	})
	return r
}

// AddMessage adds a message that never replies.
func (r *Response) AddMessage(m backend.Msg) *Response {
	r.Messages = append(r.Messages, NewSubMsg(m))
	return r
}

// AddMessages adds messages that never reply.
func (r *Response) AddMessages(msgs []backend.Msg) *Response {
	for _, m := range msgs {
		r.AddMessage(m)
	}
	return r
}

// AddSubMessages adds sub-messages.
func (r *Response) AddSubMessages(msgs ...SubMsg) *Response {
	r.Messages = append(r.Messages, msgs...)
	return r
}

// AddEvent adds a custom event.
func (r *Response) AddEvent(e backend.Event) *Response {
	r.Events = append(r.Events, e)
	return r
}

// SetData sets the JSON encoding of v as the response data.
func (r *Response) SetData(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.Data = string(b)
	return nil
}

// Module is a DAO module that is hosted by the runtime. Modules do not keep
// any state in memory. All state is kept in the store that is injected into
// every call.
type Module interface {
	// Instantiate sets up the state of a new contract.
	Instantiate(d Deps, env Env, info Info, payload string) (*Response, error)

	// Execute executes a command.
	Execute(d Deps, env Env, info Info, cmd, payload string) (*Response, error)

	// Query performs a read only query. The reply payload is JSON
	// encoded. Writes to the store are discarded.
	Query(d Deps, env Env, cmd, payload string) (string, error)

	// Reply handles the reply to a sub-message.
	Reply(d Deps, env Env, r Reply) (*Response, error)
}

// Code is a module implementation that is registered with the runtime.
type Code struct {
	Name   string
	Module Module
}
