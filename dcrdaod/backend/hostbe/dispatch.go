// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hostbe

import (
	"strconv"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// maxCallDepth is the maximum depth of nested sub-messages.
	maxCallDepth = 64

	// eventReply is the type of the event that is emitted when a reply
	// is delivered.
	eventReply = "reply"
)

// pendingReply is a sub-message that is awaiting the delivery of its reply.
type pendingReply struct {
	Contract string
	Target   string
	ID       uint64
	ReplyOn  modules.ReplyOnT
}

// msgTarget returns the address that a message is sent to.
func msgTarget(m backend.Msg) string {
	switch {
	case m.Execute != nil:
		return m.Execute.Contract
	case m.BankSend != nil:
		return m.BankSend.ToAddress
	}
	return ""
}

// session contains the state of a single top level operation. All module
// calls of the operation see the same block.
type session struct {
	host  *hostbe
	block block.Info

	// pending contains the sub-messages that requested a reply and are
	// still being dispatched, keyed by a random correlation ID.
	pending map[string]pendingReply
}

// newSession returns a new session.
func newSession(h *hostbe, b block.Info) *session {
	return &session{
		host:    h,
		block:   b,
		pending: make(map[string]pendingReply),
	}
}

// dispatchResult is the result of a dispatched message.
type dispatchResult struct {
	Events  []backend.Event
	Data    string
	Address string // Set for instantiations
}

// env returns the environment of the provided contract.
func (s *session) env(contract string) modules.Env {
	return modules.Env{
		Block:    s.block,
		Contract: contract,
	}
}

// deps returns the dependencies of a module call of the provided contract.
func (s *session) deps(c *store.Cache, contract string, depth int) modules.Deps {
	return modules.Deps{
		Store:   store.Prefix(c, statePrefix(contract)),
		Querier: newQuerier(s.host, s.block, c, depth),
	}
}

// contractEvent returns an event of the provided type that carries the
// contract address.
func contractEvent(typ, contract string, attrs ...backend.Attribute) backend.Event {
	a := make([]backend.Attribute, 0, len(attrs)+1)
	a = append(a, backend.Attribute{
		Key:   modules.AttrContractAddress,
		Value: contract,
	})
	return backend.Event{
		Type:       typ,
		Attributes: append(a, attrs...),
	}
}

// dispatch dispatches a message on top of the provided cache. The cache is
// left untouched when an error is returned only if the caller discards it.
func (s *session) dispatch(c *store.Cache, sender string, m backend.Msg, depth int) (*dispatchResult, error) {
	if depth > maxCallDepth {
		return nil, backend.ErrCallDepth
	}
	err := m.Validate()
	if err != nil {
		return nil, err
	}

	switch {
	case m.BankSend != nil:
		return s.bankSend(c, sender, *m.BankSend)
	case m.Instantiate != nil:
		return s.instantiate(c, sender, *m.Instantiate, depth)
	default:
		return s.execute(c, sender, *m.Execute, depth)
	}
}

// bankSend moves native funds from the sender to the recipient.
func (s *session) bankSend(c *store.Cache, sender string, m backend.BankSendMsg) (*dispatchResult, error) {
	log.Tracef("bankSend: %v -> %v", sender, m.ToAddress)

	err := backend.ValidateAddress(m.ToAddress)
	if err != nil {
		return nil, err
	}
	events, err := transfer(c, sender, m.ToAddress, m.Amount)
	if err != nil {
		return nil, err
	}
	return &dispatchResult{Events: events}, nil
}

// instantiate creates a new contract.
func (s *session) instantiate(c *store.Cache, sender string, m backend.InstantiateMsg, depth int) (*dispatchResult, error) {
	log.Tracef("instantiate: %v code %v %q", sender, m.CodeID, m.Label)

	code, err := s.host.code(m.CodeID)
	if err != nil {
		return nil, err
	}
	if m.Admin != "" {
		err = backend.ValidateAddress(m.Admin)
		if err != nil {
			return nil, err
		}
	}

	// Register the contract
	addr, err := nextContractAddress(c)
	if err != nil {
		return nil, err
	}
	ci := backend.ContractInfo{
		Address: addr,
		CodeID:  m.CodeID,
		Creator: sender,
		Admin:   m.Admin,
		Label:   m.Label,
	}
	err = store.SetJSON(c, contractKey(addr), ci)
	if err != nil {
		return nil, err
	}

	// Move the funds before the contract runs
	events, err := transfer(c, sender, addr, m.Funds)
	if err != nil {
		return nil, err
	}

	info := modules.Info{
		Sender: sender,
		Funds:  m.Funds,
	}
	resp, err := code.Module.Instantiate(s.deps(c, addr, depth),
		s.env(addr), info, m.Payload)
	if err != nil {
		return nil, err
	}

	log.Debugf("Instantiated %v %v (%q)", code.Name, addr, m.Label)

	events = append(events, contractEvent(modules.EventInstantiate, addr,
		backend.Attribute{
			Key:   modules.AttrCodeID,
			Value: strconv.FormatUint(m.CodeID, 10),
		}))
	r, err := s.handleResponse(c, addr, resp, events, depth)
	if err != nil {
		return nil, err
	}
	r.Address = addr

	return r, nil
}

// execute executes a command on a contract.
func (s *session) execute(c *store.Cache, sender string, m backend.ExecuteMsg, depth int) (*dispatchResult, error) {
	log.Tracef("execute: %v %v %v", sender, m.Contract, m.Cmd)

	ci, err := contractInfo(c, m.Contract)
	if err != nil {
		return nil, err
	}
	code, err := s.host.code(ci.CodeID)
	if err != nil {
		return nil, err
	}

	// Move the funds before the contract runs
	events, err := transfer(c, sender, m.Contract, m.Funds)
	if err != nil {
		return nil, err
	}

	info := modules.Info{
		Sender: sender,
		Funds:  m.Funds,
	}
	resp, err := code.Module.Execute(s.deps(c, m.Contract, depth),
		s.env(m.Contract), info, m.Cmd, m.Payload)
	if err != nil {
		return nil, err
	}

	events = append(events, contractEvent(modules.EventExecute, m.Contract))
	return s.handleResponse(c, m.Contract, resp, events, depth)
}

// reply delivers a reply to the contract that dispatched the sub-message.
// The reply runs in the cache of the caller.
func (s *session) reply(c *store.Cache, contract string, r modules.Reply, depth int) (*dispatchResult, error) {
	log.Tracef("reply: %v %v failed %v", contract, r.ID, r.Failed())

	ci, err := contractInfo(c, contract)
	if err != nil {
		return nil, err
	}
	code, err := s.host.code(ci.CodeID)
	if err != nil {
		return nil, err
	}
	resp, err := code.Module.Reply(s.deps(c, contract, depth),
		s.env(contract), r)
	if err != nil {
		return nil, err
	}

	events := []backend.Event{contractEvent(eventReply, contract)}
	return s.handleResponse(c, contract, resp, events, depth)
}

// handleResponse emits the events of a module response and dispatches its
// sub-messages in order. The data of a reply overrides the data of the
// response.
func (s *session) handleResponse(c *store.Cache, contract string, resp *modules.Response, events []backend.Event, depth int) (*dispatchResult, error) {
	if resp == nil {
		resp = modules.NewResponse()
	}
	if len(resp.Attributes) > 0 {
		events = append(events, contractEvent(modules.EventWasm, contract,
			resp.Attributes...))
	}
	for _, e := range resp.Events {
		events = append(events, contractEvent(modules.EventWasm+"-"+e.Type,
			contract, e.Attributes...))
	}

	r := &dispatchResult{
		Events: events,
		Data:   resp.Data,
	}
	for _, sm := range resp.Messages {
		sr, err := s.subMsg(c, contract, sm, depth)
		if err != nil {
			return nil, err
		}
		r.Events = append(r.Events, sr.Events...)
		if sr.Data != "" {
			r.Data = sr.Data
		}
	}

	return r, nil
}

// register adds a sub-message to the pending reply table and returns its
// correlation ID.
func (s *session) register(contract string, sm modules.SubMsg) string {
	id := uuid.New().String()
	s.pending[id] = pendingReply{
		Contract: contract,
		Target:   msgTarget(sm.Msg),
		ID:       sm.ID,
		ReplyOn:  sm.ReplyOn,
	}
	return id
}

// release removes a sub-message from the pending reply table.
func (s *session) release(id string) (*pendingReply, error) {
	p, ok := s.pending[id]
	if !ok {
		return nil, errors.Errorf("pending reply not found: %v", id)
	}
	delete(s.pending, id)
	return &p, nil
}

// subMsg dispatches a sub-message in its own child cache. On success the
// child cache is written into the caller's cache. On failure it is discarded
// and the failure aborts the caller unless a reply on error was requested.
// The returned data is the data of the reply, if any.
func (s *session) subMsg(c *store.Cache, contract string, sm modules.SubMsg, depth int) (*dispatchResult, error) {
	wantsReply := sm.ReplyOn != modules.ReplyOnNever
	var corrID string
	if wantsReply {
		corrID = s.register(contract, sm)
	}

	branch := c.Branch()
	dr, err := s.dispatch(branch, contract, sm.Msg, depth+1)
	failed := err != nil
	if !failed {
		branch.Write()
	}

	if !wantsReply {
		if failed {
			return nil, err
		}
		return &dispatchResult{Events: dr.Events}, nil
	}

	p, err2 := s.release(corrID)
	if err2 != nil {
		return nil, err2
	}
	if !sm.WantsReply(failed) {
		if failed {
			return nil, err
		}
		return &dispatchResult{Events: dr.Events}, nil
	}

	r := modules.Reply{
		ID:     p.ID,
		Target: p.Target,
	}
	var events []backend.Event
	if failed {
		log.Debugf("Sub-message %v of %v failed: %v", p.ID, p.Contract, err)

		r.Result.Err = err.Error()
	} else {
		r.Result.Events = dr.Events
		r.Result.Data = dr.Data
		events = dr.Events
	}

	rr, err := s.reply(c, p.Contract, r, depth)
	if err != nil {
		return nil, err
	}
	return &dispatchResult{
		Events: append(events, rr.Events...),
		Data:   rr.Data,
	}, nil
}
