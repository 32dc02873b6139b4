// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package daotest

import (
	"errors"
	"fmt"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
)

const (
	// SinkID is the name of a module that accepts every command. It is
	// used as a hook subscriber that never fails. See NewWithSink.
	SinkID = "sink"

	// CmdReceived returns the number of commands a sink has received.
	CmdReceived = "received"

	keyReceived = "received"
)

var _ modules.Module = (*sinkModule)(nil)

type sinkModule struct{}

func received(g store.Getter) (uint64, error) {
	var n uint64
	err := store.GetJSON(g, keyReceived, &n)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	return n, nil
}

func (m *sinkModule) Instantiate(d modules.Deps, env modules.Env, info modules.Info, payload string) (*modules.Response, error) {
	return modules.NewResponse(), nil
}

func (m *sinkModule) Execute(d modules.Deps, env modules.Env, info modules.Info, cmd, payload string) (*modules.Response, error) {
	n, err := received(d.Store)
	if err != nil {
		return nil, err
	}
	err = store.SetJSON(d.Store, keyReceived, n+1)
	if err != nil {
		return nil, err
	}
	return modules.NewResponse().AddAttribute("received", cmd), nil
}

func (m *sinkModule) Query(d modules.Deps, env modules.Env, cmd, payload string) (string, error) {
	if cmd != CmdReceived {
		return "", fmt.Errorf("invalid sink query %v", cmd)
	}
	n, err := received(d.Store)
	if err != nil {
		return "", err
	}
	return modules.EncodeReply(n)
}

func (m *sinkModule) Reply(d modules.Deps, env modules.Env, r modules.Reply) (*modules.Response, error) {
	return nil, fmt.Errorf("unexpected reply %v", r.ID)
}

// Received returns the number of commands that a sink has received.
func (h *Harness) Received(sink string) uint64 {
	h.t.Helper()

	var n uint64
	h.Query(sink, CmdReceived, struct{}{}, &n)
	return n
}
