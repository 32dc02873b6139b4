// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hostbe implements the backend interface using an in-process module
// runtime. Modules are registered as codes on startup and instantiated as
// contracts. All contract state is kept in a store.KV.
package hostbe

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/modules"
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

var (
	_ backend.Backend = (*hostbe)(nil)
)

// Config contains the runtime settings.
type Config struct {
	// ChainID is the chain ID of the genesis block.
	ChainID string

	// GenesisTime is the block time of the genesis block. The current
	// time is used when it is not set.
	GenesisTime time.Time

	// Encrypt encrypts the runtime state at rest.
	Encrypt bool
}

// hostbe implements the backend Backend interface.
type hostbe struct {
	sync.RWMutex
	shutdown bool
	kv       store.KV
	encrypt  bool

	// codes contains the registered module implementations. Code IDs
	// are assigned in registration order starting at 1.
	codes map[uint64]modules.Code

	// subs contains the handlers that are notified of the events of
	// every committed transaction.
	subs []backend.EventHandler
}

// code returns the module implementation of a code ID.
func (h *hostbe) code(codeID uint64) (*modules.Code, error) {
	c, ok := h.codes[codeID]
	if !ok {
		return nil, fmt.Errorf("%w: %v", backend.ErrCodeNotFound, codeID)
	}
	return &c, nil
}

// write runs fn in a new session on top of a store transaction. The state
// changes are committed when fn succeeds and discarded otherwise. The
// subscribers are notified of the events after the lock is released.
func (h *hostbe) write(fn func(*session, *store.Cache) (*dispatchResult, error)) (*dispatchResult, error) {
	r, b, err := h.commit(fn)
	if err != nil {
		return nil, err
	}
	if len(r.Events) == 0 {
		return r, nil
	}

	h.RLock()
	subs := make([]backend.EventHandler, len(h.subs))
	copy(subs, h.subs)
	h.RUnlock()

	for _, fn := range subs {
		fn(*b, r.Events)
	}

	return r, nil
}

// commit runs fn in a new session and commits the result.
func (h *hostbe) commit(fn func(*session, *store.Cache) (*dispatchResult, error)) (*dispatchResult, *block.Info, error) {
	h.Lock()
	defer h.Unlock()

	if h.shutdown {
		return nil, nil, backend.ErrShutdown
	}

	tx, cancel, err := h.kv.Tx()
	if err != nil {
		return nil, nil, err
	}
	defer cancel()

	root := store.NewCache(tx)
	b, err := getBlock(root)
	if err != nil {
		return nil, nil, err
	}
	r, err := fn(newSession(h, *b), root)
	if err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			// We're in trouble!
			e := fmt.Sprintf("rollback: %v, unwind: %v", err2, err)
			panic(e)
		}
		return nil, nil, err
	}

	err = root.Flush(tx, h.encrypt)
	if err != nil {
		return nil, nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, nil, err
	}

	return r, b, nil
}

// read returns a querier over the committed state. The read lock must be
// held by the caller.
func (h *hostbe) read() (*querier, error) {
	if h.shutdown {
		return nil, backend.ErrShutdown
	}
	b, err := getBlock(h.kv)
	if err != nil {
		return nil, err
	}
	return newQuerier(h, *b, h.kv, 0), nil
}

// Instantiate creates a new contract.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Instantiate(sender string, msg backend.InstantiateMsg) (*backend.InstantiateResult, error) {
	log.Tracef("Instantiate: %v %v", sender, msg.CodeID)

	err := backend.ValidateAddress(sender)
	if err != nil {
		return nil, err
	}
	r, err := h.write(func(s *session, c *store.Cache) (*dispatchResult, error) {
		return s.dispatch(c, sender, backend.Msg{Instantiate: &msg}, 0)
	})
	if err != nil {
		return nil, err
	}

	return &backend.InstantiateResult{
		Address: r.Address,
		Events:  r.Events,
		Data:    r.Data,
	}, nil
}

// Execute executes a command on a contract.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Execute(sender string, msg backend.ExecuteMsg) (*backend.Result, error) {
	log.Tracef("Execute: %v %v %v", sender, msg.Contract, msg.Cmd)

	err := backend.ValidateAddress(sender)
	if err != nil {
		return nil, err
	}
	r, err := h.write(func(s *session, c *store.Cache) (*dispatchResult, error) {
		return s.dispatch(c, sender, backend.Msg{Execute: &msg}, 0)
	})
	if err != nil {
		return nil, err
	}

	return &backend.Result{
		Events: r.Events,
		Data:   r.Data,
	}, nil
}

// Query performs a read only query on a contract.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Query(contract, cmd, payload string) (string, error) {
	log.Tracef("Query: %v %v", contract, cmd)

	h.RLock()
	defer h.RUnlock()

	q, err := h.read()
	if err != nil {
		return "", err
	}
	return q.Query(contract, cmd, payload)
}

// Balance returns the native balance of an address.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Balance(address, denom string) (numeric.Uint128, error) {
	log.Tracef("Balance: %v %v", address, denom)

	h.RLock()
	defer h.RUnlock()

	q, err := h.read()
	if err != nil {
		return numeric.Uint128{}, err
	}
	return q.Balance(address, denom)
}

// Mint credits native funds to an address.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Mint(address string, c backend.Coin) error {
	log.Tracef("Mint: %v %v%v", address, c.Amount, c.Denom)

	err := backend.ValidateAddress(address)
	if err != nil {
		return err
	}
	err = backend.ValidateCoins([]backend.Coin{c})
	if err != nil {
		return err
	}
	_, err = h.write(func(s *session, cache *store.Cache) (*dispatchResult, error) {
		err := mint(cache, address, c)
		if err != nil {
			return nil, err
		}
		return &dispatchResult{
			Events: []backend.Event{{
				Type: "mint",
				Attributes: []backend.Attribute{
					{Key: "recipient", Value: address},
					{Key: "amount", Value: c.Amount.String() + c.Denom},
				},
			}},
		}, nil
	})
	if err != nil {
		return err
	}

	log.Debugf("Minted %v%v to %v", c.Amount, c.Denom, address)

	return nil
}

// Block returns the current block info.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Block() (block.Info, error) {
	h.RLock()
	defer h.RUnlock()

	if h.shutdown {
		return block.Info{}, backend.ErrShutdown
	}
	b, err := getBlock(h.kv)
	if err != nil {
		return block.Info{}, err
	}
	return *b, nil
}

// AdvanceBlock moves the block clock forward.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) AdvanceBlock(heights, seconds uint64) (*block.Info, error) {
	log.Tracef("AdvanceBlock: %v %v", heights, seconds)

	var next block.Info
	_, err := h.write(func(s *session, c *store.Cache) (*dispatchResult, error) {
		next = s.block.Next(heights, seconds)
		err := setBlock(c, next)
		if err != nil {
			return nil, err
		}
		return &dispatchResult{}, nil
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("Block %v time %v", next.Height, next.Time)

	return &next, nil
}

// Codes returns the registered module implementations ordered by code ID.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Codes() []backend.Code {
	codes := make([]backend.Code, 0, len(h.codes))
	for id, c := range h.codes {
		codes = append(codes, backend.Code{
			CodeID: id,
			Name:   c.Name,
		})
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i].CodeID < codes[j].CodeID
	})
	return codes
}

// CodeID returns the code ID of the module implementation with the provided
// name.
func (h *hostbe) CodeID(name string) (uint64, error) {
	for id, c := range h.codes {
		if c.Name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", backend.ErrCodeNotFound, name)
}

// ContractInfo returns information about a contract.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) ContractInfo(address string) (*backend.ContractInfo, error) {
	h.RLock()
	defer h.RUnlock()

	q, err := h.read()
	if err != nil {
		return nil, err
	}
	return q.ContractInfo(address)
}

// Subscribe registers a handler for the events of committed transactions.
// Handlers are called synchronously in registration order.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Subscribe(fn backend.EventHandler) {
	h.Lock()
	defer h.Unlock()

	h.subs = append(h.subs, fn)
}

// Close performs cleanup of the backend.
//
// This function satisfies the backend Backend interface.
func (h *hostbe) Close() {
	log.Tracef("Close")

	h.Lock()
	defer h.Unlock()

	if h.shutdown {
		return
	}

	// Shutdown backend
	h.shutdown = true

	// Close the store
	h.kv.Close()
}

// setup writes the genesis block if the store does not contain a block yet.
func (h *hostbe) setup(cfg Config) error {
	log.Tracef("setup")

	b, err := getBlock(h.kv)
	switch {
	case err == nil:
		log.Infof("Block height %v, chain %v", b.Height, b.ChainID)
		return nil
	case errors.Is(err, store.ErrNotFound):
		// Write the genesis block
	default:
		return err
	}

	gt := cfg.GenesisTime
	if gt.IsZero() {
		gt = time.Now()
	}
	genesis := block.Info{
		Height:  1,
		Time:    uint64(gt.Unix()),
		ChainID: cfg.ChainID,
	}
	tx, cancel, err := h.kv.Tx()
	if err != nil {
		return err
	}
	defer cancel()

	c := store.NewCache(tx)
	err = setBlock(c, genesis)
	if err != nil {
		return err
	}
	err = c.Flush(tx, h.encrypt)
	if err != nil {
		return err
	}
	err = tx.Commit()
	if err != nil {
		return err
	}

	log.Infof("Genesis block written, chain %v", cfg.ChainID)

	return nil
}

// New returns a new hostbe. The provided codes are registered in order.
func New(kv store.KV, cfg Config, codes []modules.Code) (*hostbe, error) {
	if cfg.ChainID == "" {
		return nil, fmt.Errorf("chain id not provided")
	}

	h := hostbe{
		kv:      kv,
		encrypt: cfg.Encrypt,
		codes:   make(map[uint64]modules.Code, len(codes)),
	}
	for i, c := range codes {
		h.codes[uint64(i+1)] = c

		log.Infof("Registered code %v: %v", i+1, c.Name)
	}

	err := h.setup(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup: %v", err)
	}

	return &h, nil
}
