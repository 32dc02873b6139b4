// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"sync"

	"github.com/decred/dcrdao/dcrdaod/backend"
	"github.com/decred/dcrdao/dcrdaod/block"
	"github.com/robfig/cron"
)

// blockClock produces blocks on a cron schedule. Every produced block
// advances the height by one and the block time by a fixed number of
// seconds.
type blockClock struct {
	sync.Mutex
	backend backend.Backend
	seconds uint64
	onBlock func(block.Info)
	cron    *cron.Cron
}

// newBlockClock returns a new block clock. The onBlock callback may be nil.
func newBlockClock(b backend.Backend, seconds uint64, onBlock func(block.Info)) *blockClock {
	return &blockClock{
		backend: b,
		seconds: seconds,
		onBlock: onBlock,
		cron:    cron.New(),
	}
}

// tick produces a single block. Ticks are serialized so that a slow store
// can not produce overlapping blocks.
func (c *blockClock) tick() (*block.Info, error) {
	c.Lock()
	defer c.Unlock()

	b, err := c.backend.AdvanceBlock(1, c.seconds)
	if err != nil {
		return nil, err
	}
	if c.onBlock != nil {
		c.onBlock(*b)
	}
	return b, nil
}

// start launches the clock with the provided cron schedule.
func (c *blockClock) start(schedule string) error {
	err := c.cron.AddFunc(schedule, func() {
		b, err := c.tick()
		if err != nil {
			log.Errorf("block clock: %v", err)
			return
		}
		log.Tracef("Block %v time %v", b.Height, b.Time)
	})
	if err != nil {
		return err
	}
	c.cron.Start()

	log.Infof("Block clock: %v, %v seconds per block", schedule, c.seconds)

	return nil
}

// stop stops the clock. A tick that is in progress is allowed to finish.
func (c *blockClock) stop() {
	c.cron.Stop()

	// Wait for a running tick
	c.Lock()
	defer c.Unlock()
}
