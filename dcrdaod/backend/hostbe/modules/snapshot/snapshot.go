// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package snapshot provides a map of amounts that remembers the value of
// every key at every block height. It backs the voting power of the voting
// modules.
//
// A value that is saved during block h is written as a checkpoint at height
// h+1. A lookup at height H returns the checkpoint with the greatest height
// that is not above H. This makes the value at a height final once the block
// at that height has started.
package snapshot

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/dcrdaod/numeric"
)

const (
	prefixLatest     = "/latest/"
	prefixCheckpoint = "/cp/"
)

// Map is a snapshotted map of amounts. Keys must not contain the store key
// separator.
type Map struct {
	ns string
}

// New returns the map that is saved under the provided namespace.
func New(namespace string) Map {
	return Map{ns: namespace}
}

// Entry is a key and its latest value.
type Entry struct {
	Key   string
	Value numeric.Uint128
}

func (m Map) latestPrefix() string {
	return m.ns + prefixLatest
}

func (m Map) latestKey(key string) string {
	return m.latestPrefix() + key
}

func (m Map) checkpointPrefix(key string) string {
	return m.ns + prefixCheckpoint + key + store.Separator
}

func (m Map) checkpointKey(key string, height uint64) string {
	return m.checkpointPrefix(key) + store.Uint64Key(height)
}

func decode(b []byte) (numeric.Uint128, error) {
	var v numeric.Uint128
	err := json.Unmarshal(b, &v)
	if err != nil {
		return numeric.Uint128{}, err
	}
	return v, nil
}

// Load returns the latest value of a key. The value of unknown keys is zero.
func (m Map) Load(g store.Getter, key string) (numeric.Uint128, error) {
	b, err := g.Get(m.latestKey(key))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return numeric.Uint128{}, nil
	case err != nil:
		return numeric.Uint128{}, err
	}
	return decode(b)
}

// LoadAtHeight returns the value of a key at the start of the block at the
// provided height.
func (m Map) LoadAtHeight(g store.Getter, key string, height uint64) (numeric.Uint128, error) {
	q := store.Query{
		Start:   m.checkpointPrefix(key),
		Reverse: true,
		Limit:   1,
	}
	if height == math.MaxUint64 {
		q.End = store.PrefixEnd(q.Start)
	} else {
		q.End = m.checkpointKey(key, height+1)
	}
	entries, err := g.Range(q)
	if err != nil {
		return numeric.Uint128{}, err
	}
	if len(entries) == 0 {
		return numeric.Uint128{}, nil
	}
	return decode(entries[0].Value)
}

// Save saves the value of a key during the block at the provided height. Zero
// values are removed from the latest values but are still checkpointed.
func (m Map) Save(s store.KVStore, key string, v numeric.Uint128, height uint64) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	// The checkpoint height saturates so that it never wraps to zero.
	cp := height
	if cp < math.MaxUint64 {
		cp++
	}
	s.Set(m.checkpointKey(key, cp), b)
	if v.IsZero() {
		s.Delete(m.latestKey(key))
		return nil
	}
	s.Set(m.latestKey(key), b)
	return nil
}

// Update applies fn to the latest value of a key and saves the result.
func (m Map) Update(s store.KVStore, key string, height uint64, fn func(numeric.Uint128) (numeric.Uint128, error)) (numeric.Uint128, error) {
	v, err := m.Load(s, key)
	if err != nil {
		return numeric.Uint128{}, err
	}
	v, err = fn(v)
	if err != nil {
		return numeric.Uint128{}, err
	}
	return v, m.Save(s, key, v, height)
}

// List returns the keys with a non-zero latest value in ascending order,
// starting after the provided key. A limit of zero returns all keys.
func (m Map) List(g store.Getter, startAfter string, limit int) ([]Entry, error) {
	prefix := m.latestPrefix()
	q := store.PrefixQuery(prefix, false, limit)
	if startAfter != "" {
		q.Start = store.Successor(prefix + startAfter)
	}
	entries, err := g.Range(q)
	if err != nil {
		return nil, err
	}
	reply := make([]Entry, 0, len(entries))
	for _, e := range entries {
		v, err := decode(e.Value)
		if err != nil {
			return nil, err
		}
		reply = append(reply, Entry{
			Key:   strings.TrimPrefix(e.Key, prefix),
			Value: v,
		})
	}
	return reply, nil
}
