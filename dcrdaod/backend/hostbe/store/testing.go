// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"errors"
	"fmt"
)

// TestKV runs through a series of KV operations to verify that basic
// functionality of the KV implementation is working correctly.
//
// These are not unit tests. These are intended to be run against an actual
// database on initialization of a KV implementation, and by the unit tests
// of implementations that can run in memory.
func TestKV(kv KV) error {
	var (
		key = "testops-key"

		rangeKeys = []string{
			"testops-range-1",
			"testops-range-2",
			"testops-range-3",
		}

		value1 = []byte("value-1")
		value2 = []byte("value-2")
	)

	// Clear out any previous test data
	err := update(kv, func(tx Tx) error {
		return tx.Del(append([]string{key}, rangeKeys...))
	})
	if err != nil {
		return err
	}

	// Verify that the entry doesn't exist
	_, err = kv.Get(key)
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("got error %v, want %v", err, ErrNotFound)
	}

	// Rollback a put
	tx, cancel, err := kv.Tx()
	if err != nil {
		return err
	}
	err = tx.Put(map[string][]byte{key: value1}, false)
	if err != nil {
		cancel()
		return err
	}
	err = tx.Rollback()
	cancel()
	if err != nil {
		return err
	}
	_, err = kv.Get(key)
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("rollback: got error %v, want %v", err, ErrNotFound)
	}

	// Commit a put
	err = update(kv, func(tx Tx) error {
		return tx.Put(map[string][]byte{key: value1}, false)
	})
	if err != nil {
		return err
	}
	b, err := kv.Get(key)
	if err != nil {
		return err
	}
	if !bytes.Equal(b, value1) {
		return fmt.Errorf("got %s, want %s", b, value1)
	}

	// Overwrite the entry with an encrypted value
	err = update(kv, func(tx Tx) error {
		return tx.Put(map[string][]byte{key: value2}, true)
	})
	if err != nil {
		return err
	}
	b, err = kv.Get(key)
	if err != nil {
		return err
	}
	if !bytes.Equal(b, value2) {
		return fmt.Errorf("got %s, want %s", b, value2)
	}

	// Insert the range entries
	err = update(kv, func(tx Tx) error {
		blobs := make(map[string][]byte, len(rangeKeys))
		for _, v := range rangeKeys {
			blobs[v] = []byte(v)
		}
		return tx.Put(blobs, false)
	})
	if err != nil {
		return err
	}

	// Verify range ordering in both directions
	q := PrefixQuery("testops-range-", false, 0)
	err = verifyRange(kv, q, rangeKeys)
	if err != nil {
		return err
	}
	q.Reverse = true
	q.Limit = 2
	err = verifyRange(kv, q, []string{rangeKeys[2], rangeKeys[1]})
	if err != nil {
		return err
	}
	q = Query{Start: rangeKeys[1], End: rangeKeys[2]}
	err = verifyRange(kv, q, []string{rangeKeys[1]})
	if err != nil {
		return err
	}

	// Delete the entries
	err = update(kv, func(tx Tx) error {
		return tx.Del(append([]string{key}, rangeKeys...))
	})
	if err != nil {
		return err
	}
	_, err = kv.Get(key)
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("del: got error %v, want %v", err, ErrNotFound)
	}

	return nil
}

// update runs the provided function in a transaction and commits it.
func update(kv KV, fn func(Tx) error) error {
	tx, cancel, err := kv.Tx()
	if err != nil {
		return err
	}
	defer cancel()

	err = fn(tx)
	if err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("%v, unable to rollback: %v", err, err2)
		}
		return err
	}
	return tx.Commit()
}

// verifyRange verifies that the range query returns the provided keys in
// order.
func verifyRange(g Getter, q Query, keys []string) error {
	entries, err := g.Range(q)
	if err != nil {
		return err
	}
	if len(entries) != len(keys) {
		return fmt.Errorf("range %+v: got %v entries, want %v",
			q, len(entries), len(keys))
	}
	for i, v := range entries {
		if v.Key != keys[i] {
			return fmt.Errorf("range %+v: entry %v got %v, want %v",
				q, i, v.Key, keys[i])
		}
	}
	return nil
}

// emptyGetter is a Getter that does not contain any entries.
type emptyGetter struct{}

// Get always returns ErrNotFound.
func (emptyGetter) Get(key string) ([]byte, error) {
	return nil, ErrNotFound
}

// Range always returns no entries.
func (emptyGetter) Range(q Query) ([]Entry, error) {
	return []Entry{}, nil
}

// NewTestCache returns a cache that is not backed by a store. It is used to
// test module state helpers without a runtime.
func NewTestCache() *Cache {
	return NewCache(emptyGetter{})
}
