// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrShutdown is returned when a action is attempted against a store
	// that is shutdown.
	ErrShutdown = errors.New("store is shutdown")

	// ErrNotFound is returned when a key does not correspond to an entry.
	ErrNotFound = errors.New("not found")
)

// Entry is a key-value pair that is returned by a range query.
type Entry struct {
	Key   string
	Value []byte
}

// Query describes a range of keys. Start is inclusive and End is exclusive.
// An empty End means that the range is not bounded from above. Entries are
// returned in ascending key order unless Reverse is set. A Limit of zero
// returns all entries in the range.
type Query struct {
	Start   string
	End     string
	Reverse bool
	Limit   int
}

// contains returns whether the key falls within the query range.
func (q Query) contains(key string) bool {
	if key < q.Start {
		return false
	}
	if q.End != "" && key >= q.End {
		return false
	}
	return true
}

// Getter describes the read methods of a store.
type Getter interface {
	// Get returns the value for the provided key. ErrNotFound is
	// returned if the key does not correspond to an entry.
	Get(key string) ([]byte, error)

	// Range returns the entries that fall within the query range.
	Range(q Query) ([]Entry, error)
}

// Tx represents a store transaction.
type Tx interface {
	Getter

	// Put saves the provided key-value pairs to the store. Existing
	// entries are overwritten.
	Put(blobs map[string][]byte, encrypt bool) error

	// Del deletes the provided entries from the store. Keys that do
	// not correspond to an entry are ignored.
	Del(keys []string) error

	// Rollback aborts the transaction.
	Rollback() error

	// Commit commits the transaction.
	Commit() error
}

// KV is an ordered key-value store that supports transactions. It is the
// persistence layer of the module runtime.
type KV interface {
	Getter

	// Tx returns a new database transaction as well as the cancel
	// function that releases all resources associated with it. The
	// cancel function can be deferred and is a no-op once the tx has
	// been committed or rolled back.
	Tx() (Tx, func(), error)

	// Close closes the store connection.
	Close()
}

// KVStore is the store handed to modules. Writes are buffered by the caller
// and are only persisted when the operation that triggered them succeeds.
type KVStore interface {
	Getter

	// Set saves a value to the store.
	Set(key string, value []byte)

	// Delete deletes a value from the store.
	Delete(key string)
}

// GetJSON decodes the JSON value of the provided key into v.
func GetJSON(g Getter, key string, v interface{}) error {
	b, err := g.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// SetJSON saves the JSON encoding of v under the provided key.
func SetJSON(s KVStore, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Set(key, b)
	return nil
}

// Has returns whether the key corresponds to an entry.
func Has(g Getter, key string) (bool, error) {
	_, err := g.Get(key)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Uint64Key returns a key for the provided number that sorts in numerical
// order.
func Uint64Key(n uint64) string {
	return fmt.Sprintf("%020d", n)
}

// Join joins key segments using the key separator.
func Join(segments ...string) string {
	var k string
	for i, v := range segments {
		if i > 0 {
			k += Separator
		}
		k += v
	}
	return k
}

// Separator separates the segments of a composite key. It sorts below every
// printable character so that composite keys sort by their first segment.
const Separator = "\x00"

// PrefixEnd returns the smallest key that is greater than every key that
// starts with the provided prefix. An empty string is returned when no such
// key exists.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// PrefixQuery returns a query for every key that starts with the provided
// prefix.
func PrefixQuery(prefix string, reverse bool, limit int) Query {
	return Query{
		Start:   prefix,
		End:     PrefixEnd(prefix),
		Reverse: reverse,
		Limit:   limit,
	}
}

// Successor returns the smallest key that is greater than the provided key.
// It is used to start a range query after a key.
func Successor(key string) string {
	return key + "\x00"
}
