// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"sort"
)

var (
	_ KVStore = (*Cache)(nil)
	_ KVStore = (*prefixStore)(nil)
)

// Cache is a write overlay on top of a Getter. Reads fall through to the
// parent when the cache does not contain the key. Writes are buffered until
// the cache is written to its parent cache or flushed into a store
// transaction. A cache that is discarded leaves no trace in its parent.
//
// Caches are not safe for concurrent use.
type Cache struct {
	parent Getter
	writes map[string][]byte // nil value is a deletion
}

// NewCache returns a new Cache on top of the provided parent.
func NewCache(parent Getter) *Cache {
	return &Cache{
		parent: parent,
		writes: make(map[string][]byte),
	}
}

// Branch returns a child cache on top of this cache.
func (c *Cache) Branch() *Cache {
	return NewCache(c)
}

// Get returns the value for the provided key.
//
// This function satisfies the Getter interface.
func (c *Cache) Get(key string) ([]byte, error) {
	v, ok := c.writes[key]
	if ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return v, nil
	}
	return c.parent.Get(key)
}

// Range returns the entries that fall within the query range, merging the
// buffered writes with the parent's entries.
//
// This function satisfies the Getter interface.
func (c *Cache) Range(q Query) ([]Entry, error) {
	// Buffered deletions may hide parent entries so the limit can
	// only be applied after the merge.
	pq := q
	pq.Limit = 0
	pq.Reverse = false
	entries, err := c.parent.Range(pq)
	if err != nil {
		return nil, err
	}

	merged := make(map[string][]byte, len(entries)+len(c.writes))
	for _, v := range entries {
		merged[v.Key] = v.Value
	}
	for k, v := range c.writes {
		if !q.contains(k) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	if q.Reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}
	if q.Limit > 0 && len(keys) > q.Limit {
		keys = keys[:q.Limit]
	}

	reply := make([]Entry, 0, len(keys))
	for _, k := range keys {
		reply = append(reply, Entry{Key: k, Value: merged[k]})
	}
	return reply, nil
}

// Set buffers a write.
//
// This function satisfies the KVStore interface.
func (c *Cache) Set(key string, value []byte) {
	if value == nil {
		value = []byte{}
	}
	c.writes[key] = value
}

// Delete buffers a deletion.
//
// This function satisfies the KVStore interface.
func (c *Cache) Delete(key string) {
	c.writes[key] = nil
}

// Len returns the number of buffered writes.
func (c *Cache) Len() int {
	return len(c.writes)
}

// Write writes the buffered writes into the parent cache and resets this
// cache. It panics if the parent is not a cache.
func (c *Cache) Write() {
	p := c.parent.(*Cache)
	for k, v := range c.writes {
		p.writes[k] = v
	}
	c.writes = make(map[string][]byte)
}

// Flush writes the buffered writes into the provided store transaction and
// resets this cache.
func (c *Cache) Flush(tx Tx, encrypt bool) error {
	var (
		put = make(map[string][]byte, len(c.writes))
		del = make([]string, 0, len(c.writes))
	)
	for k, v := range c.writes {
		if v == nil {
			del = append(del, k)
			continue
		}
		put[k] = v
	}
	sort.Strings(del)

	log.Tracef("Flush: %v puts, %v dels", len(put), len(del))

	if len(put) > 0 {
		err := tx.Put(put, encrypt)
		if err != nil {
			return err
		}
	}
	if len(del) > 0 {
		err := tx.Del(del)
		if err != nil {
			return err
		}
	}

	c.writes = make(map[string][]byte)
	return nil
}

// prefixStore namespaces all keys of a KVStore.
type prefixStore struct {
	parent KVStore
	prefix string
}

// Prefix returns a KVStore that prefixes every key with the provided prefix.
// Keys that are returned by Range have the prefix stripped.
func Prefix(parent KVStore, prefix string) KVStore {
	return &prefixStore{
		parent: parent,
		prefix: prefix,
	}
}

// Get satisfies the Getter interface.
func (p *prefixStore) Get(key string) ([]byte, error) {
	return p.parent.Get(p.prefix + key)
}

// Range satisfies the Getter interface.
func (p *prefixStore) Range(q Query) ([]Entry, error) {
	pq := Query{
		Start:   p.prefix + q.Start,
		End:     p.prefix + q.End,
		Reverse: q.Reverse,
		Limit:   q.Limit,
	}
	if q.End == "" {
		pq.End = PrefixEnd(p.prefix)
	}
	entries, err := p.parent.Range(pq)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Key = entries[i].Key[len(p.prefix):]
	}
	return entries, nil
}

// Set satisfies the KVStore interface.
func (p *prefixStore) Set(key string, value []byte) {
	p.parent.Set(p.prefix+key, value)
}

// Delete satisfies the KVStore interface.
func (p *prefixStore) Delete(key string) {
	p.parent.Delete(p.prefix + key)
}
