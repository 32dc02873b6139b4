// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	_ store.Tx = (*tx)(nil)
)

// tx implements the store Tx interface using leveldb.
//
// leveldb does not support transactions, but we are able to implement our own
// transaction by locking against concurrent access on transaction
// initialization then using leveldb's atomic batch writes to put/del data when
// the caller commits the transaction. The lock is not released until the
// transaction is committed, rolled back, or canceled.
//
// Reads performed with the tx do not observe the tx's own writes.
type tx struct {
	localdb *localdb
	batch   *leveldb.Batch

	// The cancel function starts off as a function that releases the
	// localdb lock when invoked. Once the tx has been committed or
	// rolled back it is replaced with an empty function so that a
	// deferred invocation does not unlock an unlocked mutex.
	cancel func()
}

// newTx returns a new localdb tx and the cancel function that releases all
// resources associated with the tx.
func newTx(localdb *localdb) (*tx, func(), error) {
	// There is no way to perform a transaction on leveldb so we must
	// hold the lock for the duration of the tx. The lock is released
	// on commit, on rollback or when the cancel function is invoked.
	localdb.Lock()
	if localdb.shutdown {
		localdb.Unlock()
		return nil, nil, store.ErrShutdown
	}

	t := &tx{
		localdb: localdb,
		batch:   new(leveldb.Batch),
		cancel: func() {
			localdb.Unlock()
		},
	}

	return t, func() {
		t.cancel()
	}, nil
}

// done releases the lock and disables the cancel function.
func (t *tx) done() {
	t.localdb.Unlock()
	t.cancel = func() {}
}

// Put saves the provided key-value pairs to the store.
//
// This function satisfies the store Tx interface.
func (t *tx) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Tx Put: %v blobs", len(blobs))

	return t.localdb.put(blobs, encrypt, t.batch)
}

// Del deletes the provided blobs from the store.
//
// This function satisfies the store Tx interface.
func (t *tx) Del(keys []string) error {
	log.Tracef("Tx Del: %v", keys)

	return t.localdb.del(keys, t.batch)
}

// Get returns the blob for the provided key.
//
// This function satisfies the store Getter interface.
func (t *tx) Get(key string) ([]byte, error) {
	log.Tracef("Tx Get: %v", key)

	return t.localdb.get(key)
}

// Range returns the entries that fall within the query range.
//
// This function satisfies the store Getter interface.
func (t *tx) Range(q store.Query) ([]store.Entry, error) {
	log.Tracef("Tx Range: %+v", q)

	return t.localdb.rangeQuery(q)
}

// Rollback aborts the transaction.
//
// This function satisfies the store Tx interface.
func (t *tx) Rollback() error {
	// The only thing that needs to happen on rollback is the lock
	// being released. There are no leveldb resources that need to
	// be released.
	t.done()

	log.Debugf("Tx rolled back")

	return nil
}

// Commit commits the transaction.
//
// This function satisfies the store Tx interface.
func (t *tx) Commit() error {
	// Write the transaction operations to disk
	err := t.localdb.db.Write(t.batch, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	t.done()

	log.Debugf("Tx committed %v ops", t.batch.Len())

	return nil
}
