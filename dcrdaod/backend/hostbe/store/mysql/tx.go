// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
)

var (
	_ store.Tx = (*sqlTx)(nil)
)

// sqlTx implements the store Tx interface using a sql transaction.
type sqlTx struct {
	mysql *mysql
	ctx   context.Context
	tx    *sql.Tx
}

// Put saves the provided key-value pairs to the store.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Tx Put: %v blobs", len(blobs))

	return s.mysql.put(s.ctx, s.tx, blobs, encrypt)
}

// Del deletes entries from the store.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Del(keys []string) error {
	log.Tracef("Tx Del: %v", keys)

	return s.mysql.del(s.ctx, s.tx, keys)
}

// Get returns the blob for the provided key.
//
// This function satisfies the store Getter interface.
func (s *sqlTx) Get(key string) ([]byte, error) {
	return s.mysql.get(s.ctx, s.tx, key)
}

// Range returns the entries that fall within the query range.
//
// This function satisfies the store Getter interface.
func (s *sqlTx) Range(q store.Query) ([]store.Entry, error) {
	return s.mysql.rangeQuery(s.ctx, s.tx, q)
}

// Rollback aborts the transaction.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Rollback() error {
	return s.tx.Rollback()
}

// Commit commits the transaction.
//
// This function satisfies the store Tx interface.
func (s *sqlTx) Commit() error {
	return s.tx.Commit()
}

// beginTx starts a sql transaction. The returned cancel function cancels the
// transaction context, which rolls back the transaction if it has not been
// committed.
func (s *mysql) beginTx() (context.Context, *sql.Tx, func(), error) {
	ctx, cancel := ctxWithTimeout()

	opts := &sql.TxOptions{
		Isolation: sql.LevelDefault,
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	return ctx, tx, cancel, nil
}

// Tx returns a new database transaction as well as the cancel function that
// releases all resources associated with it.
//
// This function satisfies the store KV interface.
func (s *mysql) Tx() (store.Tx, func(), error) {
	if s.isShutdown() {
		return nil, nil, store.ErrShutdown
	}

	ctx, tx, cancel, err := s.beginTx()
	if err != nil {
		return nil, nil, err
	}

	return &sqlTx{
		mysql: s,
		ctx:   ctx,
		tx:    tx,
	}, cancel, nil
}
