// Copyright (c) 2020-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/util"

	_ "github.com/go-sql-driver/mysql"
)

const (
	// Database options
	connTimeout     = 1 * time.Minute
	connMaxLifetime = 1 * time.Minute
	maxOpenConns    = 0 // 0 is unlimited
	maxIdleConns    = 100

	// Database table names
	tableNameKeyValue = "kv"
	tableNameNonce    = "nonce"
)

// tableKeyValue defines the key-value table. The binary collation makes the
// key ordering match the byte ordering of the other store implementations.
const tableKeyValue = `
  k VARBINARY(255) NOT NULL PRIMARY KEY,
  v LONGBLOB NOT NULL
`

// tableNonce defines the table used to track the encryption nonce.
const tableNonce = `
  n BIGINT PRIMARY KEY AUTO_INCREMENT
`

var (
	_ store.KV = (*mysql)(nil)
)

// querier is satisfied by both a sql DB and a sql Tx.
type querier interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// mysql implements the store KV interface using a mysql driver.
type mysql struct {
	shutdown uint64
	db       *sql.DB
	getNonce func(context.Context, *sql.Tx) ([24]byte, error)
	key      [32]byte
}

func ctxWithTimeout() (context.Context, func()) {
	return context.WithTimeout(context.Background(), connTimeout)
}

func (s *mysql) isShutdown() bool {
	return atomic.LoadUint64(&s.shutdown) != 0
}

// put saves the provided key-value pairs using the provided transaction.
func (s *mysql) put(ctx context.Context, tx *sql.Tx, blobs map[string][]byte, encrypt bool) error {
	// Sort the keys so that the statements are executed in a
	// deterministic order.
	keys := make([]string, 0, len(blobs))
	for k := range blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := blobs[k]
		if encrypt {
			e, err := s.encrypt(ctx, tx, v)
			if err != nil {
				return fmt.Errorf("encrypt: %v", err)
			}
			v = e
		}
		_, err := tx.ExecContext(ctx, queryPut, k, v)
		if err != nil {
			return fmt.Errorf("exec put: %v", err)
		}
	}

	return nil
}

// del deletes the provided keys using the provided transaction.
func (s *mysql) del(ctx context.Context, tx *sql.Tx, keys []string) error {
	for _, v := range keys {
		_, err := tx.ExecContext(ctx, queryDel, v)
		if err != nil {
			return fmt.Errorf("exec del: %v", err)
		}
	}
	return nil
}

// decode decrypts the blob if it is encrypted.
func (s *mysql) decode(b []byte) ([]byte, error) {
	encrypted := isEncrypted(b)
	if !encrypted {
		return b, nil
	}
	d, _, err := s.decrypt(b)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %v", err)
	}
	return d, nil
}

// get returns the blob for the provided key.
func (s *mysql) get(ctx context.Context, q querier, key string) ([]byte, error) {
	var b []byte
	err := q.QueryRowContext(ctx, queryGet, key).Scan(&b)
	switch {
	case err == sql.ErrNoRows:
		return nil, store.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("query: %v", err)
	}
	return s.decode(b)
}

// rangeQuery returns the entries that fall within the query range.
func (s *mysql) rangeQuery(ctx context.Context, q querier, r store.Query) ([]store.Entry, error) {
	query, args := buildRangeQuery(r)

	log.Tracef("%v", query)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %v", err)
	}
	defer rows.Close()

	entries := make([]store.Entry, 0, 16)
	for rows.Next() {
		var (
			k string
			v []byte
		)
		err = rows.Scan(&k, &v)
		if err != nil {
			return nil, fmt.Errorf("scan: %v", err)
		}
		v, err = s.decode(v)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{Key: k, Value: v})
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("next: %v", err)
	}

	return entries, nil
}

// Get returns the blob for the provided key.
//
// This function satisfies the store Getter interface.
func (s *mysql) Get(key string) ([]byte, error) {
	log.Tracef("Get: %v", key)

	if s.isShutdown() {
		return nil, store.ErrShutdown
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()

	return s.get(ctx, s.db, key)
}

// Range returns the entries that fall within the query range.
//
// This function satisfies the store Getter interface.
func (s *mysql) Range(q store.Query) ([]store.Entry, error) {
	log.Tracef("Range: %+v", q)

	if s.isShutdown() {
		return nil, store.ErrShutdown
	}

	ctx, cancel := ctxWithTimeout()
	defer cancel()

	return s.rangeQuery(ctx, s.db, q)
}

// Close closes the store connection.
//
// This function satisfies the store KV interface.
func (s *mysql) Close() {
	log.Tracef("Close")

	atomic.AddUint64(&s.shutdown, 1)

	// Zero the encryption key
	util.Zero(s.key[:])

	// Close mysql connection
	s.db.Close()
}

// New connects to the provided mysql database, sets up the tables and derives
// the encryption key from the password.
func New(host, user, password, dbname string) (*mysql, error) {
	// The password is required to derive the encryption key
	if password == "" {
		return nil, fmt.Errorf("password not provided")
	}

	// Connect to database
	log.Infof("MySQL host: %v:[password]@tcp(%v)/%v", user, host, dbname)

	h := fmt.Sprintf("%v:%v@tcp(%v)/%v", user, password, host, dbname)
	db, err := sql.Open("mysql", h)
	if err != nil {
		return nil, err
	}

	// Setup database options
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	// Verify database connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("db ping: %v", err)
	}

	// Setup key-value table
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v (%v)`,
		tableNameKeyValue, tableKeyValue)
	_, err = db.Exec(q)
	if err != nil {
		return nil, fmt.Errorf("create kv table: %v", err)
	}

	// Setup nonce table
	q = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v (%v)`,
		tableNameNonce, tableNonce)
	_, err = db.Exec(q)
	if err != nil {
		return nil, fmt.Errorf("create nonce table: %v", err)
	}

	// Setup mysql context
	s := &mysql{
		db: db,
	}
	s.getNonce = s.getDbNonce

	// Derive encryption key from password
	err = s.deriveEncryptionKey(password)
	if err != nil {
		return nil, fmt.Errorf("deriveEncryptionKey: %v", err)
	}

	return s, nil
}
