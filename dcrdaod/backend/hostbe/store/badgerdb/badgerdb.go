// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package badgerdb

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/util"
	"github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/pkg/errors"
)

const (
	// storeDirname contains the directory name that the badger database
	// will be saved to.
	storeDirname = "badger"

	// encryptionKeyFilename is the filename of the encryption key that
	// is created in the app dir.
	encryptionKeyFilename = "badger-aes.key"

	// indexCacheSize is the size of the index cache. Badger requires an
	// index cache when encryption is enabled.
	indexCacheSize = 64 << 20
)

var (
	_ store.KV = (*badgerdb)(nil)
	_ store.Tx = (*tx)(nil)
)

// badgerdb implements the store KV interface using badger.
//
// Badger provides serializable snapshot isolation transactions and encryption
// at rest. When an encryption key is configured every value is encrypted by
// badger, so the encrypt flag of Put has no additional effect.
type badgerdb struct {
	shutdown uint64
	db       *badger.DB
}

func (b *badgerdb) isShutdown() bool {
	return atomic.LoadUint64(&b.shutdown) != 0
}

// get returns the value for the provided key using the provided badger
// transaction.
func get(txn *badger.Txn, key string) ([]byte, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, pkgerrors.WithStack(err)
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return nil, pkgerrors.WithStack(err)
	}
	return v, nil
}

// rangeQuery returns the entries that fall within the query range using the
// provided badger transaction.
func rangeQuery(txn *badger.Txn, q store.Query) ([]store.Entry, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = q.Reverse
	if q.Limit > 0 && q.Limit < opts.PrefetchSize {
		opts.PrefetchSize = q.Limit
	}
	it := txn.NewIterator(opts)
	defer it.Close()

	// A reverse seek positions the iterator at the largest key that is
	// less than or equal to the seek key. The end key itself is
	// excluded below.
	var seek []byte
	switch {
	case !q.Reverse:
		seek = []byte(q.Start)
	case q.End != "":
		seek = []byte(q.End)
	default:
		// Unbounded reverse iteration starts after the largest
		// possible key.
		seek = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	}

	entries := make([]store.Entry, 0, 16)
	for it.Seek(seek); it.Valid(); it.Next() {
		item := it.Item()
		k := string(item.KeyCopy(nil))
		if q.Reverse {
			if q.End != "" && k >= q.End {
				continue
			}
			if k < q.Start {
				break
			}
		} else if q.End != "" && k >= q.End {
			break
		}
		if q.Limit > 0 && len(entries) >= q.Limit {
			break
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return nil, pkgerrors.WithStack(err)
		}
		entries = append(entries, store.Entry{Key: k, Value: v})
	}

	return entries, nil
}

// Get returns the value for the provided key.
//
// This function satisfies the store Getter interface.
func (b *badgerdb) Get(key string) ([]byte, error) {
	log.Tracef("Get: %v", key)

	if b.isShutdown() {
		return nil, store.ErrShutdown
	}

	var v []byte
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		v, err = get(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Range returns the entries that fall within the query range.
//
// This function satisfies the store Getter interface.
func (b *badgerdb) Range(q store.Query) ([]store.Entry, error) {
	log.Tracef("Range: %+v", q)

	if b.isShutdown() {
		return nil, store.ErrShutdown
	}

	var entries []store.Entry
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		entries, err = rangeQuery(txn, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Tx returns a new database transaction as well as the cancel function that
// releases all resources associated with it.
//
// This function satisfies the store KV interface.
func (b *badgerdb) Tx() (store.Tx, func(), error) {
	log.Tracef("Tx")

	if b.isShutdown() {
		return nil, nil, store.ErrShutdown
	}

	txn := b.db.NewTransaction(true)
	return &tx{txn: txn}, txn.Discard, nil
}

// Close closes the store connection.
//
// This function satisfies the store KV interface.
func (b *badgerdb) Close() {
	log.Tracef("Close")

	atomic.AddUint64(&b.shutdown, 1)

	err := b.db.Close()
	if err != nil {
		log.Errorf("Close: %v", err)
	}
}

// tx implements the store Tx interface using a badger transaction. Unlike
// the leveldb implementation, reads observe the tx's own writes.
type tx struct {
	txn *badger.Txn
}

// Put saves the provided key-value pairs to the store.
//
// This function satisfies the store Tx interface.
func (t *tx) Put(blobs map[string][]byte, encrypt bool) error {
	log.Tracef("Tx Put: %v blobs", len(blobs))

	for k, v := range blobs {
		err := t.txn.Set([]byte(k), v)
		if err != nil {
			return pkgerrors.WithStack(err)
		}
	}
	return nil
}

// Del deletes the provided entries from the store.
//
// This function satisfies the store Tx interface.
func (t *tx) Del(keys []string) error {
	log.Tracef("Tx Del: %v", keys)

	for _, k := range keys {
		err := t.txn.Delete([]byte(k))
		if err != nil {
			return pkgerrors.WithStack(err)
		}
	}
	return nil
}

// Get satisfies the store Getter interface.
func (t *tx) Get(key string) ([]byte, error) {
	return get(t.txn, key)
}

// Range satisfies the store Getter interface.
func (t *tx) Range(q store.Query) ([]store.Entry, error) {
	return rangeQuery(t.txn, q)
}

// Rollback aborts the transaction.
//
// This function satisfies the store Tx interface.
func (t *tx) Rollback() error {
	t.txn.Discard()

	log.Debugf("Tx rolled back")

	return nil
}

// Commit commits the transaction.
//
// This function satisfies the store Tx interface.
func (t *tx) Commit() error {
	err := t.txn.Commit()
	if err != nil {
		return pkgerrors.WithStack(err)
	}

	log.Debugf("Tx committed")

	return nil
}

// open opens a badger database using the provided options.
func open(opts badger.Options) (*badgerdb, error) {
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerdb{
		db: db,
	}, nil
}

// New returns a new badgerdb that is saved to the provided data dir. When
// encrypt is set the database is encrypted using a key that is loaded from
// the app dir and created if it does not exist.
func New(appDir, dataDir string, encrypt bool) (*badgerdb, error) {
	switch {
	case appDir == "":
		return nil, pkgerrors.Errorf("app dir not provided")
	case dataDir == "":
		return nil, pkgerrors.Errorf("data dir not provided")
	}

	fp := filepath.Join(dataDir, storeDirname)
	err := os.MkdirAll(fp, 0700)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(fp)
	if encrypt {
		keyFile := filepath.Join(appDir, encryptionKeyFilename)
		key, err := util.LoadEncryptionKey(log, keyFile)
		if err != nil {
			return nil, err
		}
		opts = opts.WithEncryptionKey(key[:]).
			WithIndexCacheSize(indexCacheSize)
	}

	log.Infof("Store: badger %v", fp)

	return open(opts)
}

// NewMemory returns a new badgerdb that is kept in memory.
func NewMemory() (*badgerdb, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}
