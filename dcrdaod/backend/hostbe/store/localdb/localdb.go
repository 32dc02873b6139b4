// Copyright (c) 2020-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
	"github.com/decred/dcrdao/util"
	"github.com/marcopeereboom/sbox"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	lutil "github.com/syndtr/goleveldb/leveldb/util"
)

const (
	// storeDirname contains the directory name that the leveldb
	// database will be saved to.
	storeDirname = "store"

	// encryptionKeyFilename is the filename of the encryption key that
	// is created in the store data directory.
	encryptionKeyFilename = "leveldb-sbox.key"
)

var (
	_ store.KV = (*localdb)(nil)
)

// localdb implements the store KV interface using leveldb.
//
// This implementation takes a very simple approach to implementing the store
// KV interface and the store Tx interface. All exported calls are locked
// against concurrent access. While this may not be the most performant
// approach, it is the simpliest way to implement a database transaction using
// leveldb.
//
// NOTE: the encryption techniques used may not be suitable for a production
// environment. A random secretbox encryption key is created on startup and
// saved to the app dir. Blobs are encrypted using random 24 byte nonces.
type localdb struct {
	sync.Mutex
	db       *leveldb.DB
	key      *[32]byte
	shutdown bool
}

// put saves the provided key-value pairs to the batch.
func (l *localdb) put(blobs map[string][]byte, encrypt bool, batch *leveldb.Batch) error {
	for k, v := range blobs {
		if encrypt {
			e, err := l.encrypt(v)
			if err != nil {
				return err
			}
			v = e
		}
		batch.Put([]byte(k), v)
	}
	return nil
}

// del deletes the provided keys in the batch.
func (l *localdb) del(keys []string, batch *leveldb.Batch) error {
	for _, v := range keys {
		batch.Delete([]byte(v))
	}
	return nil
}

// decode decrypts the blob if it is encrypted.
func (l *localdb) decode(b []byte) ([]byte, error) {
	encrypted := isEncrypted(b)
	if !encrypted {
		return b, nil
	}
	d, _, err := l.decrypt(b)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// get returns the blob for the provided key.
func (l *localdb) get(key string) ([]byte, error) {
	b, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return l.decode(b)
}

// rangeQuery returns the entries that fall within the query range.
func (l *localdb) rangeQuery(q store.Query) ([]store.Entry, error) {
	r := &lutil.Range{
		Start: []byte(q.Start),
	}
	if q.End != "" {
		r.Limit = []byte(q.End)
	}
	iter := l.db.NewIterator(r, nil)
	defer iter.Release()

	var (
		entries = make([]store.Entry, 0, 16)
		ok      bool
		next    func(iterator.Iterator) bool
	)
	if q.Reverse {
		ok = iter.Last()
		next = func(i iterator.Iterator) bool { return i.Prev() }
	} else {
		ok = iter.First()
		next = func(i iterator.Iterator) bool { return i.Next() }
	}
	for ; ok; ok = next(iter) {
		if q.Limit > 0 && len(entries) >= q.Limit {
			break
		}
		// The iterator reuses its buffers
		v := make([]byte, len(iter.Value()))
		copy(v, iter.Value())
		b, err := l.decode(v)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{
			Key:   string(iter.Key()),
			Value: b,
		})
	}
	err := iter.Error()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return entries, nil
}

// Get returns the blob for the provided key.
//
// This function satisfies the store Getter interface.
func (l *localdb) Get(key string) ([]byte, error) {
	log.Tracef("Get: %v", key)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return nil, store.ErrShutdown
	}

	return l.get(key)
}

// Range returns the entries that fall within the query range.
//
// This function satisfies the store Getter interface.
func (l *localdb) Range(q store.Query) ([]store.Entry, error) {
	log.Tracef("Range: %+v", q)

	l.Lock()
	defer l.Unlock()
	if l.shutdown {
		return nil, store.ErrShutdown
	}

	return l.rangeQuery(q)
}

// Tx returns a new database transaction as well as the cancel function that
// releases all resources associated with it.
//
// This function satisfies the store KV interface.
func (l *localdb) Tx() (store.Tx, func(), error) {
	log.Tracef("Tx")

	tx, cancel, err := newTx(l)
	if err != nil {
		return nil, nil, err
	}
	return tx, cancel, nil
}

// Close closes the store connection.
//
// This function satisfies the store KV interface.
func (l *localdb) Close() {
	log.Tracef("Close")

	l.Lock()
	defer l.Unlock()

	// Prevent any more localdb calls
	l.shutdown = true

	// Zero the encryption key
	util.Zero(l.key[:])

	// Close database
	l.db.Close()
}

// New returns a new localdb that is saved to the provided data dir. The
// encryption key is loaded from the app dir and created if it does not exist.
func New(appDir, dataDir string) (*localdb, error) {
	// Verify config options
	switch {
	case appDir == "":
		return nil, errors.Errorf("app dir not provided")
	case dataDir == "":
		return nil, errors.Errorf("data dir not provided")
	}

	// Setup leveldb data dir
	fp := filepath.Join(dataDir, storeDirname)
	err := os.MkdirAll(fp, 0700)
	if err != nil {
		return nil, err
	}

	// Open database
	db, err := leveldb.OpenFile(fp, nil)
	if err != nil {
		return nil, err
	}

	// Load encryption key
	keyFile := filepath.Join(appDir, encryptionKeyFilename)
	key, err := util.LoadEncryptionKey(log, keyFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("Store: leveldb %v", fp)

	return &localdb{
		db:  db,
		key: key,
	}, nil
}

// NewMemory returns a new localdb that is kept in memory. A random
// encryption key is used.
func NewMemory() (*localdb, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	key, err := sbox.NewKey()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &localdb{
		db:  db,
		key: key,
	}, nil
}
