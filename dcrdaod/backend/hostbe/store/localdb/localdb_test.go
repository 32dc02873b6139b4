// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package localdb

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/decred/dcrdao/dcrdaod/backend/hostbe/store"
)

func TestMemory(t *testing.T) {
	l, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	err = store.TestKV(l)
	if err != nil {
		t.Fatal(err)
	}
}

func TestEncryptedAtRest(t *testing.T) {
	l, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	tx, cancel, err := l.Tx()
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()
	err = tx.Put(map[string][]byte{"key": []byte("secret")}, true)
	if err != nil {
		t.Fatal(err)
	}
	err = tx.Commit()
	if err != nil {
		t.Fatal(err)
	}

	// The raw value is encrypted
	raw, err := l.db.Get([]byte("key"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !isEncrypted(raw) {
		t.Fatalf("value is not encrypted")
	}

	// The store returns the cleartext
	b, err := l.Get("key")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte("secret")) {
		t.Fatalf("got %s, want secret", b)
	}
}

func TestShutdown(t *testing.T) {
	l, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	_, err = l.Get("key")
	if !errors.Is(err, store.ErrShutdown) {
		t.Errorf("got %v, want %v", err, store.ErrShutdown)
	}
	_, _, err = l.Tx()
	if !errors.Is(err, store.ErrShutdown) {
		t.Errorf("got %v, want %v", err, store.ErrShutdown)
	}
}

func TestNew(t *testing.T) {
	dir, err := os.MkdirTemp("", "localdb")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	l, err := New(dir, dir)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	err = store.TestKV(l)
	if err != nil {
		t.Fatal(err)
	}
}
