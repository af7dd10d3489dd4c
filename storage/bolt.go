package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruteri/native-vault/interfaces"
	"go.etcd.io/bbolt"
)

const stateBucket = "state"

// BoltStore is a KVStore backed by a BoltDB file. Every Update maps to one
// bbolt read-write transaction, so a failing request leaves the file untouched.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens or creates a BoltDB-backed store at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Update runs fn in a bbolt read-write transaction.
func (s *BoltStore) Update(ctx context.Context, fn func(tx interfaces.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{bucket: tx.Bucket([]byte(stateBucket)), writable: true})
	})
}

// View runs fn in a bbolt read-only transaction.
func (s *BoltStore) View(ctx context.Context, fn func(tx interfaces.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{bucket: tx.Bucket([]byte(stateBucket))})
	})
}

// Close closes the underlying BoltDB database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type boltTx struct {
	bucket   *bbolt.Bucket
	writable bool
}

func (tx *boltTx) Get(key []byte) ([]byte, error) {
	v := tx.bucket.Get(key)
	if v == nil {
		return nil, interfaces.ErrNotFound
	}
	// bbolt values are only valid for the lifetime of the transaction.
	return bytes.Clone(v), nil
}

func (tx *boltTx) Set(key, value []byte) error {
	if !tx.writable {
		return interfaces.ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	return tx.bucket.Put(key, value)
}

func (tx *boltTx) Delete(key []byte) error {
	if !tx.writable {
		return interfaces.ErrReadOnly
	}
	return tx.bucket.Delete(key)
}

func (tx *boltTx) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	type kv struct{ k, v []byte }
	var items []kv

	c := tx.bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		items = append(items, kv{bytes.Clone(k), bytes.Clone(v)})
	}

	// fn may write to the bucket, which would invalidate a live cursor.
	for _, item := range items {
		if err := fn(item.k, item.v); err != nil {
			return err
		}
	}
	return nil
}
