package storage

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ruteri/native-vault/interfaces"
)

// ErrClosed is returned when a transaction is started on a closed store.
var ErrClosed = errors.New("store is closed")

// MemoryStore is an in-process KVStore. Writes made inside Update are staged
// and applied only when the transaction function returns nil.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Update runs fn in a read-write transaction.
func (s *MemoryStore) Update(ctx context.Context, fn func(tx interfaces.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memoryTx{base: s.data, staged: make(map[string][]byte), writable: true}
	if err := fn(tx); err != nil {
		return err
	}

	for k, v := range tx.staged {
		if v == nil {
			delete(s.data, k)
		} else {
			s.data[k] = v
		}
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *MemoryStore) View(ctx context.Context, fn func(tx interfaces.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	return fn(&memoryTx{base: s.data})
}

// Close releases the store. Later transactions fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memoryTx overlays staged writes on the committed map. A nil staged value marks a deletion.
type memoryTx struct {
	base     map[string][]byte
	staged   map[string][]byte
	writable bool
}

func (tx *memoryTx) Get(key []byte) ([]byte, error) {
	k := string(key)
	if v, ok := tx.staged[k]; ok {
		if v == nil {
			return nil, interfaces.ErrNotFound
		}
		return bytes.Clone(v), nil
	}
	if v, ok := tx.base[k]; ok {
		return bytes.Clone(v), nil
	}
	return nil, interfaces.ErrNotFound
}

func (tx *memoryTx) Set(key, value []byte) error {
	if !tx.writable {
		return interfaces.ErrReadOnly
	}
	v := make([]byte, len(value))
	copy(v, value)
	tx.staged[string(key)] = v
	return nil
}

func (tx *memoryTx) Delete(key []byte) error {
	if !tx.writable {
		return interfaces.ErrReadOnly
	}
	tx.staged[string(key)] = nil
	return nil
}

func (tx *memoryTx) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	keys := make(map[string]struct{})
	for k := range tx.base {
		if strings.HasPrefix(k, p) {
			keys[k] = struct{}{}
		}
	}
	for k := range tx.staged {
		if strings.HasPrefix(k, p) {
			keys[k] = struct{}{}
		}
	}

	for _, k := range slices.Sorted(maps.Keys(keys)) {
		v, err := tx.Get([]byte(k))
		if errors.Is(err, interfaces.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}
