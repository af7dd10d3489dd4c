package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ruteri/native-vault/interfaces"
)

// Item is a JSON-encoded singleton stored under a fixed key.
type Item[T any] struct {
	key []byte
}

// NewItem declares a singleton stored under key.
func NewItem[T any](key string) Item[T] {
	return Item[T]{key: []byte(key)}
}

// Load decodes the item. It returns an error wrapping interfaces.ErrNotFound if unset.
func (i Item[T]) Load(tx interfaces.KVTx) (T, error) {
	var v T
	raw, err := tx.Get(i.key)
	if err != nil {
		return v, fmt.Errorf("load %s: %w", i.key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", i.key, err)
	}
	return v, nil
}

// Save encodes and stores the item.
func (i Item[T]) Save(tx interfaces.KVTx, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", i.key, err)
	}
	return tx.Set(i.key, raw)
}

// Map is a JSON-encoded string-keyed map. Keys iterate in ascending byte order.
type Map[T any] struct {
	name   string
	prefix []byte
}

// NewMap declares a map under the given namespace.
func NewMap[T any](namespace string) Map[T] {
	return Map[T]{name: namespace, prefix: namespaceKey(namespace)}
}

func (m Map[T]) key(k string) []byte {
	full := make([]byte, 0, len(m.prefix)+len(k))
	return append(append(full, m.prefix...), k...)
}

// Load decodes the value under key. It returns an error wrapping interfaces.ErrNotFound if absent.
func (m Map[T]) Load(tx interfaces.KVTx, key string) (T, error) {
	var v T
	raw, err := tx.Get(m.key(key))
	if err != nil {
		return v, fmt.Errorf("load %s[%s]: %w", m.name, key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decode %s[%s]: %w", m.name, key, err)
	}
	return v, nil
}

// Has reports whether key is present.
func (m Map[T]) Has(tx interfaces.KVTx, key string) (bool, error) {
	_, err := tx.Get(m.key(key))
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Save encodes and stores v under key.
func (m Map[T]) Save(tx interfaces.KVTx, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s[%s]: %w", m.name, key, err)
	}
	return tx.Set(m.key(key), raw)
}

// Remove deletes key.
func (m Map[T]) Remove(tx interfaces.KVTx, key string) error {
	return tx.Delete(m.key(key))
}

// Range visits entries in ascending key order.
func (m Map[T]) Range(tx interfaces.KVTx, fn func(key string, v T) error) error {
	n := len(m.prefix)
	return tx.Iterate(m.prefix, func(k, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s[%s]: %w", m.name, k[n:], err)
		}
		return fn(string(k[n:]), v)
	})
}

// Keys returns all keys in ascending order.
func (m Map[T]) Keys(tx interfaces.KVTx) ([]string, error) {
	keys := []string{}
	n := len(m.prefix)
	err := tx.Iterate(m.prefix, func(k, _ []byte) error {
		keys = append(keys, string(k[n:]))
		return nil
	})
	return keys, err
}

// RangePrefix visits entries whose key starts with keyPrefix, in ascending key order.
func (m Map[T]) RangePrefix(tx interfaces.KVTx, keyPrefix string, fn func(key string, v T) error) error {
	n := len(m.prefix)
	return tx.Iterate(m.key(keyPrefix), func(k, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode %s[%s]: %w", m.name, k[n:], err)
		}
		return fn(string(k[n:]), v)
	})
}
