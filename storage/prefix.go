package storage

import (
	"encoding/binary"

	"github.com/ruteri/native-vault/interfaces"
)

// namespaceKey encodes a namespace as a 2-byte big-endian length followed by
// its bytes, so that no namespace is a prefix of another.
func namespaceKey(namespace string) []byte {
	buf := make([]byte, 2+len(namespace))
	binary.BigEndian.PutUint16(buf, uint16(len(namespace)))
	copy(buf[2:], namespace)
	return buf
}

// Prefix scopes tx to the given namespace. Keys seen through the returned
// transaction are relative to the namespace.
func Prefix(tx interfaces.KVTx, namespace string) interfaces.KVTx {
	return &prefixedTx{parent: tx, prefix: namespaceKey(namespace)}
}

type prefixedTx struct {
	parent interfaces.KVTx
	prefix []byte
}

func (p *prefixedTx) key(k []byte) []byte {
	full := make([]byte, 0, len(p.prefix)+len(k))
	return append(append(full, p.prefix...), k...)
}

func (p *prefixedTx) Get(key []byte) ([]byte, error) {
	return p.parent.Get(p.key(key))
}

func (p *prefixedTx) Set(key, value []byte) error {
	return p.parent.Set(p.key(key), value)
}

func (p *prefixedTx) Delete(key []byte) error {
	return p.parent.Delete(p.key(key))
}

func (p *prefixedTx) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.parent.Iterate(p.key(prefix), func(key, value []byte) error {
		return fn(key[n:], value)
	})
}
