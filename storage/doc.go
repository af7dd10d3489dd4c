// Package storage provides the transactional key-value stores that hold all
// vault, bank and token state.
//
// Two backends implement interfaces.KVStore:
//
//   - MemoryStore, a volatile in-process store for tests and development
//   - BoltStore, a durable single-file store built on go.etcd.io/bbolt
//
// # Store URI Format
//
// Stores are selected with a location URI:
//
//   - memory://
//   - bolt:///var/lib/vault/state.db
//
// # Transactions
//
// Every request runs inside one Update call. Writes become visible to later
// transactions only if the function passed to Update returns nil; on error
// they are all discarded. This is what makes a failed vault operation leave
// no trace, including the issuer calls it made along the way.
//
// # Namespaces and typed access
//
// Prefix scopes a transaction to a namespace. Namespaces are length-prefixed,
// so "ab"+"c" and "a"+"bc" never collide. Item and Map layer JSON-encoded
// values on top of raw keys:
//
//	var vaultAddresses = storage.NewMap[common.Address]("vault_addresses")
//
//	err := store.Update(ctx, func(tx interfaces.KVTx) error {
//		return vaultAddresses.Save(storage.Prefix(tx, "contract/0x..."), "ucosm", issuer)
//	})
//
// Map iteration is always in ascending key order, for both backends.
package storage
