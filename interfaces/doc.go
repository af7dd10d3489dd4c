// Package interfaces defines the core interfaces and types shared by the
// native vault, its host environment and its collaborators, separating
// interface definitions from implementations.
//
// # Collaborator Interfaces
//
// TokenIssuer: a receipt-token component exposing mint, burn, burn-from and
// balance operations. Calls are made on behalf of a fixed sender, which for
// the vault is always the vault's own account.
//
// IssuerFactory: resolves an issuer address into a TokenIssuer capability.
//
// NativeBank: native-value transfers and balance lookups on behalf of a fixed
// sender.
//
// # Storage Interfaces
//
// KVStore: ordered key-value store with transactional Update/View. A failing
// Update leaves no trace in the store.
//
// KVTx: the per-transaction view handed to components.
//
// # Value Types
//
// - Coin / Coins: native value attached to a request
// - Identity: go-ethereum common.Address, parsed strictly by ParseIdentity
package interfaces
