package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrNotFound is returned when a key is absent from the store.
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned when a write is attempted inside a View transaction.
	ErrReadOnly = errors.New("read-only transaction")

	// ErrInvalidLocationURI is returned when a store URI is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid store location URI")
)

// KVTx is a transactional view over an ordered key-value store.
type KVTx interface {
	// Get returns the value for key or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Set stores value under key.
	Set(key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Iterate visits every key with the given prefix in ascending byte order.
	// Keys passed to fn are full keys. Returning an error from fn stops iteration.
	Iterate(prefix []byte, fn func(key, value []byte) error) error
}

// KVStore is the persistence substrate. Update runs fn in a read-write
// transaction that is committed only if fn returns nil; View runs fn
// against a read-only snapshot.
type KVStore interface {
	Update(ctx context.Context, fn func(tx KVTx) error) error
	View(ctx context.Context, fn func(tx KVTx) error) error
	Close() error
}

// StoreLocation is a parsed store URI.
type StoreLocation struct {
	Raw    string // Original URI
	Scheme string // memory or bolt
	Path   string // File path for bolt
}

// NewStoreLocation parses memory:// or bolt:///path URIs.
func NewStoreLocation(uri string) (StoreLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StoreLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch parsed.Scheme {
	case "memory":
	case "bolt":
		if parsed.Host+parsed.Path == "" {
			return StoreLocation{}, fmt.Errorf("%w: bolt store requires a path", ErrInvalidLocationURI)
		}
	default:
		return StoreLocation{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	return StoreLocation{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Path:   parsed.Host + parsed.Path,
	}, nil
}

// String returns the original URI string.
func (loc StoreLocation) String() string {
	return loc.Raw
}
