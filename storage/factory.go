package storage

import (
	"fmt"
	"log/slog"

	"github.com/ruteri/native-vault/interfaces"
)

// NewStoreFromURI creates a KVStore from a location URI.
//
// Supported schemes:
//   - memory:// - volatile in-process store
//   - bolt:///path/to/file.db - BoltDB file
func NewStoreFromURI(log *slog.Logger, uri string) (interfaces.KVStore, error) {
	loc, err := interfaces.NewStoreLocation(uri)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "memory":
		log.Info("Using in-memory store, state will not survive restarts")
		return NewMemoryStore(), nil
	case "bolt":
		log.Info("Opening bolt store", slog.String("path", loc.Path))
		return OpenBoltStore(loc.Path)
	default:
		return nil, fmt.Errorf("%w: %s", interfaces.ErrInvalidLocationURI, loc.Scheme)
	}
}
