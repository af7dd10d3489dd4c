package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ruteri/native-vault/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]interfaces.KVStore {
	t.Helper()
	bolt, err := OpenBoltStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	return map[string]interfaces.KVStore{
		"memory": NewMemoryStore(),
		"bolt":   bolt,
	}
}

func TestStore_UpdateCommitsAndRollsBack(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Update(ctx, func(tx interfaces.KVTx) error {
				return tx.Set([]byte("a"), []byte("1"))
			}))

			boom := errors.New("boom")
			err := store.Update(ctx, func(tx interfaces.KVTx) error {
				require.NoError(t, tx.Set([]byte("a"), []byte("2")))
				require.NoError(t, tx.Set([]byte("b"), []byte("2")))

				// Writes are visible inside the transaction.
				v, err := tx.Get([]byte("a"))
				require.NoError(t, err)
				assert.Equal(t, []byte("2"), v)
				return boom
			})
			assert.ErrorIs(t, err, boom)

			require.NoError(t, store.View(ctx, func(tx interfaces.KVTx) error {
				v, err := tx.Get([]byte("a"))
				require.NoError(t, err)
				assert.Equal(t, []byte("1"), v)

				_, err = tx.Get([]byte("b"))
				assert.ErrorIs(t, err, interfaces.ErrNotFound)
				return nil
			}))
		})
	}
}

func TestStore_DeleteAndIterate(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Update(ctx, func(tx interfaces.KVTx) error {
				for _, k := range []string{"p/c", "p/a", "q/a", "p/b"} {
					if err := tx.Set([]byte(k), []byte(k)); err != nil {
						return err
					}
				}
				return nil
			}))

			var keys []string
			require.NoError(t, store.Update(ctx, func(tx interfaces.KVTx) error {
				require.NoError(t, tx.Delete([]byte("p/b")))
				require.NoError(t, tx.Set([]byte("p/0"), []byte("new")))
				return tx.Iterate([]byte("p/"), func(k, _ []byte) error {
					keys = append(keys, string(k))
					return nil
				})
			}))
			assert.Equal(t, []string{"p/0", "p/a", "p/c"}, keys)
		})
	}
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.View(context.Background(), func(tx interfaces.KVTx) error {
				return tx.Set([]byte("a"), []byte("1"))
			})
			assert.Error(t, err)
		})
	}
}

func TestPrefix_IsolatesNamespaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx interfaces.KVTx) error {
		// "ab"+"c" and "a"+"bc" must not collide.
		require.NoError(t, Prefix(tx, "ab").Set([]byte("c"), []byte("first")))
		require.NoError(t, Prefix(tx, "a").Set([]byte("bc"), []byte("second")))
		return nil
	}))

	require.NoError(t, store.View(ctx, func(tx interfaces.KVTx) error {
		v, err := Prefix(tx, "ab").Get([]byte("c"))
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), v)

		var keys []string
		err = Prefix(tx, "a").Iterate(nil, func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"bc"}, keys)
		return nil
	}))
}

func TestTypedMap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := NewMap[int]("numbers")
	item := NewItem[string]("name")

	require.NoError(t, store.Update(ctx, func(tx interfaces.KVTx) error {
		keys, err := m.Keys(tx)
		require.NoError(t, err)
		assert.NotNil(t, keys)
		assert.Empty(t, keys)

		_, err = item.Load(tx)
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
		require.NoError(t, item.Save(tx, "vault"))

		for i, k := range []string{"zeta", "alpha", "mid"} {
			require.NoError(t, m.Save(tx, k, i))
		}
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx interfaces.KVTx) error {
		name, err := item.Load(tx)
		require.NoError(t, err)
		assert.Equal(t, "vault", name)

		ok, err := m.Has(tx, "alpha")
		require.NoError(t, err)
		assert.True(t, ok)

		v, err := m.Load(tx, "mid")
		require.NoError(t, err)
		assert.Equal(t, 2, v)

		require.NoError(t, m.Remove(tx, "mid"))
		_, err = m.Load(tx, "mid")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		keys, err := m.Keys(tx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zeta"}, keys)
		return nil
	}))
}

func TestNewStoreFromURI(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := NewStoreFromURI(log, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStoreFromURI(log, "bolt://"+filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, store)
	require.NoError(t, store.Close())

	_, err = NewStoreFromURI(log, "s3://bucket/state")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())
	err := store.Update(context.Background(), func(interfaces.KVTx) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}
