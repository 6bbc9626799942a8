package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func databases(t *testing.T) map[string]Database {
	t.Helper()
	level, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(level.Close)
	return map[string]Database{
		"memdb":   NewMemDB(),
		"leveldb": level,
	}
}

func TestDatabaseRoundTrip(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			_, err := db.Get([]byte("missing"))
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, db.Put([]byte("k"), []byte("v1")))
			got, err := db.Get([]byte("k"))
			require.NoError(t, err)
			require.Equal(t, []byte("v1"), got)

			ok, err := db.Has([]byte("k"))
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, db.Put([]byte("k"), []byte("v2")))
			got, err = db.Get([]byte("k"))
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), got)

			require.NoError(t, db.Delete([]byte("k")))
			ok, err = db.Has([]byte("k"))
			require.NoError(t, err)
			require.False(t, ok)

			// Deleting an absent key is a no-op.
			require.NoError(t, db.Delete([]byte("k")))
		})
	}
}

func TestDatabaseIteratePrefix(t *testing.T) {
	for name, db := range databases(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Put([]byte("a/1"), []byte("one")))
			require.NoError(t, db.Put([]byte("a/2"), []byte("two")))
			require.NoError(t, db.Put([]byte("b/1"), []byte("other")))

			var keys []string
			require.NoError(t, db.Iterate([]byte("a/"), func(key, value []byte) error {
				keys = append(keys, string(key))
				return nil
			}))
			require.Equal(t, []string{"a/1", "a/2"}, keys)
		})
	}
}

func TestDatabaseIterateStopsOnError(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("a/1"), []byte("one")))
	require.NoError(t, db.Put([]byte("a/2"), []byte("two")))

	count := 0
	err := db.Iterate([]byte("a/"), func(key, value []byte) error {
		count++
		return ErrNotFound
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, count)
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte("mutate-me")
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 'X'

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("mutate-me"), got)
}

func TestLevelDBReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, err := NewLevelDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("persisted"), []byte("yes")))
	db.Close()

	reopened, err := NewLevelDBReadOnly(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get([]byte("persisted"))
	require.NoError(t, err)
	require.Equal(t, []byte("yes"), got)
}

func TestLevelDBReadOnlyRequiresExisting(t *testing.T) {
	_, err := NewLevelDBReadOnly(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
