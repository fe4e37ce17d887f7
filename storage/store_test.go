package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AccountStore {
	t.Helper()
	store, err := NewMemoryAccountStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorePutGetDelete(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	data, ok, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, store.Delete([]byte("k")))
	_, ok, err = store.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTxCommitAppliesAllWrites(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put([]byte("a"), []byte("1")))

	tx := store.Begin()
	tx.Put([]byte("b"), []byte("2"))
	tx.Put([]byte("c"), []byte("3"))
	tx.Delete([]byte("a"))
	require.NoError(t, tx.Commit())

	_, ok, err := store.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
	for _, k := range []string{"b", "c"} {
		_, ok, err := store.Get([]byte(k))
		require.NoError(t, err)
		assert.True(t, ok, "key %s", k)
	}
}

func TestTxDiscardDropsWrites(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put([]byte("a"), []byte("1")))

	tx := store.Begin()
	tx.Put([]byte("b"), []byte("2"))
	tx.Delete([]byte("a"))
	tx.Discard()

	data, ok, err := store.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), data)

	_, ok, err = store.Get([]byte("b"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTxReadsOwnWrites(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put([]byte("a"), []byte("old")))

	tx := store.Begin()
	tx.Put([]byte("a"), []byte("new"))

	data, ok, err := tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), data)

	tx.Delete([]byte("a"))
	_, ok, err = tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	// Underlying store is untouched until commit.
	data, ok, err = store.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("old"), data)
}

func TestTxReadThroughToStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put([]byte("a"), []byte("1")))

	tx := store.Begin()
	data, ok, err := tx.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), data)
	tx.Discard()
}
