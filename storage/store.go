// Package storage persists accounts behind a flat key-value interface.
// LevelDB supplies durability; Tx supplies the all-or-nothing visibility
// the host ledger guarantees for each external call.
package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/alex-sumner/solana-rabbitx-contract/log"
)

// AccountStore wraps LevelDB for raw key-value persistence.
// Thread-safe: LevelDB handles its own synchronization.
type AccountStore struct {
	db *leveldb.DB
}

// NewAccountStore opens or creates a LevelDB database at the given path.
// If path is empty, uses in-memory storage.
func NewAccountStore(path string) (*AccountStore, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &AccountStore{db: db}, nil
}

// NewMemoryAccountStore creates an in-memory AccountStore for testing.
func NewMemoryAccountStore() (*AccountStore, error) {
	return NewAccountStore("")
}

// Get retrieves a value by key. Returns (nil, false, nil) if not found.
func (s *AccountStore) Get(key []byte) ([]byte, bool, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get %x: %w", key, err)
	}
	return data, true, nil
}

func (s *AccountStore) Put(key []byte, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *AccountStore) Delete(key []byte) error {
	return s.db.Delete(key, nil)
}

// Close releases the underlying database.
func (s *AccountStore) Close() error {
	return s.db.Close()
}

// Begin opens a transaction whose writes stay buffered until Commit.
func (s *AccountStore) Begin() *Tx {
	return &Tx{store: s, writes: make(map[string][]byte)}
}

// Tx buffers writes so an entry point either applies completely or not at
// all. Reads observe the buffered writes. A Tx is not safe for concurrent
// use; the execution model is single-threaded per operation.
type Tx struct {
	store  *AccountStore
	writes map[string][]byte
	done   bool
}

// Get reads through the write buffer, then the store.
func (tx *Tx) Get(key []byte) ([]byte, bool, error) {
	if v, ok := tx.writes[string(key)]; ok {
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	}
	return tx.store.Get(key)
}

// Put buffers a write.
func (tx *Tx) Put(key []byte, value []byte) {
	buf := make([]byte, len(value))
	copy(buf, value)
	tx.writes[string(key)] = buf
}

// Delete buffers a deletion.
func (tx *Tx) Delete(key []byte) {
	tx.writes[string(key)] = nil
}

// Commit atomically applies all buffered writes.
func (tx *Tx) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true

	batch := new(leveldb.Batch)
	for key, value := range tx.writes {
		if value == nil {
			batch.Delete([]byte(key))
		} else {
			batch.Put([]byte(key), value)
		}
	}
	if err := tx.store.db.Write(batch, nil); err != nil {
		return fmt.Errorf("committing %d writes: %w", len(tx.writes), err)
	}
	log.Debug(log.StorageModule, "tx commit", "writes", len(tx.writes))
	return nil
}

// Discard drops all buffered writes.
func (tx *Tx) Discard() {
	tx.done = true
	tx.writes = nil
}
