package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements ByteStore on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB in dir.
func OpenBadger(dir string, opts ...Option) (*BadgerStore, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	bo := badger.DefaultOptions(dir)
	bo.Logger = nil
	if cfg.inMemory {
		bo = badger.DefaultOptions("").WithInMemory(true)
		bo.Logger = nil
	}
	if cfg.syncWrites {
		bo = bo.WithSyncWrites(true)
	}
	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// Get implements ByteStore.
func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %q: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return nil, ErrClosed
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set implements ByteStore.
func (s *BadgerStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Close implements ByteStore.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
