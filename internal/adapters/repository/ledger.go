package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/okian/slopguard/internal/domain/ledger"
)

// LedgerRepository stores the whole ledger as one JSON value under a fixed key.
type LedgerRepository struct {
	store ByteStore
	key   string
}

// NewLedgerRepository returns a repository over store. An empty key selects
// DefaultKey.
func NewLedgerRepository(store ByteStore, key string) *LedgerRepository {
	if key == "" {
		key = DefaultKey
	}
	return &LedgerRepository{store: store, key: key}
}

// Key returns the storage key in use.
func (r *LedgerRepository) Key() string { return r.key }

// Load reads the persisted ledger. It returns ErrNotFound when nothing was
// saved yet and ErrDecode when the stored value is unreadable.
func (r *LedgerRepository) Load(ctx context.Context) (*ledger.State, error) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, err
	}
	var s ledger.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	s.Normalize()
	return &s, nil
}

// Save replaces the persisted ledger with s.
func (r *LedgerRepository) Save(ctx context.Context, s *ledger.State) error {
	if s == nil {
		return errors.New("nil ledger")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return r.store.Set(ctx, r.key, raw)
}
