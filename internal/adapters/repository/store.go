// Package repository persists the personalization ledger in a durable
// key-value byte store.
package repository

import "context"

// DefaultKey is the fixed key the whole ledger is stored under.
const DefaultKey = "ai-content-guardian-personalization"

// ByteStore is a durable key-value store of opaque byte values.
type ByteStore interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases the underlying resources.
	Close() error
}
