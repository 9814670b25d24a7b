package repository

type options struct {
	inMemory   bool
	syncWrites bool
}

// Option configures OpenBadger.
type Option func(*options)

// WithInMemory runs Badger without touching disk. The directory is ignored.
func WithInMemory() Option {
	return func(o *options) { o.inMemory = true }
}

// WithSyncWrites makes every write fsync before returning.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) { o.syncWrites = enabled }
}
