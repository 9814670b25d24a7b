package worker

import (
	"time"

	"github.com/okian/slopguard/pkg/logger"
)

// Option applies a configuration option to the Flusher.
type Option func(*Flusher)

// WithSaveTimeout bounds a single save.
func WithSaveTimeout(d time.Duration) Option {
	return func(f *Flusher) {
		if d > 0 {
			f.saveTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the flusher.
func WithLogger(l logger.Logger) Option {
	return func(f *Flusher) {
		if l != nil {
			f.logger = l
		}
	}
}
