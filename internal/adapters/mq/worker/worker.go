// Package worker persists ledger snapshots in the background.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/pkg/logger"
	"github.com/okian/slopguard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultSaveTimeout = 2 * time.Second
)

// Saver writes a ledger snapshot to durable storage.
type Saver interface {
	Save(ctx context.Context, s *ledger.State) error
}

// Queue defines how the worker receives snapshots.
type Queue interface {
	Dequeue() <-chan *ledger.State
}

// Flusher drains a snapshot queue into a Saver. Failures are logged and
// counted, never returned: the next snapshot carries the full state anyway.
type Flusher struct {
	queue       Queue
	saver       Saver
	saveTimeout time.Duration

	done chan struct{}

	logger logger.Logger
}

// NewFlusher creates a flusher with configuration options.
func NewFlusher(queue Queue, saver Saver, opts ...Option) *Flusher {
	f := &Flusher{
		queue:       queue,
		saver:       saver,
		saveTimeout: defaultSaveTimeout,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("flusher")
	}
	return f
}

// Run saves snapshots until the queue channel is closed. Cancelling ctx
// stops the loop early, abandoning pending snapshots.
func (f *Flusher) Run(ctx context.Context) {
	defer close(f.done)

	items := f.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-items:
			if !ok {
				return
			}
			f.flush(ctx, s)
		}
	}
}

// Wait blocks until Run returned or ctx is done.
func (f *Flusher) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		f.logger.Warn(ctx, "flush wait timed out")
		return fmt.Errorf("flush wait timed out: %w", ctx.Err())
	}
}

func (f *Flusher) flush(ctx context.Context, s *ledger.State) {
	start := time.Now()
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.saveTimeout)
	defer cancel()

	err := f.saver.Save(sctx, s)
	metrics.RecordPersistFlush(err == nil, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordErrorByComponent("flusher", "save_failed")
		f.logger.Warn(ctx, "ledger save failed", logger.Error(err))
		return
	}
	f.logger.Debug(ctx, "ledger saved",
		logger.Float64("globalBias", s.GlobalBias),
		logger.Int("creators", len(s.CreatorBias)),
	)
}
