// Package queue hands ledger snapshots from the owner to the persistence
// worker without ever blocking the owner.
package queue

import (
	"context"
	"sync"

	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 4
)

// Snapshot is the payload flowing through the queue.
type Snapshot = *ledger.State

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. When the queue is full the oldest pending
	// snapshot is dropped so the latest state is always kept. It returns
	// false only when the queue is closed.
	Enqueue(ctx context.Context, s Snapshot) bool

	// Dequeue returns the channel snapshots are delivered on. It is closed
	// once the queue is closed and drained.
	Dequeue() <-chan Snapshot

	// Len returns the number of pending snapshots.
	Len() int

	// Close stops accepting snapshots.
	Close() error
}

// SnapshotQueue implements Queue on a buffered channel.
type SnapshotQueue struct {
	items    chan Snapshot
	capacity int

	mu     sync.Mutex
	closed bool
}

// NewSnapshotQueue creates a queue with configuration options.
func NewSnapshotQueue(opts ...Option) *SnapshotQueue {
	q := &SnapshotQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Snapshot, q.capacity)
	metrics.UpdatePersistQueueDepth(0)
	return q
}

// Enqueue implements Queue.
func (q *SnapshotQueue) Enqueue(ctx context.Context, s Snapshot) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if ctx.Err() != nil {
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}

	for {
		select {
		case q.items <- s:
			metrics.UpdatePersistQueueDepth(len(q.items))
			return true
		default:
		}
		// Full: the pending snapshot is stale once a newer one exists.
		select {
		case <-q.items:
			metrics.RecordPersistSnapshotDropped()
		default:
		}
	}
}

// Dequeue implements Queue.
func (q *SnapshotQueue) Dequeue() <-chan Snapshot {
	return q.items
}

// Len implements Queue.
func (q *SnapshotQueue) Len() int {
	return len(q.items)
}

// Close implements Queue.
func (q *SnapshotQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *SnapshotQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
