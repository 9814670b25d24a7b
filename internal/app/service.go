// Package service owns the live personalization ledger and exposes the
// operations the HTTP API calls.
//
// All mutations go through one mutex, derive a new state from a clone of the
// prior one and publish it atomically. Readers load the published pointer and
// never wait for writers. Published states are never modified afterwards.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/slopguard/internal/adapters/mq/queue"
	"github.com/okian/slopguard/internal/adapters/mq/worker"
	"github.com/okian/slopguard/internal/adapters/repository"
	"github.com/okian/slopguard/internal/domain/feedback"
	"github.com/okian/slopguard/internal/domain/ledger"
	"github.com/okian/slopguard/internal/domain/personalize"
	"github.com/okian/slopguard/internal/domain/scancontext"
	"github.com/okian/slopguard/internal/domain/session"
	"github.com/okian/slopguard/internal/domain/types"
	"github.com/okian/slopguard/pkg/logger"
	"github.com/okian/slopguard/pkg/metrics"
)

// Repository loads and saves the whole ledger.
type Repository interface {
	Load(ctx context.Context) (*ledger.State, error)
	Save(ctx context.Context, s *ledger.State) error
}

// Subscriber is called with every newly published state, in registration
// order, while the write lock is held. It must not modify the state or call
// mutating Service methods.
type Subscriber func(*ledger.State)

type subscription struct {
	id uint64
	fn Subscriber
}

// Service implements the API dependencies for the personalization engine.
type Service struct {
	mu sync.Mutex

	state atomic.Pointer[ledger.State]

	subsMu sync.RWMutex
	subs   []subscription
	nextID uint64

	// Persistence
	repo         Repository
	queue        *queue.SnapshotQueue
	flusher      *worker.Flusher
	cancelFlush  context.CancelFunc
	unsubPersist func()

	// Configuration
	scope            *session.Scope
	conservativeMode bool
	queueSize        int
	saveTimeout      time.Duration
	drainTimeout     time.Duration

	// State
	started bool
	loaded  bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRepository sets where the ledger is loaded from and saved to.
func WithRepository(repo Repository) Option {
	return func(s *Service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithScope sets the session scope used for creator gates.
func WithScope(scope *session.Scope) Option {
	return func(s *Service) {
		if scope != nil {
			s.scope = scope
		}
	}
}

// WithConservativeMode sets the default used when a caller does not choose.
func WithConservativeMode(enabled bool) Option {
	return func(s *Service) {
		s.conservativeMode = enabled
	}
}

// WithQueueSize sets the number of pending snapshots kept for persistence.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSaveTimeout bounds a single ledger save.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// WithDrainTimeout bounds how long Stop waits for pending saves.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.drainTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service holding the initial ledger. Without a repository
// the ledger lives in memory only. The global logger must be initialized.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:    4,
		saveTimeout:  2 * time.Second,
		drainTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.repo == nil {
		s.repo = repository.NewLedgerRepository(repository.NewMemoryStore(), repository.DefaultKey)
	}
	if s.scope == nil {
		s.scope = session.New()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.state.Store(ledger.New())
	s.Subscribe(func(st *ledger.State) {
		metrics.UpdateLedgerGauges(st.GlobalBias, len(st.CreatorBias))
	})
	return s
}

// Start loads the persisted ledger and starts background persistence. A
// missing or unreadable ledger leaves the initial state in place.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting personalization service...")

	next, err := s.repo.Load(ctx)
	switch {
	case err == nil:
		s.loaded = true
		metrics.RecordLedgerLoad("ok")
	case errors.Is(err, repository.ErrNotFound):
		next = ledger.New()
		metrics.RecordLedgerLoad("empty")
		s.logger.Info(ctx, "no persisted ledger, starting fresh")
	default:
		next = ledger.New()
		metrics.RecordLedgerLoad("error")
		metrics.RecordErrorByComponent("service", "load")
		s.logger.Warn(ctx, "failed to load ledger, starting fresh", logger.Error(err))
	}

	// Gates from earlier sessions no longer suppress creator nudges.
	if pruned := next.PruneGates(s.scope.Owns); pruned > 0 {
		s.logger.Debug(ctx, "pruned stale creator gates", logger.Int("count", pruned))
	}
	s.state.Store(next)
	s.notify(next)

	s.queue = queue.NewSnapshotQueue(queue.WithCapacity(s.queueSize))
	s.flusher = worker.NewFlusher(s.queue, s.repo,
		worker.WithSaveTimeout(s.saveTimeout),
		worker.WithLogger(s.logger.Named("flusher")),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelFlush = cancel
	go s.flusher.Run(runCtx)

	q := s.queue
	s.unsubPersist = s.Subscribe(func(st *ledger.State) {
		q.Enqueue(runCtx, st)
	})

	s.started = true
	s.logger.Info(ctx, "personalization service started",
		logger.Bool("loaded", s.loaded),
		logger.Float64("globalBias", next.GlobalBias),
		logger.Int("creators", len(next.CreatorBias)),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop detaches persistence and waits for pending saves to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping personalization service...")

	s.unsubPersist()
	_ = s.queue.Close()

	waitCtx, cancel := context.WithTimeout(ctx, s.drainTimeout)
	defer cancel()
	if err := s.flusher.Wait(waitCtx); err != nil {
		s.logger.Warn(ctx, "pending ledger saves abandoned", logger.Error(err))
	}
	s.cancelFlush()

	s.started = false
	s.logger.Info(ctx, "personalization service stopped")
}

// Subscribe registers fn for every future published state and returns a
// function that removes it.
func (s *Service) Subscribe(fn Subscriber) func() {
	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	n := len(s.subs)
	s.subsMu.Unlock()
	metrics.UpdateSubscriberCount(n)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
			n := len(s.subs)
			s.subsMu.Unlock()
			metrics.UpdateSubscriberCount(n)
		})
	}
}

func (s *Service) notify(st *ledger.State) {
	s.subsMu.RLock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, sub := range subs {
		sub.fn(st)
	}
}

// mutate derives, publishes and broadcasts the next state.
func (s *Service) mutate(derive func(prev *ledger.State) *ledger.State) *ledger.State {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := derive(s.state.Load())
	s.state.Store(next)
	s.notify(next)

	metrics.RecordMutationLatency(float64(time.Since(start).Microseconds()) / 1000)
	return next
}

// Snapshot returns the current published state. Callers must not modify it.
func (s *Service) Snapshot() *ledger.State {
	return s.state.Load()
}

// RecordFeedback stores a vote on a scan and adjusts biases when it corrects
// the detector.
func (s *Service) RecordFeedback(ctx context.Context, result types.ScanResult, vote types.Vote) feedback.Outcome {
	var out feedback.Outcome
	next := s.mutate(func(prev *ledger.State) *ledger.State {
		var next *ledger.State
		next, out = feedback.Record(prev, s.scope, result, vote)
		return next
	})

	metrics.RecordVote(string(vote))
	if out.GlobalNudged {
		metrics.RecordBiasNudge("global", out.Direction)
	}
	if out.CreatorNudged {
		metrics.RecordBiasNudge("creator", out.Direction)
	}
	s.logger.Debug(ctx, "feedback recorded",
		logger.String("contentId", result.ContentID),
		logger.String("creatorId", result.CreatorID),
		logger.String("vote", string(vote)),
		logger.Int("direction", out.Direction),
		logger.Bool("creatorNudged", out.CreatorNudged),
		logger.Float64("globalBias", next.GlobalBias),
	)
	return out
}

// ApplyPersonalization recomputes result against the current ledger. A nil
// conservativeMode uses the configured default.
func (s *Service) ApplyPersonalization(result types.ScanResult, conservativeMode *bool) types.ScanResult {
	start := time.Now()
	conservative := s.conservativeMode
	if conservativeMode != nil {
		conservative = *conservativeMode
	}
	out, path := personalize.ApplyWithPath(s.state.Load(), result, conservative)
	metrics.RecordPersonalization(string(path), float64(time.Since(start).Microseconds())/1000)
	return out
}

// CaptureScanContext remembers what the user was shown for a scan.
func (s *Service) CaptureScanContext(ctx context.Context, result types.ScanResult, contentURL string) {
	s.mutate(func(prev *ledger.State) *ledger.State {
		return scancontext.Capture(prev, result, contentURL)
	})
	metrics.RecordScanContextCaptured()
	s.logger.Debug(ctx, "scan context captured",
		logger.String("scanKey", result.ScanKey()),
		logger.String("creatorId", result.CreatorID),
	)
}

// ClearGlobalBias zeroes the global bias only.
func (s *Service) ClearGlobalBias(ctx context.Context) {
	s.mutate(func(prev *ledger.State) *ledger.State {
		next := prev.Clone()
		next.ClearGlobalBias()
		return next
	})
	metrics.RecordLedgerMaintenance("clear_global")
	s.logger.Info(ctx, "global bias cleared")
}

// RemoveCreatorBias forgets a creator's bias, name and gates.
func (s *Service) RemoveCreatorBias(ctx context.Context, creatorID string) {
	s.mutate(func(prev *ledger.State) *ledger.State {
		next := prev.Clone()
		next.RemoveCreatorBias(creatorID)
		return next
	})
	metrics.RecordLedgerMaintenance("remove_creator")
	s.logger.Info(ctx, "creator bias removed", logger.String("creatorId", creatorID))
}

// ResetPersonalization returns the ledger to its initial state.
func (s *Service) ResetPersonalization(ctx context.Context) {
	s.mutate(func(prev *ledger.State) *ledger.State {
		next := prev.Clone()
		next.Reset()
		return next
	})
	metrics.RecordLedgerMaintenance("reset")
	s.logger.Info(ctx, "personalization reset")
}

// ScanContext returns what was captured for one scan.
func (s *Service) ScanContext(contentID, scannedAt string) (ledger.ScanContext, bool) {
	return s.state.Load().ScanContext(contentID, scannedAt)
}

// CreatorBiases lists creators with a bias entry, largest magnitude first.
func (s *Service) CreatorBiases() []ledger.CreatorEntry {
	return s.state.Load().CreatorBiases()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	started, loaded := s.started, s.loaded
	var queueLen int
	if started {
		queueLen = s.queue.Len()
	}
	s.mu.Unlock()

	st := s.state.Load()
	s.subsMu.RLock()
	subscribers := len(s.subs)
	s.subsMu.RUnlock()

	return map[string]interface{}{
		"started":          started,
		"loaded":           loaded,
		"conservativeMode": s.conservativeMode,
		"globalBias":       st.GlobalBias,
		"creatorEntries":   len(st.CreatorBias),
		"contentFeedback":  len(st.ContentFeedback),
		"scanFeedback":     len(st.ScanFeedback),
		"biasSnapshots":    len(st.BiasSnapshots),
		"appliedGates":     len(st.AppliedGates),
		"scanContexts":     len(st.ModelScores),
		"subscribers":      subscribers,
		"queueLength":      queueLen,
	}
}
