// Package metrics provides Prometheus metrics for the slopguard personalization service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Personalization metrics
	votesRecorded       *prometheus.CounterVec
	biasNudges          *prometheus.CounterVec
	personalizations    *prometheus.CounterVec
	scanContexts        prometheus.Counter
	ledgerMaintenance   *prometheus.CounterVec
	globalBias          prometheus.Gauge
	creatorBiasEntries  prometheus.Gauge
	ledgerLoads         *prometheus.CounterVec
	subscriberCount     prometheus.Gauge
	mutationLatency     prometheus.Histogram
	personalizeLatency  prometheus.Histogram
	persistFlushes      *prometheus.CounterVec
	persistFlushLatency prometheus.Histogram
	persistQueueDepth   prometheus.Gauge
	persistDropped      prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewMetricsManager(WithPrometheusRegistry(customRegistry))
}

// NewMetricsManager creates a new metrics manager with default configuration.
func NewMetricsManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "slopguard",
		subsystem:        "personalization",
		histogramBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.votesRecorded = m.counterVec("votes_recorded_total", "Votes recorded, by vote", "vote")
	m.biasNudges = m.counterVec("bias_nudges_total", "Bias nudges applied, by scope and direction", "scope", "direction")
	m.personalizations = m.counterVec("personalizations_total", "Score recomputations, by path taken", "path")
	m.scanContexts = m.counter("scan_contexts_captured_total", "Scan renders captured")
	m.ledgerMaintenance = m.counterVec("ledger_maintenance_total", "Ledger maintenance operations, by operation", "operation")
	m.globalBias = m.gauge("global_bias", "Current global bias")
	m.creatorBiasEntries = m.gauge("creator_bias_entries", "Creators with a bias entry")
	m.ledgerLoads = m.counterVec("ledger_loads_total", "Ledger loads at startup, by result", "result")
	m.subscriberCount = m.gauge("subscribers", "Registered state subscribers")
	m.mutationLatency = m.histogram("mutation_latency_milliseconds", "Time to derive and publish a new ledger state")
	m.personalizeLatency = m.histogram("personalize_latency_milliseconds", "Time to recompute a personalized scan result")
	m.persistFlushes = m.counterVec("persist_flushes_total", "Ledger saves, by result", "result")
	m.persistFlushLatency = m.histogram("persist_flush_latency_milliseconds", "Ledger save latency")
	m.persistQueueDepth = m.gauge("persist_queue_depth", "Snapshots waiting to be saved")
	m.persistDropped = m.counter("persist_snapshots_dropped_total", "Pending snapshots superseded before being saved")

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      m.name("requests_total"),
		Help:      "Total number of HTTP requests",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      m.name("request_duration_milliseconds"),
		Help:      "HTTP request duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordVote counts a recorded vote.
func RecordVote(vote string) {
	globalManager.votesRecorded.WithLabelValues(vote).Inc()
}

// RecordBiasNudge counts a bias nudge. scope is "global" or "creator".
func RecordBiasNudge(scope string, direction int) {
	globalManager.biasNudges.WithLabelValues(scope, strconv.Itoa(direction)).Inc()
}

// RecordPersonalization counts a recomputation and its latency.
func RecordPersonalization(path string, latencyMs float64) {
	globalManager.personalizations.WithLabelValues(path).Inc()
	globalManager.personalizeLatency.Observe(latencyMs)
}

// RecordScanContextCaptured counts a captured render.
func RecordScanContextCaptured() {
	globalManager.scanContexts.Inc()
}

// RecordLedgerMaintenance counts a clear/remove/reset operation.
func RecordLedgerMaintenance(operation string) {
	globalManager.ledgerMaintenance.WithLabelValues(operation).Inc()
}

// RecordMutationLatency records how long a mutation took.
func RecordMutationLatency(latencyMs float64) {
	globalManager.mutationLatency.Observe(latencyMs)
}

// UpdateLedgerGauges publishes the current bias state.
func UpdateLedgerGauges(globalBias float64, creatorEntries int) {
	globalManager.globalBias.Set(globalBias)
	globalManager.creatorBiasEntries.Set(float64(creatorEntries))
}

// RecordLedgerLoad counts a startup load by result.
func RecordLedgerLoad(result string) {
	globalManager.ledgerLoads.WithLabelValues(result).Inc()
}

// UpdateSubscriberCount sets the number of state subscribers.
func UpdateSubscriberCount(n int) {
	globalManager.subscriberCount.Set(float64(n))
}

// RecordPersistFlush counts a save and records its latency.
func RecordPersistFlush(ok bool, latencyMs float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.persistFlushes.WithLabelValues(result).Inc()
	globalManager.persistFlushLatency.Observe(latencyMs)
}

// UpdatePersistQueueDepth sets the number of pending snapshots.
func UpdatePersistQueueDepth(n int) {
	globalManager.persistQueueDepth.Set(float64(n))
}

// RecordPersistSnapshotDropped counts a superseded snapshot.
func RecordPersistSnapshotDropped() {
	globalManager.persistDropped.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RefreshInterval returns how often periodic gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// Enabled reports whether metrics collection is enabled.
func Enabled() bool {
	return globalManager.enabled
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
