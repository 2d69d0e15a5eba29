// Package metrics provides Prometheus metrics for the ladder rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the ladder service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rating activity
	eventsRated     prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsFailed    *prometheus.CounterVec
	eventLatency    prometheus.Histogram
	matchesRated    prometheus.Counter
	byes            prometheus.Counter
	idleDecays      *prometheus.CounterVec
	rateCalls       *prometheus.CounterVec

	// Standings
	trackedPlayers prometheus.Gauge
	queryLatency   prometheus.Histogram

	// Async submission
	queueSize     prometheus.Gauge
	queueRejected *prometheus.CounterVec
	workerLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithRegistry the
// metrics land on the Prometheus default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ladder",
		subsystem:        "rating",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.eventsRated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_rated_total",
		Help:      "Total number of event batches committed",
	})

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total number of event batches rejected as already rated",
	})

	m.eventsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_failed_total",
		Help:      "Total number of event batches rolled back, by error kind",
	}, []string{"kind"})

	m.eventLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_duration_milliseconds",
		Help:      "Time spent rating one event batch in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.matchesRated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_rated_total",
		Help:      "Total number of matches recorded, byes included",
	})

	m.byes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "byes_total",
		Help:      "Total number of bye matches recorded",
	})

	m.idleDecays = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "idle_decays_total",
		Help:      "Total number of idle deviation inflations, by scope",
	}, []string{"scope"})

	m.rateCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "engine_rate_calls_total",
		Help:      "Total number of Glicko-2 updates, by scope",
	}, []string{"scope"})

	m.trackedPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_players",
		Help:      "Number of players in the historic standings index",
	})

	m.queryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "standings_query_duration_milliseconds",
		Help:      "Standings index query latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Number of event batches waiting to be rated",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_rejected_total",
		Help:      "Event batches refused by the submission queue, by reason",
	}, []string{"reason"})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_duration_milliseconds",
		Help:      "Time from dequeue to commit or rollback of a queued event batch",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "type"})
}

// RecordEventRated increments the committed event counter.
func RecordEventRated() { globalManager.eventsRated.Inc() }

// RecordEventDuplicate increments the duplicate event counter.
func RecordEventDuplicate() { globalManager.eventsDuplicate.Inc() }

// RecordEventFailed counts a rolled back event.
func RecordEventFailed(kind string) { globalManager.eventsFailed.WithLabelValues(kind).Inc() }

// RecordEventLatency observes how long an event took.
func RecordEventLatency(ms float64) { globalManager.eventLatency.Observe(ms) }

// RecordMatchRated increments the match counter.
func RecordMatchRated() { globalManager.matchesRated.Inc() }

// RecordBye increments the bye counter.
func RecordBye() { globalManager.byes.Inc() }

// RecordIdleDecays adds n idle updates for scope.
func RecordIdleDecays(scope string, n int) {
	globalManager.idleDecays.WithLabelValues(scope).Add(float64(n))
}

// RecordRateCalls adds n engine updates for scope.
func RecordRateCalls(scope string, n int) {
	globalManager.rateCalls.WithLabelValues(scope).Add(float64(n))
}

// UpdateTrackedPlayers sets the standings index size.
func UpdateTrackedPlayers(count int) { globalManager.trackedPlayers.Set(float64(count)) }

// RecordQueryLatency observes a standings index query.
func RecordQueryLatency(ms float64) { globalManager.queryLatency.Observe(ms) }

// UpdateQueueSize sets the submission queue depth.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// RecordQueueRejected counts a refused submission.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// RecordWorkerProcessingLatency observes one queued batch.
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerLatency.Observe(ms) }

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
