// Package metrics provides Prometheus metrics for the pitwall analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Detection
	sessionsAnalyzed  prometheus.Counter
	lapsEvaluated     prometheus.Counter
	samplesEvaluated  prometheus.Counter
	eventsDetected    *prometheus.CounterVec
	rulesSkipped      *prometheus.CounterVec
	detectionDuration prometheus.Histogram

	// Counterfactual
	simulationsRun     *prometheus.CounterVec
	simulationDuration prometheus.Histogram
	vehiclesSimulated  prometheus.Histogram

	// Sessions
	sessionsStored  prometheus.Gauge
	sessionsEvicted prometheus.Counter

	// Worker pool
	partitionsProcessed prometheus.Counter
	partitionDuration   prometheus.Histogram
	poolWorkers         prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// System
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// customRegistry avoids the default Go/process collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitwall",
		subsystem:        "analysis",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.sessionsAnalyzed = auto.NewCounter(m.counterOpts("sessions_analyzed_total", "Sessions run through event detection"))
	m.lapsEvaluated = auto.NewCounter(m.counterOpts("laps_evaluated_total", "Lap records evaluated by lap-level rules"))
	m.samplesEvaluated = auto.NewCounter(m.counterOpts("samples_evaluated_total", "Telemetry samples evaluated by sample-level rules"))
	m.eventsDetected = auto.NewCounterVec(m.counterOpts("events_detected_total", "Events emitted by the detector"), []string{"event_type"})
	m.rulesSkipped = auto.NewCounterVec(m.counterOpts("rules_skipped_total", "Rule evaluations skipped for missing data"), []string{"reason"})
	m.detectionDuration = auto.NewHistogram(m.histogramOpts("detection_duration_milliseconds", "Wall time of one detection pass", m.histogramBuckets))

	m.simulationsRun = auto.NewCounterVec(m.counterOpts("simulations_total", "Counterfactual simulations run"), []string{"kind"})
	m.simulationDuration = auto.NewHistogram(m.histogramOpts("simulation_duration_milliseconds", "Wall time of one simulation", m.histogramBuckets))
	m.vehiclesSimulated = auto.NewHistogram(m.histogramOpts("simulation_vehicles", "Vehicles ranked per simulation", []float64{1, 5, 10, 20, 40, 80}))

	m.sessionsStored = auto.NewGauge(m.gaugeOpts("sessions_stored", "Analysed sessions held in memory"))
	m.sessionsEvicted = auto.NewCounter(m.counterOpts("sessions_evicted_total", "Sessions evicted to respect the store limit"))

	m.partitionsProcessed = auto.NewCounter(m.counterOpts("partitions_processed_total", "Per-vehicle partitions processed by the worker pool"))
	m.partitionDuration = auto.NewHistogram(m.histogramOpts("partition_duration_milliseconds", "Wall time of one vehicle partition", m.histogramBuckets))
	m.poolWorkers = auto.NewGauge(m.gaugeOpts("pool_workers", "Configured worker pool size"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request latency", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"), []string{"endpoint", "method", "error_type"})

	m.systemMemory = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutines = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPause = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause", []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10}))
}

// RecordSessionAnalyzed increments the analysed sessions counter.
func RecordSessionAnalyzed() {
	if globalManager.enabled {
		globalManager.sessionsAnalyzed.Inc()
	}
}

// RecordLapsEvaluated adds n evaluated lap records.
func RecordLapsEvaluated(n int) {
	if globalManager.enabled {
		globalManager.lapsEvaluated.Add(float64(n))
	}
}

// RecordSamplesEvaluated adds n evaluated telemetry samples.
func RecordSamplesEvaluated(n int) {
	if globalManager.enabled {
		globalManager.samplesEvaluated.Add(float64(n))
	}
}

// RecordEventsDetected adds n events of the given type.
func RecordEventsDetected(eventType string, n int) {
	if globalManager.enabled {
		globalManager.eventsDetected.WithLabelValues(eventType).Add(float64(n))
	}
}

// RecordRulesSkipped adds n skipped rule evaluations for reason.
func RecordRulesSkipped(reason string, n int) {
	if globalManager.enabled {
		globalManager.rulesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordDetectionDuration observes one detection pass in milliseconds.
func RecordDetectionDuration(ms float64) {
	if globalManager.enabled {
		globalManager.detectionDuration.Observe(ms)
	}
}

// RecordSimulation counts one simulation of kind (whatif, compare, role)
// and observes its duration and field size.
func RecordSimulation(kind string, ms float64, vehicles int) {
	if !globalManager.enabled {
		return
	}
	globalManager.simulationsRun.WithLabelValues(kind).Inc()
	globalManager.simulationDuration.Observe(ms)
	globalManager.vehiclesSimulated.Observe(float64(vehicles))
}

// UpdateSessionsStored sets the number of sessions held in memory.
func UpdateSessionsStored(n int) {
	if globalManager.enabled {
		globalManager.sessionsStored.Set(float64(n))
	}
}

// RecordSessionEvicted counts one evicted session.
func RecordSessionEvicted() {
	if globalManager.enabled {
		globalManager.sessionsEvicted.Inc()
	}
}

// RecordPartition counts one processed vehicle partition.
func RecordPartition(ms float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.partitionsProcessed.Inc()
	globalManager.partitionDuration.Observe(ms)
}

// UpdatePoolWorkers sets the configured pool size.
func UpdatePoolWorkers(n int) {
	if globalManager.enabled {
		globalManager.poolWorkers.Set(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
	}
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemory.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutines.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	if globalManager.enabled {
		globalManager.systemGCPause.Observe(ms)
	}
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
