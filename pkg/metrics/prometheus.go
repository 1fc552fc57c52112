// Package metrics provides Prometheus metrics for the Adrata CRM ops service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rescore flow
	rescoresProcessed prometheus.Counter
	rescoreDuplicates prometheus.Counter
	rankUpdates       prometheus.Counter
	classifyLatency   prometheus.Histogram

	// Audit flow
	auditFindings *prometheus.CounterVec
	autoFixes     prometheus.Counter

	// Enrichment flow
	enrichmentCalls  *prometheus.CounterVec
	enrichCacheHits  prometheus.Counter
	enrichCacheMiss  prometheus.Counter
	eventsPublished  *prometheus.CounterVec
	eventPublishErrs *prometheus.CounterVec

	// Queue / worker health
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	queueEnqueueErrs *prometheus.CounterVec
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter

	// Store health
	totalPeople         prometheus.Gauge
	storeQueryLatency   prometheus.Histogram
	storeUpdateLatency  prometheus.Histogram
	snapshotRebuildMs   prometheus.Histogram
	snapshotRebuilds    prometheus.Counter
	errorsByComponent   *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process health
	systemMemoryBytes prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPauseMs   prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "adrata",
		subsystem:        "crmops",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat metric declarations
	auto := promauto.With(m.registry)

	m.rescoresProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescores_processed_total",
		Help: "Total number of rescore requests processed",
	})
	m.rescoreDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rescores_duplicate_total",
		Help: "Total number of duplicate rescore requests detected",
	})
	m.rankUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "rank_updates_total",
		Help: "Total number of global rank writes that changed stored values",
	})
	m.classifyLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "classify_latency_milliseconds",
		Help:    "Histogram of classify+rank computation latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.auditFindings = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "audit_findings_total",
		Help: "Domain mismatch findings by category and severity",
	}, []string{"category", "severity"})
	m.autoFixes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "audit_autofixes_total",
		Help: "Total number of buyer-group clears applied by the auditor",
	})

	m.enrichmentCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "enrichment_calls_total",
		Help: "Enrichment provider calls by provider and outcome",
	}, []string{"provider", "outcome"})
	m.enrichCacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "enrichment_cache_hits_total",
		Help: "Enrichment responses served from cache",
	})
	m.enrichCacheMiss = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "enrichment_cache_misses_total",
		Help: "Enrichment lookups that missed the cache",
	})

	m.eventsPublished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_published_total",
		Help: "Events published to Kafka by topic",
	}, []string{"topic"})
	m.eventPublishErrs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "event_publish_errors_total",
		Help: "Failed Kafka publishes by topic",
	}, []string{"topic"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Current size of the rescore queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured capacity of the rescore queue",
	})
	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_utilization_ratio",
		Help: "Rescore queue fill ratio (0-1)",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Total successful enqueues",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Total dequeues handed to workers",
	})
	m.queueEnqueueErrs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Rejected enqueues by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Current number of rescore workers",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "End-to-end rescore job latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Total worker processing errors",
	})

	m.totalPeople = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "total_people",
		Help: "Total number of people tracked in the store",
	})
	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_query_latency_milliseconds",
		Help:    "Store read latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_update_latency_milliseconds",
		Help:    "Store write latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.snapshotRebuildMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "queue_snapshot_rebuild_milliseconds",
		Help:    "Time spent rebuilding the in-memory queue snapshot",
		Buckets: m.histogramBuckets,
	})
	m.snapshotRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_snapshot_rebuilds_total",
		Help: "Total in-memory queue snapshot rebuilds",
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_total",
		Help: "Errors by component and kind",
	}, []string{"component", "kind"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryBytes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_memory_bytes",
		Help: "Current allocated heap memory in bytes",
	})
	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_goroutines",
		Help: "Current number of goroutines",
	})
	m.systemGCPauseMs = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "system_gc_pause_milliseconds",
		Help:    "Average garbage collection pause time in milliseconds",
		Buckets: m.histogramBuckets,
	})
}

// GetRegistry returns the registry backing the global manager, for the
// /healthz Prometheus exposition handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers delegating to the global manager.

func RecordRescoreProcessed()  { globalManager.rescoresProcessed.Inc() }
func RecordRescoreDuplicate()  { globalManager.rescoreDuplicates.Inc() }
func RecordRankUpdate()        { globalManager.rankUpdates.Inc() }
func RecordClassifyLatency(ms float64) {
	globalManager.classifyLatency.Observe(ms)
}

func RecordAuditFinding(category, severity string) {
	globalManager.auditFindings.WithLabelValues(category, severity).Inc()
}
func RecordAutoFix() { globalManager.autoFixes.Inc() }

func RecordEnrichmentCall(provider, outcome string) {
	globalManager.enrichmentCalls.WithLabelValues(provider, outcome).Inc()
}
func RecordEnrichmentCacheHit()  { globalManager.enrichCacheHits.Inc() }
func RecordEnrichmentCacheMiss() { globalManager.enrichCacheMiss.Inc() }

func RecordEventPublished(topic string) {
	globalManager.eventsPublished.WithLabelValues(topic).Inc()
}
func RecordEventPublishError(topic string) {
	globalManager.eventPublishErrs.WithLabelValues(topic).Inc()
}

func UpdateQueueSize(n int)            { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)        { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64) { globalManager.queueUtilization.Set(r) }
func RecordQueueEnqueue()              { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()              { globalManager.queueDequeues.Inc() }
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrs.WithLabelValues(reason).Inc()
}

func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }
func RecordWorkerProcessingLatency(ms float64) {
	globalManager.workerLatency.Observe(ms)
}
func RecordWorkerError() { globalManager.workerErrors.Inc() }

func UpdateTotalPeople(n int) { globalManager.totalPeople.Set(float64(n)) }
func RecordStoreQueryLatency(ms float64) {
	globalManager.storeQueryLatency.Observe(ms)
}
func RecordStoreUpdateLatency(ms float64) {
	globalManager.storeUpdateLatency.Observe(ms)
}
func RecordSnapshotRebuild(ms float64) {
	globalManager.snapshotRebuildMs.Observe(ms)
	globalManager.snapshotRebuilds.Inc()
}

func RecordErrorByComponent(component, kind string) {
	globalManager.errorsByComponent.WithLabelValues(component, kind).Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryBytes.Set(float64(bytes)) }
func UpdateSystemGoroutineCount(n int)     { globalManager.systemGoroutines.Set(float64(n)) }
func RecordSystemGCPauseTime(ms float64)   { globalManager.systemGCPauseMs.Observe(ms) }
