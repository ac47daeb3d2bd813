// Package metrics provides Prometheus metrics for the fightelo rating service.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Rating engine
	fightsProcessed *prometheus.CounterVec
	fightsSkipped   *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	batchSize       prometheus.Gauge

	// Published ranking
	competitors      prometheus.Gauge
	topRating        prometheus.Gauge
	rebuilds         *prometheus.CounterVec
	lastRebuildUnix  prometheus.Gauge
	duplicateFights  prometheus.Counter
	sourceFilesRead  prometheus.Counter
	sourceLoadErrors prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "fightelo",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collector definitions
	auto := promauto.With(m.registry)

	m.fightsProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fights_processed_total",
		Help:      "Fights folded into a rating store, by outcome (win, loss, draw)",
	}, []string{"outcome"})

	m.fightsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fights_skipped_total",
		Help:      "Fights skipped by the engine, by reason (invalid, unknown_result)",
	}, []string{"reason"})

	m.batchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_duration_milliseconds",
		Help:      "Time taken to sort and fold one batch of fights",
		Buckets:   m.histogramBuckets,
	})

	m.batchSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_size",
		Help:      "Number of fight records in the last processed batch",
	})

	m.competitors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competitors",
		Help:      "Competitors in the published ranking",
	})

	m.topRating = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "top_rating",
		Help:      "Highest current rating in the published ranking",
	})

	m.rebuilds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rebuilds_total",
		Help:      "Ranking rebuilds, by status (ok, error)",
	}, []string{"status"})

	m.lastRebuildUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_rebuild_unixtime",
		Help:      "Unix time of the last successful ranking rebuild",
	})

	m.duplicateFights = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fights_duplicate_total",
		Help:      "Repeated fight records dropped before processing",
	})

	m.sourceFilesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_files_read_total",
		Help:      "Fight source files read successfully",
	})

	m.sourceLoadErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "source_load_errors_total",
		Help:      "Fight source files that failed to load or decode",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP error responses by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})
}

// RecordFightProcessed increments the processed counter for an outcome.
func RecordFightProcessed(outcome string) {
	globalManager.fightsProcessed.WithLabelValues(outcome).Inc()
}

// RecordFightSkipped increments the skipped counter for a reason.
func RecordFightSkipped(reason string) {
	globalManager.fightsSkipped.WithLabelValues(reason).Inc()
}

// RecordBatchDuration records how long a batch took, in milliseconds.
func RecordBatchDuration(ms float64) {
	globalManager.batchDuration.Observe(ms)
}

// UpdateBatchSize sets the size of the last batch.
func UpdateBatchSize(n int) {
	globalManager.batchSize.Set(float64(n))
}

// UpdateCompetitors sets the number of ranked competitors.
func UpdateCompetitors(n int) {
	globalManager.competitors.Set(float64(n))
}

// UpdateTopRating sets the highest current rating.
func UpdateTopRating(r float64) {
	globalManager.topRating.Set(r)
}

// RecordRebuild counts a rebuild attempt and, on success, stamps its time.
func RecordRebuild(status string, unix float64) {
	globalManager.rebuilds.WithLabelValues(status).Inc()
	if status == "ok" {
		globalManager.lastRebuildUnix.Set(unix)
	}
}

// RecordDuplicateFight counts a dropped duplicate record.
func RecordDuplicateFight() {
	globalManager.duplicateFights.Inc()
}

// RecordSourceFileRead counts a successfully decoded source file.
func RecordSourceFileRead() {
	globalManager.sourceFilesRead.Inc()
}

// RecordSourceLoadError counts a source file that could not be loaded.
func RecordSourceLoadError() {
	globalManager.sourceLoadErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an HTTP error response.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RegisterRuntimeCollectors adds Go runtime and process collectors to the
// custom registry. Calling it more than once is harmless.
func RegisterRuntimeCollectors() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "fightelo"}),
	} {
		if err := customRegistry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return fmt.Errorf("%w: %v", ErrRegister, err)
		}
	}
	return nil
}
