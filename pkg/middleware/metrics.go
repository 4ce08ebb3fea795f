package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/patchwire/pkg/vdom"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "patchwire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "patchwire",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors for render cycles and the HTTP
// channel. A nil *Metrics is valid and records nothing.
type Metrics struct {
	renderTotal       *prometheus.CounterVec
	renderDuration    *prometheus.HistogramVec
	diffDuration      prometheus.Histogram
	patchesTotal      *prometheus.CounterVec
	signatureFailures prometheus.Counter
	snapshotErrors    *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	activeConnections prometheus.Gauge
	wsErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		renderTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_cycles_total",
			Help:        "Total number of render cycles by kind and status",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		renderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		diffDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diff_duration_seconds",
			Help:        "Parse, diff and optimize duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches produced by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		signatureFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signature_failures_total",
			Help:        "Total number of rejected state signatures",
			ConstLabels: config.ConstLabels,
		}),

		snapshotErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshot_errors_total",
			Help:        "Total snapshot store errors by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by route, method and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// RecordRender records one render cycle. kind is "initial" or "update".
func (m *Metrics) RecordRender(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = categorizeError(err)
	}
	m.renderTotal.WithLabelValues(kind, status).Inc()
	m.renderDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordDiff records the time spent parsing, diffing and optimizing.
func (m *Metrics) RecordDiff(d time.Duration) {
	if m == nil {
		return
	}
	m.diffDuration.Observe(d.Seconds())
}

// RecordPatches counts patches by type.
func (m *Metrics) RecordPatches(patches []vdom.Patch) {
	if m == nil {
		return
	}
	for _, p := range patches {
		m.patchesTotal.WithLabelValues(p.Type.String()).Inc()
	}
}

// RecordSignatureFailure counts a rejected signature.
func (m *Metrics) RecordSignatureFailure() {
	if m == nil {
		return
	}
	m.signatureFailures.Inc()
}

// RecordSnapshotError counts a snapshot store failure for op
// ("load", "save" or "delete").
func (m *Metrics) RecordSnapshotError(op string) {
	if m == nil {
		return
	}
	m.snapshotErrors.WithLabelValues(op).Inc()
}

// ConnectionOpened records a new WebSocket connection.
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

// ConnectionClosed records a closed WebSocket connection.
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (m *Metrics) RecordWebSocketError(errorType string) {
	if m == nil {
		return
	}
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// Handler returns HTTP middleware counting requests by chi route pattern.
// Route patterns keep label cardinality bounded.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// categorizeError returns a category for the error type.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "canceled"):
		return "canceled"
	case strings.Contains(errStr, "snapshot"):
		return "snapshot"
	case strings.Contains(errStr, "signature"):
		return "signature"
	case strings.Contains(errStr, "encode"):
		return "encode"
	default:
		return "error"
	}
}
