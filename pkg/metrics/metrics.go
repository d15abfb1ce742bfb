// Package metrics provides Prometheus metrics for the replay coach service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service metrics and the registry they live in
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	reportsStored    prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// Option configures a Manager
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the latency buckets, in seconds
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.buckets = buckets
		}
	}
}

// NewManager creates metrics on a fresh registry so several managers can
// coexist in one process, as they do in tests.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "replay_coach",
		subsystem: "analysis",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of replay analyses by export level and outcome",
	}, []string{"export_level", "outcome"})

	m.analysisDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of replay analyses, including orchestration",
		Buckets:   m.buckets,
	})

	m.reportsStored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_stored_total",
		Help:      "Total number of analysis reports written to the report store",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status_code"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   m.buckets,
	}, []string{"route", "method"})

	return m
}

// ObserveAnalysis records one analysis run
func (m *Manager) ObserveAnalysis(exportLevel, outcome string, elapsed time.Duration) {
	m.analyses.WithLabelValues(exportLevel, outcome).Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
}

// IncReportsStored counts a stored report
func (m *Manager) IncReportsStored() {
	m.reportsStored.Inc()
}

// ObserveHTTPRequest records one served request
func (m *Manager) ObserveHTTPRequest(route, method, statusCode string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
