// Package monitoring exposes Prometheus metrics for the analysis pipeline.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/company-analyzer/internal/resilience"
)

const namespace = "company_analyzer"

// Metrics holds the pipeline collectors on a dedicated registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups       *prometheus.CounterVec
	answers            *prometheus.CounterVec
	failures           *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	completionDuration *prometheus.HistogramVec
	searchDowngrades   prometheus.Counter
	breakerState       *prometheus.GaugeVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by key namespace and outcome.",
		}, []string{"namespace", "outcome"}),
		answers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Question answers by resolving source.",
		}, []string{"source"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed operations by operation and error kind.",
		}, []string{"op", "kind"}),
		extractionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Content extraction latency by extractor and outcome.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"extractor", "outcome"}),
		completionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Completion service latency by provider and operation.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"provider", "op"}),
		searchDowngrades: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_downgrades_total",
			Help:      "Questions answered without search context after search failed.",
		}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per collaborator (0 closed, 1 open, 2 half-open).",
		}, []string{"name"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CacheLookup records one cache lookup.
func (m *Metrics) CacheLookup(ns, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(ns, outcome).Inc()
}

// Answer records a question resolved by source.
func (m *Metrics) Answer(source string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(source).Inc()
}

// Failure records a failed operation.
func (m *Metrics) Failure(op, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, kind).Inc()
}

// Extraction records an extraction attempt.
func (m *Metrics) Extraction(extractor, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractionDuration.WithLabelValues(extractor, outcome).Observe(d.Seconds())
}

// Completion records a completion service call.
func (m *Metrics) Completion(provider, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.completionDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

// SearchDowngrade records a question answered without search context.
func (m *Metrics) SearchDowngrade() {
	if m == nil {
		return
	}
	m.searchDowngrades.Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// BreakerChange is a resilience.BreakerConfig OnChange hook that exports
// the new state and logs the transition.
func (m *Metrics) BreakerChange(name string, from, to resilience.State) {
	zap.L().Warn("monitoring: circuit breaker state change",
		zap.String("breaker", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(to))
}
