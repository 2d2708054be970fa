// Package metrics exports Prometheus metrics for the retrieval engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	searches      *prometheus.CounterVec
	searchLatency prometheus.Histogram

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	adapterCalls   *prometheus.CounterVec
	adapterLatency *prometheus.HistogramVec
}

// New creates the engine collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrieval",
				Name:      "searches_total",
				Help:      "Total number of search requests",
			},
			[]string{"intent", "status"},
		),
		searchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "retrieval",
				Name:      "search_latency_seconds",
				Help:      "End-to-end search latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "retrieval",
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "retrieval",
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),
		adapterCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrieval",
				Name:      "adapter_calls_total",
				Help:      "Total number of adapter calls",
			},
			[]string{"source", "outcome"},
		),
		adapterLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "retrieval",
				Name:      "adapter_latency_seconds",
				Help:      "Adapter call latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		m.searches,
		m.searchLatency,
		m.cacheHits,
		m.cacheMisses,
		m.adapterCalls,
		m.adapterLatency,
	)

	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one completed search request.
func (m *Metrics) ObserveSearch(intent string, status string, took time.Duration) {
	m.searches.WithLabelValues(intent, status).Inc()
	m.searchLatency.Observe(took.Seconds())
}

// ObserveCache records a cache lookup outcome.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveAdapter records one adapter call.
func (m *Metrics) ObserveAdapter(source string, outcome string, took time.Duration) {
	m.adapterCalls.WithLabelValues(source, outcome).Inc()
	m.adapterLatency.WithLabelValues(source).Observe(took.Seconds())
}
