// Package metrics exposes Prometheus instrumentation for the catalog client
// and the tool layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filmscout/internal/services"
	"filmscout/internal/tmdb"
	"filmscout/internal/tools"
)

const namespace = "filmscout"

// Metrics owns its registry so tests and multiple servers never collide on
// the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls       *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	toolErrors      *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	rateWait        prometheus.Histogram
	retries         *prometheus.CounterVec
}

// New registers every collector on a fresh registry. Go runtime and process
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by tool and outcome",
			},
			[]string{"tool", "status"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_duration_seconds",
				Help:      "Tool call latency in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),
		toolErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_errors_total",
				Help:      "Tool failures by error kind",
			},
			[]string{"kind"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_lookups_total",
				Help:      "Response cache lookups by result",
			},
			[]string{"result"},
		),
		upstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_requests_total",
				Help:      "Catalog HTTP attempts by route and status code",
			},
			[]string{"route", "code"},
		),
		upstreamLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_request_duration_seconds",
				Help:      "Catalog HTTP attempt latency in seconds",
				Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route"},
		),
		rateWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_rate_wait_seconds",
				Help:      "Time spent waiting for the request window",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10},
			},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_retries_total",
				Help:      "Catalog retries by route and reason",
			},
			[]string{"route", "reason"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveUpstream records one HTTP attempt. Status 0 means the request never
// produced a response.
func (m *Metrics) ObserveUpstream(route string, status int, latency time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.upstreamCalls.WithLabelValues(route, code).Inc()
	m.upstreamLatency.WithLabelValues(route).Observe(latency.Seconds())
}

func (m *Metrics) ObserveRateWait(wait time.Duration) {
	m.rateWait.Observe(wait.Seconds())
}

func (m *Metrics) ObserveRetry(route, reason string) {
	m.retries.WithLabelValues(route, reason).Inc()
}

func (m *Metrics) RecordToolCall(tool string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordError counts the failure by kind only; messages stay out of label
// values.
func (m *Metrics) RecordError(kind services.ErrorKind, _ string) {
	m.toolErrors.WithLabelValues(string(kind)).Inc()
}

var (
	_ tmdb.Observer  = (*Metrics)(nil)
	_ tools.Recorder = (*Metrics)(nil)
)
