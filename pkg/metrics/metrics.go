// Package metrics defines the prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline outcomes recorded once per analyze call.
const (
	OutcomeCacheHit         = "cache_hit"
	OutcomeStored           = "stored"
	OutcomeJoined           = "joined"
	OutcomeFetchFailed      = "fetch_failed"
	OutcomeGenerationFailed = "generation_failed"
	OutcomeParseFailed      = "parse_failed"
	OutcomeStoreFailed      = "store_failed"
)

// Metrics groups every collector the service updates.
type Metrics struct {
	PipelineOutcomes *prometheus.CounterVec
	GeneratorLatency *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New registers the collectors, plus Go runtime and process collectors, on a
// fresh registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		PipelineOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_outcomes_total",
			Help:      "Analyze calls by terminal pipeline state.",
		}, []string{"outcome"}),
		GeneratorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_request_duration_seconds",
			Help:      "Latency of calls to the analysis generator.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"operation", "result"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_cache_lookups_total",
			Help:      "In-process record cache lookups by result.",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		registry: reg,
	}
}

// Gatherer exposes the registry for the /metrics handler.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Outcome increments the pipeline outcome counter.
func (m *Metrics) Outcome(outcome string) {
	m.PipelineOutcomes.WithLabelValues(outcome).Inc()
}
