package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes recorded by AnalysesTotal.
const (
	OutcomeOK       = "ok"
	OutcomeCached   = "cached"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Metrics holds the collectors exported on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	ComparisonsTotal prometheus.Counter
	FindingsDropped  prometheus.Counter
	Scores           prometheus.Histogram
	ExtractDuration  prometheus.Histogram
	RequestDuration  *prometheus.HistogramVec
}

// NewMetrics registers every collector on a fresh registry, so tests and
// multiple servers in one process do not collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evidentia",
			Name:      "analyses_total",
			Help:      "Policy analyses by outcome.",
		}, []string{"outcome"}),
		ComparisonsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evidentia",
			Name:      "comparisons_total",
			Help:      "Policy comparisons served.",
		}),
		FindingsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evidentia",
			Name:      "findings_dropped_total",
			Help:      "Findings rejected at the validation boundary.",
		}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evidentia",
			Name:      "overall_score",
			Help:      "Distribution of overall risk scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		ExtractDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evidentia",
			Name:      "extract_duration_seconds",
			Help:      "Time spent waiting for the model.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "evidentia",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.AnalysesTotal, m.ComparisonsTotal, m.FindingsDropped, m.Scores, m.ExtractDuration, m.RequestDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveAnalysis(outcome string, score float64) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeError {
		m.Scores.Observe(score)
	}
}

func (m *Metrics) ObserveComparison() {
	if m == nil {
		return
	}
	m.ComparisonsTotal.Inc()
}

func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FindingsDropped.Add(float64(n))
}

func (m *Metrics) ObserveExtract(d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
