// Package metrics provides Prometheus instrumentation for the fraud engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors behind a private registry
// so the engine can be instantiated per worker without collector collisions
type Metrics struct {
	registry *prometheus.Registry

	// FastChecksTotal counts fast-path checks by whether detailed analysis was required.
	FastChecksTotal *prometheus.CounterVec

	// AnalysesTotal counts comprehensive analyses by recommended action.
	AnalysesTotal *prometheus.CounterVec

	// DetectorFailures counts non-fatal sub-analysis failures by detector.
	DetectorFailures *prometheus.CounterVec

	// AnalysisDuration observes AnalyzeTrade latency in seconds.
	AnalysisDuration prometheus.Histogram

	// TradesIndexed counts trade events written to the ledger by result.
	TradesIndexed *prometheus.CounterVec
}

// NewMetrics creates and registers the engine collectors
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		FastChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_fraud",
				Name:      "fast_checks_total",
				Help:      "Total fast-path checks by escalation outcome.",
			},
			[]string{"escalated"},
		),
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_fraud",
				Name:      "analyses_total",
				Help:      "Total comprehensive analyses by recommended action.",
			},
			[]string{"action"},
		),
		DetectorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_fraud",
				Name:      "detector_failures_total",
				Help:      "Non-fatal sub-analysis failures by detector.",
			},
			[]string{"detector"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "trade_fraud",
				Name:      "analysis_duration_seconds",
				Help:      "AnalyzeTrade latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		TradesIndexed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "trade_fraud",
				Name:      "trades_indexed_total",
				Help:      "Trade events written to the ledger by result.",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		m.FastChecksTotal,
		m.AnalysesTotal,
		m.DetectorFailures,
		m.AnalysisDuration,
		m.TradesIndexed,
	)

	return m
}

// ObserveAnalysis records one completed comprehensive analysis
func (m *Metrics) ObserveAnalysis(action string, elapsed time.Duration) {
	m.AnalysesTotal.WithLabelValues(action).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}

// Handler exposes the registry for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
