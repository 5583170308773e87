// Package metrics defines the Prometheus metric collectors for ingestion and
// query serving, and exposes the HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poiesic/stockscope/ingestion"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	IngestOutcomesTotal  *prometheus.CounterVec
	ExploreRequestsTotal *prometheus.CounterVec
	ExploreLatency       prometheus.Histogram
	ContextSnippets      prometheus.Histogram
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer outside tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IngestOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_outcomes_total",
				Help: "Ingestion outcomes per symbol by status (success, failure, skipped).",
			},
			[]string{"status"},
		),
		ExploreRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explore_requests_total",
				Help: "Explore requests by HTTP status code.",
			},
			[]string{"status"},
		),
		ExploreLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "explore_latency_seconds",
				Help:    "End-to-end explore request latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		ContextSnippets: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "context_snippets",
				Help:    "Number of summaries in each assembled context bundle.",
				Buckets: []float64{0, 1, 2, 5, 10},
			},
		),
	}

	reg.MustRegister(
		m.IngestOutcomesTotal,
		m.ExploreRequestsTotal,
		m.ExploreLatency,
		m.ContextSnippets,
	)
	return m
}

// ObserveOutcome is an ingestion.Pipeline observer feeding the outcome
// counter.
func (m *Metrics) ObserveOutcome(outcome ingestion.Outcome) {
	m.IngestOutcomesTotal.WithLabelValues(string(outcome.Status)).Inc()
}

// Handler returns the Prometheus scrape HTTP handler for the default
// registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
