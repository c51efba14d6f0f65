// Package metrics exposes the engine's Prometheus instrumentation behind
// a single registry so the daemon serves one scrape endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pitch_edge"

// Metrics bundles every collector the engine emits
type Metrics struct {
	registry *prometheus.Registry

	MatchesAnalyzed    prometheus.Counter
	DecisionsWritten   *prometheus.CounterVec
	SkipsByReason      *prometheus.CounterVec
	ModelErrors        *prometheus.CounterVec
	PipelineDuration   prometheus.Histogram
	MonteCarloDuration prometheus.Histogram
	Bankroll           prometheus.Gauge
	ExposurePct        prometheus.Gauge
}

// New creates the collector set on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		MatchesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_analyzed_total",
			Help:      "Matches run through the full pipeline",
		}),
		DecisionsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_written_total",
			Help:      "Decisions persisted, labeled by tier",
		}, []string{"tier"}),
		SkipsByReason: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Skip outcomes, labeled by reason",
		}, []string{"reason"}),
		ModelErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_errors_total",
			Help:      "Scoring model failures replaced by abstention",
		}, []string{"model"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end per-match pipeline duration",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MonteCarloDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "monte_carlo_duration_seconds",
			Help:      "Robustness simulation duration per match",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		Bankroll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bankroll_units",
			Help:      "Bankroll snapshot at the last sizing",
		}),
		ExposurePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_exposure_pct",
			Help:      "Open exposure at the last sizing",
		}),
	}

	registry.MustRegister(
		m.MatchesAnalyzed,
		m.DecisionsWritten,
		m.SkipsByReason,
		m.ModelErrors,
		m.PipelineDuration,
		m.MonteCarloDuration,
		m.Bankroll,
		m.ExposurePct,
	)
	return m
}

// Registry exposes the underlying registry for custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
