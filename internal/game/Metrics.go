package game

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records engine decisions. A nil *Metrics is valid and records
// nothing, so controllers built without one skip the bookkeeping.
type Metrics struct {
	decisions  *prometheus.CounterVec
	duration   prometheus.Histogram
	legalMoves prometheus.Histogram
}

// NewMetrics registers the engine collectors on registerer. A nil
// registerer gets a private registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}

	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lightcycle",
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Decisions made, by mode (full, degraded, fallback, trapped).",
		}, []string{"mode"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lightcycle",
			Subsystem: "engine",
			Name:      "decision_duration_seconds",
			Help:      "Wall-clock time spent per decision.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		legalMoves: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lightcycle",
			Subsystem: "engine",
			Name:      "legal_moves",
			Help:      "Number of legal moves available per decision.",
			Buckets:   []float64{0, 1, 2, 3},
		}),
	}

	registerer.MustRegister(m.decisions, m.duration, m.legalMoves)
	return m
}

func (m *Metrics) Observe(decision Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision.Mode.String()).Inc()
	m.duration.Observe(decision.Elapsed.Seconds())
	m.legalMoves.Observe(float64(len(decision.Candidates)))
}
