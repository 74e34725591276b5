package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	TurnsTotal       *prometheus.CounterVec
	ModelCallSeconds prometheus.Histogram
	ModelRetries     prometheus.Counter
	FallbacksTotal   *prometheus.CounterVec
	MigratedItems    *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clarityos",
			Name:      "discovery_turns_total",
			Help:      "Conversation turns processed, by card and outcome.",
		}, []string{"card", "outcome"}),
		ModelCallSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clarityos",
			Name:      "model_call_duration_seconds",
			Help:      "Wall-clock duration of model calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		ModelRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clarityos",
			Name:      "model_retries_total",
			Help:      "Model calls retried after a transient or contract failure.",
		}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clarityos",
			Name:      "discovery_fallbacks_total",
			Help:      "Turns answered with the hand-authored fallback question.",
		}, []string{"card"}),
		MigratedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clarityos",
			Name:      "migration_items_total",
			Help:      "Local records migrated to the remote store, by category and result.",
		}, []string{"category", "result"}),
	}

	reg.MustRegister(
		m.TurnsTotal,
		m.ModelCallSeconds,
		m.ModelRetries,
		m.FallbacksTotal,
		m.MigratedItems,
	)

	return m
}

// NewNopMetrics returns metrics backed by an unexported registry,
// for tests and tools that do not scrape.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
