package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Mutation kinds.
const (
	MutationSet            = "set"
	MutationRemove         = "remove"
	MutationReplace        = "replace"
	MutationReset          = "reset"
	MutationRestoreField   = "restore_field"
	MutationDeleteField    = "delete_field"
	MutationRestoreSection = "restore_section"
)

// Rewrite outcomes.
const (
	RewriteStarted   = "started"
	RewriteCompleted = "completed"
	RewriteAbandoned = "abandoned"
	RewriteRejected  = "rejected"
	RewriteFailed    = "failed"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	Mutations       *prometheus.CounterVec
	AnalyzeDuration prometheus.Histogram
	ChangeSetSize   *prometheus.GaugeVec
	Rewrites        *prometheus.CounterVec
	RewriteWarnings prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg
// (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vitae",
				Name:      "mutations_total",
				Help:      "Document mutations applied, by kind.",
			},
			[]string{"kind"},
		),
		AnalyzeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "vitae",
				Name:      "analyze_duration_seconds",
				Help:      "Time spent classifying changes between original and current.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		ChangeSetSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "vitae",
				Name:      "change_set_size",
				Help:      "Entries in each set of the last analyzed change set.",
			},
			[]string{"set"},
		),
		Rewrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vitae",
				Name:      "rewrites_total",
				Help:      "AI rewrite round trips, by outcome.",
			},
			[]string{"outcome"},
		),
		RewriteWarnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vitae",
				Name:      "rewrite_id_warnings_total",
				Help:      "Identity warnings raised while validating rewritten documents.",
			},
		),
	}

	reg.MustRegister(m.Mutations, m.AnalyzeDuration, m.ChangeSetSize, m.Rewrites, m.RewriteWarnings)
	return m
}

// Mutation counts one mutation of the given kind.
func (m *Metrics) Mutation(kind string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(kind).Inc()
}

// Analyzed records an analysis run and the size of each resulting set.
func (m *Metrics) Analyzed(elapsed time.Duration, sizes map[string]int) {
	if m == nil {
		return
	}
	m.AnalyzeDuration.Observe(elapsed.Seconds())
	for set, n := range sizes {
		m.ChangeSetSize.WithLabelValues(set).Set(float64(n))
	}
}

// Rewrite counts a rewrite outcome.
func (m *Metrics) Rewrite(outcome string) {
	if m == nil {
		return
	}
	m.Rewrites.WithLabelValues(outcome).Inc()
}

// Warnings adds n identity warnings.
func (m *Metrics) Warnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RewriteWarnings.Add(float64(n))
}
