// Package metrics provides Prometheus metrics for the studio backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the editing core.
type Metrics struct {
	PatchesApplied  *prometheus.CounterVec
	PatchesRejected prometheus.Counter
	UndosTotal      prometheus.Counter
	RedosTotal      prometheus.Counter

	TranslationsTotal  *prometheus.CounterVec
	ExportsTotal       *prometheus.CounterVec
	CompilesTotal      prometheus.Counter
	CompileWarnings    prometheus.Counter
	ValidationFailures prometheus.Counter

	SavesTotal     *prometheus.CounterVec
	SaveDuration   prometheus.Histogram
	LoadsTotal     *prometheus.CounterVec
	StaleLoads     prometheus.Counter
	SnapshotsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in main; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{}

	m.PatchesApplied = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_patches_applied_total",
			Help: "Total number of scene patches applied",
		},
		[]string{"op"},
	)

	m.PatchesRejected = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_patches_rejected_total",
			Help: "Total number of scene patches rejected as invalid or stale",
		},
	)

	m.UndosTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_undos_total",
			Help: "Total number of undo operations",
		},
	)

	m.RedosTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_redos_total",
			Help: "Total number of redo operations",
		},
	)

	m.TranslationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_instruction_translations_total",
			Help: "Total number of edit instruction translations",
		},
		[]string{"status"},
	)

	m.ExportsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_exports_total",
			Help: "Total number of scene exports",
		},
		[]string{"format"},
	)

	m.CompilesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_intent_compiles_total",
			Help: "Total number of mockup spec compilations",
		},
	)

	m.CompileWarnings = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_intent_compile_warnings_total",
			Help: "Total number of warnings emitted during compilation",
		},
	)

	m.ValidationFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_schema_validation_failures_total",
			Help: "Total number of document validation failures",
		},
	)

	m.SavesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_saves_total",
			Help: "Total number of persistence writes",
		},
		[]string{"status"},
	)

	m.SaveDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studio_save_duration_seconds",
			Help:    "Duration of persistence writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.LoadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_loads_total",
			Help: "Total number of document loads",
		},
		[]string{"status"},
	)

	m.StaleLoads = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_stale_loads_discarded_total",
			Help: "Total number of load results discarded because a newer load superseded them",
		},
	)

	m.SnapshotsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_snapshots_total",
			Help: "Total number of document snapshots",
		},
		[]string{"status"},
	)

	return m
}

// NewNop returns metrics registered on a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
