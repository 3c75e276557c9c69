// Package telemetry provides the structured logging and Prometheus
// instrumentation used by the demo CLI. The core sketch
// packages never import this package: they are data structures, not
// services, and log nothing themselves.
package telemetry

import (
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	baseLoggerOnce sync.Once
	baseLogger     *slog.Logger
)

// For returns a logger tagged with component, built from a process-wide
// JSON handler over stderr. Every caller gets an independent *slog.Logger
// value carrying its own "component" attribute, but all of them share one
// underlying handler and write stream.
func For(component string) *slog.Logger {
	baseLoggerOnce.Do(func() {
		baseLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	})
	return baseLogger.With(slog.String("component", component))
}

// Recorder holds the Prometheus instruments this module exports: gauges
// for each sketch's estimated memory footprint and per-label cardinality,
// and counters for the insert/merge operations applied to it. One Recorder
// is meant to be shared by every sketch instance a process constructs,
// distinguished by the "sketch" label on each metric series, following the
// per-entity label-vec pattern grafana-tempo's metrics generator registry
// uses for its own cardinality gauges.
type Recorder struct {
	memoryBytes  *prometheus.GaugeVec
	cardinality  *prometheus.GaugeVec
	insertsTotal *prometheus.CounterVec
	mergesTotal  *prometheus.CounterVec
}

// NewRecorder registers this module's instruments against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the global
// default registry across test cases.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		memoryBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dhh",
			Name:      "sketch_memory_bytes",
			Help:      "Estimated memory footprint of a sketch instance, in bytes.",
		}, []string{"sketch"}),
		cardinality: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dhh",
			Name:      "label_cardinality_estimate",
			Help:      "Most recently observed cardinality estimate for a label.",
		}, []string{"sketch", "label"}),
		insertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dhh",
			Name:      "inserts_total",
			Help:      "Total number of Insert calls made against a sketch.",
		}, []string{"sketch"}),
		mergesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dhh",
			Name:      "merges_total",
			Help:      "Total number of Merge calls made against a sketch.",
		}, []string{"sketch"}),
	}
}

// ObserveMemory records sketch's current estimated memory footprint.
func (r *Recorder) ObserveMemory(sketch string, bytes uint64) {
	r.memoryBytes.WithLabelValues(sketch).Set(float64(bytes))
}

// ObserveCardinality records a label's current cardinality estimate under
// sketch.
func (r *Recorder) ObserveCardinality(sketch, label string, cardinality uint64) {
	r.cardinality.WithLabelValues(sketch, label).Set(float64(cardinality))
}

// RecordInsert increments sketch's insert counter by one.
func (r *Recorder) RecordInsert(sketch string) {
	r.insertsTotal.WithLabelValues(sketch).Inc()
}

// RecordMerge increments sketch's merge counter by one.
func (r *Recorder) RecordMerge(sketch string) {
	r.mergesTotal.WithLabelValues(sketch).Inc()
}
