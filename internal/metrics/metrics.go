// ABOUTME: Reconciliation metrics behind a small Collector interface
// ABOUTME: Prometheus implementation for long-running sync, no-op for one-shot commands

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records reconciliation activity.
type Collector interface {
	// RecordRun records a finished reconciliation run and its outcome.
	RecordRun(ctx context.Context, outcome string, duration time.Duration)

	// RecordChanges adds n mutations of kind (added, updated, deleted).
	RecordChanges(ctx context.Context, kind string, n int)

	// RecordError records a failed step of an operation.
	RecordError(ctx context.Context, operation, errorType string)

	// SetEntryCount sets the number of locally stored entries.
	SetEntryCount(ctx context.Context, n int)
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordRun(context.Context, string, time.Duration) {}
func (Noop) RecordChanges(context.Context, string, int)       {}
func (Noop) RecordError(context.Context, string, string)      {}
func (Noop) SetEntryCount(context.Context, int)               {}

// PrometheusCollector provides Prometheus metrics for reconciliation.
type PrometheusCollector struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	changesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	entries      prometheus.Gauge
	registry     *prometheus.Registry
}

// NewPrometheusCollector creates a collector with its own registry.
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readlist_sync_runs_total",
			Help: "Total number of reconciliation runs by outcome",
		},
		[]string{"outcome"},
	)

	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readlist_sync_duration_seconds",
			Help:    "Duration of reconciliation runs by outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"outcome"},
	)

	changesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readlist_sync_changes_total",
			Help: "Total number of entries added, updated or deleted by reconciliation",
		},
		[]string{"kind"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readlist_errors_total",
			Help: "Total number of errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)

	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "readlist_entries",
		Help: "Current number of locally stored entries",
	})

	registry.MustRegister(runsTotal, runDuration, changesTotal, errorsTotal, entries)

	return &PrometheusCollector{
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		changesTotal: changesTotal,
		errorsTotal:  errorsTotal,
		entries:      entries,
		registry:     registry,
	}
}

// RecordRun records a finished reconciliation run.
func (m *PrometheusCollector) RecordRun(ctx context.Context, outcome string, duration time.Duration) {
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordChanges adds n mutations of kind.
func (m *PrometheusCollector) RecordChanges(ctx context.Context, kind string, n int) {
	if n <= 0 {
		return
	}
	m.changesTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordError records an error occurrence.
func (m *PrometheusCollector) RecordError(ctx context.Context, operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetEntryCount sets the stored entry gauge.
func (m *PrometheusCollector) SetEntryCount(ctx context.Context, n int) {
	m.entries.Set(float64(n))
}

// Registry returns the Prometheus registry for HTTP exposure.
func (m *PrometheusCollector) Registry() *prometheus.Registry {
	return m.registry
}

var (
	_ Collector = Noop{}
	_ Collector = (*PrometheusCollector)(nil)
)
