// ABOUTME: Tests for reconciliation metrics collectors
// ABOUTME: Checks Prometheus counters and gauges and that Noop is safe to call

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCollector_RecordRun(t *testing.T) {
	collector := NewPrometheusCollector()
	ctx := context.Background()

	collector.RecordRun(ctx, "completed", 120*time.Millisecond)
	collector.RecordRun(ctx, "completed", 80*time.Millisecond)
	collector.RecordRun(ctx, "source_unavailable", time.Millisecond)

	if got := testutil.CollectAndCount(collector.runsTotal); got != 2 {
		t.Errorf("expected 2 run series, got %d", got)
	}
	if got := testutil.ToFloat64(collector.runsTotal.WithLabelValues("completed")); got != 2 {
		t.Errorf("expected 2 completed runs, got %f", got)
	}
	if got := testutil.CollectAndCount(collector.runDuration); got != 2 {
		t.Errorf("expected 2 histogram series, got %d", got)
	}
}

func TestPrometheusCollector_RecordChanges(t *testing.T) {
	collector := NewPrometheusCollector()
	ctx := context.Background()

	collector.RecordChanges(ctx, "added", 3)
	collector.RecordChanges(ctx, "added", 2)
	collector.RecordChanges(ctx, "deleted", 0)

	if got := testutil.ToFloat64(collector.changesTotal.WithLabelValues("added")); got != 5 {
		t.Errorf("expected 5 added, got %f", got)
	}
	if got := testutil.CollectAndCount(collector.changesTotal); got != 1 {
		t.Errorf("zero counts must not create series, got %d", got)
	}
}

func TestPrometheusCollector_ErrorsAndGauge(t *testing.T) {
	collector := NewPrometheusCollector()
	ctx := context.Background()

	collector.RecordError(ctx, "sync", "bulk_add")
	collector.SetEntryCount(ctx, 42)

	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues("sync", "bulk_add")); got != 1 {
		t.Errorf("expected 1 error, got %f", got)
	}
	if got := testutil.ToFloat64(collector.entries); got != 42 {
		t.Errorf("expected gauge 42, got %f", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	collector := NewPrometheusCollector()
	collector.RecordRun(context.Background(), "completed", time.Second)

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected metric families")
	}
}
