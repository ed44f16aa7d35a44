package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutboxMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.IncPublished("shipment.delivered")
	m.IncPublished("shipment.delivered")
	m.IncFailed("cod.reconciled")
	m.SetBacklog(7)
	m.ObserveBatch("outbox-publisher", 120*time.Millisecond)

	if got := testutil.ToFloat64(m.published.WithLabelValues("shipment.delivered")); got != 2 {
		t.Fatalf("expected 2 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.failed.WithLabelValues("cod.reconciled")); got != 1 {
		t.Fatalf("expected 1 failed, got %v", got)
	}
	if got := testutil.ToFloat64(m.backlog); got != 7 {
		t.Fatalf("expected backlog 7, got %v", got)
	}
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.IncPublished("x")
	m.IncFailed("x")
	m.SetBacklog(1)
	m.ObserveBatch("x", time.Second)

	empty := NewOutboxMetrics(nil)
	empty.IncPublished("")
}
