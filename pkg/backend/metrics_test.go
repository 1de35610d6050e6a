package backend

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"laproxy/pkg/cluster"
)

func TestMetricsRecordsConnectionsAndObservations(t *testing.T) {
	dir := t.TempDir()
	m := NewMetrics()
	b := New(Config{DataDir: dir, Metrics: m})

	svc := b.EnsureService("1234")
	persist(svc, [][][]byte{{[]byte("ciao")}, {[]byte("hello")}}, m)
	m.ConnectionsServed.Inc()

	if got := testutil.ToFloat64(m.ConnectionsServed); got != 1 {
		t.Fatalf("ConnectionsServed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ObservationsPersisted); got != 2 {
		t.Fatalf("ObservationsPersisted = %v, want 2", got)
	}
}

func TestMetricsObserveServiceReflectsModel(t *testing.T) {
	dir := t.TempDir()
	m := NewMetrics()
	b := New(Config{DataDir: dir, Metrics: m})
	svc := b.EnsureService("1234")
	svc.installModel(nil, []int{0}, nil)
	svc.installModel(make([]cluster.Point, 2), []int{0}, nil)
	m.observeService(svc)

	if got := testutil.ToFloat64(m.ClusterCount.WithLabelValues("1234")); got != 2 {
		t.Fatalf("ClusterCount = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BlockedCount.WithLabelValues("1234")); got != 1 {
		t.Fatalf("BlockedCount = %v, want 1", got)
	}
}
