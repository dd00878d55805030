package metrics

import "testing"

func TestSnapshotCounters(t *testing.T) {
	r := NewRegistry()
	r.ComplaintsReceived.Add(5)
	r.ComplaintsSucceeded.Add(4)
	r.DuplicatesDetected.Add(2)

	snap := r.Snapshot()
	if snap.ComplaintsReceived != 5 || snap.ComplaintsSucceeded != 4 || snap.DuplicatesDetected != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestLatencyPercentiles(t *testing.T) {
	r := NewRegistry()
	for i := 1; i <= 100; i++ {
		r.ObserveLatency(float64(i))
	}

	stats := r.Latency()
	if stats.Count != 100 {
		t.Fatalf("count = %d, want 100", stats.Count)
	}
	if stats.Min != 1 || stats.Max != 100 {
		t.Fatalf("min/max = %v/%v", stats.Min, stats.Max)
	}
	if stats.P50 < 50 || stats.P50 > 51 {
		t.Fatalf("p50 = %v", stats.P50)
	}
	if stats.P95 < 95 || stats.P95 > 96 {
		t.Fatalf("p95 = %v", stats.P95)
	}
}

func TestLatencyWindowBounded(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < histogramCap+10; i++ {
		r.ObserveLatency(1)
	}
	if got := r.Latency().Count; got > histogramCap {
		t.Fatalf("window grew past cap: %d", got)
	}
}
