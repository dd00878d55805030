// Package metrics counts pipeline events and tracks processing latency for
// the operational endpoint. Counters are process-local; an external sink can
// scrape the snapshot.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

const histogramCap = 4096

type Registry struct {
	ComplaintsReceived  atomic.Int64
	ComplaintsSucceeded atomic.Int64
	ComplaintsRejected  atomic.Int64
	ComplaintsFailed    atomic.Int64
	DuplicatesDetected  atomic.Int64
	IssuesCreated       atomic.Int64
	SessionsCreated     atomic.Int64
	FollowUps           atomic.Int64
	Escalations         atomic.Int64
	NoiseFlags          atomic.Int64
	DegradedEmbeddings  atomic.Int64

	mu        sync.Mutex
	latencies []float64
}

func NewRegistry() *Registry {
	return &Registry{}
}

// ObserveLatency records one processing latency in milliseconds. The window
// is bounded; the oldest half is dropped when full.
func (r *Registry) ObserveLatency(ms float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.latencies) >= histogramCap {
		r.latencies = append(r.latencies[:0], r.latencies[histogramCap/2:]...)
	}
	r.latencies = append(r.latencies, ms)
}

type LatencyStats struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg_ms"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
	P50   float64 `json:"p50_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
}

func (r *Registry) Latency() LatencyStats {
	r.mu.Lock()
	values := append([]float64(nil), r.latencies...)
	r.mu.Unlock()

	if len(values) == 0 {
		return LatencyStats{}
	}
	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	return LatencyStats{
		Count: len(values),
		Avg:   sum / float64(len(values)),
		Min:   values[0],
		Max:   values[len(values)-1],
		P50:   percentile(values, 50),
		P95:   percentile(values, 95),
		P99:   percentile(values, 99),
	}
}

func percentile(sorted []float64, p int) float64 {
	k := float64(len(sorted)-1) * float64(p) / 100
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[f] + (k-float64(f))*(sorted[c]-sorted[f])
}

// Snapshot is the JSON form served at the metrics endpoint.
type Snapshot struct {
	ComplaintsReceived  int64        `json:"complaints_received"`
	ComplaintsSucceeded int64        `json:"complaints_succeeded"`
	ComplaintsRejected  int64        `json:"complaints_rejected"`
	ComplaintsFailed    int64        `json:"complaints_failed"`
	DuplicatesDetected  int64        `json:"duplicates_detected"`
	IssuesCreated       int64        `json:"issues_created"`
	SessionsCreated     int64        `json:"sessions_created"`
	FollowUps           int64        `json:"follow_ups"`
	Escalations         int64        `json:"escalations"`
	NoiseFlags          int64        `json:"noise_flags"`
	DegradedEmbeddings  int64        `json:"degraded_embeddings"`
	Latency             LatencyStats `json:"processing_latency"`
}

func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		ComplaintsReceived:  r.ComplaintsReceived.Load(),
		ComplaintsSucceeded: r.ComplaintsSucceeded.Load(),
		ComplaintsRejected:  r.ComplaintsRejected.Load(),
		ComplaintsFailed:    r.ComplaintsFailed.Load(),
		DuplicatesDetected:  r.DuplicatesDetected.Load(),
		IssuesCreated:       r.IssuesCreated.Load(),
		SessionsCreated:     r.SessionsCreated.Load(),
		FollowUps:           r.FollowUps.Load(),
		Escalations:         r.Escalations.Load(),
		NoiseFlags:          r.NoiseFlags.Load(),
		DegradedEmbeddings:  r.DegradedEmbeddings.Load(),
		Latency:             r.Latency(),
	}
}
