package queue

import (
	"sync/atomic"
	"time"

	"github.com/dshills/gridpipe/internal/midi"
)

// ringStats holds the ring's counters. All fields are updated with
// atomics so producers never contend on a lock; individual values in a
// snapshot may be slightly inconsistent with each other, which is fine
// for monitoring.
type ringStats struct {
	enqueued atomic.Uint64
	dequeued atomic.Uint64
	dropped  atomic.Uint64
	maxDepth atomic.Uint64
	byOrigin [midi.OriginCount]atomic.Uint64

	totalLatencyNs atomic.Int64
	maxLatencyNs   atomic.Int64
	minLatencyNs   atomic.Int64
}

// Snapshot is a point-in-time copy of the ring's counters.
type Snapshot struct {
	Enqueued uint64
	Dequeued uint64
	Dropped  uint64
	MaxDepth uint64
	ByOrigin [midi.OriginCount]uint64

	// Dequeue latency (now minus capture timestamp).
	TotalLatency time.Duration
	MaxLatency   time.Duration
	MinLatency   time.Duration
	AvgLatency   time.Duration
}

// Stats returns a snapshot of the ring's counters.
func (r *Ring) Stats() Snapshot {
	snap := Snapshot{
		Enqueued:     r.stats.enqueued.Load(),
		Dequeued:     r.stats.dequeued.Load(),
		Dropped:      r.stats.dropped.Load(),
		MaxDepth:     r.stats.maxDepth.Load(),
		TotalLatency: time.Duration(r.stats.totalLatencyNs.Load()),
		MaxLatency:   time.Duration(r.stats.maxLatencyNs.Load()),
	}
	for i := range snap.ByOrigin {
		snap.ByOrigin[i] = r.stats.byOrigin[i].Load()
	}
	if min := r.stats.minLatencyNs.Load(); snap.Dequeued > 0 {
		snap.MinLatency = time.Duration(min)
		snap.AvgLatency = snap.TotalLatency / time.Duration(snap.Dequeued)
	}
	return snap
}

// ResetStats zeroes the counters. Consumer-only; calling it while
// producers are active only skews the numbers, it cannot corrupt the
// ring itself.
func (r *Ring) ResetStats() {
	r.stats.enqueued.Store(0)
	r.stats.dequeued.Store(0)
	r.stats.dropped.Store(0)
	r.stats.maxDepth.Store(0)
	for i := range r.stats.byOrigin {
		r.stats.byOrigin[i].Store(0)
	}
	r.stats.totalLatencyNs.Store(0)
	r.stats.maxLatencyNs.Store(0)
	r.stats.minLatencyNs.Store(int64(^uint64(0) >> 1))
}
