package dispatcher

import (
	"sync/atomic"
	"time"
)

// metrics holds the dispatcher's counters, updated with atomics so
// Metrics() can be read from any goroutine while the loop is draining.
type metrics struct {
	processed   atomic.Uint64
	filtered    atomic.Uint64
	suppressed  atomic.Uint64
	invocations atomic.Uint64
	errors      atomic.Uint64
	panics      atomic.Uint64

	maxProcNs atomic.Int64
	avgProcNs atomic.Int64
}

// Metrics is a point-in-time snapshot of dispatcher counters.
type Metrics struct {
	// Processed counts events that passed filtering and reached the
	// callback stage.
	Processed uint64

	// Filtered counts events rejected by the global filter.
	Filtered uint64

	// Suppressed counts application-origin events dropped by the
	// feedback-loop window.
	Suppressed uint64

	// Invocations counts individual callback executions.
	Invocations uint64

	// Errors and Panics count isolated callback failures.
	Errors uint64
	Panics uint64

	// MaxProcessing and AvgProcessing track per-event dispatch cost.
	// The average is an exponential moving average weighted toward
	// history.
	MaxProcessing time.Duration
	AvgProcessing time.Duration

	// QueueDepth is the queue depth at snapshot time.
	QueueDepth int
}

// observe records one event's processing time. The moving average keeps
// seven parts history to one part new sample.
func (m *metrics) observe(d time.Duration) {
	ns := d.Nanoseconds()
	for {
		cur := m.maxProcNs.Load()
		if ns <= cur || m.maxProcNs.CompareAndSwap(cur, ns) {
			break
		}
	}
	for {
		cur := m.avgProcNs.Load()
		next := (cur*7 + ns) / 8
		if m.avgProcNs.CompareAndSwap(cur, next) {
			break
		}
	}
}

func (m *metrics) reset() {
	m.processed.Store(0)
	m.filtered.Store(0)
	m.suppressed.Store(0)
	m.invocations.Store(0)
	m.errors.Store(0)
	m.panics.Store(0)
	m.maxProcNs.Store(0)
	m.avgProcNs.Store(0)
}
