package dispatcher

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is the loop's default drain cadence. MIDI timing
// needs sub-10ms responsiveness end to end, so the loop polls well below
// that.
const DefaultPollInterval = time.Millisecond

// Loop drives DrainPending on a fixed schedule from a dedicated
// goroutine, decoupling consumption from whichever goroutines enqueue.
type Loop struct {
	d        *Dispatcher
	interval time.Duration
	batch    int

	mu      sync.Mutex
	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithPollInterval sets the drain cadence.
func WithPollInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithBatch sets the per-tick batch size passed to DrainPending.
func WithBatch(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.batch = n
		}
	}
}

// NewLoop creates a processing loop for the dispatcher.
func NewLoop(d *Dispatcher, opts ...LoopOption) *Loop {
	l := &Loop{
		d:        d,
		interval: DefaultPollInterval,
		batch:    DefaultMaxBatch,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the worker goroutine. Calling Start on a running loop
// is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return
	}
	l.stop = make(chan struct{})
	l.running.Store(true)
	l.wg.Add(1)
	go l.run(l.stop)
}

// Stop signals the worker and joins it before returning, so the
// dispatcher is guaranteed unused after Stop. Calling Stop on a stopped
// loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return
	}
	l.running.Store(false)
	close(l.stop)
	l.mu.Unlock()

	l.wg.Wait()
}

// Running reports whether the worker is active.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Interval returns the configured poll interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

func (l *Loop) run(stop chan struct{}) {
	defer l.wg.Done()

	// Pinning the consumer to one OS thread reduces scheduling jitter
	// on the drain cadence.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			// Final drain so events submitted before Stop are not
			// stranded.
			l.d.DrainPending(l.batch)
			return
		case <-ticker.C:
			l.d.DrainPending(l.batch)
		}
	}
}
