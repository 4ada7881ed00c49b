package dispatcher

import (
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dshills/gridpipe/internal/midi"
	"github.com/dshills/gridpipe/internal/queue"
)

const (
	// DefaultMaxCallbacks caps the number of concurrent registrations.
	DefaultMaxCallbacks = 32

	// DefaultMaxBatch bounds how many events one DrainPending call
	// processes, keeping the consumer responsive under load.
	DefaultMaxBatch = 32

	// DefaultFeedbackWindow is the suppression window for
	// application-originated echoes.
	DefaultFeedbackWindow = 50 * time.Millisecond
)

// Dispatcher converts raw queued events into observable effects through
// interest-based callbacks, enforcing the global filter and the
// feedback-loop policy on the way.
type Dispatcher struct {
	q      *queue.Ring
	reg    *registry
	logger *slog.Logger

	globalFilter midi.Filter
	maxBatch     int

	// Feedback suppression state. Touched only by the single consumer
	// inside DrainPending, so a plain map is safe.
	feedbackWindow time.Duration
	lastAppEvent   map[uint16]time.Time
	now            func() time.Time

	// scratch is the consumer-owned reusable buffer for registration
	// snapshots; it keeps the dispatch path allocation-free.
	scratch []registration

	metrics metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithGlobalFilter replaces the default accept-everything global filter.
func WithGlobalFilter(f midi.Filter) Option {
	return func(d *Dispatcher) { d.globalFilter = f }
}

// WithFeedbackWindow sets the application-echo suppression window. Zero
// disables suppression.
func WithFeedbackWindow(w time.Duration) Option {
	return func(d *Dispatcher) {
		if w >= 0 {
			d.feedbackWindow = w
		}
	}
}

// WithMaxCallbacks sets the registration cap.
func WithMaxCallbacks(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.reg = newRegistry(n)
		}
	}
}

// WithMaxBatch sets the default DrainPending batch size.
func WithMaxBatch(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxBatch = n
		}
	}
}

// WithLogger sets the logger for suppressed/failed event reporting.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithNow overrides the clock used by feedback suppression. Tests use it
// to make window timing deterministic.
func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a dispatcher draining the given ring.
func New(q *queue.Ring, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		q:              q,
		reg:            newRegistry(DefaultMaxCallbacks),
		logger:         slog.Default(),
		globalFilter:   midi.AllowAll(),
		maxBatch:       DefaultMaxBatch,
		feedbackWindow: DefaultFeedbackWindow,
		lastAppEvent:   make(map[uint16]time.Time),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scratch = make([]registration, 0, d.reg.max)
	return d
}

// Submit pushes an event into the queue with the queue's non-blocking
// contract: false means the event was dropped and counted, and the
// caller must not retry.
func (d *Dispatcher) Submit(ev midi.Event) bool {
	return d.q.Enqueue(ev)
}

// SubmitBytes builds a three-byte event and submits it.
func (d *Dispatcher) SubmitBytes(status, data1, data2 uint8, origin midi.Origin) bool {
	return d.Submit(midi.NewEvent(status, data1, data2, origin))
}

// SubmitSysEx builds a system-exclusive event and submits it.
func (d *Dispatcher) SubmitSysEx(payload []byte, origin midi.Origin) bool {
	return d.Submit(midi.NewSysExEvent(payload, origin))
}

// RegisterCallback registers a filter+handler pair and returns its ID.
// It fails with ErrCallbackLimit once the cap is reached.
func (d *Dispatcher) RegisterCallback(filter midi.Filter, handler Handler) (CallbackID, error) {
	return d.reg.add(filter, handler)
}

// Unregister removes a callback.
func (d *Dispatcher) Unregister(id CallbackID) error {
	return d.reg.remove(id)
}

// SetEnabled toggles a callback without removing it.
func (d *Dispatcher) SetEnabled(id CallbackID, enabled bool) error {
	return d.reg.setEnabled(id, enabled)
}

// CallbackCount returns the number of registered callbacks.
func (d *Dispatcher) CallbackCount() int {
	return d.reg.count()
}

// DrainPending pulls up to max events from the queue and dispatches each
// through the global filter, the feedback-loop policy, and every enabled
// registration whose filter accepts it. max <= 0 selects the configured
// default batch size. It returns the number of events pulled.
//
// DrainPending must only be called from the single consumer context.
// Events are processed strictly in arrival order; priority metadata never
// reorders a batch.
func (d *Dispatcher) DrainPending(max int) int {
	if max <= 0 {
		max = d.maxBatch
	}

	n := 0
	for n < max {
		ev, ok := d.q.Dequeue()
		if !ok {
			break
		}
		n++
		d.process(ev)
	}
	return n
}

// process runs one event through filtering, suppression, and callbacks.
func (d *Dispatcher) process(ev midi.Event) {
	start := d.now()

	if !d.globalFilter.Accept(ev) {
		d.metrics.filtered.Add(1)
		return
	}

	if d.suppressEcho(ev, start) {
		d.metrics.suppressed.Add(1)
		d.logger.Debug("suppressed application echo",
			"status", ev.Status, "data1", ev.Data1, "seq", ev.Sequence)
		return
	}

	d.invokeCallbacks(ev)

	// Only delivered events arm the echo window; a suppressed event must
	// not extend suppression over later independent writes.
	if ev.Origin == midi.OriginApplication && d.feedbackWindow > 0 {
		d.lastAppEvent[ev.EchoKey()] = start
	}

	d.metrics.observe(d.now().Sub(start))
	d.metrics.processed.Add(1)
}

// suppressEcho applies the feedback-loop heuristic: an event from the
// application layer is dropped when another application-originated event
// on the same logical channel was processed within the window. This is a
// time window, not a causal guarantee; it exists so the application does
// not misread the hardware echo of its own write as independent input.
func (d *Dispatcher) suppressEcho(ev midi.Event, at time.Time) bool {
	if d.feedbackWindow <= 0 || ev.Origin != midi.OriginApplication {
		return false
	}
	last, seen := d.lastAppEvent[ev.EchoKey()]
	return seen && at.Sub(last) < d.feedbackWindow
}

// invokeCallbacks runs every matching registration. A failure or panic
// inside one callback never stops the remaining callbacks or corrupts
// dispatcher state.
func (d *Dispatcher) invokeCallbacks(ev midi.Event) {
	d.scratch = d.reg.matching(ev, d.scratch[:0])
	for i := range d.scratch {
		d.invokeOne(&d.scratch[i], ev)
	}
}

func (d *Dispatcher) invokeOne(reg *registration, ev midi.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.panics.Add(1)
			d.logger.Error("callback panicked",
				"callback", uint32(reg.id), "panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	d.metrics.invocations.Add(1)
	if err := reg.handler(ev); err != nil {
		d.metrics.errors.Add(1)
		d.logger.Warn("callback failed", "callback", uint32(reg.id), "error", err)
	}
}

// Metrics returns a snapshot of dispatcher counters plus the current
// queue depth.
func (d *Dispatcher) Metrics() Metrics {
	return Metrics{
		Processed:     d.metrics.processed.Load(),
		Filtered:      d.metrics.filtered.Load(),
		Suppressed:    d.metrics.suppressed.Load(),
		Invocations:   d.metrics.invocations.Load(),
		Errors:        d.metrics.errors.Load(),
		Panics:        d.metrics.panics.Load(),
		MaxProcessing: time.Duration(d.metrics.maxProcNs.Load()),
		AvgProcessing: time.Duration(d.metrics.avgProcNs.Load()),
		QueueDepth:    d.q.Depth(),
	}
}

// ResetMetrics zeroes the dispatcher counters.
func (d *Dispatcher) ResetMetrics() {
	d.metrics.reset()
}

// Queue exposes the underlying ring for observability surfaces.
func (d *Dispatcher) Queue() *queue.Ring {
	return d.q
}
