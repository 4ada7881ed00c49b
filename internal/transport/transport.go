package transport

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/gridpipe/internal/apcmini"
	"github.com/dshills/gridpipe/internal/midi"
)

const (
	// DefaultPauseTimeout bounds how long Pause waits for the reader
	// to acknowledge before giving up.
	DefaultPauseTimeout = 250 * time.Millisecond

	// DefaultReadTimeout is the reader's per-call blocking window. It
	// also bounds how long a writer can wait behind the endpoint lock.
	DefaultReadTimeout = 10 * time.Millisecond

	// pausedPoll is how often a paused reader checks for resume.
	pausedPoll = time.Millisecond
)

// EventSink receives every event decoded from the device.
type EventSink func(midi.Event)

// Transport owns one duplex connection to a grid controller: a reader
// goroutine draining the inbound endpoint and a writer path sharing the
// same endpoint lock. Pause parks the reader at a safe point so bulk
// output such as a full-surface repaint is not interleaved with reads.
type Transport struct {
	opener Opener
	logger *slog.Logger

	pauseTimeout time.Duration
	readTimeout  time.Duration
	sink         EventSink
	version      [3]uint8
	preferredPID []uint16

	mu      sync.Mutex // lifecycle
	drv     Driver
	session *Session
	stop    chan struct{}
	wg      sync.WaitGroup

	// ep serializes all driver access between reader and writers.
	ep sync.Mutex

	// pauseMu guards the pause request flag and its acknowledgement
	// channel. The channel is single-use: each pause cycle allocates a
	// fresh one, so a late acknowledgement from a previous cycle can
	// never satisfy a new request.
	pauseMu  sync.Mutex
	paused   bool
	pauseAck chan struct{}

	sent       atomic.Uint64
	received   atomic.Uint64
	xferErrs   atomic.Uint64
	dropped    atomic.Uint64
	writeNsMax atomic.Int64
	writeNsAvg atomic.Int64
}

// Option configures a Transport.
type Option func(*Transport)

// WithOpener substitutes the device backend; tests pass a SimOpener.
func WithOpener(o Opener) Option {
	return func(t *Transport) { t.opener = o }
}

// WithEventSink sets the destination for decoded inbound events.
func WithEventSink(sink EventSink) Option {
	return func(t *Transport) { t.sink = sink }
}

// WithPauseTimeout overrides the pause acknowledgement window.
func WithPauseTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.pauseTimeout = d
		}
	}
}

// WithReadTimeout overrides the reader's blocking window.
func WithReadTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.readTimeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithAppVersion sets the version bytes announced in the introduction
// handshake.
func WithAppVersion(major, minor, patch uint8) Option {
	return func(t *Transport) { t.version = [3]uint8{major, minor, patch} }
}

// WithProductPreference orders device selection by product ID when more
// than one supported controller is attached.
func WithProductPreference(ids []uint16) Option {
	return func(t *Transport) { t.preferredPID = ids }
}

// New returns an unopened transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		opener:       PortOpener{},
		logger:       slog.Default(),
		pauseTimeout: DefaultPauseTimeout,
		readTimeout:  DefaultReadTimeout,
		sink:         func(midi.Event) {},
		version:      [3]uint8{0, 1, 0},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open discovers the controller, claims it, starts the reader, and
// performs the introduction handshake. The handshake runs under pause
// so the device's reply burst is the first thing the reader sees.
func (t *Transport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drv != nil {
		return ErrAlreadyOpen
	}

	devs, err := t.opener.Discover()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	if len(devs) == 0 {
		return ErrDeviceNotFound
	}
	dev := t.selectDevice(devs)

	drv, err := t.opener.Open(dev)
	if err != nil {
		return err
	}

	t.drv = drv
	t.session = newSession(dev)
	t.stop = make(chan struct{})
	t.wg.Add(1)
	go t.readLoop(drv, t.stop)

	t.logger.Info("transport open",
		"device", dev.Name,
		"vendor_id", fmt.Sprintf("%#04x", dev.VendorID),
		"product_id", fmt.Sprintf("%#04x", dev.ProductID),
		"session", t.session.ID)

	if err := t.introduce(drv); err != nil {
		t.logger.Warn("introduction handshake failed", "error", err)
	}
	return nil
}

// selectDevice honors the product ID preference order, falling back to
// the first discovered device.
func (t *Transport) selectDevice(devs []DeviceInfo) DeviceInfo {
	for _, pid := range t.preferredPID {
		for _, dev := range devs {
			if dev.ProductID == pid {
				return dev
			}
		}
	}
	return devs[0]
}

// introduce sends the application identification SysEx while the reader
// is parked.
func (t *Transport) introduce(drv Driver) error {
	if err := t.Pause(); err != nil {
		return err
	}
	defer t.Resume()
	msg := apcmini.IntroductionMessage(t.version[0], t.version[1], t.version[2])
	return t.writeSysEx(drv, msg)
}

// Close stops the reader, releases the device, and marks the session
// ended. It is safe to call more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drv == nil {
		return ErrNotOpen
	}
	close(t.stop)
	t.wg.Wait()
	err := t.drv.Close()
	t.drv = nil
	t.session.close()
	t.logger.Info("transport closed", "session", t.session.ID)
	return err
}

// readLoop drains the inbound endpoint on a dedicated goroutine until
// stop closes. Malformed frames are dropped and counted; transfer
// errors are counted and retried after a short backoff so a transient
// fault does not kill the connection.
func (t *Transport) readLoop(drv Driver, stop chan struct{}) {
	defer t.wg.Done()
	var dec Decoder

	for {
		select {
		case <-stop:
			return
		default:
		}

		if t.pauseRequested() {
			t.ackPause()
			if !t.waitResume(stop) {
				return
			}
			continue
		}

		t.ep.Lock()
		f, err := drv.ReadFrame(t.readTimeout)
		t.ep.Unlock()

		if err == errReadTimeout {
			continue
		}
		if err != nil {
			t.xferErrs.Add(1)
			t.logger.Warn("read failed", "error", err)
			select {
			case <-stop:
				return
			case <-time.After(t.readTimeout):
			}
			continue
		}

		before := dec.Malformed()
		ev, ok := dec.Feed(f)
		if dropped := dec.Malformed() - before; dropped > 0 {
			t.dropped.Add(dropped)
		}
		if !ok {
			continue
		}

		ev.Origin = midi.OriginHardwareUSB
		ev.Timestamp = time.Now()
		t.received.Add(1)
		t.sink(ev)
	}
}

func (t *Transport) pauseRequested() bool {
	t.pauseMu.Lock()
	defer t.pauseMu.Unlock()
	return t.paused
}

// ackPause signals the waiting pauser exactly once. A nil channel means
// the current cycle was already acknowledged, or the pauser timed out
// and tore the channel down.
func (t *Transport) ackPause() {
	t.pauseMu.Lock()
	defer t.pauseMu.Unlock()
	if t.pauseAck != nil {
		close(t.pauseAck)
		t.pauseAck = nil
	}
}

// waitResume parks until the pause flag clears. Returns false when the
// transport is stopping.
func (t *Transport) waitResume(stop chan struct{}) bool {
	for t.pauseRequested() {
		select {
		case <-stop:
			return false
		case <-time.After(pausedPoll):
		}
	}
	return true
}

// Pause asks the reader to park and waits for acknowledgement. A reader
// stuck mid-transfer cannot block the caller past the timeout: Pause
// returns ErrPauseTimeout and leaves the flag set, so the reader still
// parks as soon as its transfer completes. Pausing an already-paused
// transport succeeds immediately.
func (t *Transport) Pause() error {
	t.pauseMu.Lock()
	if t.paused {
		t.pauseMu.Unlock()
		return nil
	}
	ack := make(chan struct{})
	t.paused = true
	t.pauseAck = ack
	t.pauseMu.Unlock()

	select {
	case <-ack:
		return nil
	case <-time.After(t.pauseTimeout):
		t.pauseMu.Lock()
		if t.pauseAck == ack {
			t.pauseAck = nil
		}
		t.pauseMu.Unlock()
		return ErrPauseTimeout
	}
}

// Resume releases a paused reader. The reader notices within its paused
// polling interval.
func (t *Transport) Resume() {
	t.pauseMu.Lock()
	t.paused = false
	// Drop any unacknowledged channel so it cannot leak into a later cycle.
	t.pauseAck = nil
	t.pauseMu.Unlock()
}

func (t *Transport) driver() (Driver, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.drv == nil {
		return nil, ErrNotOpen
	}
	return t.drv, nil
}

// Send writes one three-byte message to the device.
func (t *Transport) Send(status, data1, data2 uint8) error {
	drv, err := t.driver()
	if err != nil {
		return err
	}
	t.ep.Lock()
	err = t.writeFrame(drv, EncodeShort(status, data1, data2))
	t.ep.Unlock()
	return err
}

// SendSysEx writes one system-exclusive payload (without framing bytes)
// to the device. All chunks of one message go out under a single hold
// of the endpoint lock so the reader cannot interleave.
func (t *Transport) SendSysEx(payload []byte) error {
	drv, err := t.driver()
	if err != nil {
		return err
	}
	return t.writeSysEx(drv, payload)
}

func (t *Transport) writeSysEx(drv Driver, payload []byte) error {
	t.ep.Lock()
	defer t.ep.Unlock()
	for _, f := range EncodeSysEx(payload) {
		if err := t.writeFrame(drv, f); err != nil {
			return err
		}
	}
	return nil
}

// writeFrame performs one timed write. Callers hold t.ep.
func (t *Transport) writeFrame(drv Driver, f Frame) error {
	start := time.Now()
	err := drv.WriteFrame(f)
	ns := time.Since(start).Nanoseconds()

	if err != nil {
		t.xferErrs.Add(1)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	t.sent.Add(1)
	if ns > t.writeNsMax.Load() {
		t.writeNsMax.Store(ns)
	}
	// Running average weighted heavily toward history, same shape as
	// the dispatcher's processing-time tracker.
	cur := t.writeNsAvg.Load()
	if cur == 0 {
		t.writeNsAvg.Store(ns)
	} else {
		t.writeNsAvg.Store((cur*7 + ns) / 8)
	}
	return nil
}

// SetOutput lights one control: a note-on carrying the LED index and
// its velocity-coded color or behavior.
func (t *Transport) SetOutput(index, value uint8) error {
	if index > 0x7F || value > 0x7F {
		return fmt.Errorf("%w: index %#x value %#x", ErrInvalidArgument, index, value)
	}
	return t.Send(midi.StatusNoteOn, index, value)
}

// BatchSend updates many LEDs under a single pause so the device never
// sees a read-write interleave mid-repaint. A pause timeout is not
// fatal: the endpoint lock still serializes the writes, so the batch
// proceeds and the timeout is only logged.
func (t *Transport) BatchSend(indices, values []uint8) error {
	if len(indices) != len(values) {
		return fmt.Errorf("%w: %d indices, %d values", ErrInvalidArgument, len(indices), len(values))
	}
	if len(indices) == 0 {
		return nil
	}
	drv, err := t.driver()
	if err != nil {
		return err
	}

	if err := t.Pause(); err != nil {
		t.logger.Warn("batch proceeding without pause", "error", err)
	}
	defer t.Resume()

	t.ep.Lock()
	defer t.ep.Unlock()
	for i := range indices {
		if indices[i] > 0x7F || values[i] > 0x7F {
			return fmt.Errorf("%w: entry %d", ErrInvalidArgument, i)
		}
		if err := t.writeFrame(drv, EncodeShort(midi.StatusNoteOn, indices[i], values[i])); err != nil {
			return err
		}
	}
	return nil
}

// Session returns the current session, or nil before Open.
func (t *Transport) Session() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Stats returns a snapshot of transfer counters.
func (t *Transport) Stats() Stats {
	return Stats{
		Sent:          t.sent.Load(),
		Received:      t.received.Load(),
		TransferErrs:  t.xferErrs.Load(),
		DroppedFrames: t.dropped.Load(),
		WriteAvg:      time.Duration(t.writeNsAvg.Load()),
		WriteMax:      time.Duration(t.writeNsMax.Load()),
	}
}

// Stats is a point-in-time view of transfer counters.
type Stats struct {
	Sent          uint64
	Received      uint64
	TransferErrs  uint64
	DroppedFrames uint64
	WriteAvg      time.Duration
	WriteMax      time.Duration
}
