package transport

import (
	"sync"
	"time"
)

// SimDriver is an in-memory endpoint double. Inbound frames are
// injected by tests; outbound frames are recorded with timestamps.
// Fault injection covers failing writes and a stuck read endpoint.
type SimDriver struct {
	mu      sync.Mutex
	inbound chan Frame
	sent    []Frame
	sentAt  []time.Time
	closed  bool

	// FailWritesAfter makes WriteFrame return ErrTransferFailed once
	// that many frames have been accepted; 0 disables the fault.
	FailWritesAfter int

	// ReadStall makes ReadFrame ignore its timeout and block for this
	// long, simulating a wedged bulk endpoint.
	ReadStall time.Duration
}

// NewSimDriver returns a driver with room for 256 injected frames.
func NewSimDriver() *SimDriver {
	return &SimDriver{inbound: make(chan Frame, 256)}
}

// Inject queues a frame for the next ReadFrame, as if the device sent it.
func (s *SimDriver) Inject(f Frame) {
	s.inbound <- f
}

// InjectShort queues a three-byte message as one inbound frame.
func (s *SimDriver) InjectShort(status, data1, data2 uint8) {
	s.Inject(EncodeShort(status, data1, data2))
}

func (s *SimDriver) ReadFrame(timeout time.Duration) (Frame, error) {
	if stall := s.stall(); stall > 0 {
		time.Sleep(stall)
		return Frame{}, errReadTimeout
	}
	select {
	case f := <-s.inbound:
		return f, nil
	case <-time.After(timeout):
		return Frame{}, errReadTimeout
	}
}

func (s *SimDriver) WriteFrame(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrTransferFailed
	}
	if s.FailWritesAfter > 0 && len(s.sent) >= s.FailWritesAfter {
		return ErrTransferFailed
	}
	s.sent = append(s.sent, f)
	s.sentAt = append(s.sentAt, time.Now())
	return nil
}

func (s *SimDriver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Sent returns a copy of all frames written so far.
func (s *SimDriver) Sent() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.sent))
	copy(out, s.sent)
	return out
}

// SentAt returns the write timestamp of each recorded frame.
func (s *SimDriver) SentAt() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, len(s.sentAt))
	copy(out, s.sentAt)
	return out
}

// SentMessages decodes the recorded frames back into complete events,
// reassembling chunked SysEx payloads.
func (s *SimDriver) SentMessages() [][]byte {
	var dec Decoder
	var msgs [][]byte
	for _, f := range s.Sent() {
		ev, ok := dec.Feed(f)
		if !ok {
			continue
		}
		if ev.IsSysEx() {
			msgs = append(msgs, ev.SysEx)
		} else {
			msgs = append(msgs, []byte{ev.Status, ev.Data1, ev.Data2})
		}
	}
	return msgs
}

func (s *SimDriver) stall() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ReadStall
}

// SetReadStall changes the stuck-endpoint fault at runtime.
func (s *SimDriver) SetReadStall(d time.Duration) {
	s.mu.Lock()
	s.ReadStall = d
	s.mu.Unlock()
}

// SimOpener serves a fixed device list and hands out prebuilt drivers.
type SimOpener struct {
	Devices []DeviceInfo
	Driver  *SimDriver

	// OpenErr, when set, is returned from Open instead of the driver.
	OpenErr error
}

// NewSimOpener returns an opener advertising one grid controller backed
// by the given driver.
func NewSimOpener(drv *SimDriver) *SimOpener {
	return &SimOpener{
		Devices: []DeviceInfo{{
			Name:      "APC mini mk2",
			VendorID:  0x09E8,
			ProductID: 0x004F,
		}},
		Driver: drv,
	}
}

func (o *SimOpener) Discover() ([]DeviceInfo, error) {
	return o.Devices, nil
}

func (o *SimOpener) Open(DeviceInfo) (Driver, error) {
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	return o.Driver, nil
}
