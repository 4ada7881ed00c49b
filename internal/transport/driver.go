package transport

import (
	"errors"
	"time"
)

// errReadTimeout is returned by drivers when a read window elapses with
// no frame available. It is the reader loop's idle signal, never
// surfaced to callers.
var errReadTimeout = errors.New("transport: read timed out")

// DeviceInfo describes one discoverable grid controller.
type DeviceInfo struct {
	Name      string
	VendorID  uint16
	ProductID uint16
	// Port is the backend-specific handle used to open the device.
	Port int
}

// Driver is one duplex frame endpoint. ReadFrame blocks up to timeout
// and returns errReadTimeout when nothing arrived; WriteFrame blocks
// until the frame is on the wire. Implementations need not be safe for
// concurrent use: the transport serializes access with its endpoint lock.
type Driver interface {
	ReadFrame(timeout time.Duration) (Frame, error)
	WriteFrame(Frame) error
	Close() error
}

// Opener discovers devices and opens drivers for them. The production
// implementation sits on the system MIDI backend; tests substitute a
// simulated opener.
type Opener interface {
	Discover() ([]DeviceInfo, error)
	Open(DeviceInfo) (Driver, error)
}
