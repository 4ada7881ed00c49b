package transport

import "errors"

var (
	// ErrDeviceNotFound indicates discovery found no matching device.
	ErrDeviceNotFound = errors.New("transport: device not found")

	// ErrOpenFailed indicates the device was found but could not be opened.
	ErrOpenFailed = errors.New("transport: open failed")

	// ErrClaimFailed indicates the MIDI interface could not be claimed,
	// typically because another process holds it.
	ErrClaimFailed = errors.New("transport: interface claim failed")

	// ErrTransferFailed indicates a bulk read or write failed on an
	// otherwise open device.
	ErrTransferFailed = errors.New("transport: transfer failed")

	// ErrPauseTimeout indicates the reader did not acknowledge a pause
	// request within the configured window.
	ErrPauseTimeout = errors.New("transport: pause acknowledgement timed out")

	// ErrNotOpen indicates an operation on a closed or never-opened transport.
	ErrNotOpen = errors.New("transport: not open")

	// ErrAlreadyOpen indicates Open on a transport that is already connected.
	ErrAlreadyOpen = errors.New("transport: already open")

	// ErrInvalidArgument indicates a malformed request, such as
	// mismatched batch slices or an out-of-range value.
	ErrInvalidArgument = errors.New("transport: invalid argument")
)
