package dispatcher

import "errors"

// Sentinel errors for the dispatcher package.
var (
	// ErrCallbackLimit is returned by RegisterCallback once the
	// registration cap is reached.
	ErrCallbackLimit = errors.New("callback registration limit reached")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrNotFound is returned when a callback ID does not exist.
	ErrNotFound = errors.New("callback not found")

	// ErrAlreadyRunning is returned when Start is called on a running
	// loop.
	ErrAlreadyRunning = errors.New("processing loop is already running")

	// ErrNotRunning is returned when Stop is called on a stopped loop.
	ErrNotRunning = errors.New("processing loop is not running")
)
