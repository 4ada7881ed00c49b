package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session identifies one connection to a device, from Open to Close.
type Session struct {
	ID       string
	Device   DeviceInfo
	OpenedAt time.Time

	mu       sync.Mutex
	closedAt time.Time
}

func newSession(dev DeviceInfo) *Session {
	return &Session{
		ID:       uuid.New().String(),
		Device:   dev,
		OpenedAt: time.Now(),
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedAt.IsZero() {
		s.closedAt = time.Now()
	}
}

// Connected reports whether the session is still open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedAt.IsZero()
}

// Uptime returns how long the session has been (or was) connected.
func (s *Session) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closedAt.IsZero() {
		return time.Since(s.OpenedAt)
	}
	return s.closedAt.Sub(s.OpenedAt)
}
