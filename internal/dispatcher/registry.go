package dispatcher

import (
	"sync"

	"github.com/dshills/gridpipe/internal/midi"
)

// CallbackID identifies a registered callback.
type CallbackID uint32

// Handler receives dispatched events. A non-nil error is counted but
// never aborts the remaining callbacks in a batch.
type Handler func(midi.Event) error

// registration pairs an interest filter with its handler. Registrations
// are owned exclusively by the dispatcher from RegisterCallback until
// Unregister.
type registration struct {
	id      CallbackID
	filter  midi.Filter
	handler Handler
	enabled bool
}

// registry holds the capped set of callback registrations. Dispatch is
// allocation-free: registrations live in a flat slice snapshot-copied
// under a read lock.
type registry struct {
	mu     sync.RWMutex
	max    int
	nextID CallbackID
	regs   []registration
}

func newRegistry(max int) *registry {
	return &registry{
		max:    max,
		nextID: 1,
		regs:   make([]registration, 0, max),
	}
}

// add registers a filter+handler pair. It fails once the cap is reached.
func (r *registry) add(filter midi.Filter, handler Handler) (CallbackID, error) {
	if handler == nil {
		return 0, ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.regs) >= r.max {
		return 0, ErrCallbackLimit
	}

	id := r.nextID
	r.nextID++
	r.regs = append(r.regs, registration{
		id:      id,
		filter:  filter,
		handler: handler,
		enabled: true,
	})
	return id, nil
}

// remove unregisters a callback by ID.
func (r *registry) remove(id CallbackID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.regs {
		if r.regs[i].id == id {
			r.regs = append(r.regs[:i], r.regs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// setEnabled toggles a callback without unregistering it.
func (r *registry) setEnabled(id CallbackID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.regs {
		if r.regs[i].id == id {
			r.regs[i].enabled = enabled
			return nil
		}
	}
	return ErrNotFound
}

// count returns the number of registrations.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regs)
}

// matching appends every enabled registration whose filter accepts the
// event to scratch and returns it. The copy lets the caller invoke
// handlers outside the lock, so a handler may unregister itself or others
// without deadlocking. scratch is reused by the single consumer; passing
// a slice with capacity max keeps dispatch allocation-free.
func (r *registry) matching(ev midi.Event, scratch []registration) []registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.regs {
		reg := &r.regs[i]
		if reg.enabled && reg.filter.Accept(ev) {
			scratch = append(scratch, *reg)
		}
	}
	return scratch
}
