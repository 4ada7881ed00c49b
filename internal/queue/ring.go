package queue

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/dshills/gridpipe/internal/midi"
)

// DefaultSizeBits selects the default ring capacity (2^12 = 4096 slots).
const DefaultSizeBits = 12

// ErrBadCapacity is returned by New for a size outside the supported
// power-of-two range.
var ErrBadCapacity = errors.New("queue capacity bits must be between 4 and 16")

// slot is one ring cell. seq is the publication sequence: a producer may
// write the cell when seq equals its claimed position, and the consumer
// may read it only once seq equals position+1. This is what makes the
// ring safe for concurrent producers; claiming the write cursor alone is
// not enough because a slot must not be read mid-write.
type slot struct {
	seq atomic.Uint64
	ev  midi.Event
}

// Ring is a bounded lock-free queue of events for N producers and exactly
// one consumer. Enqueue never blocks and never allocates; when the ring
// is full the incoming event is rejected and counted, never retried and
// never evicting buffered events. One slot is kept unusable so a full
// ring is distinguishable from an empty one: a ring of capacity C accepts
// C-1 buffered events.
type Ring struct {
	mask  uint64
	slots []slot

	// enqPos and deqPos are kept on separate cache lines so producers
	// hammering the write cursor do not invalidate the consumer's line.
	enqPos atomic.Uint64
	_      [56]byte
	deqPos atomic.Uint64
	_      [56]byte

	// nextSeq stamps every accepted event with a system-wide strictly
	// increasing sequence number.
	nextSeq atomic.Uint64

	stats ringStats
}

// New creates a ring with 2^sizeBits slots.
func New(sizeBits int) (*Ring, error) {
	if sizeBits < 4 || sizeBits > 16 {
		return nil, ErrBadCapacity
	}
	n := uint64(1) << uint(sizeBits)
	r := &Ring{
		mask:  n - 1,
		slots: make([]slot, n),
	}
	for i := range r.slots {
		r.slots[i].seq.Store(uint64(i))
	}
	r.stats.minLatencyNs.Store(int64(^uint64(0) >> 1))
	return r, nil
}

// MustNew is New for compile-time-known sizes.
func MustNew(sizeBits int) *Ring {
	r, err := New(sizeBits)
	if err != nil {
		panic(err)
	}
	return r
}

// Enqueue offers an event to the ring. It returns false and increments
// the drop counter when the ring is full. Safe for concurrent producers.
func (r *Ring) Enqueue(ev midi.Event) bool {
	pos := r.enqPos.Load()
	for {
		// Reject when all usable slots hold unconsumed events. The
		// depth read is approximate under concurrency but always
		// conservative enough that a racing producer falls through to
		// the per-slot sequence check below.
		if pos-r.deqPos.Load() >= r.mask {
			r.stats.dropped.Add(1)
			return false
		}

		s := &r.slots[pos&r.mask]
		seq := s.seq.Load()
		switch {
		case seq == pos:
			// Slot free at our position; claim it.
			if r.enqPos.CompareAndSwap(pos, pos+1) {
				if ev.Timestamp.IsZero() {
					ev.Timestamp = time.Now()
				}
				ev.Sequence = r.nextSeq.Add(1)
				s.ev = ev
				// Publish: the consumer may read the slot now.
				s.seq.Store(pos + 1)
				r.afterEnqueue(ev)
				return true
			}
			pos = r.enqPos.Load()
		case seq < pos:
			// Consumer has not freed this slot yet.
			r.stats.dropped.Add(1)
			return false
		default:
			// Another producer claimed pos; move on.
			pos = r.enqPos.Load()
		}
	}
}

// Dequeue removes the oldest event. Consumer-only. It reports false when
// the ring is empty.
func (r *Ring) Dequeue() (midi.Event, bool) {
	pos := r.deqPos.Load()
	s := &r.slots[pos&r.mask]
	if s.seq.Load() != pos+1 {
		// Next slot not yet published.
		return midi.Event{}, false
	}
	ev := s.ev
	s.ev = midi.Event{}
	// Free the slot for the producer one lap ahead.
	s.seq.Store(pos + r.mask + 1)
	r.deqPos.Store(pos + 1)

	r.stats.dequeued.Add(1)
	r.observeLatency(ev.Timestamp)
	return ev, true
}

// Peek returns the oldest event without removing it. Consumer-only.
func (r *Ring) Peek() (midi.Event, bool) {
	pos := r.deqPos.Load()
	s := &r.slots[pos&r.mask]
	if s.seq.Load() != pos+1 {
		return midi.Event{}, false
	}
	return s.ev, true
}

// Depth returns the approximate number of buffered events.
func (r *Ring) Depth() int {
	enq := r.enqPos.Load()
	deq := r.deqPos.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}

// Capacity returns the number of slots in the ring. One slot is reserved,
// so Capacity()-1 events fit.
func (r *Ring) Capacity() int {
	return len(r.slots)
}

// Empty reports whether the ring appears empty.
func (r *Ring) Empty() bool {
	return r.Depth() == 0
}

// Full reports whether the ring appears full.
func (r *Ring) Full() bool {
	return r.Depth() >= int(r.mask)
}

func (r *Ring) afterEnqueue(ev midi.Event) {
	r.stats.enqueued.Add(1)
	if ev.Origin.Valid() {
		r.stats.byOrigin[ev.Origin].Add(1)
	}
	depth := uint64(r.Depth())
	for {
		cur := r.stats.maxDepth.Load()
		if depth <= cur || r.stats.maxDepth.CompareAndSwap(cur, depth) {
			break
		}
	}
}

func (r *Ring) observeLatency(captured time.Time) {
	if captured.IsZero() {
		return
	}
	lat := time.Since(captured).Nanoseconds()
	if lat < 0 {
		lat = 0
	}
	r.stats.totalLatencyNs.Add(lat)
	for {
		cur := r.stats.maxLatencyNs.Load()
		if lat <= cur || r.stats.maxLatencyNs.CompareAndSwap(cur, lat) {
			break
		}
	}
	for {
		cur := r.stats.minLatencyNs.Load()
		if lat >= cur || r.stats.minLatencyNs.CompareAndSwap(cur, lat) {
			break
		}
	}
}
