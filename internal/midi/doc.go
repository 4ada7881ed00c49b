// Package midi defines the event model shared by the queue, dispatcher,
// and transport: the Event value type with its origin tag, priority
// class, capture timestamp and sequence number, plus the pure Filter
// predicate used for both the global dispatch filter and per-callback
// interest matching.
//
// Events are plain values. They are created once at capture time,
// enqueued exactly once, dequeued exactly once by the single consumer,
// and discarded after dispatch; nothing in this package is stateful.
package midi
