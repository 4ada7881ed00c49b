// Package queue implements the bounded lock-free ring buffer that sits
// between event producers (the device reader, the application, test
// simulators) and the single processing-loop consumer.
//
// # Design
//
// The ring has a fixed power-of-two capacity so indexing is a bitmask.
// Producers claim a slot by compare-and-swap on the write cursor and then
// publish it through a per-slot sequence counter; the consumer treats a
// slot as valid only once published. The write and read cursors live on
// separate cache lines to avoid false sharing.
//
// # Overflow policy
//
// The ring rejects the incoming event when full (drop-on-full) rather
// than evicting the oldest buffered one. Producers must treat a false
// return as a counted drop, never retry until success: the contract
// exists to preserve the real-time bound of the calling context, such as
// the USB poll loop.
//
// Every accepted event is stamped with a fresh monotonic sequence number
// and, if the producer left it unset, a capture timestamp. Dequeue
// maintains rolling latency statistics from capture to consumption.
package queue
