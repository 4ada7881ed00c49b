// Package dispatcher consumes events from the ring buffer and delivers
// them to interest-based callbacks.
//
// The Dispatcher applies, in order: the global filter, the feedback-loop
// suppression window for application-originated echoes, and then every
// enabled registration whose filter accepts the event. Callback failures
// are isolated per callback and counted; one bad handler never aborts
// the rest of a batch.
//
// Priority metadata on events is informational only. Events are
// dispatched strictly in arrival order within a batch, never reordered
// by priority.
//
// The Loop owns the single consumer goroutine, draining the dispatcher
// at a fixed interval (1ms by default). Exactly one consumer context may
// drain a dispatcher; Submit is safe from any goroutine.
package dispatcher
