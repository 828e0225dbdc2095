// Package worker defines the Worker value type pooled by package pool.
//
// A Worker wraps an opaque, caller-constructed script-interpreter handle.
// The interpreter itself (loading gems, wiring a load path, tearing down
// scripting-container state) is entirely the concern of the Create/Cleanup
// hooks in this package; Worker only carries the identity the pool needs to
// track it.
package worker

import "time"

// Worker is an expensive, non-thread-shareable execution context. It is
// created by a CreateFunc, owned exclusively by the pool while idle,
// transferred to a single borrower while in use, and destroyed by a
// CleanupFunc. Worker values are immutable after construction.
type Worker struct {
	id      int32
	handle  interface{}
	created time.Time
}

// New wraps handle, the opaque interpreter handle produced by a CreateFunc,
// into a Worker with the given stable id.
func New(id int32, handle interface{}) *Worker {
	return &Worker{
		id:      id,
		handle:  handle,
		created: time.Now(),
	}
}

// ID returns the worker's stable id. IDs are unique among live workers and
// stable across refill generations modulo the pool size (see
// pool.nextInstanceID).
func (w *Worker) ID() int32 {
	if w == nil {
		return 0
	}
	return w.id
}

// Handle returns the opaque interpreter handle supplied at construction.
// The pool core never inspects it; only the caller's hooks do.
func (w *Worker) Handle() interface{} {
	if w == nil {
		return nil
	}
	return w.handle
}

// Created returns the time this Worker was constructed.
func (w *Worker) Created() time.Time {
	return w.created
}
