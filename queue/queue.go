// Package queue implements the Bounded Worker Queue described in spec.md
// §4.1: a fixed-capacity, blocking container of workers with timed-lock
// acquisition, borrow/return, clear, remaining-capacity, and sentinel
// ("pill") insertion.
//
// The pool lock is a distinct synchronization fact from element
// availability (spec.md "Rationale"): LockWithTimeout/Unlock gate *new*
// borrowers, while TakeLocked lets the current lock holder keep pulling
// workers back during a drain without being gated by its own lock. Both
// facts are guarded by the same mutex and broadcast through the same
// signal channel, following the broadcast-on-change idiom used throughout
// the corpus's bounded worker pools in place of sync.Cond (which has no
// timeout/ctx-aware wait form).
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spiral/errors"

	"github.com/js361014/rubypool/poolerrors"
	"github.com/js361014/rubypool/worker"
)

// Queue is a fixed-capacity, blocking container of *worker.Worker values.
// The zero value is not usable; construct with New.
type Queue struct {
	mu       sync.Mutex
	items    []*worker.Worker
	borrowed map[int32]struct{}
	pill     error
	capacity int
	locked   bool
	sig      chan struct{}
}

// New constructs an empty Queue with the given fixed capacity.
func New(capacity int) *Queue {
	return &Queue{
		items:    make([]*worker.Worker, 0, capacity),
		borrowed: make(map[int32]struct{}, capacity),
		capacity: capacity,
		sig:      make(chan struct{}),
	}
}

// Capacity returns the fixed capacity passed to New.
func (q *Queue) Capacity() int {
	return q.capacity
}

// RemainingCapacity returns the number of slots not yet filled by either an
// idle item or an outstanding borrow.
func (q *Queue) RemainingCapacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity - len(q.items) - len(q.borrowed)
}

// Len returns the number of idle workers currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Outstanding returns the number of workers currently borrowed.
func (q *Queue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.borrowed)
}

// Offer performs a non-blocking insert of an idle worker. It fails (returns
// false) if the queue is already at capacity.
func (q *Queue) Offer(w *worker.Worker) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items)+len(q.borrowed) >= q.capacity {
		return false
	}
	q.items = append(q.items, w)
	q.broadcastLocked()
	return true
}

// Borrow blocks until a worker is available, a sentinel pill is observed,
// or ctx is done. If the head of the queue is a ShutdownPill it is
// returned (as an error) without being removed; every subsequent Borrow
// observes it too. If the head is an ErrorPill it is returned once and then
// cleared. New borrowers additionally block while the pool lock is held
// (see LockWithTimeout); TakeLocked bypasses that gate for the lock holder.
func (q *Queue) Borrow(ctx context.Context) (*worker.Worker, error) {
	return q.borrow(ctx, false)
}

// TakeLocked borrows a worker exactly like Borrow, except it is not gated
// by the pool lock. It must only be called by the goroutine that currently
// holds the lock (drain-and-refill, step 2 of spec.md §4.5.3); calling it
// without holding the lock defeats the lock's purpose and is a programming
// error in the caller, not in this package.
func (q *Queue) TakeLocked(ctx context.Context) (*worker.Worker, error) {
	return q.borrow(ctx, true)
}

func (q *Queue) borrow(ctx context.Context, holder bool) (*worker.Worker, error) {
	for {
		q.mu.Lock()
		if q.pill != nil {
			p := q.pill
			if _, ok := p.(ShutdownPill); !ok {
				q.pill = nil
				q.broadcastLocked()
			}
			q.mu.Unlock()
			return nil, p
		}
		if (holder || !q.locked) && len(q.items) > 0 {
			w := q.items[0]
			q.items = q.items[1:]
			q.borrowed[w.ID()] = struct{}{}
			q.broadcastLocked()
			q.mu.Unlock()
			return w, nil
		}
		wait := q.sig
		q.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Return places a previously borrowed worker back into the queue. Returning
// a worker that was not borrowed from this Queue is a programming error and
// reported as such rather than silently accepted.
func (q *Queue) Return(w *worker.Worker) error {
	const op = poolerrors.Op("queue_return")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.borrowed[w.ID()]; !ok {
		return poolerrors.E(op, errors.Str(fmt.Sprintf("worker %d was not borrowed from this queue", w.ID())))
	}
	delete(q.borrowed, w.ID())
	q.items = append(q.items, w)
	q.broadcastLocked()
	return nil
}

// Discard removes a previously borrowed worker from accounting without
// returning it to the queue, freeing its capacity slot for a replacement
// (or, when there is no replacement, shrinking the effective pool by one
// until refilled). Use this after a worker has been destroyed instead of
// Return. Discarding a worker that was not borrowed from this Queue is a
// programming error and reported as such rather than silently accepted.
func (q *Queue) Discard(w *worker.Worker) error {
	const op = poolerrors.Op("queue_discard")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.borrowed[w.ID()]; !ok {
		return poolerrors.E(op, errors.Str(fmt.Sprintf("worker %d was not borrowed from this queue", w.ID())))
	}
	delete(q.borrowed, w.ID())
	q.broadcastLocked()
	return nil
}

// LockWithTimeout acquires the exclusive pool lock, blocking new borrowers
// (see Borrow) until Unlock is called. It fails with a poolerrors.LockTimeout
// error if the lock cannot be acquired within d.
func (q *Queue) LockWithTimeout(d time.Duration) error {
	const op = poolerrors.Op("queue_lock_with_timeout")
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if !q.locked {
			q.locked = true
			q.mu.Unlock()
			return nil
		}
		wait := q.sig
		q.mu.Unlock()

		select {
		case <-wait:
		case <-timer.C:
			return poolerrors.E(op, poolerrors.LockTimeout, errors.Str(fmt.Sprintf("pool lock not acquired within %s", d)))
		}
	}
}

// Unlock releases the exclusive pool lock acquired by LockWithTimeout,
// unblocking any borrowers waiting at the gate.
func (q *Queue) Unlock() {
	q.mu.Lock()
	q.locked = false
	q.broadcastLocked()
	q.mu.Unlock()
}

// Clear removes all idle workers from the queue. It does not affect
// outstanding borrows or any pill already inserted; callers pair Clear with
// InsertPill on the fatal path (spec.md §4.5.1, §4.5.3).
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = q.items[:0]
	q.broadcastLocked()
	q.mu.Unlock()
}

// InsertPill places a sentinel such that it will be observed by the next
// Borrow call (and, for a ShutdownPill, every call after that too).
func (q *Queue) InsertPill(p error) {
	q.mu.Lock()
	q.pill = p
	q.broadcastLocked()
	q.mu.Unlock()
}

// broadcastLocked wakes every goroutine currently parked in borrow or
// LockWithTimeout. Must be called with q.mu held.
func (q *Queue) broadcastLocked() {
	close(q.sig)
	q.sig = make(chan struct{})
}
