// Package mutator implements the Pool Mutator Agent of spec.md §4.3: a
// single-threaded task executor that serializes every state-changing pool
// operation (prime, flush-one, drain-and-refill) and wraps each task in the
// caller's fatal-error handler.
//
// Dispatch is asynchronous: the caller does not block for completion
// unless it explicitly waits on the Handle returned by Dispatch. Exactly
// one task runs at a time, in FIFO order.
package mutator

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/js361014/rubypool/worker"
)

// Agent is a single goroutine draining a FIFO queue of tasks. The
// embedded script interpreter this pool manages has known races when
// multiple containers are constructed concurrently without external
// coordination; the Agent is what prevents two distinct mutating
// operations (e.g. a flush racing a drain) from ever running at once.
// Construction *within* one operation is still parallelized, but only via
// package creation, invoked from inside a single task's run function.
type Agent struct {
	tasks           chan task
	shutdownOnFatal worker.ShutdownOnFatalFunc
	log             *zap.Logger
	closed          chan struct{}
}

type task struct {
	id     string
	name   string
	run    func() error
	handle *Handle
}

// Handle is the one-shot waiter returned by Dispatch. Wait blocks until the
// dispatched task completes and returns its real cause, if any, even if
// the task's ShutdownOnFatalFunc wrapper swallowed that cause into a
// placeholder, per spec.md §4.2/§9. Handle.Wait is always eventually
// unblocked: the task's completion always closes done, regardless of
// outcome, so callers cannot hang (spec.md §7).
type Handle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the dispatched task has completed and returns its real
// cause (nil on success).
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// New starts an Agent backed by a single goroutine. shutdownOnFatal wraps
// every dispatched task; log receives a dispatch/completion line per task,
// tagged with a uuid correlation id, for the ambient structured-logging
// layer spec.md leaves to the outer service.
func New(shutdownOnFatal worker.ShutdownOnFatalFunc, log *zap.Logger) *Agent {
	a := &Agent{
		tasks:           make(chan task, 64),
		shutdownOnFatal: shutdownOnFatal,
		log:             log,
		closed:          make(chan struct{}),
	}
	go a.loop()
	return a
}

// Dispatch enqueues run for execution on the Agent's single goroutine and
// returns immediately with a Handle the caller may optionally wait on. name
// is a short operation label (e.g. "prime", "flush_one", "drain_refill")
// used only for logging.
func (a *Agent) Dispatch(name string, run func() error) *Handle {
	h := &Handle{done: make(chan struct{})}
	a.tasks <- task{
		id:     uuid.NewString(),
		name:   name,
		run:    run,
		handle: h,
	}
	return h
}

// Close stops accepting new tasks at once (a Dispatch after Close panics)
// and blocks until the already queued ones have run. It does not interrupt
// a task in progress.
func (a *Agent) Close() {
	close(a.tasks)
	<-a.closed
}

func (a *Agent) loop() {
	defer close(a.closed)
	for t := range a.tasks {
		a.run(t)
	}
}

func (a *Agent) run(t task) {
	a.log.Info("mutator task dispatched", zap.String("task_id", t.id), zap.String("op", t.name))

	var cause error
	wrapped := func() error {
		err := t.run()
		if err != nil {
			cause = err
		}
		return err
	}

	// shutdownOnFatal may swallow the error returned by wrapped into a
	// placeholder and begin process shutdown; cause already holds the real
	// error captured inside wrapped, so the Handle still reports it.
	_ = a.shutdownOnFatal(wrapped)

	if cause != nil {
		a.log.Error("mutator task failed", zap.String("task_id", t.id), zap.String("op", t.name), zap.Error(cause))
	} else {
		a.log.Info("mutator task completed", zap.String("task_id", t.id), zap.String("op", t.name))
	}

	t.handle.err = cause
	close(t.handle.done)
}
