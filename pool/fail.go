package pool

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/js361014/rubypool/poolerrors"
	"github.com/js361014/rubypool/queue"
)

// fail implements the fatal path shared by Prime, FlushOne and
// DrainAndRefill (spec.md §7): clear the queue, insert an ErrorPill
// carrying cause *before* returning, and wrap cause in a PoolCorrupted
// error identifying the failing operation. cause is expected to already
// carry its own specific Kind (ConstructionFailure, BorrowFailure or
// CleanupFailure) from the site that produced it, so poolerrors.Is finds
// both the specific kind and PoolCorrupted by walking the chain. Called from
// inside a mutator task (or through failFatal), so the caller still
// receives cause even if the ShutdownOnError wrapper swallows it into a
// placeholder.
func (p *Context) fail(op poolerrors.Op, cause error) error {
	corrID := uuid.NewString()

	p.queue.Clear()
	p.queue.InsertPill(queue.ErrorPill{Cause: cause})

	p.log.Error("pool corrupted",
		zap.String("op", string(op)),
		zap.String("correlation_id", corrID),
		zap.Error(cause),
	)

	return poolerrors.E(op, poolerrors.PoolCorrupted, cause)
}

// failFatal runs fail inside the configured ShutdownOnError hook, for
// callers of fail that are not already running inside a mutator task (the
// mutator's own run loop already wraps every dispatched task in this same
// hook). Mirrors the side-channel cause capture in package mutator: the
// hook may swallow the error it's given into a placeholder, so the real
// cause is captured into wrapped inside the thunk the hook runs and
// returned regardless of what the hook returns.
func (p *Context) failFatal(op poolerrors.Op, cause error) error {
	var wrapped error
	_ = p.cfg.Lifecycle.ShutdownOnError(func() error {
		wrapped = p.fail(op, cause)
		return wrapped
	})
	return wrapped
}
