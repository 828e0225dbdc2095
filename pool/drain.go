package pool

import (
	"context"
	"fmt"
	"math"

	"github.com/spiral/errors"
	"go.uber.org/zap"

	"github.com/js361014/rubypool/mutator"
	"github.com/js361014/rubypool/poolerrors"
	"github.com/js361014/rubypool/queue"
	"github.com/js361014/rubypool/worker"
)

const maxInt32 = int32(math.MaxInt32)

// nextInstanceID implements spec.md §4.6: next = old + n, wrapping modulo n
// on overflow. This module resolves the §9 Open Question about the wrap
// producing id 0 by using ((next-1) mod n) + 1 instead of a bare next mod n,
// so ids stay in [1, n] and 0 remains reserved for "no worker" (see
// worker.Worker.ID on a nil Worker, and SPEC_FULL.md).
func nextInstanceID(old, n int32) int32 {
	next := int64(old) + int64(n)
	if next <= int64(maxInt32) {
		return int32(next)
	}
	return int32((next-1)%int64(n)) + 1
}

// DrainAndRefill replaces every worker atomically from borrowers'
// perspective (spec.md §4.5.3). It acquires the pool lock, borrows back
// every worker, releases the lock, and dispatches the actual cleanup and
// (if refill) reconstruction to the Mutator Agent asynchronously. The
// returned Handle lets a caller wait for that dispatched work to finish;
// DrainAndRefill itself only blocks through the borrow-and-unlock phase, as
// required by spec.md §8 scenario 4.
//
// Acquiring the lock and borrowing every worker back share one
// flush-timeout-ms budget (spec.md §8 scenario 5): a worker permanently
// held outside the pool blocks step 2 exactly like contention on the lock
// itself blocks step 1, and both report LockTimeout without touching the
// queue: workers already taken back are returned, and no pill is placed
// and no cleanup dispatched. A ShutdownPill met while borrowing back (the
// pool has already been shut down) is handled the same way and returned as
// the error. Any other BorrowFailure, unlike LockTimeout, is routed through
// failFatal so the ShutdownOnError hook fires for it too, matching spec.md
// §7's fatal-error list.
//
// If refill is false this is the shutdown case: a ShutdownPill is inserted
// immediately after dispatch so every subsequent Borrow observes shutdown,
// even before the dispatched cleanup has actually run.
func (p *Context) DrainAndRefill(ctx context.Context, refill bool) (*mutator.Handle, error) {
	const op = poolerrors.Op("pool_drain_and_refill")

	deadline := p.cfg.FlushTimeout()
	lockCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	if err := p.queue.LockWithTimeout(deadline); err != nil {
		return nil, err
	}

	old := make([]*worker.Worker, 0, p.cfg.PoolSize)
	for i := 0; i < p.cfg.PoolSize; i++ {
		w, err := p.queue.TakeLocked(lockCtx)
		if err != nil {
			_, shutdown := err.(queue.ShutdownPill)
			if shutdown || lockCtx.Err() != nil {
				for _, taken := range old {
					_ = p.queue.Return(taken)
				}
			}
			p.queue.Unlock()
			if shutdown {
				return nil, err
			}
			if lockCtx.Err() != nil {
				return nil, poolerrors.E(op, poolerrors.LockTimeout,
					errors.Str(fmt.Sprintf("pool lock not acquired within %s", deadline)))
			}
			return nil, p.failFatal(op, errors.E(op, poolerrors.BorrowFailure, err))
		}
		old = append(old, w)
	}

	p.queue.Unlock()

	h := p.agent.Dispatch("drain_refill", func() error {
		return p.cleanupAndRefill(ctx, old, refill)
	})

	if !refill {
		p.queue.InsertPill(queue.ShutdownPill{})
	}

	return h, nil
}

// FlushForShutdown invokes DrainAndRefill with refill=false and waits for
// the dispatched cleanup to finish before returning (spec.md §4.5.5). It
// inserts a ShutdownPill once more after waiting: DrainAndRefill already
// placed one right after dispatch, but re-inserting here is harmless and
// guarantees a pill is present even under repeated/concurrent shutdown
// signals (idempotent, per spec.md §4.5.5: a second caller simply queues
// behind the first on the pool lock). A call made once the pool has already
// shut down leaves the ShutdownPill in place and returns it as the error.
func (p *Context) FlushForShutdown(ctx context.Context) error {
	h, err := p.DrainAndRefill(ctx, false)
	if err != nil {
		return err
	}

	cleanupErr := h.Wait()
	p.queue.InsertPill(queue.ShutdownPill{})

	if cleanupErr != nil {
		p.log.Error("flush_for_shutdown: cleanup failed", zap.Error(cleanupErr))
	}
	return cleanupErr
}

// cleanupAndRefill is the mutator-only operation of spec.md §4.5.4: for
// each (old_worker, new_id) pair, clean up old_worker and, if refill,
// construct its replacement. The first pair runs alone; the remainder runs
// as one parallel batch on the Creation Executor, mirroring Prime's split
// for the same filesystem-contention reason. A failure of the first pair
// skips all remaining pairs; within the parallel batch every pair still
// runs (a failure only cancels the context the others receive) and only the
// first error is reported.
func (p *Context) cleanupAndRefill(ctx context.Context, old []*worker.Worker, refill bool) error {
	const op = poolerrors.Op("pool_cleanup_and_refill")
	n := int32(p.cfg.PoolSize)

	newIDs := make([]int32, len(old))
	for i, w := range old {
		newIDs[i] = nextInstanceID(w.ID(), n)
	}

	if err := p.replaceWorker(ctx, old[0], newIDs[0], p.cfg.SplayInstanceFlush, refill); err != nil {
		return p.fail(op, err)
	}

	if len(old) > 1 {
		tasks := make([]func(context.Context) error, 0, len(old)-1)
		for i := 1; i < len(old); i++ {
			i := i
			tasks = append(tasks, func(ctx context.Context) error {
				return p.replaceWorker(ctx, old[i], newIDs[i], p.cfg.SplayInstanceFlush, refill)
			})
		}
		if err := p.executor.RunBatch(ctx, tasks); err != nil {
			return p.fail(op, err)
		}
	}

	p.log.Info("cleanup_and_refill: completed", zap.Int("count", len(old)), zap.Bool("refill", refill))
	return nil
}

// replaceWorker cleans up old and, when create is true, constructs newID's
// replacement and places it into the queue: the identical cleanup-then-
// construct shape shared by FlushOne (spec.md §4.5.2) and cleanup-and-refill
// (spec.md §4.5.4). old must be discarded from the queue's borrowed
// accounting once destroyed, or its capacity slot is never freed and the
// replacement Offer below spuriously fails for "no capacity".
func (p *Context) replaceWorker(ctx context.Context, old *worker.Worker, newID int32, splay bool, create bool) error {
	if err := p.cfg.Lifecycle.Cleanup(ctx, old); err != nil {
		return errors.E(poolerrors.CleanupFailure, err)
	}
	if err := p.queue.Discard(old); err != nil {
		return errors.E(poolerrors.CleanupFailure, err)
	}
	if !create {
		return nil
	}

	w, err := p.cfg.Lifecycle.InitializePoolInstance(ctx, newID, splay)
	if err != nil {
		return errors.E(poolerrors.ConstructionFailure, err)
	}
	if !p.queue.Offer(w) {
		return errors.E(poolerrors.ConstructionFailure, errors.Str("no capacity for replacement worker"))
	}
	return nil
}
