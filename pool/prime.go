package pool

import (
	"context"
	"fmt"

	"github.com/spiral/errors"
	"go.uber.org/zap"

	"github.com/js361014/rubypool/poolerrors"
)

// Prime fills an empty pool (spec.md §4.5.1). It is dispatched to the
// Mutator Agent and waited on synchronously here, since callers priming a
// pool at startup need to know it succeeded before serving traffic.
//
// Priming an already-full pool (RemainingCapacity() == 0) is a no-op that
// still logs and returns success, per spec.md §9's resolution of the
// degenerate total=0 case.
func (p *Context) Prime(ctx context.Context) error {
	h := p.agent.Dispatch("prime", func() error { return p.prime(ctx) })
	return h.Wait()
}

func (p *Context) prime(ctx context.Context) error {
	const op = poolerrors.Op("pool_prime")

	total := p.queue.RemainingCapacity()
	if total == 0 {
		p.log.Info("prime: pool already full")
		return nil
	}

	ids := make([]int32, total)
	for i := range ids {
		ids[i] = int32(i + 1)
	}

	// The first worker is constructed alone: it may mutate shared
	// filesystem state (e.g. installing gems into GemHome) that must
	// complete before the remaining construction runs in parallel.
	if err := p.constructAndPlace(ctx, ids[0], false); err != nil {
		return p.fail(op, errors.E(op, poolerrors.ConstructionFailure, err))
	}

	if len(ids) > 1 {
		tasks := make([]func(context.Context) error, 0, len(ids)-1)
		for _, id := range ids[1:] {
			id := id
			tasks = append(tasks, func(ctx context.Context) error {
				return p.constructAndPlace(ctx, id, p.cfg.SplayInstanceFlush)
			})
		}
		if err := p.executor.RunBatch(ctx, tasks); err != nil {
			return p.fail(op, errors.E(op, poolerrors.ConstructionFailure, err))
		}
	}

	p.log.Info("prime: pool filled", zap.Int("size", total))
	return nil
}

// constructAndPlace runs the configured InitializePoolInstance hook and
// places the resulting worker into the queue.
func (p *Context) constructAndPlace(ctx context.Context, id int32, splay bool) error {
	w, err := p.cfg.Lifecycle.InitializePoolInstance(ctx, id, splay)
	if err != nil {
		return err
	}
	if !p.queue.Offer(w) {
		return fmt.Errorf("pool: constructed worker %d but the queue had no remaining capacity", id)
	}
	return nil
}
