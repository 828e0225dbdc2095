package pool

import (
	"context"

	"go.uber.org/zap"

	"github.com/js361014/rubypool/poolerrors"
	"github.com/js361014/rubypool/worker"
)

// FlushOne replaces a single worker, e.g. after it has handled its
// configured number of requests (spec.md §4.5.2). old must currently be
// borrowed by the caller; FlushOne does not return old to the pool, it
// cleans it up and places a freshly constructed replacement bearing
// nextInstanceID(old) into the queue instead.
func (p *Context) FlushOne(ctx context.Context, old *worker.Worker) error {
	h := p.agent.Dispatch("flush_one", func() error { return p.flushOne(ctx, old) })
	return h.Wait()
}

func (p *Context) flushOne(ctx context.Context, old *worker.Worker) error {
	const op = poolerrors.Op("pool_flush_one")

	newID := nextInstanceID(old.ID(), int32(p.cfg.PoolSize))

	if err := p.replaceWorker(ctx, old, newID, p.cfg.SplayInstanceFlush, true); err != nil {
		return p.fail(op, err)
	}

	p.log.Info("flush_one: replaced worker", zap.Int32("old_id", old.ID()), zap.Int32("new_id", newID))
	return nil
}
