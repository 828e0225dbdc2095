// Package pool implements the Pool Context and Orchestration Protocols of
// spec.md §3/§4.5: priming an empty pool, flushing a single worker,
// draining and refilling the whole pool, and flushing for shutdown.
package pool

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/js361014/rubypool/creation"
	"github.com/js361014/rubypool/mutator"
	"github.com/js361014/rubypool/queue"
	"github.com/js361014/rubypool/worker"
)

// Context is the composite pool: immutable references to the parsed
// configuration, the Bounded Worker Queue, the Mutator Agent, and the
// Creation Executor (spec.md §3 "PoolContext"). Construct with New.
type Context struct {
	cfg      *Config
	queue    *queue.Queue
	agent    *mutator.Agent
	executor *creation.Executor
	log      *zap.Logger
}

// New builds a Context from cfg. cfg is mutated in place to fill in
// defaults (InitDefaults) using the host's CPU count. The returned Context
// has an empty queue; call Prime to populate it.
func New(cfg *Config, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.InitDefaults(runtime.NumCPU())

	return &Context{
		cfg:      cfg,
		queue:    queue.New(cfg.PoolSize),
		agent:    mutator.New(cfg.Lifecycle.ShutdownOnError, log),
		executor: creation.New(cfg.CreationExecutorSize),
		log:      log,
	}
}

// Config returns the pool's (already-defaulted) configuration. Callers
// must not mutate it.
func (p *Context) Config() *Config {
	return p.cfg
}

// Size returns the fixed pool size.
func (p *Context) Size() int {
	return p.cfg.PoolSize
}

// Borrow blocks until a worker is available, a pill is observed, or ctx is
// done. This is the raw primitive spec.md §1 scopes the core to; request
// level timeouts/retries are the outer service's concern.
func (p *Context) Borrow(ctx context.Context) (*worker.Worker, error) {
	return p.queue.Borrow(ctx)
}

// Return places a borrowed worker back into the pool.
func (p *Context) Return(w *worker.Worker) error {
	return p.queue.Return(w)
}

// RemainingCapacity exposes the queue's remaining capacity for callers that
// want to observe priming/draining progress.
func (p *Context) RemainingCapacity() int {
	return p.queue.RemainingCapacity()
}
