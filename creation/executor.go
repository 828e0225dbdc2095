// Package creation implements the Creation Executor of spec.md §4.4: a
// bounded pool of goroutines used only by the Mutator Agent to parallelize
// construction of multiple workers within a single batch. Distinct mutator
// operations stay strictly serialized through the agent; only construction
// *within* one prime/refill batch runs concurrently here.
package creation

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Executor bounds the number of construction tasks running concurrently,
// mirroring the fixed-size worker channel used by the bounded pools across
// the corpus (e.g. couchbase-tools-common's hofp.Pool) rather than spawning
// one goroutine per task unbounded.
type Executor struct {
	sem chan struct{}
}

// New returns an Executor that runs at most size tasks concurrently. size
// is typically bounded by the host's physical core count.
func New(size int) *Executor {
	if size < 1 {
		size = 1
	}
	return &Executor{sem: make(chan struct{}, size)}
}

// Size returns the maximum number of tasks this Executor runs concurrently.
func (e *Executor) Size() int {
	return cap(e.sem)
}

// RunBatch runs every task in tasks, bounded by the Executor's size, and
// waits for all of them to complete. It returns the first underlying task
// error encountered (spec.md §4.4: "surfaces the underlying cause, not a
// wrapping execution-failure type"); remaining tasks still run to
// completion so a batch never leaves a construction half-started without
// the caller knowing which slots actually finished.
func (e *Executor) RunBatch(ctx context.Context, tasks []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, t := range tasks {
		t := t
		e.sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-e.sem }()
			return t(gctx)
		})
	}

	return g.Wait()
}
