package worker

import "context"

// CreateFunc constructs a single Worker with the given id. When splay is
// true the hook may jitter any startup-affecting scheduling it performs to
// avoid a thundering herd against a downstream resource (e.g. a gem
// server); splay is purely advisory to the hook.
type CreateFunc func(ctx context.Context, id int32, splay bool) (*Worker, error)

// CleanupFunc releases a Worker's resources. It must be safe to call on a
// best-effort basis. A returned error is treated by the pool as fatal: it
// is reported as a CleanupFailure, the queue is cleared and an ErrorPill
// placed, which aborts the remaining work of the operation that called it.
// Implementations should still be idempotent where practical.
type CleanupFunc func(ctx context.Context, w *Worker) error

// ShutdownOnFatalFunc runs thunk. If thunk returns an error, the
// implementation is expected to initiate process-level shutdown and return
// a placeholder value to the caller rather than the real cause; callers in
// this module work around that by capturing the real cause into a side
// channel before thunk returns (see package mutator).
type ShutdownOnFatalFunc func(thunk func() error) error
