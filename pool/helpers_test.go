package pool_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/js361014/rubypool/pool"
	"github.com/js361014/rubypool/worker"
)

// fakeInterpreter is a test stand-in for the real opaque interpreter
// handle; the pool core never inspects it.
type fakeInterpreter struct{}

// fakeHooks records every create/cleanup call and can be configured to
// fail construction for specific ids, simulating spec.md §8's fault
// scenarios without a real script interpreter.
type fakeHooks struct {
	mu sync.Mutex

	created []int32
	cleaned []int32

	failCreateIDs map[int32]error
}

func newFakeHooks() *fakeHooks {
	return &fakeHooks{failCreateIDs: make(map[int32]error)}
}

func (f *fakeHooks) failCreate(id int32, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCreateIDs[id] = err
}

func (f *fakeHooks) create(ctx context.Context, id int32, splay bool) (*worker.Worker, error) {
	f.mu.Lock()
	if err, ok := f.failCreateIDs[id]; ok {
		f.mu.Unlock()
		return nil, err
	}
	f.created = append(f.created, id)
	f.mu.Unlock()
	return worker.New(id, fakeInterpreter{}), nil
}

func (f *fakeHooks) cleanup(ctx context.Context, w *worker.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, w.ID())
	return nil
}

func (f *fakeHooks) createdIDs() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int32, len(f.created))
	copy(out, f.created)
	return out
}

func (f *fakeHooks) cleanedIDs() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int32, len(f.cleaned))
	copy(out, f.cleaned)
	return out
}

func passthroughFatal(thunk func() error) error {
	return thunk()
}

func newTestConfig(size int, hooks *fakeHooks) *pool.Config {
	return &pool.Config{
		PoolSize: size,
		Lifecycle: pool.Lifecycle{
			InitializePoolInstance: hooks.create,
			Cleanup:                hooks.cleanup,
			ShutdownOnError:        passthroughFatal,
		},
	}
}

var errBoom = fmt.Errorf("construction failed")
