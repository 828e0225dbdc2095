package creation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/js361014/rubypool/creation"
)

func TestRunBatchRunsAllTasks(t *testing.T) {
	e := creation.New(2)
	var count int32
	tasks := make([]func(ctx context.Context) error, 5)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		}
	}

	require.NoError(t, e.RunBatch(context.Background(), tasks))
	assert.EqualValues(t, 5, count)
}

func TestRunBatchBoundsConcurrency(t *testing.T) {
	e := creation.New(2)
	var current, max int32
	tasks := make([]func(ctx context.Context) error, 6)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			n := atomic.AddInt32(&current, 1)
			for {
				m := atomic.LoadInt32(&max)
				if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			return nil
		}
	}

	require.NoError(t, e.RunBatch(context.Background(), tasks))
	assert.LessOrEqual(t, max, int32(2))
}

func TestRunBatchSurfacesFirstError(t *testing.T) {
	e := creation.New(4)
	boom := errors.New("construction failed")
	tasks := []func(ctx context.Context) error{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error { return nil },
	}

	err := e.RunBatch(context.Background(), tasks)
	require.Error(t, err)
	assert.Equal(t, boom, err)
}
