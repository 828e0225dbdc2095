package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/js361014/rubypool/pool"
)

func TestPrimeFillsEmptyPoolWithSequentialIDs(t *testing.T) {
	hooks := newFakeHooks()
	cfg := newTestConfig(3, hooks)
	p := pool.New(cfg, zap.NewNop())

	require.NoError(t, p.Prime(context.Background()))

	assert.Equal(t, 0, p.RemainingCapacity())
	created := hooks.createdIDs()
	assert.ElementsMatch(t, []int32{1, 2, 3}, created)
	// id 1 must be the very first constructed, before the parallel batch.
	assert.Equal(t, int32(1), created[0])
}

func TestPrimeOfAlreadyFullPoolIsNoop(t *testing.T) {
	hooks := newFakeHooks()
	cfg := newTestConfig(1, hooks)
	p := pool.New(cfg, zap.NewNop())

	require.NoError(t, p.Prime(context.Background()))
	require.NoError(t, p.Prime(context.Background()))

	assert.Len(t, hooks.createdIDs(), 1)
}

func TestPrimeConstructionFailureInsertsSingleErrorPillWithRealCause(t *testing.T) {
	hooks := newFakeHooks()
	hooks.failCreate(2, errBoom)
	cfg := newTestConfig(3, hooks)
	p := pool.New(cfg, zap.NewNop())

	err := p.Prime(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	w, borrowErr := p.Borrow(context.Background())
	assert.Nil(t, w)
	require.Error(t, borrowErr)
	assert.ErrorIs(t, borrowErr, errBoom)

	// The pill is consumed exactly once: the cleared, still-empty queue now
	// just blocks, rather than handing back the same ErrorPill again.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, blockedErr := p.Borrow(ctx)
	assert.ErrorIs(t, blockedErr, context.DeadlineExceeded)
}
