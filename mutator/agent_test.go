package mutator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/js361014/rubypool/mutator"
)

func passthroughFatal(thunk func() error) error {
	return thunk()
}

func TestDispatchRunsExactlyOneAtATime(t *testing.T) {
	a := mutator.New(passthroughFatal, zap.NewNop())
	defer a.Close()

	var running int32
	var overlapped bool
	mark := func() error {
		if running != 0 {
			overlapped = true
		}
		running++
		time.Sleep(5 * time.Millisecond)
		running--
		return nil
	}

	handles := make([]*mutator.Handle, 10)
	for i := range handles {
		handles[i] = a.Dispatch("t", mark)
	}
	for _, h := range handles {
		require.NoError(t, h.Wait())
	}
	assert.False(t, overlapped)
}

func TestHandleSurfacesRealCauseThroughSwallowingWrapper(t *testing.T) {
	swallow := func(thunk func() error) error {
		if err := thunk(); err != nil {
			return errPlaceholder
		}
		return nil
	}
	a := mutator.New(swallow, zap.NewNop())
	defer a.Close()

	boom := errors.New("construction failed")
	h := a.Dispatch("flush_one", func() error { return boom })

	err := h.Wait()
	require.Error(t, err)
	assert.Equal(t, boom, err)
}

func TestHandleAlwaysCompletesOnSuccess(t *testing.T) {
	a := mutator.New(passthroughFatal, zap.NewNop())
	defer a.Close()

	h := a.Dispatch("prime", func() error { return nil })
	assert.NoError(t, h.Wait())
}

var errPlaceholder = errors.New("placeholder: pool shutting down")
