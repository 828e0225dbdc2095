package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/js361014/rubypool/pool"
)

func TestDefaultPoolSizeCPUCurve(t *testing.T) {
	cases := map[int]int{
		1:  1,
		2:  1,
		3:  2,
		4:  3,
		5:  4,
		8:  4,
		64: 4,
	}
	for cpus, want := range cases {
		assert.Equal(t, want, pool.DefaultPoolSize(cpus), "cpu count %d", cpus)
	}
}

func TestInitDefaultsFillsZeroFields(t *testing.T) {
	cfg := &pool.Config{}
	cfg.InitDefaults(4)

	assert.Equal(t, 3, cfg.PoolSize)
	assert.Equal(t, 30000, cfg.FlushTimeoutMs)
	assert.Equal(t, 3, cfg.CreationExecutorSize)
}

func TestInitDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &pool.Config{PoolSize: 10, FlushTimeoutMs: 50, CreationExecutorSize: 2}
	cfg.InitDefaults(4)

	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 50, cfg.FlushTimeoutMs)
	assert.Equal(t, 2, cfg.CreationExecutorSize)
}
