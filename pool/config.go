package pool

import (
	"time"

	"github.com/js361014/rubypool/worker"
)

// Lifecycle groups the caller-supplied hooks spec.md §6 calls
// lifecycle.cleanup, lifecycle.shutdown-on-error and
// lifecycle.initialize-pool-instance.
type Lifecycle struct {
	// InitializePoolInstance constructs one Worker. Required.
	InitializePoolInstance worker.CreateFunc
	// Cleanup releases a Worker's resources. Required.
	Cleanup worker.CleanupFunc
	// ShutdownOnError runs a mutator task and initiates process shutdown
	// if it fails. Required.
	ShutdownOnError worker.ShutdownOnFatalFunc
}

// Config is the configuration record accepted by the pool core (spec.md
// §6). It is assumed already parsed by the outer service; this module
// owns no file or environment format.
type Config struct {
	// GemHome is the filesystem path for script-interpreter package
	// storage. The pool core does not read it, and CreateFunc hooks do not
	// receive the Config.
	GemHome string
	// RubyLoadPath is the ordered sequence of filesystem paths for code
	// loading. The pool core does not read it, and CreateFunc hooks do not
	// receive the Config.
	RubyLoadPath []string
	// PoolSize is the fixed number of workers. Zero means "use
	// DefaultPoolSize(runtime.NumCPU())".
	PoolSize int
	// FlushTimeoutMs bounds how long DrainAndRefill waits to acquire the
	// pool lock. Zero means a 30s default.
	FlushTimeoutMs int
	// SplayInstanceFlush is passed through to CreateFunc as the splay hint,
	// except for the first worker built by Prime, which always gets false.
	SplayInstanceFlush bool
	// CreationExecutorSize bounds how many workers are constructed in
	// parallel within one batch. Zero means PoolSize.
	CreationExecutorSize int

	Lifecycle Lifecycle
}

// InitDefaults fills unset fields with their defaults, mirroring the
// teacher's cfg.InitDefaults() convention (static_pool.go's
// Initialize calls cfg.InitDefaults() before using the config).
func (c *Config) InitDefaults(cpuCount int) {
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize(cpuCount)
	}
	if c.FlushTimeoutMs <= 0 {
		c.FlushTimeoutMs = 30000
	}
	if c.CreationExecutorSize <= 0 {
		c.CreationExecutorSize = c.PoolSize
	}
}

// FlushTimeout returns FlushTimeoutMs as a time.Duration.
func (c *Config) FlushTimeout() time.Duration {
	return time.Duration(c.FlushTimeoutMs) * time.Millisecond
}

// DefaultPoolSize implements the hardcoded CPU-count curve of spec.md §6 /
// §8 scenario 1: 1 for {1,2}; 2 for 3; 3 for 4; 4 for 5 or more.
func DefaultPoolSize(cpuCount int) int {
	switch {
	case cpuCount <= 2:
		return 1
	case cpuCount == 3:
		return 2
	case cpuCount == 4:
		return 3
	default:
		return 4
	}
}
