package pool

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/shirou/gopsutil/process"

	"github.com/js361014/rubypool/poolerrors"
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// HostStats reports resource usage for the pool's own process, adapted
// from the teacher's state/process.WorkerProcessState, which reports a
// per-worker subprocess's stats. This module's workers are in-process
// interpreter handles with no separate pid (spec.md §3), so the same
// gopsutil-backed accounting is retargeted at the pool's host process,
// giving the outer service the same "is this thing healthy" diagnostic.
type HostStats struct {
	Pid         int     `json:"pid"`
	MemoryRSS   uint64  `json:"memoryRssBytes"`
	CPUPercent  float64 `json:"cpuPercent"`
	Size        int     `json:"poolSize"`
	Idle        int     `json:"idleWorkers"`
	Outstanding int     `json:"outstandingWorkers"`
}

// Stats gathers a HostStats snapshot.
func (p *Context) Stats() (*HostStats, error) {
	const op = poolerrors.Op("pool_stats")

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, poolerrors.E(op, err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return nil, poolerrors.E(op, err)
	}
	cpuPct, err := proc.CPUPercent()
	if err != nil {
		return nil, poolerrors.E(op, err)
	}

	return &HostStats{
		Pid:         os.Getpid(),
		MemoryRSS:   mem.RSS,
		CPUPercent:  cpuPct,
		Size:        p.cfg.PoolSize,
		Idle:        p.queue.Len(),
		Outstanding: p.queue.Outstanding(),
	}, nil
}

// Snapshot marshals a HostStats via the fast-path json-iterator codec, for
// an optional diagnostics endpoint the outer service may expose (spec.md
// §3: "derived state... pool-state accessors").
func (p *Context) Snapshot() ([]byte, error) {
	stats, err := p.Stats()
	if err != nil {
		return nil, err
	}
	return snapshotJSON.Marshal(stats)
}
