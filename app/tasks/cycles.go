package tasks

import (
	"sync"
	"sync/atomic"
	"time"
)

type CycleKind string

const (
	CycleScan      CycleKind = "scan"
	CycleMetrics   CycleKind = "metrics"
	CycleExistence CycleKind = "existence"
	CycleProfile   CycleKind = "profile"
)

// CycleStatus is the operational snapshot for one recurring cycle.
type CycleStatus struct {
	Running       bool       `json:"running"`
	LastStartedAt *time.Time `json:"last_started_at,omitempty"`
	LastDuration  string     `json:"last_duration,omitempty"`
	RunCount      int64      `json:"run_count"`
	DroppedCount  int64      `json:"dropped_count"`
}

// cycleGuard allows at most one run of a cycle at a time. A trigger that
// arrives while the cycle is running is dropped and counted, not queued.
type cycleGuard struct {
	mu            sync.Mutex
	running       bool
	lastStartedAt *time.Time
	lastDuration  time.Duration
	runCount      atomic.Int64
	droppedCount  atomic.Int64
}

func (g *cycleGuard) tryStart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.droppedCount.Add(1)
		return false
	}
	g.running = true
	now := time.Now().UTC()
	g.lastStartedAt = &now
	g.runCount.Add(1)
	return true
}

func (g *cycleGuard) finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.running = false
	if g.lastStartedAt != nil {
		g.lastDuration = time.Since(*g.lastStartedAt)
	}
}

func (g *cycleGuard) status() CycleStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := CycleStatus{
		Running:      g.running,
		RunCount:     g.runCount.Load(),
		DroppedCount: g.droppedCount.Load(),
	}
	if g.lastStartedAt != nil {
		startedAt := *g.lastStartedAt
		status.LastStartedAt = &startedAt
		if !g.running {
			status.LastDuration = g.lastDuration.Round(time.Millisecond).String()
		}
	}
	return status
}
