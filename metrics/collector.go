// Package metrics provides process-wide pipeline counters.
//
// The Collector accumulates counters across runs hosted by one process
// (the serve front-end reports them on its health endpoint). It is a
// leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so callers never need to guard.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Run lifecycle
	RunsStarted   int64 `json:"runs_started"`
	RunsCompleted int64 `json:"runs_completed"`
	RunsFailed    int64 `json:"runs_failed"`

	// Stage invocations
	EditStageRuns        int64 `json:"edit_stage_runs"`
	EditStageFailures    int64 `json:"edit_stage_failures"`
	RepaintStageRuns     int64 `json:"repaint_stage_runs"`
	RepaintStageFailures int64 `json:"repaint_stage_failures"`
}

// Collector accumulates pipeline counters. Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	runsStarted   int64
	runsCompleted int64
	runsFailed    int64

	editRuns        int64
	editFailures    int64
	repaintRuns     int64
	repaintFailures int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// IncRunStarted records a run start.
func (c *Collector) IncRunStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsStarted++
	c.mu.Unlock()
}

// IncRunCompleted records a successful run.
func (c *Collector) IncRunCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsCompleted++
	c.mu.Unlock()
}

// IncRunFailed records a failed run (input resolution or stage failure).
func (c *Collector) IncRunFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.runsFailed++
	c.mu.Unlock()
}

// IncEditStage records an edit stage invocation and whether it failed.
func (c *Collector) IncEditStage(failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.editRuns++
	if failed {
		c.editFailures++
	}
	c.mu.Unlock()
}

// IncRepaintStage records a repaint stage invocation and whether it failed.
func (c *Collector) IncRepaintStage(failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.repaintRuns++
	if failed {
		c.repaintFailures++
	}
	c.mu.Unlock()
}

// Snapshot returns a point-in-time copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		RunsStarted:          c.runsStarted,
		RunsCompleted:        c.runsCompleted,
		RunsFailed:           c.runsFailed,
		EditStageRuns:        c.editRuns,
		EditStageFailures:    c.editFailures,
		RepaintStageRuns:     c.repaintRuns,
		RepaintStageFailures: c.repaintFailures,
	}
}
