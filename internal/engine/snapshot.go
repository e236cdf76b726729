package engine

import (
	"time"

	"github.com/reedharmon/pubpulse/internal/stats"
)

// Snapshot is a point-in-time view of a run.
type Snapshot struct {
	RunID      string          `json:"runId"`
	State      RunState        `json:"state"`
	Policy     string          `json:"policy"`
	CreatedAt  time.Time       `json:"createdAt"`
	Elapsed    time.Duration   `json:"elapsedNs"`
	Limit      int             `json:"operationsLimit"`
	Spawned    int             `json:"spawned"`
	Completed  int             `json:"completed"`
	Failed     int             `json:"failed"`
	Nodes      map[string]Node `json:"nodes"`
	Operations []OperationView `json:"operations"`
}

// Result is the sealed outcome of a run.
type Result struct {
	RunID      string          `json:"runId"`
	State      RunState        `json:"state"`
	Policy     string          `json:"policy"`
	CreatedAt  time.Time       `json:"createdAt"`
	Duration   time.Duration   `json:"durationNs"`
	Summary    *stats.Summary  `json:"summary"`
	Nodes      map[string]Node `json:"nodes"`
	Operations []OperationView `json:"operations"`
}

// Snapshot returns a point-in-time view of the run. Safe to call from any
// goroutine. While the scheduler is live the request round-trips through
// its loop; after the run it serves the final snapshot.
func (e *Engine) Snapshot() Snapshot {
	if !e.running.Load() {
		return Snapshot{
			RunID:     e.runID,
			State:     e.State(),
			Policy:    e.policy.Name(),
			CreatedAt: e.createdAt,
			Nodes:     map[string]Node{},
		}
	}
	ch := make(chan Snapshot, 1)
	select {
	case e.snapReq <- ch:
		return <-ch
	case <-e.halted:
		return e.finalSnap
	}
}

// snapshot assembles the externally visible state. Scheduler goroutine
// only.
func (e *Engine) snapshot() Snapshot {
	ops := make([]OperationView, 0, len(e.ops))
	completed, failed := 0, 0
	for _, op := range e.ops {
		v := op.View()
		switch v.State {
		case OpStateCompleted:
			completed++
		case OpStateFailure:
			failed++
		}
		ops = append(ops, v)
	}
	return Snapshot{
		RunID:      e.runID,
		State:      e.State(),
		Policy:     e.policy.Name(),
		CreatedAt:  e.createdAt,
		Elapsed:    time.Since(e.createdAt),
		Limit:      e.cfg.OperationsLimit,
		Spawned:    len(e.ops),
		Completed:  completed,
		Failed:     failed,
		Nodes:      e.reg.snapshot(),
		Operations: ops,
	}
}

// buildResult turns the final snapshot into a sealed result, aggregating
// per-operation samples into the run summary.
func (e *Engine) buildResult(snap Snapshot) *Result {
	samples := make([]stats.Sample, 0, len(snap.Operations))
	for _, v := range snap.Operations {
		samples = append(samples, stats.Sample{
			Verb:      string(v.Verb),
			Completed: v.State == OpStateCompleted,
			Failed:    v.State == OpStateFailure,
			Latency:   v.Latency,
			Checks:    v.CheckCount,
		})
	}
	return &Result{
		RunID:      snap.RunID,
		State:      snap.State,
		Policy:     snap.Policy,
		CreatedAt:  snap.CreatedAt,
		Duration:   snap.Elapsed,
		Summary:    stats.Summarize(snap.Elapsed, samples),
		Nodes:      snap.Nodes,
		Operations: snap.Operations,
	}
}
