// Package engine implements the synthetic publish-latency probe: a fixed
// interval scheduler spawns create, update and delete operations against a
// CMS and measures how long each mutation takes to surface on the delivery
// side.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultCheckBackoff is the fixed wait between content checks.
const DefaultCheckBackoff = 100 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by Run when the engine has already been
	// started.
	ErrAlreadyRunning = errors.New("engine already running")

	// ErrStopped is returned by Run when Stop halts the scheduler before
	// the done condition is reached.
	ErrStopped = errors.New("engine stopped")

	// ErrChecksExhausted marks operations failed by the check budget.
	ErrChecksExhausted = errors.New("check budget exhausted")
)

// Config carries the engine's run parameters.
type Config struct {
	// RootURL is the delivery-surface base content checks fetch pages from.
	RootURL string

	// Interval is the scheduler tick period.
	Interval time.Duration

	// OperationsLimit caps the number of operations spawned for the run.
	OperationsLimit int

	// CheckBackoff is the fixed delay between unconverged content checks.
	// Zero means DefaultCheckBackoff.
	CheckBackoff time.Duration

	// MaxChecks caps checks per operation. Zero means unbounded: workers
	// assume content eventually converges and poll until it does.
	MaxChecks int

	// NodePool seeds the registry. With a pool the engine repeatedly
	// updates the seeded nodes; without one it creates and deletes its own.
	NodePool []Node
}

// Engine is the scheduler that owns one probe run.
//
// A single goroutine runs the tick loop and is the only writer of the node
// registry and the operation list. Workers report node snapshots over a
// channel and the loop folds them in between ticks, so shared state needs
// no locking.
type Engine struct {
	cfg      Config
	operator Operator
	checker  ContentChecker
	policy   spawnPolicy

	logger       *slog.Logger
	onTransition func(Snapshot)

	state   atomic.Int32
	running atomic.Bool

	reports  chan nodeReport
	fatal    chan error
	snapReq  chan chan Snapshot
	stopCh   chan struct{}
	stopOnce sync.Once
	halted   chan struct{}

	// Scheduler-goroutine state. Safe without locks; only Run touches it.
	runID     string
	ids       idAllocator
	reg       *registry
	ops       []*Operation
	createdAt time.Time

	// finalSnap is written before halted closes and read only after.
	finalSnap Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger. The default discards
// everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTransitionHook registers a callback invoked on the scheduler
// goroutine whenever the run state changes. Hooks must return promptly;
// the scheduler does not tick while one runs.
func WithTransitionHook(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onTransition = fn }
}

// New builds an engine for one probe run. Engines are single-use.
func New(cfg Config, operator Operator, checker ContentChecker, opts ...Option) (*Engine, error) {
	if operator == nil {
		return nil, errors.New("engine: operator is required")
	}
	if checker == nil {
		return nil, errors.New("engine: content checker is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("engine: interval must be positive, got %v", cfg.Interval)
	}
	if cfg.OperationsLimit <= 0 {
		return nil, fmt.Errorf("engine: operations limit must be positive, got %d", cfg.OperationsLimit)
	}
	if cfg.CheckBackoff <= 0 {
		cfg.CheckBackoff = DefaultCheckBackoff
	}

	e := &Engine{
		cfg:       cfg,
		operator:  operator,
		checker:   checker,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		runID:     ulid.Make().String(),
		reports:   make(chan nodeReport),
		fatal:     make(chan error, 1),
		snapReq:   make(chan chan Snapshot),
		stopCh:    make(chan struct{}),
		halted:    make(chan struct{}),
		reg:       newRegistry(),
		createdAt: time.Now(),
	}
	if len(cfg.NodePool) > 0 {
		e.policy = poolPolicy{}
	} else {
		e.policy = &lifecyclePolicy{limit: cfg.OperationsLimit}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the scheduler's lifecycle state.
func (e *Engine) State() RunState {
	return RunState(e.state.Load())
}

// RunID returns the run identifier, assigned at construction.
func (e *Engine) RunID() string {
	return e.runID
}

// Stop halts the scheduler after its current select step. In-flight
// workers are not waited for; their late reports are dropped.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// Run executes the probe until every spawned operation has completed, the
// context is canceled, Stop is called, or a worker reports a fatal payload
// error. The returned Result reflects whatever progress was made, even
// alongside a non-nil error.
//
// Workers that have not converged when Run returns are abandoned; cancel
// ctx to release them.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}

	e.state.Store(int32(RunStateRunning))

	for _, n := range e.cfg.NodePool {
		e.reg.put(n)
	}

	e.logger.Info("run starting",
		"run", e.runID,
		"policy", e.policy.Name(),
		"interval", e.cfg.Interval,
		"operations_limit", e.cfg.OperationsLimit,
		"pool", len(e.cfg.NodePool),
	)
	e.notifyTransition()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	if e.tick(ctx) {
		return e.finish(nil)
	}

	for {
		select {
		case <-ticker.C:
			if e.tick(ctx) {
				return e.finish(nil)
			}
		case rep := <-e.reports:
			e.fold(rep)
		case err := <-e.fatal:
			e.logger.Error("run aborted", "run", e.runID, "error", err)
			return e.finish(err)
		case ch := <-e.snapReq:
			ch <- e.snapshot()
		case <-e.stopCh:
			e.logger.Info("run stopped",
				"run", e.runID,
				"operations", len(e.ops),
			)
			return e.finish(ErrStopped)
		case <-ctx.Done():
			return e.finish(ctx.Err())
		}
	}
}

// tick runs one scheduler beat: evaluate the done condition, then spawn at
// most one operation if the budget allows. Returns true once the run is
// done.
func (e *Engine) tick(ctx context.Context) bool {
	if e.done() {
		e.state.Store(int32(RunStateDone))
		e.logger.Info("run done", "run", e.runID, "operations", len(e.ops))
		e.notifyTransition()
		return true
	}

	if len(e.ops) >= e.cfg.OperationsLimit {
		return false
	}

	dec, ok := e.policy.Next(e.reg, &e.ids)
	if !ok {
		e.logger.Debug("tick skipped, no eligible node", "run", e.runID)
		return false
	}
	e.spawn(ctx, dec)
	return false
}

// done reports whether the budget is spent and every operation completed.
// A failed operation never satisfies it; a run with failures parks in
// running until stopped.
func (e *Engine) done() bool {
	if len(e.ops) < e.cfg.OperationsLimit {
		return false
	}
	for _, op := range e.ops {
		if op.State() != OpStateCompleted {
			return false
		}
	}
	return true
}

// spawn launches a worker goroutine for the decided operation.
func (e *Engine) spawn(ctx context.Context, dec decision) {
	op := newOperation(e.ids.operationID(dec.verb), dec.verb, dec.node)
	e.ops = append(e.ops, op)

	w := &worker{
		op:        op,
		operator:  e.operator,
		checker:   e.checker,
		rootURL:   e.cfg.RootURL,
		backoff:   e.cfg.CheckBackoff,
		maxChecks: e.cfg.MaxChecks,
		reports:   e.reports,
		fatal:     e.fatal,
		halted:    e.halted,
		logger:    e.logger,
	}
	go w.run(ctx)

	e.logger.Info("operation spawned",
		"run", e.runID,
		"operation", op.ID,
		"verb", op.Verb,
		"node", op.NodeID,
		"spawned", len(e.ops),
		"limit", e.cfg.OperationsLimit,
	)
}

// fold merges one worker-reported node snapshot into the registry.
func (e *Engine) fold(rep nodeReport) {
	e.reg.put(rep.node)
	e.logger.Debug("node report",
		"run", e.runID,
		"operation", rep.opID,
		"node", rep.node.ID,
		"in_flight", rep.node.InFlight,
		"exists", rep.node.ExistsOnCMS,
		"published", rep.node.Published,
	)
}

// finish seals the run: build the final snapshot and result, then release
// abandoned workers' pending sends.
func (e *Engine) finish(err error) (*Result, error) {
	snap := e.snapshot()
	e.finalSnap = snap
	res := e.buildResult(snap)
	close(e.halted)
	return res, err
}

func (e *Engine) notifyTransition() {
	if e.onTransition != nil {
		e.onTransition(e.snapshot())
	}
}
