package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// nodeReport is a worker-observed node snapshot on its way to the registry.
type nodeReport struct {
	opID string
	node Node
}

// worker drives one operation from operator call to convergence.
//
// Workers never touch scheduler state. Everything they learn flows back as
// node snapshots on the report channel, and the scheduler folds those into
// the registry in arrival order. A worker that outlives the scheduler has
// its sends dropped via the halted channel.
type worker struct {
	op       *Operation
	operator Operator
	checker  ContentChecker

	rootURL   string
	backoff   time.Duration
	maxChecks int

	reports chan<- nodeReport
	fatal   chan<- error
	halted  <-chan struct{}

	logger *slog.Logger
}

// run executes the operation. It is the goroutine body for one worker.
func (w *worker) run(ctx context.Context) {
	w.report(w.entrySnapshot())

	if err := w.execute(ctx); err != nil {
		w.op.fail(err)
		var pe *PayloadError
		if errors.As(err, &pe) {
			w.logger.Error("operator payload rejected",
				"operation", w.op.ID,
				"node", w.op.NodeID,
				"error", err,
			)
			w.sendFatal(err)
			return
		}
		w.logger.Warn("operator call failed",
			"operation", w.op.ID,
			"verb", w.op.Verb,
			"node", w.op.NodeID,
			"error", err,
		)
		return
	}

	// The latency clock starts once the CMS has accepted the mutation.
	w.op.resetCreatedAt()
	w.report(w.issuedSnapshot())
	w.op.setState(OpStateChecking)

	w.poll(ctx)
}

// execute performs the operator call for the worker's verb and folds any
// returned payload into the working node copy.
func (w *worker) execute(ctx context.Context) error {
	switch w.op.Verb {
	case VerbCreate:
		p, err := w.operator.Create(ctx, w.op.NodeID)
		if err != nil {
			return err
		}
		w.op.node.applyPayload(p)
	case VerbUpdate:
		p, err := w.operator.Update(ctx, w.op.node)
		if err != nil {
			return err
		}
		w.op.node.applyPayload(p)
	case VerbDelete:
		if err := w.operator.Delete(ctx, w.op.node); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown verb %q", w.op.Verb)
	}
	return nil
}

// poll checks the delivery surface until the node converges. Unconverged
// checks land in the operation's check log and are retried after a fixed
// backoff. Without a check budget the loop ends only on convergence or
// context cancellation.
func (w *worker) poll(ctx context.Context) {
	req := CheckRequest{
		RootURL:  w.rootURL,
		PagePath: w.op.node.PagePath,
		Selector: w.op.node.Selector,
	}

	for attempt := 1; ; attempt++ {
		res, err := w.check(ctx, req)
		if err == nil && w.converged(res) {
			w.op.seal()
			w.report(w.finalSnapshot())
			w.op.setState(OpStateCompleted)
			w.logger.Debug("operation converged",
				"operation", w.op.ID,
				"checks", w.op.CheckCount(),
				"latency", w.op.latency,
			)
			return
		}

		w.op.recordCheck(res, err)

		if w.maxChecks > 0 && attempt >= w.maxChecks {
			w.op.fail(fmt.Errorf("%s %s: %w after %d checks",
				w.op.Verb, w.op.NodeID, ErrChecksExhausted, attempt))
			w.logger.Warn("operation gave up",
				"operation", w.op.ID,
				"node", w.op.NodeID,
				"checks", attempt,
			)
			return
		}

		select {
		case <-time.After(w.backoff):
		case <-ctx.Done():
			w.op.fail(ctx.Err())
			return
		}
	}
}

func (w *worker) check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	if w.op.Verb == VerbDelete {
		return w.checker.CheckNotFound(ctx, req)
	}
	return w.checker.CheckDeployed(ctx, req)
}

// converged applies the per-verb convergence rule: deletes need a 404,
// creates and updates need a 200 whose extracted value matches the node's
// expected value in string form.
func (w *worker) converged(res CheckResult) bool {
	if w.op.Verb == VerbDelete {
		return res.StatusCode == http.StatusNotFound
	}
	return res.StatusCode == http.StatusOK && res.Value == w.op.node.Value
}

// entrySnapshot is the optimistic node state sent before the operator call.
// It marks the node in flight so spawn policies leave it alone while the
// operation runs.
func (w *worker) entrySnapshot() Node {
	w.op.node.InFlight = true
	switch w.op.Verb {
	case VerbCreate:
		w.op.node.ExistsOnCMS = false
		w.op.node.Published = false
	default:
		w.op.node.ExistsOnCMS = true
		w.op.node.Published = true
	}
	return w.op.node
}

// issuedSnapshot is the optimistic node state sent once the operator call
// lands. Create flips existence on; update and delete flip it off while the
// change works through publication.
func (w *worker) issuedSnapshot() Node {
	switch w.op.Verb {
	case VerbCreate:
		w.op.node.ExistsOnCMS = true
		w.op.node.Published = false
	default:
		w.op.node.ExistsOnCMS = false
		w.op.node.Published = true
	}
	return w.op.node
}

// finalSnapshot is the node state sent after convergence, releasing the
// node back to the spawn policies. Existence stays pessimistic after
// rewrites; policies key on the published and in-flight flags only.
func (w *worker) finalSnapshot() Node {
	w.op.node.InFlight = false
	switch w.op.Verb {
	case VerbCreate:
		w.op.node.ExistsOnCMS = true
		w.op.node.Published = true
	default:
		w.op.node.ExistsOnCMS = false
		w.op.node.Published = true
	}
	return w.op.node
}

// report hands a node snapshot to the scheduler.
func (w *worker) report(n Node) {
	select {
	case w.reports <- nodeReport{opID: w.op.ID, node: n}:
	case <-w.halted:
	}
}

func (w *worker) sendFatal(err error) {
	select {
	case w.fatal <- err:
	case <-w.halted:
	}
}
