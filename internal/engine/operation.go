package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// CheckAttempt records one unconverged content check.
type CheckAttempt struct {
	Result    CheckResult `json:"result"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Operation is a single CMS mutation tracked from spawn to convergence.
//
// The scheduler owns the handle list; the worker goroutine owns the mutable
// fields. State, the check counter and the latency clock are atomic so the
// scheduler can read them lock-free on every tick. The remaining fields are
// written by the worker before it publishes a terminal state and must only
// be read after State reports a terminal value.
type Operation struct {
	// ID is the operation identifier, "<verb>-<n>" from the run counter.
	ID string

	// Verb is the mutation kind.
	Verb Verb

	// NodeID is the targeted node.
	NodeID string

	state      atomic.Int32
	checkCount atomic.Int64

	// createdAt holds the latency clock start in unix nanoseconds. The
	// worker restarts it once the operator accepts the mutation, so publish
	// latency excludes the operator call itself.
	createdAt atomic.Int64

	// Worker-owned. Stable once the state is terminal.
	node        Node
	completedAt time.Time
	latency     time.Duration
	checks      []CheckAttempt
	err         error
}

func newOperation(id string, verb Verb, node Node) *Operation {
	op := &Operation{
		ID:     id,
		Verb:   verb,
		NodeID: node.ID,
		node:   node,
	}
	op.state.Store(int32(OpStateRunning))
	op.createdAt.Store(time.Now().UnixNano())
	return op
}

// State returns the operation's current lifecycle state.
func (o *Operation) State() OperationState {
	return OperationState(o.state.Load())
}

// CheckCount returns the number of unconverged checks so far.
func (o *Operation) CheckCount() int64 {
	return o.checkCount.Load()
}

// CreatedAt returns the current start of the latency clock.
func (o *Operation) CreatedAt() time.Time {
	return time.Unix(0, o.createdAt.Load())
}

func (o *Operation) setState(s OperationState) {
	o.state.Store(int32(s))
}

func (o *Operation) resetCreatedAt() {
	o.createdAt.Store(time.Now().UnixNano())
}

// recordCheck appends one unconverged check to the log.
func (o *Operation) recordCheck(res CheckResult, err error) {
	att := CheckAttempt{Result: res, Timestamp: time.Now()}
	if err != nil {
		att.Error = err.Error()
	}
	o.checks = append(o.checks, att)
	o.checkCount.Add(1)
}

// seal fixes the completion time and latency at the convergence instant.
// The worker calls it before delivering the final node report and publishes
// OpStateCompleted only afterwards, so a tick that observes the terminal
// state has already folded the report.
func (o *Operation) seal() {
	o.completedAt = time.Now()
	o.latency = o.completedAt.Sub(o.CreatedAt())
}

// fail marks the operation terminally failed.
func (o *Operation) fail(err error) {
	o.err = err
	o.setState(OpStateFailure)
}

// View returns a read-only copy of the operation's externally visible
// state. The check log, completion time and latency are populated only for
// terminal states.
func (o *Operation) View() OperationView {
	v := OperationView{
		ID:         o.ID,
		Verb:       o.Verb,
		NodeID:     o.NodeID,
		State:      o.State(),
		CheckCount: o.CheckCount(),
		CreatedAt:  o.CreatedAt(),
	}
	if !v.State.Terminal() {
		return v
	}
	v.Checks = append([]CheckAttempt(nil), o.checks...)
	n := o.node
	v.Node = &n
	if v.State == OpStateCompleted {
		t := o.completedAt
		v.CompletedAt = &t
		v.Latency = o.latency
	}
	if o.err != nil {
		v.Error = o.err.Error()
	}
	return v
}

// OperationView is a point-in-time record of one operation.
type OperationView struct {
	ID          string         `json:"id"`
	Verb        Verb           `json:"verb"`
	NodeID      string         `json:"nodeId"`
	State       OperationState `json:"state"`
	CheckCount  int64          `json:"checkCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Latency     time.Duration  `json:"latencyNs,omitempty"`
	Node        *Node          `json:"node,omitempty"`
	Checks      []CheckAttempt `json:"checks,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// idAllocator issues ids from the run's single monotonic counter. Node ids
// and operation ids draw from the same sequence.
type idAllocator struct {
	n int
}

func (a *idAllocator) nodeID() string {
	a.n++
	return fmt.Sprintf("node-%d", a.n)
}

func (a *idAllocator) operationID(v Verb) string {
	a.n++
	return fmt.Sprintf("%s-%d", v, a.n)
}
