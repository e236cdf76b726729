package engine

import "encoding/json"

// RunState represents the lifecycle state of the scheduler.
type RunState int32

const (
	// RunStateRunning indicates the scheduler is ticking and spawning operations.
	RunStateRunning RunState = iota
	// RunStateDone indicates the operation budget is spent and every
	// operation completed.
	RunStateDone
)

func (s RunState) String() string {
	switch s {
	case RunStateRunning:
		return "running"
	case RunStateDone:
		return "done"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its string name.
func (s RunState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// OperationState represents the lifecycle state of a single operation.
type OperationState int32

const (
	// OpStateRunning indicates the operator call is in flight.
	OpStateRunning OperationState = iota
	// OpStateChecking indicates the operator call landed and the worker is
	// polling the delivery surface for convergence.
	OpStateChecking
	// OpStateCompleted indicates convergence was observed. Terminal.
	OpStateCompleted
	// OpStateFailure indicates the operation will never converge. Terminal.
	OpStateFailure
)

func (s OperationState) String() string {
	switch s {
	case OpStateRunning:
		return "running"
	case OpStateChecking:
		return "checking"
	case OpStateCompleted:
		return "completed"
	case OpStateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its string name.
func (s OperationState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Terminal reports whether the state is final.
func (s OperationState) Terminal() bool {
	return s == OpStateCompleted || s == OpStateFailure
}
