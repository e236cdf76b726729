package engine

import "testing"

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{RunStateRunning, "running"},
		{RunStateDone, "done"},
		{RunState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("RunState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestOperationState_String(t *testing.T) {
	tests := []struct {
		state OperationState
		want  string
	}{
		{OpStateRunning, "running"},
		{OpStateChecking, "checking"},
		{OpStateCompleted, "completed"},
		{OpStateFailure, "failure"},
		{OperationState(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("OperationState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestOperationState_Terminal(t *testing.T) {
	tests := []struct {
		state OperationState
		want  bool
	}{
		{OpStateRunning, false},
		{OpStateChecking, false},
		{OpStateCompleted, true},
		{OpStateFailure, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%v.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestStateJSON(t *testing.T) {
	b, err := RunStateDone.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"done"` {
		t.Errorf("RunStateDone JSON = %s, want %q", b, "done")
	}

	b, err = OpStateChecking.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"checking"` {
		t.Errorf("OpStateChecking JSON = %s, want %q", b, "checking")
	}
}
