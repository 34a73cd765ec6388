// Package execution provides unit tests for driver state transitions.
package execution

import "testing"

// TestDriverState_CanTransitionTo tests the transition table.
func TestDriverState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from DriverState
		to   DriverState
		want bool
	}{
		{"init -> before_all_macros", StateInit, StateBeforeAllMacros, true},
		{"before_all_macros -> health_check", StateBeforeAllMacros, StateHealthCheck, true},
		{"before_all_macros -> after_all_macros (no benchmarks)", StateBeforeAllMacros, StateAfterAllMacros, true},
		{"health_check -> run_benchmark", StateHealthCheck, StateRunBenchmark, true},
		{"run_benchmark -> health_check", StateRunBenchmark, StateHealthCheck, true},
		{"run_benchmark -> aborted", StateRunBenchmark, StateAborted, true},
		{"aborted -> after_all_macros", StateAborted, StateAfterAllMacros, true},
		{"after_all_macros -> done", StateAfterAllMacros, StateDone, true},
		{"run_benchmark -> failed", StateRunBenchmark, StateFailed, true},
		{"init -> run_benchmark", StateInit, StateRunBenchmark, false},
		{"health_check -> after_all_macros", StateHealthCheck, StateAfterAllMacros, false},
		{"aborted -> run_benchmark", StateAborted, StateRunBenchmark, false},
		{"done -> init", StateDone, StateInit, false},
		{"failed -> after_all_macros", StateFailed, StateAfterAllMacros, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestDriverState_IsTerminal tests terminal state detection.
func TestDriverState_IsTerminal(t *testing.T) {
	tests := []struct {
		state DriverState
		want  bool
	}{
		{StateInit, false},
		{StateRunBenchmark, false},
		{StateAborted, false},
		{StateDone, true},
		{StateFailed, true},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDriverState_IsValid tests state validation.
func TestDriverState_IsValid(t *testing.T) {
	if !StateHealthCheck.IsValid() {
		t.Error("health_check should be valid")
	}
	if DriverState("paused").IsValid() {
		t.Error("paused should not be valid")
	}
}
