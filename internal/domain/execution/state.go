// Package execution provides benchmark execution domain models.
package execution

import "fmt"

// DriverState represents the state of a driver run over a benchmark suite.
type DriverState string

const (
	StateInit            DriverState = "init"              // Created, nothing executed yet
	StateBeforeAllMacros DriverState = "before_all_macros" // Running before-all macros
	StateHealthCheck     DriverState = "health_check"      // Running health-check macros
	StateRunBenchmark    DriverState = "run_benchmark"     // Executing a benchmark
	StateAborted         DriverState = "aborted"           // Time limit elapsed, remaining benchmarks skipped
	StateAfterAllMacros  DriverState = "after_all_macros"  // Running after-all macros
	StateDone            DriverState = "done"              // Completed successfully
	StateFailed          DriverState = "failed"            // Fatal macro or listener failure
	StateCancelled       DriverState = "cancelled"         // Context cancelled
)

// transitions lists the allowed successors of every non-terminal state.
var transitions = map[DriverState][]DriverState{
	StateInit:            {StateBeforeAllMacros, StateFailed, StateCancelled},
	StateBeforeAllMacros: {StateHealthCheck, StateRunBenchmark, StateAborted, StateAfterAllMacros, StateFailed, StateCancelled},
	StateHealthCheck:     {StateRunBenchmark, StateFailed, StateCancelled},
	StateRunBenchmark:    {StateHealthCheck, StateRunBenchmark, StateAborted, StateAfterAllMacros, StateFailed, StateCancelled},
	StateAborted:         {StateAfterAllMacros, StateFailed, StateCancelled},
	StateAfterAllMacros:  {StateDone, StateFailed, StateCancelled},
}

// IsValid checks if the state is valid.
func (s DriverState) IsValid() bool {
	switch s {
	case StateInit, StateBeforeAllMacros, StateHealthCheck, StateRunBenchmark,
		StateAborted, StateAfterAllMacros, StateDone, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the state is a terminal state (no further transitions possible).
func (s DriverState) IsTerminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// CanTransitionTo checks if a transition from current state to target state is valid.
func (s DriverState) CanTransitionTo(target DriverState) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// String implements Stringer interface.
func (s DriverState) String() string {
	return string(s)
}

// InvalidStateTransitionError represents an invalid state transition.
type InvalidStateTransitionError struct {
	From DriverState
	To   DriverState
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}
