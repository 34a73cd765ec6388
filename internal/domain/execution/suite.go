package execution

import (
	"time"
)

// SuiteResult is the outcome of one driver run over all loaded benchmarks.
type SuiteResult struct {
	SequenceID       string                      `json:"sequence_id"`
	State            DriverState                 `json:"state"`
	StartedAt        time.Time                   `json:"started_at"`
	CompletedAt      time.Time                   `json:"completed_at,omitempty"`
	Results          []*BenchmarkExecutionResult `json:"-"`
	Skipped          []string                    `json:"skipped,omitempty"` // Unique names not run due to the time limit
	TimeLimitReached bool                        `json:"time_limit_reached"`
	Err              error                       `json:"-"`
}

// NewSuiteResult creates a suite result in the init state.
func NewSuiteResult(sequenceID string, startedAt time.Time) *SuiteResult {
	return &SuiteResult{
		SequenceID: sequenceID,
		State:      StateInit,
		StartedAt:  startedAt,
	}
}

// SetState sets the state with validation.
// Returns an error if the transition is invalid.
func (s *SuiteResult) SetState(newState DriverState) error {
	if !s.State.CanTransitionTo(newState) {
		return &InvalidStateTransitionError{
			From: s.State,
			To:   newState,
		}
	}
	s.State = newState
	return nil
}

// Successful reports whether the suite finished without a fatal error and
// every executed benchmark succeeded.
func (s *SuiteResult) Successful() bool {
	if s.Err != nil || s.State != StateDone {
		return false
	}
	for _, r := range s.Results {
		if !r.Successful() {
			return false
		}
	}
	return true
}

// Duration returns the suite wall-clock duration.
func (s *SuiteResult) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// ExecutionCount returns the total number of recorded executions.
func (s *SuiteResult) ExecutionCount() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.executions)
	}
	return n
}
