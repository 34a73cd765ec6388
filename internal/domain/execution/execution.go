package execution

import (
	"time"
)

// QueryExecution is the recorded outcome of one query within one run of a
// benchmark. A failed execution carries its error; it never aborts siblings.
type QueryExecution struct {
	Benchmark   string    `json:"benchmark"` // Benchmark unique name
	Query       string    `json:"query"`
	Run         int       `json:"run"`      // 1-based run number
	Sequence    int       `json:"sequence"` // Submission order within the benchmark
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Rows        int64     `json:"rows"`
	Err         error     `json:"-"`
}

// Duration returns the wall-clock duration of the execution.
func (e *QueryExecution) Duration() time.Duration {
	if e.CompletedAt.IsZero() || e.StartedAt.IsZero() {
		return 0
	}
	return e.CompletedAt.Sub(e.StartedAt)
}

// Successful reports whether the query completed without error.
func (e *QueryExecution) Successful() bool {
	return e.Err == nil
}

// ErrorMessage returns the failure message, or an empty string on success.
func (e *QueryExecution) ErrorMessage() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
