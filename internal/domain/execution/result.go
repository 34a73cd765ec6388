package execution

import (
	"errors"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
)

const (
	// Durations are recorded in microseconds, up to one hour.
	maxRecordableMicros = int64(time.Hour / time.Microsecond)
	sigFigs             = 3
)

// DurationSummary holds duration statistics over successful executions.
type DurationSummary struct {
	Count int64         `json:"count"`
	Mean  time.Duration `json:"mean"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P99   time.Duration `json:"p99"`
}

// BenchmarkExecutionResult is the outcome of running one benchmark. It is
// immutable: accessors return copies, and it is only created by
// BenchmarkExecutionResultBuilder.Build.
type BenchmarkExecutionResult struct {
	benchmark   *benchmark.Benchmark
	sequenceID  string
	ordinal     int
	startedAt   time.Time
	completedAt time.Time
	executions  []QueryExecution
	failures    []error
	summary     DurationSummary
}

// Benchmark returns the benchmark this result belongs to.
func (r *BenchmarkExecutionResult) Benchmark() *benchmark.Benchmark {
	return r.benchmark
}

// BenchmarkName returns the unique name of the benchmark, or an empty string
// when the result was built without one.
func (r *BenchmarkExecutionResult) BenchmarkName() string {
	if r.benchmark == nil {
		return ""
	}
	return r.benchmark.UniqueName()
}

// SequenceID returns the execution sequence id the result is tagged with.
func (r *BenchmarkExecutionResult) SequenceID() string {
	return r.sequenceID
}

// Ordinal returns the 1-based position of the benchmark in the suite.
func (r *BenchmarkExecutionResult) Ordinal() int {
	return r.ordinal
}

// StartedAt returns when the benchmark started.
func (r *BenchmarkExecutionResult) StartedAt() time.Time {
	return r.startedAt
}

// CompletedAt returns when the benchmark completed.
func (r *BenchmarkExecutionResult) CompletedAt() time.Time {
	return r.completedAt
}

// Duration returns the benchmark wall-clock duration.
func (r *BenchmarkExecutionResult) Duration() time.Duration {
	if r.startedAt.IsZero() || r.completedAt.IsZero() {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

// Executions returns the execution records in submission order.
func (r *BenchmarkExecutionResult) Executions() []QueryExecution {
	out := make([]QueryExecution, len(r.executions))
	copy(out, r.executions)
	return out
}

// Failures returns benchmark-level failures (macros, listeners), not run failures.
func (r *BenchmarkExecutionResult) Failures() []error {
	out := make([]error, len(r.failures))
	copy(out, r.failures)
	return out
}

// Summary returns duration statistics over successful executions.
func (r *BenchmarkExecutionResult) Summary() DurationSummary {
	return r.summary
}

// FailedExecutions returns the number of failed executions.
func (r *BenchmarkExecutionResult) FailedExecutions() int {
	n := 0
	for i := range r.executions {
		if !r.executions[i].Successful() {
			n++
		}
	}
	return n
}

// Successful is the conjunction of every execution outcome and the absence
// of benchmark-level failures.
func (r *BenchmarkExecutionResult) Successful() bool {
	return len(r.failures) == 0 && r.FailedExecutions() == 0
}

// Err joins benchmark-level failures and failed executions, or returns nil.
func (r *BenchmarkExecutionResult) Err() error {
	errs := make([]error, 0, len(r.failures))
	errs = append(errs, r.failures...)
	for i := range r.executions {
		if r.executions[i].Err != nil {
			errs = append(errs, r.executions[i].Err)
		}
	}
	return errors.Join(errs...)
}

// BenchmarkExecutionResultBuilder accumulates a result while a benchmark runs.
// It is not safe for concurrent use; the driver collects executions first.
type BenchmarkExecutionResultBuilder struct {
	result BenchmarkExecutionResult
	now    func() time.Time
}

// NewBenchmarkExecutionResultBuilder creates a builder for the given benchmark.
func NewBenchmarkExecutionResultBuilder(b *benchmark.Benchmark) *BenchmarkExecutionResultBuilder {
	return &BenchmarkExecutionResultBuilder{
		result: BenchmarkExecutionResult{benchmark: b},
		now:    time.Now,
	}
}

// WithSequence tags the result with the execution sequence id and ordinal.
func (b *BenchmarkExecutionResultBuilder) WithSequence(sequenceID string, ordinal int) *BenchmarkExecutionResultBuilder {
	b.result.sequenceID = sequenceID
	b.result.ordinal = ordinal
	return b
}

// StartTimer records the benchmark start time.
func (b *BenchmarkExecutionResultBuilder) StartTimer() *BenchmarkExecutionResultBuilder {
	b.result.startedAt = b.now()
	return b
}

// EndTimer records the benchmark completion time.
func (b *BenchmarkExecutionResultBuilder) EndTimer() *BenchmarkExecutionResultBuilder {
	b.result.completedAt = b.now()
	return b
}

// WithExecutions sets the execution records. The slice is copied.
func (b *BenchmarkExecutionResultBuilder) WithExecutions(executions []QueryExecution) *BenchmarkExecutionResultBuilder {
	b.result.executions = make([]QueryExecution, len(executions))
	copy(b.result.executions, executions)
	return b
}

// WithFailure records a benchmark-level failure. Nil errors are ignored.
func (b *BenchmarkExecutionResultBuilder) WithFailure(err error) *BenchmarkExecutionResultBuilder {
	if err != nil {
		b.result.failures = append(b.result.failures, err)
	}
	return b
}

// Build finalizes the result. Later builder calls do not affect it.
func (b *BenchmarkExecutionResultBuilder) Build() *BenchmarkExecutionResult {
	r := b.result
	r.executions = append([]QueryExecution(nil), b.result.executions...)
	r.failures = append([]error(nil), b.result.failures...)
	if r.startedAt.IsZero() {
		r.startedAt = b.now()
	}
	if r.completedAt.IsZero() {
		r.completedAt = b.now()
	}
	r.summary = summarize(r.executions)
	return &r
}

// summarize computes duration statistics over successful executions.
func summarize(executions []QueryExecution) DurationSummary {
	h := hdrhistogram.New(1, maxRecordableMicros, sigFigs)
	for i := range executions {
		if !executions[i].Successful() {
			continue
		}
		micros := executions[i].Duration().Microseconds()
		if micros < 1 {
			micros = 1
		}
		if micros > maxRecordableMicros {
			micros = maxRecordableMicros
		}
		_ = h.RecordValue(micros)
	}
	if h.TotalCount() == 0 {
		return DurationSummary{}
	}
	return DurationSummary{
		Count: h.TotalCount(),
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
		Min:   time.Duration(h.Min()) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
		P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:   time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P99:   time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}
