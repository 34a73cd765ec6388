package report

import (
	"errors"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

var errAny = errors.New("boom")

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testExecutions(name string, durations ...time.Duration) []execution.QueryExecution {
	out := make([]execution.QueryExecution, 0, len(durations))
	at := testStart
	for i, d := range durations {
		out = append(out, execution.QueryExecution{
			Benchmark:   name,
			Query:       "q1",
			Run:         i + 1,
			Sequence:    i,
			StartedAt:   at,
			CompletedAt: at.Add(d),
		})
		at = at.Add(d)
	}
	return out
}

func testSuite() *execution.SuiteResult {
	suite := execution.NewSuiteResult("seq-42", testStart)

	ok := benchmark.New("select_one", "pg", []benchmark.Query{{Name: "q1", SQL: "SELECT 1"}})
	ok.Variables = map[string]string{"scale": "10"}
	okExecs := testExecutions(ok.UniqueName(), 10*time.Millisecond, 20*time.Millisecond, 30*time.Millisecond)

	bad := benchmark.New("insert_rows", "pg", []benchmark.Query{{Name: "q1", SQL: "INSERT"}})
	badExecs := testExecutions(bad.Name, 5*time.Millisecond, 5*time.Millisecond)
	badExecs[1].Err = errors.New("duplicate key")

	suite.Results = []*execution.BenchmarkExecutionResult{
		execution.NewBenchmarkExecutionResultBuilder(ok).WithSequence("seq-42", 1).WithExecutions(okExecs).Build(),
		execution.NewBenchmarkExecutionResultBuilder(bad).WithSequence("seq-42", 2).WithExecutions(badExecs).
			WithFailure(errors.New("after-benchmark macro cleanup failed")).Build(),
	}
	suite.Skipped = []string{"late_benchmark"}
	suite.TimeLimitReached = true
	suite.State = execution.StateDone
	suite.CompletedAt = testStart.Add(2 * time.Second)
	return suite
}
