package listener

import (
	"errors"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testBenchmark() *benchmark.Benchmark {
	b := benchmark.New("tpch_q1", "pg", []benchmark.Query{{Name: "q1", SQL: "SELECT 1"}})
	b.Variables = map[string]string{"scale": "1"}
	return b
}

func testToken() usecase.Token {
	return usecase.Token{SequenceID: "seq-7", Ordinal: 1, Total: 1}
}

func testExecution(run int, d time.Duration, err error) execution.QueryExecution {
	return execution.QueryExecution{
		Benchmark:   "tpch_q1_scale=1",
		Query:       "q1",
		Run:         run,
		Sequence:    run - 1,
		StartedAt:   testStart,
		CompletedAt: testStart.Add(d),
		Rows:        4,
		Err:         err,
	}
}

func testResult(failed bool) *execution.BenchmarkExecutionResult {
	execs := []execution.QueryExecution{
		testExecution(1, 10*time.Millisecond, nil),
		testExecution(2, 20*time.Millisecond, nil),
	}
	if failed {
		execs = append(execs, testExecution(3, time.Millisecond, errors.New("relation does not exist")))
	}
	return execution.NewBenchmarkExecutionResultBuilder(testBenchmark()).
		WithSequence("seq-7", 1).
		WithExecutions(execs).
		Build()
}

func testSuite(state execution.DriverState, results ...*execution.BenchmarkExecutionResult) *execution.SuiteResult {
	s := execution.NewSuiteResult("seq-7", testStart)
	s.State = state
	s.Results = results
	s.CompletedAt = testStart.Add(time.Second)
	return s
}
