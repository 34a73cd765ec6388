package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/domain/benchmark"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// fakeMacroExecutor records macro invocations in order.
type fakeMacroExecutor struct {
	mu     sync.Mutex
	calls  []string
	envs   []map[string]string
	fail   map[string]error
	sleeps map[string]time.Duration
}

func newFakeMacroExecutor() *fakeMacroExecutor {
	return &fakeMacroExecutor{
		fail:   map[string]error{},
		sleeps: map[string]time.Duration{},
	}
}

func (f *fakeMacroExecutor) RunMacro(ctx context.Context, name string, env map[string]string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.envs = append(f.envs, env)
	sleep := f.sleeps[name]
	err := f.fail[name]
	f.mu.Unlock()

	if sleep > 0 {
		time.Sleep(sleep)
	}
	return err
}

func (f *fakeMacroExecutor) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeQueryExecutor tracks how many queries are in flight at once.
type fakeQueryExecutor struct {
	delay       time.Duration
	fail        map[string]error
	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeQueryExecutor) ExecuteQuery(ctx context.Context, b *benchmark.Benchmark, q benchmark.Query) (int64, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := f.fail[q.Name]; err != nil {
		return 0, err
	}
	return 1, nil
}

// fakeBenchmarkExecutor records executed benchmarks.
type fakeBenchmarkExecutor struct {
	mu     sync.Mutex
	tokens []Token
	names  []string
	fail   map[string]error
	onRun  func()
}

func (f *fakeBenchmarkExecutor) Execute(ctx context.Context, b *benchmark.Benchmark, token Token) (*execution.BenchmarkExecutionResult, error) {
	f.mu.Lock()
	f.names = append(f.names, b.UniqueName())
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if f.onRun != nil {
		f.onRun()
	}
	if err := f.fail[b.Name]; err != nil {
		return nil, err
	}
	return execution.NewBenchmarkExecutionResultBuilder(b).
		WithSequence(token.SequenceID, token.Ordinal).
		StartTimer().
		EndTimer().
		Build(), nil
}

func (f *fakeBenchmarkExecutor) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.names...)
}

// fakeLoader returns a fixed benchmark list.
type fakeLoader struct {
	benchmarks []*benchmark.Benchmark
	err        error
}

func (f *fakeLoader) LoadBenchmarks(string) ([]*benchmark.Benchmark, error) {
	return f.benchmarks, f.err
}

// recordingListener records hook calls and fails the configured hooks.
type recordingListener struct {
	NopListener
	name  string
	fail  map[string]error
	panic string

	mu         sync.Mutex
	hooks      []string
	results    []*execution.BenchmarkExecutionResult
	executions []execution.QueryExecution
	suite      *execution.SuiteResult
}

func newRecordingListener(name string) *recordingListener {
	return &recordingListener{name: name, fail: map[string]error{}}
}

func (l *recordingListener) Name() string { return l.name }

func (l *recordingListener) record(hook string) error {
	l.mu.Lock()
	l.hooks = append(l.hooks, hook)
	l.mu.Unlock()
	if l.panic == hook {
		panic("listener exploded")
	}
	return l.fail[hook]
}

func (l *recordingListener) SuiteStarted(context.Context, string) error {
	return l.record(HookSuiteStarted)
}

func (l *recordingListener) BenchmarkStarted(context.Context, *benchmark.Benchmark, Token) error {
	return l.record(HookBenchmarkStarted)
}

func (l *recordingListener) BenchmarkFinished(_ context.Context, result *execution.BenchmarkExecutionResult) error {
	l.mu.Lock()
	l.results = append(l.results, result)
	l.mu.Unlock()
	return l.record(HookBenchmarkFinished)
}

func (l *recordingListener) ExecutionStarted(context.Context, *benchmark.Benchmark, Token, execution.QueryExecution) error {
	return l.record(HookExecutionStarted)
}

func (l *recordingListener) ExecutionFinished(_ context.Context, _ *benchmark.Benchmark, _ Token, e execution.QueryExecution) error {
	l.mu.Lock()
	l.executions = append(l.executions, e)
	l.mu.Unlock()
	return l.record(HookExecutionFinished)
}

func (l *recordingListener) SuiteFinished(_ context.Context, result *execution.SuiteResult) error {
	l.mu.Lock()
	l.suite = result
	l.mu.Unlock()
	return l.record(HookSuiteFinished)
}

func (l *recordingListener) Hooks() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.hooks...)
}

func (l *recordingListener) count(hook string) int {
	n := 0
	for _, h := range l.Hooks() {
		if h == hook {
			n++
		}
	}
	return n
}

func testBenchmark(name string, runs, concurrency int, queries ...string) *benchmark.Benchmark {
	qs := make([]benchmark.Query, 0, len(queries))
	for _, q := range queries {
		qs = append(qs, benchmark.Query{Name: q, SQL: "SELECT 1"})
	}
	b := benchmark.New(name, "test", qs)
	b.Runs = runs
	b.Concurrency = concurrency
	return b
}
