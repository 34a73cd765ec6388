// Package benchmark provides the benchmark definition domain model.
package benchmark

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultRuns is the number of measured runs when a definition omits it.
	DefaultRuns = 3

	// DefaultConcurrency is the number of parallel workers when a definition omits it.
	DefaultConcurrency = 1
)

var (
	// ErrInvalidBenchmark is returned when a benchmark definition is malformed.
	ErrInvalidBenchmark = errors.New("invalid benchmark")
)

// Query is a single named statement executed by every run of a benchmark.
type Query struct {
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// Benchmark is a named unit of work with a declared concurrency and a set of
// queries measured over a number of runs. A Benchmark is immutable once built
// by the loader, which calls ApplyDefaults before Validate.
type Benchmark struct {
	Name        string            `json:"name"`
	DataSource  string            `json:"data_source"`
	Queries     []Query           `json:"queries"`
	Runs        int               `json:"runs"`
	PrewarmRuns int               `json:"prewarm_runs"`
	Concurrency int               `json:"concurrency"`
	Variables   map[string]string `json:"variables,omitempty"`

	BeforeBenchmarkMacros []string `json:"before_benchmark_macros,omitempty"`
	AfterBenchmarkMacros  []string `json:"after_benchmark_macros,omitempty"`
	BeforeExecutionMacros []string `json:"before_execution_macros,omitempty"`
	AfterExecutionMacros  []string `json:"after_execution_macros,omitempty"`
}

// New creates a benchmark with defaults applied to zero-valued runs and concurrency.
func New(name, dataSource string, queries []Query) *Benchmark {
	return &Benchmark{
		Name:        name,
		DataSource:  dataSource,
		Queries:     queries,
		Runs:        DefaultRuns,
		Concurrency: DefaultConcurrency,
	}
}

// ApplyDefaults fills unset runs and concurrency.
func (b *Benchmark) ApplyDefaults() {
	if b.Runs == 0 {
		b.Runs = DefaultRuns
	}
	if b.Concurrency == 0 {
		b.Concurrency = DefaultConcurrency
	}
}

// Validate validates the benchmark definition.
func (b *Benchmark) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBenchmark)
	}
	if len(b.Queries) == 0 {
		return fmt.Errorf("%w: %s: at least one query is required", ErrInvalidBenchmark, b.Name)
	}
	for i, q := range b.Queries {
		if q.Name == "" {
			return fmt.Errorf("%w: %s: query %d has no name", ErrInvalidBenchmark, b.Name, i)
		}
	}
	if b.Runs < 1 {
		return fmt.Errorf("%w: %s: runs must be at least 1, got %d", ErrInvalidBenchmark, b.Name, b.Runs)
	}
	if b.PrewarmRuns < 0 {
		return fmt.Errorf("%w: %s: prewarm runs cannot be negative", ErrInvalidBenchmark, b.Name)
	}
	if b.Concurrency < 1 {
		return fmt.Errorf("%w: %s: concurrency must be at least 1, got %d", ErrInvalidBenchmark, b.Name, b.Concurrency)
	}
	return nil
}

// UniqueName identifies a benchmark together with its variables.
// Format: name or name_key1=value1_key2=value2 with keys sorted.
func (b *Benchmark) UniqueName() string {
	if len(b.Variables) == 0 {
		return b.Name
	}
	keys := make([]string, 0, len(b.Variables))
	for k := range b.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(b.Name)
	for _, k := range keys {
		sb.WriteString("_")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(b.Variables[k])
	}
	return sb.String()
}

// ExecutionCount returns the number of measured query executions.
func (b *Benchmark) ExecutionCount() int {
	return b.Runs * len(b.Queries)
}

// String implements Stringer interface.
func (b *Benchmark) String() string {
	return fmt.Sprintf("%s (runs=%d, prewarm=%d, concurrency=%d, queries=%d)",
		b.UniqueName(), b.Runs, b.PrewarmRuns, b.Concurrency, len(b.Queries))
}
