package listener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/whhaicheng/benchto-driver/internal/app/usecase"
	"github.com/whhaicheng/benchto-driver/internal/domain/execution"
)

// ResultsListener persists suites and benchmark results through a
// usecase.ResultRepository.
type ResultsListener struct {
	usecase.NopListener

	repo        usecase.ResultRepository
	environment string
	now         func() time.Time

	mu         sync.Mutex
	sequenceID string
}

// NewResultsListener creates a results listener tagging suites with environment.
func NewResultsListener(repo usecase.ResultRepository, environment string) *ResultsListener {
	return &ResultsListener{
		repo:        repo,
		environment: environment,
		now:         time.Now,
	}
}

// Name implements usecase.BenchmarkExecutionListener.
func (l *ResultsListener) Name() string { return "results" }

// SuiteStarted records a running suite so results can reference it.
func (l *ResultsListener) SuiteStarted(ctx context.Context, sequenceID string) error {
	l.mu.Lock()
	l.sequenceID = sequenceID
	l.mu.Unlock()

	if err := l.repo.SaveSuite(ctx, execution.NewSuiteResult(sequenceID, l.now()), l.environment); err != nil {
		return fmt.Errorf("save suite: %w", err)
	}
	return nil
}

// BenchmarkFinished stores the result and its executions.
func (l *ResultsListener) BenchmarkFinished(ctx context.Context, result *execution.BenchmarkExecutionResult) error {
	seq := result.SequenceID()
	if seq == "" {
		l.mu.Lock()
		seq = l.sequenceID
		l.mu.Unlock()
	}

	key := usecase.Token{SequenceID: seq}.Key(result.BenchmarkName())
	if err := l.repo.SaveResult(ctx, key, result); err != nil {
		return fmt.Errorf("save result %s: %w", key, err)
	}
	return nil
}

// SuiteFinished stores the final suite state.
func (l *ResultsListener) SuiteFinished(ctx context.Context, result *execution.SuiteResult) error {
	if err := l.repo.SaveSuite(ctx, result, l.environment); err != nil {
		return fmt.Errorf("save suite: %w", err)
	}
	return nil
}
