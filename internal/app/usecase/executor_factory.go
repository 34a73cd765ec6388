package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

// ExecutorServiceFactory creates bounded worker pools.
type ExecutorServiceFactory struct{}

// NewExecutorServiceFactory creates a new executor service factory.
func NewExecutorServiceFactory() *ExecutorServiceFactory {
	return &ExecutorServiceFactory{}
}

// Create returns a pool running at most concurrency tasks at a time.
// The caller must call Shutdown on every exit path.
func (f *ExecutorServiceFactory) Create(concurrency int) (*WorkerPool, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be at least 1, got %d", config.ErrInvalidConfiguration, concurrency)
	}
	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	return &WorkerPool{group: g, concurrency: concurrency}, nil
}

// WorkerPool runs submitted tasks on a bounded number of goroutines.
type WorkerPool struct {
	group       *errgroup.Group
	concurrency int
}

// Concurrency returns the pool width.
func (p *WorkerPool) Concurrency() int {
	return p.concurrency
}

// Submit schedules task, blocking while the pool is saturated.
func (p *WorkerPool) Submit(ctx context.Context, task func(context.Context)) {
	p.group.Go(func() error {
		task(ctx)
		return nil
	})
}

// Shutdown waits for every submitted task to finish. It is safe to call
// more than once.
func (p *WorkerPool) Shutdown() {
	_ = p.group.Wait()
}
