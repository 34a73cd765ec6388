package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/whhaicheng/benchto-driver/internal/domain/config"
)

func TestExecutorServiceFactory_RejectsInvalidConcurrency(t *testing.T) {
	factory := NewExecutorServiceFactory()

	for _, c := range []int{0, -1} {
		pool, err := factory.Create(c)
		assert.Nil(t, pool)
		assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
	}
}

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool, err := NewExecutorServiceFactory().Create(3)
	require.NoError(t, err)
	assert.Equal(t, 3, pool.Concurrency())

	var done atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Submit(context.Background(), func(context.Context) {
			done.Add(1)
		})
	}
	pool.Shutdown()
	pool.Shutdown()

	assert.Equal(t, int64(20), done.Load())
}

// TestWorkerPool_NeverExceedsConcurrency checks that no more than the pool
// width of tasks are ever in flight.
func TestWorkerPool_NeverExceedsConcurrency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		concurrency := rapid.IntRange(1, 8).Draw(t, "concurrency")
		tasks := rapid.IntRange(0, 40).Draw(t, "tasks")

		pool, err := NewExecutorServiceFactory().Create(concurrency)
		if err != nil {
			t.Fatalf("Create(%d): %v", concurrency, err)
		}

		var inFlight, maxInFlight atomic.Int64
		for i := 0; i < tasks; i++ {
			pool.Submit(context.Background(), func(context.Context) {
				n := inFlight.Add(1)
				for {
					peak := maxInFlight.Load()
					if n <= peak || maxInFlight.CompareAndSwap(peak, n) {
						break
					}
				}
				time.Sleep(100 * time.Microsecond)
				inFlight.Add(-1)
			})
		}
		pool.Shutdown()

		if got := maxInFlight.Load(); got > int64(concurrency) {
			t.Fatalf("max in flight = %d, concurrency = %d", got, concurrency)
		}
	})
}
