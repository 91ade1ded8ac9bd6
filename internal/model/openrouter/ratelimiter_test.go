package openrouter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Acquire(t *testing.T) {
	rl := newRateLimiter(3, 0)

	ctx := context.Background()

	t.Run("acquires and releases slots", func(t *testing.T) {
		require.NoError(t, rl.Acquire(ctx))
		assert.Equal(t, 1, rl.CurrentUsage())

		require.NoError(t, rl.Acquire(ctx))
		assert.Equal(t, 2, rl.CurrentUsage())

		rl.Release()
		assert.Equal(t, 1, rl.CurrentUsage())

		rl.Release()
		assert.Equal(t, 0, rl.CurrentUsage())
	})

	t.Run("respects max concurrent limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, rl.Acquire(ctx))
		}
		assert.Equal(t, 3, rl.CurrentUsage())

		ctxTimeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err := rl.Acquire(ctxTimeout)
		assert.Error(t, err)

		for i := 0; i < 3; i++ {
			rl.Release()
		}
		assert.Equal(t, 0, rl.CurrentUsage())
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, rl.Acquire(ctx))
		}

		ctxCancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := rl.Acquire(ctxCancelled)
		assert.Error(t, err)

		for i := 0; i < 3; i++ {
			rl.Release()
		}
	})
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl := newRateLimiter(5, 0)

	ctx := context.Background()
	var maxConcurrent int32
	var currentConcurrent int32
	var wg sync.WaitGroup

	// Launch 20 goroutines that try to acquire the rate limiter
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := rl.Acquire(ctx); err != nil {
				return
			}
			defer rl.Release()

			// Track concurrent usage
			current := atomic.AddInt32(&currentConcurrent, 1)
			for {
				old := atomic.LoadInt32(&maxConcurrent)
				if current <= old || atomic.CompareAndSwapInt32(&maxConcurrent, old, current) {
					break
				}
			}

			// Simulate some work
			time.Sleep(10 * time.Millisecond)

			atomic.AddInt32(&currentConcurrent, -1)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, int(maxConcurrent), 5, "Max concurrent should not exceed limit")
	assert.Equal(t, 0, rl.CurrentUsage(), "All slots should be released")
}

func TestRateLimiter_MinDelay(t *testing.T) {
	rl := newRateLimiter(10, 50*time.Millisecond)

	ctx := context.Background()

	// First request should be immediate
	start := time.Now()
	require.NoError(t, rl.Acquire(ctx))
	rl.Release()
	firstDuration := time.Since(start)

	// Second request should be delayed
	start = time.Now()
	require.NoError(t, rl.Acquire(ctx))
	rl.Release()
	secondDuration := time.Since(start)

	assert.Less(t, firstDuration, 20*time.Millisecond, "First request should be fast")
	assert.GreaterOrEqual(t, secondDuration, 40*time.Millisecond, "Second request should be delayed")
}
