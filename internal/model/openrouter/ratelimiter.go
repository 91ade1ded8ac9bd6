// Package openrouter provides an OpenRouter model implementation for Google ADK.
package openrouter

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultMaxConcurrent is the default maximum concurrent requests to OpenRouter
	DefaultMaxConcurrent = 5
	// DefaultMinDelay is the minimum delay between requests (helps respect spend caps)
	DefaultMinDelay = 100 * time.Millisecond
)

// RateLimiter limits outbound OpenRouter API calls. A semaphore caps
// concurrent requests and a minimum delay spaces them out.
type RateLimiter struct {
	semaphore     chan struct{}
	maxConcurrent int
	minDelay      time.Duration
	lastRequest   time.Time
	mu            sync.Mutex
}

var (
	globalRateLimiter *RateLimiter
	rateLimiterOnce   sync.Once
)

// GetGlobalRateLimiter returns the process-wide rate limiter.
// Configuration can be set via environment variables:
// - OPENROUTER_MAX_CONCURRENT: maximum concurrent requests (default: 5)
// - OPENROUTER_MIN_DELAY_MS: minimum delay between requests in ms (default: 100)
func GetGlobalRateLimiter() *RateLimiter {
	rateLimiterOnce.Do(func() {
		maxConcurrent := DefaultMaxConcurrent
		if val := os.Getenv("OPENROUTER_MAX_CONCURRENT"); val != "" {
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				maxConcurrent = n
			}
		}

		minDelay := DefaultMinDelay
		if val := os.Getenv("OPENROUTER_MIN_DELAY_MS"); val != "" {
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				minDelay = time.Duration(n) * time.Millisecond
			}
		}

		globalRateLimiter = newRateLimiter(maxConcurrent, minDelay)

		log.Printf("[OpenRouter RateLimiter] Initialized: max_concurrent=%d, min_delay=%v",
			maxConcurrent, minDelay)
	})

	return globalRateLimiter
}

func newRateLimiter(maxConcurrent int, minDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		semaphore:     make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
		minDelay:      minDelay,
	}
}

// Acquire blocks until a request slot is available or the context is
// cancelled. Every successful Acquire must be paired with a Release.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case r.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	if r.minDelay > 0 {
		elapsed := time.Since(r.lastRequest)
		if elapsed < r.minDelay {
			sleepTime := r.minDelay - elapsed
			r.mu.Unlock()

			select {
			case <-time.After(sleepTime):
			case <-ctx.Done():
				<-r.semaphore
				return ctx.Err()
			}

			r.mu.Lock()
		}
	}
	r.lastRequest = time.Now()
	r.mu.Unlock()

	return nil
}

// Release frees a slot acquired with Acquire.
func (r *RateLimiter) Release() {
	<-r.semaphore
}

// CurrentUsage returns the number of slots currently in use.
func (r *RateLimiter) CurrentUsage() int {
	return len(r.semaphore)
}

// MaxConcurrent returns the maximum concurrent requests allowed.
func (r *RateLimiter) MaxConcurrent() int {
	return r.maxConcurrent
}
