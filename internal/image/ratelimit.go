package image

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a sliding-window limiter. Waits longer than maxWait are
// refused so a lookup degrades to the placeholder instead of stalling.
type rateLimiter struct {
	limit   int
	window  time.Duration
	maxWait time.Duration

	mu       sync.Mutex
	requests []time.Time
	now      func() time.Time
}

func newRateLimiter(limit int, window, maxWait time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		maxWait:  maxWait,
		requests: make([]time.Time, 0, limit),
		now:      time.Now,
	}
}

// reserve records a request slot and returns how long the caller must wait
// before using it. ok is false when the wait would exceed maxWait.
func (rl *rateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	// Drop requests outside the window
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.requests) && rl.requests[i].Before(cutoff) {
		i++
	}
	rl.requests = rl.requests[i:]

	var wait time.Duration
	if len(rl.requests) >= rl.limit {
		wait = rl.requests[len(rl.requests)-rl.limit].Add(rl.window).Sub(now)
		if wait > rl.maxWait {
			return wait, false
		}
	}

	rl.requests = append(rl.requests, now.Add(wait))
	return wait, true
}

// wait blocks until a request may be sent.
func (rl *rateLimiter) wait(ctx context.Context, provider string) error {
	delay, ok := rl.reserve()
	if !ok {
		return &RateLimitError{Provider: provider, RetryAfter: int(delay.Seconds())}
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
