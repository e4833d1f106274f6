package fetch

import (
	"context"
	"sync"
	"time"
)

// DomainRateLimiter enforces a minimum interval between requests to the
// same host. One limiter instance is shared across all fetches for all
// jurisdictions in a process run; two concurrent crawls that happen to hit
// the same host still space their requests.
//
// Design decision: the limiter is constructed explicitly and passed to each
// Fetcher rather than living in package state. Tests instantiate their own
// limiters, and nothing leaks between runs in the same process.
type DomainRateLimiter struct {
	// minInterval is 1/maxPerSecond.
	minInterval time.Duration

	// mu protects nextGrant. The lock is only held to compute and record
	// the reservation; the actual sleep happens outside it.
	mu sync.Mutex

	// nextGrant maps host -> earliest time the next request may start.
	nextGrant map[string]time.Time
}

// NewDomainRateLimiter creates a limiter allowing maxPerSecond requests per
// host. Non-positive rates fall back to 2 requests per second.
func NewDomainRateLimiter(maxPerSecond float64) *DomainRateLimiter {
	if maxPerSecond <= 0 {
		maxPerSecond = 2.0
	}
	return &DomainRateLimiter{
		minInterval: time.Duration(float64(time.Second) / maxPerSecond),
		nextGrant:   make(map[string]time.Time),
	}
}

// Wait blocks until at least the minimum interval has elapsed since the
// previous grant for host, then records a new grant. It returns early with
// the context's error if the caller is cancelled while waiting; in that
// case the reservation still stands, which only errs on the polite side.
func (l *DomainRateLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	now := time.Now()
	at := l.nextGrant[host]
	if at.Before(now) {
		at = now
	}
	l.nextGrant[host] = at.Add(l.minInterval)
	l.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
