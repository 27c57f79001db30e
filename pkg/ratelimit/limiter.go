package ratelimit

import (
	"sync"
	"time"
)

// Limiter gates requests against the remote API. Wait is the blocking
// acquire used by the workers and the key lister; the aggregate admission
// rate is bounded, fairness between callers is not.
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until a request is admitted
	Wait()
	// Reset clears the limiter state
	Reset()
}

// PaceInterval returns the minimum delay each worker enforces after a
// completed request so that sustained throughput stays self-limiting even
// when every worker is busy: window / maxRequests.
func PaceInterval(maxRequests int, window time.Duration) time.Duration {
	if maxRequests <= 0 {
		return 0
	}
	return window / time.Duration(maxRequests)
}

// SlidingWindow admits at most maxRequests within any rolling window of
// windowSize. This is the default limiter for the backup pipeline.
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	admitted    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		admitted:    make([]time.Time, 0, maxRequests),
	}
}

// Allow records an admission if the window has room
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.evictExpired(now)

	if len(sw.admitted) < sw.maxRequests {
		sw.admitted = append(sw.admitted, now)
		return true
	}

	return false
}

// Wait blocks until an admission slot opens
func (sw *SlidingWindow) Wait() {
	for !sw.Allow() {
		sw.mu.Lock()
		var wait time.Duration
		if len(sw.admitted) > 0 {
			wait = sw.windowSize - time.Since(sw.admitted[0])
		}
		sw.mu.Unlock()

		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		time.Sleep(wait)
	}
}

// Reset clears all recorded admissions
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.admitted = sw.admitted[:0]
}

// evictExpired drops admissions that fell out of the window. Callers must
// hold sw.mu.
func (sw *SlidingWindow) evictExpired(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.admitted) && sw.admitted[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.admitted, sw.admitted[i:])
		sw.admitted = sw.admitted[:len(sw.admitted)-i]
	}
}

// TokenBucket refills to full capacity once per refill period. Coarser
// than the sliding window but cheaper under heavy contention.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow consumes a token if one is available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		untilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if untilRefill <= 0 {
			untilRefill = 50 * time.Millisecond
		}
		time.Sleep(untilRefill)
	}
}

// Reset restores the bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill restores capacity when the period elapsed. Callers must hold tb.mu.
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}
