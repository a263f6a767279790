// Package guard implements VelesDB's two admission-control primitives:
// a per-tenant token-bucket rate limiter and a three-state circuit
// breaker, both guarding execute_query against overload the way the
// resource limits in a collection's query context guard against
// runaway traversals.
package guard

import (
	"sync"
	"time"
)

// RateLimit configures a token bucket: RatePerSecond tokens refill
// continuously, up to Burst tokens held at once.
type RateLimit struct {
	RatePerSecond float64
	Burst         float64
}

// Limiter is a single token bucket. Zero value refills at zero rate
// with zero burst, which NewLimiter never produces but a caller
// constructing one directly should avoid.
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewLimiter returns a Limiter governed by cfg. A zero RatePerSecond
// disables limiting entirely (Allow always returns true).
func NewLimiter(cfg RateLimit) *Limiter {
	return &Limiter{
		rate:       cfg.RatePerSecond,
		burst:      cfg.Burst,
		tokens:     cfg.Burst,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Allow consumes one token if available, refilling first based on
// elapsed time since the last call.
func (l *Limiter) Allow() bool {
	if l.rate <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.lastRefill = now
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}
