package guard

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is one of the three states a circuit breaker occupies.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned by Call when the breaker is open and the
// cooldown hasn't elapsed.
var ErrCircuitOpen = errors.New("guard: circuit breaker is open")

// BreakerConfig controls when the breaker trips and how long it stays
// open before allowing a trial call through.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that
	// opens the breaker. Zero defaults to 5.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before moving to
	// half-open. Zero defaults to 30s.
	Cooldown time.Duration
}

func (c BreakerConfig) normalized() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// Breaker is a three-state circuit breaker: closed calls pass through
// and track consecutive failures; once FailureThreshold consecutive
// failures accumulate it opens and rejects calls outright; after
// Cooldown it is half-open and lets calls through again (it does not
// limit how many run at once), closing on a success or reopening on a
// failure.
type Breaker struct {
	mu               sync.Mutex
	cfg              BreakerConfig
	state            BreakerState
	consecutiveFails int
	openedAt         time.Time
	now              func() time.Time
}

// NewBreaker returns a closed Breaker governed by cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.normalized(), now: time.Now}
}

// State reports the breaker's current state, resolving an elapsed
// cooldown into HalfOpen without requiring a Call.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Breaker) stateLocked() BreakerState {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

// Call runs fn if the breaker admits it, recording the outcome.
// Returns ErrCircuitOpen without running fn when the breaker is open
// and still cooling down.
func (b *Breaker) Call(fn func() error) error {
	b.mu.Lock()
	state := b.stateLocked()
	if state == Open {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.consecutiveFails++
		if b.consecutiveFails >= b.cfg.FailureThreshold {
			b.state = Open
			b.openedAt = b.now()
		}
		return err
	}
	b.consecutiveFails = 0
	b.state = Closed
	return nil
}
