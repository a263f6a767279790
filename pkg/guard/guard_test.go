package guard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := NewLimiter(RateLimit{RatePerSecond: 1, Burst: 2})
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestLimiterRefillsOverTime(t *testing.T) {
	l := NewLimiter(RateLimit{RatePerSecond: 10, Burst: 1})
	require.True(t, l.Allow())
	require.False(t, l.Allow())
	fixed := l.lastRefill.Add(200 * time.Millisecond)
	l.now = func() time.Time { return fixed }
	assert.True(t, l.Allow())
}

func TestLimiterZeroRateNeverBlocks(t *testing.T) {
	l := NewLimiter(RateLimit{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, Cooldown: time.Minute})
	failing := func() error { return errors.New("boom") }
	assert.Error(t, b.Call(failing))
	assert.Equal(t, Closed, b.State())
	assert.Error(t, b.Call(failing))
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Call(func() error { return nil }), ErrCircuitOpen)
}

func TestBreakerHalfOpensAfterCooldownAndCloses(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})
	require.Error(t, b.Call(func() error { return errors.New("boom") }))
	require.Equal(t, Open, b.State())

	fixed := b.openedAt.Add(20 * time.Millisecond)
	b.now = func() time.Time { return fixed }
	assert.Equal(t, HalfOpen, b.State())
	assert.NoError(t, b.Call(func() error { return nil }))
	assert.Equal(t, Closed, b.State())
}
