package hnsw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldTriggerRespectsThresholdAndCooldown(t *testing.T) {
	r := newReindexer(1.5, time.Minute, 16)
	now := time.Unix(1000, 0)

	assert.False(t, r.ShouldTrigger(100, now), "optimalM(100) shouldn't clear 1.5x of M=16 yet")
	assert.True(t, r.ShouldTrigger(1_000_000_000, now), "a huge graph should clear the threshold")

	require.True(t, r.Begin(now))
	assert.False(t, r.ShouldTrigger(1_000_000_000, now), "already building, shouldn't re-trigger")
}

func TestStateMachineWalksIdleToIdleOnImprovement(t *testing.T) {
	r := newReindexer(1.5, time.Minute, 16)
	now := time.Unix(2000, 0)

	require.True(t, r.Begin(now))
	assert.Equal(t, StateBuilding, r.State())

	r.Validate()
	assert.Equal(t, StateValidating, r.State())

	baseline := BenchmarkResult{P99Latency: 100 * time.Millisecond, RecallEstimate: 0.9}
	improved := BenchmarkResult{P99Latency: 90 * time.Millisecond, RecallEstimate: 0.95}
	assert.True(t, r.Decide(baseline, improved, 0.2, 0.05))
	assert.Equal(t, StateSwapping, r.State())

	r.Finish()
	assert.Equal(t, StateIdle, r.State())
}

func TestStateMachineRollsBackOnRegression(t *testing.T) {
	r := newReindexer(1.5, time.Minute, 16)
	now := time.Unix(3000, 0)

	require.True(t, r.Begin(now))
	r.Validate()

	baseline := BenchmarkResult{P99Latency: 100 * time.Millisecond, RecallEstimate: 0.9}
	regressed := BenchmarkResult{P99Latency: 500 * time.Millisecond, RecallEstimate: 0.5}
	assert.False(t, r.Decide(baseline, regressed, 0.2, 0.05))
	assert.Equal(t, StateIdle, r.State())
}

func TestBeginRefusesWhenAlreadyInFlight(t *testing.T) {
	r := newReindexer(1.5, time.Minute, 16)
	now := time.Unix(4000, 0)
	require.True(t, r.Begin(now))
	assert.False(t, r.Begin(now))
}

func TestOptimalMGrowsWithLog2N(t *testing.T) {
	assert.Equal(t, 16, optimalM(16, 1))
	assert.Greater(t, optimalM(16, 1_000_000), 16)
}
