package hnsw

import (
	"math"
	"sync"
	"time"
)

// ReindexState is a stage of the background rebuild state machine.
type ReindexState int

const (
	StateIdle ReindexState = iota
	StateBuilding
	StateValidating
	StateSwapping
)

func (s ReindexState) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateValidating:
		return "validating"
	case StateSwapping:
		return "swapping"
	default:
		return "idle"
	}
}

// BenchmarkResult summarizes a candidate rebuild's measured quality
// against 64+ sample queries, compared to the live index's own figures
// to decide whether the rebuild is an improvement.
type BenchmarkResult struct {
	P99Latency    time.Duration
	RecallEstimate float64
}

// Reindexer tracks whether a graph's connectivity has drifted enough
// from its parameter target to warrant a background rebuild, and walks
// the Idle -> Building -> Validating -> Swapping -> Idle state machine
// for one rebuild attempt at a time.
//
// optimalM grows with log2(live point count): a graph sized for 10k
// points and built at M=16 wants more neighbors per node once it holds
// 10M points, because the same M spreads thinner across a bigger,
// higher-diameter graph. Once optimalM/M crosses thresholdRatio, a
// rebuild at the larger M is worth its cost.
type Reindexer struct {
	mu            sync.Mutex
	state         ReindexState
	thresholdRatio float64
	cooldown      time.Duration
	baseM         int
	lastAttempt   time.Time
	attempted     bool
}

func newReindexer(thresholdRatio float64, cooldown time.Duration, baseM int) *Reindexer {
	return &Reindexer{thresholdRatio: thresholdRatio, cooldown: cooldown, baseM: baseM}
}

// optimalM estimates the neighbor count a graph of n live points should
// use, scaling logarithmically from the configured base M.
func optimalM(baseM, n int) int {
	if n < 2 {
		return baseM
	}
	growth := math.Log2(float64(n))
	m := int(float64(baseM) * (1 + growth/20))
	if m < baseM {
		return baseM
	}
	return m
}

// State returns the reindexer's current stage.
func (r *Reindexer) State() ReindexState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ShouldTrigger reports whether a rebuild is due: the graph is Idle,
// enough time has passed since the last attempt (the cooldown), and
// optimalM(n)/baseM has crossed thresholdRatio. A zero thresholdRatio
// disables auto-reindex entirely.
func (r *Reindexer) ShouldTrigger(n int, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.thresholdRatio <= 0 || r.state != StateIdle {
		return false
	}
	if r.attempted && now.Sub(r.lastAttempt) < r.cooldown {
		return false
	}
	ratio := float64(optimalM(r.baseM, n)) / float64(r.baseM)
	return ratio >= r.thresholdRatio
}

// Begin transitions Idle -> Building. Returns false if a rebuild is
// already in flight.
func (r *Reindexer) Begin(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return false
	}
	r.state = StateBuilding
	r.lastAttempt = now
	r.attempted = true
	return true
}

// Validate transitions Building -> Validating.
func (r *Reindexer) Validate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateBuilding {
		r.state = StateValidating
	}
}

// regressed reports whether candidate is worse than baseline beyond the
// configured tolerance: more than maxLatencyGrowth slower at p99, or
// more than maxRecallDrop less recall.
func regressed(baseline, candidate BenchmarkResult, maxLatencyGrowth, maxRecallDrop float64) bool {
	if baseline.P99Latency > 0 {
		growth := float64(candidate.P99Latency-baseline.P99Latency) / float64(baseline.P99Latency)
		if growth > maxLatencyGrowth {
			return true
		}
	}
	if baseline.RecallEstimate-candidate.RecallEstimate > maxRecallDrop {
		return true
	}
	return false
}

// Decide compares a benchmarked candidate rebuild against the live
// index's own baseline figures. On improvement it transitions
// Validating -> Swapping and returns true (the caller should swap the
// candidate graph in and then call Finish). On regression it rolls
// back to Idle directly and returns false, leaving the candidate
// discarded and the cooldown already started from Begin.
func (r *Reindexer) Decide(baseline, candidate BenchmarkResult, maxLatencyGrowth, maxRecallDrop float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateValidating {
		return false
	}
	if regressed(baseline, candidate, maxLatencyGrowth, maxRecallDrop) {
		r.state = StateIdle
		return false
	}
	r.state = StateSwapping
	return true
}

// Finish transitions Swapping -> Idle once the caller has installed the
// rebuilt graph.
func (r *Reindexer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateSwapping {
		r.state = StateIdle
	}
}

// Abort forces the state machine back to Idle from any in-flight stage,
// for an operator-triggered cancel or a build-time error.
func (r *Reindexer) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateIdle
}
