package hnsw

import "time"

// ShouldReindex reports whether a background rebuild is due right now:
// optimalM for the graph's live point count has reached the reindex
// threshold ratio of the base M and the cooldown has elapsed. Deleted
// points are not considered.
func (g *Graph) ShouldReindex(now time.Time) bool {
	return g.reindexer.ShouldTrigger(g.Len(), now)
}

// SetReindexPolicy replaces the auto-reindex trigger ratio and cooldown
// — used after Load, whose reindexer starts with auto-reindex disabled
// since the persisted format does not carry those two tuning knobs.
func (g *Graph) SetReindexPolicy(thresholdRatio float64, cooldown time.Duration) {
	g.reindexer = newReindexer(thresholdRatio, cooldown, g.cfg.M)
}

// ReindexState exposes the rebuild state machine's current stage, for
// admin tooling and EXPLAIN-style diagnostics.
func (g *Graph) ReindexState() ReindexState {
	return g.reindexer.State()
}

// Rebuild drives one full auto-reindex attempt: builds a fresh graph at
// optimalM via build, benchmarks it against the live graph's own
// figures via benchmark, and either swaps the returned graph in (on
// improvement) or discards it (on regression). The caller supplies
// baseline because only it knows how to measure the currently-live
// graph under representative queries.
//
// build receives the target M for the rebuilt graph. benchmark receives
// the candidate graph and must return its own BenchmarkResult under the
// same representative query set used for baseline.
func (g *Graph) Rebuild(now time.Time, baseline BenchmarkResult, build func(targetM int) (*Graph, error), benchmark func(*Graph) BenchmarkResult, maxLatencyGrowth, maxRecallDrop float64) error {
	if !g.reindexer.Begin(now) {
		return nil
	}
	targetM := optimalM(g.cfg.M, g.Len())
	candidate, err := build(targetM)
	if err != nil {
		g.reindexer.Abort()
		return err
	}
	g.reindexer.Validate()
	result := benchmark(candidate)

	if !g.reindexer.Decide(baseline, result, maxLatencyGrowth, maxRecallDrop) {
		return nil // rolled back, candidate discarded
	}
	g.adopt(candidate)
	g.reindexer.Finish()
	return nil
}

// adopt swaps candidate's internal state into g in place, so existing
// holders of *Graph observe the rebuilt index without a pointer swap at
// every call site.
func (g *Graph) adopt(candidate *Graph) {
	g.mu.Lock()
	defer g.mu.Unlock()
	candidate.mu.Lock()
	defer candidate.mu.Unlock()

	g.cfg.M = candidate.cfg.M
	g.nodes = candidate.nodes
	g.mappings = candidate.mappings
	g.entryPoint = candidate.entryPoint
	g.hasEntry = candidate.hasEntry
	g.maxLevel = candidate.maxLevel

	g.countMu.Lock()
	candidate.countMu.Lock()
	g.liveCount = candidate.liveCount
	g.deletedCount = candidate.deletedCount
	candidate.countMu.Unlock()
	g.countMu.Unlock()
}
