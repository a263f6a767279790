package hnsw

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// Insert adds id/vec to the graph. Returns a *verr.Error of
// KindDimensionMismatch on a dimension mismatch and KindInvalidVector if
// id is already present.
func (g *Graph) Insert(id uint64, vec []float32) error {
	if len(vec) != g.dim {
		return verr.DimensionMismatch("hnsw.Insert", g.dim, len(vec))
	}
	idx, ok := g.mappings.Register(id)
	if !ok {
		return verr.New(verr.KindInvalidVector, "hnsw: id %d already indexed", id)
	}

	owned := make([]float32, len(vec))
	copy(owned, vec)
	level := g.randomLevel()
	n := &node{
		vector:    owned,
		level:     level,
		neighbors: make([][]uint64, level+1),
	}
	for l := range n.neighbors {
		n.neighbors[l] = make([]uint64, 0, g.neighborCap(l))
	}

	g.mu.Lock()
	g.nodes[idx] = n
	if !g.hasEntry {
		g.entryPoint = idx
		g.hasEntry = true
		g.maxLevel = level
		g.mu.Unlock()
		g.incLive(1)
		return nil
	}
	entry := g.entryPoint
	entryLevel := g.nodes[entry].level
	promote := level > g.maxLevel
	g.mu.Unlock()

	ep := entry
	for l := entryLevel; l > level; l-- {
		ep = g.searchLayerSingle(owned, ep, l)
	}

	top := level
	if entryLevel < top {
		top = entryLevel
	}
	for l := top; l >= 0; l-- {
		candidates := g.searchLayer(owned, ep, g.cfg.EfConstruction, l)
		selected := g.selectDiverse(owned, candidates, g.neighborCap(l))

		n.mu.Lock()
		n.neighbors[l] = selected
		n.mu.Unlock()

		for _, nbIdx := range selected {
			g.linkBack(idx, nbIdx, l)
		}
		if len(candidates) > 0 {
			ep = candidates[0].idx
		}
	}

	if promote {
		g.mu.Lock()
		if level > g.maxLevel {
			g.entryPoint = idx
			g.maxLevel = level
		}
		g.mu.Unlock()
	}

	g.incLive(1)
	return nil
}

// ParallelInsert validates every vector's dimension concurrently across
// the graph's worker pool, then performs the graph mutation itself
// sequentially: HNSW's entry-point promotion and neighbor linking are
// not independent across points (a later point may need to link
// against a node inserted moments before it), so only the
// embarrassingly-parallel preparation work is fanned out.
func (g *Graph) ParallelInsert(ctx context.Context, ids []uint64, vecs [][]float32) error {
	if len(ids) != len(vecs) {
		return verr.New(verr.KindInvalidVector, "hnsw: ParallelInsert ids/vecs length mismatch")
	}
	errs := make([]error, len(ids))
	if g.pool != nil {
		g.pool.ParallelFor(len(ids), func(i int) {
			if len(vecs[i]) != g.dim {
				errs[i] = verr.DimensionMismatch("hnsw.ParallelInsert", g.dim, len(vecs[i]))
			}
		})
	} else {
		for i, v := range vecs {
			if len(v) != g.dim {
				errs[i] = verr.DimensionMismatch("hnsw.ParallelInsert", g.dim, len(v))
			}
		}
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	for i := range ids {
		if err := g.Insert(ids[i], vecs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) neighborCap(level int) int {
	if level == 0 {
		return g.cfg.mmax0()
	}
	return g.cfg.M
}

// linkBack adds a back-edge from nbIdx to idx at level, pruning nbIdx's
// neighbor list with the diversity heuristic if it would overflow its
// cap.
func (g *Graph) linkBack(idx, nbIdx uint64, level int) {
	g.mu.RLock()
	nb := g.nodes[nbIdx]
	g.mu.RUnlock()
	if nb == nil {
		return
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if level >= len(nb.neighbors) {
		return
	}
	capN := g.neighborCap(level)
	if len(nb.neighbors[level]) < capN {
		nb.neighbors[level] = append(nb.neighbors[level], idx)
		return
	}
	all := append(append([]uint64{}, nb.neighbors[level]...), idx)
	candidates := make([]candidateItem, len(all))
	for i, c := range all {
		g.mu.RLock()
		cn := g.nodes[c]
		g.mu.RUnlock()
		candidates[i] = candidateItem{idx: c, rank: rank(g.cfg.Metric, nb.vector, cn.vector)}
	}
	nb.neighbors[level] = g.selectDiverse(nb.vector, candidates, capN)
}

// selectDiverse implements the neighbor-selection heuristic: candidates
// are considered closest-first, and a candidate is kept only if no
// already-selected neighbor is closer to it than it is to the query.
// This prevents a tight cluster of near-duplicate points from
// monopolizing a node's neighbor list at the expense of every other
// direction through the graph.
func (g *Graph) selectDiverse(query []float32, candidates []candidateItem, capN int) []uint64 {
	if len(candidates) <= capN {
		out := make([]uint64, len(candidates))
		for i, c := range candidates {
			out[i] = c.idx
		}
		return out
	}

	ordered := make([]candidateItem, len(candidates))
	copy(ordered, candidates)
	sortCandidatesByRank(ordered)

	selected := make([]candidateItem, 0, capN)
	for _, cand := range ordered {
		if len(selected) >= capN {
			break
		}
		g.mu.RLock()
		candNode := g.nodes[cand.idx]
		g.mu.RUnlock()
		if candNode == nil {
			continue
		}
		keep := true
		for _, sel := range selected {
			g.mu.RLock()
			selNode := g.nodes[sel.idx]
			g.mu.RUnlock()
			if selNode == nil {
				continue
			}
			if rank(g.cfg.Metric, selNode.vector, candNode.vector) < cand.rank {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, cand)
		}
	}
	// Diversity filtering can leave the list short of capN on a sparse
	// graph; backfill with the next-closest rejected candidates so
	// linking never yields fewer neighbors than plain top-M would.
	if len(selected) < capN {
		have := make(map[uint64]bool, len(selected))
		for _, s := range selected {
			have[s.idx] = true
		}
		for _, cand := range ordered {
			if len(selected) >= capN {
				break
			}
			if !have[cand.idx] {
				selected = append(selected, cand)
				have[cand.idx] = true
			}
		}
	}

	out := make([]uint64, len(selected))
	for i, s := range selected {
		out[i] = s.idx
	}
	return out
}

func sortCandidatesByRank(c []candidateItem) {
	sort.Slice(c, func(i, j int) bool { return c[i].rank < c[j].rank })
}

func (g *Graph) randomLevel() int {
	r := rand.Float64()
	for r == 0 {
		r = rand.Float64()
	}
	return int(-math.Log(r) * g.cfg.LevelMultiplier)
}
