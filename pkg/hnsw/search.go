package hnsw

import (
	"container/heap"
	"context"
	"sort"

	"github.com/cyberlife-coder/velesdb/internal/verr"
)

// Search returns the k closest live points to query, beam-searching at
// ef width derived from q (or the graph's configured default when q is
// the zero value and no override is set).
func (g *Graph) Search(ctx context.Context, query []float32, k int, q Quality) ([]Result, error) {
	if len(query) != g.dim {
		return nil, verr.DimensionMismatch("hnsw.Search", g.dim, len(query))
	}
	cfg := g.cfg
	if q != 0 {
		cfg.Quality = q
	}
	ef := cfg.efSearch()

	g.mu.RLock()
	if !g.hasEntry {
		g.mu.RUnlock()
		return nil, nil
	}
	entry := g.entryPoint
	topLevel := g.maxLevel
	g.mu.RUnlock()

	for l := topLevel; l > 0; l-- {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entry = g.searchLayerSingle(query, entry, l)
	}

	candidates := g.searchLayer(query, entry, ef, 0)

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		ext, ok := g.mappings.InternalToExternal(c.idx)
		if !ok {
			continue
		}
		if live, ok := g.mappings.ExternalToInternal(ext); !ok || live != c.idx {
			continue // soft-deleted (or id reused by a newer insert): filtered from results
		}
		results = append(results, Result{ID: ext, Score: TransformScore(g.cfg.Metric, c.rank)})
	}

	sort.Slice(results, func(i, j int) bool {
		if g.cfg.Metric.HigherIsBetter() {
			return results[i].Score > results[j].Score
		}
		return results[i].Score < results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// searchLayerSingle greedily descends from entry toward query within
// one layer, returning the single closest node reached. Used above
// layer 0 where only the entry point to the next layer down matters.
func (g *Graph) searchLayerSingle(query []float32, entry uint64, level int) uint64 {
	g.mu.RLock()
	current := entry
	currentNode := g.nodes[current]
	g.mu.RUnlock()

	currentRank := rank(g.cfg.Metric, query, currentNode.vector)

	for {
		changed := false
		currentNode.mu.RLock()
		var neighbors []uint64
		if level < len(currentNode.neighbors) {
			neighbors = append(neighbors, currentNode.neighbors[level]...)
		}
		currentNode.mu.RUnlock()

		for _, nIdx := range neighbors {
			g.mu.RLock()
			nNode := g.nodes[nIdx]
			g.mu.RUnlock()
			if nNode == nil {
				continue
			}
			r := rank(g.cfg.Metric, query, nNode.vector)
			if r < currentRank {
				current = nIdx
				currentNode = nNode
				currentRank = r
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return current
}

// searchLayer runs a beam search of width ef within level, returning up
// to ef candidates ordered closest-first.
func (g *Graph) searchLayer(query []float32, entry uint64, ef, level int) []candidateItem {
	visited := map[uint64]bool{entry: true}

	g.mu.RLock()
	entryNode := g.nodes[entry]
	g.mu.RUnlock()
	if entryNode == nil {
		return nil
	}
	entryRank := rank(g.cfg.Metric, query, entryNode.vector)

	candidates := &candidateHeap{}
	heap.Init(candidates)
	results := &candidateHeap{}
	heap.Init(results)

	heap.Push(candidates, candidateItem{idx: entry, rank: entryRank})
	heap.Push(results, candidateItem{idx: entry, rank: entryRank, isMax: true})

	for candidates.Len() > 0 {
		closest := heap.Pop(candidates).(candidateItem)
		if results.Len() >= ef && closest.rank > (*results)[0].rank {
			break
		}

		g.mu.RLock()
		cNode := g.nodes[closest.idx]
		g.mu.RUnlock()
		if cNode == nil {
			continue
		}
		cNode.mu.RLock()
		var neighbors []uint64
		if level < len(cNode.neighbors) {
			neighbors = append(neighbors, cNode.neighbors[level]...)
		}
		cNode.mu.RUnlock()

		for _, nIdx := range neighbors {
			if visited[nIdx] {
				continue
			}
			visited[nIdx] = true

			g.mu.RLock()
			nNode := g.nodes[nIdx]
			g.mu.RUnlock()
			if nNode == nil {
				continue
			}
			r := rank(g.cfg.Metric, query, nNode.vector)

			if results.Len() < ef || r < (*results)[0].rank {
				heap.Push(candidates, candidateItem{idx: nIdx, rank: r})
				heap.Push(results, candidateItem{idx: nIdx, rank: r, isMax: true})
				if results.Len() > ef {
					heap.Pop(results)
				}
			}
		}
	}

	out := make([]candidateItem, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(candidateItem)
	}
	return out
}
