package collection

import (
	"context"

	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/filter"
	"github.com/cyberlife-coder/velesdb/pkg/fusion"
	"github.com/cyberlife-coder/velesdb/pkg/hnsw"
)

// SearchResult pairs a point with the score it ranked by. The sign
// convention follows the collection's metric: higher is better for
// cosine/dot/jaccard, lower is better for euclidean/hamming.
type SearchResult struct {
	ID      uint64
	Score   float64
	Payload map[string]any
}

// Search runs a k-nearest-neighbor query at the collection's default
// quality.
func (c *Collection) Search(ctx context.Context, vec []float32, k int) ([]SearchResult, error) {
	return c.SearchWithQuality(ctx, vec, k, hnsw.Balanced)
}

// SearchWithQuality runs a k-nearest-neighbor query at an explicit
// ef_search quality tier.
func (c *Collection) SearchWithQuality(ctx context.Context, vec []float32, k int, quality hnsw.Quality) ([]SearchResult, error) {
	if err := c.checkVectorQuery(vec); err != nil {
		return nil, err
	}
	raw, err := c.index.Search(ctx, vec, k, quality)
	if err != nil {
		return nil, verr.Wrap(verr.KindIndex, err, "vector search")
	}
	return c.toSearchResults(raw), nil
}

// SearchWithFilter runs a k-nearest-neighbor query and drops any result
// whose payload doesn't satisfy cond. Since HNSW has no way to push a
// predicate into the beam search, it overfetches (bounded widening) to
// keep returning k results when the filter is selective.
func (c *Collection) SearchWithFilter(ctx context.Context, vec []float32, k int, cond *filter.Condition) ([]SearchResult, error) {
	if err := c.checkVectorQuery(vec); err != nil {
		return nil, err
	}
	fetch := k
	var out []SearchResult
	for attempt := 0; attempt < 4 && len(out) < k; attempt++ {
		raw, err := c.index.Search(ctx, vec, fetch, hnsw.Balanced)
		if err != nil {
			return nil, verr.Wrap(verr.KindIndex, err, "vector search")
		}
		out = out[:0]
		for _, r := range raw {
			payload, _ := c.Payload(r.ID)
			ok, err := filter.Evaluate(cond, payload)
			if err != nil || !ok {
				continue
			}
			out = append(out, SearchResult{ID: r.ID, Score: float64(r.Score), Payload: payload})
		}
		if len(raw) < fetch {
			break // the index itself ran out of candidates; widening further won't help
		}
		fetch *= 4
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// HybridSearch fuses a vector query and a BM25 text query with
// Weighted fusion: alpha weights the vector list, 1-alpha the text
// list. alpha=1 is pure vector search, alpha=0 is pure text search.
func (c *Collection) HybridSearch(ctx context.Context, qVec []float32, qText string, k int, alpha float64) ([]SearchResult, error) {
	var lists [][]fusion.Ranked
	if len(qVec) > 0 {
		if err := c.checkVectorQuery(qVec); err != nil {
			return nil, err
		}
		raw, err := c.index.Search(ctx, qVec, k*2, hnsw.Balanced)
		if err != nil {
			return nil, verr.Wrap(verr.KindIndex, err, "vector search")
		}
		vecList := make([]fusion.Ranked, len(raw))
		for i, r := range raw {
			vecList[i] = fusion.Ranked{ID: r.ID, Score: float64(r.Score)}
		}
		lists = append(lists, vecList)
	}
	if qText != "" {
		textList := make([]fusion.Ranked, 0)
		for _, r := range c.text.Search(qText, k*2) {
			textList = append(textList, fusion.Ranked{ID: r.ID, Score: r.Score})
		}
		lists = append(lists, textList)
	}

	fused := fusion.Fuse(fusion.WeightedStrategy, lists, fusion.Params{Weights: []float64{alpha, 1 - alpha}})
	if len(fused) > k {
		fused = fused[:k]
	}
	out := make([]SearchResult, len(fused))
	for i, r := range fused {
		payload, _ := c.Payload(r.ID)
		out[i] = SearchResult{ID: r.ID, Score: r.Score, Payload: payload}
	}
	return out, nil
}

func (c *Collection) checkVectorQuery(vec []float32) error {
	if c.index == nil {
		return verr.New(verr.KindSearchNotSupported, "collection %s is metadata-only", c.path)
	}
	if len(vec) != c.cfg.Dimension {
		return verr.DimensionMismatch("search", c.cfg.Dimension, len(vec))
	}
	return nil
}

func (c *Collection) toSearchResults(raw []hnsw.Result) []SearchResult {
	out := make([]SearchResult, len(raw))
	for i, r := range raw {
		payload, _ := c.Payload(r.ID)
		out[i] = SearchResult{ID: r.ID, Score: float64(r.Score), Payload: payload}
	}
	return out
}
