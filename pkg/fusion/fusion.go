// Package fusion combines several independently ranked result lists
// into one ranked list, for multi-vector NEAR_FUSED queries and hybrid
// vector+text search. Every function here is a pure, stateless
// transform over `[]Ranked` slices: no state, no I/O.
package fusion

import "sort"

// Ranked is one scored, identified result in an input or output list.
type Ranked struct {
	ID    uint64
	Score float64
}

// Strategy names a fusion algorithm, for callers that select one at
// query time (e.g. `USING FUSION 'rrf'`).
type Strategy int

const (
	RRFStrategy Strategy = iota
	WeightedStrategy
	MaximumStrategy
	AverageStrategy
	ProductStrategy
	MinimumStrategy
)

func (s Strategy) String() string {
	switch s {
	case RRFStrategy:
		return "rrf"
	case WeightedStrategy:
		return "weighted"
	case MaximumStrategy:
		return "maximum"
	case AverageStrategy:
		return "average"
	case ProductStrategy:
		return "product"
	case MinimumStrategy:
		return "minimum"
	default:
		return "unknown"
	}
}

// Params configures a Fuse call: K is RRF's rank-offset constant
// (default 60), Weights are per-list multipliers for WeightedStrategy
// (missing entries default to 1.0).
type Params struct {
	K       int
	Weights []float64
}

// Fuse dispatches to the named strategy, defaulting to RRF for an
// unrecognized one.
func Fuse(strategy Strategy, lists [][]Ranked, p Params) []Ranked {
	switch strategy {
	case WeightedStrategy:
		return Weighted(lists, p.Weights)
	case MaximumStrategy:
		return Maximum(lists)
	case AverageStrategy:
		return Average(lists)
	case ProductStrategy:
		return Product(lists)
	case MinimumStrategy:
		return Minimum(lists)
	default:
		return RRF(lists, p.K)
	}
}

// rankNormalize maps each id in list to a [0,1] score derived from its
// rank position (1.0 for rank 1, descending toward 0.0 for the last
// entry), sidestepping the fact that input lists mix higher-is-better
// metrics (cosine, dot) with lower-is-better ones (euclidean, hamming):
// whatever the metric, a list is assumed to already be sorted
// best-first, so rank position alone is enough to normalize it.
func rankNormalize(list []Ranked) map[uint64]float64 {
	n := len(list)
	out := make(map[uint64]float64, n)
	for i, r := range list {
		if n <= 1 {
			out[r.ID] = 1.0
			continue
		}
		out[r.ID] = 1.0 - float64(i)/float64(n-1)
	}
	return out
}

func sortedByScoreDesc(scores map[uint64]float64) []Ranked {
	out := make([]Ranked, 0, len(scores))
	for id, score := range scores {
		out = append(out, Ranked{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RRF computes Reciprocal Rank Fusion: score(d) = Σ 1/(k + rank_i(d)),
// summed over every list d appears in, 1-indexed rank. k<=0 uses the
// standard default of 60.
//
// Example: list A ranks [10, 20], list B ranks [20, 10], k=60.
// score(10) = 1/61 + 1/62 ≈ 0.03252, score(20) = 1/62 + 1/61 ≈ 0.03252
// (tied; broken by id ascending, so 10 then 20).
func RRF(lists [][]Ranked, k int) []Ranked {
	if k <= 0 {
		k = 60
	}
	sums := make(map[uint64]float64)
	for _, list := range lists {
		for i, r := range list {
			sums[r.ID] += 1.0 / float64(k+i+1)
		}
	}
	return sortedByScoreDesc(sums)
}

// Weighted rank-normalizes each list to [0,1], multiplies by that
// list's weight (default 1.0 if weights is shorter than lists), and
// sums.
//
// Example: list A = [10, 20] weight 1.0, list B = [20, 10] weight 0.5.
// rankNormalize(A) = {10: 1.0, 20: 0.0}, rankNormalize(B) = {20: 1.0,
// 10: 0.0}. score(10) = 1.0*1.0 + 0.0*0.5 = 1.0, score(20) = 0.0*1.0 +
// 1.0*0.5 = 0.5. 10 ranks above 20.
func Weighted(lists [][]Ranked, weights []float64) []Ranked {
	sums := make(map[uint64]float64)
	for li, list := range lists {
		w := 1.0
		if li < len(weights) {
			w = weights[li]
		}
		for id, score := range rankNormalize(list) {
			sums[id] += score * w
		}
	}
	return sortedByScoreDesc(sums)
}

// Maximum rank-normalizes each list to [0,1] and keeps, per id, the
// highest score seen across lists.
//
// Example: list A = [10, 20] -> {10: 1.0, 20: 0.0}, list B = [20, 10]
// -> {20: 1.0, 10: 0.0}. max(10) = 1.0, max(20) = 1.0: tied, broken by
// id ascending.
func Maximum(lists [][]Ranked) []Ranked {
	best := make(map[uint64]float64)
	seen := make(map[uint64]bool)
	for _, list := range lists {
		for id, score := range rankNormalize(list) {
			if !seen[id] || score > best[id] {
				best[id] = score
				seen[id] = true
			}
		}
	}
	return sortedByScoreDesc(best)
}

// Average rank-normalizes each list to [0,1] and averages, per id,
// over only the lists that contain it.
//
// Example: list A = [10] -> {10: 1.0}, list B = [10, 20] -> {10: 1.0,
// 20: 0.0}. avg(10) = (1.0+1.0)/2 = 1.0, avg(20) = 0.0/1 = 0.0.
func Average(lists [][]Ranked) []Ranked {
	sums := make(map[uint64]float64)
	counts := make(map[uint64]int)
	for _, list := range lists {
		for id, score := range rankNormalize(list) {
			sums[id] += score
			counts[id]++
		}
	}
	avg := make(map[uint64]float64, len(sums))
	for id, s := range sums {
		avg[id] = s / float64(counts[id])
	}
	return sortedByScoreDesc(avg)
}

// Product rank-normalizes each list to [0,1] and multiplies, per id,
// over only the lists that contain it.
//
// Example: list A = [10, 20] -> {10: 1.0, 20: 0.0}, list B = [20, 10]
// -> {20: 1.0, 10: 0.0}. product(10) = 1.0*0.0 = 0.0, product(20) =
// 0.0*1.0 = 0.0: both zero, tied, broken by id ascending.
func Product(lists [][]Ranked) []Ranked {
	prod := make(map[uint64]float64)
	seen := make(map[uint64]bool)
	for _, list := range lists {
		for id, score := range rankNormalize(list) {
			if !seen[id] {
				prod[id] = score
				seen[id] = true
				continue
			}
			prod[id] *= score
		}
	}
	return sortedByScoreDesc(prod)
}

// Minimum rank-normalizes each list to [0,1] and keeps, per id, the
// lowest score seen across lists it appears in.
//
// Example: list A = [10, 20] -> {10: 1.0, 20: 0.0}, list B = [20, 10]
// -> {20: 1.0, 10: 0.0}. min(10) = 0.0, min(20) = 0.0: tied, broken by
// id ascending.
func Minimum(lists [][]Ranked) []Ranked {
	worst := make(map[uint64]float64)
	seen := make(map[uint64]bool)
	for _, list := range lists {
		for id, score := range rankNormalize(list) {
			if !seen[id] || score < worst[id] {
				worst[id] = score
				seen[id] = true
			}
		}
	}
	return sortedByScoreDesc(worst)
}
