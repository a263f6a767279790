package hnsw

import "github.com/cyberlife-coder/velesdb/pkg/distance"

// rank computes an internal "smaller is always closer" value for beam
// search, regardless of which metric the graph was built with. This is
// the single place that absorbs every metric's polarity so the rest of
// the package (heap ordering, ef-pruning comparisons) never has to
// branch on HigherIsBetter.
//
// Cosine and dot follow the classic HNSW convention of building a
// distance out of a similarity (1-similarity, negated product). Jaccard
// is grouped with euclidean and hamming as a "distance family" at the
// API layer (see TransformScore), but distance.Compute's jaccard kernel
// returns a similarity like cosine does, so it gets the same 1-x
// treatment here to keep rank's "smaller is closer" contract uniform.
// Euclidean and hamming already return true distances from
// distance.Compute, so they pass straight through.
func rank(m distance.Metric, a, b []float32) float32 {
	switch m {
	case distance.Cosine:
		return 1 - distance.Compute(distance.Cosine, a, b)
	case distance.Dot:
		return -distance.Compute(distance.Dot, a, b)
	case distance.Jaccard:
		return 1 - distance.Compute(distance.Jaccard, a, b)
	default:
		return distance.Compute(m, a, b)
	}
}

// TransformScore recovers the metric-appropriate, user-facing score
// from an internal rank value: cosine and jaccard invert the 1-x used
// to build their rank, dot negates back to the raw inner product, and
// euclidean/hamming pass through unchanged since rank already equals
// their natural distance.
func TransformScore(m distance.Metric, raw float32) float32 {
	switch m {
	case distance.Cosine, distance.Jaccard:
		return 1 - raw
	case distance.Dot:
		return -raw
	default:
		return raw
	}
}
