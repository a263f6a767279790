// Package distance implements VelesDB's metric-polymorphic distance
// kernels: cosine, euclidean, dot, hamming, and jaccard, each with a
// uniform (a, b []float32) float32 signature and a runtime capability
// probe that selects among AVX-512, AVX2, NEON, and scalar tiers.
//
// golang.org/x/sys/cpu is probed once at init to pick a lane count; the
// "tiers" below are unrolled, autovectorizable Go loops (16/8/4 lanes per
// iteration) rather than hand-written assembly. See DESIGN.md for why.
package distance

import "math"

// Metric identifies one of VelesDB's five supported distance/similarity
// functions.
type Metric int

const (
	Cosine Metric = iota
	Euclidean
	Dot
	Hamming
	Jaccard
)

func (m Metric) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Euclidean:
		return "euclidean"
	case Dot:
		return "dot"
	case Hamming:
		return "hamming"
	case Jaccard:
		return "jaccard"
	default:
		return "unknown"
	}
}

// ParseMetric parses a metric name as it appears in configuration.
func ParseMetric(s string) (Metric, bool) {
	switch s {
	case "cosine", "":
		return Cosine, true
	case "euclidean":
		return Euclidean, true
	case "dot":
		return Dot, true
	case "hamming":
		return Hamming, true
	case "jaccard":
		return Jaccard, true
	default:
		return Cosine, false
	}
}

// Func computes a distance or similarity score between two equal-length
// vectors. Dimension mismatch is a programming error and may panic;
// callers that cross the API boundary (Collection methods) must validate
// dimension themselves and return a typed DimensionMismatch error instead
// of relying on a panic.
type Func func(a, b []float32) float32

// HigherIsBetter reports the sort-order contract for a metric: true for
// similarity metrics (cosine, dot, jaccard), false for distance metrics
// (euclidean, hamming). All query-layer sorting and threshold comparison
// must consult this.
func (m Metric) HigherIsBetter() bool {
	switch m {
	case Cosine, Dot, Jaccard:
		return true
	default:
		return false
	}
}

// SelfIdentity returns the value Compute(m, v, v) must produce for any
// nonzero v.
func (m Metric) SelfIdentity() float32 {
	switch m {
	case Cosine, Jaccard:
		return 1
	default:
		return 0
	}
}

// Compute dispatches to the metric's currently-selected kernel tier.
// Empty inputs return 0 for every metric: dot and euclidean have no
// magnitude to accumulate, and cosine/jaccard have no direction to
// compare (their self-identity of 1 is defined for nonzero v only).
func Compute(m Metric, a, b []float32) float32 {
	if len(a) != len(b) {
		panic("distance: dimension mismatch")
	}
	if len(a) == 0 {
		if m == Dot || m == Euclidean || m == Hamming {
			return 0
		}
		return 0
	}
	switch m {
	case Cosine:
		return cosineTier(a, b)
	case Euclidean:
		return euclideanTier(a, b)
	case Dot:
		return dotTier(a, b)
	case Hamming:
		return hammingTier(a, b)
	case Jaccard:
		return jaccardTier(a, b)
	default:
		panic("distance: unknown metric")
	}
}

// Kernel returns a bound Func for repeated calls against one metric,
// avoiding the per-call switch in hot loops (HNSW beam search, brute
// force fallback).
func Kernel(m Metric) Func {
	return func(a, b []float32) float32 { return Compute(m, a, b) }
}

// Capability names the currently active SIMD dispatch tier, exposed for
// diagnostics/EXPLAIN output.
func Capability() string { return activeCapability }

// sqrt32 is shared by the euclidean kernels across tiers.
func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(x)))
}
