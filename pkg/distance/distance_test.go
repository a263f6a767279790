package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(n int, fn func(i int) float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = fn(i)
	}
	return v
}

func TestSelfIdentity(t *testing.T) {
	// M(v,v) must equal the metric's self-identity for nonzero v.
	v := vec(32, func(i int) float32 { return float32(i%7) + 1 })
	for _, m := range []Metric{Cosine, Euclidean, Dot, Hamming, Jaccard} {
		got := Compute(m, v, v)
		switch m {
		case Cosine, Jaccard:
			assert.InDeltaf(t, 1.0, got, 1e-5, "metric %v", m)
		case Euclidean, Hamming:
			assert.InDeltaf(t, 0.0, got, 1e-5, "metric %v", m)
		case Dot:
			var want float32
			for _, x := range v {
				want += x * x
			}
			assert.InDelta(t, want, got, 1e-2)
		}
	}
}

func TestCosineKnownValue(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	got := Compute(Cosine, a, b)
	assert.InDelta(t, 0.9746318461970762, got, 1e-4)
}

func TestEuclideanNonNegative(t *testing.T) {
	a := vec(128, func(i int) float32 { return float32(math.Sin(float64(i) * 0.01)) })
	b := vec(128, func(i int) float32 { return float32(math.Sin(float64(i)*0.01 + 1)) })
	d := Compute(Euclidean, a, b)
	assert.GreaterOrEqual(t, d, float32(0))
}

func TestHigherIsBetterContract(t *testing.T) {
	assert.True(t, Cosine.HigherIsBetter())
	assert.True(t, Dot.HigherIsBetter())
	assert.True(t, Jaccard.HigherIsBetter())
	assert.False(t, Euclidean.HigherIsBetter())
	assert.False(t, Hamming.HigherIsBetter())
}

func TestEmptyVectorsReturnIdentity(t *testing.T) {
	for _, m := range []Metric{Cosine, Euclidean, Dot, Hamming, Jaccard} {
		got := Compute(m, nil, nil)
		assert.Equal(t, float32(0), got)
	}
}

func TestDimensionMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		Compute(Cosine, []float32{1, 2}, []float32{1, 2, 3})
	})
}

func TestParseMetric(t *testing.T) {
	cases := map[string]Metric{"cosine": Cosine, "": Cosine, "euclidean": Euclidean, "dot": Dot, "hamming": Hamming, "jaccard": Jaccard}
	for s, want := range cases {
		m, ok := ParseMetric(s)
		require.True(t, ok)
		assert.Equal(t, want, m)
	}
	_, ok := ParseMetric("bogus")
	assert.False(t, ok)
}

func TestJaccardAllZero(t *testing.T) {
	a := make([]float32, 8)
	b := make([]float32, 8)
	assert.Equal(t, float32(1), Compute(Jaccard, a, b))
}

func TestHammingCountsDifferingBits(t *testing.T) {
	a := []float32{1, 1, 1, -1, -1, -1, 1, 1}
	b := []float32{1, -1, 1, -1, 1, -1, 1, -1}
	// positions 1, 4, 7 differ in sign
	got := Compute(Hamming, a, b)
	assert.Equal(t, float32(3), got)
}

func TestAlignedBufferLifecycle(t *testing.T) {
	g := NewAlignedBuffer(16)
	s := g.Slice()
	require.Len(t, s, 16)
	g.Release()
	assert.Nil(t, g.Slice())
	g.Release() // idempotent
}

func TestAlignedBufferIntoRaw(t *testing.T) {
	g := NewAlignedBuffer(8)
	raw := g.IntoRaw()
	assert.Len(t, raw, 8)
	assert.Nil(t, g.Slice())
}

func TestCapabilityReports(t *testing.T) {
	assert.NotEmpty(t, Capability())
}
