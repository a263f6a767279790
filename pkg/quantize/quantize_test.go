package quantize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSQ8RoundTripWithinTolerance(t *testing.T) {
	v := []float32{-1, -0.5, 0, 0.5, 1, 2, -2}
	q := EncodeSQ8(v)
	require.Len(t, q.Codes, len(v))

	decoded := q.Decode()
	for i := range v {
		assert.InDelta(t, v[i], decoded[i], 0.05)
	}
}

func TestEncodeSQ8ConstantVectorDoesNotDivideByZero(t *testing.T) {
	v := []float32{3, 3, 3, 3}
	q := EncodeSQ8(v)
	decoded := q.Decode()
	for _, x := range decoded {
		assert.InDelta(t, 3, x, 0.01)
	}
}

func TestSQ8SizeIsHeaderPlusOneBytePerComponent(t *testing.T) {
	q := EncodeSQ8(make([]float32, 128))
	assert.Equal(t, 8+128, q.Size())
}

func TestEncodeBinaryPacksSignBits(t *testing.T) {
	v := []float32{1, -1, 1, 1, -1, -1, 1, -1}
	b := EncodeBinary(v)
	decoded := b.Decode()
	for i := range v {
		if v[i] > 0 {
			assert.Equal(t, float32(1), decoded[i])
		} else {
			assert.Equal(t, float32(-1), decoded[i])
		}
	}
}

func TestBinarySizeIsEightBytesPerWord(t *testing.T) {
	b := EncodeBinary(make([]float32, 128))
	assert.Equal(t, 128/64*8, b.Size())
}

func TestHammingDistanceCountsDifferingBits(t *testing.T) {
	a := EncodeBinary([]float32{1, 1, 1, -1, -1, -1, 1, 1})
	b := EncodeBinary([]float32{1, -1, 1, -1, 1, -1, 1, -1})
	d, err := HammingDistance(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3, d)
}

func TestHammingDistanceRejectsDimensionMismatch(t *testing.T) {
	a := EncodeBinary(make([]float32, 64))
	b := EncodeBinary(make([]float32, 128))
	_, err := HammingDistance(a, b)
	assert.Error(t, err)
}

func TestJaccardSimilarityIdenticalVectorsIsOne(t *testing.T) {
	v := []float32{1, -1, 1, -1, 1}
	a := EncodeBinary(v)
	b := EncodeBinary(v)
	sim, err := JaccardSimilarity(a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(1), sim)
}

func TestReconstructionErrorZeroForModeNone(t *testing.T) {
	assert.Equal(t, float32(0), ReconstructionError([]float32{1, 2, 3}, ModeNone))
}

func TestReconstructionErrorPositiveForSQ8(t *testing.T) {
	v := []float32{-3.7, 1.2, 0, 9.9, -5.5}
	err := ReconstructionError(v, ModeSQ8)
	assert.Greater(t, err, float32(0))
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "none", ModeNone.String())
	assert.Equal(t, "sq8", ModeSQ8.String())
	assert.Equal(t, "binary", ModeBinary.String())
}
