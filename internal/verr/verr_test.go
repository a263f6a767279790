package verr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionMismatch(t *testing.T) {
	err := DimensionMismatch("upsert", 128, 64)
	require.Error(t, err)
	assert.Equal(t, KindDimensionMismatch, err.Kind)
	assert.Contains(t, err.Error(), "VELES-004")
	assert.True(t, Is(err, KindDimensionMismatch))
	assert.False(t, Is(err, KindIndexCorrupted))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindIO, cause, "flush failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "VELES-011")
}

func TestParseError(t *testing.T) {
	err := Parse(Position{Offset: 12, Line: 1, Column: 13}, "WHERE", "unexpected token")
	assert.Equal(t, KindQuery, err.Kind)
	assert.Equal(t, "WHERE", err.Fragment)
	assert.Contains(t, err.Error(), "offset 12")
}

func TestCodesAreStable(t *testing.T) {
	cases := map[Kind]string{
		KindCollectionExists:   "VELES-001",
		KindGraphNotSupported:  "VELES-018",
		KindIndexCorrupted:     "VELES-008",
		KindSearchNotSupported: "VELES-015",
	}
	for kind, want := range cases {
		got, ok := Code(kind)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestRecoverability(t *testing.T) {
	assert.True(t, Recoverable(KindDimensionMismatch))
	assert.False(t, Recoverable(KindIndexCorrupted))
	assert.False(t, Recoverable(KindInternal))
}
