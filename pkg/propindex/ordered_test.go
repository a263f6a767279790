package propindex

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedValueTotalOrderAcrossTypes(t *testing.T) {
	values := []any{nil, true, false, "zebra", "apple", 3.5, -1, math.NaN()}
	ordered := make([]OrderedValue, len(values))
	for i, v := range values {
		ordered[i] = Of(v)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	// numbers first (NaN last among numbers), then strings, then bools, then null.
	assert.Equal(t, kindNumber, ordered[0].k)
	assert.Equal(t, kindNumber, ordered[1].k)
	assert.True(t, math.IsNaN(ordered[2].n))
	assert.Equal(t, kindString, ordered[3].k)
	assert.Equal(t, kindString, ordered[4].k)
	assert.Equal(t, kindBool, ordered[5].k)
	assert.Equal(t, kindBool, ordered[6].k)
	assert.Equal(t, kindNull, ordered[7].k)
}

func TestOrderedValueCompareEqual(t *testing.T) {
	assert.Equal(t, 0, Of(5).Compare(Of(5.0)))
	assert.Equal(t, 0, Of("x").Compare(Of("x")))
	assert.Equal(t, 0, Of(nil).Compare(Of(nil)))
}

func TestOrderedValueNumbersBeforeStrings(t *testing.T) {
	assert.True(t, Of(1000000).Less(Of("a")))
}
