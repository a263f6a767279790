package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostingPromotesAboveThreshold(t *testing.T) {
	p := newPosting()
	for i := uint64(0); i < promotionThreshold; i++ {
		p.add(i)
	}
	assert.Nil(t, p.big, "should still be a plain slice at exactly the threshold")
	p.add(uint64(promotionThreshold))
	assert.NotNil(t, p.big, "should have promoted to a roaring bitmap past the threshold")
	assert.Equal(t, promotionThreshold+1, p.cardinality())
}

func TestPostingAddIsIdempotent(t *testing.T) {
	p := newPosting()
	p.add(5)
	p.add(5)
	assert.Equal(t, 1, p.cardinality())
}

func TestPostingRemoveBeforeAndAfterPromotion(t *testing.T) {
	p := newPosting()
	p.add(1)
	p.add(2)
	p.remove(1)
	assert.False(t, p.contains(1))
	assert.True(t, p.contains(2))

	for i := uint64(100); i < 100+promotionThreshold; i++ {
		p.add(i)
	}
	assert.NotNil(t, p.big)
	p.remove(2)
	assert.False(t, p.contains(2))
}

func TestIntersectPostingsPlainSlices(t *testing.T) {
	a := newPosting()
	b := newPosting()
	for _, id := range []uint64{1, 2, 3, 4} {
		a.add(id)
	}
	for _, id := range []uint64{2, 4, 6} {
		b.add(id)
	}
	got := intersectPostings(a, b)
	assert.ElementsMatch(t, []uint64{2, 4}, got)
}

func TestIntersectPostingsWithPromotedOperand(t *testing.T) {
	a := newPosting()
	b := newPosting()
	for i := uint64(0); i <= promotionThreshold; i++ {
		a.add(i) // forces promotion
	}
	b.add(5)
	b.add(promotionThreshold + 500)

	got := intersectPostings(a, b)
	assert.ElementsMatch(t, []uint64{5}, got)
}
