package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRRFRanksItemsAppearingInBothListsHigher(t *testing.T) {
	vector := []Ranked{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	text := []Ranked{{ID: 3}, {ID: 2}, {ID: 1}, {ID: 5}}

	fused := RRF([][]Ranked{vector, text}, 60)
	ids := []uint64{fused[0].ID, fused[1].ID}
	assert.ElementsMatch(t, []uint64{2, 3}, ids)
}

func TestRRFDefaultsKWhenNonPositive(t *testing.T) {
	a := RRF([][]Ranked{{{ID: 1}}}, 0)
	b := RRF([][]Ranked{{{ID: 1}}}, 60)
	assert.Equal(t, b[0].Score, a[0].Score)
}

func TestWeightedFavorsHigherWeightedList(t *testing.T) {
	a := []Ranked{{ID: 1}, {ID: 2}}
	b := []Ranked{{ID: 2}, {ID: 1}}

	fused := Weighted([][]Ranked{a, b}, []float64{1.0, 0.1})
	assert.Equal(t, uint64(1), fused[0].ID)
}

func TestMaximumKeepsBestAcrossLists(t *testing.T) {
	a := []Ranked{{ID: 1}, {ID: 2}}
	b := []Ranked{{ID: 2}, {ID: 1}}

	fused := Maximum([][]Ranked{a, b})
	require := assert.New(t)
	require.Equal(2, len(fused))
	require.Equal(1.0, fused[0].Score)
}

func TestAverageOnlyAveragesOverListsContainingID(t *testing.T) {
	a := []Ranked{{ID: 1}}
	b := []Ranked{{ID: 1}, {ID: 2}}

	fused := Average([][]Ranked{a, b})
	scores := map[uint64]float64{}
	for _, r := range fused {
		scores[r.ID] = r.Score
	}
	assert.InDelta(t, 1.0, scores[1], 1e-9)
	assert.InDelta(t, 0.0, scores[2], 1e-9)
}

func TestProductAndMinimumAgreeOnAllZeroCase(t *testing.T) {
	a := []Ranked{{ID: 1}, {ID: 2}}
	b := []Ranked{{ID: 2}, {ID: 1}}

	prod := Product([][]Ranked{a, b})
	minimum := Minimum([][]Ranked{a, b})
	assert.Equal(t, prod[0].ID, minimum[0].ID)
}

func TestFuseDispatchesByStrategy(t *testing.T) {
	lists := [][]Ranked{{{ID: 1}, {ID: 2}}}
	rrf := Fuse(RRFStrategy, lists, Params{})
	weighted := Fuse(WeightedStrategy, lists, Params{Weights: []float64{1.0}})
	assert.Equal(t, rrf[0].ID, weighted[0].ID)
}

func TestStrategyStringNames(t *testing.T) {
	assert.Equal(t, "rrf", RRFStrategy.String())
	assert.Equal(t, "weighted", WeightedStrategy.String())
	assert.Equal(t, "maximum", MaximumStrategy.String())
	assert.Equal(t, "average", AverageStrategy.String())
	assert.Equal(t, "product", ProductStrategy.String())
	assert.Equal(t, "minimum", MinimumStrategy.String())
}
