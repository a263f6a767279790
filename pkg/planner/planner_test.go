package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

type fakeStats struct {
	total      int
	eqSel      float64
	rangeSel   float64
}

func (f fakeStats) TotalPoints() int { return f.total }
func (f fakeStats) EqSelectivity(property string, value any) float64 { return f.eqSel }
func (f fakeStats) RangeSelectivity(property string, low, high any) float64 { return f.rangeSel }

func mustParse(t *testing.T, src string) *velesql.Query {
	t.Helper()
	q, err := velesql.ParseQuery(src)
	require.NoError(t, err)
	return q
}

func TestPlanVectorFirstWhenMetadataCoarse(t *testing.T) {
	q := mustParse(t, `SELECT id FROM documents WHERE vector NEAR $q AND category = $cat LIMIT 5`)
	pl := New(fakeStats{total: 1000, eqSel: 0.5})
	plan, err := pl.Plan(q, map[string]any{"q": []float32{1, 2, 3}, "cat": "news"})
	require.NoError(t, err)
	assert.Equal(t, VectorFirst, plan.Strategy)
	assert.Equal(t, []float32{1, 2, 3}, plan.VectorQuery)
	require.NotNil(t, plan.Residual)
}

func TestPlanIndexFirstWhenHighlySelective(t *testing.T) {
	q := mustParse(t, `SELECT id FROM documents WHERE vector NEAR $q AND owner_id = $owner LIMIT 5`)
	pl := New(fakeStats{total: 1_000_000, eqSel: 0.0001})
	plan, err := pl.Plan(q, map[string]any{"q": []float32{1, 2}, "owner": int64(42)})
	require.NoError(t, err)
	assert.Equal(t, IndexFirst, plan.Strategy)
	require.NotNil(t, plan.Lookup)
	assert.Equal(t, "owner_id", plan.Lookup.Property)
}

func TestPlanFullScanWhenNoPredicateHelps(t *testing.T) {
	q := mustParse(t, `SELECT id FROM documents WHERE category = $cat`)
	pl := New(fakeStats{total: 1000, eqSel: 0.9})
	plan, err := pl.Plan(q, map[string]any{"cat": "x"})
	require.NoError(t, err)
	assert.Equal(t, FullScan, plan.Strategy)
}

func TestPlanGraphTraversalWithStartID(t *testing.T) {
	q := mustParse(t, `MATCH (a:Document)-[:LINKS]->(b:Document) WHERE a.id = $start RETURN b.id`)
	pl := New(fakeStats{})
	plan, err := pl.Plan(q, map[string]any{"start": int64(7)})
	require.NoError(t, err)
	assert.Equal(t, GraphTraversal, plan.Strategy)
	require.Len(t, plan.StartIDs, 1)
	assert.Equal(t, uint64(7), plan.StartIDs[0])
}

func TestPlanExplainStrings(t *testing.T) {
	q := mustParse(t, `SELECT id FROM documents WHERE vector NEAR $q LIMIT 3`)
	pl := New(fakeStats{total: 100, eqSel: 1})
	plan, err := pl.Plan(q, map[string]any{"q": []float32{1}})
	require.NoError(t, err)
	assert.Contains(t, plan.Explain(), "VectorFirst")
}
