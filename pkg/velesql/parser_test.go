package velesql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleSelect(t *testing.T) {
	q, err := ParseQuery(`SELECT id, title FROM documents WHERE score > 0.5 ORDER BY score DESC LIMIT 10`)
	require.NoError(t, err)
	require.Equal(t, KindSelect, q.Kind)
	sel := q.Select
	assert.Equal(t, "documents", sel.From)
	require.Len(t, sel.Columns, 2)
	require.NotNil(t, sel.Where)
	require.Len(t, sel.OrderBy, 1)
	assert.True(t, sel.OrderBy[0].Desc)
	require.NotNil(t, sel.Limit)
	assert.Equal(t, 10, *sel.Limit)
}

func TestParseSelectDistinctAndJoin(t *testing.T) {
	q, err := ParseQuery(`SELECT DISTINCT d.id FROM documents d JOIN tags t ON d.id = t.doc_id WHERE t.name = 'go'`)
	require.NoError(t, err)
	sel := q.Select
	assert.True(t, sel.Distinct)
	require.Len(t, sel.Joins, 1)
	assert.Equal(t, "tags", sel.Joins[0].Table)
	assert.NotNil(t, sel.Joins[0].On)
}

func TestParseSelectWithNearAndFusion(t *testing.T) {
	q, err := ParseQuery(`SELECT id FROM documents WHERE vector NEAR $query USING FUSION 'rrf' (k: 60) LIMIT 5`)
	require.NoError(t, err)
	sel := q.Select
	require.NotNil(t, sel.Fusion)
	assert.Equal(t, "rrf", sel.Fusion.Strategy)
	assert.Equal(t, float64(60), sel.Fusion.Params["k"])
	near, ok := sel.Where.(NearExpr)
	require.True(t, ok)
	assert.Equal(t, ParamRef{Name: "query"}, near.Param)
}

func TestParseSelectUnion(t *testing.T) {
	q, err := ParseQuery(`SELECT id FROM documents UNION ALL SELECT id FROM tickets`)
	require.NoError(t, err)
	require.NotNil(t, q.Select.Compound)
	assert.Equal(t, CompoundUnionAll, q.Select.Compound.Op)
}

func TestParseMatchPattern(t *testing.T) {
	q, err := ParseQuery(`MATCH (a:Document)-[r:LINKS*1..3]->(b:Document) WHERE a.id = $start RETURN b.id, r LIMIT 20`)
	require.NoError(t, err)
	require.Equal(t, KindMatch, q.Kind)
	m := q.Match
	require.Len(t, m.Pattern.Elements, 2)
	first := m.Pattern.Elements[0]
	assert.Equal(t, "a", first.Node.Variable)
	assert.Equal(t, []string{"Document"}, first.Node.Labels)
	require.NotNil(t, first.Edge)
	assert.Equal(t, []string{"LINKS"}, first.Edge.Types)
	require.NotNil(t, first.Edge.MinHops)
	require.NotNil(t, first.Edge.MaxHops)
	assert.Equal(t, 1, *first.Edge.MinHops)
	assert.Equal(t, 3, *first.Edge.MaxHops)
	assert.Equal(t, DirOut, first.Edge.Direction)
	require.Len(t, m.Return, 2)
	require.NotNil(t, m.Limit)
	assert.Equal(t, 20, *m.Limit)
}

func TestParseMatchUndirected(t *testing.T) {
	q, err := ParseQuery(`MATCH (a)-[:KNOWS]-(b) RETURN a, b`)
	require.NoError(t, err)
	edge := q.Match.Pattern.Elements[0].Edge
	require.NotNil(t, edge)
	assert.Equal(t, DirBoth, edge.Direction)
}

func TestParseMatchIncoming(t *testing.T) {
	q, err := ParseQuery(`MATCH (a)<-[:OWNS]-(b) RETURN a`)
	require.NoError(t, err)
	edge := q.Match.Pattern.Elements[0].Edge
	require.NotNil(t, edge)
	assert.Equal(t, DirIn, edge.Direction)
}

func TestParseMissingParam(t *testing.T) {
	q, err := ParseQuery(`SELECT id FROM documents WHERE owner = $owner`)
	require.NoError(t, err)
	err = Validate(q, map[string]any{})
	require.Error(t, err)
}

func TestParseSubqueryCorrelation(t *testing.T) {
	q, err := ParseQuery(`SELECT id FROM documents d WHERE d.score > (SELECT avg_score FROM stats s WHERE s.owner = d.owner)`)
	require.NoError(t, err)
	sub, ok := q.Select.Where.(BinaryExpr).Right.(SubqueryExpr)
	require.True(t, ok)
	assert.True(t, sub.Correlated)
}

func TestEvalIntervalAndNow(t *testing.T) {
	secs, err := EvalInterval(IntervalExpr{Amount: 7, Unit: "day"})
	require.NoError(t, err)
	assert.Equal(t, float64(7*86400), secs)

	fixed := func() time.Time { return time.Unix(1000, 0) }
	assert.Equal(t, int64(1000), EvalNow(fixed))
}

func TestQueryCacheHitAndEviction(t *testing.T) {
	cache := NewQueryCache(2, time.Hour)
	_, err := ParseCached(cache, `SELECT id FROM documents`)
	require.NoError(t, err)
	_, ok := cache.Get(`SELECT id FROM documents`)
	assert.True(t, ok)

	_, err = ParseCached(cache, `SELECT id FROM tickets`)
	require.NoError(t, err)
	_, err = ParseCached(cache, `SELECT id FROM users`)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.Len())
	assert.Greater(t, cache.HitRate(), float64(0))
}

func TestCollectParamsDeduplicates(t *testing.T) {
	q, err := ParseQuery(`SELECT id FROM documents WHERE owner = $who OR editor = $who`)
	require.NoError(t, err)
	assert.Equal(t, []string{"who"}, CollectParams(q))
}
