package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() map[string]any {
	return map[string]any{
		"metadata": map[string]any{
			"source": "crawler-7",
			"score":  42.5,
		},
		"items": []any{
			map[string]any{"sku": "ABC-1"},
			map[string]any{"sku": "ABC-2"},
		},
		"tags": []any{"red", "blue"},
	}
}

func TestResolvePathDottedAndBracketed(t *testing.T) {
	p := samplePayload()

	v, ok := ResolvePath(p, "metadata.source")
	require.True(t, ok)
	assert.Equal(t, "crawler-7", v)

	v, ok = ResolvePath(p, "items[0].sku")
	require.True(t, ok)
	assert.Equal(t, "ABC-1", v)

	v, ok = ResolvePath(p, "items[1].sku")
	require.True(t, ok)
	assert.Equal(t, "ABC-2", v)

	_, ok = ResolvePath(p, "items[9].sku")
	assert.False(t, ok)

	_, ok = ResolvePath(p, "missing.field")
	assert.False(t, ok)
}

func TestEvaluateComparisonOperators(t *testing.T) {
	p := samplePayload()

	ok, err := Evaluate(Eq("metadata.source", "crawler-7"), p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(Ne("metadata.source", "crawler-8"), p)
	assert.True(t, ok)

	ok, _ = Evaluate(Gt("metadata.score", 40), p)
	assert.True(t, ok)

	ok, _ = Evaluate(Lt("metadata.score", 40), p)
	assert.False(t, ok)

	ok, _ = Evaluate(Between("metadata.score", 0, 100), p)
	assert.True(t, ok)

	ok, _ = Evaluate(Between("metadata.score", 43, 100), p)
	assert.False(t, ok)
}

func TestEvaluateInOperator(t *testing.T) {
	p := samplePayload()

	ok, err := Evaluate(In("metadata.source", "crawler-6", "crawler-7"), p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(In("metadata.source", "crawler-6"), p)
	assert.False(t, ok)
}

func TestEvaluateLikeWildcards(t *testing.T) {
	p := samplePayload()

	ok, err := Evaluate(Like("metadata.source", "crawler-%"), p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(Like("metadata.source", "crawler-_"), p)
	assert.True(t, ok)

	ok, _ = Evaluate(Like("metadata.source", "CRAWLER-%"), p)
	assert.False(t, ok)

	ok, _ = Evaluate(ILike("metadata.source", "CRAWLER-%"), p)
	assert.True(t, ok)
}

func TestLikeEscapesLiteralWildcards(t *testing.T) {
	p := map[string]any{"name": "50%_off"}

	ok, err := Evaluate(Like("name", `50\%\_off`), p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(Like("name", `50x_off`), p)
	assert.False(t, ok)
}

func TestEvaluateIsNullAndIsNotNull(t *testing.T) {
	p := samplePayload()

	ok, err := Evaluate(IsNull("metadata.missing"), p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = Evaluate(IsNotNull("metadata.source"), p)
	assert.True(t, ok)
}

func TestEvaluateBooleanCombinators(t *testing.T) {
	p := samplePayload()

	and := And(Eq("metadata.source", "crawler-7"), Gt("metadata.score", 10))
	ok, err := Evaluate(and, p)
	require.NoError(t, err)
	assert.True(t, ok)

	or := Or(Eq("metadata.source", "nope"), Gt("metadata.score", 10))
	ok, _ = Evaluate(or, p)
	assert.True(t, ok)

	not := Not(Eq("metadata.source", "crawler-7"))
	ok, _ = Evaluate(not, p)
	assert.False(t, ok)

	nested := And(Or(Eq("metadata.source", "nope"), Eq("metadata.source", "crawler-7")), Not(Lt("metadata.score", 0)))
	ok, _ = Evaluate(nested, p)
	assert.True(t, ok)
}

func TestEvaluateNilConditionMatchesEverything(t *testing.T) {
	ok, err := Evaluate(nil, samplePayload())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateMissingFieldFailsComparison(t *testing.T) {
	p := samplePayload()
	ok, err := Evaluate(Eq("metadata.nope", "x"), p)
	require.NoError(t, err)
	assert.False(t, ok)
}
