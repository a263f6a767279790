package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteralRunsSplitsOnWildcards(t *testing.T) {
	assert.Equal(t, []string{"report"}, literalRuns("%report%"))
	assert.Equal(t, []string{"foo", "bar"}, literalRuns("foo%bar"))
	assert.Equal(t, []string{"a_b"}, literalRuns(`a\_b`))
	assert.Nil(t, literalRuns("%_%"))
}

func TestNgramsExtractsOverlappingTrigrams(t *testing.T) {
	got := ngrams("abcd", 3)
	assert.Equal(t, []string{"abc", "bcd"}, got)

	assert.Nil(t, ngrams("ab", 3))
}

func TestTrigramIndexAddAndRemove(t *testing.T) {
	idx := NewTrigramIndex()
	idx.Add(1, "hello world")
	idx.Add(2, "goodbye world")

	ids, ok := idx.Candidates("%world%")
	assert.True(t, ok)
	assert.ElementsMatch(t, []uint64{1, 2}, ids)

	idx.Remove(1, "hello world")
	ids, ok = idx.Candidates("%world%")
	assert.True(t, ok)
	assert.ElementsMatch(t, []uint64{2}, ids)
}

func TestTrigramIndexCandidatesFalseWithoutLiteralRun(t *testing.T) {
	idx := NewTrigramIndex()
	idx.Add(1, "anything")
	_, ok := idx.Candidates("a%")
	assert.False(t, ok)
}
