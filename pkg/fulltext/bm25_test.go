package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRanksMoreRelevantDocumentsHigher(t *testing.T) {
	idx := NewIndex()
	idx.Add(1, "the quick brown fox jumps over the lazy dog")
	idx.Add(2, "machine learning models learn from data, machine learning is powerful")
	idx.Add(3, "a completely unrelated document about gardening")

	results := idx.Search("machine learning", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, uint64(2), results[0].ID)
}

func TestSearchReturnsEmptyForUnknownTerms(t *testing.T) {
	idx := NewIndex()
	idx.Add(1, "hello world")
	results := idx.Search("xyzzy", 10)
	assert.Empty(t, results)
}

func TestRemoveDropsDocumentFromSearch(t *testing.T) {
	idx := NewIndex()
	idx.Add(1, "apple banana cherry")
	idx.Add(2, "apple date fig")
	require.Equal(t, 2, idx.Count())

	idx.Remove(1)
	assert.Equal(t, 1, idx.Count())

	results := idx.Search("apple", 10)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].ID)
}

func TestReAddingDocumentReplacesItsOldTerms(t *testing.T) {
	idx := NewIndex()
	idx.Add(1, "original content here")
	idx.Add(1, "completely different words now")

	assert.Empty(t, idx.Search("original", 10))
	results := idx.Search("different", 10)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(1), results[0].ID)
}

func TestLikeCandidatesNarrowsViaTrigramIndex(t *testing.T) {
	idx := NewIndex()
	idx.Add(1, "quarterly report for engineering")
	idx.Add(2, "weekly summary for sales")

	ids, ok := idx.LikeCandidates("%report%")
	require.True(t, ok)
	assert.Contains(t, ids, uint64(1))
	assert.NotContains(t, ids, uint64(2))
}

func TestLikeCandidatesFallsBackWhenPatternHasNoLiteralRun(t *testing.T) {
	idx := NewIndex()
	idx.Add(1, "anything at all")
	_, ok := idx.LikeCandidates("_")
	assert.False(t, ok)
}
