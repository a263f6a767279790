package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberlife-coder/velesdb/internal/obslog"
)

func TestPersistAndLoadRoundTripsSearchResults(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenStore(dir, obslog.Discard())
	require.NoError(t, err)

	idx := NewIndex()
	idx.Add(1, "quarterly financial report")
	idx.Add(2, "annual engineering report")
	idx.Add(3, "unrelated gardening notes")

	require.NoError(t, idx.Persist(db))
	require.NoError(t, db.Close())

	db2, err := OpenStore(dir, obslog.Discard())
	require.NoError(t, err)
	defer db2.Close()

	loaded, err := Load(db2)
	require.NoError(t, err)

	assert.Equal(t, idx.Count(), loaded.Count())

	results := loaded.Search("report", 10)
	assert.Len(t, results, 2)

	ids, ok := loaded.LikeCandidates("%report%")
	require.True(t, ok)
	assert.ElementsMatch(t, []uint64{1, 2}, ids)
}
