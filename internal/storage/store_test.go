package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "weedlens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestVisionCacheRoundTrip(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetCachedAnalysis("abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutCachedAnalysis("abc", "1. Weed Identification:"))

	text, ok, err := s.GetCachedAnalysis("abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1. Weed Identification:", text)
}

func TestVisionCacheReplacesEntry(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutCachedAnalysis("abc", "first"))
	require.NoError(t, s.PutCachedAnalysis("abc", "second"))

	text, ok, err := s.GetCachedAnalysis("abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", text)
}

func TestAnalysisHistory(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddAnalysis(AnalysisRecord{ImageSHA: "sha1", MediaType: "image/jpeg", Result: "first"}))
	require.NoError(t, s.AddAnalysis(AnalysisRecord{ImageSHA: "sha2", MediaType: "image/png", Result: "second"}))

	recs, err := s.RecentAnalyses(10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Newest first.
	assert.Equal(t, "sha2", recs[0].ImageSHA)
	assert.Equal(t, "second", recs[0].Result)
	assert.Equal(t, "sha1", recs[1].ImageSHA)
	assert.False(t, recs[0].CreatedAt.IsZero())
}

func TestRecentAnalysesLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AddAnalysis(AnalysisRecord{ImageSHA: "sha", MediaType: "image/jpeg", Result: "r"}))
	}

	recs, err := s.RecentAnalyses(3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}
