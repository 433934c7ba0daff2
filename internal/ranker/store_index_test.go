//go:build cgo

package ranker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/vecstore"
)

func openTestStore(t *testing.T) *vecstore.Store {
	t.Helper()
	s, err := vecstore.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreIndexMatchesMemoryIndex(t *testing.T) {
	s := openTestStore(t)
	vecs := [][]float32{{0, 1, 0}, {1, 0, 0}, {0.9, 0.1, 0}, {0, 0, 1}}
	query := []float32{1, 0, 0}

	want, err := MemoryIndex{}.TopK(context.Background(), query, vecs, 2)
	require.NoError(t, err)
	got, err := StoreIndex{Store: s}.TopK(context.Background(), query, vecs, 2)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, want[0].Index, got[0].Index)
	assert.Equal(t, want[1].Index, got[1].Index)
	assert.InDelta(t, want[1].Similarity, got[1].Similarity, 1e-4)
}

func TestCachedEncoderSkipsKnownTexts(t *testing.T) {
	s := openTestStore(t)
	inner := &countingEncoder{}
	r := New(inner, &lengthCrossEncoder{}, Options{Cache: s, Index: StoreIndex{Store: s}})

	chunks := []doctree.Chunk{chunk("d", "a", "first chunk"), chunk("d", "b", "second chunk")}
	_, err := r.Rank(context.Background(), chunks, "p", "j")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.texts)

	chunks = append(chunks, chunk("d", "c", "third chunk"))
	ranked, err := r.Rank(context.Background(), chunks, "p", "j")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.texts)
	assert.Len(t, ranked, 3)

	n, err := s.CountEmbeddings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
