package ranker

import (
	"context"
	"sort"

	"github.com/dgallion1/docintel/internal/vecstore"
)

// Hit is one stage-1 retrieval result.
type Hit struct {
	Index      int
	Similarity float64
}

// Index selects the k vectors most similar to a query.
type Index interface {
	TopK(ctx context.Context, query []float32, vectors [][]float32, k int) ([]Hit, error)
}

// MemoryIndex is a brute-force cosine index.
type MemoryIndex struct{}

func (MemoryIndex) TopK(ctx context.Context, query []float32, vectors [][]float32, k int) ([]Hit, error) {
	hits := make([]Hit, len(vectors))
	for i, v := range vectors {
		hits[i] = Hit{Index: i, Similarity: Cosine(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k < len(hits) {
		hits = hits[:max(k, 0)]
	}
	return hits, nil
}

// StoreIndex runs the search as a sqlite-vec KNN query.
type StoreIndex struct {
	Store *vecstore.Store
}

func (s StoreIndex) TopK(ctx context.Context, query []float32, vectors [][]float32, k int) ([]Hit, error) {
	ns, err := s.Store.KNN(ctx, query, vectors, k)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(ns))
	for i, n := range ns {
		hits[i] = Hit{Index: n.Index, Similarity: n.Similarity}
	}
	return hits, nil
}
