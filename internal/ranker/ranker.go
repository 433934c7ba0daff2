// Package ranker scores document chunks against a persona and task with a
// two-stage pipeline: embedding similarity picks the candidates, then a
// cross-encoder scores each (query, chunk) pair.
package ranker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/vecstore"
)

// ErrUnavailable is returned when the model artifacts cannot be loaded.
var ErrUnavailable = errors.New("ranker: models unavailable")

// Encoder maps texts to fixed-size vectors. Implementations must be safe
// for concurrent use.
type Encoder interface {
	Name() string
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// CrossEncoder scores (query, passage) pairs jointly. Higher is more
// relevant. Implementations must be safe for concurrent use.
type CrossEncoder interface {
	Name() string
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Options tunes a Ranker.
type Options struct {
	TopK            int   // stage-1 survivors
	BatchSize       int   // texts per Encode call
	RerankBatchSize int   // passages per Score call
	Index           Index // nil means MemoryIndex
	Cache           *vecstore.Store
	Stats           *ModelStats
	Logger          *slog.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:            50,
		BatchSize:       32,
		RerankBatchSize: 16,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopK <= 0 {
		o.TopK = d.TopK
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.RerankBatchSize <= 0 {
		o.RerankBatchSize = d.RerankBatchSize
	}
	if o.Index == nil {
		o.Index = MemoryIndex{}
	}
	if o.Stats == nil {
		o.Stats = NewModelStats(time.Hour)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Ranker holds the loaded models. It is immutable after construction and
// safe for concurrent Rank calls.
type Ranker struct {
	enc  Encoder
	ce   CrossEncoder
	opts Options
}

// New builds a Ranker from already-loaded models.
func New(enc Encoder, ce CrossEncoder, opts Options) *Ranker {
	opts = opts.withDefaults()
	if opts.Cache != nil {
		enc = &cachedEncoder{Encoder: enc, store: opts.Cache, log: opts.Logger}
	}
	return &Ranker{enc: enc, ce: ce, opts: opts}
}

// Stats returns the latency stats shared by this ranker.
func (r *Ranker) Stats() *ModelStats { return r.opts.Stats }

// Names returns the names of the embedding and cross-encoder models.
func (r *Ranker) Names() (encoder, crossEncoder string) {
	return r.enc.Name(), r.ce.Name()
}

// BuildQuery combines persona and task into the ranking query.
func BuildQuery(persona, job string) string {
	return persona + ". Task: " + job
}

// Rank scores chunks against the persona and job. The result holds at most
// TopK chunks sorted by descending cross-encoder score. An empty input
// yields an empty result.
func (r *Ranker) Rank(ctx context.Context, chunks []doctree.Chunk, persona, job string) ([]doctree.RankedChunk, error) {
	if len(chunks) == 0 {
		return []doctree.RankedChunk{}, nil
	}
	query := BuildQuery(persona, job)

	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, query)
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}
	vecs, err := r.encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	k := min(r.opts.TopK, len(chunks))
	hits, err := r.opts.Index.TopK(ctx, vecs[0], vecs[1:], k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	passages := make([]string, len(hits))
	for i, h := range hits {
		passages[i] = chunks[h.Index].Content
	}
	scores, err := r.rerank(ctx, query, passages)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	ranked := make([]doctree.RankedChunk, len(hits))
	for i, h := range hits {
		ranked[i] = doctree.RankedChunk{Chunk: chunks[h.Index], Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked, nil
}

func (r *Ranker) encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += r.opts.BatchSize {
		batch := texts[start:min(start+r.opts.BatchSize, len(texts))]
		t0 := time.Now()
		vecs, err := r.enc.Encode(ctx, batch)
		if err != nil {
			return nil, err
		}
		r.opts.Stats.Encode.Record(time.Since(t0), len(batch))
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (r *Ranker) rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	out := make([]float64, 0, len(passages))
	for start := 0; start < len(passages); start += r.opts.RerankBatchSize {
		batch := passages[start:min(start+r.opts.RerankBatchSize, len(passages))]
		t0 := time.Now()
		scores, err := r.ce.Score(ctx, query, batch)
		if err != nil {
			return nil, err
		}
		r.opts.Stats.Rerank.Record(time.Since(t0), len(batch))
		if len(scores) != len(batch) {
			return nil, fmt.Errorf("cross-encoder returned %d scores for %d passages", len(scores), len(batch))
		}
		out = append(out, scores...)
	}
	return out, nil
}
