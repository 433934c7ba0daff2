package ranker

import (
	"context"
	"log/slog"

	"github.com/dgallion1/docintel/internal/vecstore"
)

// cachedEncoder serves repeat texts from the vecstore embedding cache.
// Cache failures are logged and fall through to the wrapped encoder.
type cachedEncoder struct {
	Encoder
	store *vecstore.Store
	log   *slog.Logger
}

func (c *cachedEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.Encoder.Name()
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = vecstore.CacheKey(model, t)
	}

	cached, err := c.store.GetEmbeddings(ctx, keys)
	if err != nil {
		c.log.Warn("embedding cache read failed", "error", err)
		cached = nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, k := range keys {
		if v, ok := cached[k]; ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.Encoder.Encode(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	put := make(map[string][]float32, len(fresh))
	for j, v := range fresh {
		out[missIdx[j]] = v
		put[keys[missIdx[j]]] = v
	}
	if err := c.store.PutEmbeddings(ctx, model, put); err != nil {
		c.log.Warn("embedding cache write failed", "error", err)
	}
	return out, nil
}
