// Package app holds the wiring shared by the server and CLI binaries.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dgallion1/docintel/internal/config"
	"github.com/dgallion1/docintel/internal/ranker"
	"github.com/dgallion1/docintel/internal/vecstore"
)

// NewLogger builds the process logger. format is "json" or "text".
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// OpenRanker loads the models named by cfg and, when configured, attaches
// the sqlite embedding cache and KNN index. The returned close function
// releases the cache.
func OpenRanker(cfg *config.Config, stats *ranker.ModelStats, log *slog.Logger) (*ranker.Ranker, func() error, error) {
	opts := ranker.Options{
		TopK:            cfg.Ranker.TopK,
		BatchSize:       cfg.Ranker.BatchSize,
		RerankBatchSize: cfg.Ranker.RerankBatchSize,
		Stats:           stats,
		Logger:          log,
	}
	closeFn := func() error { return nil }

	if cfg.Ranker.CachePath != "" {
		store, err := vecstore.Open(cfg.Ranker.CachePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open embedding cache: %w", err)
		}
		opts.Cache = store
		if cfg.Ranker.Index == config.IndexSQLiteVec {
			opts.Index = ranker.StoreIndex{Store: store}
		}
		closeFn = store.Close
	}

	r, err := ranker.Load(cfg.Ranker.ModelDir, opts)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	enc, ce := r.Names()
	log.Info("models loaded", "dir", cfg.Ranker.ModelDir, "encoder", enc, "cross_encoder", ce, "index", cfg.Ranker.Index)
	return r, closeFn, nil
}
