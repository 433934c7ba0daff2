package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docintel/internal/doctree"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.Outline.SizeMargin)
	assert.Equal(t, 25, cfg.Outline.MaxHeadingWords)
	assert.Equal(t, 200, cfg.Outline.CoverPageMaxChars)
	assert.Equal(t, 800, cfg.Chunker.MaxContentChars)
	assert.Equal(t, 1000, cfg.Chunker.RefinedTextChars)
	assert.Equal(t, "./models", cfg.Ranker.ModelDir)
	assert.Equal(t, 50, cfg.Ranker.TopK)
	assert.Equal(t, IndexMemory, cfg.Ranker.Index)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 60*time.Second, cfg.Batch.DocTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Batch.Deadline)
	assert.Nil(t, cfg.Batch.MinScore)
	assert.Equal(t, 3, cfg.Batch.PerDocCandidates)
	assert.Equal(t, 5, cfg.Batch.TopN)
	assert.Equal(t, 2, cfg.Batch.PerDocCap)
	assert.True(t, cfg.Batch.SkipGeneric)
	assert.Zero(t, cfg.Batch.QualityWeight)
	assert.Nil(t, cfg.PipelineOptions().Selection.Adjust, "ranker scores are used as is by default")
	assert.Equal(t, 0.5, cfg.LayoutConfig().LineTolerance)
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCINTEL_BATCH_WORKERS", "3")
	t.Setenv("DOCINTEL_BATCH_MIN_SCORE", "-2.5")
	t.Setenv("DOCINTEL_RANKER_INDEX", "SQLITE-VEC")
	t.Setenv("DOCINTEL_RANKER_CACHE_PATH", "/tmp/cache.db")
	t.Setenv("DOCINTEL_SERVER_API_KEY", "secret")
	t.Setenv("DOCINTEL_CHUNKER_REFINED_TEXT_CHARS", "4000")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Batch.Workers)
	require.NotNil(t, cfg.Batch.MinScore)
	assert.Equal(t, -2.5, *cfg.Batch.MinScore)
	assert.Equal(t, IndexSQLiteVec, cfg.Ranker.Index)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 1000, cfg.Chunker.RefinedTextChars)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, -2.5, *opts.MinScore)
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "docintel.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
outline:
  size_margin: 0.3
batch:
  top_n: 7
  per_doc_cap: 3
selection:
  skip_generic: false
  quality_weight: 0.5
`), 0o644))
	t.Setenv("DOCINTEL_BATCH_TOP_N", "9")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Outline.SizeMargin)
	assert.Equal(t, 9, cfg.Batch.TopN, "env wins over file")
	assert.Equal(t, 3, cfg.Batch.PerDocCap)
	assert.False(t, cfg.Batch.SkipGeneric)

	sel := cfg.PipelineOptions().Selection
	assert.Equal(t, 9, sel.TopN)
	require.NotNil(t, sel.Adjust, "quality_weight wires a score adjuster")
	chunk := doctree.RankedChunk{Chunk: doctree.Chunk{QualityScore: 0.8}, Score: 0.2}
	assert.InDelta(t, 0.6, sel.Adjust(chunk), 1e-9)
	assert.Equal(t, 0.3, cfg.OutlineConfig().SizeMargin)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Batch.Workers = 0
	cfg.Batch.PerDocCap = 0
	cfg.Batch.TopN = 0
	cfg.Ranker.Index = "faiss"
	cfg.Batch.QualityWeight = -1

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"batch.workers", "batch.per_doc_cap", "batch.top_n", "ranker.index", "selection.quality_weight"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestValidate_SQLiteVecNeedsCache(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Ranker.Index = IndexSQLiteVec
	assert.ErrorContains(t, cfg.Validate(), "cache_path")
}
