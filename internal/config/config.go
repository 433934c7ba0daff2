// Package config loads service and CLI settings from defaults, an optional
// YAML file and DOCINTEL_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/docintel/internal/chunker"
	"github.com/dgallion1/docintel/internal/outline"
	"github.com/dgallion1/docintel/internal/parser"
	"github.com/dgallion1/docintel/internal/pipeline"
	"github.com/dgallion1/docintel/internal/selection"
	"github.com/dgallion1/docintel/internal/source"
)

type Config struct {
	Outline OutlineConfig
	Chunker ChunkerConfig
	Ranker  RankerConfig
	Batch   BatchConfig
	Server  ServerConfig
	S3      source.S3Config
	Log     LogConfig
}

// OutlineConfig holds heading-detection and layout thresholds.
type OutlineConfig struct {
	SizeMargin           float64
	MaxHeadingWords      int
	CoverPageMaxChars    int
	CenterToleranceRatio float64
	LineTolerance        float64
	BlockGapRatio        float64
}

type ChunkerConfig struct {
	MaxContentChars  int
	FallbackLines    int
	MinQuality       float64
	RefinedTextChars int
}

// RankerConfig locates the models and tunes the two ranking stages.
type RankerConfig struct {
	ModelDir        string
	TopK            int
	BatchSize       int
	RerankBatchSize int
	Index           string // "memory" or "sqlite-vec"
	CachePath       string // empty disables the persistent embedding cache
}

// BatchConfig tunes persona-analysis batches.
type BatchConfig struct {
	Workers          int
	DocTimeout       time.Duration
	Deadline         time.Duration
	MinScore         *float64
	PerDocCandidates int
	TopN             int
	PerDocCap        int
	SkipGeneric      bool
	QualityWeight    float64
}

type ServerConfig struct {
	Port           string
	APIKey         string
	MaxUploadBytes int64
	JobTTL         time.Duration
	MaxQueueSize   int
	JobWorkers     int
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	IndexMemory    = "memory"
	IndexSQLiteVec = "sqlite-vec"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("outline.size_margin", 0.5)
	v.SetDefault("outline.max_heading_words", 25)
	v.SetDefault("outline.cover_page_max_chars", 200)
	v.SetDefault("outline.center_tolerance_ratio", 0.125)
	v.SetDefault("outline.line_tolerance", 0.5)
	v.SetDefault("outline.block_gap_ratio", 1.5)

	v.SetDefault("chunker.max_content_chars", 800)
	v.SetDefault("chunker.fallback_lines", 10)
	v.SetDefault("chunker.min_quality", 0.0)
	v.SetDefault("chunker.refined_text_chars", 1000)

	v.SetDefault("ranker.model_dir", "./models")
	v.SetDefault("ranker.top_k", 50)
	v.SetDefault("ranker.batch_size", 32)
	v.SetDefault("ranker.rerank_batch_size", 16)
	v.SetDefault("ranker.index", IndexMemory)
	v.SetDefault("ranker.cache_path", "")

	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.doc_timeout", "60s")
	v.SetDefault("batch.deadline", "5m")
	v.SetDefault("batch.per_doc_candidates", 3)
	v.SetDefault("batch.top_n", 5)
	v.SetDefault("batch.per_doc_cap", 2)
	v.SetDefault("selection.skip_generic", true)
	v.SetDefault("selection.quality_weight", 0.0)

	v.SetDefault("server.port", "8090")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.max_upload_bytes", 52428800) // 50MB
	v.SetDefault("server.job_ttl", "1h")
	v.SetDefault("server.max_queue_size", 100)
	v.SetDefault("server.job_workers", 2)

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. path may be empty; a named file that does not
// exist is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are only seen by AutomaticEnv when bound.
	_ = v.BindEnv("batch.min_score")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Outline: OutlineConfig{
			SizeMargin:           v.GetFloat64("outline.size_margin"),
			MaxHeadingWords:      v.GetInt("outline.max_heading_words"),
			CoverPageMaxChars:    v.GetInt("outline.cover_page_max_chars"),
			CenterToleranceRatio: v.GetFloat64("outline.center_tolerance_ratio"),
			LineTolerance:        v.GetFloat64("outline.line_tolerance"),
			BlockGapRatio:        v.GetFloat64("outline.block_gap_ratio"),
		},
		Chunker: ChunkerConfig{
			MaxContentChars:  v.GetInt("chunker.max_content_chars"),
			FallbackLines:    v.GetInt("chunker.fallback_lines"),
			MinQuality:       v.GetFloat64("chunker.min_quality"),
			RefinedTextChars: v.GetInt("chunker.refined_text_chars"),
		},
		Ranker: RankerConfig{
			ModelDir:        v.GetString("ranker.model_dir"),
			TopK:            v.GetInt("ranker.top_k"),
			BatchSize:       v.GetInt("ranker.batch_size"),
			RerankBatchSize: v.GetInt("ranker.rerank_batch_size"),
			Index:           strings.ToLower(v.GetString("ranker.index")),
			CachePath:       v.GetString("ranker.cache_path"),
		},
		Batch: BatchConfig{
			Workers:          v.GetInt("batch.workers"),
			DocTimeout:       v.GetDuration("batch.doc_timeout"),
			Deadline:         v.GetDuration("batch.deadline"),
			PerDocCandidates: v.GetInt("batch.per_doc_candidates"),
			TopN:             v.GetInt("batch.top_n"),
			PerDocCap:        v.GetInt("batch.per_doc_cap"),
			SkipGeneric:      v.GetBool("selection.skip_generic"),
			QualityWeight:    v.GetFloat64("selection.quality_weight"),
		},
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			APIKey:         v.GetString("server.api_key"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
			JobTTL:         v.GetDuration("server.job_ttl"),
			MaxQueueSize:   v.GetInt("server.max_queue_size"),
			JobWorkers:     v.GetInt("server.job_workers"),
		},
		S3: source.S3Config{
			Region:    v.GetString("s3.region"),
			Endpoint:  v.GetString("s3.endpoint"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}
	if v.IsSet("batch.min_score") {
		s := v.GetFloat64("batch.min_score")
		cfg.Batch.MinScore = &s
	}

	// Clamp soft limits the way the server always has.
	if cfg.Server.MaxQueueSize <= 0 {
		cfg.Server.MaxQueueSize = 100
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 52428800
	}
	if cfg.Server.JobTTL <= 0 {
		cfg.Server.JobTTL = time.Hour
	}
	if cfg.Server.JobWorkers <= 0 {
		cfg.Server.JobWorkers = 2
	}
	if cfg.Chunker.RefinedTextChars > 1000 {
		cfg.Chunker.RefinedTextChars = 1000
	}

	return cfg, nil
}

// Validate rejects settings no run could honour.
func (c *Config) Validate() error {
	var errs []error
	if c.Batch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers))
	}
	if c.Batch.TopN < 1 {
		errs = append(errs, fmt.Errorf("batch.top_n must be at least 1, got %d", c.Batch.TopN))
	}
	if c.Batch.PerDocCap < 1 {
		errs = append(errs, fmt.Errorf("batch.per_doc_cap must be at least 1, got %d", c.Batch.PerDocCap))
	}
	if c.Batch.PerDocCandidates < 1 {
		errs = append(errs, fmt.Errorf("batch.per_doc_candidates must be at least 1, got %d", c.Batch.PerDocCandidates))
	}
	if c.Batch.DocTimeout <= 0 || c.Batch.Deadline <= 0 {
		errs = append(errs, errors.New("batch.doc_timeout and batch.deadline must be positive"))
	}
	if c.Batch.QualityWeight < 0 {
		errs = append(errs, fmt.Errorf("selection.quality_weight must not be negative, got %v", c.Batch.QualityWeight))
	}
	if c.Ranker.TopK < 1 {
		errs = append(errs, fmt.Errorf("ranker.top_k must be at least 1, got %d", c.Ranker.TopK))
	}
	if c.Ranker.Index != IndexMemory && c.Ranker.Index != IndexSQLiteVec {
		errs = append(errs, fmt.Errorf("ranker.index must be %q or %q, got %q", IndexMemory, IndexSQLiteVec, c.Ranker.Index))
	}
	if c.Ranker.Index == IndexSQLiteVec && c.Ranker.CachePath == "" {
		// The KNN scratch table lives in the cache database.
		errs = append(errs, errors.New("ranker.index sqlite-vec needs ranker.cache_path"))
	}
	if c.Outline.MaxHeadingWords < 1 {
		errs = append(errs, fmt.Errorf("outline.max_heading_words must be at least 1, got %d", c.Outline.MaxHeadingWords))
	}
	return errors.Join(errs...)
}

// LayoutConfig returns the PDF line/block assembly settings.
func (c *Config) LayoutConfig() parser.LayoutConfig {
	return parser.LayoutConfig{
		LineTolerance: c.Outline.LineTolerance,
		BlockGapRatio: c.Outline.BlockGapRatio,
	}
}

func (c *Config) OutlineConfig() outline.Config {
	return outline.Config{
		SizeMargin:           c.Outline.SizeMargin,
		MaxHeadingWords:      c.Outline.MaxHeadingWords,
		CoverPageMaxChars:    c.Outline.CoverPageMaxChars,
		CenterToleranceRatio: c.Outline.CenterToleranceRatio,
	}
}

func (c *Config) ChunkerConfig() chunker.Config {
	return chunker.Config{
		MaxContentChars:  c.Chunker.MaxContentChars,
		FallbackLines:    c.Chunker.FallbackLines,
		MinQuality:       c.Chunker.MinQuality,
		RefinedTextChars: c.Chunker.RefinedTextChars,
	}
}

// PipelineOptions assembles the analyzer settings.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Layout:  c.LayoutConfig(),
		Outline: c.OutlineConfig(),
		Chunker: c.ChunkerConfig(),
		Selection: selection.Options{
			TopN:        c.Batch.TopN,
			PerDocCap:   c.Batch.PerDocCap,
			SkipGeneric: c.Batch.SkipGeneric,
			Adjust:      selection.QualityBlend(c.Batch.QualityWeight),
		},
		Workers:          c.Batch.Workers,
		DocTimeout:       c.Batch.DocTimeout,
		Deadline:         c.Batch.Deadline,
		PerDocCandidates: c.Batch.PerDocCandidates,
		MinScore:         c.Batch.MinScore,
	}
}

// OrchestratorConfig sizes the server's job runner.
func (c *Config) OrchestratorConfig() pipeline.OrchestratorConfig {
	return pipeline.OrchestratorConfig{
		JobWorkers:   c.Server.JobWorkers,
		MaxQueueSize: c.Server.MaxQueueSize,
		JobTTL:       c.Server.JobTTL,
	}
}
