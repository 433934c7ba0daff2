package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docintel/internal/chunker"
	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/outline"
	"github.com/dgallion1/docintel/internal/parser"
	"github.com/dgallion1/docintel/internal/report"
	"github.com/dgallion1/docintel/internal/selection"
)

var (
	// ErrValidation is returned for a request missing persona, job or
	// documents. It is raised before any model call.
	ErrValidation = errors.New("pipeline: invalid request")

	// ErrNoResults is returned when every document in a batch was dropped.
	ErrNoResults = errors.New("pipeline: no document produced results")
)

// Ranker scores chunks against a persona and job.
type Ranker interface {
	Rank(ctx context.Context, chunks []doctree.Chunk, persona, job string) ([]doctree.RankedChunk, error)
}

// Options tunes an Analyzer.
type Options struct {
	Layout    parser.LayoutConfig
	Outline   outline.Config
	Chunker   chunker.Config
	Selection selection.Options

	Workers          int           // documents processed concurrently
	DocTimeout       time.Duration // per-document budget
	Deadline         time.Duration // whole-batch budget
	PerDocCandidates int           // best chunks forwarded per document
	MinScore         *float64      // drop documents whose best score is lower
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Layout:           parser.DefaultLayoutConfig(),
		Outline:          outline.DefaultConfig(),
		Chunker:          chunker.DefaultConfig(),
		Selection:        selection.DefaultOptions(),
		Workers:          8,
		DocTimeout:       60 * time.Second,
		Deadline:         5 * time.Minute,
		PerDocCandidates: 3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.DocTimeout <= 0 {
		o.DocTimeout = d.DocTimeout
	}
	if o.Deadline <= 0 {
		o.Deadline = d.Deadline
	}
	if o.PerDocCandidates <= 0 {
		o.PerDocCandidates = d.PerDocCandidates
	}
	return o
}

// Document is one input file.
type Document struct {
	Name string
	Data []byte
}

// Request is a persona-analysis batch.
type Request struct {
	Persona   string
	Job       string
	Documents []Document

	// OnDocument, if set, is called once per document as it finishes or is
	// dropped. Calls may come from several goroutines.
	OnDocument func(DocResult)
}

// Validate checks the request before any work is done.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Persona) == "" {
		missing = append(missing, "persona")
	}
	if strings.TrimSpace(r.Job) == "" {
		missing = append(missing, "job_to_be_done")
	}
	if len(r.Documents) == 0 {
		missing = append(missing, "documents")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Result is the outcome of a batch.
type Result struct {
	Analysis  report.Analysis       `json:"analysis"`
	Selected  []doctree.RankedChunk `json:"selected"`
	Documents []DocResult           `json:"documents"`
	Partial   bool                  `json:"partial"` // batch deadline hit before every document finished
}

// Analyzer runs persona-analysis batches. It is safe for concurrent use.
type Analyzer struct {
	ranker Ranker
	opts   Options
	log    *slog.Logger
	now    func() time.Time
}

func NewAnalyzer(r Ranker, opts Options, log *slog.Logger) *Analyzer {
	return &Analyzer{ranker: r, opts: opts.withDefaults(), log: log, now: time.Now}
}

// Outline parses one document and extracts its outline.
func (a *Analyzer) Outline(doc Document) (doctree.Outline, error) {
	tree, err := a.parse(doc)
	if err != nil {
		return doctree.Outline{}, err
	}
	return outline.Extract(tree, a.opts.Outline), nil
}

// Analyze processes every document on a bounded worker pool, selects the
// most relevant sections across documents and builds the report. Failed or
// slow documents are dropped; hitting the batch deadline returns whatever
// finished, with Partial set.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := a.now()

	batchCtx, cancel := context.WithTimeout(ctx, a.opts.Deadline)
	defer cancel()

	type outcome struct {
		idx int
		res DocResult
	}
	outcomes := make(chan outcome, len(req.Documents))
	sem := make(chan struct{}, a.opts.Workers)
	seen := make(map[string]string, len(req.Documents))

	for i, doc := range req.Documents {
		hash := ContentHashHex(doc.Data)
		if first, dup := seen[hash]; dup {
			outcomes <- outcome{idx: i, res: DocResult{Name: doc.Name, Status: DocDuplicate, Reason: "same content as " + first}}
			continue
		}
		seen[hash] = doc.Name

		go func(i int, doc Document) {
			select {
			case sem <- struct{}{}:
			case <-batchCtx.Done():
				outcomes <- outcome{idx: i, res: dropped(doc.Name, "batch deadline before start")}
				return
			}
			outcomes <- outcome{idx: i, res: a.runWithTimeout(batchCtx, doc, req.Persona, req.Job, func() { <-sem })}
		}(i, doc)
	}

	results := make([]DocResult, len(req.Documents))
	done := make([]bool, len(req.Documents))
collect:
	for n := 0; n < len(req.Documents); n++ {
		select {
		case o := <-outcomes:
			results[o.idx], done[o.idx] = o.res, true
			a.logDocument(o.res)
			if req.OnDocument != nil {
				req.OnDocument(o.res)
			}
		case <-batchCtx.Done():
			break collect
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	partial := batchCtx.Err() != nil
	for i, ok := range done {
		if !ok {
			results[i] = dropped(req.Documents[i].Name, "batch deadline")
			a.logDocument(results[i])
			if req.OnDocument != nil {
				req.OnDocument(results[i])
			}
		}
	}

	// Gather in input order so equal scores keep a stable document order.
	var pool []doctree.RankedChunk
	names := make([]string, len(req.Documents))
	ranked := 0
	for i, r := range results {
		names[i] = req.Documents[i].Name
		if r.Status == DocRanked {
			ranked++
			pool = append(pool, r.candidates...)
		}
	}
	if ranked == 0 {
		return nil, fmt.Errorf("%w: %d documents dropped", ErrNoResults, len(results))
	}

	selected := selection.Select(pool, a.opts.Selection)
	analysis := report.Build(report.Request{
		Documents: names,
		Persona:   req.Persona,
		Job:       req.Job,
	}, selected, start, a.opts.Chunker.RefinedTextChars)

	a.log.Info("batch complete",
		"documents", len(results),
		"ranked", ranked,
		"candidates", len(pool),
		"selected", len(selected),
		"partial", partial,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return &Result{Analysis: analysis, Selected: selected, Documents: results, Partial: partial}, nil
}

// runWithTimeout gives one document its own budget. The computation is not
// cancelled on timeout; its result is discarded when it eventually returns.
// release runs only once the computation has finished, so abandoned work
// keeps its worker slot.
func (a *Analyzer) runWithTimeout(batchCtx context.Context, doc Document, persona, job string, release func()) DocResult {
	resc := make(chan DocResult, 1)
	go func() {
		defer release()
		resc <- a.processDocument(context.WithoutCancel(batchCtx), doc, persona, job)
	}()

	timer := time.NewTimer(a.opts.DocTimeout)
	defer timer.Stop()
	select {
	case r := <-resc:
		return r
	case <-timer.C:
		return dropped(doc.Name, fmt.Sprintf("timed out after %s", a.opts.DocTimeout))
	case <-batchCtx.Done():
		return dropped(doc.Name, "batch deadline")
	}
}

func (a *Analyzer) logDocument(r DocResult) {
	log := a.log.With("doc", r.Name)
	switch r.Status {
	case DocRanked:
		log.Debug("document ranked", "headings", r.Headings, "chunks", r.Chunks, "best_score", r.BestScore)
	default:
		log.Warn("document dropped", "status", r.Status, "reason", r.Reason)
	}
}
