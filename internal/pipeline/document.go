package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgallion1/docintel/internal/chunker"
	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/outline"
	"github.com/dgallion1/docintel/internal/parser"
	"github.com/dgallion1/docintel/internal/selection"
)

// DocStatus is the outcome of one document in a batch.
type DocStatus string

const (
	DocRanked    DocStatus = "ranked"
	DocDropped   DocStatus = "dropped"
	DocDuplicate DocStatus = "duplicate_skipped"
)

// DocResult summarises one document's pass through the pipeline.
type DocResult struct {
	Name      string    `json:"name"`
	Status    DocStatus `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Title     string    `json:"title,omitempty"`
	Headings  int       `json:"headings"`
	Chunks    int       `json:"chunks"`
	BestScore float64   `json:"best_score"`

	candidates []doctree.RankedChunk
}

func dropped(name, reason string) DocResult {
	return DocResult{Name: name, Status: DocDropped, Reason: reason}
}

func (a *Analyzer) parse(doc Document) (*doctree.Document, error) {
	p, err := parser.ForFile(doc.Name, a.opts.Layout)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(bytes.NewReader(doc.Data), doc.Name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.Name, err)
	}
	return tree, nil
}

// processDocument runs parse, outline, chunk and rank for one document and
// keeps its best candidates.
func (a *Analyzer) processDocument(ctx context.Context, doc Document, persona, job string) DocResult {
	tree, err := a.parse(doc)
	if err != nil {
		return dropped(doc.Name, err.Error())
	}

	ol := outline.Extract(tree, a.opts.Outline)
	res := DocResult{Name: doc.Name, Title: ol.Title, Headings: len(ol.Entries)}

	chunks := chunker.Filter(chunker.ChunkOutline(tree, ol, a.opts.Chunker), a.opts.Chunker)
	res.Chunks = len(chunks)
	if len(chunks) == 0 {
		res.Status, res.Reason = DocDropped, "no chunks"
		return res
	}

	ranked, err := a.ranker.Rank(ctx, chunks, persona, job)
	if err != nil {
		res.Status, res.Reason = DocDropped, fmt.Sprintf("rank: %v", err)
		return res
	}
	if len(ranked) == 0 {
		res.Status, res.Reason = DocDropped, "no ranked chunks"
		return res
	}

	res.BestScore = ranked[0].Score
	if a.opts.MinScore != nil && res.BestScore < *a.opts.MinScore {
		res.Status = DocDropped
		res.Reason = fmt.Sprintf("best score %.3f below minimum %.3f", res.BestScore, *a.opts.MinScore)
		return res
	}

	res.Status = DocRanked
	res.candidates = selection.PerDocument(ranked, a.opts.PerDocCandidates)
	return res
}
