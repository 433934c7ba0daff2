// Package selection picks a diverse top-N set of ranked chunks across
// documents.
package selection

import (
	"sort"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Options tunes Select.
type Options struct {
	TopN        int  // chunks to return
	PerDocCap   int  // max chunks per document before backfill
	SkipGeneric bool // drop boilerplate sections without actionable content

	// Adjust, if set, maps a chunk's ranker score to the score used for
	// ordering. The returned chunks keep the adjusted score.
	Adjust func(doctree.RankedChunk) float64
}

// QualityBlend returns an Adjust function adding weight times the chunk's
// text quality score to its ranker score. A non-positive weight yields nil,
// leaving ranker scores untouched.
func QualityBlend(weight float64) func(doctree.RankedChunk) float64 {
	if weight <= 0 {
		return nil
	}
	return func(c doctree.RankedChunk) float64 {
		return c.Score + weight*c.QualityScore
	}
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{TopN: 5, PerDocCap: 2, SkipGeneric: true}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.PerDocCap <= 0 {
		o.PerDocCap = d.PerDocCap
	}
	return o
}

var (
	genericTitles     = []string{"introduction", "conclusion", "overview", "preface"}
	actionableContent = []string{"specific", "detailed", "step-by-step", "practical"}
)

// IsGeneric reports whether a section is boilerplate: its title names a
// generic section and its content has no actionable indicator.
func IsGeneric(c doctree.Chunk) bool {
	title := strings.ToLower(c.SectionTitle)
	generic := false
	for _, g := range genericTitles {
		if strings.Contains(title, g) {
			generic = true
			break
		}
	}
	if !generic {
		return false
	}
	content := strings.ToLower(c.Content)
	for _, a := range actionableContent {
		if strings.Contains(content, a) {
			return false
		}
	}
	return true
}

// Select orders candidates by (adjusted) score and picks up to TopN,
// taking at most PerDocCap from any one document. If that leaves fewer
// than TopN, the highest remaining candidates fill the gap regardless of
// document. The result is non-increasing in score within each phase.
func Select(candidates []doctree.RankedChunk, opts Options) []doctree.RankedChunk {
	opts = opts.withDefaults()

	pool := make([]doctree.RankedChunk, 0, len(candidates))
	for _, c := range candidates {
		if opts.SkipGeneric && IsGeneric(c.Chunk) {
			continue
		}
		if opts.Adjust != nil {
			c.Score = opts.Adjust(c)
		}
		pool = append(pool, c)
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })

	selected := make([]doctree.RankedChunk, 0, min(opts.TopN, len(pool)))
	used := make([]bool, len(pool))
	perDoc := make(map[string]int)
	for i, c := range pool {
		if len(selected) == opts.TopN {
			break
		}
		if perDoc[c.DocumentID] >= opts.PerDocCap {
			continue
		}
		perDoc[c.DocumentID]++
		used[i] = true
		selected = append(selected, c)
	}

	for i, c := range pool {
		if len(selected) == opts.TopN {
			break
		}
		if !used[i] {
			selected = append(selected, c)
		}
	}
	return selected
}

// PerDocument keeps the k highest-scored chunks of one document's ranked
// list, which must already be sorted by descending score.
func PerDocument(ranked []doctree.RankedChunk, k int) []doctree.RankedChunk {
	if k <= 0 || k >= len(ranked) {
		return ranked
	}
	return ranked[:k]
}
