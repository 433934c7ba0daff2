package outline

import (
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Candidate is a line accepted as a possible heading.
type Candidate struct {
	Text       string
	FontSize   float64
	Page       int // after cover-page correction
	SourcePage int // physical page
	Signals    SignalSet
}

// Detect classifies every single-line block in doc. Multi-line blocks are
// body paragraphs and never produce candidates.
func Detect(doc *doctree.Document, body FontProfile, cfg Config) []Candidate {
	cfg = cfg.withDefaults()
	var out []Candidate
	for i := range doc.Pages {
		page := &doc.Pages[i]
		for _, b := range page.Blocks {
			if len(b.Lines) != 1 {
				continue
			}
			facts, ok := lineFactsFor(b.Lines[0], page)
			if !ok {
				continue
			}
			sigs := computeSignals(facts, body, cfg)
			if !Accepts(sigs) {
				continue
			}
			out = append(out, Candidate{
				Text:       facts.text,
				FontSize:   facts.size,
				Page:       page.Number,
				SourcePage: page.Number,
				Signals:    sigs,
			})
		}
	}
	return out
}

// lineFactsFor takes its style from the first non-blank span.
func lineFactsFor(l doctree.Line, page *doctree.Page) (lineFacts, bool) {
	text := strings.TrimSpace(l.Text())
	if text == "" {
		return lineFacts{}, false
	}
	var first doctree.TextSpan
	for _, sp := range l.Spans {
		if strings.TrimSpace(sp.Text) != "" {
			first = sp
			break
		}
	}
	return lineFacts{
		text:      text,
		size:      roundSize(first.FontSize),
		bold:      first.Bold || isBoldFamily(first.FontFamily),
		bbox:      l.BBox(),
		pageX0:    page.X0,
		pageWidth: page.Width,
	}, true
}

func isBoldFamily(family string) bool {
	lower := strings.ToLower(family)
	return strings.Contains(lower, "bold") || strings.Contains(lower, "black")
}
