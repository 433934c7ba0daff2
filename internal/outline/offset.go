package outline

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
)

// CorrectCoverPage treats a short, heading-free first page as an unnumbered
// cover and shifts every candidate back one page, never below 1. It reports
// whether the shift was applied.
func CorrectCoverPage(cands []Candidate, doc *doctree.Document, cfg Config) bool {
	cfg = cfg.withDefaults()
	if len(doc.Pages) < 2 {
		return false
	}
	for _, c := range cands {
		if c.SourcePage == 1 {
			return false
		}
	}
	if utf8.RuneCountInString(strings.TrimSpace(doc.PageText(1))) >= cfg.CoverPageMaxChars {
		return false
	}
	for i := range cands {
		cands[i].Page = max(1, cands[i].Page-1)
	}
	return true
}
