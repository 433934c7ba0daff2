package outline

import (
	"sort"
	"strings"
)

// TitleNotFound is reported when neither metadata nor headings give a title.
const TitleNotFound = "Title Not Found"

// titleSuffix is appended to titles taken from headings.
const titleSuffix = "  "

var placeholderTitles = map[string]bool{
	"untitled":          true,
	"untitled document": true,
}

// ResolveTitle picks the document title. A usable metadata title is returned
// as is; otherwise the largest candidate on pages 1-2 wins, then the first
// candidate. Heading-derived titles carry two trailing spaces.
func ResolveTitle(metadata string, cands []Candidate) string {
	meta := strings.TrimSpace(metadata)
	if meta != "" && !placeholderTitles[strings.ToLower(meta)] {
		return meta
	}

	early := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Page <= 2 {
			early = append(early, c)
		}
	}
	if len(early) > 0 {
		sort.SliceStable(early, func(i, j int) bool { return early[i].FontSize > early[j].FontSize })
		return strings.TrimSpace(early[0].Text) + titleSuffix
	}

	if len(cands) > 0 {
		return strings.TrimSpace(cands[0].Text) + titleSuffix
	}
	return TitleNotFound
}
