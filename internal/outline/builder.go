package outline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

var (
	topNumberedRe = regexp.MustCompile(`^\d+\.\s+[A-Z]`)
	subNumberedRe = regexp.MustCompile(`^\d+\.\d+\s+`)
)

// SizeLevels maps each distinct candidate size to a level: the largest is
// H1, the next H2, everything smaller H3.
func SizeLevels(cands []Candidate) map[float64]doctree.Level {
	seen := make(map[float64]bool)
	var sizes []float64
	for _, c := range cands {
		if !seen[c.FontSize] {
			seen[c.FontSize] = true
			sizes = append(sizes, c.FontSize)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	levels := make(map[float64]doctree.Level, len(sizes))
	for i, s := range sizes {
		switch i {
		case 0:
			levels[s] = doctree.H1
		case 1:
			levels[s] = doctree.H2
		default:
			levels[s] = doctree.H3
		}
	}
	return levels
}

// OverrideLevel applies content patterns that outrank font size.
func OverrideLevel(c Candidate, level doctree.Level) doctree.Level {
	text := strings.TrimSpace(c.Text)
	switch {
	case topNumberedRe.MatchString(text):
		return doctree.H1
	case subNumberedRe.MatchString(text):
		return doctree.H2
	case c.Signals.Has(SignalKnownSection):
		return doctree.H1
	}
	return level
}

// Build turns candidates into ordered outline entries, sorted by page then
// by descending font size. Each text carries one trailing space.
func Build(cands []Candidate) []doctree.HeadingEntry {
	levels := SizeLevels(cands)

	ordered := make([]Candidate, len(cands))
	copy(ordered, cands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Page != ordered[j].Page {
			return ordered[i].Page < ordered[j].Page
		}
		return ordered[i].FontSize > ordered[j].FontSize
	})

	entries := make([]doctree.HeadingEntry, 0, len(ordered))
	for _, c := range ordered {
		level, ok := levels[c.FontSize]
		if !ok {
			level = doctree.H3
		}
		level = OverrideLevel(c, level)
		if !level.Valid() {
			continue
		}
		entries = append(entries, doctree.HeadingEntry{
			Level:      level,
			Text:       strings.TrimSpace(c.Text) + " ",
			Page:       c.Page,
			SourcePage: c.SourcePage,
		})
	}
	return entries
}
