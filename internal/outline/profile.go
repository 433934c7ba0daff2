package outline

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
)

// FontProfile describes the body text style of a document.
type FontProfile struct {
	BodySize   float64
	BodyFamily string
	Chars      int // characters carried by the body style
}

// Empty reports whether the document had no text spans at all.
func (p FontProfile) Empty() bool { return p.Chars == 0 }

type styleKey struct {
	size   float64
	family string
}

// Profile finds the (size, family) pair carrying the most characters.
// Ties go to the style seen first.
func Profile(doc *doctree.Document) FontProfile {
	counts := make(map[styleKey]int)
	var order []styleKey
	for i := range doc.Pages {
		for _, sp := range doc.Pages[i].Spans() {
			n := utf8.RuneCountInString(strings.TrimSpace(sp.Text))
			if n == 0 {
				continue
			}
			k := styleKey{size: roundSize(sp.FontSize), family: sp.FontFamily}
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k] += n
		}
	}

	var best FontProfile
	for _, k := range order {
		if counts[k] > best.Chars {
			best = FontProfile{BodySize: k.size, BodyFamily: k.family, Chars: counts[k]}
		}
	}
	return best
}

// roundSize drops sub-hundredth noise so equal sizes compare equal.
func roundSize(s float64) float64 {
	return math.Round(s*100) / 100
}
