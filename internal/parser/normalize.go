package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText folds compatibility characters (ligatures, no-break and
// narrow spaces, full-width forms) so that heading matching and token
// counting see plain text.
func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	if strings.ContainsRune(s, '\u00ad') {
		s = strings.ReplaceAll(s, "\u00ad", "")
	}
	return s
}

// fontFamily strips the "ABCDEF+" subset tag embedded fonts carry.
func fontFamily(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[i+1:]
	}
	return name
}

var boldMarkers = []string{"bold", "black", "heavy", "semibold", "demi"}

// isBoldFont reports whether a font name carries a weight marker.
func isBoldFont(name string) bool {
	lower := strings.ToLower(name)
	for _, m := range boldMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
