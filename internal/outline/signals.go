package outline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Signal is one structural hint that a line may be a heading.
type Signal uint8

const (
	SignalLarger Signal = iota
	SignalBold
	SignalShort
	SignalNotSentence
	SignalNotDate
	SignalNumbered
	SignalAllCaps
	SignalCentered
	SignalKnownSection
	numSignals
)

var signalNames = [numSignals]string{
	SignalLarger:       "larger",
	SignalBold:         "bold",
	SignalShort:        "short",
	SignalNotSentence:  "notSentence",
	SignalNotDate:      "notDate",
	SignalNumbered:     "numbered",
	SignalAllCaps:      "allCaps",
	SignalCentered:     "centered",
	SignalKnownSection: "knownSection",
}

func (s Signal) String() string {
	if s < numSignals {
		return signalNames[s]
	}
	return "unknown"
}

// SignalSet is a bitset of signals.
type SignalSet uint16

// Has reports whether sig is in the set.
func (s SignalSet) Has(sig Signal) bool { return s&(1<<sig) != 0 }

// With returns the set with sig added.
func (s SignalSet) With(sig Signal) SignalSet { return s | 1<<sig }

// Signals lists the members in declaration order.
func (s SignalSet) Signals() []Signal {
	var out []Signal
	for sig := Signal(0); sig < numSignals; sig++ {
		if s.Has(sig) {
			out = append(out, sig)
		}
	}
	return out
}

func setOf(sigs ...Signal) SignalSet {
	var s SignalSet
	for _, sig := range sigs {
		s = s.With(sig)
	}
	return s
}

var (
	// strongSignals: at least one must fire.
	strongSignals = setOf(SignalLarger, SignalBold, SignalNumbered, SignalAllCaps, SignalCentered, SignalKnownSection)
	// requiredSignals: all must fire.
	requiredSignals = setOf(SignalShort, SignalNotSentence, SignalNotDate)
)

// Accepts applies the heading acceptance rule to a signal set.
func Accepts(s SignalSet) bool {
	return s&strongSignals != 0 && s&requiredSignals == requiredSignals
}

var (
	dateRe     = regexp.MustCompile(`^\w+\s\d{1,2},\s\d{4}`)
	numberedRe = regexp.MustCompile(`^(\d+\.\d+|\d+\.|[IVXLC]+\.|[A-Z]\.)`)
)

// KnownSections are section names that mark a heading on their own.
var KnownSections = []string{
	"table of contents", "revision history", "acknowledgements",
	"introduction", "overview", "conclusion", "summary",
	"references", "bibliography", "appendix", "glossary",
	"abstract", "preface", "foreword",
}

// IsKnownSection reports whether text contains a known section name.
func IsKnownSection(text string) bool {
	lower := strings.ToLower(text)
	for _, k := range KnownSections {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// IsAllCaps reports whether text has upper-case letters, no lower-case
// letters, and more than three characters.
func IsAllCaps(text string) bool {
	if utf8.RuneCountInString(text) <= 3 {
		return false
	}
	hasUpper := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

// lineFacts is what the signal functions look at.
type lineFacts struct {
	text      string
	size      float64
	bold      bool
	bbox      doctree.BBox
	pageX0    float64
	pageWidth float64
}

type signalFunc func(l lineFacts, body FontProfile, cfg Config) bool

var signalFuncs = [numSignals]signalFunc{
	SignalLarger: func(l lineFacts, body FontProfile, cfg Config) bool {
		return l.size > body.BodySize+cfg.SizeMargin
	},
	SignalBold: func(l lineFacts, _ FontProfile, _ Config) bool {
		return l.bold
	},
	SignalShort: func(l lineFacts, _ FontProfile, cfg Config) bool {
		return len(strings.Fields(l.text)) < cfg.MaxHeadingWords
	},
	SignalNotSentence: func(l lineFacts, _ FontProfile, _ Config) bool {
		return !strings.HasSuffix(l.text, ".")
	},
	SignalNotDate: func(l lineFacts, _ FontProfile, _ Config) bool {
		return !dateRe.MatchString(l.text)
	},
	SignalNumbered: func(l lineFacts, _ FontProfile, _ Config) bool {
		return numberedRe.MatchString(l.text)
	},
	SignalAllCaps: func(l lineFacts, _ FontProfile, _ Config) bool {
		return IsAllCaps(l.text)
	},
	SignalCentered: func(l lineFacts, _ FontProfile, cfg Config) bool {
		if l.pageWidth <= 0 {
			return false
		}
		diff := l.bbox.CenterX() - (l.pageX0 + l.pageWidth/2)
		if diff < 0 {
			diff = -diff
		}
		return diff < l.pageWidth*cfg.CenterToleranceRatio
	},
	SignalKnownSection: func(l lineFacts, _ FontProfile, _ Config) bool {
		return IsKnownSection(l.text)
	},
}

func computeSignals(l lineFacts, body FontProfile, cfg Config) SignalSet {
	var s SignalSet
	for sig, fn := range signalFuncs {
		if fn(l, body, cfg) {
			s = s.With(Signal(sig))
		}
	}
	return s
}
