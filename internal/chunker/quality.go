package chunker

import "strings"

// Indicators are words that mark practical, instructional content.
var Indicators = []string{
	"procedure", "step", "instruction", "guide", "tutorial",
	"example", "note", "tip", "warning", "important",
}

// QualityScore rates a chunk in [0,1] from its length, the instructional
// indicators it contains, and how much of the title reappears in the body.
func QualityScore(title, content string) float64 {
	var score float64

	switch tokens := EstimateTokens(content); {
	case tokens < 10:
		score += 0.1
	case tokens < 40:
		score += 0.3
	case tokens < 100:
		score += 0.4
	default:
		score += 0.5
	}

	lower := strings.ToLower(content)
	hits := 0
	for _, ind := range Indicators {
		if strings.Contains(lower, ind) {
			hits++
		}
	}
	score += min(0.3, 0.1*float64(hits))

	var titleWords, shared int
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,:;!?()[]\"'")
		if len(w) <= 2 {
			continue
		}
		titleWords++
		if strings.Contains(lower, w) {
			shared++
		}
	}
	if titleWords > 0 {
		score += 0.2 * float64(shared) / float64(titleWords)
	}

	return min(score, 1)
}
