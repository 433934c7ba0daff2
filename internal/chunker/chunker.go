package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Config controls section chunking.
type Config struct {
	MaxContentChars  int     // Stop collecting once content exceeds this many characters.
	FallbackLines    int     // Page lines used when nothing follows the heading.
	MinQuality       float64 // Chunks scoring below this are dropped by Filter.
	RefinedTextChars int     // Upper bound for Refine.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxContentChars:  800,
		FallbackLines:    10,
		MinQuality:       0,
		RefinedTextChars: 1000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = d.MaxContentChars
	}
	if c.FallbackLines <= 0 {
		c.FallbackLines = d.FallbackLines
	}
	if c.RefinedTextChars <= 0 {
		c.RefinedTextChars = d.RefinedTextChars
	}
	return c
}

var boundaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][A-Z\s]+$`),
	regexp.MustCompile(`^\d+\.\s+[A-Z]`),
	regexp.MustCompile(`^[IVX]+\.\s+[A-Z]`),
	regexp.MustCompile(`^[A-Z]\.[A-Z\s]+$`),
	regexp.MustCompile(`^Chapter\s+\d+`),
	regexp.MustCompile(`^Section\s+\d+`),
}

// ChunkOutline produces exactly one chunk per outline entry, in outline
// order. Content is taken from the lines after the heading on the page it
// was found on.
func ChunkOutline(doc *doctree.Document, outline doctree.Outline, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()
	chunks := make([]doctree.Chunk, 0, len(outline.Entries))

	for i, entry := range outline.Entries {
		src := entry.SourcePage
		if src == 0 {
			src = entry.Page
		}
		title := strings.TrimSpace(entry.Text)

		var next string
		if i+1 < len(outline.Entries) {
			n := outline.Entries[i+1]
			if n.SourcePage == entry.SourcePage {
				next = strings.TrimSpace(n.Text)
			}
		}

		pageText := doc.PageText(src)
		content := sectionContent(pageText, title, next, cfg)
		placeholder := content == ""
		if placeholder {
			content = "Content for " + title
		}

		c := doctree.Chunk{
			DocumentID:   doc.Name,
			SectionTitle: title,
			PageNumber:   entry.Page,
			Content:      content,
		}
		if !placeholder {
			c.QualityScore = QualityScore(title, content)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// sectionContent collects the lines following title, stopping at the next
// heading or once the length cap is passed. It falls back to the top of
// the page when nothing follows the heading.
func sectionContent(pageText, title, next string, cfg Config) string {
	lines := nonEmptyLines(pageText)
	lowerTitle := strings.ToLower(title)
	lowerNext := strings.ToLower(next)

	var collected []string
	total := 0
	found := false
	for _, line := range lines {
		lower := strings.ToLower(line)
		if !found {
			if lowerTitle != "" && strings.Contains(lower, lowerTitle) {
				found = true
			}
			continue
		}
		if lowerNext != "" && strings.Contains(lower, lowerNext) {
			break
		}
		if IsHeadingLike(line) {
			break
		}
		collected = append(collected, line)
		total += utf8.RuneCountInString(line) + 1
		if total > cfg.MaxContentChars {
			break
		}
	}

	if len(collected) == 0 {
		collected = lines[:min(len(lines), cfg.FallbackLines)]
	}
	return strings.TrimSpace(strings.Join(collected, " "))
}

// IsHeadingLike reports whether a plain-text line looks like the start of
// another section.
func IsHeadingLike(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for _, re := range boundaryPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	words := len(strings.Fields(line))
	if words <= 8 && strings.ToUpper(line) == line && strings.ToLower(line) != line {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	return words <= 4 && !strings.ContainsRune(".,;:!?", last)
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Filter drops chunks scoring below cfg.MinQuality.
func Filter(chunks []doctree.Chunk, cfg Config) []doctree.Chunk {
	if cfg.MinQuality <= 0 {
		return chunks
	}
	out := chunks[:0:0]
	for _, c := range chunks {
		if c.QualityScore >= cfg.MinQuality {
			out = append(out, c)
		}
	}
	return out
}

// Refine trims text to at most limit characters, cutting at a sentence
// boundary when one fits and at a word boundary otherwise.
func Refine(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	var b strings.Builder
	n := 0
	for _, sent := range splitSentences(text) {
		sl := utf8.RuneCountInString(sent)
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n+sep+sl > limit {
			break
		}
		if sep == 1 {
			b.WriteByte(' ')
		}
		b.WriteString(sent)
		n += sep + sl
	}
	if n > 0 {
		return b.String()
	}

	// The first sentence alone is too long.
	b.Reset()
	n = 0
	for _, w := range strings.Fields(text) {
		wl := utf8.RuneCountInString(w)
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n+sep+wl > limit {
			break
		}
		if sep == 1 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		n += sep + wl
	}
	if n > 0 {
		return b.String()
	}
	return string([]rune(text)[:limit])
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}
