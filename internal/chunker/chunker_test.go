package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/docintel/internal/doctree"
)

func docWithPages(texts ...string) *doctree.Document {
	doc := &doctree.Document{Name: "guide.pdf"}
	for i, t := range texts {
		doc.Pages = append(doc.Pages, doctree.Page{Number: i + 1, Text: t})
	}
	return doc
}

func entry(text string, page int) doctree.HeadingEntry {
	return doctree.HeadingEntry{Level: doctree.H1, Text: text + " ", Page: page, SourcePage: page}
}

func TestChunkOutline_StopsAtNextEntry(t *testing.T) {
	doc := docWithPages(strings.Join([]string{
		"Coastal Towns",
		"Nice has a long pebble beach and a busy promenade.",
		"Antibes keeps its old walls and a Picasso museum.",
		"Local Markets",
		"Most markets open every morning except Monday.",
	}, "\n"))
	out := doctree.Outline{Entries: []doctree.HeadingEntry{
		entry("Coastal Towns", 1),
		entry("Local Markets", 1),
	}}

	chunks := ChunkOutline(doc, out, DefaultConfig())
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	want := "Nice has a long pebble beach and a busy promenade. Antibes keeps its old walls and a Picasso museum."
	if chunks[0].Content != want {
		t.Errorf("chunk 0: expected %q, got %q", want, chunks[0].Content)
	}
	if chunks[0].SectionTitle != "Coastal Towns" {
		t.Errorf("expected trimmed section title, got %q", chunks[0].SectionTitle)
	}
	if chunks[0].DocumentID != "guide.pdf" || chunks[0].PageNumber != 1 {
		t.Errorf("unexpected chunk identity %+v", chunks[0])
	}
	if chunks[1].Content != "Most markets open every morning except Monday." {
		t.Errorf("chunk 1: got %q", chunks[1].Content)
	}
}

func TestChunkOutline_StopsAtHeadingLikeLine(t *testing.T) {
	doc := docWithPages(strings.Join([]string{
		"Overview",
		"The region is best visited in late spring.",
		"GETTING AROUND",
		"Trains run along the coast.",
	}, "\n"))
	out := doctree.Outline{Entries: []doctree.HeadingEntry{entry("Overview", 1)}}

	chunks := ChunkOutline(doc, out, DefaultConfig())
	if chunks[0].Content != "The region is best visited in late spring." {
		t.Errorf("expected content to stop at heading-like line, got %q", chunks[0].Content)
	}
}

func TestChunkOutline_LengthCap(t *testing.T) {
	line := strings.Repeat("a", 49) + "."
	var lines []string
	lines = append(lines, "Details")
	for i := 0; i < 10; i++ {
		lines = append(lines, line+" plus several more words.")
	}
	doc := docWithPages(strings.Join(lines, "\n"))
	out := doctree.Outline{Entries: []doctree.HeadingEntry{entry("Details", 1)}}

	cfg := DefaultConfig()
	cfg.MaxContentChars = 100
	chunks := ChunkOutline(doc, out, cfg)

	if got := strings.Count(chunks[0].Content, line); got != 2 {
		t.Errorf("expected 2 lines before the cap, got %d in %q", got, chunks[0].Content)
	}
}

func TestChunkOutline_Fallbacks(t *testing.T) {
	doc := docWithPages("alpha line one is here.\nbeta line two is here.\ngamma line three is here.", "")
	out := doctree.Outline{Entries: []doctree.HeadingEntry{
		entry("Missing Heading", 1),
		entry("Empty Page", 2),
	}}

	cfg := DefaultConfig()
	cfg.FallbackLines = 2
	chunks := ChunkOutline(doc, out, cfg)

	if chunks[0].Content != "alpha line one is here. beta line two is here." {
		t.Errorf("expected first page lines, got %q", chunks[0].Content)
	}
	if chunks[1].Content != "Content for Empty Page" {
		t.Errorf("expected placeholder, got %q", chunks[1].Content)
	}
	if chunks[1].QualityScore != 0 {
		t.Errorf("expected zero quality for placeholder, got %v", chunks[1].QualityScore)
	}
}

func TestChunkOutline_UsesSourcePage(t *testing.T) {
	doc := docWithPages("Cover", "Findings\nSales rose in every region last year.")
	e := doctree.HeadingEntry{Level: doctree.H1, Text: "Findings ", Page: 1, SourcePage: 2}

	chunks := ChunkOutline(doc, doctree.Outline{Entries: []doctree.HeadingEntry{e}}, DefaultConfig())
	if chunks[0].PageNumber != 1 {
		t.Errorf("expected reported page 1, got %d", chunks[0].PageNumber)
	}
	if chunks[0].Content != "Sales rose in every region last year." {
		t.Errorf("expected content from source page, got %q", chunks[0].Content)
	}
}

func TestChunkOutline_OneChunkPerEntry(t *testing.T) {
	doc := docWithPages("Intro\nSome text.", "Body\nMore text.", "Tail\nEnd text.")
	var entries []doctree.HeadingEntry
	for i, title := range []string{"Intro", "Body", "Tail", "Ghost"} {
		entries = append(entries, entry(title, min(i+1, 3)))
	}

	chunks := ChunkOutline(doc, doctree.Outline{Entries: entries}, DefaultConfig())
	if len(chunks) != len(entries) {
		t.Fatalf("expected %d chunks, got %d", len(entries), len(chunks))
	}
	for i, c := range chunks {
		if c.Content == "" {
			t.Errorf("chunk %d: empty content", i)
		}
		if c.QualityScore < 0 || c.QualityScore > 1 {
			t.Errorf("chunk %d: quality %v out of range", i, c.QualityScore)
		}
	}
}

func TestChunkOutline_EmptyOutline(t *testing.T) {
	chunks := ChunkOutline(docWithPages("text"), doctree.Outline{}, Config{})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestIsHeadingLike(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"GETTING AROUND", true},
		{"2. Results", true},
		{"IV. Discussion", true},
		{"Chapter 3", true},
		{"Section 12 Fees", true},
		{"Packing Tips", true},
		{"Trains run along the coast.", false},
		{"and then the road turns north toward the hills", false},
		{"Done.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHeadingLike(tt.line); got != tt.want {
			t.Errorf("IsHeadingLike(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestQualityScore(t *testing.T) {
	plain := QualityScore("Hotels", "Rooms.")
	rich := QualityScore("Hotels", strings.Repeat("This guide gives a step by step example of booking hotels. ", 10))
	if rich <= plain {
		t.Errorf("expected richer content to score higher: %v <= %v", rich, plain)
	}
	if rich > 1 || plain < 0 {
		t.Errorf("scores out of range: %v, %v", plain, rich)
	}
}

func TestFilter(t *testing.T) {
	chunks := []doctree.Chunk{{QualityScore: 0.2}, {QualityScore: 0.6}}
	if got := Filter(chunks, Config{}); len(got) != 2 {
		t.Errorf("expected no filtering with zero floor, got %d", len(got))
	}
	if got := Filter(chunks, Config{MinQuality: 0.5}); len(got) != 1 || got[0].QualityScore != 0.6 {
		t.Errorf("expected one chunk above floor, got %+v", got)
	}
}

func TestRefine(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"fits", "Short text.", 100, "Short text."},
		{"collapses whitespace", "a  b\n c", 100, "a b c"},
		{"sentence boundary", "One two. Three four. Five six.", 20, "One two. Three four."},
		{"word boundary", "alpha beta gamma delta", 12, "alpha beta"},
		{"hard cut", "abcdefghij", 4, "abcd"},
	}
	for _, tt := range tests {
		got := Refine(tt.text, tt.limit)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
		if utf8.RuneCountInString(got) > tt.limit {
			t.Errorf("%s: %d chars exceeds limit %d", tt.name, utf8.RuneCountInString(got), tt.limit)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third?")
	want := []string{"First one.", "Second one!", "Third?"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"word", 1},
		{"three small words", 3},
		{strings.Repeat("w ", 100), 133},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
