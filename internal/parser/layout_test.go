package parser

import (
	"strings"
	"testing"
)

var letter = pageBox{width: 612, height: 792}

// glyphs lays out s one rune per glyph starting at x on baseline y.
func glyphs(s, font string, size, x, y float64) []glyph {
	w := size * 0.5
	var out []glyph
	for _, r := range s {
		out = append(out, glyph{font: font, size: size, x: x, y: y, w: w, s: string(r)})
		x += w
	}
	return out
}

func TestAssemblePage_LinesAndBlocks(t *testing.T) {
	var gs []glyph
	gs = append(gs, glyphs("Overview", "ABCDEF+Helvetica-Bold", 16, 72, 700)...)
	gs = append(gs, glyphs("First body line", "Helvetica", 10, 72, 660)...)
	gs = append(gs, glyphs("second body line", "Helvetica", 10, 72, 648)...)

	page := assemblePage(1, letter, gs, LayoutConfig{})
	if len(page.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(page.Blocks))
	}

	head := page.Blocks[0]
	if len(head.Lines) != 1 {
		t.Fatalf("expected 1 heading line, got %d", len(head.Lines))
	}
	sp := head.Lines[0].Spans[0]
	if sp.Text != "Overview" {
		t.Errorf("expected %q, got %q", "Overview", sp.Text)
	}
	if sp.FontFamily != "Helvetica-Bold" {
		t.Errorf("expected subset prefix stripped, got %q", sp.FontFamily)
	}
	if !sp.Bold {
		t.Errorf("expected bold span")
	}
	if len(page.Blocks[1].Lines) != 2 {
		t.Errorf("expected 2 body lines, got %d", len(page.Blocks[1].Lines))
	}

	want := "Overview\nFirst body line\nsecond body line"
	if page.Text != want {
		t.Errorf("expected text %q, got %q", want, page.Text)
	}
}

func TestAssemblePage_WordGapInsertsSpace(t *testing.T) {
	var gs []glyph
	gs = append(gs, glyphs("Hello", "Times", 10, 72, 500)...)
	// 5pt gap is above 0.3 × 10pt.
	gs = append(gs, glyphs("world", "Times", 10, 72+25+5, 500)...)

	page := assemblePage(1, letter, gs, LayoutConfig{})
	if page.Text != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", page.Text)
	}
}

func TestAssemblePage_LineTolerance(t *testing.T) {
	var gs []glyph
	gs = append(gs, glyphs("Same", "Times", 10, 72, 500)...)
	gs = append(gs, glyphs("row", "Times", 10, 72+20+5, 501.5)...)

	page := assemblePage(1, letter, gs, LayoutConfig{})
	if strings.Count(page.Text, "\n") != 0 {
		t.Errorf("expected one line, got %q", page.Text)
	}
}

func TestAssemblePage_StyleChangeSplitsBlock(t *testing.T) {
	var gs []glyph
	// Bold heading sits 2pt above the body, inside the block gap.
	gs = append(gs, glyphs("Methods", "Helvetica-Bold", 12, 72, 612)...)
	gs = append(gs, glyphs("We sampled forty sites", "Helvetica", 10, 72, 600)...)

	page := assemblePage(1, letter, gs, LayoutConfig{})
	if len(page.Blocks) != 2 {
		t.Fatalf("expected heading and body in separate blocks, got %d", len(page.Blocks))
	}
	if got := page.Blocks[0].Lines[0].Text(); got != "Methods" {
		t.Errorf("expected heading block %q, got %q", "Methods", got)
	}
}

func TestAssemblePage_KeepsMediaBoxOrigin(t *testing.T) {
	page := assemblePage(2, pageBox{x0: 36, width: 540, height: 720}, glyphs("x", "Times", 10, 300, 400), LayoutConfig{})
	if page.X0 != 36 || page.Width != 540 {
		t.Errorf("expected X0 36 and width 540, got %v and %v", page.X0, page.Width)
	}
	if len(page.Blocks) != 1 {
		t.Errorf("expected single-glyph block to survive, got %d blocks", len(page.Blocks))
	}
}

func TestAssemblePage_Empty(t *testing.T) {
	page := assemblePage(3, letter, []glyph{{s: "\n"}, {s: ""}}, LayoutConfig{})
	if page.Number != 3 || len(page.Blocks) != 0 || page.Text != "" {
		t.Errorf("expected empty page 3, got %+v", page)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"\ufb01nance", "finance"},
		{"co\u00adoperate", "cooperate"},
		{"a\u00a0b", "a b"},
	}
	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsBoldFont(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Arial-BoldMT", true},
		{"Helvetica-Black", true},
		{"OpenSans-SemiBold", true},
		{"Times-Roman", false},
	}
	for _, tt := range tests {
		if got := isBoldFont(tt.name); got != tt.want {
			t.Errorf("isBoldFont(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
