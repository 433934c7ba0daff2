package parser

import (
	"math"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/text"
)

// LayoutConfig controls how positioned glyphs are assembled into lines and blocks.
type LayoutConfig struct {
	LineTolerance  float64 // Baseline difference, as a fraction of glyph height, for glyphs on one line.
	BlockGapRatio  float64 // Whitespace between lines, as a multiple of line height, that starts a new block.
	WordSpaceRatio float64 // Horizontal gap, as a multiple of font size, that implies a space.
}

// DefaultLayoutConfig returns sensible defaults.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		LineTolerance:  0.5,
		BlockGapRatio:  1.5,
		WordSpaceRatio: 0.3,
	}
}

func (c LayoutConfig) withDefaults() LayoutConfig {
	d := DefaultLayoutConfig()
	if c.LineTolerance <= 0 {
		c.LineTolerance = d.LineTolerance
	}
	if c.BlockGapRatio <= 0 {
		c.BlockGapRatio = d.BlockGapRatio
	}
	if c.WordSpaceRatio <= 0 {
		c.WordSpaceRatio = d.WordSpaceRatio
	}
	return c
}

// blockDetector wraps tabula's detector. Size minimums are dropped so
// one-glyph headings such as "A." survive.
func (c LayoutConfig) blockDetector() *layout.BlockDetector {
	bc := layout.DefaultBlockConfig()
	bc.LineHeightTolerance = c.LineTolerance
	bc.VerticalGapThreshold = c.BlockGapRatio
	bc.MinBlockWidth = 0
	bc.MinBlockHeight = 0
	return layout.NewBlockDetectorWithConfig(bc)
}

// glyph is one positioned text element as drawn by the content stream.
// Y grows upward (PDF user space).
type glyph struct {
	font string
	size float64
	x, y float64
	w    float64
	s    string
}

func (g glyph) fragment() text.TextFragment {
	return text.TextFragment{
		Text:     g.s,
		X:        g.x,
		Y:        g.y,
		Width:    g.w,
		Height:   g.size,
		FontName: g.font,
		FontSize: g.size,
	}
}

// assemblePage lets tabula group glyphs into lines and blocks, then splits
// blocks wherever the dominant style changes between lines so a heading
// sitting tight above its body stays a block of its own.
func assemblePage(num int, box pageBox, glyphs []glyph, cfg LayoutConfig) doctree.Page {
	cfg = cfg.withDefaults()
	page := doctree.Page{Number: num, X0: box.x0, Width: box.width}

	frags := make([]text.TextFragment, 0, len(glyphs))
	for _, g := range glyphs {
		if g.s == "" || g.s == "\n" || g.s == "\r" {
			continue
		}
		frags = append(frags, g.fragment())
	}
	if len(frags) == 0 {
		return page
	}

	detected := cfg.blockDetector().Detect(frags, box.width, box.height)

	var textLines []string
	for _, tb := range detected.Blocks {
		var cur doctree.Block
		var prevSize float64
		var prevBold bool
		for _, frs := range tb.Lines {
			line := buildLine(num, frs, cfg)
			lt := strings.TrimSpace(line.Text())
			if lt == "" {
				continue
			}
			size, bold := dominantStyle(line)
			if len(cur.Lines) > 0 && (math.Abs(prevSize-size) > 0.5 || prevBold != bold) {
				page.Blocks = append(page.Blocks, cur)
				cur = doctree.Block{}
			}
			cur.Lines = append(cur.Lines, line)
			prevSize, prevBold = size, bold
			textLines = append(textLines, lt)
		}
		if len(cur.Lines) > 0 {
			page.Blocks = append(page.Blocks, cur)
		}
	}
	page.Text = strings.Join(textLines, "\n")
	return page
}

// buildLine merges x-sorted fragments into spans of uniform font and size.
func buildLine(page int, frags []text.TextFragment, cfg LayoutConfig) doctree.Line {
	var line doctree.Line
	var cur *doctree.TextSpan
	var sb strings.Builder
	var lastEnd float64

	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = normalizeText(sb.String())
		line.Spans = append(line.Spans, *cur)
		cur = nil
		sb.Reset()
	}

	for _, f := range frags {
		gap := f.X - lastEnd
		needSpace := cur != nil && gap > cfg.WordSpaceRatio*f.FontSize && !strings.HasPrefix(f.Text, " ")
		family := fontFamily(f.FontName)
		if cur == nil || cur.FontFamily != family || math.Abs(cur.FontSize-f.FontSize) > 0.01 {
			trailing := cur != nil && !strings.HasSuffix(sb.String(), " ")
			flush()
			cur = &doctree.TextSpan{
				Page:       page,
				FontSize:   f.FontSize,
				FontFamily: family,
				Bold:       isBoldFont(family),
				BBox:       doctree.BBox{X0: f.X, Y0: f.Y, X1: f.X + f.Width, Y1: f.Y + f.Height},
			}
			if needSpace && trailing {
				sb.WriteByte(' ')
			}
		} else if needSpace && !strings.HasSuffix(sb.String(), " ") {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Text)
		cur.BBox.X1 = math.Max(cur.BBox.X1, f.X+f.Width)
		lastEnd = f.X + f.Width
	}
	flush()
	return line
}

// dominantStyle returns the size and weight covering the most characters.
func dominantStyle(l doctree.Line) (float64, bool) {
	var best doctree.TextSpan
	bestN := -1
	for _, s := range l.Spans {
		n := len(strings.TrimSpace(s.Text))
		if n > bestN {
			best, bestN = s, n
		}
	}
	return best.FontSize, best.Bold
}
