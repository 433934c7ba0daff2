package outline

import (
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// textLine describes one line of a test page.
type textLine struct {
	text   string
	size   float64
	family string
	x0     float64
}

func body(text string) textLine { return textLine{text: text, size: 10, family: "Times-Roman", x0: 72} }

func heading(text string, size float64) textLine {
	return textLine{text: text, size: size, family: "Times-Roman", x0: 72}
}

func (l textLine) toLine(page int, y float64) doctree.Line {
	w := float64(len(l.text)) * l.size * 0.5
	return doctree.Line{Spans: []doctree.TextSpan{{
		Page:       page,
		Text:       l.text,
		FontSize:   l.size,
		FontFamily: l.family,
		Bold:       strings.Contains(strings.ToLower(l.family), "bold"),
		BBox:       doctree.BBox{X0: l.x0, Y0: y, X1: l.x0 + w, Y1: y + l.size},
	}}}
}

// testPage builds a page where each inner slice is one block.
func testPage(num int, blocks ...[]textLine) doctree.Page {
	p := doctree.Page{Number: num, Width: 612}
	y := 720.0
	var text []string
	for _, b := range blocks {
		var blk doctree.Block
		for _, l := range b {
			blk.Lines = append(blk.Lines, l.toLine(num, y))
			text = append(text, l.text)
			y -= 14
		}
		p.Blocks = append(p.Blocks, blk)
	}
	p.Text = strings.Join(text, "\n")
	return p
}

func block(lines ...textLine) []textLine { return lines }

// paragraph is a multi-line body block long enough to set the body style.
func paragraph() []textLine {
	return block(
		body("Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do"),
		body("eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut"),
		body("enim ad minim veniam, quis nostrud exercitation ullamco laboris."),
	)
}
