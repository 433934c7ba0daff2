package parser

import (
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// Structured formats carry explicit heading levels but no font metrics.
// They are rendered onto a synthetic page with fixed sizes so the outline
// pipeline treats them exactly like PDFs.
const (
	synthBodySize   = 11.0
	synthMargin     = 72.0
	synthCharWidth  = 2.5
	synthWrapChars  = 90
	synthFamily     = "Synthetic"
	synthBoldFamily = "Synthetic-Bold"
)

var synthHeadingSizes = map[int]float64{1: 24, 2: 18, 3: 14}

type synthPage struct {
	page  doctree.Page
	lines []string
	y     float64
}

func newSynthPage() *synthPage {
	return &synthPage{
		page: doctree.Page{Number: 1, Width: defaultPageWidth},
		y:    792 - synthMargin,
	}
}

func (s *synthPage) span(text string, size float64, bold bool) doctree.TextSpan {
	family := synthFamily
	if bold {
		family = synthBoldFamily
	}
	sp := doctree.TextSpan{
		Page:       1,
		Text:       text,
		FontSize:   size,
		FontFamily: family,
		Bold:       bold,
		BBox: doctree.BBox{
			X0: synthMargin,
			Y0: s.y,
			X1: synthMargin + float64(len(text))*synthCharWidth*size/synthBodySize,
			Y1: s.y + size,
		},
	}
	s.y -= size * 2
	return sp
}

// heading adds a one-line heading block. Levels deeper than 3 share H3's size.
func (s *synthPage) heading(level int, text string) {
	text = normalizeText(strings.TrimSpace(text))
	if text == "" {
		return
	}
	size, ok := synthHeadingSizes[level]
	if !ok {
		size = synthHeadingSizes[3]
	}
	sp := s.span(text, size, true)
	s.page.Blocks = append(s.page.Blocks, doctree.Block{Lines: []doctree.Line{{Spans: []doctree.TextSpan{sp}}}})
	s.lines = append(s.lines, text)
}

// paragraph adds a body block wrapped at a fixed width.
func (s *synthPage) paragraph(text string) {
	text = normalizeText(strings.Join(strings.Fields(text), " "))
	if text == "" {
		return
	}
	var block doctree.Block
	for _, ln := range wrapWords(text, synthWrapChars) {
		sp := s.span(ln, synthBodySize, false)
		block.Lines = append(block.Lines, doctree.Line{Spans: []doctree.TextSpan{sp}})
		s.lines = append(s.lines, ln)
	}
	s.page.Blocks = append(s.page.Blocks, block)
}

func (s *synthPage) document(name, title string) *doctree.Document {
	s.page.Text = strings.Join(s.lines, "\n")
	doc := &doctree.Document{Name: name, MetadataTitle: strings.TrimSpace(title)}
	if len(s.page.Blocks) > 0 {
		doc.Pages = []doctree.Page{s.page}
	}
	return doc
}

func wrapWords(text string, width int) []string {
	words := strings.Fields(text)
	var out []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
