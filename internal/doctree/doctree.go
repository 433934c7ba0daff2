package doctree

// BBox is an axis-aligned rectangle in PDF user-space points.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// CenterX returns the horizontal midpoint of the box.
func (b BBox) CenterX() float64 { return (b.X0 + b.X1) / 2 }

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b.X1 - b.X0 }

// TextSpan is a run of text sharing one font style.
type TextSpan struct {
	Page       int     // 1-based
	Text       string
	FontSize   float64
	FontFamily string
	Bold       bool
	BBox       BBox
}

// Line is a single visual line of spans, left to right.
type Line struct {
	Spans []TextSpan
}

// Text joins the line's spans.
func (l Line) Text() string {
	var n int
	for _, s := range l.Spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range l.Spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// BBox is the union of the line's span boxes.
func (l Line) BBox() BBox {
	if len(l.Spans) == 0 {
		return BBox{}
	}
	b := l.Spans[0].BBox
	for _, s := range l.Spans[1:] {
		b.X0 = min(b.X0, s.BBox.X0)
		b.Y0 = min(b.Y0, s.BBox.Y0)
		b.X1 = max(b.X1, s.BBox.X1)
		b.Y1 = max(b.Y1, s.BBox.Y1)
	}
	return b
}

// Block is a group of vertically adjacent lines (a paragraph or a heading).
type Block struct {
	Lines []Line
}

// Page holds the layout and plain text of one page.
type Page struct {
	Number int     // 1-based
	X0     float64 // left edge of the MediaBox
	Width  float64
	Blocks []Block
	Text   string // plain text, lines separated by '\n'
}

// Spans returns every span on the page in reading order.
func (p *Page) Spans() []TextSpan {
	var out []TextSpan
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			out = append(out, l.Spans...)
		}
	}
	return out
}

// Document is a parsed source document.
type Document struct {
	Name          string // file name, used as the document id
	MetadataTitle string // embedded metadata title, may be empty
	Pages         []Page
}

// PageText returns the plain text of a 1-based page, or "".
func (d *Document) PageText(n int) string {
	if n < 1 || n > len(d.Pages) {
		return ""
	}
	return d.Pages[n-1].Text
}

// Level is an outline heading level.
type Level string

const (
	H1 Level = "H1"
	H2 Level = "H2"
	H3 Level = "H3"
)

// Valid reports whether l is one of H1, H2, H3.
func (l Level) Valid() bool {
	return l == H1 || l == H2 || l == H3
}

// HeadingEntry is one outline line. Page is the reported page number after
// cover-page correction; SourcePage is the physical page the heading was
// found on and is what content lookups use.
type HeadingEntry struct {
	Level      Level  `json:"level"`
	Text       string `json:"text"`
	Page       int    `json:"page"`
	SourcePage int    `json:"-"`
}

// Outline is the resolved title plus ordered headings of a document.
type Outline struct {
	Title   string         `json:"title"`
	Entries []HeadingEntry `json:"outline"`
}

// Chunk is the content slice belonging to one outline heading.
type Chunk struct {
	DocumentID   string  `json:"document"`
	SectionTitle string  `json:"section_title"`
	PageNumber   int     `json:"page_number"`
	Content      string  `json:"content"`
	QualityScore float64 `json:"quality_score"`
}

// RankedChunk is a chunk annotated with its relevance score.
type RankedChunk struct {
	Chunk
	Score float64 `json:"score"`
}
