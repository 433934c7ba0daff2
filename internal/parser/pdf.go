package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// US Letter.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// pageBox is the horizontal origin and size of a page's MediaBox.
type pageBox struct {
	x0, width, height float64
}

var defaultPageBox = pageBox{width: defaultPageWidth, height: defaultPageHeight}

// PDFParser handles PDF files.
type PDFParser struct {
	Layout LayoutConfig
}

func (p *PDFParser) Parse(r io.Reader, filename string) (doc *doctree.Document, err error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docintel-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	// The library panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, filename, rec)
		}
	}()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, filename, err)
	}
	defer f.Close()

	doc = &doctree.Document{
		Name:          filename,
		MetadataTitle: metadataTitle(reader),
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		doc.Pages = append(doc.Pages, p.extractPage(reader.Page(i), i))
	}
	return doc, nil
}

// extractPage builds the layout for one page. A page whose content stream
// cannot be decoded yields an empty page so numbering stays aligned.
func (p *PDFParser) extractPage(page pdflib.Page, num int) (out doctree.Page) {
	out = doctree.Page{Number: num, Width: defaultPageWidth}
	if page.V.IsNull() {
		return out
	}
	box := mediaBox(page.V)
	defer func() {
		if rec := recover(); rec != nil {
			out = doctree.Page{Number: num, X0: box.x0, Width: box.width}
		}
	}()

	content := page.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{font: t.Font, size: t.FontSize, x: t.X, y: t.Y, w: t.W, s: t.S})
	}
	out = assemblePage(num, box, glyphs, p.Layout)

	if out.Text == "" {
		// Some producers only decode through the font-aware plain text path.
		if text, err := page.GetPlainText(nil); err == nil {
			out.Text = strings.TrimSpace(normalizeText(text))
		}
	}
	return out
}

// mediaBox reads the (possibly inherited) MediaBox.
func mediaBox(v pdflib.Value) pageBox {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		box := node.Key("MediaBox")
		if box.Len() != 4 {
			continue
		}
		x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
		x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
		if x1 > x0 && y1 > y0 {
			return pageBox{x0: x0, width: x1 - x0, height: y1 - y0}
		}
	}
	return defaultPageBox
}

// metadataTitle returns the Info dictionary title, or "".
func metadataTitle(r *pdflib.Reader) string {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(normalizeText(info.Key("Title").Text()))
}
