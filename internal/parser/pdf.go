package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pdfoutline/internal/layout"
	"github.com/dgallion1/pdfoutline/internal/tables"
	pdflib "github.com/ledongthuc/pdf"
)

// US Letter, used when a page carries no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// PDFParser turns a PDF into positioned lines using ledongthuc/pdf for glyph
// placement and pdfcpu for document metadata.
type PDFParser struct {
	Assemble layout.AssembleConfig
	Tables   tables.Config
}

func NewPDFParser() *PDFParser {
	return &PDFParser{
		Assemble: layout.DefaultAssembleConfig(),
		Tables:   tables.DefaultConfig(),
	}
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*layout.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf: %s", filename)
	}

	reader, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc := &layout.Document{}
	if meta, err := ReadMetadata(bytes.NewReader(data)); err == nil {
		doc.MetadataTitle = meta.Title
	}
	if doc.MetadataTitle == "" {
		doc.MetadataTitle = trailerTitle(reader)
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		idx := i - 1
		box := mediaBox(page)
		lp := layout.Page{Index: idx, Width: box.Width(), Height: box.Height()}
		if !page.V.IsNull() {
			// Unreadable pages stay in the document with no lines so page
			// numbering is preserved.
			if glyphs, err := pageGlyphs(page, box); err == nil {
				lp.Lines = layout.AssembleLines(glyphs, idx, lp.Width, lp.Height, p.Assemble)
			}
		}
		doc.Pages = append(doc.Pages, lp)
		doc.Tables = append(doc.Tables, tables.Detect(lp, p.Tables)...)
	}

	return doc, nil
}

func openReader(data []byte) (reader *pdflib.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pageGlyphs reads the page content stream. The library panics on malformed
// streams, so the panic is converted into an error.
func pageGlyphs(page pdflib.Page, box layout.BBox) (glyphs []layout.Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read page content: %v", r)
		}
	}()

	content := page.Content()
	glyphs = make([]layout.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, layout.Glyph{
			S:        t.S,
			Font:     t.Font,
			FontSize: t.FontSize,
			X:        t.X - box.X0,
			Y:        t.Y - box.Y0,
			W:        t.W,
		})
	}
	return glyphs, nil
}

// mediaBox resolves the page's MediaBox, following the inherited Parent chain.
// The returned box is in PDF user space (X0,Y0 = lower-left corner).
func mediaBox(page pdflib.Page) layout.BBox {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		mb := v.Key("MediaBox")
		if mb.Len() != 4 {
			continue
		}
		box := layout.BBox{
			X0: mb.Index(0).Float64(),
			Y0: mb.Index(1).Float64(),
			X1: mb.Index(2).Float64(),
			Y1: mb.Index(3).Float64(),
		}
		if box.Width() > 0 && box.Height() > 0 {
			return box
		}
	}
	return layout.BBox{X1: defaultPageWidth, Y1: defaultPageHeight}
}

func trailerTitle(reader *pdflib.Reader) (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()
	return strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())
}
