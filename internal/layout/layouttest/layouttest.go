// Package layouttest builds synthetic documents for tests in packages that
// sit above the parser.
package layouttest

import (
	"strings"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

const (
	PageWidth  = 612.0
	PageHeight = 792.0
)

// Line builds a line whose width is half its size per character.
func Line(text string, size float64, font string, x, y float64) layout.Line {
	w := float64(len([]rune(text))) * size * 0.5
	b := layout.BBox{X0: x, Y0: y, X1: x + w, Y1: y + size}
	return layout.Line{
		Text:      text,
		FontSize:  size,
		FontName:  font,
		Bold:      layout.IsBold(font),
		BBox:      b,
		Alignment: layout.Classify(b, PageWidth, 20, 100),
	}
}

// Prose is a long, left-aligned 10pt body line.
func Prose(y float64) layout.Line {
	return Line(strings.TrimSpace(strings.Repeat("running prose ", 6)), 10, "Times-Roman", 72, y)
}

// Doc assembles pages of lines, fixing each line's page index.
func Doc(title string, pages ...[]layout.Line) *layout.Document {
	doc := &layout.Document{MetadataTitle: title}
	for i, lines := range pages {
		for j := range lines {
			lines[j].Page = i
		}
		doc.Pages = append(doc.Pages, layout.Page{Index: i, Width: PageWidth, Height: PageHeight, Lines: lines})
	}
	return doc
}

// SpecDraft is a three-page document titled "Spec Draft" with a bold
// "1. Introduction" on the second page and a plain "1.1 Background" on the
// third.
func SpecDraft() *layout.Document {
	return Doc("Spec Draft",
		[]layout.Line{Prose(200), Prose(220)},
		[]layout.Line{
			Line("1. Introduction", 12, "Times-Bold", 72, 100),
			Prose(130),
			Prose(150),
		},
		[]layout.Line{
			Line("1.1 Background", 10, "Times-Roman", 72, 100),
			Prose(130),
		},
	)
}
