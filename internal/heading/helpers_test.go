package heading

import (
	"strings"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

const (
	pageW = 612.0
	pageH = 792.0
)

// mkLine builds a line whose width is half its size per character.
func mkLine(text string, page int, size float64, font string, x, y float64) layout.Line {
	w := float64(len([]rune(text))) * size * 0.5
	b := layout.BBox{X0: x, Y0: y, X1: x + w, Y1: y + size}
	return layout.Line{
		Text:      text,
		Page:      page,
		FontSize:  size,
		FontName:  font,
		Bold:      layout.IsBold(font),
		BBox:      b,
		Alignment: layout.Classify(b, pageW, 20, 100),
	}
}

// centred builds a line whose midpoint is the page centre.
func centred(text string, page int, size float64, font string, y float64) layout.Line {
	w := float64(len([]rune(text))) * size * 0.5
	return mkLine(text, page, size, font, pageW/2-w/2, y)
}

var proseText = strings.Repeat("running prose ", 6)

// prose is a long, left-aligned 10pt body line.
func prose(page int, y float64) layout.Line {
	return mkLine(strings.TrimSpace(proseText), page, 10, "Times-Roman", 72, y)
}

func mkDoc(title string, pages ...[]layout.Line) *layout.Document {
	doc := &layout.Document{MetadataTitle: title}
	for i, lines := range pages {
		for j := range lines {
			lines[j].Page = i
		}
		doc.Pages = append(doc.Pages, layout.Page{Index: i, Width: pageW, Height: pageH, Lines: lines})
	}
	return doc
}
