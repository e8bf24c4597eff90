// Package layout holds the positioned-text model the outline engine consumes:
// lines with font metrics and page geometry, grouped by page.
package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Alignment is the horizontal placement class of a line.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignOther  Alignment = "other"
)

// BBox is a bounding box in top-down page coordinates (Y grows downward).
type BBox struct {
	X0, Y0, X1, Y1 float64
}

func (b BBox) Width() float64  { return b.X1 - b.X0 }
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }
func (b BBox) MidX() float64   { return (b.X0 + b.X1) / 2 }

// Line is one visually contiguous run of text on a page.
type Line struct {
	Text      string    // trimmed, never empty
	Page      int       // 0-based page index
	FontSize  float64   // rounded
	FontName  string    // subset tag stripped
	Bold      bool      // derived from the font name
	BBox      BBox      // page coordinates
	Alignment Alignment // left, center or other
}

// Indentation is the left x-position of the line.
func (l Line) Indentation() float64 { return l.BBox.X0 }

// Page is one page of a document with its lines in reading order.
type Page struct {
	Index  int
	Width  float64
	Height float64
	Lines  []Line
}

// Table is a detected tabular region as a grid of string cells.
type Table struct {
	Page  int
	BBox  BBox
	Cells [][]string
}

// Document is the full positioned-text representation of one input.
type Document struct {
	MetadataTitle string
	Pages         []Page
	Tables        []Table
}

// Lines returns every line of the document in reading order.
func (d *Document) Lines() []Line {
	var n int
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	out := make([]Line, 0, n)
	for _, p := range d.Pages {
		out = append(out, p.Lines...)
	}
	return out
}

// Page returns the page with the given index, or nil.
func (d *Document) Page(index int) *Page {
	if index < 0 || index >= len(d.Pages) {
		return nil
	}
	return &d.Pages[index]
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// boldMarkers are font-name substrings that indicate a heavy weight.
var boldMarkers = []string{"bold", "black", "heavy", "cbi"}

// IsBold reports whether a font name denotes a bold face.
func IsBold(fontName string) bool {
	lower := strings.ToLower(fontName)
	for _, m := range boldMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// StripSubsetTag removes a "ABCDEF+" subset prefix from an embedded font name.
func StripSubsetTag(fontName string) string {
	if i := strings.IndexByte(fontName, '+'); i == 6 {
		for _, r := range fontName[:6] {
			if r < 'A' || r > 'Z' {
				return fontName
			}
		}
		return fontName[7:]
	}
	return fontName
}

// Classify returns the alignment of a span on a page of the given width.
// A span is centered when its midpoint is within centerTol of the page centre,
// left when it starts before leftEdge.
func Classify(b BBox, pageWidth, centerTol, leftEdge float64) Alignment {
	mid := b.MidX()
	diff := mid - pageWidth/2
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < centerTol:
		return AlignCenter
	case b.X0 < leftEdge:
		return AlignLeft
	default:
		return AlignOther
	}
}

// NormalizeText folds compatibility characters (ligatures, full-width forms)
// and collapses runs of whitespace.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Key is the normalized form used for set membership: trimmed and lower-cased.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
