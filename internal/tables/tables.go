// Package tables finds tabular regions on a page from line geometry. Runs of
// consecutive rows whose cells share column edges become candidates, and the
// tabula geometric detector confirms each candidate and lays out its grid.
package tables

import (
	"math"

	"github.com/tsawler/tabula/model"
	tabula "github.com/tsawler/tabula/tables"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

// Config controls table detection.
type Config struct {
	RowTolerance      float64 // max vertical-centre distance for lines in one row
	ColumnTolerance   float64 // max edge distance for a cell to align with a column
	MinRows           int     // consecutive aligned rows needed for a table
	MinCols           int     // aligned cells needed in every row
	MaxAvgCellChars   float64 // longer average cells look like multi-column prose
	MaxCellWidthRatio float64 // cells wider than this share of the page are prose columns
	MinConfidence     float64 // grid confidence the geometric detector must reach
	GridTolerance     float64 // edge clustering tolerance when building the grid
}

// DefaultConfig returns sensible defaults. Text-only tables carry no ruling
// lines, which caps the geometric confidence well below 1.
func DefaultConfig() Config {
	return Config{
		RowTolerance:      3,
		ColumnTolerance:   5,
		MinRows:           3,
		MinCols:           2,
		MaxAvgCellChars:   60,
		MaxCellWidthRatio: 0.3,
		MinConfidence:     0.4,
		GridTolerance:     2,
	}
}

type tableRow struct {
	cells []layout.Line
}

func (r tableRow) centre() float64 {
	return (r.cells[0].BBox.Y0 + r.cells[0].BBox.Y1) / 2
}

// Detect returns the tables found on one page.
func Detect(page layout.Page, cfg Config) []layout.Table {
	if cfg.MinRows <= 0 {
		cfg = DefaultConfig()
	}

	var out []layout.Table
	for _, run := range candidates(groupRows(page.Lines, cfg.RowTolerance), cfg) {
		if prose(run, page.Width, cfg) {
			continue
		}
		out = append(out, confirm(page, run, cfg)...)
	}
	return out
}

// candidates returns the runs of at least MinRows rows whose cells stay on a
// shared set of column anchors.
func candidates(rows []tableRow, cfg Config) [][]tableRow {
	var runs [][]tableRow
	var run []tableRow
	var anchors []float64

	flush := func() {
		if len(run) >= cfg.MinRows {
			runs = append(runs, run)
		}
		run = nil
		anchors = nil
	}

	for _, r := range rows {
		if len(r.cells) < cfg.MinCols {
			flush()
			continue
		}
		if len(run) > 0 && aligned(r, anchors, cfg.ColumnTolerance) >= cfg.MinCols {
			run = append(run, r)
			anchors = mergeAnchors(anchors, r, cfg.ColumnTolerance)
			continue
		}
		flush()
		run = append(run, r)
		anchors = edges(r)
	}
	flush()

	return runs
}

// prose reports whether a candidate run is really columns of running text:
// long cells, or cells spanning a large share of the page width.
func prose(run []tableRow, pageWidth float64, cfg Config) bool {
	var chars, count int
	var width float64
	for _, r := range run {
		for _, c := range r.cells {
			chars += len([]rune(c.Text))
			width += c.BBox.Width()
			count++
		}
	}
	if count == 0 {
		return true
	}
	if float64(chars)/float64(count) > cfg.MaxAvgCellChars {
		return true
	}
	return pageWidth > 0 && width/float64(count) > cfg.MaxCellWidthRatio*pageWidth
}

// confirm hands the run's cells to the tabula geometric detector. Tabula
// works in bottom-up PDF coordinates, so boxes are flipped on the way in and
// out.
func confirm(page layout.Page, run []tableRow, cfg Config) []layout.Table {
	mp := model.NewPage(page.Width, page.Height)
	mp.Number = page.Index + 1
	for _, r := range run {
		for _, c := range r.cells {
			mp.RawText = append(mp.RawText, model.TextFragment{
				Text:     c.Text,
				BBox:     toModel(c.BBox, page.Height),
				FontSize: c.FontSize,
				FontName: c.FontName,
			})
		}
	}

	det := tabula.NewGeometricDetector()
	if err := det.Configure(tabula.Config{
		MinRows:            cfg.MinRows,
		MinCols:            cfg.MinCols,
		MinConfidence:      cfg.MinConfidence,
		UseWhitespace:      true,
		MaxCellGap:         5,
		AlignmentTolerance: cfg.GridTolerance,
	}); err != nil {
		return nil
	}
	found, err := det.Detect(mp)
	if err != nil {
		return nil
	}

	var out []layout.Table
	for _, t := range found {
		cells := compact(t)
		if len(cells) < cfg.MinRows {
			continue
		}
		out = append(out, layout.Table{
			Page:  page.Index,
			BBox:  fromModel(t.BBox, page.Height),
			Cells: cells,
		})
	}
	return out
}

// compact drops the empty rows and columns tabula's grid keeps for the gaps
// between text.
func compact(t *model.Table) [][]string {
	cols := t.ColCount()
	used := make([]bool, cols)
	var rows [][]model.Cell
	for _, r := range t.Rows {
		empty := true
		for j, c := range r {
			if c.Text != "" {
				empty = false
				used[j] = true
			}
		}
		if !empty {
			rows = append(rows, r)
		}
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := make([]string, 0, cols)
		for j, c := range r {
			if used[j] {
				row = append(row, c.Text)
			}
		}
		out = append(out, row)
	}
	return out
}

func toModel(b layout.BBox, pageHeight float64) model.BBox {
	return model.NewBBox(b.X0, pageHeight-b.Y1, b.Width(), b.Height())
}

func fromModel(b model.BBox, pageHeight float64) layout.BBox {
	return layout.BBox{
		X0: b.Left(),
		Y0: pageHeight - b.Top(),
		X1: b.Right(),
		Y1: pageHeight - b.Bottom(),
	}
}

// groupRows splits reading-ordered lines into rows by vertical centre.
func groupRows(lines []layout.Line, tol float64) []tableRow {
	var rows []tableRow
	for _, l := range lines {
		c := (l.BBox.Y0 + l.BBox.Y1) / 2
		if n := len(rows); n > 0 && math.Abs(rows[n-1].centre()-c) <= tol {
			rows[n-1].cells = append(rows[n-1].cells, l)
			continue
		}
		rows = append(rows, tableRow{cells: []layout.Line{l}})
	}
	return rows
}

func edges(r tableRow) []float64 {
	out := make([]float64, 0, len(r.cells))
	for _, c := range r.cells {
		out = append(out, c.BBox.X0)
	}
	return out
}

// aligned counts the cells of r whose left or right edge sits on an anchor.
func aligned(r tableRow, anchors []float64, tol float64) int {
	n := 0
	for _, c := range r.cells {
		if nearAny(c.BBox.X0, anchors, tol) || nearAny(c.BBox.X1, anchors, tol) {
			n++
		}
	}
	return n
}

func mergeAnchors(anchors []float64, r tableRow, tol float64) []float64 {
	for _, c := range r.cells {
		if !nearAny(c.BBox.X0, anchors, tol) && !nearAny(c.BBox.X1, anchors, tol) {
			anchors = append(anchors, c.BBox.X0)
		}
	}
	return anchors
}

func nearAny(v float64, anchors []float64, tol float64) bool {
	for _, a := range anchors {
		if math.Abs(v-a) <= tol {
			return true
		}
	}
	return false
}

// Texts returns the normalized, non-empty cell strings of all tables.
func Texts(tables []layout.Table) map[string]bool {
	out := make(map[string]bool)
	for _, t := range tables {
		for _, row := range t.Cells {
			for _, cell := range row {
				if k := layout.Key(cell); k != "" {
					out[k] = true
				}
			}
		}
	}
	return out
}
