package tables

import (
	"testing"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

func cell(text string, x0, y0 float64) layout.Line {
	w := float64(len(text)) * 5
	return layout.Line{Text: text, FontSize: 10, BBox: layout.BBox{X0: x0, Y0: y0, X1: x0 + w, Y1: y0 + 10}}
}

func gridPage(rows int) layout.Page {
	p := layout.Page{Index: 2, Width: 612, Height: 792}
	p.Lines = append(p.Lines, cell("Results are summarised in the following table.", 72, 80))
	for i := 0; i < rows; i++ {
		y := 120 + float64(i)*16
		p.Lines = append(p.Lines,
			cell("Item", 72, y),
			cell("Qty", 250, y),
			cell("Price", 400, y),
		)
	}
	p.Lines = append(p.Lines, cell("Totals include tax.", 72, 400))
	return p
}

func TestDetect_Grid(t *testing.T) {
	got := Detect(gridPage(4), DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("expected 1 table, got %d", len(got))
	}
	tb := got[0]
	if tb.Page != 2 {
		t.Errorf("expected page 2, got %d", tb.Page)
	}
	if len(tb.Cells) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(tb.Cells))
	}
	if len(tb.Cells[0]) != 3 || tb.Cells[0][1] != "Qty" {
		t.Errorf("unexpected first row: %v", tb.Cells[0])
	}
	if tb.BBox.X0 != 72 || tb.BBox.Y0 != 120 {
		t.Errorf("unexpected bbox origin: %+v", tb.BBox)
	}
}

func TestDetect_TooFewRows(t *testing.T) {
	if got := Detect(gridPage(2), DefaultConfig()); len(got) != 0 {
		t.Errorf("expected no tables, got %d", len(got))
	}
}

func TestDetect_MisalignedRows(t *testing.T) {
	p := layout.Page{Width: 612, Height: 792}
	for i, x := range []float64{72, 150, 230} {
		y := 100 + float64(i)*16
		p.Lines = append(p.Lines, cell("a", x, y), cell("b", x+100, y))
	}
	if got := Detect(p, DefaultConfig()); len(got) != 0 {
		t.Errorf("expected no tables, got %d", len(got))
	}
}

func TestDetect_LongCellsAreProse(t *testing.T) {
	long := "This column of running text is far too long to be a table cell at all."
	p := layout.Page{Width: 612, Height: 792}
	for i := 0; i < 4; i++ {
		y := 100 + float64(i)*16
		p.Lines = append(p.Lines, cell(long, 40, y), cell(long, 320, y))
	}
	if got := Detect(p, DefaultConfig()); len(got) != 0 {
		t.Errorf("expected no tables, got %d", len(got))
	}
}

func TestDetect_RaggedRowsAlignOnEitherEdge(t *testing.T) {
	p := layout.Page{Width: 612, Height: 792}
	p.Lines = append(p.Lines,
		cell("Name", 72, 100), cell("Total", 300, 100),
		cell("Alpha", 72, 116), cell("10", 300, 116), cell("note", 450, 116),
		cell("Beta", 72, 132), cell("7", 300, 132),
	)
	got := Detect(p, DefaultConfig())
	if len(got) != 1 {
		t.Fatalf("expected 1 table, got %d", len(got))
	}
	if len(got[0].Cells) != 3 {
		t.Fatalf("expected 3 rows, got %v", got[0].Cells)
	}
	texts := Texts(got)
	for _, k := range []string{"name", "total", "alpha", "10", "note", "beta", "7"} {
		if !texts[k] {
			t.Errorf("expected %q in cell texts", k)
		}
	}
}

func TestDetect_TwoColumnProseIsNotATable(t *testing.T) {
	left := "The earlier systems relied on fixed rules for"
	right := "layout analysis and were tuned per publisher."
	p := layout.Page{Width: 612, Height: 792}
	heading := layout.Line{Text: "2 Related Work", FontSize: 14, FontName: "Times-Bold", Bold: true,
		BBox: layout.BBox{X0: 72, Y0: 100, X1: 170, Y1: 114}}
	p.Lines = append(p.Lines, heading, cell(right, 320, 102))
	for i := 0; i < 6; i++ {
		y := 120 + float64(i)*14
		p.Lines = append(p.Lines, cell(left, 72, y), cell(right, 320, y))
	}

	got := Detect(p, DefaultConfig())
	if len(got) != 0 {
		t.Fatalf("expected no tables, got %d: %v", len(got), got[0].Cells)
	}
	if Texts(got)["2 related work"] {
		t.Error("expected heading to stay out of table texts")
	}
}

func TestDetect_ConvertsCoordinates(t *testing.T) {
	b := layout.BBox{X0: 72, Y0: 120, X1: 92, Y1: 130}
	if got := fromModel(toModel(b, 792), 792); got != b {
		t.Errorf("expected %+v, got %+v", b, got)
	}
}

func TestTexts(t *testing.T) {
	tb := []layout.Table{{Cells: [][]string{{" Item ", "QTY"}, {"", "Price"}}}}
	got := Texts(tb)
	for _, k := range []string{"item", "qty", "price"} {
		if !got[k] {
			t.Errorf("expected %q in cell texts", k)
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}
