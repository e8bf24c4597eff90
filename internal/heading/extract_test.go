package heading

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// specDraft is a three-page document: title in metadata, a numbered bold
// section on page two and a numbered plain subsection on page three.
func specDraft() *layout.Document {
	return mkDoc("Spec Draft",
		[]layout.Line{prose(0, 200), prose(0, 220)},
		[]layout.Line{
			mkLine("1. Introduction", 0, 12, "Times-Bold", 72, 100),
			prose(0, 130),
			prose(0, 150),
		},
		[]layout.Line{
			mkLine("1.1 Background", 0, 10, "Times-Roman", 72, 100),
			prose(0, 130),
		},
	)
}

func TestExtract_EndToEnd(t *testing.T) {
	e := NewExtractor(DefaultConfig(), quietLogger())
	res, err := e.Extract(specDraft())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title.Text != "Spec Draft" {
		t.Errorf("expected title %q, got %q", "Spec Draft", res.Title.Text)
	}
	want := []Candidate{
		{Level: 1, Text: "1. Introduction", Page: 1, X: 72},
		{Level: 2, Text: "1.1 Background", Page: 2, X: 72},
	}
	if !reflect.DeepEqual(res.Outline, want) {
		t.Errorf("expected %+v, got %+v", want, res.Outline)
	}
	if res.Diagnostics.Method != MethodHeuristic {
		t.Errorf("expected heuristic method, got %s", res.Diagnostics.Method)
	}
	if res.Diagnostics.Body != (BodyStyle{Size: 10, Font: "Times-Roman"}) {
		t.Errorf("unexpected body style %+v", res.Diagnostics.Body)
	}
	if res.Err() != nil {
		t.Errorf("expected no condition, got %v", res.Err())
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor(DefaultConfig(), quietLogger())
	a, _ := e.Extract(specDraft())
	b, _ := e.Extract(specDraft())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical results, got %+v and %+v", a, b)
	}
}

func TestExtract_HeaderSuppressedOnEveryPage(t *testing.T) {
	var pages [][]layout.Line
	for i := 0; i < 3; i++ {
		pages = append(pages, []layout.Line{
			mkLine("Company Handbook", 0, 18, "Arial-Bold", 72, 60),
			prose(0, 200),
		})
	}
	pages[1] = append(pages[1], mkLine("Benefits", 0, 18, "Arial-Bold", 72, 300))

	e := NewExtractor(DefaultConfig(), quietLogger())
	res, err := e.Extract(mkDoc("Employee Guide", pages...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Outline) != 1 || res.Outline[0].Text != "Benefits" {
		t.Errorf("expected only Benefits, got %+v", res.Outline)
	}
	if res.Diagnostics.Filtered.Furniture != 3 {
		t.Errorf("expected 3 furniture drops, got %d", res.Diagnostics.Filtered.Furniture)
	}
}

func TestExtract_TableCellsExcluded(t *testing.T) {
	doc := mkDoc("Quarterly Figures", []layout.Line{
		prose(0, 100),
		mkLine("Net Income", 0, 16, "Arial-Bold", 72, 200),
		mkLine("Commentary", 0, 16, "Arial-Bold", 72, 300),
	})
	doc.Tables = []layout.Table{{Page: 0, Cells: [][]string{{"Net Income", "42"}}}}

	res, _ := NewExtractor(DefaultConfig(), quietLogger()).Extract(doc)
	if len(res.Outline) != 1 || res.Outline[0].Text != "Commentary" {
		t.Errorf("expected table cell to be dropped, got %+v", res.Outline)
	}
}

func TestExtract_DegradedBaseline(t *testing.T) {
	doc := mkDoc("", []layout.Line{mkLine("Only Line", 0, 12, "Arial", 72, 200)})
	res, err := NewExtractor(DefaultConfig(), quietLogger()).Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Diagnostics.DegradedBaseline {
		t.Error("expected degraded baseline")
	}
	if !errors.Is(res.Err(), ErrDegradedBaseline) {
		t.Errorf("expected ErrDegradedBaseline, got %v", res.Err())
	}
	if !res.Empty() || !errors.Is(res.Err(), ErrEmptyCandidateSet) {
		t.Errorf("expected empty outline condition, got %+v", res.Outline)
	}
	if res.Outline == nil {
		t.Error("expected non-nil empty outline")
	}
}

// fakeLabeler labels lines by text, or every line with all when it is set.
type fakeLabeler struct {
	levels map[string]int
	all    int
	seen   []string
	err    error
}

func (f *fakeLabeler) Label(lines []layout.Line) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]int, len(lines))
	for i, l := range lines {
		f.seen = append(f.seen, l.Text)
		out[i] = f.levels[l.Text]
		if f.all > 0 {
			out[i] = f.all
		}
	}
	return out, nil
}

func TestExtract_Labeler(t *testing.T) {
	var pages [][]layout.Line
	for i := 0; i < 2; i++ {
		pages = append(pages, []layout.Line{
			mkLine("Running Head", 0, 9, "Arial", 72, 30),
			mkLine("- 3 -", 0, 9, "Arial", 300, 200),
		})
	}
	pages[0] = append(pages[0],
		mkLine("Scope", 0, 10, "Arial", 72, 300),
		mkLine("Detail", 0, 10, "Arial", 72, 320),
		mkLine("Body", 0, 10, "Arial", 72, 340),
	)
	lab := &fakeLabeler{levels: map[string]int{"Scope": 1, "Detail": 4, "Running Head": 1}}

	e := NewExtractor(DefaultConfig(), quietLogger(), WithLabeler(lab))
	res, err := e.Extract(mkDoc("Manual", pages...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Diagnostics.Method != MethodClassifier {
		t.Errorf("expected classifier method, got %s", res.Diagnostics.Method)
	}
	if len(res.Outline) != 1 || res.Outline[0].Text != "Scope" {
		t.Errorf("expected only Scope, got %+v", res.Outline)
	}
	for _, s := range lab.seen {
		if s == "Running Head" || s == "- 3 -" {
			t.Errorf("labeler should not see %q", s)
		}
	}
}

func TestExtract_LabelerKeepsOutlineExclusions(t *testing.T) {
	doc := mkDoc("Spec Draft",
		[]layout.Line{
			mkLine("Spec Draft", 0, 24, "Arial-Bold", 72, 100),
			mkLine("Table of Contents", 0, 16, "Arial-Bold", 72, 140),
			mkLine("Chapter One ........ 3", 0, 10, "Arial", 72, 170),
		},
		[]layout.Line{
			mkLine("Chapter One", 0, 16, "Arial-Bold", 72, 100),
			mkLine("Net Income", 0, 10, "Arial", 72, 140),
		},
	)
	doc.Tables = []layout.Table{{Page: 1, Cells: [][]string{{"Net Income", "42"}}}}

	e := NewExtractor(DefaultConfig(), quietLogger(), WithLabeler(&fakeLabeler{all: 1}))
	res, err := e.Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, c := range res.Outline {
		got = append(got, fmt.Sprintf("%s@%d", c.Text, c.Page))
	}
	want := []string{"Table of Contents@0", "Chapter One@1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	f := res.Diagnostics.Filtered
	if f.Title != 1 || f.TOC != 1 || f.Table != 1 {
		t.Errorf("unexpected filter stats: %+v", f)
	}
}

func TestExtract_PlaceholderTitleEchoDropped(t *testing.T) {
	doc := mkDoc("",
		[]layout.Line{},
		[]layout.Line{
			centred("Document", 0, 18, "Arial-Bold", 200),
			prose(0, 260),
			prose(0, 280),
		},
	)
	res, err := NewExtractor(DefaultConfig(), quietLogger()).Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title.Text != "Untitled Document" {
		t.Fatalf("expected placeholder title, got %q", res.Title.Text)
	}
	if !res.Empty() {
		t.Errorf("expected title echo to be dropped, got %+v", res.Outline)
	}
}

func TestExtract_LabelerError(t *testing.T) {
	boom := errors.New("boom")
	e := NewExtractor(DefaultConfig(), quietLogger(), WithLabeler(&fakeLabeler{err: boom}))
	res, err := e.Extract(specDraft())
	if !errors.Is(err, boom) {
		t.Fatalf("expected labeler error, got %v", err)
	}
	if res.Title.Text != "Spec Draft" {
		t.Errorf("expected best-effort title, got %q", res.Title.Text)
	}
}
