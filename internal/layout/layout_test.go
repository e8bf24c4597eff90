package layout

import "testing"

func TestIsBold(t *testing.T) {
	tests := []struct {
		font string
		want bool
	}{
		{"Arial-BoldMT", true},
		{"Helvetica-Black", true},
		{"Futura-Heavy", true},
		{"TimesNewRomanCBI", true},
		{"TimesNewRomanPSMT", false},
		{"Arial", false},
	}
	for _, tt := range tests {
		if got := IsBold(tt.font); got != tt.want {
			t.Errorf("IsBold(%q): expected %v, got %v", tt.font, tt.want, got)
		}
	}
}

func TestStripSubsetTag(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ABCDEF+Arial-BoldMT", "Arial-BoldMT"},
		{"Arial", "Arial"},
		{"abcdef+Arial", "abcdef+Arial"},
		{"AB+Arial", "AB+Arial"},
	}
	for _, tt := range tests {
		if got := StripSubsetTag(tt.in); got != tt.want {
			t.Errorf("StripSubsetTag(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	const width = 612
	tests := []struct {
		name string
		box  BBox
		want Alignment
	}{
		{"centered", BBox{X0: 256, X1: 356}, AlignCenter},
		{"left", BBox{X0: 72, X1: 200}, AlignLeft},
		{"other", BBox{X0: 400, X1: 540}, AlignOther},
		{"wide centered body line", BBox{X0: 72, X1: 540}, AlignCenter},
	}
	for _, tt := range tests {
		if got := Classify(tt.box, width, 20, 100); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  ﬁnal   report\t"); got != "final report" {
		t.Errorf("expected %q, got %q", "final report", got)
	}
}

func TestKey(t *testing.T) {
	if got := Key("  Confidential "); got != "confidential" {
		t.Errorf("expected %q, got %q", "confidential", got)
	}
}

func word(s string, x, y, size float64, font string) []Glyph {
	var out []Glyph
	for _, r := range s {
		w := size * 0.5
		out = append(out, Glyph{S: string(r), Font: font, FontSize: size, X: x, Y: y, W: w})
		x += w
	}
	return out
}

func TestAssembleLines_RowsAndWords(t *testing.T) {
	var glyphs []Glyph
	// Second row first to check ordering.
	glyphs = append(glyphs, word("body", 72, 600, 10, "ABCDEF+Times")...)
	glyphs = append(glyphs, word("Hello", 72, 700, 20, "ABCDEF+Arial-Bold")...)
	glyphs = append(glyphs, word("World", 72+5*10+6, 700, 20, "ABCDEF+Arial-Bold")...)

	lines := AssembleLines(glyphs, 0, 612, 792, DefaultAssembleConfig())
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Hello World" {
		t.Errorf("expected %q, got %q", "Hello World", lines[0].Text)
	}
	if !lines[0].Bold || lines[0].FontName != "Arial-Bold" || lines[0].FontSize != 20 {
		t.Errorf("unexpected font attributes: %+v", lines[0])
	}
	if lines[1].Text != "body" {
		t.Errorf("expected %q, got %q", "body", lines[1].Text)
	}
	if lines[0].BBox.Y0 >= lines[1].BBox.Y0 {
		t.Errorf("expected first line above second, got y0 %v and %v", lines[0].BBox.Y0, lines[1].BBox.Y0)
	}
	if got := lines[0].BBox.Y0; got != 792-720 {
		t.Errorf("expected top-down y0 %v, got %v", 792-720, got)
	}
}

func TestAssembleLines_WideGapSplitsSegments(t *testing.T) {
	var glyphs []Glyph
	glyphs = append(glyphs, word("Name", 72, 500, 10, "Arial")...)
	glyphs = append(glyphs, word("Amount", 300, 500, 10, "Arial")...)

	lines := AssembleLines(glyphs, 3, 612, 792, DefaultAssembleConfig())
	if len(lines) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(lines))
	}
	if lines[0].Text != "Name" || lines[1].Text != "Amount" {
		t.Errorf("unexpected segments %q, %q", lines[0].Text, lines[1].Text)
	}
	if lines[1].Page != 3 {
		t.Errorf("expected page 3, got %d", lines[1].Page)
	}
}

func TestAssembleLines_DominantRun(t *testing.T) {
	var glyphs []Glyph
	glyphs = append(glyphs, word("1.", 72, 500, 14, "Arial-Bold")...)
	glyphs = append(glyphs, word("Introduction", 72+14+4, 500, 12.4, "Arial")...)

	lines := AssembleLines(glyphs, 0, 612, 792, DefaultAssembleConfig())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].FontName != "Arial" || lines[0].FontSize != 12 || lines[0].Bold {
		t.Errorf("expected dominant run Arial/12, got %+v", lines[0])
	}
}

func TestAssembleLines_Empty(t *testing.T) {
	if lines := AssembleLines(nil, 0, 612, 792, DefaultAssembleConfig()); lines != nil {
		t.Errorf("expected nil, got %v", lines)
	}
	blank := []Glyph{{S: " ", Font: "Arial", FontSize: 10, X: 72, Y: 500, W: 3}}
	if lines := AssembleLines(blank, 0, 612, 792, DefaultAssembleConfig()); len(lines) != 0 {
		t.Errorf("expected whitespace-only row to be dropped, got %v", lines)
	}
}

func TestDocument_Lines(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Index: 0, Lines: []Line{{Text: "a"}, {Text: "b"}}},
		{Index: 1, Lines: []Line{{Text: "c"}}},
	}}
	lines := doc.Lines()
	if len(lines) != 3 || lines[2].Text != "c" {
		t.Errorf("unexpected flattened lines: %v", lines)
	}
	if doc.Page(2) != nil {
		t.Error("expected nil for out-of-range page")
	}
	if doc.PageCount() != 2 {
		t.Errorf("expected 2 pages, got %d", doc.PageCount())
	}
}
