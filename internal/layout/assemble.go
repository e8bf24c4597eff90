package layout

import (
	"math"
	"sort"
	"strings"
)

// Glyph is one positioned text run as reported by the rendering engine.
// Y is the baseline in PDF user space (origin bottom-left).
type Glyph struct {
	S        string
	Font     string
	FontSize float64
	X, Y, W  float64
}

// AssembleConfig controls how glyphs are grouped into lines.
type AssembleConfig struct {
	RowTolerance    float64 // max baseline difference for glyphs on the same row
	SegmentGap      float64 // gap, in multiples of font size, that starts a new line
	WordGap         float64 // gap, in multiples of font size, that inserts a space
	CenterTolerance float64
	LeftEdge        float64
}

// DefaultAssembleConfig returns the defaults used for PDF input.
func DefaultAssembleConfig() AssembleConfig {
	return AssembleConfig{
		RowTolerance:    2.0,
		SegmentGap:      2.0,
		WordGap:         0.25,
		CenterTolerance: 20,
		LeftEdge:        100,
	}
}

type row struct {
	baseline float64
	glyphs   []Glyph
}

// AssembleLines groups a page's glyphs into lines in reading order:
// rows top to bottom, segments left to right within a row.
func AssembleLines(glyphs []Glyph, page int, width, height float64, cfg AssembleConfig) []Line {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		sorted = append(sorted, g)
	}
	// Higher baseline first (top of the page in PDF space).
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows []row
	for _, g := range sorted {
		if n := len(rows); n > 0 && math.Abs(rows[n-1].baseline-g.Y) <= cfg.RowTolerance {
			rows[n-1].glyphs = append(rows[n-1].glyphs, g)
			continue
		}
		rows = append(rows, row{baseline: g.Y, glyphs: []Glyph{g}})
	}

	var lines []Line
	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
		for _, seg := range splitSegments(r.glyphs, cfg.SegmentGap) {
			if l, ok := buildLine(seg, page, width, height, cfg); ok {
				lines = append(lines, l)
			}
		}
	}
	return lines
}

// splitSegments cuts a row wherever the horizontal gap exceeds factor*size.
func splitSegments(glyphs []Glyph, factor float64) [][]Glyph {
	var segs [][]Glyph
	start := 0
	for i := 1; i < len(glyphs); i++ {
		prev := glyphs[i-1]
		gap := glyphs[i].X - (prev.X + prev.W)
		size := math.Max(prev.FontSize, 1)
		if gap > factor*size {
			segs = append(segs, glyphs[start:i])
			start = i
		}
	}
	return append(segs, glyphs[start:])
}

// run identifies a font run within a line.
type run struct {
	font string
	size float64
}

func buildLine(seg []Glyph, page int, width, height float64, cfg AssembleConfig) (Line, bool) {
	var sb strings.Builder
	weights := make(map[run]int)
	var order []run
	top, bottom := math.MaxFloat64, 0.0

	for i, g := range seg {
		if i > 0 {
			prev := seg[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > cfg.WordGap*math.Max(prev.FontSize, 1) &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.S)

		// Weight each font run by its visible characters.
		key := run{font: g.Font, size: math.Round(g.FontSize*100) / 100}
		if _, seen := weights[key]; !seen {
			order = append(order, key)
		}
		weights[key] += len(strings.TrimSpace(g.S))

		top = math.Min(top, height-(g.Y+g.FontSize))
		bottom = math.Max(bottom, height-g.Y+0.2*g.FontSize)
	}

	text := NormalizeText(sb.String())
	if text == "" {
		return Line{}, false
	}

	best := order[0]
	for _, k := range order[1:] {
		if weights[k] > weights[best] {
			best = k
		}
	}

	last := seg[len(seg)-1]
	box := BBox{X0: seg[0].X, Y0: top, X1: last.X + last.W, Y1: bottom}
	name := StripSubsetTag(best.font)
	return Line{
		Text:      text,
		Page:      page,
		FontSize:  math.Round(best.size),
		FontName:  name,
		Bold:      IsBold(name),
		BBox:      box,
		Alignment: Classify(box, width, cfg.CenterTolerance, cfg.LeftEdge),
	}, true
}
