package heading

import (
	"regexp"
	"unicode"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

// MaxLevel is the deepest level a candidate can carry.
const MaxLevel = 5

// Candidate is a line provisionally assigned a heading level. Page is the
// 0-based page index; X is the left edge used for indentation smoothing.
type Candidate struct {
	Level int     `json:"level"`
	Text  string  `json:"text"`
	Page  int     `json:"page"`
	X     float64 `json:"-"`
}

var (
	numbered3 = regexp.MustCompile(`^\d+\.\d+\.\d+`)
	numbered2 = regexp.MustCompile(`^\d+\.\d+`)
	numbered1 = regexp.MustCompile(`^\d+\.?\s`)
)

// hasLetter reports whether text contains at least one letter.
func hasLetter(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// NumberingLevel returns the depth of a leading decimal section number, or 0.
// Deeper patterns are tested first so that 1.2.3 is not read as 1.2.
func NumberingLevel(text string) int {
	switch {
	case numbered3.MatchString(text):
		return 3
	case numbered2.MatchString(text):
		return 2
	case numbered1.MatchString(text):
		return 1
	}
	return 0
}

// cursor is the state threaded through the scoring fold.
type cursor struct {
	level int
	x     float64
}

// Scorer holds the immutable inputs of one document's scoring pass.
type Scorer struct {
	Body  BodyStyle
	Zones Zones
	Title Title
	Cfg   ScoreConfig
}

// Score makes a single forward pass over the pages' lines in reading order
// and emits a candidate for every line that scores as a heading.
func (s Scorer) Score(pages []layout.Page) []Candidate {
	var out []Candidate
	var cur cursor
	for _, p := range pages {
		for _, l := range p.Lines {
			var c Candidate
			var ok bool
			c, cur, ok = s.step(p.Height, l, cur)
			if ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func (s Scorer) step(pageHeight float64, l layout.Line, cur cursor) (Candidate, cursor, bool) {
	if s.rejected(pageHeight, l) {
		return Candidate{}, cur, false
	}

	level := NumberingLevel(l.Text)
	if level == 0 {
		level = s.levelFor(s.Points(l))
	}
	if level == 0 {
		return Candidate{}, cur, false
	}

	x := l.Indentation()
	if cur.level > 0 && x-cur.x > s.Cfg.IndentTolerance {
		level = min(level, cur.level+1)
	}
	return Candidate{Level: level, Text: l.Text, Page: l.Page, X: x}, cursor{level: level, x: x}, true
}

func (s Scorer) rejected(pageHeight float64, l layout.Line) bool {
	if l.BBox.Y0 < s.Cfg.TopMargin || l.BBox.Y1 > pageHeight-s.Cfg.BottomMargin {
		return true
	}
	n := len([]rune(l.Text))
	if n < s.Cfg.MinChars || n > s.Cfg.MaxChars {
		return true
	}
	if s.Title.Matches(l.Text) {
		return true
	}
	if !hasLetter(l.Text) {
		return true
	}
	return s.Zones.InTOC(l)
}

// Points returns the typographic score of a line relative to the body style.
func (s Scorer) Points(l layout.Line) int {
	var pts int
	size := s.Body.Size
	if size <= 0 {
		size = 1
	}
	switch ratio := l.FontSize / size; {
	case ratio > s.Cfg.RatioHigh:
		pts += s.Cfg.PointsHigh
	case ratio > s.Cfg.RatioMid:
		pts += s.Cfg.PointsMid
	case ratio > s.Cfg.RatioLow:
		pts += s.Cfg.PointsLow
	}
	if l.Bold {
		pts += s.Cfg.BoldPoints
	}
	if l.FontName != s.Body.Font {
		pts += s.Cfg.FontPoints
	}
	if l.Alignment == layout.AlignCenter {
		pts += s.Cfg.CenterPoints
	}
	return pts
}

func (s Scorer) levelFor(points int) int {
	switch {
	case points >= s.Cfg.H1:
		return 1
	case points >= s.Cfg.H2:
		return 2
	case points >= s.Cfg.H3:
		return 3
	}
	return 0
}
