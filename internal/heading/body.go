package heading

import "github.com/dgallion1/pdfoutline/internal/layout"

// BodyStyle is the typography of running prose.
type BodyStyle struct {
	Size float64 `json:"size"`
	Font string  `json:"font"`
}

// EstimateBodyStyle returns the most frequent (size, font) pair among long,
// non-bold, left-aligned lines. Ties go to the pair seen first. When no line
// qualifies the configured default is returned with degraded set.
func EstimateBodyStyle(lines []layout.Line, cfg BodyConfig) (style BodyStyle, degraded bool) {
	counts := make(map[BodyStyle]int)
	var order []BodyStyle
	for _, l := range lines {
		if l.Bold || l.Alignment != layout.AlignLeft || len([]rune(l.Text)) <= cfg.MinChars {
			continue
		}
		s := BodyStyle{Size: l.FontSize, Font: l.FontName}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	if len(order) == 0 {
		return BodyStyle{Size: cfg.DefaultSize, Font: cfg.DefaultFont}, true
	}

	best := order[0]
	for _, s := range order[1:] {
		if counts[s] > counts[best] {
			best = s
		}
	}
	return best, false
}
