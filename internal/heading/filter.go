package heading

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

var monthName = regexp.MustCompile(`(?i)\b(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|june?|july?|aug(ust)?|sep(t(ember)?)?|oct(ober)?|nov(ember)?|dec(ember)?)\b`)

// IsLikelyDate reports whether text is a date with little else on the line:
// it names a month and, with the month, digits, punctuation and spaces
// removed, fewer than residual characters remain.
func IsLikelyDate(text string, residual int) bool {
	if !monthName.MatchString(text) {
		return false
	}
	rest := monthName.ReplaceAllString(text, "")
	var n int
	for _, r := range rest {
		if unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		n++
	}
	return n < residual
}

// IsFormLike reports whether candidates look like repeated field labels rather
// than a hierarchy: more than FormMinCount of them, and either mostly short
// or with too few distinct texts.
func IsFormLike(cands []Candidate, cfg FilterConfig) bool {
	if len(cands) <= cfg.FormMinCount {
		return false
	}
	short := 0
	unique := make(map[string]bool, len(cands))
	for _, c := range cands {
		if len(strings.Fields(c.Text)) <= cfg.FormShortWords {
			short++
		}
		unique[layout.Key(c.Text)] = true
	}
	total := float64(len(cands))
	return float64(short)/total > cfg.FormShortRatio || float64(len(unique))/total < cfg.FormUniqueRatio
}

// FilterStats counts what each post-filter removed.
type FilterStats struct {
	Title          int  `json:"title"`
	Date           int  `json:"date"`
	Table          int  `json:"table"`
	TOC            int  `json:"toc"`
	Furniture      int  `json:"furniture"`
	Depth          int  `json:"depth"`
	FormSuppressed bool `json:"form_suppressed"`
}

// violatesOutline counts and reports candidates no outline may contain: title
// echoes, lines from a contents page other than its heading, and table-cell
// text.
func violatesOutline(c Candidate, title Title, zones Zones, st *FilterStats) bool {
	switch {
	case title.Matches(c.Text):
		st.Title++
	case zones.TOCPages[c.Page] && !IsTOCKeyword(c.Text):
		st.TOC++
	case zones.TableTexts[layout.Key(c.Text)]:
		st.Table++
	default:
		return false
	}
	return true
}

// PostFilter removes title echoes, contents-page lines, table-cell text,
// standalone dates and page furniture, then drops the whole outline when it
// is form-like, and finally keeps only levels up to MaxLevel. Order is
// preserved.
func PostFilter(cands []Candidate, title Title, zones Zones, cfg FilterConfig) ([]Candidate, FilterStats) {
	var st FilterStats
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if violatesOutline(c, title, zones, &st) {
			continue
		}
		switch {
		case IsLikelyDate(c.Text, cfg.DateResidual):
			st.Date++
		case zones.IsFurniture(c.Text):
			st.Furniture++
		default:
			kept = append(kept, c)
		}
	}

	if IsFormLike(kept, cfg) {
		st.FormSuppressed = true
		return []Candidate{}, st
	}
	kept = RestrictDepth(kept, cfg.MaxLevel, &st)
	return kept, st
}

// RestrictDepth keeps candidates with levels in [1, maxLevel].
func RestrictDepth(cands []Candidate, maxLevel int, st *FilterStats) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Level < 1 || c.Level > maxLevel {
			if st != nil {
				st.Depth++
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
