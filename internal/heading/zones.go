package heading

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/pdfoutline/internal/layout"
	"github.com/dgallion1/pdfoutline/internal/tables"
)

var tocKeyword = regexp.MustCompile(`(?i)^\s*(table\s+of\s+contents?|contents?|index)\b`)

// Zones are the per-document exclusion sets. They never produce headings.
type Zones struct {
	Headers    map[string]bool
	Footers    map[string]bool
	TOCPages   map[int]bool
	TableTexts map[string]bool
}

// IsTOCKeyword reports whether text is a contents or index heading line.
func IsTOCKeyword(text string) bool {
	return tocKeyword.MatchString(text)
}

// IsFurniture reports whether text is a recurring header or footer.
func (z Zones) IsFurniture(text string) bool {
	k := layout.Key(text)
	return z.Headers[k] || z.Footers[k]
}

// InTOC reports whether the line sits on a contents page and is not the
// contents heading itself.
func (z Zones) InTOC(l layout.Line) bool {
	return z.TOCPages[l.Page] && !IsTOCKeyword(l.Text)
}

// SortedTOCPages returns the flagged page indices in ascending order.
func (z Zones) SortedTOCPages() []int {
	out := make([]int, 0, len(z.TOCPages))
	for p := range z.TOCPages {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// DetectZones runs the header/footer, contents-page and table-cell detectors.
func DetectZones(doc *layout.Document, cfg ZoneConfig) Zones {
	headers, footers := detectFurniture(doc, cfg)
	return Zones{
		Headers:    headers,
		Footers:    footers,
		TOCPages:   detectTOCPages(doc, cfg),
		TableTexts: tables.Texts(doc.Tables),
	}
}

// detectFurniture counts band text across pages. A string recurs when its
// occurrence count divided by the page count reaches the recurrence ratio.
func detectFurniture(doc *layout.Document, cfg ZoneConfig) (headers, footers map[string]bool) {
	headers = make(map[string]bool)
	footers = make(map[string]bool)

	pages := doc.PageCount()
	if pages == 0 || pages < cfg.MinPages {
		return headers, footers
	}

	top := make(map[string]int)
	bottom := make(map[string]int)
	for _, p := range doc.Pages {
		band := p.Height * cfg.BandRatio
		for _, l := range p.Lines {
			k := layout.Key(l.Text)
			switch {
			case l.BBox.Y0 < band:
				top[k]++
			case l.BBox.Y1 > p.Height-band:
				bottom[k]++
			}
		}
	}

	for k, n := range top {
		if float64(n)/float64(pages) >= cfg.RecurrenceRatio {
			headers[k] = true
		}
	}
	for k, n := range bottom {
		if float64(n)/float64(pages) >= cfg.RecurrenceRatio {
			footers[k] = true
		}
	}
	return headers, footers
}

func detectTOCPages(doc *layout.Document, cfg ZoneConfig) map[int]bool {
	leader := strings.Repeat(".", cfg.LeaderRun)
	out := make(map[int]bool)
	for _, p := range doc.Pages {
		if len(p.Lines) == 0 {
			continue
		}
		var keyword bool
		var dotted int
		for _, l := range p.Lines {
			if IsTOCKeyword(l.Text) {
				keyword = true
			}
			if strings.Contains(l.Text, leader) {
				dotted++
			}
		}
		ratio := float64(dotted) / float64(len(p.Lines))
		if keyword || (ratio > cfg.LeaderRatio && len(p.Lines) > cfg.TOCMinLines) {
			out[p.Index] = true
		}
	}
	return out
}
