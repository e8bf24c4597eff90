package heading

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

// TitleSource records which rule produced the title.
type TitleSource string

const (
	TitleFromMetadata    TitleSource = "metadata"
	TitleFromTypography  TitleSource = "typography"
	TitleFromFallback    TitleSource = "fallback"
	TitleFromPlaceholder TitleSource = "placeholder"
)

// Title is the chosen document title.
type Title struct {
	Text   string      `json:"text"`
	Source TitleSource `json:"source"`
}

// Matches reports whether text equals the title or is contained in it. The
// placeholder title counts too.
func (t Title) Matches(text string) bool {
	if t.Text == "" || text == "" {
		return false
	}
	return text == t.Text || strings.Contains(t.Text, text)
}

var fileSuffix = regexp.MustCompile(`(?i)\s*[\-–_ ]*\.[a-z]{3,4}\s*$`)

// CleanMetadataTitle returns the usable form of a metadata title, or "" when
// it is empty or a generic placeholder written by the authoring tool.
func CleanMetadataTitle(raw string, cfg TitleConfig) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return ""
	}
	lower := strings.ToLower(t)
	for _, p := range cfg.GenericPrefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return ""
		}
	}
	return strings.TrimSpace(fileSuffix.ReplaceAllString(t, ""))
}

// ExtractTitle picks the title from metadata, then the largest contiguous
// block of same-size same-font text near the top of the first page, then the
// first-page line with the best size and length composite.
func ExtractTitle(doc *layout.Document, cfg TitleConfig) Title {
	if t := CleanMetadataTitle(doc.MetadataTitle, cfg); t != "" {
		return Title{Text: t, Source: TitleFromMetadata}
	}

	first := doc.Page(0)
	if first == nil || len(first.Lines) == 0 {
		return Title{Text: cfg.Placeholder, Source: TitleFromPlaceholder}
	}

	if t := typographicTitle(first, cfg); t != "" {
		return Title{Text: t, Source: TitleFromTypography}
	}

	best := first.Lines[0]
	bestScore := compositeScore(best, cfg)
	for _, l := range first.Lines[1:] {
		if s := compositeScore(l, cfg); s > bestScore {
			best, bestScore = l, s
		}
	}
	return Title{Text: best.Text, Source: TitleFromFallback}
}

func compositeScore(l layout.Line, cfg TitleConfig) float64 {
	return l.FontSize*cfg.SizeWeight + float64(len([]rune(l.Text)))
}

func typographicTitle(page *layout.Page, cfg TitleConfig) string {
	cutoff := math.Max(page.Height*cfg.BandRatio, cfg.MaxY)

	var band []layout.Line
	for _, l := range page.Lines {
		if l.BBox.Y0 < cutoff {
			band = append(band, l)
		}
	}
	if len(band) == 0 {
		return ""
	}
	sort.SliceStable(band, func(i, j int) bool { return band[i].BBox.Y0 < band[j].BBox.Y0 })

	maxSize := band[0].FontSize
	for _, l := range band[1:] {
		maxSize = math.Max(maxSize, l.FontSize)
	}

	var parts []string
	var font string
	var lastY1 float64
	for _, l := range band {
		if l.FontSize != maxSize {
			if len(parts) > 0 {
				break
			}
			continue
		}
		if len(parts) > 0 {
			if l.BBox.Y0 > lastY1+l.BBox.Height()*cfg.GapFactor {
				break
			}
			if l.FontName != font {
				break
			}
		} else {
			font = l.FontName
		}
		parts = append(parts, l.Text)
		lastY1 = l.BBox.Y1
	}
	return strings.Join(parts, " ")
}
