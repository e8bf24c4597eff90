// Package classifier is the supervised alternative to the heuristic scorer:
// a fixed feature schema, a persisted one-hot encoder for categorical
// columns and a gradient-boosted tree ensemble exported as JSON.
package classifier

import (
	"regexp"
	"unicode"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

// SchemaVersion identifies the feature layout produced by this package.
const SchemaVersion = 1

// NumericColumns are the leading feature columns, in order.
var NumericColumns = []string{
	"page",
	"font_size",
	"indentation",
	"line_length",
	"num_digits",
	"num_uppercase",
	"is_bold",
	"has_colon",
	"is_numbered",
	"has_special_char",
}

// CategoricalColumns are one-hot encoded after the numeric columns.
var CategoricalColumns = []string{"font_name", "alignment"}

var (
	numberedPrefix = regexp.MustCompile(`^\d+[.)\-]?\s`)
	specialChar    = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// Features is one line's feature record.
type Features struct {
	Page           int
	FontSize       float64
	Indentation    float64
	LineLength     int
	NumDigits      int
	NumUppercase   int
	IsBold         bool
	HasColon       bool
	IsNumbered     bool
	HasSpecialChar bool
	FontName       string
	Alignment      string
}

// FeaturesOf derives the feature record of a line. Page is 1-based, matching
// the numbering the models are trained on.
func FeaturesOf(l layout.Line) Features {
	f := Features{
		Page:           l.Page + 1,
		FontSize:       l.FontSize,
		Indentation:    l.Indentation(),
		IsBold:         l.Bold,
		IsNumbered:     numberedPrefix.MatchString(l.Text),
		HasSpecialChar: specialChar.MatchString(l.Text),
		FontName:       l.FontName,
		Alignment:      string(l.Alignment),
	}
	for _, r := range l.Text {
		f.LineLength++
		switch {
		case unicode.IsDigit(r):
			f.NumDigits++
		case unicode.IsUpper(r):
			f.NumUppercase++
		case r == ':':
			f.HasColon = true
		}
	}
	return f
}

// Numeric returns the values of NumericColumns.
func (f Features) Numeric() []float64 {
	return []float64{
		float64(f.Page),
		f.FontSize,
		f.Indentation,
		float64(f.LineLength),
		float64(f.NumDigits),
		float64(f.NumUppercase),
		b2f(f.IsBold),
		b2f(f.HasColon),
		b2f(f.IsNumbered),
		b2f(f.HasSpecialChar),
	}
}

// Category returns the value of a categorical column.
func (f Features) Category(col string) string {
	switch col {
	case "font_name":
		return f.FontName
	case "alignment":
		return f.Alignment
	}
	return ""
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
