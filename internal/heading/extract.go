// Package heading infers a leveled outline from positioned text lines using
// typographic and geometric signals.
package heading

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/pdfoutline/internal/layout"
)

var (
	// ErrEmptyCandidateSet marks a document with no extractable outline.
	// It is reported on the Result, never returned by Extract.
	ErrEmptyCandidateSet = errors.New("no outline extractable")

	// ErrDegradedBaseline marks a document whose body style fell back to
	// the default because no line looked like running prose.
	ErrDegradedBaseline = errors.New("body style degraded to default")
)

// Method names the path that produced an outline.
type Method string

const (
	MethodHeuristic  Method = "heuristic"
	MethodClassifier Method = "classifier"
)

// Labeler assigns a level to each line: 1..MaxLevel for headings, 0 for body.
// Implementations must be safe for concurrent use.
type Labeler interface {
	Label(lines []layout.Line) ([]int, error)
}

// Result is the outcome of one extraction.
type Result struct {
	Title       Title
	Outline     []Candidate
	Diagnostics Diagnostics
}

// Empty reports whether no heading survived.
func (r Result) Empty() bool { return len(r.Outline) == 0 }

// Err returns the informational condition of the result, if any.
func (r Result) Err() error {
	var errs []error
	if r.Diagnostics.DegradedBaseline {
		errs = append(errs, ErrDegradedBaseline)
	}
	if r.Empty() {
		errs = append(errs, ErrEmptyCandidateSet)
	}
	return errors.Join(errs...)
}

// Diagnostics describes how a result was reached.
type Diagnostics struct {
	Method           Method      `json:"method"`
	Pages            int         `json:"pages"`
	Lines            int         `json:"lines"`
	Body             BodyStyle   `json:"body"`
	DegradedBaseline bool        `json:"degraded_baseline"`
	HeaderTexts      int         `json:"header_texts"`
	FooterTexts      int         `json:"footer_texts"`
	TableTexts       int         `json:"table_texts"`
	TOCPages         []int       `json:"toc_pages"`
	RawCandidates    int         `json:"raw_candidates"`
	Filtered         FilterStats `json:"filtered"`
}

// Extractor runs the outline pipeline for one document at a time. It holds
// no per-document state and may be shared across goroutines.
type Extractor struct {
	cfg     Config
	log     *slog.Logger
	labeler Labeler
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLabeler replaces the heuristic scorer with a trained labeler.
func WithLabeler(l Labeler) Option {
	return func(e *Extractor) { e.labeler = l }
}

func NewExtractor(cfg Config, log *slog.Logger, opts ...Option) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	e := &Extractor{cfg: cfg, log: log}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Config returns the thresholds in use.
func (e *Extractor) Config() Config { return e.cfg }

// Method reports which path Extract takes.
func (e *Extractor) Method() Method {
	if e.labeler != nil {
		return MethodClassifier
	}
	return MethodHeuristic
}

// Extract infers the title and outline of doc. Errors come only from the
// labeler; an empty outline is a valid result.
func (e *Extractor) Extract(doc *layout.Document) (Result, error) {
	lines := doc.Lines()
	body, degraded := EstimateBodyStyle(lines, e.cfg.Body)
	zones := DetectZones(doc, e.cfg.Zones)
	title := ExtractTitle(doc, e.cfg.Title)

	diag := Diagnostics{
		Method:           MethodHeuristic,
		Pages:            doc.PageCount(),
		Lines:            len(lines),
		Body:             body,
		DegradedBaseline: degraded,
		HeaderTexts:      len(zones.Headers),
		FooterTexts:      len(zones.Footers),
		TableTexts:       len(zones.TableTexts),
		TOCPages:         zones.SortedTOCPages(),
	}
	if degraded {
		e.log.Warn("body style degraded", "size", body.Size, "font", body.Font)
	}

	var outline []Candidate
	if e.labeler != nil {
		diag.Method = MethodClassifier
		var err error
		outline, err = e.classify(lines, title, zones, &diag)
		if err != nil {
			return Result{Title: title, Outline: []Candidate{}, Diagnostics: diag}, err
		}
	} else {
		raw := Scorer{Body: body, Zones: zones, Title: title, Cfg: e.cfg.Score}.Score(doc.Pages)
		diag.RawCandidates = len(raw)
		outline, diag.Filtered = PostFilter(raw, title, zones, e.cfg.Filters)
	}

	if diag.Filtered.FormSuppressed {
		e.log.Info("outline suppressed as form-like", "candidates", diag.RawCandidates)
	}
	if len(outline) == 0 {
		e.log.Info("no outline extractable", "title", title.Text, "method", diag.Method)
	}
	return Result{Title: title, Outline: outline, Diagnostics: diag}, nil
}

// classify labels the classifier candidates, then applies the same outline
// exclusions as the heuristic path before the form-likeness check.
func (e *Extractor) classify(lines []layout.Line, title Title, zones Zones, diag *Diagnostics) ([]Candidate, error) {
	cands := ClassifierCandidates(lines, zones)
	diag.RawCandidates = len(cands)
	if len(cands) == 0 {
		return []Candidate{}, nil
	}

	levels, err := e.labeler.Label(cands)
	if err != nil {
		return nil, fmt.Errorf("label candidates: %w", err)
	}
	if len(levels) != len(cands) {
		return nil, fmt.Errorf("label candidates: got %d labels for %d lines", len(levels), len(cands))
	}

	out := make([]Candidate, 0, len(cands))
	for i, l := range cands {
		if levels[i] < 1 || levels[i] > e.cfg.Filters.MaxLevel {
			continue
		}
		c := Candidate{Level: levels[i], Text: l.Text, Page: l.Page, X: l.Indentation()}
		if violatesOutline(c, title, zones, &diag.Filtered) {
			continue
		}
		out = append(out, c)
	}
	if IsFormLike(out, e.cfg.Filters) {
		diag.Filtered.FormSuppressed = true
		return []Candidate{}, nil
	}
	return out, nil
}

// ClassifierCandidates drops recurring page furniture and lines with no
// letters, digit-only lines included.
func ClassifierCandidates(lines []layout.Line, zones Zones) []layout.Line {
	out := make([]layout.Line, 0, len(lines))
	for _, l := range lines {
		if zones.IsFurniture(l.Text) || !hasLetter(l.Text) {
			continue
		}
		out = append(out, l)
	}
	return out
}
