// Package doctree holds the emitted outline and its nested section form.
package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfoutline/internal/heading"
)

// Outline is the produced artifact: a title and a flat, ordered heading list.
type Outline struct {
	Title   string  `json:"title"`
	Outline []Entry `json:"outline"`
}

// Entry is one emitted heading.
type Entry struct {
	Level string `json:"level"` // H1, H2 or H3
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Depth returns the numeric level of the entry, or 0 if malformed.
func (e Entry) Depth() int {
	n, err := strconv.Atoi(strings.TrimPrefix(e.Level, "H"))
	if err != nil || !strings.HasPrefix(e.Level, "H") {
		return 0
	}
	return n
}

// LevelName returns "H<n>" for a heading level.
func LevelName(level int) string {
	return "H" + strconv.Itoa(level)
}

// FromCandidates converts 0-based candidates into the emitted outline, adding
// pageBase to every page index exactly once.
func FromCandidates(title string, cands []heading.Candidate, pageBase int) Outline {
	o := Outline{Title: title, Outline: make([]Entry, 0, len(cands))}
	for _, c := range cands {
		o.Outline = append(o.Outline, Entry{
			Level: LevelName(c.Level),
			Text:  c.Text,
			Page:  c.Page + pageBase,
		})
	}
	return o
}

// FromResult converts an extraction result.
func FromResult(r heading.Result, pageBase int) Outline {
	return FromCandidates(r.Title.Text, r.Outline, pageBase)
}

// Marshal encodes the outline as JSON without HTML escaping. With indent the
// output is two-space indented; either way it ends in a newline.
func (o Outline) Marshal(indent bool) ([]byte, error) {
	if o.Outline == nil {
		o.Outline = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(o); err != nil {
		return nil, fmt.Errorf("encode outline: %w", err)
	}
	return buf.Bytes(), nil
}

// DocTree is the root of a nested outline.
type DocTree struct {
	Title    string     // Document title
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading
	Level    int        // Heading level, 1-based
	Text     string     // Body text of this section (may be empty)
	Page     int        // Page the heading appears on
	PageEnd  int        // Last page holding body text of this section
	Children []*DocNode // Subsections
}

// Chunk is a sized text segment with structural context, ready for indexing.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Breadcrumb []string `json:"breadcrumb"` // e.g. ["Methods", "Sampling"]
	PageStart  int      `json:"page_start"`
	PageEnd    int      `json:"page_end"`
}

// Builder nests headings incrementally. Each Add returns the new node so
// callers can attach body text while walking a document.
type Builder struct {
	tree  *DocTree
	stack []stackEntry
}

type stackEntry struct {
	node  *DocNode
	level int
}

func NewBuilder(title string) *Builder {
	return &Builder{tree: &DocTree{Title: title}}
}

// Add places a heading under the nearest preceding heading of lower level.
func (b *Builder) Add(level int, title string, page int) *DocNode {
	n := &DocNode{Title: title, Level: level, Page: page}

	// Pop until the top is a strict ancestor.
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	if len(b.stack) == 0 {
		b.tree.Children = append(b.tree.Children, n)
	} else {
		parent := b.stack[len(b.stack)-1].node
		parent.Children = append(parent.Children, n)
	}
	b.stack = append(b.stack, stackEntry{node: n, level: level})
	return n
}

// Tree returns the built tree.
func (b *Builder) Tree() *DocTree { return b.tree }

// Build nests a flat outline into sections.
func Build(o Outline) *DocTree {
	b := NewBuilder(o.Title)
	for _, e := range o.Outline {
		b.Add(e.Depth(), e.Text, e.Page)
	}
	return b.Tree()
}
