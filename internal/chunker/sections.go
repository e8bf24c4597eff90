package chunker

import (
	"strings"

	"github.com/dgallion1/pdfoutline/internal/doctree"
	"github.com/dgallion1/pdfoutline/internal/heading"
	"github.com/dgallion1/pdfoutline/internal/layout"
)

// Section is the body text between one heading and the next.
type Section struct {
	Heading    string   `json:"heading"`
	Level      string   `json:"level,omitempty"`
	Breadcrumb []string `json:"breadcrumb"`
	PageStart  int      `json:"page_start"`
	PageEnd    int      `json:"page_end"`
	Text       string   `json:"text"`
}

// paragraphGap is the vertical gap, in line heights, that starts a paragraph.
const paragraphGap = 1.5

// BuildTree nests the document's lines under the outline headings. Lines are
// matched to headings in reading order by page and text; lines before the
// first heading form an untitled preamble. Pages carry pageBase.
func BuildTree(doc *layout.Document, title string, outline []heading.Candidate, pageBase int) *doctree.DocTree {
	b := doctree.NewBuilder(title)
	preamble := &doctree.DocNode{Page: pageBase}
	var cur *doctree.DocNode
	var text strings.Builder
	var prev *layout.Line
	next := 0

	flush := func() {
		t := strings.TrimSpace(text.String())
		text.Reset()
		if t == "" {
			return
		}
		n := cur
		if n == nil {
			n = preamble
		}
		if n.Text != "" {
			n.Text += "\n\n"
		}
		n.Text += t
	}

	for _, p := range doc.Pages {
		for i := range p.Lines {
			l := &p.Lines[i]
			if next < len(outline) && outline[next].Page == l.Page && outline[next].Text == l.Text {
				flush()
				cur = b.Add(outline[next].Level, l.Text, l.Page+pageBase)
				cur.PageEnd = cur.Page
				next++
				prev = nil
				continue
			}

			if prev != nil && (prev.Page != l.Page || l.BBox.Y0-prev.BBox.Y1 > prev.BBox.Height()*paragraphGap) {
				flush()
			}
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(l.Text)
			if cur != nil {
				cur.PageEnd = l.Page + pageBase
			} else {
				preamble.PageEnd = l.Page + pageBase
			}
			prev = l
		}
	}
	flush()

	tree := b.Tree()
	if preamble.Text != "" {
		tree.Children = append([]*doctree.DocNode{preamble}, tree.Children...)
	}
	return tree
}

// Sections flattens the tree into heading-delimited sections in document
// order.
func Sections(doc *layout.Document, title string, outline []heading.Candidate, pageBase int) []Section {
	tree := BuildTree(doc, title, outline, pageBase)
	var out []Section
	var walk func(nodes []*doctree.DocNode, crumbs []string)
	walk = func(nodes []*doctree.DocNode, crumbs []string) {
		for _, n := range nodes {
			bc := crumbs
			if n.Title != "" {
				bc = append(append([]string{}, crumbs...), n.Title)
			}
			s := Section{
				Heading:    n.Title,
				Breadcrumb: copyBreadcrumb(bc),
				PageStart:  n.Page,
				PageEnd:    pageEnd(n),
				Text:       n.Text,
			}
			if n.Level > 0 {
				s.Level = doctree.LevelName(n.Level)
			}
			out = append(out, s)
			walk(n.Children, bc)
		}
	}
	walk(tree.Children, nil)
	return out
}

// ChunkDocument splits the document's sections into sized chunks.
func ChunkDocument(doc *layout.Document, title string, outline []heading.Candidate, pageBase int, cfg Config) []doctree.Chunk {
	return Chunk(Sections(doc, title, outline, pageBase), cfg)
}
