// Package chunker turns an outlined document into heading-delimited
// sections and token-bounded chunks for downstream indexers.
package chunker

import (
	"strings"

	"github.com/dgallion1/pdfoutline/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Tokens of trailing context repeated at the start of the next chunk.
	MinChunk     int // Chunks below this many tokens are dropped.
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = min(d.ChunkOverlap, c.ChunkSize/2)
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// Chunk splits each section's text into chunks of at most ChunkSize tokens.
// A chunk never spans two sections, so its breadcrumb and page range are
// those of its section. Indexes run across the whole document.
func Chunk(sections []Section, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()
	var out []doctree.Chunk
	for _, s := range sections {
		if s.Text == "" {
			continue
		}
		for _, text := range pack(pieces(s.Text, cfg.ChunkSize), cfg.ChunkSize, cfg.ChunkOverlap) {
			if EstimateTokens(text) < cfg.MinChunk {
				continue
			}
			out = append(out, doctree.Chunk{
				Text:       text,
				Index:      len(out),
				Breadcrumb: copyBreadcrumb(s.Breadcrumb),
				PageStart:  s.PageStart,
				PageEnd:    s.PageEnd,
			})
		}
	}
	return out
}

// piece is an indivisible run of text with the separator that joins it to
// the previous piece.
type piece struct {
	text        string
	sep         string
	words, long int
}

func newPiece(text, sep string) piece {
	words, long := countWords(text)
	return piece{text: text, sep: sep, words: words, long: long}
}

func (p piece) tokens() int { return estimate(p.words, p.long) }

// pieces breaks text into paragraphs. Paragraphs over size tokens become
// sentences, and sentences over size become word windows.
func pieces(text string, size int) []piece {
	var out []piece
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if p := newPiece(para, "\n\n"); p.tokens() <= size {
			out = append(out, p)
			continue
		}
		sep := "\n\n"
		for _, sent := range sentences(para) {
			parts := []string{sent}
			if EstimateTokens(sent) > size {
				parts = wordWindows(sent, size)
			}
			for _, t := range parts {
				out = append(out, newPiece(t, sep))
				sep = " "
			}
		}
	}
	return out
}

// pack fills chunks greedily. When a chunk is full, its trailing pieces that
// fit in overlap tokens open the next one.
func pack(ps []piece, size, overlap int) []string {
	var out []string
	var cur []piece
	words, long, fresh := 0, 0, 0
	for _, p := range ps {
		if fresh > 0 && estimate(words+p.words, long+p.long) > size {
			out = append(out, join(cur))
			cur = tail(cur, min(overlap, size-p.tokens()))
			words, long, fresh = 0, 0, 0
			for _, c := range cur {
				words += c.words
				long += c.long
			}
		}
		cur = append(cur, p)
		words += p.words
		long += p.long
		fresh++
	}
	if fresh > 0 {
		out = append(out, join(cur))
	}
	return out
}

func tail(ps []piece, budget int) []piece {
	n, words, long := 0, 0, 0
	for i := len(ps) - 1; i >= 0; i-- {
		if estimate(words+ps[i].words, long+ps[i].long) > budget {
			break
		}
		words += ps[i].words
		long += ps[i].long
		n++
	}
	return append([]piece(nil), ps[len(ps)-n:]...)
}

func join(ps []piece) string {
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteString(p.sep)
		}
		sb.WriteString(p.text)
	}
	return sb.String()
}

// sentences splits after words ending in terminal punctuation.
func sentences(text string) []string {
	var out []string
	var cur []string
	for _, w := range strings.Fields(text) {
		cur = append(cur, w)
		if strings.HasSuffix(w, ".") || strings.HasSuffix(w, "!") || strings.HasSuffix(w, "?") {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// wordWindows cuts text into runs of roughly size tokens.
func wordWindows(text string, size int) []string {
	words := strings.Fields(text)
	per := max(size*3/4, 1)
	var out []string
	for len(words) > 0 {
		n := min(per, len(words))
		out = append(out, strings.Join(words[:n], " "))
		words = words[n:]
	}
	return out
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}

func pageEnd(n *doctree.DocNode) int {
	if n.PageEnd > n.Page {
		return n.PageEnd
	}
	return n.Page
}
