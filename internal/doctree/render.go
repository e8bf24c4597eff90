package doctree

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// RenderMarkdown writes the outline as a title heading followed by a nested
// bullet list, one item per heading with its page.
func RenderMarkdown(o Outline) string {
	var sb strings.Builder
	sb.WriteString("# ")
	sb.WriteString(escapeMarkdown(o.Title))
	sb.WriteString("\n\n")

	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			fmt.Fprintf(&sb, "%s- %s (p. %d)\n", strings.Repeat("  ", depth), escapeMarkdown(n.Title), n.Page)
			walk(n.Children, depth+1)
		}
	}
	walk(Build(o).Children, 0)
	return sb.String()
}

// RenderHTML renders the Markdown outline to an HTML fragment.
func RenderHTML(o Outline) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(RenderMarkdown(o)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"#", `\#`,
)

// listMarker matches text that would otherwise open a nested list.
var listMarker = regexp.MustCompile(`^(\d+[.)]|[-+])(\s|$)`)

func escapeMarkdown(s string) string {
	s = markdownEscaper.Replace(s)
	if loc := listMarker.FindStringSubmatchIndex(s); loc != nil {
		end := loc[3] - 1 // the marker's final punctuation
		s = s[:end] + `\` + s[end:]
	}
	return s
}
