package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/pdfoutline/internal/chunker"
	"github.com/dgallion1/pdfoutline/internal/classifier"
	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/doctree"
	"github.com/dgallion1/pdfoutline/internal/heading"
	"github.com/dgallion1/pdfoutline/internal/parser"
)

// ExtractCmd processes documents one at a time. A failing document does
// not stop the batch.
type ExtractCmd struct {
	Paths      []string `arg:"" name:"path" help:"PDF files or directories of PDF files"`
	Output     string   `short:"o" help:"Output directory (default: stdout)"`
	Format     string   `short:"f" enum:"json,markdown,html" default:"json" help:"Output format (json, markdown, html)"`
	Classifier string   `help:"Trained model JSON; enables the classifier path"`
	Encoder    string   `default:"models/encoder.json" help:"One-hot encoder JSON, fitted and written when missing"`
	Heuristics string   `help:"YAML file overriding heuristic thresholds"`
	PageBase   int      `default:"1" help:"Number of the first page in output (0 or 1)"`
	Sections   bool     `help:"Also write heading-delimited sections as <name>.sections.json"`
}

// outcome is the result of one input.
type outcome struct {
	path    string
	outline doctree.Outline
	err     error
}

func (c *ExtractCmd) Run(env *Env) error {
	if c.PageBase != 0 && c.PageBase != 1 {
		return fmt.Errorf("--page-base must be 0 or 1, got %d", c.PageBase)
	}

	thresholds, err := config.LoadHeuristics(c.Heuristics)
	if err != nil {
		return err
	}
	var opts []heading.Option
	if c.Classifier != "" {
		clf, err := classifier.Load(c.Classifier, c.Encoder, env.Log)
		if err != nil {
			return err
		}
		opts = append(opts, heading.WithLabeler(clf))
	}
	ext := heading.NewExtractor(thresholds, env.Log, opts...)

	inputs, err := expandPaths(c.Paths)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no PDF files found")
	}
	if c.Output != "" {
		if err := os.MkdirAll(c.Output, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	failed := 0
	for _, path := range inputs {
		if err := env.Ctx.Err(); err != nil {
			return err
		}
		res := c.process(env, ext, path)
		if res.err != nil {
			failed++
			env.Log.Error("document failed", "path", path, "error", res.err)
			if errors.Is(res.err, parser.ErrSourceNotFound) {
				continue
			}
		}
		if err := c.write(env, path, res.outline); err != nil {
			if res.err == nil {
				failed++
			}
			env.Log.Error("write failed", "path", path, "error", err)
		}
	}

	env.Log.Info("batch complete", "documents", len(inputs), "failed", failed, "method", ext.Method())
	if failed >= len(inputs) {
		return fmt.Errorf("all %d inputs failed", len(inputs))
	}
	return nil
}

// process extracts one document. On failure the outline carries a
// best-effort title and no entries.
func (c *ExtractCmd) process(env *Env, ext *heading.Extractor, path string) (res outcome) {
	res = outcome{
		path:    path,
		outline: doctree.Outline{Title: ext.Config().Title.Placeholder, Outline: []doctree.Entry{}},
	}
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("panic: %v", r)
		}
	}()

	log := env.Log.With("path", path)
	doc, err := env.ParseFile(path)
	if err != nil {
		res.err = err
		return res
	}
	log.Debug("parsed", "pages", doc.PageCount(), "lines", len(doc.Lines()))

	r, err := ext.Extract(doc)
	if r.Title.Text != "" {
		res.outline.Title = r.Title.Text
	}
	if err != nil {
		res.err = err
		return res
	}
	res.outline = doctree.FromResult(r, c.PageBase)
	log.Debug("extracted",
		"title_source", r.Title.Source,
		"headings", len(r.Outline),
		"raw_candidates", r.Diagnostics.RawCandidates,
		"degraded_baseline", r.Diagnostics.DegradedBaseline)

	if c.Sections && c.Output != "" {
		sections := chunker.Sections(doc, res.outline.Title, r.Outline, c.PageBase)
		if err := writeJSONFile(filepath.Join(c.Output, baseName(path)+".sections.json"), sections); err != nil {
			log.Warn("sections write failed", "error", err)
		}
	}
	return res
}

func (c *ExtractCmd) write(env *Env, path string, o doctree.Outline) error {
	var body []byte
	var ext string
	switch c.Format {
	case "markdown":
		body, ext = []byte(doctree.RenderMarkdown(o)), ".md"
	case "html":
		html, err := doctree.RenderHTML(o)
		if err != nil {
			return err
		}
		body, ext = []byte(html), ".html"
	default:
		b, err := o.Marshal(true)
		if err != nil {
			return err
		}
		body, ext = b, ".json"
	}

	if c.Output == "" {
		_, err := env.Stdout.Write(body)
		return err
	}
	return writeFileAtomic(filepath.Join(c.Output, baseName(path)+ext), body)
}

// expandPaths replaces each directory with the PDF files directly inside
// it, sorted by name. Missing paths are kept so they fail individually.
func expandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", p, err)
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() && parser.IsSupportedExtension(e.Name()) {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeJSONFile(path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(body, '\n'))
}

func writeFileAtomic(path string, body []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
