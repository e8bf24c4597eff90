package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// unknownSuffix names the bucket for categories unseen at fit time.
const unknownSuffix = "unknown"

// Encoder one-hot encodes CategoricalColumns from fitted category lists.
type Encoder struct {
	Version    int                 `json:"version"`
	Categories map[string][]string `json:"categories"`

	index map[string]map[string]int
}

// FitEncoder collects the sorted distinct categories of each column.
func FitEncoder(rows []Features) *Encoder {
	e := &Encoder{Version: SchemaVersion, Categories: make(map[string][]string)}
	for _, col := range CategoricalColumns {
		seen := make(map[string]bool)
		var vals []string
		for _, r := range rows {
			v := r.Category(col)
			if !seen[v] {
				seen[v] = true
				vals = append(vals, v)
			}
		}
		sort.Strings(vals)
		e.Categories[col] = vals
	}
	e.buildIndex()
	return e
}

func (e *Encoder) buildIndex() {
	e.index = make(map[string]map[string]int, len(e.Categories))
	for col, vals := range e.Categories {
		m := make(map[string]int, len(vals))
		for i, v := range vals {
			m[v] = i
		}
		e.index[col] = m
	}
}

// Columns returns the encoded column names: for each categorical column,
// one "<col>_<value>" per fitted value followed by "<col>_unknown".
func (e *Encoder) Columns() []string {
	var out []string
	for _, col := range CategoricalColumns {
		for _, v := range e.Categories[col] {
			out = append(out, col+"_"+v)
		}
		out = append(out, col+"_"+unknownSuffix)
	}
	return out
}

// Encode returns the one-hot vector of f, aligned with Columns.
func (e *Encoder) Encode(f Features) []float64 {
	var out []float64
	for _, col := range CategoricalColumns {
		vals := e.Categories[col]
		vec := make([]float64, len(vals)+1)
		if i, ok := e.index[col][f.Category(col)]; ok {
			vec[i] = 1
		} else {
			vec[len(vals)] = 1
		}
		out = append(out, vec...)
	}
	return out
}

// LoadEncoder reads a persisted encoder. A missing file is reported with an
// error satisfying errors.Is(err, os.ErrNotExist).
func LoadEncoder(path string) (*Encoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Encoder
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode encoder %s: %w", path, err)
	}
	if e.Version != SchemaVersion {
		return nil, fmt.Errorf("encoder %s: schema version %d, want %d", path, e.Version, SchemaVersion)
	}
	if e.Categories == nil {
		e.Categories = make(map[string][]string)
	}
	e.buildIndex()
	return &e, nil
}

// Save writes the encoder atomically.
func (e *Encoder) Save(path string) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// EncoderCache loads the persisted encoder on first use, or fits and persists
// one from the first candidate set when none exists. Fitting happens at most
// once; afterwards the encoder is read-only.
type EncoderCache struct {
	path string
	log  *slog.Logger

	mu  sync.Mutex
	enc *Encoder
}

// NewEncoderCache returns a cache backed by path. An empty path keeps the
// fitted encoder in memory only.
func NewEncoderCache(path string, log *slog.Logger) *EncoderCache {
	if log == nil {
		log = slog.Default()
	}
	return &EncoderCache{path: path, log: log}
}

// Get returns the encoder, fitting it on rows if needed.
func (c *EncoderCache) Get(rows []Features) (*Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enc != nil {
		return c.enc, nil
	}
	if c.path != "" {
		enc, err := LoadEncoder(c.path)
		switch {
		case err == nil:
			c.enc = enc
			return enc, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	enc := FitEncoder(rows)
	if c.path != "" {
		if err := enc.Save(c.path); err != nil {
			return nil, fmt.Errorf("persist encoder: %w", err)
		}
	}
	c.log.Info("encoder fitted", "path", c.path, "rows", len(rows),
		"font_names", len(enc.Categories["font_name"]), "alignments", len(enc.Categories["alignment"]))
	c.enc = enc
	return enc, nil
}
