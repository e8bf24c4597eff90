package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/pdfoutline/internal/heading"
	"gopkg.in/yaml.v3"
)

// LoadHeuristics returns the default thresholds overlaid with the YAML file
// at path. An empty path yields the defaults. Unknown keys are rejected.
func LoadHeuristics(path string) (heading.Config, error) {
	cfg := heading.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read heuristics %s: %w", path, err)
	}
	return ParseHeuristics(data)
}

// ParseHeuristics overlays YAML data on the default thresholds.
func ParseHeuristics(data []byte) (heading.Config, error) {
	cfg := heading.DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse heuristics: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid heuristics: %w", err)
	}
	return cfg, nil
}
