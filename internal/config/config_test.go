package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "PAGE_BASE", "JOB_TTL", "DB_PATH"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.PageBase != 1 || cfg.JobTTL != time.Hour {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("PAGE_BASE", "0")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("MAX_QUEUE_SIZE", "-3")
	cfg := Load()
	if cfg.WorkerCount != 8 || cfg.PageBase != 0 || cfg.JobTTL != 15*time.Minute {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MaxQueueSize != 100 {
		t.Errorf("expected invalid queue size to reset to 100, got %d", cfg.MaxQueueSize)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{APIKey: "k", DBPath: "x.db", PageBase: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.PageBase = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected page base error")
	}
	if err := (Config{DBPath: "x.db"}).Validate(); err == nil {
		t.Error("expected missing api key error")
	}
}

func TestParseHeuristics_Overlay(t *testing.T) {
	cfg, err := ParseHeuristics([]byte(`
zones:
  recurrence_ratio: 0.5
score:
  h1: 20
filters:
  form_min_count: 12
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Zones.RecurrenceRatio != 0.5 || cfg.Score.H1 != 20 || cfg.Filters.FormMinCount != 12 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Score.H2 != 11 || cfg.Zones.BandRatio != 0.12 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestParseHeuristics_Empty(t *testing.T) {
	cfg, err := ParseHeuristics(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Score.H3 != 7 {
		t.Errorf("expected defaults, got %+v", cfg.Score)
	}
}

func TestParseHeuristics_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":  "score:\n  h9: 1\n",
		"bad ordering": "score:\n  h1: 5\n",
		"bad ratio":    "zones:\n  band_ratio: 0.9\n",
		"malformed":    "score: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseHeuristics([]byte(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadHeuristics_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	if err := os.WriteFile(path, []byte("title:\n  placeholder: Untitled\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadHeuristics(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Title.Placeholder != "Untitled" {
		t.Errorf("expected placeholder override, got %q", cfg.Title.Placeholder)
	}

	_, err = LoadHeuristics(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read heuristics") {
		t.Errorf("expected read error, got %v", err)
	}
}
