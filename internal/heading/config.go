package heading

import (
	"errors"
	"fmt"
)

// Config holds every tunable threshold of the outline engine. The zero value
// is not usable; start from DefaultConfig.
type Config struct {
	Body    BodyConfig   `yaml:"body"`
	Zones   ZoneConfig   `yaml:"zones"`
	Title   TitleConfig  `yaml:"title"`
	Score   ScoreConfig  `yaml:"score"`
	Filters FilterConfig `yaml:"filters"`
}

type BodyConfig struct {
	MinChars    int     `yaml:"min_chars"`
	DefaultSize float64 `yaml:"default_size"`
	DefaultFont string  `yaml:"default_font"`
}

type ZoneConfig struct {
	BandRatio       float64 `yaml:"band_ratio"`
	RecurrenceRatio float64 `yaml:"recurrence_ratio"`
	MinPages        int     `yaml:"min_pages"`
	LeaderRun       int     `yaml:"leader_run"`
	LeaderRatio     float64 `yaml:"leader_ratio"`
	TOCMinLines     int     `yaml:"toc_min_lines"`
}

type TitleConfig struct {
	BandRatio       float64  `yaml:"band_ratio"`
	MaxY            float64  `yaml:"max_y"`
	GapFactor       float64  `yaml:"gap_factor"`
	SizeWeight      float64  `yaml:"size_weight"`
	Placeholder     string   `yaml:"placeholder"`
	GenericPrefixes []string `yaml:"generic_prefixes"`
}

type ScoreConfig struct {
	TopMargin    float64 `yaml:"top_margin"`
	BottomMargin float64 `yaml:"bottom_margin"`
	MinChars     int     `yaml:"min_chars"`
	MaxChars     int     `yaml:"max_chars"`

	RatioHigh    float64 `yaml:"ratio_high"`
	RatioMid     float64 `yaml:"ratio_mid"`
	RatioLow     float64 `yaml:"ratio_low"`
	PointsHigh   int     `yaml:"points_high"`
	PointsMid    int     `yaml:"points_mid"`
	PointsLow    int     `yaml:"points_low"`
	BoldPoints   int     `yaml:"bold_points"`
	FontPoints   int     `yaml:"font_points"`
	CenterPoints int     `yaml:"center_points"`

	H1 int `yaml:"h1"`
	H2 int `yaml:"h2"`
	H3 int `yaml:"h3"`

	IndentTolerance float64 `yaml:"indent_tolerance"`
}

type FilterConfig struct {
	DateResidual    int     `yaml:"date_residual"`
	FormMinCount    int     `yaml:"form_min_count"`
	FormShortWords  int     `yaml:"form_short_words"`
	FormShortRatio  float64 `yaml:"form_short_ratio"`
	FormUniqueRatio float64 `yaml:"form_unique_ratio"`
	MaxLevel        int     `yaml:"max_level"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		Body: BodyConfig{
			MinChars:    80,
			DefaultSize: 12,
			DefaultFont: "default",
		},
		Zones: ZoneConfig{
			BandRatio:       0.12,
			RecurrenceRatio: 0.7,
			MinPages:        2,
			LeaderRun:       5,
			LeaderRatio:     0.3,
			TOCMinLines:     5,
		},
		Title: TitleConfig{
			BandRatio:       0.3,
			MaxY:            400,
			GapFactor:       1.5,
			SizeWeight:      1.2,
			Placeholder:     "Untitled Document",
			GenericPrefixes: []string{"microsoft word", "untitled"},
		},
		Score: ScoreConfig{
			TopMargin:       50,
			BottomMargin:    52,
			MinChars:        3,
			MaxChars:        150,
			RatioHigh:       1.35,
			RatioMid:        1.15,
			RatioLow:        1.05,
			PointsHigh:      12,
			PointsMid:       7,
			PointsLow:       2,
			BoldPoints:      5,
			FontPoints:      2,
			CenterPoints:    3,
			H1:              17,
			H2:              11,
			H3:              7,
			IndentTolerance: 5,
		},
		Filters: FilterConfig{
			DateResidual:    5,
			FormMinCount:    8,
			FormShortWords:  5,
			FormShortRatio:  0.7,
			FormUniqueRatio: 0.7,
			MaxLevel:        3,
		},
	}
}

// Validate checks that the thresholds are internally consistent.
func (c Config) Validate() error {
	var errs []error
	if c.Body.DefaultSize <= 0 {
		errs = append(errs, errors.New("body.default_size must be positive"))
	}
	if r := c.Zones.BandRatio; r <= 0 || r >= 0.5 {
		errs = append(errs, fmt.Errorf("zones.band_ratio must be in (0, 0.5), got %v", r))
	}
	if r := c.Zones.RecurrenceRatio; r <= 0 || r > 1 {
		errs = append(errs, fmt.Errorf("zones.recurrence_ratio must be in (0, 1], got %v", r))
	}
	if c.Zones.LeaderRun < 2 {
		errs = append(errs, errors.New("zones.leader_run must be at least 2"))
	}
	if c.Title.GapFactor <= 0 {
		errs = append(errs, errors.New("title.gap_factor must be positive"))
	}
	if c.Score.MinChars > c.Score.MaxChars {
		errs = append(errs, fmt.Errorf("score.min_chars (%d) exceeds score.max_chars (%d)", c.Score.MinChars, c.Score.MaxChars))
	}
	if !(c.Score.RatioHigh > c.Score.RatioMid && c.Score.RatioMid > c.Score.RatioLow) {
		errs = append(errs, errors.New("score ratio bands must be strictly decreasing (high > mid > low)"))
	}
	if !(c.Score.H1 > c.Score.H2 && c.Score.H2 > c.Score.H3 && c.Score.H3 > 0) {
		errs = append(errs, errors.New("score level thresholds must satisfy h1 > h2 > h3 > 0"))
	}
	if c.Filters.MaxLevel < 1 || c.Filters.MaxLevel > MaxLevel {
		errs = append(errs, fmt.Errorf("filters.max_level must be in [1, %d]", MaxLevel))
	}
	return errors.Join(errs...)
}
