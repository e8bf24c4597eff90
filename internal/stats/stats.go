// Package stats keeps a rolling window of extraction latencies and outcomes.
package stats

import (
	"slices"
	"sync"
	"time"
)

// Outcome classifies a finished extraction.
type Outcome string

const (
	OutcomeOutline Outcome = "outline" // at least one heading
	OutcomeEmpty   Outcome = "empty"   // no outline extractable
	OutcomeFailed  Outcome = "failed"
)

type sample struct {
	at      time.Time
	ms      int64
	outcome Outcome
}

// Snapshot aggregates the samples inside the window.
type Snapshot struct {
	Count    int             `json:"count"`
	MinMs    int64           `json:"min_ms"`
	MaxMs    int64           `json:"max_ms"`
	AvgMs    float64         `json:"avg_ms"`
	P50Ms    float64         `json:"p50_ms"`
	P95Ms    float64         `json:"p95_ms"`
	P99Ms    float64         `json:"p99_ms"`
	Outcomes map[Outcome]int `json:"outcomes"`
}

// Extraction tracks recent extraction calls within a rolling window.
type Extraction struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewExtraction(window time.Duration) *Extraction {
	if window <= 0 {
		window = time.Hour
	}
	return &Extraction{
		samples: make([]sample, 0, 256),
		window:  window,
		now:     time.Now,
	}
}

// Record adds one extraction. Negative durations count as zero.
func (s *Extraction) Record(d time.Duration, outcome Outcome) {
	ms := max(d.Milliseconds(), 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, ms: ms, outcome: outcome})
}

func (s *Extraction) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	snap := Snapshot{Outcomes: make(map[Outcome]int)}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, len(s.samples))
	var sum int64
	for i, sm := range s.samples {
		values[i] = sm.ms
		sum += sm.ms
		snap.Outcomes[sm.outcome]++
	}
	slices.Sort(values)

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Extraction) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + (float64(sorted[lo+1])-float64(sorted[lo]))*frac
}
