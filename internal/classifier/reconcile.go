package classifier

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaMismatch marks a difference between the extracted feature columns
// and the columns a model expects. It is recovered by Reconcile.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Drift lists the columns Reconcile had to fill or drop.
type Drift struct {
	Missing []string // expected by the model, zero-filled
	Extra   []string // produced by the extractor, dropped
}

func (d Drift) Empty() bool { return len(d.Missing) == 0 && len(d.Extra) == 0 }

// Err returns the drift wrapped in ErrSchemaMismatch, or nil.
func (d Drift) Err() error {
	if d.Empty() {
		return nil
	}
	return fmt.Errorf("%w: missing [%s], extra [%s]", ErrSchemaMismatch,
		strings.Join(d.Missing, " "), strings.Join(d.Extra, " "))
}

// Reconcile reorders rows from columns into expected: missing columns are
// zero-filled and extra columns dropped.
func Reconcile(columns []string, rows [][]float64, expected []string) ([][]float64, Drift) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}

	var d Drift
	want := make(map[string]bool, len(expected))
	src := make([]int, len(expected))
	for i, c := range expected {
		want[c] = true
		if p, ok := pos[c]; ok {
			src[i] = p
		} else {
			src[i] = -1
			d.Missing = append(d.Missing, c)
		}
	}
	for _, c := range columns {
		if !want[c] {
			d.Extra = append(d.Extra, c)
		}
	}

	out := make([][]float64, len(rows))
	for r, row := range rows {
		v := make([]float64, len(expected))
		for i, p := range src {
			if p >= 0 {
				v[i] = row[p]
			}
		}
		out[r] = v
	}
	return out, d
}
