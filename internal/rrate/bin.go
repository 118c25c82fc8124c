// Package rrate estimates respiration rate from breath-counting presses.
package rrate

import (
	"math"

	"github.com/verte-zerg/respire/internal/model"
)

// BinOf returns the index of the bin holding a press at t milliseconds.
// Bins are right-closed: bin k covers (k*width, (k+1)*width], except that
// bin 0 also holds a press at exactly 0. ok is false for times outside the
// task span.
func BinOf(t float64, cfg model.Config) (int, bool) {
	if t < 0 || t > cfg.SpanMs {
		return 0, false
	}
	k := int(math.Ceil(t/cfg.BinWidthMs)) - 1
	if k < 0 {
		k = 0
	}
	if n := cfg.Bins(); k >= n {
		k = n - 1
	}
	return k, true
}

// Bin counts a subject's presses per time bin. Bins up to and including the
// bin of the last press are in-session (zero when empty); later bins are
// missing.
func Bin(subject string, cumulativeMs []float64, cfg model.Config) model.CountRow {
	row := model.CountRow{Subject: subject, Cells: make([]model.Cell, cfg.Bins())}
	last := -1
	for _, t := range cumulativeMs {
		if t > cfg.SpanMs {
			last = len(row.Cells) - 1
			continue
		}
		if k, ok := BinOf(t, cfg); ok && k > last {
			last = k
		}
	}
	for k := 0; k <= last; k++ {
		row.Cells[k].State = model.CellZero
	}
	for _, t := range cumulativeMs {
		k, ok := BinOf(t, cfg)
		if !ok {
			continue
		}
		row.Cells[k].State = model.CellCount
		row.Cells[k].Count++
	}
	return row
}
