package rrate

import (
	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/stats"
)

// Estimate turns a subject's count row into a respiration-rate series.
//
// A centered sliding sum over cfg.Window bins gives presses per window; any
// window touching a missing bin is missing. The first and last TrimWidth bins
// are dropped because their windows are partial. A centered rolling mean of
// the same width, requiring one present point, then smooths the remainder.
// Values are expressed per minute.
func Estimate(row model.CountRow, cfg model.Config) model.RateSeries {
	trim := cfg.TrimWidth()
	out := model.RateSeries{Subject: row.Subject, Offset: trim}
	n := len(row.Cells)
	if n <= 2*trim {
		return out
	}

	counts := make([]model.Measure, n)
	for i, c := range row.Cells {
		if c.Valid() {
			counts[i] = model.Some(float64(c.Count))
		}
	}
	perMinute := 60000 / (float64(cfg.Window) * cfg.BinWidthMs)
	sums := stats.CenteredSum(counts, cfg.Window)
	for i := range sums {
		if sums[i].Valid {
			sums[i].Value *= perMinute
		}
	}

	out.Values = stats.CenteredMean(sums[trim:n-trim], cfg.Window, 1)
	return out
}
