package rrate

import (
	"fmt"

	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/stats"
)

// Summarize computes a subject's descriptives over the present points of the
// series.
//
// Slope regresses the rate on the position within the present points
// (0..k-1), so subjects with gaps are compared per valid point rather than
// per unit time. SlopeTime regresses on the absolute bin index instead and is
// reported alongside for validation.
func Summarize(series model.RateSeries) (model.RateSummary, error) {
	bins, values := series.ValidPoints()
	if len(values) < 2 {
		return model.RateSummary{}, fmt.Errorf("%w: %d valid rate points", model.ErrInsufficientData, len(values))
	}
	d, err := stats.Describe(values)
	if err != nil {
		return model.RateSummary{}, err
	}
	index := make([]float64, len(values))
	for i := range index {
		index[i] = float64(i)
	}
	slope, err := stats.Slope(index, values)
	if err != nil {
		return model.RateSummary{}, err
	}
	slopeTime, err := stats.Slope(bins, values)
	if err != nil {
		return model.RateSummary{}, err
	}
	return model.RateSummary{
		Subject:   series.Subject,
		Count:     d.Count,
		Mean:      d.Mean,
		Std:       d.Std.Value,
		Min:       d.Min,
		Q25:       d.Q25,
		Median:    d.Median,
		Q75:       d.Q75,
		Max:       d.Max,
		Slope:     slope,
		SlopeTime: slopeTime,
	}, nil
}
