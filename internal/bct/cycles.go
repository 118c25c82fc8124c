package bct

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/respire/internal/model"
)

// SummarizeCycles computes per-cycle response-time descriptives and the
// cycle accuracy. Presses must be ordered by cycle.
func SummarizeCycles(subject string, presses []model.Press) ([]model.CycleSummary, error) {
	var out []model.CycleSummary
	for start := 0; start < len(presses); {
		end := start + 1
		for end < len(presses) && presses[end].Cycle == presses[start].Cycle {
			end++
		}
		cycle := presses[start:end]
		acc, err := CycleAccuracy(cycle)
		if err != nil {
			return nil, err
		}
		rts := make([]float64, len(cycle))
		for i, p := range cycle {
			rts[i] = p.ResponseTimeMs
		}
		summary := model.CycleSummary{
			Subject:          subject,
			Cycle:            cycle[0].Cycle,
			Presses:          len(cycle),
			ResponseTimeMean: stat.Mean(rts, nil),
			Accuracy:         acc,
		}
		if len(rts) > 1 {
			summary.ResponseTimeStd = model.Some(stat.StdDev(rts, nil))
		}
		out = append(out, summary)
		start = end
	}
	return out, nil
}

// SummarizeSubject averages a subject's cycles. CorrectRate is the share of
// cycles labeled correct.
func SummarizeSubject(subject string, cycles []model.CycleSummary) (model.CycleStats, error) {
	if len(cycles) == 0 {
		return model.CycleStats{}, fmt.Errorf("%w: no complete cycles", model.ErrInsufficientData)
	}
	var correct int
	means := make([]float64, 0, len(cycles))
	var stds []float64
	for _, c := range cycles {
		if c.Accuracy == model.AccuracyCorrect {
			correct++
		}
		means = append(means, c.ResponseTimeMean)
		if c.ResponseTimeStd.Valid {
			stds = append(stds, c.ResponseTimeStd.Value)
		}
	}
	out := model.CycleStats{
		Subject:          subject,
		Cycles:           len(cycles),
		CorrectRate:      float64(correct) / float64(len(cycles)),
		ResponseTimeMean: stat.Mean(means, nil),
	}
	if len(stds) > 0 {
		out.ResponseTimeStd = model.Some(stat.Mean(stds, nil))
	}
	return out, nil
}
