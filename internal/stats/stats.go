// Package stats contains statistics calculations and reporting.
package stats

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/respire/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Description is a column summary in the layout of a describe table.
type Description struct {
	Count  int
	Mean   float64
	Std    model.Measure
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
}

// Describe summarizes values. Std is the sample standard deviation and is
// missing for fewer than two values.
func Describe(values []float64) (Description, error) {
	if len(values) == 0 {
		return Description{}, model.ErrInsufficientData
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	d := Description{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Q25:    Percentile(sorted, 0.25),
		Median: Percentile(sorted, 0.5),
		Q75:    Percentile(sorted, 0.75),
		Max:    floats.Max(sorted),
	}
	if len(sorted) > 1 {
		d.Std = model.Some(stat.StdDev(sorted, nil))
	}
	return d, nil
}

// DescribeMeasures summarizes the present values, skipping missing ones.
func DescribeMeasures(values []model.Measure) (Description, error) {
	return Describe(Present(values))
}

// Present returns the valid values in order.
func Present(values []model.Measure) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	return out
}

// Percentile returns the p-quantile of sorted values using linear
// interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Slope returns the ordinary least squares slope of y against x.
func Slope(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, model.ErrInsufficientData
	}
	if floats.Max(x) == floats.Min(x) {
		return 0, model.ErrInsufficientData
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta, nil
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := floats.Min(values)
	maxVal := floats.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Downsample averages values into at most width buckets.
func Downsample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		out[i] = stat.Mean(values[start:end], nil)
	}
	return out
}
