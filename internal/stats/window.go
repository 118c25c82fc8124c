package stats

import (
	"math"

	"github.com/verte-zerg/respire/internal/model"
)

// windowBounds returns the clipped [lo, hi) range of a centered window of the
// given width at position i. For even widths the window covers i-w/2 through
// i+w/2-1.
func windowBounds(i, window, n int) (lo, hi int) {
	lo = i - window/2
	hi = lo + window
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// CenteredSum computes a centered sliding sum. A window that touches a
// missing value yields a missing result; positions beyond the ends of the
// series are ignored.
func CenteredSum(values []model.Measure, window int) []model.Measure {
	n := len(values)
	out := make([]model.Measure, n)
	if n == 0 || window <= 0 {
		return out
	}
	sums := make([]float64, n+1)
	missing := make([]int, n+1)
	for i, v := range values {
		sums[i+1] = sums[i]
		missing[i+1] = missing[i]
		if v.Valid {
			sums[i+1] += v.Value
		} else {
			missing[i+1]++
		}
	}
	for i := 0; i < n; i++ {
		lo, hi := windowBounds(i, window, n)
		if missing[hi]-missing[lo] > 0 {
			continue
		}
		out[i] = model.Some(sums[hi] - sums[lo])
	}
	return out
}

// CenteredMean computes a centered rolling mean over present values. A
// position produces output when at least minPeriods values in its window are
// present.
func CenteredMean(values []model.Measure, window, minPeriods int) []model.Measure {
	n := len(values)
	out := make([]model.Measure, n)
	if n == 0 || window <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	sums := make([]float64, n+1)
	counts := make([]int, n+1)
	for i, v := range values {
		sums[i+1] = sums[i]
		counts[i+1] = counts[i]
		if v.Valid {
			sums[i+1] += v.Value
			counts[i+1]++
		}
	}
	for i := 0; i < n; i++ {
		lo, hi := windowBounds(i, window, n)
		c := counts[hi] - counts[lo]
		if c < minPeriods {
			continue
		}
		out[i] = model.Some((sums[hi] - sums[lo]) / float64(c))
	}
	return out
}

// GaussianWindow returns symmetric Gaussian weights of the given width.
func GaussianWindow(window int, std float64) []float64 {
	w := make([]float64, window)
	center := float64(window-1) / 2
	for k := range w {
		d := (float64(k) - center) / std
		w[k] = math.Exp(-0.5 * d * d)
	}
	return w
}

// GaussianMean computes a centered Gaussian-weighted rolling mean over
// present values, renormalizing the weights of the present points.
func GaussianMean(values []model.Measure, window int, std float64, minPeriods int) []model.Measure {
	n := len(values)
	out := make([]model.Measure, n)
	if n == 0 || window <= 0 || std <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	weights := GaussianWindow(window, std)
	for i := 0; i < n; i++ {
		start := i - window/2
		var num, den float64
		count := 0
		for k, w := range weights {
			j := start + k
			if j < 0 || j >= n || !values[j].Valid {
				continue
			}
			num += w * values[j].Value
			den += w
			count++
		}
		if count < minPeriods || den == 0 {
			continue
		}
		out[i] = model.Some(num / den)
	}
	return out
}
