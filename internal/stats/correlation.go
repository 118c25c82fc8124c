package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/respire/internal/model"
)

// MaxAbsR bounds the correlation fed to the Fisher transform so a perfect
// correlation maps to a finite value.
const MaxAbsR = 1 - 1e-7

// ZScore standardizes values using the population standard deviation.
func ZScore(values []float64) ([]float64, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: %d samples", model.ErrInsufficientData, len(values))
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, fmt.Errorf("%w: zero variance", model.ErrDegenerateSeries)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out, nil
}

// Rank assigns 1-based ranks, giving tied values their average rank.
func Rank(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

// Spearman returns the rank correlation of x and y.
func Spearman(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return 0, fmt.Errorf("%w: %d samples", model.ErrInsufficientData, len(x))
	}
	r := stat.Correlation(Rank(x), Rank(y), nil)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: constant ranks", model.ErrDegenerateSeries)
	}
	return r, nil
}

// Fisher applies the inverse hyperbolic tangent. Coefficients at or beyond
// MaxAbsR are clamped and reported as saturated.
func Fisher(r float64) (z float64, saturated bool) {
	if r >= MaxAbsR {
		return math.Atanh(MaxAbsR), true
	}
	if r <= -MaxAbsR {
		return math.Atanh(-MaxAbsR), true
	}
	return math.Atanh(r), false
}
