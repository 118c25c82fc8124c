package stats

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Interval is a two-sided confidence interval.
type Interval struct {
	Low  float64
	High float64
}

// BootstrapMeanBCa returns a bias-corrected and accelerated bootstrap
// confidence interval for the mean of x. ok is false when fewer than two
// values are given or the interval is undefined.
func BootstrapMeanBCa(x []float64, resamples int, confidence float64, rnd *rand.Rand) (Interval, bool) {
	n := len(x)
	if n < 2 || resamples < 1 {
		return Interval{}, false
	}
	if floats.Max(x) == floats.Min(x) {
		return Interval{Low: x[0], High: x[0]}, true
	}

	theta := stat.Mean(x, nil)
	boot := make([]float64, resamples)
	for b := range boot {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x[rnd.Intn(n)]
		}
		boot[b] = sum / float64(n)
	}
	sort.Float64s(boot)

	// Bias correction from the share of resampled means below the estimate,
	// counting ties as half.
	below := sort.SearchFloat64s(boot, theta)
	atOrBelow := sort.Search(len(boot), func(i int) bool { return boot[i] > theta })
	share := float64(below+atOrBelow) / float64(2*resamples)
	if share <= 0 || share >= 1 {
		return Interval{}, false
	}
	z0 := distuv.UnitNormal.Quantile(share)

	// Acceleration from the jackknife.
	total := floats.Sum(x)
	jack := make([]float64, n)
	for i, v := range x {
		jack[i] = (total - v) / float64(n-1)
	}
	jackMean := stat.Mean(jack, nil)
	var num, den float64
	for _, j := range jack {
		d := jackMean - j
		num += d * d * d
		den += d * d
	}
	a := 0.0
	if den > 0 {
		a = num / (6 * math.Pow(den, 1.5))
	}

	alpha := (1 - confidence) / 2
	adjust := func(p float64) float64 {
		zp := distuv.UnitNormal.Quantile(p)
		return distuv.UnitNormal.CDF(z0 + (z0+zp)/(1-a*(z0+zp)))
	}
	lo := adjust(alpha)
	hi := adjust(1 - alpha)
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return Interval{}, false
	}
	return Interval{Low: Percentile(boot, lo), High: Percentile(boot, hi)}, true
}
