package rrate

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/stats"
)

// Group computes the across-subject mean and a BCa bootstrap confidence
// interval at every bin covered by any series. Each bin is resampled
// independently from a source seeded with cfg.Seed plus the bin index, so the
// result does not depend on scheduling.
func Group(ctx context.Context, series []model.RateSeries, cfg model.Config) ([]model.GroupPoint, error) {
	if len(series) == 0 {
		return nil, nil
	}
	first, end := series[0].Offset, series[0].Offset+len(series[0].Values)
	for _, s := range series[1:] {
		if s.Offset < first {
			first = s.Offset
		}
		if e := s.Offset + len(s.Values); e > end {
			end = e
		}
	}
	if end <= first {
		return nil, nil
	}

	points := make([]model.GroupPoint, end-first)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range points {
		bin := first + i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			points[bin-first] = groupPoint(bin, series, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func groupPoint(bin int, series []model.RateSeries, cfg model.Config) model.GroupPoint {
	values := make([]float64, 0, len(series))
	for _, s := range series {
		i := bin - s.Offset
		if i < 0 || i >= len(s.Values) || !s.Values[i].Valid {
			continue
		}
		values = append(values, s.Values[i].Value)
	}
	p := model.GroupPoint{Bin: bin, N: len(values)}
	if len(values) == 0 {
		return p
	}
	p.Mean = model.Some(stat.Mean(values, nil))
	rnd := rand.New(rand.NewSource(cfg.Seed + int64(bin)))
	if ci, ok := stats.BootstrapMeanBCa(values, cfg.Resamples, cfg.Confidence, rnd); ok {
		p.CILow = model.Some(ci.Low)
		p.CIHigh = model.Some(ci.High)
	}
	return p
}

// Smooth applies a Gaussian-weighted centered mean to the group mean and
// interval bounds for display.
func Smooth(points []model.GroupPoint, cfg model.Config) []model.GroupPoint {
	mean := make([]model.Measure, len(points))
	lo := make([]model.Measure, len(points))
	hi := make([]model.Measure, len(points))
	for i, p := range points {
		mean[i], lo[i], hi[i] = p.Mean, p.CILow, p.CIHigh
	}
	mean = stats.GaussianMean(mean, cfg.Window, cfg.GaussianStd, 1)
	lo = stats.GaussianMean(lo, cfg.Window, cfg.GaussianStd, 1)
	hi = stats.GaussianMean(hi, cfg.Window, cfg.GaussianStd, 1)

	out := make([]model.GroupPoint, len(points))
	for i, p := range points {
		out[i] = model.GroupPoint{Bin: p.Bin, N: p.N, Mean: mean[i], CILow: lo[i], CIHigh: hi[i]}
	}
	return out
}
