package rrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func rateSeries(subject string, offset int, values ...model.Measure) model.RateSeries {
	return model.RateSeries{Subject: subject, Offset: offset, Values: values}
}

func testConfig() model.Config {
	cfg := model.DefaultConfig()
	cfg.Resamples = 500
	cfg.Window = 4
	cfg.GaussianStd = 1
	return cfg
}

func TestGroupMeanAndInterval(t *testing.T) {
	cfg := testConfig()
	in := []model.RateSeries{
		rateSeries("sub-001", 10, model.Some(10), model.Some(12), model.Some(14)),
		rateSeries("sub-002", 10, model.Some(14), model.Some(12), model.Measure{}),
		rateSeries("sub-003", 11, model.Some(12), model.Some(20)),
	}
	points, err := Group(context.Background(), in, cfg)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 10, points[0].Bin)
	assert.Equal(t, 2, points[0].N)
	assert.InDelta(t, 12.0, points[0].Mean.Value, 1e-9)
	require.True(t, points[0].CILow.Valid)
	assert.LessOrEqual(t, points[0].CILow.Value, points[0].Mean.Value)
	assert.GreaterOrEqual(t, points[0].CIHigh.Value, points[0].Mean.Value)

	// every subject agrees at bin 11
	assert.Equal(t, 3, points[1].N)
	assert.Equal(t, model.Some(12), points[1].Mean)
	assert.Equal(t, model.Some(12), points[1].CILow)
	assert.Equal(t, model.Some(12), points[1].CIHigh)

	assert.Equal(t, 2, points[2].N)
	assert.InDelta(t, 17.0, points[2].Mean.Value, 1e-9)
	assert.GreaterOrEqual(t, points[2].CILow.Value, 14.0)
	assert.LessOrEqual(t, points[2].CIHigh.Value, 20.0)
}

func TestGroupSingleSubjectHasNoInterval(t *testing.T) {
	points, err := Group(context.Background(), []model.RateSeries{
		rateSeries("sub-001", 0, model.Some(8), model.Measure{}),
	}, testConfig())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, model.Some(8), points[0].Mean)
	assert.False(t, points[0].CILow.Valid)
	assert.Equal(t, 0, points[1].N)
	assert.False(t, points[1].Mean.Valid)
}

func TestGroupIsReproducible(t *testing.T) {
	cfg := testConfig()
	in := []model.RateSeries{
		rateSeries("sub-001", 0, model.Some(10), model.Some(11), model.Some(19)),
		rateSeries("sub-002", 0, model.Some(13), model.Some(15), model.Some(12)),
		rateSeries("sub-003", 0, model.Some(9), model.Some(16), model.Some(14)),
	}
	first, err := Group(context.Background(), in, cfg)
	require.NoError(t, err)
	second, err := Group(context.Background(), in, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGroupEmpty(t *testing.T) {
	points, err := Group(context.Background(), nil, testConfig())
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestGroupCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Group(ctx, []model.RateSeries{rateSeries("sub-001", 0, model.Some(1), model.Some(2))}, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSmoothKeepsConstantSeries(t *testing.T) {
	cfg := testConfig()
	points := make([]model.GroupPoint, 8)
	for i := range points {
		points[i] = model.GroupPoint{Bin: i, N: 3, Mean: model.Some(15), CILow: model.Some(14), CIHigh: model.Some(16)}
	}
	points[3].CILow = model.Measure{}
	smooth := Smooth(points, cfg)
	require.Len(t, smooth, len(points))
	for i, p := range smooth {
		assert.Equal(t, i, p.Bin)
		assert.InDelta(t, 15.0, p.Mean.Value, 1e-9)
		assert.InDelta(t, 14.0, p.CILow.Value, 1e-9)
		assert.InDelta(t, 16.0, p.CIHigh.Value, 1e-9)
	}
}
