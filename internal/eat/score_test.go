package eat

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/stats"
)

func TestCorrelateIdenticalSeriesSaturates(t *testing.T) {
	series := []float64{1, 4, 2, 8, 5, 7}
	c, err := Correlate(series, series)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-12)
	assert.True(t, c.Saturated)
	assert.False(t, math.IsInf(c.Z, 0))
	assert.InDelta(t, math.Atanh(stats.MaxAbsR), c.Z, 1e-12)
	assert.Equal(t, 6, c.N)
}

func TestCorrelateTruncatesToShorter(t *testing.T) {
	ratings := []float64{1, 2, 3, 4, 100, -100}
	reference := []float64{10, 20, 30, 40}
	c, err := Correlate(ratings, reference)
	require.NoError(t, err)
	assert.Equal(t, 4, c.N)
	assert.True(t, c.Saturated)
}

func TestCorrelateRankBased(t *testing.T) {
	// monotone but nonlinear
	c, err := Correlate([]float64{1, 2, 3, 4, 5}, []float64{1, 8, 27, 64, 125})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-12)

	c, err = Correlate([]float64{1, 2, 3, 4, 5}, []float64{5, 4, 3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c.R, 1e-12)
	assert.True(t, c.Saturated)
	assert.Less(t, c.Z, 0.0)

	c, err = Correlate([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, c.R, 1e-12)
	assert.InDelta(t, math.Atanh(0.8), c.Z, 1e-12)
	assert.False(t, c.Saturated)
}

func TestCorrelateFailures(t *testing.T) {
	_, err := Correlate([]float64{1}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, model.ErrInsufficientData))

	_, err = Correlate([]float64{3, 3, 3}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, model.ErrDegenerateSeries))

	// constant only within the aligned prefix
	_, err = Correlate([]float64{1, 2, 3}, []float64{5, 5, 5, 9})
	assert.True(t, errors.Is(err, model.ErrDegenerateSeries))
}

func TestScoreActorMatchCrowdDisagrees(t *testing.T) {
	actor := []float64{0.1, 0.5, 0.3, 0.9, 0.7}
	crowd := []float64{0.9, 0.2, 0.4, 0.1, 0.3}
	ratings := []float64{10, 50, 30, 90, 70}

	tc, err := Score("sub-001", model.AcquisitionPre, Trial{Stimulus: "ID113_vid3", Ratings: ratings},
		model.Reference{Stimulus: "ID113_vid3", Actor: actor, Crowd: crowd})
	require.NoError(t, err)
	assert.True(t, tc.Actor.Saturated)

	want, err := stats.Spearman(actor, crowd)
	require.NoError(t, err)
	assert.InDelta(t, want, tc.Crowd.R, 1e-12)
	assert.False(t, tc.Crowd.Saturated)
	assert.Equal(t, "ID113_vid3", tc.Stimulus)
}

func TestScoreAllStopsOnMissingReference(t *testing.T) {
	samples := []model.SliderSample{
		{Trial: 1, Stimulus: "ID113_vid3", Response: 1},
		{Trial: 1, Stimulus: "ID113_vid3", Index: 1, Response: 2},
		{Trial: 1, Stimulus: "ID113_vid3", Index: 2, Response: 4},
		{Trial: 2, Stimulus: "ID120_vid2", Response: 1},
	}
	refs := References{"ID113_vid3": {Stimulus: "ID113_vid3", Actor: []float64{1, 2, 3}, Crowd: []float64{3, 1, 2}}}

	_, err := ScoreAll("sub-001", model.AcquisitionPost, samples, refs)
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	got, err := ScoreAll("sub-001", model.AcquisitionPost, samples[:3], refs)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.AcquisitionPost, got[0].Acquisition)
	assert.InDelta(t, -0.5, got[0].Crowd.R, 1e-12)
}
