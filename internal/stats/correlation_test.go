package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func TestRankAveragesTies(t *testing.T) {
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, Rank([]float64{10, 20, 20, 30}))
	assert.Equal(t, []float64{3, 1, 2}, Rank([]float64{5, -1, 0}))
}

func TestSpearman(t *testing.T) {
	r, err := Spearman([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, err = Spearman([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)

	// Monotone but nonlinear is still perfect rank agreement.
	r, err = Spearman([]float64{1, 2, 3, 4}, []float64{1, 4, 9, 100})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r, 1e-12)

	_, err = Spearman([]float64{1}, []float64{1})
	require.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestZScore(t *testing.T) {
	z, err := ZScore([]float64{1, 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 1}, z, 1e-12)

	_, err = ZScore([]float64{2, 2, 2})
	require.ErrorIs(t, err, model.ErrDegenerateSeries)

	_, err = ZScore([]float64{2})
	require.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestFisherClampsPerfectCorrelation(t *testing.T) {
	z, sat := Fisher(1)
	assert.True(t, sat)
	assert.False(t, math.IsInf(z, 0))
	assert.InDelta(t, math.Atanh(MaxAbsR), z, 1e-12)

	z, sat = Fisher(-1)
	assert.True(t, sat)
	assert.InDelta(t, -math.Atanh(MaxAbsR), z, 1e-12)

	z, sat = Fisher(0.5)
	assert.False(t, sat)
	assert.InDelta(t, 0.549306, z, 1e-6)
}
