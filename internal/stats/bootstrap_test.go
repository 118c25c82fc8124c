package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapMeanBCaDeterministic(t *testing.T) {
	x := []float64{12, 15, 9, 22, 18, 14, 16, 11, 20, 13}
	a, ok := BootstrapMeanBCa(x, 2000, 0.95, rand.New(rand.NewSource(7)))
	require.True(t, ok)
	b, ok := BootstrapMeanBCa(x, 2000, 0.95, rand.New(rand.NewSource(7)))
	require.True(t, ok)
	assert.Equal(t, a, b)

	assert.Less(t, a.Low, 15.0)
	assert.Greater(t, a.High, 15.0)
	assert.GreaterOrEqual(t, a.Low, 9.0)
	assert.LessOrEqual(t, a.High, 22.0)
}

func TestBootstrapMeanBCaDegenerate(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	_, ok := BootstrapMeanBCa([]float64{3}, 100, 0.95, rnd)
	assert.False(t, ok)

	ci, ok := BootstrapMeanBCa([]float64{3, 3, 3}, 100, 0.95, rnd)
	require.True(t, ok)
	assert.Equal(t, Interval{Low: 3, High: 3}, ci)
}
