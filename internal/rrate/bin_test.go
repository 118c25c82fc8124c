package rrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

// pressTimes returns n press times spaced intervalMs apart, starting at
// intervalMs.
func pressTimes(n int, intervalMs float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * intervalMs
	}
	return out
}

func TestBinOfIsRightClosed(t *testing.T) {
	cfg := model.DefaultConfig()
	tests := []struct {
		name string
		t    float64
		bin  int
		ok   bool
	}{
		{"negative", -1, 0, false},
		{"zero", 0, 0, true},
		{"first", 1, 0, true},
		{"edge", 1000, 0, true},
		{"after edge", 1000.5, 1, true},
		{"last", 600000, 599, true},
		{"beyond span", 600001, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, ok := BinOf(tt.t, cfg)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.bin, bin)
			}
		})
	}
}

func TestBinCountsPressAtTaskStart(t *testing.T) {
	cfg := model.DefaultConfig()
	row := Bin("sub-001", []float64{0}, cfg)

	assert.Equal(t, model.Cell{State: model.CellCount, Count: 1}, row.Cells[0])
	assert.False(t, row.Cells[1].Valid())
}

func TestBinMarksSessionEnd(t *testing.T) {
	cfg := model.DefaultConfig()
	row := Bin("sub-001", pressTimes(90, 2000), cfg)
	require.Len(t, row.Cells, 600)
	assert.Equal(t, "sub-001", row.Subject)

	total := 0
	for k, c := range row.Cells {
		switch {
		case k >= 180:
			assert.False(t, c.Valid(), "bin %d", k)
		case k%2 == 1:
			assert.Equal(t, model.Cell{State: model.CellCount, Count: 1}, c, "bin %d", k)
		default:
			assert.Equal(t, model.Cell{State: model.CellZero}, c, "bin %d", k)
		}
		total += c.Count
	}
	assert.Equal(t, 90, total)
}

func TestBinAccumulatesWithinBin(t *testing.T) {
	cfg := model.DefaultConfig()
	row := Bin("sub-002", []float64{100, 200, 1000, 2500}, cfg)
	assert.Equal(t, 3, row.Cells[0].Count)
	assert.Equal(t, model.CellZero, row.Cells[1].State)
	assert.Equal(t, 1, row.Cells[2].Count)
	assert.False(t, row.Cells[3].Valid())
}

func TestBinPressBeyondSpanKeepsSessionOpen(t *testing.T) {
	cfg := model.DefaultConfig()
	row := Bin("sub-003", []float64{500, 700000}, cfg)
	assert.Equal(t, 1, row.Cells[0].Count)
	for _, c := range row.Cells[1:] {
		assert.Equal(t, model.CellZero, c.State)
	}
}

func TestBinEmpty(t *testing.T) {
	row := Bin("sub-004", nil, model.DefaultConfig())
	for _, c := range row.Cells {
		assert.False(t, c.Valid())
	}
}
