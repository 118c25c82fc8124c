package bct

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/model"
)

func TestParseSource(t *testing.T) {
	src := `{
		"2": [["left", 3.0], ["right", 4.0]],
		"1": [["left", 1.0], ["space", 2.0]],
		"900": [["right", 0.2]]
	}`
	cycles, err := ParseSource(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, cycles, 3)
	assert.Equal(t, 1, cycles[0].Key)
	assert.Equal(t, model.ButtonReset, cycles[0].Presses[1].Button)

	presses, err := Normalize(cycles, model.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, presses, 4)
	assert.Equal(t, model.AccuracySelfCaught, presses[1].Accuracy)
	assert.Equal(t, model.AccuracyUndershoot, presses[3].Accuracy)
}

func TestParseSourceErrors(t *testing.T) {
	_, err := ParseSource(strings.NewReader(`{"x": []}`))
	require.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = ParseSource(strings.NewReader(`{"1": [["wheel", 1.0]]}`))
	require.ErrorIs(t, err, model.ErrMalformedInput)

	cycles, err := ParseSource(strings.NewReader(`{"1": []}`))
	require.NoError(t, err)
	_, err = Normalize(cycles, model.DefaultConfig())
	require.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestReadPressesRecomputesAccuracy(t *testing.T) {
	table := bids.Table{
		Columns: []string{"cycle", "press", "response", "response_time"},
		Rows: [][]string{
			{"1", "1", "left", "2000"},
			{"1", "2", "right", "1500"},
		},
	}
	presses, err := ReadPresses(table, 9)
	require.NoError(t, err)
	require.Len(t, presses, 2)
	assert.Equal(t, model.ButtonNontarget, presses[0].Button)
	assert.Equal(t, model.AccuracyUndershoot, presses[1].Accuracy)

	out := PressTable(presses)
	assert.Equal(t, []string{"1", "2", "target", "1500", "undershoot"}, out.Rows[1])

	_, err = ReadPresses(bids.Table{Columns: []string{"cycle"}}, 9)
	require.ErrorIs(t, err, model.ErrMalformedInput)
}
