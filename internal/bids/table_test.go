package bids

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func TestWriteReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub-001", "beh", "sub-001_task-bct_beh.tsv")
	in := Table{
		Columns: []string{"cycle", "press_time", "kind"},
		Rows: [][]string{
			{"1", "0.50", "nontarget"},
			{"1", "1.25", NA},
		},
	}
	require.NoError(t, WriteTable(path, in))

	out, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	idx, err := out.Require("kind", "cycle")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, idx)

	_, err = out.Require("response")
	require.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestReadTableRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.tsv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadTable(path)
	require.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestWriteSidecarFlattensColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task-bct_rrate.tsv")
	require.NoError(t, WriteSidecar(path, Sidecar{
		TaskName: "bct",
		Columns: map[string]Column{
			"rrate": {Description: "Respiration rate", Units: "breaths/min"},
		},
	}))

	data, err := os.ReadFile(filepath.Join(filepath.Dir(path), "task-bct_rrate.json"))
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "bct", got["TaskName"])
	assert.Equal(t, map[string]any{"Description": "Respiration rate", "Units": "breaths/min"}, got["rrate"])
	assert.NotContains(t, got, "Instructions")
}

func TestParseMeasure(t *testing.T) {
	for _, s := range []string{"", NA, "NA", " n/a "} {
		m, err := ParseMeasure(s)
		require.NoError(t, err)
		assert.False(t, m.Valid, s)
	}

	m, err := ParseMeasure("12.5")
	require.NoError(t, err)
	assert.Equal(t, model.Some(12.5), m)

	_, err = ParseMeasure("fast")
	require.ErrorIs(t, err, model.ErrMalformedInput)

	assert.Equal(t, NA, FormatMeasure(model.Measure{}, 2))
	assert.Equal(t, "3.14", FormatMeasure(model.Some(3.14159), 2))
}
