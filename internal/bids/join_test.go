package bids

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func TestLeftJoinKeepsLeftRows(t *testing.T) {
	left := Table{
		Columns: []string{"participant_id", "age"},
		Rows:    [][]string{{"sub-001", "30"}, {"sub-002", "41"}},
	}
	right := Table{
		Columns: []string{"mean", "participant_id"},
		Rows:    [][]string{{"20", "sub-002"}, {"99", "sub-009"}},
	}

	got, err := LeftJoin(left, right, "participant_id", func(c string) string { return "rrate-" + c })
	require.NoError(t, err)
	assert.Equal(t, []string{"participant_id", "age", "rrate-mean"}, got.Columns)
	assert.Equal(t, [][]string{{"sub-001", "30", NA}, {"sub-002", "41", "20"}}, got.Rows)
	assert.Equal(t, []string{"sub-001", "30"}, left.Rows[0])
}

func TestLeftJoinRejectsAmbiguousInput(t *testing.T) {
	left := Table{Columns: []string{"participant_id", "age"}, Rows: [][]string{{"sub-001", "30"}}}

	dupKey := Table{Columns: []string{"participant_id", "x"}, Rows: [][]string{{"sub-001", "1"}, {"sub-001", "2"}}}
	_, err := LeftJoin(left, dupKey, "participant_id", nil)
	require.ErrorIs(t, err, model.ErrMalformedInput)

	clash := Table{Columns: []string{"participant_id", "age"}}
	_, err = LeftJoin(left, clash, "participant_id", nil)
	require.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = LeftJoin(left, Table{Columns: []string{"id"}}, "participant_id", nil)
	require.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestTableKeys(t *testing.T) {
	tbl := Table{Columns: []string{"participant_id"}, Rows: [][]string{{"sub-002"}, {"sub-001"}, {"sub-002"}}}
	keys, err := tbl.Keys("participant_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub-002", "sub-001"}, keys)
}

func TestNormalizeParticipant(t *testing.T) {
	for in, want := range map[string]string{"sub-014": "sub-014", "7": "sub-007", " 12 ": "sub-012"} {
		got, err := NormalizeParticipant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "sub-", "sub-0_1", "abc", "-3"} {
		_, err := NormalizeParticipant(in)
		assert.ErrorIs(t, err, model.ErrMalformedInput, in)
	}
}

func TestReadSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debriefing.tsv")
	require.NoError(t, os.WriteFile(SidecarPath(path), []byte(`{
		"MeasurementToolMetadata": "in-house",
		"tired": {"Description": "Felt tired", "Levels": {"yes": "tired", "no": "rested"}},
		"TaskName": "debriefing"
	}`), 0o644))

	s, err := ReadSidecar(path)
	require.NoError(t, err)
	assert.Equal(t, "debriefing", s.TaskName)
	assert.Equal(t, map[string]Column{
		"tired": {Description: "Felt tired", Levels: map[string]string{"yes": "tired", "no": "rested"}},
	}, s.Columns)

	_, err = ReadSidecar(filepath.Join(dir, "missing.tsv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
