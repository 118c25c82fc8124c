package bids

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func TestParseFilenameSource(t *testing.T) {
	id, err := ParseFilename(filepath.Join("sourcedata", "sub-001", "sub-001_ses-001_task-bct.json"))
	require.NoError(t, err)
	assert.Equal(t, Identifier{Subject: "001", Session: "001", Task: "bct"}, id)
	assert.Equal(t, "sub-001", id.ParticipantID())
	assert.Equal(t, "sub-001_task-bct_beh.tsv", id.Filename("beh", ".tsv"))
}

func TestParseFilenameDerived(t *testing.T) {
	id, err := ParseFilename("sub-012_task-eat_acq-pre_beh.tsv")
	require.NoError(t, err)
	assert.Equal(t, Identifier{Subject: "012", Task: "eat", Acquisition: "pre", Suffix: "beh"}, id)
	assert.Equal(t, "sub-012_task-eat_acq-pre_beh.json", id.Filename("beh", ".json"))

	n, err := id.SubjectNumber()
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestParseFilenameRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing subject":  "task-bct.json",
		"missing task":     "sub-001_ses-001.json",
		"unknown entity":   "sub-001_run-1_task-bct.json",
		"duplicate entity": "sub-001_sub-002_task-bct.json",
		"bad label":        "sub-0-1_task-bct.json",
		"stray part":       "sub-001_x_task-bct.json",
		"empty name":       ".json",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFilename(path)
			require.ErrorIs(t, err, model.ErrMalformedInput)
		})
	}
}

func TestParticipantNumber(t *testing.T) {
	n, err := ParticipantNumber("sub-007")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = ParticipantNumber("sub-pilot")
	require.ErrorIs(t, err, model.ErrMalformedInput)
}
