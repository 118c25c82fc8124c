package bids

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindSourceAndBeh(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"sourcedata/sub-002/sub-002_ses-001_task-bct.json",
		"sourcedata/sub-001/sub-001_ses-001_task-bct.json",
		"sourcedata/sub-001/sub-001_ses-001_task-eatA.json",
		"sub-001/beh/sub-001_task-bct_beh.tsv",
		"sub-001/beh/sub-001_task-eat_acq-pre_beh.tsv",
		"derivatives/respire/sub-001_task-bct_beh.tsv",
	}
	for _, f := range files {
		touch(t, filepath.Join(root, f))
	}

	src, err := FindSource(root, "bct", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "sourcedata/sub-001/sub-001_ses-001_task-bct.json"),
		filepath.Join(root, "sourcedata/sub-002/sub-002_ses-001_task-bct.json"),
	}, src)

	beh, err := FindBeh(root, "bct")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "sub-001/beh/sub-001_task-bct_beh.tsv")}, beh)

	assert.Equal(t, filepath.Join(root, "sub-001", "beh"), SubjectDir(root, Identifier{Subject: "001"}))
}
