package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"participant_id", "mean", "slope"}
	rows := [][]string{
		{"sub-001", "17.50", "-0.0012"},
		{"sub-0002", "8.00", "0.1"},
	}
	lines := FormatTable(headers, rows, map[int]bool{1: true, 2: true})
	require.Len(t, lines, 3)
	require.Equal(t, "participant_id  mean   slope", lines[0])
	require.Equal(t, "sub-001        17.50 -0.0012", lines[1])
	require.Equal(t, "sub-0002        8.00     0.1", lines[2])
}

func TestFormatTableEmpty(t *testing.T) {
	require.Nil(t, FormatTable(nil, nil, nil))
}
