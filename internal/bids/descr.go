package bids

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/respire/internal/stats"
)

var descrStatistics = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// DescrTable summarizes the named numeric columns of t. Each row holds one
// statistic and each column one variable. Missing cells are skipped.
func DescrTable(t Table, columns ...string) (Table, error) {
	idx, err := t.Require(columns...)
	if err != nil {
		return Table{}, err
	}
	out := Table{Columns: append([]string{"statistic"}, columns...)}
	for _, name := range descrStatistics {
		row := make([]string, len(columns)+1)
		row[0] = name
		out.Rows = append(out.Rows, row)
	}

	for ci, col := range columns {
		values := make([]float64, 0, len(t.Rows))
		for _, row := range t.Rows {
			m, err := ParseMeasure(row[idx[ci]])
			if err != nil {
				return Table{}, fmt.Errorf("column %s: %w", col, err)
			}
			if m.Valid {
				values = append(values, m.Value)
			}
		}
		cells := []string{"0", NA, NA, NA, NA, NA, NA, NA}
		if len(values) > 0 {
			d, err := stats.Describe(values)
			if err != nil {
				return Table{}, err
			}
			cells = []string{
				fmt.Sprintf("%d", d.Count),
				FormatFloat(d.Mean, 2),
				FormatMeasure(d.Std, 2),
				FormatFloat(d.Min, 2),
				FormatFloat(d.Q25, 2),
				FormatFloat(d.Median, 2),
				FormatFloat(d.Q75, 2),
				FormatFloat(d.Max, 2),
			}
		}
		for ri, cell := range cells {
			out.Rows[ri][ci+1] = cell
		}
	}
	return out, nil
}

// WriteWithDescr writes t with its sidecar and a _descr table of the given
// columns next to it.
func WriteWithDescr(path string, t Table, s Sidecar, columns ...string) error {
	if err := WriteTableWithSidecar(path, t, s); err != nil {
		return err
	}
	descr, err := DescrTable(t, columns...)
	if err != nil {
		return err
	}
	return WriteTable(DescrPath(path), descr)
}

// DescrPath returns the path of the descriptives table for a data file.
func DescrPath(dataPath string) string {
	ext := filepath.Ext(dataPath)
	return strings.TrimSuffix(dataPath, ext) + "_descr" + ext
}
