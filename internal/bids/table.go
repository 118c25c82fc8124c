package bids

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/respire/internal/model"
)

// NA marks a missing cell.
const NA = "n/a"

// Table is a delimited text table.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of a column or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Require returns the positions of the given columns.
func (t Table) Require(columns ...string) ([]int, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.Index(c)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: missing column %q", model.ErrMalformedInput, c)
		}
	}
	return idx, nil
}

// ReadTable reads a tab-separated file with a header row.
func ReadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()

	r := csv.NewReader(f)
	r.Comma = '\t'
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s: %v", model.ErrMalformedInput, path, err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: %s: no header", model.ErrMalformedInput, path)
	}
	return Table{Columns: records[0], Rows: records[1:]}, nil
}

// WriteTable writes t as a tab-separated file, replacing path atomically.
func WriteTable(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create table dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "table-*.tsv")
	if err != nil {
		return fmt.Errorf("failed to create temp table: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	w := csv.NewWriter(tmpFile)
	w.Comma = '\t'
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// Column describes one column in a sidecar.
type Column struct {
	LongName    string            `json:"LongName,omitempty"`
	Description string            `json:"Description"`
	Units       string            `json:"Units,omitempty"`
	Levels      map[string]string `json:"Levels,omitempty"`
}

// Sidecar is the JSON description written next to a table.
type Sidecar struct {
	TaskName        string
	TaskDescription string
	Instructions    []string
	Columns         map[string]Column
}

// MarshalJSON flattens the column descriptions into the top-level object.
func (s Sidecar) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Columns)+3)
	for name, col := range s.Columns {
		out[name] = col
	}
	if s.TaskName != "" {
		out["TaskName"] = s.TaskName
	}
	if s.TaskDescription != "" {
		out["TaskDescription"] = s.TaskDescription
	}
	if len(s.Instructions) > 0 {
		out["Instructions"] = s.Instructions
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the task metadata and every top-level object as a
// column description. Other entries are ignored.
func (s *Sidecar) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Sidecar{Columns: make(map[string]Column)}
	for name, value := range raw {
		var err error
		switch name {
		case "TaskName":
			err = json.Unmarshal(value, &s.TaskName)
		case "TaskDescription":
			err = json.Unmarshal(value, &s.TaskDescription)
		case "Instructions":
			err = json.Unmarshal(value, &s.Instructions)
		default:
			var col Column
			if json.Unmarshal(value, &col) == nil {
				s.Columns[name] = col
			}
		}
		if err != nil {
			return fmt.Errorf("sidecar %s: %w", name, err)
		}
	}
	return nil
}

// ReadSidecar reads the sidecar next to dataPath.
func ReadSidecar(dataPath string) (Sidecar, error) {
	data, err := os.ReadFile(SidecarPath(dataPath))
	if err != nil {
		return Sidecar{}, err
	}
	var s Sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return Sidecar{}, fmt.Errorf("%w: %s: %v", model.ErrMalformedInput, SidecarPath(dataPath), err)
	}
	return s, nil
}

// SidecarPath returns the .json path accompanying a data file.
func SidecarPath(dataPath string) string {
	return strings.TrimSuffix(dataPath, filepath.Ext(dataPath)) + ".json"
}

// WriteSidecar writes the sidecar next to dataPath.
func WriteSidecar(dataPath string, s Sidecar) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(SidecarPath(dataPath), data, 0o644); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

// WriteTableWithSidecar writes the table and its description.
func WriteTableWithSidecar(path string, t Table, s Sidecar) error {
	if err := WriteTable(path, t); err != nil {
		return err
	}
	return WriteSidecar(path, s)
}

// FormatFloat renders v with the given precision.
func FormatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// FormatMeasure renders a possibly missing value.
func FormatMeasure(m model.Measure, prec int) string {
	if !m.Valid {
		return NA
	}
	return FormatFloat(m.Value, prec)
}

// ParseFloat parses a numeric cell.
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", model.ErrMalformedInput, s)
	}
	return v, nil
}

// ParseMeasure parses a numeric cell that may hold the missing marker.
func ParseMeasure(s string) (model.Measure, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == NA || s == "NA" {
		return model.Measure{}, nil
	}
	v, err := ParseFloat(s)
	if err != nil {
		return model.Measure{}, err
	}
	return model.Some(v), nil
}

// ParseInt parses an integer cell.
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid integer %q", model.ErrMalformedInput, s)
	}
	return n, nil
}
