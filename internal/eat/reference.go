package eat

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/verte-zerg/respire/internal/model"
)

// ReferenceSource provides the actor and crowd ratings of a stimulus.
type ReferenceSource interface {
	Reference(stimulus string) (model.Reference, error)
}

// References is an in-memory ReferenceSource keyed by stimulus id.
type References map[string]model.Reference

// Reference returns the stored ratings of stimulus.
func (r References) Reference(stimulus string) (model.Reference, error) {
	ref, ok := r[stimulus]
	if !ok {
		return model.Reference{}, fmt.Errorf("%w: no reference ratings for %s", model.ErrMalformedInput, stimulus)
	}
	return ref, nil
}

const (
	actorColumn = "rating"
	crowdColumn = "evaluatorWeightedEstimate"
)

// Ratings reads reference ratings laid out like the SEND dataset: actor
// self-reports under ratings/**/target/target_<actor>_<n>_normal.csv and
// crowd estimates under ratings/**/observer_EWE/results_<actor>_<n>.csv.
type Ratings struct {
	fsys   fs.FS
	closer io.Closer
	files  []string
}

// OpenRatings opens a ratings archive. path may be a zip file or a directory
// holding the extracted archive.
func OpenRatings(p string) (*Ratings, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings: %w", err)
	}
	if info.IsDir() {
		return NewRatings(os.DirFS(p), nil)
	}
	reader, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings archive: %w", err)
	}
	r, err := NewRatings(reader, reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}
	return r, nil
}

// NewRatings indexes the rating files in fsys. closer, if set, is closed by
// Close.
func NewRatings(fsys fs.FS, closer io.Closer) (*Ratings, error) {
	r := &Ratings{fsys: fsys, closer: closer}
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(name, "ratings") && strings.HasSuffix(name, ".csv") {
			r.files = append(r.files, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index ratings: %w", err)
	}
	if len(r.files) == 0 {
		return nil, fmt.Errorf("%w: no rating files found", model.ErrMalformedInput)
	}
	return r, nil
}

// Close releases the underlying archive.
func (r *Ratings) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// StimulusParts splits a stimulus id such as ID113_vid3 into the actor id
// and the video number.
func StimulusParts(stimulus string) (actor, video string, err error) {
	if len(stimulus) < 6 || !strings.HasPrefix(stimulus, "ID") {
		return "", "", fmt.Errorf("%w: invalid stimulus id %q", model.ErrMalformedInput, stimulus)
	}
	return stimulus[2:5], stimulus[len(stimulus)-1:], nil
}

// Reference loads the actor and crowd series of stimulus.
func (r *Ratings) Reference(stimulus string) (model.Reference, error) {
	actor, video, err := StimulusParts(stimulus)
	if err != nil {
		return model.Reference{}, err
	}
	suffix := fmt.Sprintf("target_%s_%s_normal.csv", actor, video)
	var actorFile string
	for _, name := range r.files {
		if strings.HasSuffix(name, "/"+suffix) {
			actorFile = name
			break
		}
	}
	if actorFile == "" {
		return model.Reference{}, fmt.Errorf("%w: no actor ratings for %s", model.ErrMalformedInput, stimulus)
	}
	ref := model.Reference{Stimulus: stimulus}
	if ref.Actor, err = r.column(actorFile, actorColumn); err != nil {
		return model.Reference{}, err
	}
	if ref.Crowd, err = r.column(crowdPath(actorFile), crowdColumn); err != nil {
		return model.Reference{}, err
	}
	return ref, nil
}

// crowdPath maps an actor rating file to the matching crowd estimate file.
func crowdPath(actorFile string) string {
	dir, base := path.Split(actorFile)
	dir = path.Clean(dir)
	if path.Base(dir) == "target" {
		dir = path.Join(path.Dir(dir), "observer_EWE")
	}
	base = strings.Replace(base, "target_", "results_", 1)
	base = strings.Replace(base, "_normal", "", 1)
	return path.Join(dir, base)
}

// column reads one numeric column of a comma-separated file. Header names are
// matched after trimming spaces.
func (r *Ratings) column(name, column string) ([]float64, error) {
	f, err := r.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: missing rating file %s", model.ErrMalformedInput, name)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedInput, name, err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(h) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %s: missing column %q", model.ErrMalformedInput, name, column)
	}

	var values []float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", model.ErrMalformedInput, name, err)
		}
		if col >= len(record) {
			return nil, fmt.Errorf("%w: %s line %d: short record", model.ErrMalformedInput, name, line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", model.ErrMalformedInput, name, line, err)
		}
		values = append(values, v)
	}
	return values, nil
}
