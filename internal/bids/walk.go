package bids

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

const (
	sourceDir  = "sourcedata"
	derivedDir = "derivatives"
)

// SourceDir returns the source data directory under root.
func SourceDir(root string) string {
	return filepath.Join(root, sourceDir)
}

// DerivedDir returns the directory for tables written by this tool.
func DerivedDir(root string) string {
	return filepath.Join(root, derivedDir, "respire")
}

// SubjectDir returns the behavioral directory of a participant.
func SubjectDir(root string, id Identifier) string {
	return filepath.Join(root, id.ParticipantID(), "beh")
}

// FindSource lists source files of a task below root/sourcedata.
func FindSource(root, task, ext string) ([]string, error) {
	return find(SourceDir(root), func(name string) bool {
		return strings.HasSuffix(name, ext) && strings.Contains(name, "task-"+task)
	}, nil)
}

// FindBeh lists behavioral tables of a task, skipping source and derived data.
func FindBeh(root, task string) ([]string, error) {
	skip := map[string]bool{sourceDir: true, derivedDir: true}
	return find(root, func(name string) bool {
		return strings.HasSuffix(name, "_beh.tsv") && strings.Contains(name, "task-"+task)
	}, skip)
}

func find(root string, match func(string) bool, skipDirs map[string]bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
