// Package bids handles BIDS-style file naming, discovery, and tabular I/O.
package bids

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/verte-zerg/respire/internal/model"
)

var labelPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Identifier holds the entities parsed from a file name.
type Identifier struct {
	Subject     string
	Session     string
	Task        string
	Acquisition string
	Suffix      string
}

// ParseFilename parses names such as sub-001_ses-001_task-bct.json or
// sub-001_task-eat_acq-pre_beh.tsv.
func ParseFilename(path string) (Identifier, error) {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		return Identifier{}, fmt.Errorf("%w: empty file name %q", model.ErrMalformedInput, path)
	}
	parts := strings.Split(base, "_")
	var id Identifier
	for i, part := range parts {
		key, value, ok := strings.Cut(part, "-")
		if !ok {
			if i != len(parts)-1 || !labelPattern.MatchString(part) {
				return Identifier{}, fmt.Errorf("%w: unexpected entity %q in %q", model.ErrMalformedInput, part, path)
			}
			id.Suffix = part
			continue
		}
		if !labelPattern.MatchString(value) {
			return Identifier{}, fmt.Errorf("%w: invalid %s label %q in %q", model.ErrMalformedInput, key, value, path)
		}
		var target *string
		switch key {
		case "sub":
			target = &id.Subject
		case "ses":
			target = &id.Session
		case "task":
			target = &id.Task
		case "acq":
			target = &id.Acquisition
		default:
			return Identifier{}, fmt.Errorf("%w: unknown entity %q in %q", model.ErrMalformedInput, key, path)
		}
		if *target != "" {
			return Identifier{}, fmt.Errorf("%w: duplicate entity %q in %q", model.ErrMalformedInput, key, path)
		}
		*target = value
	}
	if id.Subject == "" {
		return Identifier{}, fmt.Errorf("%w: missing subject in %q", model.ErrMalformedInput, path)
	}
	if id.Task == "" {
		return Identifier{}, fmt.Errorf("%w: missing task in %q", model.ErrMalformedInput, path)
	}
	return id, nil
}

// ParticipantID returns the participant label, e.g. sub-001.
func (id Identifier) ParticipantID() string {
	return "sub-" + id.Subject
}

// SubjectNumber parses the numeric subject label.
func (id Identifier) SubjectNumber() (int, error) {
	return ParticipantNumber(id.ParticipantID())
}

// ParticipantNumber parses the number of a sub-XXX participant label.
func ParticipantNumber(participant string) (int, error) {
	label := strings.TrimPrefix(participant, "sub-")
	n, err := strconv.Atoi(label)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric participant %q", model.ErrMalformedInput, participant)
	}
	return n, nil
}

// NormalizeParticipant returns the sub-XXX label for a participant cell that
// holds either the label or a bare subject number, as phenotype files do.
func NormalizeParticipant(s string) (string, error) {
	s = strings.TrimSpace(s)
	if label, ok := strings.CutPrefix(s, "sub-"); ok {
		if !labelPattern.MatchString(label) {
			return "", fmt.Errorf("%w: invalid participant %q", model.ErrMalformedInput, s)
		}
		return s, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", fmt.Errorf("%w: invalid participant %q", model.ErrMalformedInput, s)
	}
	return fmt.Sprintf("sub-%03d", n), nil
}

// Filename builds the derived file name. Sessions are dropped because every
// task ran in a single session.
func (id Identifier) Filename(suffix, ext string) string {
	parts := []string{"sub-" + id.Subject, "task-" + id.Task}
	if id.Acquisition != "" {
		parts = append(parts, "acq-"+id.Acquisition)
	}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "_") + ext
}
