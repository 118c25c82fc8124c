package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a structurally invalid event stream or identifier.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvariantViolation marks an input outside the accuracy decision table.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDegenerateSeries marks a zero-variance series passed to correlation.
	ErrDegenerateSeries = errors.New("degenerate series")
	// ErrInsufficientData marks too few points for a statistic.
	ErrInsufficientData = errors.New("insufficient data")
)

// StageError reports which subject and stage failed.
type StageError struct {
	Subject string
	Stage   string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Subject, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WrapStage annotates err with subject and stage. A nil err stays nil.
func WrapStage(subject, stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Subject: subject, Stage: stage, Err: err}
}
