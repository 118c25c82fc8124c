// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
)

// Button identifies which response button was pressed.
type Button string

const (
	ButtonTarget    Button = "target"
	ButtonNontarget Button = "nontarget"
	ButtonReset     Button = "reset"
)

// ParseButton accepts both the canonical names and the key names recorded by
// the task front-end (right, left, space).
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "target", "right":
		return ButtonTarget, nil
	case "nontarget", "left":
		return ButtonNontarget, nil
	case "reset", "space":
		return ButtonReset, nil
	}
	return "", fmt.Errorf("%w: unknown button %q", ErrMalformedInput, s)
}

// Terminates reports whether the button ends a cycle.
func (b Button) Terminates() bool {
	return b == ButtonTarget || b == ButtonReset
}

// Accuracy is the press-level (and cycle-level) accuracy label.
type Accuracy string

const (
	AccuracyCorrect    Accuracy = "correct"
	AccuracyUndershoot Accuracy = "undershoot"
	AccuracyOvershoot  Accuracy = "overshoot"
	AccuracySelfCaught Accuracy = "selfcaught"
)

// ParseAccuracy parses a stored accuracy label.
func ParseAccuracy(s string) (Accuracy, error) {
	switch a := Accuracy(strings.TrimSpace(s)); a {
	case AccuracyCorrect, AccuracyUndershoot, AccuracyOvershoot, AccuracySelfCaught:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown accuracy %q", ErrMalformedInput, s)
}

// PressRecord is one raw press as logged by the task front-end. Elapsed is
// the time since task start in the source unit.
type PressRecord struct {
	CycleKey int
	Index    int
	Button   Button
	Elapsed  float64
}

// RawCycle groups the raw presses logged under one cycle key.
type RawCycle struct {
	Key     int
	Presses []PressRecord
}

// Press is a normalized press row.
type Press struct {
	Press          int
	Cycle          int
	Button         Button
	ResponseTimeMs float64
	Accuracy       Accuracy
}

// Measure is a real value that may be missing.
type Measure struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// CellState marks a time-bin cell.
type CellState uint8

const (
	// CellMissing is a bin outside the subject's observed session.
	CellMissing CellState = iota
	// CellZero is an in-session bin with no press.
	CellZero
	// CellCount is an in-session bin with at least one press.
	CellCount
)

// Cell is one subject-by-bin press count.
type Cell struct {
	State CellState
	Count int
}

// Valid reports whether the cell lies inside the observed session.
func (c Cell) Valid() bool {
	return c.State != CellMissing
}

// CountRow is one subject's row of the time-bin count matrix.
type CountRow struct {
	Subject string
	Cells   []Cell
}

// RateSeries is a subject's respiration-rate series. Values[i] belongs to
// time bin Offset+i.
type RateSeries struct {
	Subject string
	Offset  int
	Values  []Measure
}

// ValidPoints returns the present values and their absolute bin indices.
func (s RateSeries) ValidPoints() (bins, values []float64) {
	for i, v := range s.Values {
		if !v.Valid {
			continue
		}
		bins = append(bins, float64(s.Offset+i))
		values = append(values, v.Value)
	}
	return bins, values
}

// RateSummary holds a subject's respiration-rate descriptives.
type RateSummary struct {
	Subject   string
	Count     int
	Mean      float64
	Std       float64
	Min       float64
	Q25       float64
	Median    float64
	Q75       float64
	Max       float64
	Slope     float64
	SlopeTime float64
}

// CycleSummary describes one breath-counting cycle.
type CycleSummary struct {
	Subject          string
	Cycle            int
	Presses          int
	ResponseTimeMean float64
	ResponseTimeStd  Measure
	Accuracy         Accuracy
}

// CycleStats aggregates a subject's cycles.
type CycleStats struct {
	Subject          string
	Cycles           int
	CorrectRate      float64
	ResponseTimeMean float64
	ResponseTimeStd  Measure
}

// SubjectSummary is the per-subject breath-counting record.
type SubjectSummary struct {
	Rate   RateSummary
	Cycles CycleStats
}

// GroupPoint is the across-subject summary at one time bin.
type GroupPoint struct {
	Bin    int
	N      int
	Mean   Measure
	CILow  Measure
	CIHigh Measure
}

// Acquisition is a repeated-measures timepoint.
type Acquisition string

const (
	AcquisitionPre  Acquisition = "pre"
	AcquisitionPost Acquisition = "post"
)

// SliderSample is one continuous rating sample. Trial numbers the stimuli
// in presentation order; Index numbers samples within a trial from zero.
type SliderSample struct {
	Trial    int
	Stimulus string
	Index    int
	TimeS    float64
	Response float64
}

// Reference holds the two reference rating series of a stimulus.
type Reference struct {
	Stimulus string
	Actor    []float64
	Crowd    []float64
}

// Correlation is a Fisher-transformed rank correlation. Saturated is set when
// |R| reached 1 and Z was clamped.
type Correlation struct {
	R         float64
	Z         float64
	N         int
	Saturated bool
}

// TrialCorrelation is one scored (subject, acquisition, stimulus) trial.
type TrialCorrelation struct {
	Subject     string
	Acquisition Acquisition
	Stimulus    string
	Actor       Correlation
	Crowd       Correlation
}

// MetricStats are grouped descriptives of one correlation metric.
type MetricStats struct {
	Mean Measure
	Std  Measure
	Min  Measure
	Max  Measure
}

// SubjectCorrelation aggregates a subject's trials within one acquisition.
type SubjectCorrelation struct {
	Subject     string
	Acquisition Acquisition
	Trials      int
	Actor       MetricStats
	Crowd       MetricStats
}
