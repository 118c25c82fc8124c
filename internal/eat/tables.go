package eat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/model"
)

// Output file names below the derivatives directory.
const (
	TrialFile  = "task-eat_agg-trial_corrs.tsv"
	MergedFile = "task-eat_agg-sub_corrs.tsv"
)

// SubjectFile returns the per-acquisition subject table name.
func SubjectFile(acq model.Acquisition) string {
	return fmt.Sprintf("task-eat_acq-%s_agg-sub_corrs.tsv", acq)
}

// TrialTable renders one row per scored trial.
func TrialTable(trials []model.TrialCorrelation) bids.Table {
	t := bids.Table{Columns: []string{
		"participant_id", "acquisition_id", "stimulus",
		"actor_correlation", "crowd_correlation", "actor_saturated", "crowd_saturated", "n_samples",
	}}
	for _, tc := range trials {
		t.Rows = append(t.Rows, []string{
			tc.Subject,
			string(tc.Acquisition),
			tc.Stimulus,
			bids.FormatFloat(tc.Actor.Z, 3),
			bids.FormatFloat(tc.Crowd.Z, 3),
			strconv.FormatBool(tc.Actor.Saturated),
			strconv.FormatBool(tc.Crowd.Saturated),
			strconv.Itoa(min(tc.Actor.N, tc.Crowd.N)),
		})
	}
	return t
}

// TrialSidecar describes TrialTable.
var TrialSidecar = bids.Sidecar{
	Columns: map[string]bids.Column{
		"actor_correlation": {Description: "Fisher-transformed Spearman correlation between the participant and the actor's self-report."},
		"crowd_correlation": {Description: "Fisher-transformed Spearman correlation between the participant and the crowd estimate."},
		"actor_saturated":   {Description: "The actor correlation was perfect and its transform was clamped."},
		"crowd_saturated":   {Description: "The crowd correlation was perfect and its transform was clamped."},
		"n_samples":         {Description: "Number of aligned samples after truncating to the shorter series."},
	},
}

// MetricColumns are the numeric columns of the subject tables.
var MetricColumns = []string{
	"actor_correlation-mean", "actor_correlation-std", "actor_correlation-min", "actor_correlation-max",
	"crowd_correlation-mean", "crowd_correlation-std", "crowd_correlation-min", "crowd_correlation-max",
}

func metricCells(s model.SubjectCorrelation) []string {
	return []string{
		bids.FormatMeasure(s.Actor.Mean, 3),
		bids.FormatMeasure(s.Actor.Std, 3),
		bids.FormatMeasure(s.Actor.Min, 3),
		bids.FormatMeasure(s.Actor.Max, 3),
		bids.FormatMeasure(s.Crowd.Mean, 3),
		bids.FormatMeasure(s.Crowd.Std, 3),
		bids.FormatMeasure(s.Crowd.Min, 3),
		bids.FormatMeasure(s.Crowd.Max, 3),
	}
}

// SubjectTable renders one acquisition's subject summaries.
func SubjectTable(subjects []model.SubjectCorrelation) bids.Table {
	t := bids.Table{Columns: append([]string{"participant_id"}, MetricColumns...)}
	for _, s := range subjects {
		t.Rows = append(t.Rows, append([]string{s.Subject}, metricCells(s)...))
	}
	return t
}

// SubjectSidecar describes SubjectTable and MergedTable.
var SubjectSidecar = bids.Sidecar{
	Columns: map[string]bids.Column{
		"acquisition_id":         {Description: "Task run relative to the intervention.", Levels: map[string]string{"pre": "before", "post": "after"}},
		"intervention":           {Description: "Intervention the participant was assigned to.", Levels: map[string]string{"bct": "breath counting", "svp": "control"}},
		"actor_correlation-mean": {Description: "Mean over trials of the Fisher-transformed actor correlation."},
		"actor_correlation-std":  {Description: "Sample standard deviation over trials; n/a for a single trial."},
		"crowd_correlation-mean": {Description: "Mean over trials of the Fisher-transformed crowd correlation."},
		"crowd_correlation-std":  {Description: "Sample standard deviation over trials; n/a for a single trial."},
	},
}

// MergedTable stacks both acquisitions with the intervention of each
// participant. Rows follow Aggregate's order.
func MergedTable(subjects []model.SubjectCorrelation, interventions Interventions) (bids.Table, error) {
	t := bids.Table{Columns: append([]string{"participant_id", "intervention", "acquisition_id"}, MetricColumns...)}
	for _, s := range subjects {
		group, err := interventions.Of(s.Subject)
		if err != nil {
			return bids.Table{}, err
		}
		row := append([]string{s.Subject, group, string(s.Acquisition)}, metricCells(s)...)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Interventions maps participants to their intervention group.
type Interventions map[string]string

// Of returns the group of participant. Participants missing from the map are
// assigned by subject number: odd numbers did breath counting, even numbers
// the control task.
func (iv Interventions) Of(participant string) (string, error) {
	if g, ok := iv[participant]; ok {
		return g, nil
	}
	n, err := bids.ParticipantNumber(participant)
	if err != nil {
		return "", err
	}
	if n%2 == 0 {
		return "svp", nil
	}
	return "bct", nil
}

// LoadInterventions reads the intervention column of participants.tsv under
// root. A missing file or column yields an empty map.
func LoadInterventions(root string) (Interventions, error) {
	t, err := bids.ReadTable(filepath.Join(root, "participants.tsv"))
	if errors.Is(err, os.ErrNotExist) {
		return Interventions{}, nil
	}
	if err != nil {
		return nil, err
	}
	idx, err := t.Require("participant_id", "intervention")
	if err != nil {
		return Interventions{}, nil
	}
	iv := make(Interventions, len(t.Rows))
	for _, row := range t.Rows {
		if g := row[idx[1]]; g != "" && g != bids.NA {
			iv[row[idx[0]]] = g
		}
	}
	return iv, nil
}
