package eat

import (
	"fmt"
	"strconv"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/model"
)

var sampleColumns = []string{"trial_number", "stimulus", "time", "response"}

// Sidecar describes the slider table.
var Sidecar = bids.Sidecar{
	TaskName:        "Empathy Accuracy Task",
	TaskDescription: "A behavioral measure of empathy. See Ong et al., 2019 for details.",
	Instructions: []string{
		"As you watch the following videos, continuously rate how positive or negative you believe the speaker is feeling at every moment.",
	},
	Columns: map[string]bids.Column{
		"trial_number": {LongName: "Trial number", Description: "Trial number"},
		"stimulus":     {LongName: "Video stimulus", Description: "Video ID (in reference to SENDv1 dataset)"},
		"time": {
			LongName:    "Time of sample",
			Description: "Responses were made continuously, but here resampled to a fixed rate",
			Units:       "seconds",
		},
		"response": {LongName: "Response at current sample", Description: "The slider position at the given sample time"},
	},
}

// SampleTable renders slider samples as a behavioral table.
func SampleTable(samples []model.SliderSample) bids.Table {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Trial),
			s.Stimulus,
			bids.FormatFloat(s.TimeS, 1),
			strconv.FormatFloat(s.Response, 'g', -1, 64),
		})
	}
	return bids.Table{Columns: sampleColumns, Rows: rows}
}

// ReadSamples parses a behavioral table. Sample indices are counted per
// stimulus in row order.
func ReadSamples(t bids.Table) ([]model.SliderSample, error) {
	idx, err := t.Require(sampleColumns...)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	samples := make([]model.SliderSample, 0, len(t.Rows))
	for i, row := range t.Rows {
		trial, err := bids.ParseInt(row[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		stimulus := row[idx[1]]
		if stimulus == "" {
			return nil, fmt.Errorf("row %d: %w: empty stimulus", i+1, model.ErrMalformedInput)
		}
		at, err := bids.ParseFloat(row[idx[2]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		response, err := bids.ParseFloat(row[idx[3]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		samples = append(samples, model.SliderSample{
			Trial:    trial,
			Stimulus: stimulus,
			Index:    counts[stimulus],
			TimeS:    at,
			Response: response,
		})
		counts[stimulus]++
	}
	return samples, nil
}

// Trial is one subject's slider series for a stimulus.
type Trial struct {
	Stimulus string
	Ratings  []float64
}

// Trials groups samples by stimulus in order of first appearance.
func Trials(samples []model.SliderSample) []Trial {
	var trials []Trial
	pos := make(map[string]int)
	for _, s := range samples {
		i, ok := pos[s.Stimulus]
		if !ok {
			i = len(trials)
			pos[s.Stimulus] = i
			trials = append(trials, Trial{Stimulus: s.Stimulus})
		}
		trials[i].Ratings = append(trials[i].Ratings, s.Response)
	}
	return trials
}
