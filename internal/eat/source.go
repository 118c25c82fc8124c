// Package eat scores the Empathic Accuracy Task: continuous slider ratings
// of video stimuli compared against reference ratings.
package eat

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/respire/internal/model"
)

// Task is the BIDS task label of the Empathic Accuracy Task.
const Task = "eat"

// AcquisitionOf maps a source task label to its acquisition. The task ran
// twice, as eatA before and eatB after the intervention.
func AcquisitionOf(task string) (model.Acquisition, error) {
	switch strings.ToLower(task) {
	case "eata":
		return model.AcquisitionPre, nil
	case "eatb":
		return model.AcquisitionPost, nil
	}
	return "", fmt.Errorf("%w: unknown task label %q", model.ErrMalformedInput, task)
}

// ParseSource decodes the task's JSON log, an object mapping stimulus ids to
// the slider positions sampled at cfg.SampleRateHz. Stimuli keep their
// presentation order and the practice video is dropped.
func ParseSource(r io.Reader, cfg model.Config) ([]model.SliderSample, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: expected an object of stimuli", model.ErrMalformedInput)
	}

	interval := cfg.SampleIntervalS()
	seen := make(map[string]bool)
	var samples []model.SliderSample
	trial := 0
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
		}
		stimulus, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected stimulus id", model.ErrMalformedInput)
		}
		var responses []float64
		if err := dec.Decode(&responses); err != nil {
			return nil, fmt.Errorf("%w: stimulus %s: %v", model.ErrMalformedInput, stimulus, err)
		}
		if seen[stimulus] {
			return nil, fmt.Errorf("%w: duplicate stimulus %s", model.ErrMalformedInput, stimulus)
		}
		seen[stimulus] = true
		if stimulus == cfg.PracticeVideo {
			continue
		}
		trial++
		for j, v := range responses {
			samples = append(samples, model.SliderSample{
				Trial:    trial,
				Stimulus: stimulus,
				Index:    j,
				TimeS:    float64(j) * interval,
				Response: v,
			})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
	}
	return samples, nil
}
