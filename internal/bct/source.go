package bct

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/respire/internal/model"
)

// sourcePress is one [button, elapsed] pair as written by the task.
type sourcePress struct {
	Button  string
	Elapsed float64
}

func (p *sourcePress) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [button, time] pair, got %d values", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Button); err != nil {
		return fmt.Errorf("button: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Elapsed); err != nil {
		return fmt.Errorf("time: %w", err)
	}
	return nil
}

// ParseSource decodes the task's JSON log: an object keyed by cycle number
// whose values are lists of [button, elapsed] pairs.
func ParseSource(r io.Reader) ([]model.RawCycle, error) {
	var raw map[string][]sourcePress
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
	}
	records := make([]model.PressRecord, 0, len(raw))
	var empty []model.RawCycle
	for key, presses := range raw {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: cycle key %q", model.ErrMalformedInput, key)
		}
		if len(presses) == 0 {
			empty = append(empty, model.RawCycle{Key: n})
			continue
		}
		for i, p := range presses {
			button, err := model.ParseButton(p.Button)
			if err != nil {
				return nil, fmt.Errorf("cycle %d: %w", n, err)
			}
			records = append(records, model.PressRecord{
				CycleKey: n,
				Index:    i + 1,
				Button:   button,
				Elapsed:  p.Elapsed,
			})
		}
	}
	cycles := GroupRecords(records)
	if len(empty) > 0 {
		cycles = append(cycles, empty...)
	}
	return cycles, nil
}
