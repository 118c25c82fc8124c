package bct

import (
	"fmt"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/model"
)

// Task is the BIDS task label of the Breath Counting Task.
const Task = "bct"

var pressColumns = []string{"cycle", "press", "response", "response_time", "press_accuracy"}

// Sidecar describes the press table.
var Sidecar = bids.Sidecar{
	TaskName:        "Breath Counting Task",
	TaskDescription: "A behavioral meditation task. See Levinson et al., 2014 and Wong et al., 2018.",
	Instructions: []string{
		"Silently count breaths from 1 to 9 again and again.",
		"Press a top button on breaths 1-8 and the trigger button on breath 9.",
		"If you lose count, press the scroll wheel and restart the count at 1 with the next breath.",
	},
	Columns: map[string]bids.Column{
		"cycle": {
			LongName:    "Cycle count",
			Description: "Cycle number; a cycle ends on either a target or reset press.",
		},
		"press": {
			LongName:    "Press count",
			Description: "Press count within each cycle.",
		},
		"response": {
			LongName:    "Button response",
			Description: "Which button was pressed.",
			Levels: map[string]string{
				string(model.ButtonNontarget): "participant estimated a nontarget breath",
				string(model.ButtonTarget):    "participant estimated the target breath",
				string(model.ButtonReset):     "participant lost count and reset the counter",
			},
		},
		"response_time": {
			Description: "Time between the prior and current press.",
			Units:       "milliseconds",
		},
		"press_accuracy": {
			LongName:    "Press accuracy",
			Description: "Press-level accuracy; the last press of a cycle gives the cycle accuracy.",
			Levels: map[string]string{
				string(model.AccuracyCorrect):    "target on the target breath or nontarget before it",
				string(model.AccuracyUndershoot): "target before the target breath",
				string(model.AccuracyOvershoot):  "target or nontarget after the target breath",
				string(model.AccuracySelfCaught): "participant lost count and reset the counter",
			},
		},
	},
}

// PressTable renders normalized presses as a behavioral table.
func PressTable(presses []model.Press) bids.Table {
	rows := make([][]string, 0, len(presses))
	for _, p := range presses {
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.Cycle),
			fmt.Sprintf("%d", p.Press),
			string(p.Button),
			bids.FormatFloat(p.ResponseTimeMs, 0),
			string(p.Accuracy),
		})
	}
	return bids.Table{Columns: pressColumns, Rows: rows}
}

// ReadPresses parses a behavioral table. Accuracy labels are recomputed from
// the press position and button.
func ReadPresses(t bids.Table, target int) ([]model.Press, error) {
	idx, err := t.Require("cycle", "press", "response", "response_time")
	if err != nil {
		return nil, err
	}
	presses := make([]model.Press, 0, len(t.Rows))
	for i, row := range t.Rows {
		cycle, err := bids.ParseInt(row[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		press, err := bids.ParseInt(row[idx[1]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		button, err := model.ParseButton(row[idx[2]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rt, err := bids.ParseFloat(row[idx[3]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if rt < 0 {
			return nil, fmt.Errorf("row %d: %w: negative response time", i+1, model.ErrMalformedInput)
		}
		acc, err := Classify(press, button, target)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		presses = append(presses, model.Press{
			Press:          press,
			Cycle:          cycle,
			Button:         button,
			ResponseTimeMs: rt,
			Accuracy:       acc,
		})
	}
	return presses, nil
}
