// Package bct normalizes and scores Breath Counting Task responses.
package bct

import (
	"fmt"

	"github.com/verte-zerg/respire/internal/model"
)

// Classify labels one press from its position within the cycle and the
// button pressed. The rules are evaluated in order and the first match wins.
func Classify(press int, button model.Button, target int) (model.Accuracy, error) {
	if press < 1 || target < 1 {
		return "", fmt.Errorf("%w: press %d with target %d", model.ErrInvariantViolation, press, target)
	}
	switch {
	case button == model.ButtonReset:
		return model.AccuracySelfCaught, nil
	case button == model.ButtonTarget && press == target:
		return model.AccuracyCorrect, nil
	case press > target && (button == model.ButtonTarget || button == model.ButtonNontarget):
		return model.AccuracyOvershoot, nil
	case press == target && button == model.ButtonNontarget:
		return model.AccuracyOvershoot, nil
	case press < target && button == model.ButtonNontarget:
		return model.AccuracyCorrect, nil
	case press < target && button == model.ButtonTarget:
		return model.AccuracyUndershoot, nil
	}
	return "", fmt.Errorf("%w: press %d with button %q", model.ErrInvariantViolation, press, button)
}

// CycleAccuracy returns the label of the cycle's final press.
func CycleAccuracy(presses []model.Press) (model.Accuracy, error) {
	if len(presses) == 0 {
		return "", fmt.Errorf("%w: empty cycle", model.ErrMalformedInput)
	}
	return presses[len(presses)-1].Accuracy, nil
}
