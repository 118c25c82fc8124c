package bct

import (
	"fmt"
	"sort"

	"github.com/verte-zerg/respire/internal/model"
)

// GroupRecords collects flat press records into cycles ordered by key, with
// presses ordered by their index.
func GroupRecords(records []model.PressRecord) []model.RawCycle {
	byKey := map[int][]model.PressRecord{}
	for _, r := range records {
		byKey[r.CycleKey] = append(byKey[r.CycleKey], r)
	}
	cycles := make([]model.RawCycle, 0, len(byKey))
	for key, presses := range byKey {
		sort.SliceStable(presses, func(i, j int) bool {
			return presses[i].Index < presses[j].Index
		})
		cycles = append(cycles, model.RawCycle{Key: key, Presses: presses})
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Key < cycles[j].Key
	})
	return cycles
}

// Normalize converts a subject's raw cycles into numbered, classified press
// rows with inter-press times in milliseconds.
//
// Practice cycles (keys at or above the practice threshold) are dropped, and
// so is the final cycle when it ends on a nontarget press because the session
// was cut off mid-cycle. Any other cycle must end on, and only on, a target or
// reset press.
func Normalize(cycles []model.RawCycle, cfg model.Config) ([]model.Press, error) {
	kept := make([]model.RawCycle, 0, len(cycles))
	for _, c := range cycles {
		if c.Key >= cfg.PracticeThreshold {
			continue
		}
		if len(c.Presses) == 0 {
			return nil, fmt.Errorf("%w: cycle %d has no presses", model.ErrMalformedInput, c.Key)
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Key < kept[j].Key
	})
	if n := len(kept); n > 0 {
		last := kept[n-1].Presses
		if last[len(last)-1].Button == model.ButtonNontarget {
			kept = kept[:n-1]
		}
	}

	scale := cfg.TimeScale()
	var presses []model.Press
	prev := 0.0
	for ci, c := range kept {
		for pi, rec := range c.Presses {
			final := pi == len(c.Presses)-1
			if rec.Button.Terminates() != final {
				return nil, fmt.Errorf("%w: cycle %d press %d: %s press does not match cycle end",
					model.ErrMalformedInput, c.Key, pi+1, rec.Button)
			}
			elapsed := rec.Elapsed * scale
			rt := elapsed - prev
			if rt < 0 {
				return nil, fmt.Errorf("%w: cycle %d press %d: elapsed time goes backwards",
					model.ErrMalformedInput, c.Key, pi+1)
			}
			prev = elapsed

			acc, err := Classify(pi+1, rec.Button, cfg.Target)
			if err != nil {
				return nil, err
			}
			presses = append(presses, model.Press{
				Press:          pi + 1,
				Cycle:          ci + 1,
				Button:         rec.Button,
				ResponseTimeMs: rt,
				Accuracy:       acc,
			})
		}
	}
	return presses, nil
}

// CumulativeMs returns the running sum of inter-press times, i.e. each
// press's time since task start.
func CumulativeMs(presses []model.Press) []float64 {
	out := make([]float64, len(presses))
	var sum float64
	for i, p := range presses {
		sum += p.ResponseTimeMs
		out[i] = sum
	}
	return out
}
