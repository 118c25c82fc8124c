package eat

import (
	"fmt"
	"sync"

	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/stats"
)

// Correlate scores ratings against one reference series. Both series are cut
// to the shorter length, z-scored with the population standard deviation,
// rank correlated, and Fisher transformed. A perfect correlation is clamped
// and flagged as saturated.
func Correlate(ratings, reference []float64) (model.Correlation, error) {
	n := min(len(ratings), len(reference))
	if n < 2 {
		return model.Correlation{}, fmt.Errorf("%w: %d aligned samples", model.ErrInsufficientData, n)
	}
	zr, err := stats.ZScore(ratings[:n])
	if err != nil {
		return model.Correlation{}, fmt.Errorf("ratings: %w", err)
	}
	zref, err := stats.ZScore(reference[:n])
	if err != nil {
		return model.Correlation{}, fmt.Errorf("reference: %w", err)
	}
	r, err := stats.Spearman(zr, zref)
	if err != nil {
		return model.Correlation{}, err
	}
	z, saturated := stats.Fisher(r)
	return model.Correlation{R: r, Z: z, N: n, Saturated: saturated}, nil
}

// Score correlates one trial with the actor and crowd references.
func Score(subject string, acq model.Acquisition, trial Trial, ref model.Reference) (model.TrialCorrelation, error) {
	tc := model.TrialCorrelation{Subject: subject, Acquisition: acq, Stimulus: trial.Stimulus}
	var err error
	if tc.Actor, err = Correlate(trial.Ratings, ref.Actor); err != nil {
		return model.TrialCorrelation{}, fmt.Errorf("%s actor: %w", trial.Stimulus, err)
	}
	if tc.Crowd, err = Correlate(trial.Ratings, ref.Crowd); err != nil {
		return model.TrialCorrelation{}, fmt.Errorf("%s crowd: %w", trial.Stimulus, err)
	}
	return tc, nil
}

// ScoreAll scores every trial in samples, in presentation order.
func ScoreAll(subject string, acq model.Acquisition, samples []model.SliderSample, src ReferenceSource) ([]model.TrialCorrelation, error) {
	trials := Trials(samples)
	out := make([]model.TrialCorrelation, 0, len(trials))
	for _, trial := range trials {
		ref, err := src.Reference(trial.Stimulus)
		if err != nil {
			return nil, err
		}
		tc, err := Score(subject, acq, trial, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}

// Cache memoizes a ReferenceSource. It is safe for concurrent use.
type Cache struct {
	src  ReferenceSource
	mu   sync.Mutex
	refs map[string]model.Reference
}

// NewCache wraps src.
func NewCache(src ReferenceSource) *Cache {
	return &Cache{src: src, refs: make(map[string]model.Reference)}
}

// Reference returns the cached reference, loading it on first use.
func (c *Cache) Reference(stimulus string) (model.Reference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ref, ok := c.refs[stimulus]; ok {
		return ref, nil
	}
	ref, err := c.src.Reference(stimulus)
	if err != nil {
		return model.Reference{}, err
	}
	c.refs[stimulus] = ref
	return ref, nil
}
