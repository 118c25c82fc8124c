package eat

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/respire/internal/model"
)

type groupKey struct {
	subject string
	acq     model.Acquisition
}

// Aggregate groups trials by subject and acquisition and summarizes the
// Fisher-transformed actor and crowd correlations. Groups are ordered by
// subject, then pre before post. The input is not modified.
func Aggregate(trials []model.TrialCorrelation) []model.SubjectCorrelation {
	groups := make(map[groupKey][]model.TrialCorrelation)
	var keys []groupKey
	for _, tc := range trials {
		k := groupKey{tc.Subject, tc.Acquisition}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], tc)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].subject != keys[j].subject {
			return keys[i].subject < keys[j].subject
		}
		return acquisitionOrder(keys[i].acq) < acquisitionOrder(keys[j].acq)
	})

	out := make([]model.SubjectCorrelation, 0, len(keys))
	for _, k := range keys {
		group := groups[k]
		actor := make([]float64, len(group))
		crowd := make([]float64, len(group))
		for i, tc := range group {
			actor[i] = tc.Actor.Z
			crowd[i] = tc.Crowd.Z
		}
		out = append(out, model.SubjectCorrelation{
			Subject:     k.subject,
			Acquisition: k.acq,
			Trials:      len(group),
			Actor:       metricStats(actor),
			Crowd:       metricStats(crowd),
		})
	}
	return out
}

func acquisitionOrder(a model.Acquisition) int {
	switch a {
	case model.AcquisitionPre:
		return 0
	case model.AcquisitionPost:
		return 1
	}
	return 2
}

// metricStats returns mean, sample std, min and max. Std is missing for a
// single trial.
func metricStats(values []float64) model.MetricStats {
	if len(values) == 0 {
		return model.MetricStats{}
	}
	ms := model.MetricStats{
		Mean: model.Some(stat.Mean(values, nil)),
		Min:  model.Some(floats.Min(values)),
		Max:  model.Some(floats.Max(values)),
	}
	if len(values) > 1 {
		ms.Std = model.Some(stat.StdDev(values, nil))
	}
	return ms
}

// ByAcquisition returns the summaries of one acquisition.
func ByAcquisition(subjects []model.SubjectCorrelation, acq model.Acquisition) []model.SubjectCorrelation {
	var out []model.SubjectCorrelation
	for _, s := range subjects {
		if s.Acquisition == acq {
			out = append(out, s)
		}
	}
	return out
}
