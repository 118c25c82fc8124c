package eat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func trial(subject string, acq model.Acquisition, stimulus string, actor, crowd float64) model.TrialCorrelation {
	return model.TrialCorrelation{
		Subject:     subject,
		Acquisition: acq,
		Stimulus:    stimulus,
		Actor:       model.Correlation{Z: actor},
		Crowd:       model.Correlation{Z: crowd},
	}
}

func sampleTrials() []model.TrialCorrelation {
	return []model.TrialCorrelation{
		trial("sub-002", model.AcquisitionPost, "ID113_vid3", 0.4, 0.1),
		trial("sub-001", model.AcquisitionPost, "ID113_vid3", 0.2, 0.3),
		trial("sub-001", model.AcquisitionPre, "ID113_vid3", 0.1, 0.5),
		trial("sub-001", model.AcquisitionPre, "ID120_vid2", 0.3, 0.1),
		trial("sub-001", model.AcquisitionPre, "ID121_vid1", 0.8, -0.3),
	}
}

func TestAggregateGroupsAndOrders(t *testing.T) {
	got := Aggregate(sampleTrials())
	require.Len(t, got, 3)

	assert.Equal(t, "sub-001", got[0].Subject)
	assert.Equal(t, model.AcquisitionPre, got[0].Acquisition)
	assert.Equal(t, 3, got[0].Trials)
	assert.InDelta(t, 0.4, got[0].Actor.Mean.Value, 1e-12)
	assert.InDelta(t, 0.360555127546, got[0].Actor.Std.Value, 1e-9)
	assert.Equal(t, model.Some(0.1), got[0].Actor.Min)
	assert.Equal(t, model.Some(0.8), got[0].Actor.Max)
	assert.InDelta(t, 0.1, got[0].Crowd.Mean.Value, 1e-12)
	assert.InDelta(t, 0.4, got[0].Crowd.Std.Value, 1e-12)

	assert.Equal(t, model.AcquisitionPost, got[1].Acquisition)
	assert.Equal(t, 1, got[1].Trials)
	assert.False(t, got[1].Actor.Std.Valid)
	assert.Equal(t, model.Some(0.2), got[1].Actor.Mean)

	assert.Equal(t, "sub-002", got[2].Subject)
}

func TestAggregateIsIdempotent(t *testing.T) {
	in := sampleTrials()
	first := Aggregate(in)
	second := Aggregate(in)
	assert.Equal(t, first, second)
	assert.Equal(t, sampleTrials(), in)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestByAcquisition(t *testing.T) {
	post := ByAcquisition(Aggregate(sampleTrials()), model.AcquisitionPost)
	require.Len(t, post, 2)
	assert.Equal(t, "sub-001", post[0].Subject)
	assert.Equal(t, "sub-002", post[1].Subject)
}
