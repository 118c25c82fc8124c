package stats

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "respire.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()

	empty, err := BuildReport(ctx, st)
	require.NoError(t, err)
	assert.Nil(t, empty.Rate)
	assert.Nil(t, empty.Correlation)
	assert.Equal(t, []string{"No stored runs."}, Render(empty, 40, time.Now()))

	end := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	run := model.Run{ID: "0123456789abcdef", BIDSRoot: "/bids", Subjects: 1, StartedAt: end.Add(-time.Minute), EndedAt: end}
	subjects := []model.SubjectSummary{{
		Rate:   model.RateSummary{Subject: "sub-001", Count: 1210, Mean: 30, Std: 0.5, Slope: 0.001},
		Cycles: model.CycleStats{Cycles: 10, CorrectRate: 1},
	}}
	group := []model.GroupPoint{
		{Bin: 60, N: 1, Mean: model.Some(10)},
		{Bin: 61, N: 1, Mean: model.Some(20)},
		{Bin: 62, N: 0},
	}
	require.NoError(t, st.InsertRateRun(ctx, run, subjects, group))

	eatRun := run
	eatRun.ID = "fedcba9876543210"
	trials := []model.TrialCorrelation{{Subject: "sub-001", Acquisition: model.AcquisitionPre, Stimulus: "ID113_vid3",
		Actor: model.Correlation{Z: 8.3, Saturated: true}}}
	require.NoError(t, st.InsertCorrelationRun(ctx, eatRun, trials, []model.SubjectCorrelation{{
		Subject: "sub-001", Acquisition: model.AcquisitionPre, Trials: 1,
		Actor: model.MetricStats{Mean: model.Some(8.3)},
	}}))

	report, err := BuildReport(ctx, st)
	require.NoError(t, err)
	require.NotNil(t, report.Rate)
	require.NotNil(t, report.Correlation)
	assert.Len(t, report.Rate.Group, 3)
	assert.Equal(t, 1, report.Correlation.Saturated)

	lines := Render(report, 40, end.Add(2*time.Hour))
	text := strings.Join(lines, "\n")
	assert.Contains(t, lines[0], "Respiration rate: 1 subjects, finished 2 hours ago (run 01234567)")
	assert.Contains(t, text, "1,210")
	assert.Contains(t, text, "100%")
	assert.Contains(t, text, "Group mean 10.0 to 20.0 per minute over 3 bins")
	assert.Contains(t, text, " @")
	assert.Contains(t, text, "Empathic accuracy")
	assert.Contains(t, text, "8.300")
	assert.Contains(t, text, "1 of 1 trials saturated")
}
