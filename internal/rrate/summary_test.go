package rrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/respire/internal/model"
)

func gappedSeries() model.RateSeries {
	return model.RateSeries{
		Subject: "sub-004",
		Offset:  100,
		Values:  []model.Measure{{}, model.Some(10), model.Some(12), {}, model.Some(16)},
	}
}

func TestSummarizeSlopeVersions(t *testing.T) {
	s, err := Summarize(gappedSeries())
	require.NoError(t, err)

	assert.Equal(t, "sub-004", s.Subject)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 38.0/3, s.Mean, 1e-9)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 12.0, s.Median)
	assert.Equal(t, 16.0, s.Max)
	// index slope over positions 0,1,2; time slope over bins 101,102,104
	assert.InDelta(t, 3.0, s.Slope, 1e-9)
	assert.InDelta(t, 2.0, s.SlopeTime, 1e-9)
}

func TestSummarizeNeedsTwoPoints(t *testing.T) {
	_, err := Summarize(model.RateSeries{Values: []model.Measure{model.Some(12), {}}})
	require.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestTimecourseTable(t *testing.T) {
	cfg := model.DefaultConfig()
	table := TimecourseTable([]model.RateSeries{gappedSeries()}, cfg)

	require.Len(t, table.Rows, 5)
	assert.Equal(t, []string{"sub-004", "100", "100.0", "n/a"}, table.Rows[0])
	assert.Equal(t, []string{"sub-004", "101", "101.0", "10.000"}, table.Rows[1])
}

func TestSummaryTable(t *testing.T) {
	rate, err := Summarize(gappedSeries())
	require.NoError(t, err)
	table := SummaryTable([]model.SubjectSummary{{
		Rate: rate,
		Cycles: model.CycleStats{
			Subject:          "sub-004",
			Cycles:           4,
			CorrectRate:      0.75,
			ResponseTimeMean: 3000,
		},
	}})

	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Len(t, row, len(table.Columns))
	assert.Equal(t, "sub-004", row[0])
	assert.Equal(t, "4", row[table.Index("cycles")])
	assert.Equal(t, "0.750", row[table.Index("cycle_correct")])
	assert.Equal(t, "n/a", row[table.Index("cycle_response_time-std")])
	assert.Equal(t, "12.667", row[table.Index("mean")])
	assert.Equal(t, "3.000000", row[table.Index("slope")])
	assert.Equal(t, SummaryMeasures, table.Columns[1:])
}

func TestGroupTableFillsMissingSmoothing(t *testing.T) {
	cfg := model.DefaultConfig()
	raw := []model.GroupPoint{
		{Bin: 60, N: 2, Mean: model.Some(25), CILow: model.Some(20), CIHigh: model.Some(30)},
		{Bin: 61, N: 1, Mean: model.Some(30)},
	}
	smooth := []model.GroupPoint{{Bin: 60, N: 2, Mean: model.Some(26)}}

	table := GroupTable(raw, smooth, cfg)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"60", "60.0", "2", "25.000", "20.000", "30.000", "26.000", "n/a", "n/a"}, table.Rows[0])
	assert.Equal(t, []string{"61", "61.0", "1", "30.000", "n/a", "n/a", "n/a", "n/a", "n/a"}, table.Rows[1])
}
