package rrate

import (
	"fmt"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/model"
)

// Output file names below the derivatives directory.
const (
	TimecourseFile = "task-bct_rrate_timecourse.tsv"
	SummaryFile    = "task-bct_rrate.tsv"
	GroupFile      = "task-bct_rrate_group.tsv"
)

// TimecourseTable lists every subject's rate per bin in long form.
func TimecourseTable(series []model.RateSeries, cfg model.Config) bids.Table {
	t := bids.Table{Columns: []string{"participant_id", "bin", "time", "rrate"}}
	for _, s := range series {
		for i, v := range s.Values {
			bin := s.Offset + i
			t.Rows = append(t.Rows, []string{
				s.Subject,
				fmt.Sprintf("%d", bin),
				bids.FormatFloat(float64(bin)*cfg.BinWidthMs/1000, 1),
				bids.FormatMeasure(v, 3),
			})
		}
	}
	return t
}

// TimecourseSidecar describes TimecourseTable.
var TimecourseSidecar = bids.Sidecar{
	Columns: map[string]bids.Column{
		"bin":   {Description: "Time bin index from task start."},
		"time":  {Description: "Start of the time bin.", Units: "seconds"},
		"rrate": {LongName: "Respiration rate", Description: "Smoothed presses per minute; n/a where the sliding window lacked support.", Units: "presses per minute"},
	},
}

var summaryColumns = []string{
	"participant_id",
	"cycles", "cycle_correct", "cycle_response_time-mean", "cycle_response_time-std",
	"count", "mean", "std", "min", "25%", "50%", "75%", "max", "slope", "slope_time",
}

// SummaryMeasures are the numeric columns of SummaryTable.
var SummaryMeasures = summaryColumns[1:]

// SummaryTable renders one row per subject.
func SummaryTable(summaries []model.SubjectSummary) bids.Table {
	t := bids.Table{Columns: summaryColumns}
	for _, s := range summaries {
		r, c := s.Rate, s.Cycles
		t.Rows = append(t.Rows, []string{
			r.Subject,
			fmt.Sprintf("%d", c.Cycles),
			bids.FormatFloat(c.CorrectRate, 3),
			bids.FormatFloat(c.ResponseTimeMean, 2),
			bids.FormatMeasure(c.ResponseTimeStd, 2),
			fmt.Sprintf("%d", r.Count),
			bids.FormatFloat(r.Mean, 3),
			bids.FormatFloat(r.Std, 3),
			bids.FormatFloat(r.Min, 3),
			bids.FormatFloat(r.Q25, 3),
			bids.FormatFloat(r.Median, 3),
			bids.FormatFloat(r.Q75, 3),
			bids.FormatFloat(r.Max, 3),
			bids.FormatFloat(r.Slope, 6),
			bids.FormatFloat(r.SlopeTime, 6),
		})
	}
	return t
}

// SummarySidecar describes SummaryTable.
var SummarySidecar = bids.Sidecar{
	Columns: map[string]bids.Column{
		"cycles":                   {Description: "Number of complete cycles."},
		"cycle_correct":            {Description: "Proportion of cycles whose final press was correct."},
		"cycle_response_time-mean": {Description: "Mean over cycles of the within-cycle mean inter-press time.", Units: "milliseconds"},
		"cycle_response_time-std":  {Description: "Mean over cycles of the within-cycle inter-press time standard deviation.", Units: "milliseconds"},
		"count":                    {Description: "Number of valid respiration-rate points."},
		"mean":                     {Description: "Mean respiration rate.", Units: "presses per minute"},
		"std":                      {Description: "Sample standard deviation of respiration rate.", Units: "presses per minute"},
		"slope":                    {Description: "OLS slope of respiration rate against the position among valid points."},
		"slope_time":               {Description: "OLS slope of respiration rate against the absolute time bin."},
	},
}

// GroupTable renders the group timecourse with raw and smoothed columns.
func GroupTable(raw, smooth []model.GroupPoint, cfg model.Config) bids.Table {
	t := bids.Table{Columns: []string{
		"bin", "time", "n", "mean", "cilo", "cihi", "mean_smooth", "cilo_smooth", "cihi_smooth",
	}}
	for i, p := range raw {
		var s model.GroupPoint
		if i < len(smooth) {
			s = smooth[i]
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", p.Bin),
			bids.FormatFloat(float64(p.Bin)*cfg.BinWidthMs/1000, 1),
			fmt.Sprintf("%d", p.N),
			bids.FormatMeasure(p.Mean, 3),
			bids.FormatMeasure(p.CILow, 3),
			bids.FormatMeasure(p.CIHigh, 3),
			bids.FormatMeasure(s.Mean, 3),
			bids.FormatMeasure(s.CILow, 3),
			bids.FormatMeasure(s.CIHigh, 3),
		})
	}
	return t
}

// GroupSidecar describes GroupTable.
var GroupSidecar = bids.Sidecar{
	Columns: map[string]bids.Column{
		"n":           {Description: "Number of subjects with a valid rate at this bin."},
		"mean":        {Description: "Mean respiration rate across subjects.", Units: "presses per minute"},
		"cilo":        {Description: "Lower bound of the BCa bootstrap confidence interval of the mean."},
		"cihi":        {Description: "Upper bound of the BCa bootstrap confidence interval of the mean."},
		"mean_smooth": {Description: "Gaussian-smoothed mean for display."},
	},
}
