package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"

	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/store"
)

// Report contains the latest stored runs prepared for rendering.
type Report struct {
	Rate        *RateReport
	Correlation *CorrelationReport
}

// RateReport is a stored breath-counting run.
type RateReport struct {
	Run      model.Run
	Subjects []model.SubjectSummary
	Group    []model.GroupPoint
}

// CorrelationReport is a stored empathic-accuracy run.
type CorrelationReport struct {
	Run       model.Run
	Subjects  []model.SubjectCorrelation
	Trials    int
	Saturated int
}

// BuildReport loads the latest run of each task. Tasks without a stored run
// are left nil.
func BuildReport(ctx context.Context, st *store.Store) (Report, error) {
	var report Report

	run, err := st.LatestRun(ctx, model.TaskBCT)
	switch {
	case err == nil:
		rr := &RateReport{Run: run}
		if rr.Subjects, err = st.SubjectRates(ctx, run.ID); err != nil {
			return Report{}, err
		}
		if rr.Group, err = st.GroupRates(ctx, run.ID); err != nil {
			return Report{}, err
		}
		report.Rate = rr
	case !errors.Is(err, store.ErrNoRun):
		return Report{}, err
	}

	run, err = st.LatestRun(ctx, model.TaskEAT)
	switch {
	case err == nil:
		cr := &CorrelationReport{Run: run}
		if cr.Subjects, err = st.SubjectCorrelations(ctx, run.ID); err != nil {
			return Report{}, err
		}
		if cr.Trials, cr.Saturated, err = st.SaturatedTrials(ctx, run.ID); err != nil {
			return Report{}, err
		}
		report.Correlation = cr
	case !errors.Is(err, store.ErrNoRun):
		return Report{}, err
	}
	return report, nil
}

// Render lays the report out as text lines. width bounds the sparkline; zero
// leaves it at one character per bin.
func Render(r Report, width int, now time.Time) []string {
	if r.Rate == nil && r.Correlation == nil {
		return []string{"No stored runs."}
	}
	var lines []string
	if rr := r.Rate; rr != nil {
		lines = append(lines, runHeader("Respiration rate", rr.Run, now))
		rows := make([][]string, 0, len(rr.Subjects))
		for _, s := range rr.Subjects {
			rows = append(rows, []string{
				s.Rate.Subject,
				humanize.Comma(int64(s.Cycles.Cycles)),
				fmt.Sprintf("%.0f%%", s.Cycles.CorrectRate*100),
				humanize.Comma(int64(s.Rate.Count)),
				fmt.Sprintf("%.2f", s.Rate.Mean),
				fmt.Sprintf("%.2f", s.Rate.Std),
				fmt.Sprintf("%+.4f", s.Rate.Slope),
				fmt.Sprintf("%+.4f", s.Rate.SlopeTime),
			})
		}
		lines = append(lines, FormatTable(
			[]string{"participant", "cycles", "correct", "points", "mean", "std", "slope", "slope/bin"},
			rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true},
		)...)
		if curve := groupCurve(rr.Group); len(curve) > 0 {
			lines = append(lines, "",
				fmt.Sprintf("Group mean %.1f to %.1f per minute over %s bins",
					floats.Min(curve), floats.Max(curve), humanize.Comma(int64(len(rr.Group)))),
				Sparkline(Downsample(curve, width)),
			)
		}
	}
	if cr := r.Correlation; cr != nil {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, runHeader("Empathic accuracy", cr.Run, now))
		rows := make([][]string, 0, len(cr.Subjects))
		for _, s := range cr.Subjects {
			rows = append(rows, []string{
				s.Subject,
				string(s.Acquisition),
				humanize.Comma(int64(s.Trials)),
				formatMeasure(s.Actor.Mean),
				formatMeasure(s.Actor.Std),
				formatMeasure(s.Crowd.Mean),
				formatMeasure(s.Crowd.Std),
			})
		}
		lines = append(lines, FormatTable(
			[]string{"participant", "acq", "trials", "actor", "actor std", "crowd", "crowd std"},
			rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true},
		)...)
		if cr.Saturated > 0 {
			lines = append(lines, "", fmt.Sprintf("%s of %s trials saturated (perfect correlation, clamped)",
				humanize.Comma(int64(cr.Saturated)), humanize.Comma(int64(cr.Trials))))
		}
	}
	return lines
}

func runHeader(title string, run model.Run, now time.Time) string {
	return fmt.Sprintf("%s: %s subjects, finished %s (run %s)",
		title, humanize.Comma(int64(run.Subjects)), humanize.RelTime(run.EndedAt, now, "ago", "from now"), shortID(run.ID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func groupCurve(points []model.GroupPoint) []float64 {
	curve := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Mean.Valid {
			curve = append(curve, p.Mean.Value)
		}
	}
	return curve
}

func formatMeasure(m model.Measure) string {
	if !m.Valid {
		return "-"
	}
	return fmt.Sprintf("%.3f", m.Value)
}
