package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/respire/internal/bct"
	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/rrate"
)

// RateResult is the outcome of a breath-counting run.
type RateResult struct {
	RunID    string
	Subjects []model.SubjectSummary
	Series   []model.RateSeries
	Group    []model.GroupPoint
	Smoothed []model.GroupPoint
}

type subjectRate struct {
	summary model.SubjectSummary
	series  model.RateSeries
}

// RunRate estimates every subject's respiration rate, then the group
// timecourse, and writes the derived tables. Subjects run in parallel; the
// group stage starts only after all of them finished. The first failing
// subject aborts the batch.
func (p *Pipeline) RunRate(ctx context.Context) (RateResult, error) {
	started := p.now()
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return RateResult{}, err
	}
	files, err := bids.FindBeh(p.Root, bct.Task)
	if err != nil {
		return RateResult{}, model.WrapStage(batch, StageDiscover, err)
	}
	if len(files) == 0 {
		return RateResult{}, model.WrapStage(batch, StageDiscover,
			fmt.Errorf("%w: no %s behavioral tables under %s", model.ErrInsufficientData, bct.Task, p.Root))
	}

	results := make([]subjectRate, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := p.rateSubject(file, cfg)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.Logger.Error("respiration rate failed", zap.Error(err))
		return RateResult{}, err
	}

	res := RateResult{RunID: uuid.NewString()}
	for _, r := range results {
		res.Subjects = append(res.Subjects, r.summary)
		res.Series = append(res.Series, r.series)
	}
	res.Group, err = rrate.Group(ctx, res.Series, cfg)
	if err != nil {
		return RateResult{}, model.WrapStage(batch, StageGroup, err)
	}
	res.Smoothed = rrate.Smooth(res.Group, cfg)

	if err := p.writeRate(res); err != nil {
		return RateResult{}, model.WrapStage(batch, StageWrite, err)
	}
	if p.Store != nil {
		run := model.Run{
			ID:        res.RunID,
			BIDSRoot:  p.Root,
			Subjects:  len(res.Subjects),
			StartedAt: started,
			EndedAt:   p.now(),
			Config:    cfg,
		}
		if err := p.Store.InsertRateRun(ctx, run, res.Subjects, res.Group); err != nil {
			return RateResult{}, model.WrapStage(batch, StageStore, err)
		}
	}
	p.Logger.Info("respiration rate done",
		zap.String("run", res.RunID),
		zap.Int("subjects", len(res.Subjects)),
		zap.Int("bins", len(res.Group)),
	)
	return res, nil
}

func (p *Pipeline) rateSubject(file string, cfg model.Config) (subjectRate, error) {
	id, err := bids.ParseFilename(file)
	if err != nil {
		return subjectRate{}, model.WrapStage(batch, StageLoad, err)
	}
	subject := id.ParticipantID()
	t, err := bids.ReadTable(file)
	if err != nil {
		return subjectRate{}, model.WrapStage(subject, StageLoad, err)
	}
	presses, err := bct.ReadPresses(t, cfg.Target)
	if err != nil {
		return subjectRate{}, model.WrapStage(subject, StageLoad, err)
	}
	cycles, err := bct.SummarizeCycles(subject, presses)
	if err != nil {
		return subjectRate{}, model.WrapStage(subject, StageCycles, err)
	}
	cycleStats, err := bct.SummarizeSubject(subject, cycles)
	if err != nil {
		return subjectRate{}, model.WrapStage(subject, StageCycles, err)
	}

	row := rrate.Bin(subject, bct.CumulativeMs(presses), cfg)
	series := rrate.Estimate(row, cfg)
	rate, err := rrate.Summarize(series)
	if err != nil {
		return subjectRate{}, model.WrapStage(subject, StageRate, err)
	}
	p.Logger.Debug("subject rate",
		zap.String("subject", subject),
		zap.Int("presses", len(presses)),
		zap.Int("points", rate.Count),
		zap.Float64("mean", rate.Mean),
	)
	return subjectRate{
		summary: model.SubjectSummary{Rate: rate, Cycles: cycleStats},
		series:  series,
	}, nil
}

func (p *Pipeline) writeRate(res RateResult) error {
	dir := p.OutputDir()
	if err := bids.WriteTableWithSidecar(filepath.Join(dir, rrate.TimecourseFile),
		rrate.TimecourseTable(res.Series, p.Config), rrate.TimecourseSidecar); err != nil {
		return err
	}
	if err := bids.WriteWithDescr(filepath.Join(dir, rrate.SummaryFile),
		rrate.SummaryTable(res.Subjects), rrate.SummarySidecar, rrate.SummaryMeasures...); err != nil {
		return err
	}
	return bids.WriteTableWithSidecar(filepath.Join(dir, rrate.GroupFile),
		rrate.GroupTable(res.Group, res.Smoothed, p.Config), rrate.GroupSidecar)
}
