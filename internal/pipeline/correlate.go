package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/eat"
	"github.com/verte-zerg/respire/internal/model"
)

// ErrNoReferences is returned when scoring runs without reference ratings.
var ErrNoReferences = errors.New("no reference ratings configured")

// CorrelationResult is the outcome of an empathic-accuracy run.
type CorrelationResult struct {
	RunID    string
	Trials   []model.TrialCorrelation
	Subjects []model.SubjectCorrelation
}

// RunCorrelation scores every slider table against the reference ratings,
// aggregates per subject and acquisition, and writes the derived tables.
func (p *Pipeline) RunCorrelation(ctx context.Context) (CorrelationResult, error) {
	started := p.now()
	if err := p.Config.Validate(); err != nil {
		return CorrelationResult{}, err
	}
	if p.References == nil {
		return CorrelationResult{}, ErrNoReferences
	}
	files, err := bids.FindBeh(p.Root, eat.Task)
	if err != nil {
		return CorrelationResult{}, model.WrapStage(batch, StageDiscover, err)
	}
	if len(files) == 0 {
		return CorrelationResult{}, model.WrapStage(batch, StageDiscover,
			fmt.Errorf("%w: no %s behavioral tables under %s", model.ErrInsufficientData, eat.Task, p.Root))
	}

	refs := eat.NewCache(p.References)
	scored := make([][]model.TrialCorrelation, len(files))
	subjects := make(map[string]bool)
	ids := make([]bids.Identifier, len(files))
	for i, file := range files {
		id, err := bids.ParseFilename(file)
		if err != nil {
			return CorrelationResult{}, model.WrapStage(batch, StageLoad, err)
		}
		ids[i] = id
		subjects[id.ParticipantID()] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trials, err := p.scoreFile(file, ids[i], refs)
			if err != nil {
				return err
			}
			scored[i] = trials
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.Logger.Error("empathic accuracy failed", zap.Error(err))
		return CorrelationResult{}, err
	}

	res := CorrelationResult{RunID: uuid.NewString()}
	for _, trials := range scored {
		res.Trials = append(res.Trials, trials...)
	}
	sort.SliceStable(res.Trials, func(i, j int) bool {
		a, b := res.Trials[i], res.Trials[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Acquisition == model.AcquisitionPre && b.Acquisition != model.AcquisitionPre
	})
	res.Subjects = eat.Aggregate(res.Trials)

	interventions, err := eat.LoadInterventions(p.Root)
	if err != nil {
		return CorrelationResult{}, model.WrapStage(batch, StageLoad, err)
	}
	if err := p.writeCorrelation(res, interventions); err != nil {
		return CorrelationResult{}, model.WrapStage(batch, StageWrite, err)
	}
	if p.Store != nil {
		run := model.Run{
			ID:        res.RunID,
			BIDSRoot:  p.Root,
			Subjects:  len(subjects),
			StartedAt: started,
			EndedAt:   p.now(),
			Config:    p.Config,
		}
		if err := p.Store.InsertCorrelationRun(ctx, run, res.Trials, res.Subjects); err != nil {
			return CorrelationResult{}, model.WrapStage(batch, StageStore, err)
		}
	}
	p.Logger.Info("empathic accuracy done",
		zap.String("run", res.RunID),
		zap.Int("subjects", len(subjects)),
		zap.Int("trials", len(res.Trials)),
	)
	return res, nil
}

func (p *Pipeline) scoreFile(file string, id bids.Identifier, refs eat.ReferenceSource) ([]model.TrialCorrelation, error) {
	subject := id.ParticipantID()
	acq := model.Acquisition(id.Acquisition)
	if acq != model.AcquisitionPre && acq != model.AcquisitionPost {
		return nil, model.WrapStage(subject, StageLoad,
			fmt.Errorf("%w: %s: acquisition %q", model.ErrMalformedInput, filepath.Base(file), id.Acquisition))
	}
	t, err := bids.ReadTable(file)
	if err != nil {
		return nil, model.WrapStage(subject, StageLoad, err)
	}
	samples, err := eat.ReadSamples(t)
	if err != nil {
		return nil, model.WrapStage(subject, StageLoad, err)
	}
	trials, err := eat.ScoreAll(subject, acq, samples, refs)
	if err != nil {
		return nil, model.WrapStage(subject, StageScore, fmt.Errorf("%s: %w", acq, err))
	}
	p.Logger.Debug("subject scored",
		zap.String("subject", subject),
		zap.String("acquisition", string(acq)),
		zap.Int("trials", len(trials)),
	)
	return trials, nil
}

func (p *Pipeline) writeCorrelation(res CorrelationResult, interventions eat.Interventions) error {
	dir := p.OutputDir()
	if err := bids.WriteTableWithSidecar(filepath.Join(dir, eat.TrialFile),
		eat.TrialTable(res.Trials), eat.TrialSidecar); err != nil {
		return err
	}
	for _, acq := range []model.Acquisition{model.AcquisitionPre, model.AcquisitionPost} {
		subjects := eat.ByAcquisition(res.Subjects, acq)
		if len(subjects) == 0 {
			continue
		}
		if err := bids.WriteWithDescr(filepath.Join(dir, eat.SubjectFile(acq)),
			eat.SubjectTable(subjects), eat.SubjectSidecar, eat.MetricColumns...); err != nil {
			return err
		}
	}
	merged, err := eat.MergedTable(res.Subjects, interventions)
	if err != nil {
		return err
	}
	return bids.WriteTableWithSidecar(filepath.Join(dir, eat.MergedFile), merged, eat.SubjectSidecar)
}
