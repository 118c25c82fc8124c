package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/verte-zerg/respire/internal/bct"
	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/eat"
	"github.com/verte-zerg/respire/internal/model"
)

// ConvertBCT turns every breath-counting source log below sourcedata into a
// behavioral press table. It returns the written paths.
func (p *Pipeline) ConvertBCT(ctx context.Context) ([]string, error) {
	files, err := bids.FindSource(p.Root, bct.Task, ".json")
	if err != nil {
		return nil, model.WrapStage(batch, StageDiscover, err)
	}
	var written []string
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		out, err := p.convertBCT(file)
		if err != nil {
			p.Logger.Error("conversion failed", zap.String("file", file), zap.Error(err))
			return written, err
		}
		written = append(written, out)
	}
	p.Logger.Info("converted breath-counting logs", zap.Int("files", len(written)))
	return written, nil
}

func (p *Pipeline) convertBCT(file string) (string, error) {
	id, err := bids.ParseFilename(file)
	if err != nil {
		return "", model.WrapStage(batch, StageConvert, err)
	}
	subject := id.ParticipantID()
	f, err := os.Open(file)
	if err != nil {
		return "", model.WrapStage(subject, StageConvert, err)
	}
	defer func() {
		_ = f.Close()
	}()

	cycles, err := bct.ParseSource(f)
	if err != nil {
		return "", model.WrapStage(subject, StageConvert, fmt.Errorf("%s: %w", filepath.Base(file), err))
	}
	presses, err := bct.Normalize(cycles, p.Config)
	if err != nil {
		return "", model.WrapStage(subject, StageConvert, fmt.Errorf("%s: %w", filepath.Base(file), err))
	}

	id.Task = bct.Task
	id.Acquisition = ""
	out := filepath.Join(bids.SubjectDir(p.Root, id), id.Filename("beh", ".tsv"))
	if err := bids.WriteTableWithSidecar(out, bct.PressTable(presses), bct.Sidecar); err != nil {
		return "", model.WrapStage(subject, StageWrite, err)
	}
	p.Logger.Debug("converted", zap.String("subject", subject), zap.Int("presses", len(presses)))
	return out, nil
}

// ConvertEAT turns every empathic-accuracy source log into a behavioral
// slider table, one per acquisition. It returns the written paths.
func (p *Pipeline) ConvertEAT(ctx context.Context) ([]string, error) {
	files, err := bids.FindSource(p.Root, eat.Task, ".json")
	if err != nil {
		return nil, model.WrapStage(batch, StageDiscover, err)
	}
	var written []string
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		out, err := p.convertEAT(file)
		if err != nil {
			p.Logger.Error("conversion failed", zap.String("file", file), zap.Error(err))
			return written, err
		}
		written = append(written, out)
	}
	p.Logger.Info("converted empathic-accuracy logs", zap.Int("files", len(written)))
	return written, nil
}

func (p *Pipeline) convertEAT(file string) (string, error) {
	id, err := bids.ParseFilename(file)
	if err != nil {
		return "", model.WrapStage(batch, StageConvert, err)
	}
	subject := id.ParticipantID()
	acq, err := eat.AcquisitionOf(id.Task)
	if err != nil {
		return "", model.WrapStage(subject, StageConvert, err)
	}
	f, err := os.Open(file)
	if err != nil {
		return "", model.WrapStage(subject, StageConvert, err)
	}
	defer func() {
		_ = f.Close()
	}()

	samples, err := eat.ParseSource(f, p.Config)
	if err != nil {
		return "", model.WrapStage(subject, StageConvert, fmt.Errorf("%s: %w", filepath.Base(file), err))
	}

	id.Task = eat.Task
	id.Acquisition = string(acq)
	out := filepath.Join(bids.SubjectDir(p.Root, id), id.Filename("beh", ".tsv"))
	if err := bids.WriteTableWithSidecar(out, eat.SampleTable(samples), eat.Sidecar); err != nil {
		return "", model.WrapStage(subject, StageWrite, err)
	}
	p.Logger.Debug("converted", zap.String("subject", subject), zap.String("acquisition", id.Acquisition),
		zap.Int("samples", len(samples)))
	return out, nil
}
