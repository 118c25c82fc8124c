package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/eat"
	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/rrate"
)

// MergeFile is the participant-level table joining every derived measure.
const MergeFile = "task-all_agg-sub.tsv"

const (
	participantKey  = "participant_id"
	phenotypeDir    = "phenotype"
	participantsTSV = "participants.tsv"
	ratePrefix      = "rrate-"
	deltaSuffix     = "_delta"
)

// MergeResult is the participant-level table and the inputs it joined.
type MergeResult struct {
	Table   bids.Table
	Sidecar bids.Sidecar
	Sources []string
}

// joinSource is one optional input of the merge.
type joinSource struct {
	path    string
	table   bids.Table
	sidecar bids.Sidecar
	rename  func(string) string
}

// RunMerge builds one row per participant from participants.tsv, every
// phenotype table, the respiration-rate summary and the pre/post
// empathic-accuracy aggregates. Aggregate columns get _pre and _post
// suffixes, and _delta holds post minus pre. Missing inputs are skipped, but
// at least one derived table must exist.
func (p *Pipeline) RunMerge(ctx context.Context) (MergeResult, error) {
	if err := p.Config.Validate(); err != nil {
		return MergeResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return MergeResult{}, err
	}
	dir := p.OutputDir()

	var derived []joinSource
	rate, ok, err := readOptional(filepath.Join(dir, rrate.SummaryFile))
	if err != nil {
		return MergeResult{}, model.WrapStage(batch, StageLoad, err)
	}
	if ok {
		rate.sidecar = rrate.SummarySidecar
		rate.rename = func(c string) string { return ratePrefix + c }
		derived = append(derived, rate)
	}
	acquired := map[model.Acquisition]bool{}
	for _, acq := range []model.Acquisition{model.AcquisitionPre, model.AcquisitionPost} {
		src, ok, err := readOptional(filepath.Join(dir, eat.SubjectFile(acq)))
		if err != nil {
			return MergeResult{}, model.WrapStage(batch, StageLoad, err)
		}
		if !ok {
			continue
		}
		suffix := "_" + string(acq)
		src.sidecar = eat.SubjectSidecar
		src.rename = func(c string) string { return c + suffix }
		derived = append(derived, src)
		acquired[acq] = true
	}
	if len(derived) == 0 {
		return MergeResult{}, model.WrapStage(batch, StageDiscover,
			fmt.Errorf("%w: no derived tables under %s", model.ErrInsufficientData, dir))
	}

	base, sources, err := p.mergeBase(derived)
	if err != nil {
		return MergeResult{}, err
	}
	phenotypes, err := p.phenotypes()
	if err != nil {
		return MergeResult{}, model.WrapStage(batch, StageLoad, err)
	}

	res := MergeResult{
		Table:   base.table,
		Sidecar: bids.Sidecar{Columns: map[string]bids.Column{}},
		Sources: sources,
	}
	addColumns(res.Sidecar, base.sidecar, nil)
	for _, src := range append(phenotypes, derived...) {
		if src.rename == nil {
			src.rename = clashPrefix(res.Table, src.path)
		}
		if res.Table, err = bids.LeftJoin(res.Table, src.table, participantKey, src.rename); err != nil {
			return MergeResult{}, model.WrapStage(batch, StageMerge, fmt.Errorf("%s: %w", src.path, err))
		}
		addColumns(res.Sidecar, src.sidecar, src.rename)
		res.Sources = append(res.Sources, src.path)
	}
	if acquired[model.AcquisitionPre] && acquired[model.AcquisitionPost] {
		if err := addDeltas(&res, eat.MetricColumns); err != nil {
			return MergeResult{}, model.WrapStage(batch, StageMerge, err)
		}
	}
	for name := range res.Sidecar.Columns {
		if res.Table.Index(name) < 0 {
			delete(res.Sidecar.Columns, name)
		}
	}

	path := filepath.Join(dir, MergeFile)
	if err := bids.WriteTableWithSidecar(path, res.Table, res.Sidecar); err != nil {
		return MergeResult{}, model.WrapStage(batch, StageWrite, err)
	}
	p.Logger.Info("participant merge done",
		zap.String("file", path),
		zap.Int("participants", len(res.Table.Rows)),
		zap.Int("columns", len(res.Table.Columns)),
		zap.Int("sources", len(res.Sources)),
	)
	return res, nil
}

// mergeBase returns the participant list the merge starts from. With
// participants.tsv that file is the base; otherwise it is the sorted union of
// participants found in the derived tables.
func (p *Pipeline) mergeBase(derived []joinSource) (joinSource, []string, error) {
	path := filepath.Join(p.Root, participantsTSV)
	base, ok, err := readOptional(path)
	if err != nil {
		return joinSource{}, nil, model.WrapStage(batch, StageLoad, err)
	}
	if ok {
		if err := normalizeParticipants(&base.table); err != nil {
			return joinSource{}, nil, model.WrapStage(batch, StageLoad, fmt.Errorf("%s: %w", path, err))
		}
		return base, []string{path}, nil
	}

	seen := map[string]bool{}
	var ids []string
	for _, src := range derived {
		keys, err := src.table.Keys(participantKey)
		if err != nil {
			return joinSource{}, nil, model.WrapStage(batch, StageLoad, fmt.Errorf("%s: %w", src.path, err))
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				ids = append(ids, k)
			}
		}
	}
	sort.Strings(ids)
	t := bids.Table{Columns: []string{participantKey}}
	for _, id := range ids {
		t.Rows = append(t.Rows, []string{id})
	}
	return joinSource{table: t}, nil, nil
}

// phenotypes reads every table under <root>/phenotype in name order.
func (p *Pipeline) phenotypes() ([]joinSource, error) {
	files, err := filepath.Glob(filepath.Join(p.Root, phenotypeDir, "*.tsv"))
	if err != nil {
		return nil, err
	}
	out := make([]joinSource, 0, len(files))
	for _, file := range files {
		src, _, err := readOptional(file)
		if err != nil {
			return nil, err
		}
		if err := normalizeParticipants(&src.table); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		out = append(out, src)
	}
	return out, nil
}

// readOptional reads a table and its sidecar. A missing table is not an
// error; a missing sidecar leaves the descriptions empty.
func readOptional(path string) (joinSource, bool, error) {
	t, err := bids.ReadTable(path)
	if errors.Is(err, os.ErrNotExist) {
		return joinSource{}, false, nil
	}
	if err != nil {
		return joinSource{}, false, err
	}
	src := joinSource{path: path, table: t}
	side, err := bids.ReadSidecar(path)
	switch {
	case err == nil:
		src.sidecar = side
	case !errors.Is(err, os.ErrNotExist):
		return joinSource{}, false, err
	}
	return src, true, nil
}

func normalizeParticipants(t *bids.Table) error {
	idx, err := t.Require(participantKey)
	if err != nil {
		return err
	}
	for _, row := range t.Rows {
		id, err := bids.NormalizeParticipant(row[idx[0]])
		if err != nil {
			return err
		}
		row[idx[0]] = id
	}
	return nil
}

// clashPrefix keeps phenotype column names unless they are already taken,
// in which case the file stem is prepended, e.g. debriefing-age.
func clashPrefix(t bids.Table, path string) func(string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	taken := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		taken[c] = true
	}
	return func(c string) string {
		if taken[c] {
			return stem + "-" + c
		}
		return c
	}
}

func addColumns(dst, src bids.Sidecar, rename func(string) string) {
	for name, col := range src.Columns {
		if rename != nil {
			name = rename(name)
		}
		dst.Columns[name] = col
	}
}

// addDeltas appends <column>_delta = post minus pre for every column present
// in both acquisitions.
func addDeltas(res *MergeResult, columns []string) error {
	for _, c := range columns {
		pre := res.Table.Index(c + "_" + string(model.AcquisitionPre))
		post := res.Table.Index(c + "_" + string(model.AcquisitionPost))
		if pre < 0 || post < 0 {
			continue
		}
		name := c + deltaSuffix
		res.Table.Columns = append(res.Table.Columns, name)
		for i, row := range res.Table.Rows {
			before, err := bids.ParseMeasure(row[pre])
			if err != nil {
				return fmt.Errorf("%s: %w", res.Table.Columns[pre], err)
			}
			after, err := bids.ParseMeasure(row[post])
			if err != nil {
				return fmt.Errorf("%s: %w", res.Table.Columns[post], err)
			}
			delta := model.Measure{}
			if before.Valid && after.Valid {
				delta = model.Some(after.Value - before.Value)
			}
			res.Table.Rows[i] = append(row, bids.FormatMeasure(delta, 3))
		}
		res.Sidecar.Columns[name] = bids.Column{
			Description: fmt.Sprintf("Post minus pre difference of %s.", c),
		}
	}
	return nil
}
