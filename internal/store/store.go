// Package store handles SQLite persistence of pipeline runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/respire/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNoRun is returned when no run of the requested task is stored.
var ErrNoRun = errors.New("no stored run")

// Store wraps SQLite access for derived results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			task TEXT NOT NULL,
			bids_root TEXT NOT NULL,
			subjects INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL,
			config TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS subject_rates (
			run_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			count INTEGER NOT NULL,
			mean REAL NOT NULL,
			std REAL NOT NULL,
			slope REAL NOT NULL,
			slope_time REAL NOT NULL,
			cycles INTEGER NOT NULL,
			cycle_correct REAL NOT NULL,
			PRIMARY KEY (run_id, participant_id)
		);`,
		`CREATE TABLE IF NOT EXISTS group_rates (
			run_id TEXT NOT NULL,
			bin INTEGER NOT NULL,
			n INTEGER NOT NULL,
			mean REAL,
			ci_low REAL,
			ci_high REAL,
			PRIMARY KEY (run_id, bin)
		);`,
		`CREATE TABLE IF NOT EXISTS trial_correlations (
			run_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			acquisition_id TEXT NOT NULL,
			stimulus TEXT NOT NULL,
			actor_z REAL NOT NULL,
			crowd_z REAL NOT NULL,
			actor_saturated INTEGER NOT NULL,
			crowd_saturated INTEGER NOT NULL,
			PRIMARY KEY (run_id, participant_id, acquisition_id, stimulus)
		);`,
		`CREATE TABLE IF NOT EXISTS subject_correlations (
			run_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			acquisition_id TEXT NOT NULL,
			trials INTEGER NOT NULL,
			actor_mean REAL,
			actor_std REAL,
			actor_min REAL,
			actor_max REAL,
			crowd_mean REAL,
			crowd_std REAL,
			crowd_min REAL,
			crowd_max REAL,
			PRIMARY KEY (run_id, participant_id, acquisition_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_task_ended_at ON runs(task, ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// insertRun stores timestamps as UTC Unix nanoseconds so ended_at sorts in
// time order.
func insertRun(ctx context.Context, tx *sql.Tx, run model.Run) error {
	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("failed to encode run config: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, task, bids_root, subjects, started_at, ended_at, config)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Task,
		run.BIDSRoot,
		run.Subjects,
		run.StartedAt.UTC().UnixNano(),
		run.EndedAt.UTC().UnixNano(),
		string(cfg),
	)
	return err
}

// withTx runs fn in a transaction, rolling back when it fails.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertRateRun stores a breath-counting run with its subject summaries and
// group timecourse.
func (s *Store) InsertRateRun(ctx context.Context, run model.Run, subjects []model.SubjectSummary, group []model.GroupPoint) error {
	run.Task = model.TaskBCT
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO subject_rates (run_id, participant_id, count, mean, std, slope, slope_time, cycles, cycle_correct)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer closeStmt(stmt)
		for _, sub := range subjects {
			r := sub.Rate
			if _, err := stmt.ExecContext(ctx, run.ID, r.Subject, r.Count, r.Mean, r.Std, r.Slope, r.SlopeTime,
				sub.Cycles.Cycles, sub.Cycles.CorrectRate); err != nil {
				return err
			}
		}

		groupStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO group_rates (run_id, bin, n, mean, ci_low, ci_high) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer closeStmt(groupStmt)
		for _, p := range group {
			if _, err := groupStmt.ExecContext(ctx, run.ID, p.Bin, p.N,
				nullFloat(p.Mean), nullFloat(p.CILow), nullFloat(p.CIHigh)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertCorrelationRun stores an empathic-accuracy run with its trial scores
// and subject aggregates.
func (s *Store) InsertCorrelationRun(ctx context.Context, run model.Run, trials []model.TrialCorrelation, subjects []model.SubjectCorrelation) error {
	run.Task = model.TaskEAT
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO trial_correlations (run_id, participant_id, acquisition_id, stimulus, actor_z, crowd_z, actor_saturated, crowd_saturated)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer closeStmt(stmt)
		for _, tc := range trials {
			if _, err := stmt.ExecContext(ctx, run.ID, tc.Subject, string(tc.Acquisition), tc.Stimulus,
				tc.Actor.Z, tc.Crowd.Z, tc.Actor.Saturated, tc.Crowd.Saturated); err != nil {
				return err
			}
		}

		subStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO subject_correlations (run_id, participant_id, acquisition_id, trials,
				actor_mean, actor_std, actor_min, actor_max, crowd_mean, crowd_std, crowd_min, crowd_max)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer closeStmt(subStmt)
		for _, sc := range subjects {
			if _, err := subStmt.ExecContext(ctx, run.ID, sc.Subject, string(sc.Acquisition), sc.Trials,
				nullFloat(sc.Actor.Mean), nullFloat(sc.Actor.Std), nullFloat(sc.Actor.Min), nullFloat(sc.Actor.Max),
				nullFloat(sc.Crowd.Mean), nullFloat(sc.Crowd.Std), nullFloat(sc.Crowd.Min), nullFloat(sc.Crowd.Max),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// LatestRun returns the most recently finished run of task.
func (s *Store) LatestRun(ctx context.Context, task string) (model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, task, bids_root, subjects, started_at, ended_at, config
		 FROM runs WHERE task = ? ORDER BY ended_at DESC LIMIT 1`, task)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, fmt.Errorf("%w for task %s", ErrNoRun, task)
	}
	return run, err
}

// ListRuns returns stored runs, newest first. A limit of zero lists all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task, bids_root, subjects, started_at, ended_at, config
		 FROM runs ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (model.Run, error) {
	var run model.Run
	var startedAt, endedAt int64
	var cfg string
	if err := sc.Scan(&run.ID, &run.Task, &run.BIDSRoot, &run.Subjects, &startedAt, &endedAt, &cfg); err != nil {
		return model.Run{}, err
	}
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.EndedAt = time.Unix(0, endedAt).UTC()
	if err := json.Unmarshal([]byte(cfg), &run.Config); err != nil {
		return model.Run{}, fmt.Errorf("failed to decode run config: %w", err)
	}
	return run, nil
}

// SubjectRates returns the subject summaries of a run ordered by participant.
func (s *Store) SubjectRates(ctx context.Context, runID string) ([]model.SubjectSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, count, mean, std, slope, slope_time, cycles, cycle_correct
		 FROM subject_rates WHERE run_id = ? ORDER BY participant_id`, runID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.SubjectSummary
	for rows.Next() {
		var sub model.SubjectSummary
		r := &sub.Rate
		if err := rows.Scan(&r.Subject, &r.Count, &r.Mean, &r.Std, &r.Slope, &r.SlopeTime,
			&sub.Cycles.Cycles, &sub.Cycles.CorrectRate); err != nil {
			return nil, err
		}
		sub.Cycles.Subject = r.Subject
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GroupRates returns the group timecourse of a run ordered by bin.
func (s *Store) GroupRates(ctx context.Context, runID string) ([]model.GroupPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bin, n, mean, ci_low, ci_high FROM group_rates WHERE run_id = ? ORDER BY bin`, runID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.GroupPoint
	for rows.Next() {
		var p model.GroupPoint
		var mean, lo, hi sql.NullFloat64
		if err := rows.Scan(&p.Bin, &p.N, &mean, &lo, &hi); err != nil {
			return nil, err
		}
		p.Mean, p.CILow, p.CIHigh = measure(mean), measure(lo), measure(hi)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SubjectCorrelations returns the correlation aggregates of a run ordered by
// participant, pre before post.
func (s *Store) SubjectCorrelations(ctx context.Context, runID string) ([]model.SubjectCorrelation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_id, acquisition_id, trials,
			actor_mean, actor_std, actor_min, actor_max, crowd_mean, crowd_std, crowd_min, crowd_max
		 FROM subject_correlations WHERE run_id = ?
		 ORDER BY participant_id, acquisition_id DESC`, runID)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var result []model.SubjectCorrelation
	for rows.Next() {
		var sc model.SubjectCorrelation
		var acq string
		var v [8]sql.NullFloat64
		if err := rows.Scan(&sc.Subject, &acq, &sc.Trials,
			&v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7]); err != nil {
			return nil, err
		}
		sc.Acquisition = model.Acquisition(acq)
		sc.Actor = model.MetricStats{Mean: measure(v[0]), Std: measure(v[1]), Min: measure(v[2]), Max: measure(v[3])}
		sc.Crowd = model.MetricStats{Mean: measure(v[4]), Std: measure(v[5]), Min: measure(v[6]), Max: measure(v[7])}
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaturatedTrials counts the trials of a run whose actor or crowd
// correlation was clamped.
func (s *Store) SaturatedTrials(ctx context.Context, runID string) (total, saturated int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN actor_saturated OR crowd_saturated THEN 1 ELSE 0 END), 0)
		 FROM trial_correlations WHERE run_id = ?`, runID)
	err = row.Scan(&total, &saturated)
	return total, saturated, err
}

func nullFloat(m model.Measure) sql.NullFloat64 {
	return sql.NullFloat64{Float64: m.Value, Valid: m.Valid}
}

func measure(n sql.NullFloat64) model.Measure {
	return model.Measure{Value: n.Float64, Valid: n.Valid}
}

func closeStmt(stmt *sql.Stmt) {
	if cerr := stmt.Close(); cerr != nil {
		// Best-effort statement close.
		_ = cerr
	}
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
