package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Outcomes recorded for an update run.
const (
	OutcomeRunning     = "running"
	OutcomeCompleted   = "completed"
	OutcomeRejected    = "rejected"
	OutcomeFailed      = "failed"
	OutcomeInterrupted = "interrupted"
)

// Run is one invocation of the offline updater.
type Run struct {
	ID            string     `json:"id" yaml:"id"`
	Package       string     `json:"package" yaml:"package"`
	LogPath       string     `json:"logPath,omitempty" yaml:"logPath,omitempty"`
	Outcome       string     `json:"outcome" yaml:"outcome"`
	ChildExitCode *int       `json:"childExitCode,omitempty" yaml:"childExitCode,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time  `json:"startedAt" yaml:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
}

// Finish describes how a run ended.
type Finish struct {
	Outcome       string
	ChildExitCode *int
	Error         string
	FinishedAt    time.Time
}

// RecordStart inserts a new run in the running state.
func (s *Store) RecordStart(ctx context.Context, run Run) error {
	if s.readOnly {
		return errors.New("history: record start: store opened read-only")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("history: record start: run id is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO update_runs (id, package, log_path, outcome, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Package, run.LogPath, OutcomeRunning, formatTime(started))
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", run.ID, err)
	}
	return nil
}

// RecordFinish marks a run as ended. Finishing an unknown run returns a
// NotFoundError.
func (s *Store) RecordFinish(ctx context.Context, id string, fin Finish) error {
	if s.readOnly {
		return errors.New("history: record finish: store opened read-only")
	}
	finished := fin.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	var exitCode sql.NullInt64
	if fin.ChildExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*fin.ChildExitCode), Valid: true}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE update_runs
			SET outcome = ?, child_exit_code = ?, error = ?, finished_at = ?
			WHERE id = ?
		`, fin.Outcome, exitCode, fin.Error, formatTime(finished), id)
		if err != nil {
			return fmt.Errorf("history: update run %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("history: update run %s: %w", id, err)
		}
		if n == 0 {
			return NotFoundError{Entity: "update run", Key: id}
		}
		return nil
	})
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, package, log_path, outcome, child_exit_code, error, started_at, finished_at
		FROM update_runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, NotFoundError{Entity: "update run", Key: id}
	}
	if err != nil {
		return Run{}, fmt.Errorf("history: get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, package, log_path, outcome, child_exit_code, error, started_at, finished_at
		FROM update_runs
		ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run      Run
		exitCode sql.NullInt64
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Package, &run.LogPath, &run.Outcome, &exitCode, &run.Error, &started, &finished); err != nil {
		return Run{}, err
	}

	t, err := parseTime(started)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = t

	if exitCode.Valid {
		code := int(exitCode.Int64)
		run.ChildExitCode = &code
	}
	if finished.Valid && finished.String != "" {
		ft, err := parseTime(finished.String)
		if err != nil {
			return Run{}, err
		}
		run.FinishedAt = &ft
	}
	return run, nil
}

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
