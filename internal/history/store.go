// Package history persists lint runs in SQLite so results can be compared
// across runs. It backs the --save flag and the history command.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

// ErrRunNotFound is returned when no stored run matches an id.
var ErrRunNotFound = errors.New("run not found")

// ErrNotOpen is returned by operations on a closed store.
var ErrNotOpen = errors.New("history database not opened")

// Run is one stored lint run.
type Run struct {
	ID           string    `json:"id"`
	Linter       string    `json:"linter"`
	Targets      []string  `json:"targets"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	FilesChecked int       `json:"files_checked"`
	Errors       int       `json:"errors"`
	Warnings     int       `json:"warnings"`
	Info         int       `json:"info"`
}

// Total returns the number of stored violations.
func (r Run) Total() int {
	return r.Errors + r.Warnings + r.Info
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRun builds a run record from a lint result.
func NewRun(linter string, targets []string, started, finished time.Time, res lint.Result) Run {
	s := res.Summary()
	return Run{
		Linter:       linter,
		Targets:      targets,
		StartedAt:    started,
		FinishedAt:   finished,
		FilesChecked: s.FilesChecked,
		Errors:       s.Errors,
		Warnings:     s.Warnings,
		Info:         s.Info,
	}
}

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path and applies
// pending migrations. Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: alive.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection without migrating it.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save stores a run and its violations in one transaction. A run without
// an id gets a new UUID. The stored run is returned.
func (s *Store) Save(ctx context.Context, run Run, violations []lint.Violation) (Run, error) {
	if s.db == nil {
		return Run{}, ErrNotOpen
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Targets == nil {
		run.Targets = []string{}
	}
	targets, err := json.Marshal(run.Targets)
	if err != nil {
		return Run{}, fmt.Errorf("failed to encode targets: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, linter, targets, started_at, finished_at, files_checked, errors, warnings, info)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Linter, string(targets),
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.FilesChecked, run.Errors, run.Warnings, run.Info,
	); err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	if len(violations) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO violations (run_id, seq, rule, severity, message, file, line, col, suggestion, context)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return Run{}, fmt.Errorf("failed to prepare violation insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, v := range violations {
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, v.Rule, v.Severity.String(), v.Message,
				v.File, v.Line, v.Column, v.Suggestion, v.Context,
			); err != nil {
				return Run{}, fmt.Errorf("failed to insert violation %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

const runColumns = `id, linter, targets, started_at, finished_at, files_checked, errors, warnings, info`

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run whose id equals or uniquely starts with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	if s.db == nil {
		return Run{}, ErrNotOpen
	}
	if id == "" {
		return Run{}, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`,
		id, id, id)
	if err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run id %q is ambiguous", id)
	}
}

// Violations returns the stored violations of a run in their original order.
func (s *Store) Violations(ctx context.Context, runID string) ([]lint.Violation, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule, severity, message, file, line, col, suggestion, context
		 FROM violations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load violations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vs := []lint.Violation{}
	for rows.Next() {
		var v lint.Violation
		var sev string
		if err := rows.Scan(&v.Rule, &sev, &v.Message, &v.File, &v.Line, &v.Column, &v.Suggestion, &v.Context); err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		v.Severity, _ = core.ParseSeverity(sev)
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load violations: %w", err)
	}
	return vs, nil
}

// Delete removes a run and its violations.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var targets string
	var started, finished int64
	if err := row.Scan(&run.ID, &run.Linter, &targets, &started, &finished,
		&run.FilesChecked, &run.Errors, &run.Warnings, &run.Info); err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(targets), &run.Targets); err != nil {
		return Run{}, fmt.Errorf("failed to decode targets of run %s: %w", run.ID, err)
	}
	run.StartedAt = time.UnixMilli(started).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	return run, nil
}
