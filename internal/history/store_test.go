package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/archlint/pkg/core"
	"github.com/leapstack-labs/archlint/pkg/lint"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testRun(id string, started time.Time) Run {
	return Run{
		ID:           id,
		Linter:       "css",
		Targets:      []string{"app/styles"},
		StartedAt:    started,
		FinishedAt:   started.Add(1500 * time.Millisecond),
		FilesChecked: 3,
		Errors:       1,
		Warnings:     1,
	}
}

func TestOpen_FileCreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".archlint", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, path, store.Path())
	v, err := store.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// Reopening applies nothing new.
	require.NoError(t, store.Close())
	store, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	vs := []lint.Violation{
		{Rule: "layer2-no-layout", Severity: core.SeverityError, Message: "display: flex belongs in layer3", File: "layer2.css", Line: 4, Column: 3, Context: "display: flex;"},
		{Rule: "layer5-single-purpose", Severity: core.SeverityWarning, Message: "too many declarations", File: "layer5.css", Line: 1, Suggestion: "split the utility"},
	}
	saved, err := store.Save(ctx, Run{Linter: "css", StartedAt: t0, FinishedAt: t0.Add(time.Second), Errors: 1, Warnings: 1}, vs)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID, "an id is generated")
	assert.Equal(t, []string{}, saved.Targets)

	got, err := store.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, t0, got.StartedAt)
	assert.Equal(t, time.Second, got.Duration())
	assert.Equal(t, 2, got.Total())

	loaded, err := store.Violations(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, vs, loaded)
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		_, err := store.Save(ctx, testRun(id, t0.Add(time.Duration(i)*time.Hour)), nil)
		require.NoError(t, err)
	}

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, []string{"app/styles"}, runs[0].Targets)

	runs, err = store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_GetByPrefix(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	for _, id := range []string{"abc123", "abd456"} {
		_, err := store.Save(ctx, testRun(id, t0), nil)
		require.NoError(t, err)
	}

	run, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", run.ID)

	_, err = store.Get(ctx, "ab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = store.Get(ctx, "zzz")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	_, err := store.Save(ctx, testRun("gone", t0), []lint.Violation{{Rule: "max-lines", Severity: core.SeverityWarning, Message: "long"}})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "gone"))
	vs, err := store.Violations(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, vs, "violations cascade")
	assert.True(t, errors.Is(store.Delete(ctx, "gone"), ErrRunNotFound))
}

func TestStore_Closed(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.List(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = store.Save(context.Background(), Run{}, nil)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestStore_ErrorPaths(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(s *Store) error
		errMsg    string
	}{
		{
			name: "insert run fails and rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			call: func(s *Store) error {
				_, err := s.Save(context.Background(), testRun("x", t0), nil)
				return err
			},
			errMsg: "failed to insert run: disk full",
		},
		{
			name: "insert violation fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO runs").WillReturnResult(sqlmock.NewResult(0, 1))
				prep := mock.ExpectPrepare("INSERT INTO violations")
				prep.ExpectExec().WillReturnError(errors.New("constraint"))
				mock.ExpectRollback()
			},
			call: func(s *Store) error {
				_, err := s.Save(context.Background(), testRun("x", t0), []lint.Violation{{Rule: "r", Message: "m"}})
				return err
			},
			errMsg: "failed to insert violation 0: constraint",
		},
		{
			name: "list query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM runs").WillReturnError(errors.New("locked"))
			},
			call: func(s *Store) error {
				_, err := s.List(context.Background(), 5)
				return err
			},
			errMsg: "failed to list runs: locked",
		},
		{
			name: "corrupt targets column",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "linter", "targets", "started_at", "finished_at", "files_checked", "errors", "warnings", "info"}).
					AddRow("bad", "css", "not json", int64(0), int64(0), 0, 0, 0, 0)
				mock.ExpectQuery("SELECT (.+) FROM runs").WillReturnRows(rows)
			},
			call: func(s *Store) error {
				_, err := s.List(context.Background(), 0)
				return err
			},
			errMsg: "failed to decode targets of run bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setupMock(mock)
			err = tt.call(NewWithDB(db))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewRun(t *testing.T) {
	res := lint.Result{
		Files: []string{"a.css", "b.css"},
		Violations: []lint.Violation{
			{File: "a.css", Severity: core.SeverityError},
			{File: "a.css", Severity: core.SeverityInfo},
		},
	}
	run := NewRun("css", []string{"app"}, t0, t0.Add(time.Minute), res)
	assert.Equal(t, 2, run.FilesChecked)
	assert.Equal(t, 1, run.Errors)
	assert.Equal(t, 1, run.Info)
	assert.Equal(t, time.Minute, run.Duration())
}
