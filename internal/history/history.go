// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records batch runs and their per-file outcomes in a
// SQLite database under the output root.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/docbatch/pkg/types"
)

const dbFile = "history.db"

// Outcome values recorded per file.
const (
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
)

// FileOutcome is one file's result within a run.
type FileOutcome struct {
	// Name is the input file's base name.
	Name string `json:"name"`

	// Outcome is OutcomeProcessed or OutcomeFailed.
	Outcome string `json:"outcome"`

	// Mode is the parse mode used. Empty for failed files.
	Mode types.ParseMode `json:"mode,omitempty"`

	// Diagnostic is the failure message. Empty for processed files.
	Diagnostic string `json:"diagnostic,omitempty"`
}

// RunRecord describes one completed batch run.
type RunRecord struct {
	Started   time.Time
	Finished  time.Time
	InputDir  string
	Processed int
	Failed    int
	Skipped   int
	Files     []FileOutcome
}

// RunSummary is a stored run without its file detail.
type RunSummary struct {
	ID        int64     `json:"id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	InputDir  string    `json:"input_dir"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at outputRoot/history.db,
// creating the schema if it does not exist.
func Open(outputRoot string) (*Store, error) {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	dbPath := filepath.Join(outputRoot, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			input_dir TEXT NOT NULL,
			processed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			parse_mode TEXT,
			diagnostic TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_files_run_id ON run_files(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores a run and its file outcomes in one transaction,
// returning the new run ID.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, input_dir, processed, failed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Started.Format(time.RFC3339Nano),
		rec.Finished.Format(time.RFC3339Nano),
		rec.InputDir, rec.Processed, rec.Failed, rec.Skipped,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_files (run_id, name, outcome, parse_mode, diagnostic)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range rec.Files {
		if _, err := stmt.ExecContext(ctx,
			runID, f.Name, f.Outcome, string(f.Mode), f.Diagnostic,
		); err != nil {
			return 0, fmt.Errorf("inserting outcome for %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, input_dir, processed, failed, skipped
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.InputDir,
			&r.Processed, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		r.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFiles returns the per-file outcomes of one run, in insertion order.
func (s *Store) RunFiles(ctx context.Context, runID int64) ([]FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, outcome, parse_mode, diagnostic
		 FROM run_files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run files: %w", err)
	}
	defer rows.Close()

	var files []FileOutcome
	for rows.Next() {
		var f FileOutcome
		var mode string
		if err := rows.Scan(&f.Name, &f.Outcome, &mode, &f.Diagnostic); err != nil {
			return nil, fmt.Errorf("scanning run file: %w", err)
		}
		f.Mode = types.ParseMode(mode)
		files = append(files, f)
	}
	return files, rows.Err()
}
