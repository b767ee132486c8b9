// Package history persists run records — manifest plus result summaries —
// in a SQLite database so past manifests can be listed and verified against
// the current state of a directory.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nvoss/subdoc/internal/pipeline"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		root       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		files      INTEGER NOT NULL,
		failed     INTEGER NOT NULL,
		timed_out  INTEGER NOT NULL,
		skipped    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS run_files (
		run_id      TEXT NOT NULL,
		rel_path    TEXT NOT NULL,
		sha256      TEXT NOT NULL,
		language    TEXT NOT NULL,
		size        INTEGER NOT NULL,
		exit_code   INTEGER NOT NULL,
		timed_out   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, rel_path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_root ON runs(root, created_at)`,
}

// Run is one recorded generation run.
type Run struct {
	ID        string
	Root      string
	CreatedAt time.Time
	Files     int
	Failed    int
	TimedOut  int
	Skipped   int
}

// FileRecord is one manifest row of a recorded run.
type FileRecord struct {
	RelPath  string
	SHA256   string
	Language string
	Size     int64
	ExitCode int
	TimedOut bool
	Skipped  bool
	Duration time.Duration
}

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" in tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "history")}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores the manifest and result summary of one completed run and
// returns the new run ID.
func (s *Store) RecordRun(ctx context.Context, root string, pairs []pipeline.Pair) (string, error) {
	runID := uuid.New().String()
	s.logger.Debug("recording run", "run_id", runID, "root", root, "files", len(pairs))

	var failed, timedOut, skipped int
	for _, p := range pairs {
		switch {
		case p.Result.Skipped:
			skipped++
		case p.Result.TimedOut:
			timedOut++
		case p.Result.ExitCode != 0:
			failed++
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, created_at, files, failed, timed_out, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, root, time.Now().UTC().Format(time.RFC3339Nano),
		len(pairs), failed, timedOut, skipped,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, p := range pairs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, rel_path, sha256, language, size, exit_code, timed_out, skipped, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, p.File.RelPath, p.File.SHA256, p.File.Language, p.File.Size,
			p.Result.ExitCode, boolInt(p.Result.TimedOut), boolInt(p.Result.Skipped),
			p.Result.Duration.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("insert run file %s: %w", p.File.RelPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns recorded runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, root, created_at, files, failed, timed_out, skipped
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Root, &created, &r.Files, &r.Failed, &r.TimedOut, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the most recent run recorded for root, or "" when
// none exists.
func (s *Store) LatestRunID(ctx context.Context, root string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM runs WHERE root = ? ORDER BY created_at DESC LIMIT 1`, root,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// Manifest returns the manifest rows of a recorded run ordered by path.
func (s *Store) Manifest(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rel_path, sha256, language, size, exit_code, timed_out, skipped, duration_ms
		 FROM run_files WHERE run_id = ? ORDER BY rel_path`, runID)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var rec FileRecord
		var timedOut, skipped int
		var durMS int64
		if err := rows.Scan(&rec.RelPath, &rec.SHA256, &rec.Language, &rec.Size,
			&rec.ExitCode, &timedOut, &skipped, &durMS); err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		rec.TimedOut = timedOut != 0
		rec.Skipped = skipped != 0
		rec.Duration = time.Duration(durMS) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
