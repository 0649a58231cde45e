// Package history persists build outcomes in a local SQLite database so
// past publishes can be inspected without digging through logs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docpress/docpress/internal/pipeline"
)

// Entry is one recorded build.
type Entry struct {
	ID         int64
	BuildID    string
	Outcome    string
	Error      string
	Commit     string
	Committed  bool
	Pages      int
	SourceHash string
	Duration   time.Duration
	StartedAt  time.Time
}

// Store is a SQLite-backed build history.
// Use ":memory:" for an ephemeral store, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and if needed creates) the history database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		outcome TEXT NOT NULL,
		error TEXT,
		commit_hash TEXT,
		committed INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		source_hash TEXT,
		duration_ms INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_builds_outcome ON builds(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordResult stores the outcome of one pipeline run.
func (s *Store) RecordResult(ctx context.Context, result *pipeline.Result, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, outcome, error, commit_hash, committed, pages, source_hash, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.BuildID, string(result.Outcome), errText, result.Commit, boolToInt(result.Committed),
		result.Pages, result.SourceHash, result.Duration.Milliseconds(), startedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// GetByBuildID returns the record of one build.
func (s *Store) GetByBuildID(ctx context.Context, buildID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		selectColumns+" FROM builds WHERE build_id = ?", buildID)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build %s not found", buildID)
	}
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM builds ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// GetRange returns builds started within [start, end], oldest first.
func (s *Store) GetRange(ctx context.Context, start, end time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		selectColumns+" FROM builds WHERE started_at >= ? AND started_at <= ? ORDER BY started_at, id",
		start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectColumns = "SELECT id, build_id, outcome, error, commit_hash, committed, pages, source_hash, duration_ms, started_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var committed int
	var durationMS, startedUnix int64
	err := row.Scan(&e.ID, &e.BuildID, &e.Outcome, &e.Error, &e.Commit, &committed,
		&e.Pages, &e.SourceHash, &durationMS, &startedUnix)
	if err != nil {
		return nil, err
	}
	e.Committed = committed != 0
	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.StartedAt = time.Unix(startedUnix, 0).UTC()
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
