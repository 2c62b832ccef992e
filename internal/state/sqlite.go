package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var errNotOpened = errors.New("database not opened")

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens the database and runs pending migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	s.logger.Debug("state opened", "path", path)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string { return s.path }

// --- Result operations ---

// GetResult retrieves the cached result for a file path.
func (s *SQLiteStore) GetResult(filePath string) (*Result, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	r := &Result{}
	var checkedAt int64
	err := s.db.QueryRow(
		`SELECT file_path, content_hash, fingerprint, statements, checked_at
		 FROM check_results WHERE file_path = ?`,
		filePath,
	).Scan(&r.FilePath, &r.ContentHash, &r.Fingerprint, &r.Statements, &checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	r.CheckedAt = time.Unix(0, checkedAt).UTC()
	return r, nil
}

// PutResult stores the result for a file path, replacing any previous one.
func (s *SQLiteStore) PutResult(r *Result) error {
	if s.db == nil {
		return errNotOpened
	}
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO check_results (file_path, content_hash, fingerprint, statements, checked_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   fingerprint = excluded.fingerprint,
		   statements = excluded.statements,
		   checked_at = excluded.checked_at`,
		r.FilePath, r.ContentHash, r.Fingerprint, r.Statements, r.CheckedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// DeleteResult removes the result for a file path.
func (s *SQLiteStore) DeleteResult(filePath string) error {
	if s.db == nil {
		return errNotOpened
	}
	if _, err := s.db.Exec(`DELETE FROM check_results WHERE file_path = ?`, filePath); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}

// --- Run operations ---

// CreateRun creates a new check run.
func (s *SQLiteStore) CreateRun() (*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	run := &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	if _, err := s.db.Exec(
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		run.ID, run.StartedAt.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished and stores its totals.
func (s *SQLiteStore) CompleteRun(run *Run) error {
	if s.db == nil {
		return errNotOpened
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE runs SET completed_at = ?, files = ?, cached = ?, issues = ? WHERE id = ?`,
		now.UnixNano(), run.Files, run.Cached, run.Issues, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	run.CompletedAt = &now
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *SQLiteStore) RecentRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.Query(
		`SELECT id, started_at, completed_at, files, cached, issues
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var startedAt int64
		var completedAt sql.NullInt64
		if err := rows.Scan(&run.ID, &startedAt, &completedAt, &run.Files, &run.Cached, &run.Issues); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedAt).UTC()
		if completedAt.Valid {
			t := time.Unix(0, completedAt.Int64).UTC()
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
