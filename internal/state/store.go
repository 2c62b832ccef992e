// Package state persists check results between runs so unchanged files can
// be skipped, and keeps a short history of check runs.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Store defines the interface for check state persistence.
type Store interface {
	// Open opens a connection to the state database and applies migrations.
	Open(path string) error
	// Close closes the database connection.
	Close() error

	// GetResult returns the cached result for a file, or nil when there is none.
	GetResult(filePath string) (*Result, error)
	// PutResult stores or replaces the result for a file.
	PutResult(r *Result) error
	// DeleteResult forgets a file.
	DeleteResult(filePath string) error

	// CreateRun starts a new check run.
	CreateRun() (*Run, error)
	// CompleteRun records the totals of a finished run.
	CompleteRun(r *Run) error
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(limit int) ([]*Run, error)
}

// Result is the cached outcome of checking one file that had no findings.
type Result struct {
	FilePath    string
	ContentHash string
	Fingerprint string // dialect and lint settings the file was checked with
	Statements  int
	CheckedAt   time.Time
}

// Fresh reports whether r still applies to content checked under fingerprint.
func (r *Result) Fresh(contentHash, fingerprint string) bool {
	return r != nil && r.ContentHash == contentHash && r.Fingerprint == fingerprint
}

// Run is one invocation of check.
type Run struct {
	ID          string
	StartedAt   time.Time
	CompletedAt *time.Time
	Files       int
	Cached      int
	Issues      int
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes the settings a result depends on.
func Fingerprint(parts ...string) string {
	return HashContent([]byte(strings.Join(parts, "\x00")))[:16]
}
