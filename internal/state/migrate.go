package state

import (
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate runs all pending database migrations.
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return errNotOpened
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	// Configure goose for embedded migrations
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current migration version.
func (s *SQLiteStore) MigrationVersion() (int64, error) {
	if s.db == nil {
		return 0, errNotOpened
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}

	return goose.GetDBVersion(s.db)
}
