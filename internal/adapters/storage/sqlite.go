// Package storage provides the SQLite implementation of the task-list store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/focus-cli/internal/ports"
	"modernc.org/sqlite"
)

const currentVersion = 1

// Store implements ports.TaskListStore using SQLite.
type Store struct {
	db *sql.DB
}

// Ensure Store implements ports.TaskListStore.
var _ ports.TaskListStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to exec %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// NewMemory creates a new in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate brings the schema up to currentVersion using PRAGMA user_version.
func (s *Store) Migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_lists (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE(user_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_task_lists_user ON task_lists(user_id);

	CREATE TABLE IF NOT EXISTS steps (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		task_list_id TEXT NOT NULL,
		label TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		actual_duration_ms INTEGER NOT NULL DEFAULT 0,
		elapsed_time_ms INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		locked INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		position_all_active INTEGER,
		timezone TEXT,
		color TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (task_list_id) REFERENCES task_lists(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_steps_list ON steps(task_list_id, position);
	CREATE INDEX IF NOT EXISTS idx_steps_user ON steps(user_id);

	CREATE TABLE IF NOT EXISTS breaths (
		id TEXT PRIMARY KEY,
		step_id TEXT NOT NULL,
		name TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		total_time_seconds INTEGER NOT NULL DEFAULT 0,
		time_estimation_seconds INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (step_id) REFERENCES steps(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_breaths_step ON breaths(step_id, position);

	CREATE TABLE IF NOT EXISTS step_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		step_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		actual_duration_ms INTEGER NOT NULL DEFAULT 0,
		git_branch TEXT NOT NULL DEFAULT '',
		git_commit TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (step_id) REFERENCES steps(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_history_step ON step_history(step_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == 2067 // SQLITE_CONSTRAINT_UNIQUE
}

func toMillis(d time.Duration) int64 {
	return d.Milliseconds()
}

func fromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
