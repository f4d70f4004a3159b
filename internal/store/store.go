package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added location column to boxes
const currentSchemaVersion = 1

// Store owns the SQLite file backing the inventory.
// Single-writer: the connection pool is capped at one connection, so
// repository transactions are naturally serialized.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the inventory database at the given path.
// Applies required pragmas, the base schema, and migrations.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement (required for cascade deletes)
//
// This function is idempotent - safe to call multiple times.
// A schema failure here is fatal: no data access is possible without it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer repository methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the filesystem path of the live database file.
// The backup scheduler copies this file, never moves it.
func (s *Store) Path() string {
	return s.path
}

// EnsureIndexes creates the search indexes if absent. A missing index only
// degrades search performance, so failures are logged as warnings and
// never propagated.
func (s *Store) EnsureIndexes(ctx context.Context, log zerolog.Logger) {
	indexes := []struct {
		name string
		stmt string
	}{
		{"idx_boxes_name", "CREATE INDEX IF NOT EXISTS idx_boxes_name ON boxes(name)"},
		{"idx_boxes_location", "CREATE INDEX IF NOT EXISTS idx_boxes_location ON boxes(location)"},
		{"idx_items_name", "CREATE INDEX IF NOT EXISTS idx_items_name ON items(name)"},
		{"idx_items_box_id", "CREATE INDEX IF NOT EXISTS idx_items_box_id ON items(box_id)"},
	}

	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx.stmt); err != nil {
			log.Warn().Err(err).Str("index", idx.name).Msg("index creation failed")
		}
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// Apply migrations sequentially
	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	// Set version after all migrations
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the location column to boxes created by older versions.
// SQLite has no ADD COLUMN IF NOT EXISTS, so the duplicate-column error is
// swallowed as a no-op to keep the migration idempotent.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec("ALTER TABLE boxes ADD COLUMN location TEXT")
	if err != nil {
		if strings.Contains(err.Error(), "duplicate column name") {
			return nil
		}
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
