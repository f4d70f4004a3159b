// Package backup creates and inspects timestamped copies of the inventory
// database.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/packrat-dev/packrat/internal/audit"
)

const (
	filenamePrefix = "inventory_backup_"
	filenameLayout = "2006-01-02_15-04-05"

	// DefaultMaxAge is how old the newest backup may be before the
	// inventory counts as unprotected.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// Manager copies the database file into the backup directory and reports
// on backup freshness.
type Manager struct {
	dbPath string
	dir    string
	log    *audit.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithNow overrides the timestamp source. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(dbPath, dir string, log *audit.Logger, opts ...Option) *Manager {
	m := &Manager{dbPath: dbPath, dir: dir, log: log, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create copies the database into the backup directory under a
// timestamped name and records the backup in the audit log. Returns the
// path of the new backup file.
//
// The copy is a plain file copy; the caller is responsible for making
// sure no write transaction is in flight.
func (m *Manager) Create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	filename := filenamePrefix + m.now().Format(filenameLayout) + ".db"
	dst := filepath.Join(m.dir, filename)

	if err := copyFile(m.dbPath, dst); err != nil {
		return "", err
	}

	err := m.log.Record(ctx, &audit.Entry{
		Action:     audit.ActionBackup,
		EntityType: audit.EntityDatabase,
		Details:    fmt.Sprintf("Database backed up to %s", filename),
	})
	if err != nil {
		return "", err
	}

	return dst, nil
}

// LatestTimestamp returns the timestamp encoded in the newest backup
// filename, or ok=false when the directory holds no backups. Files that
// do not match the backup naming pattern are ignored.
func (m *Manager) LatestTimestamp() (time.Time, bool, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read backup directory: %w", err)
	}

	var latest time.Time
	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		if !found || ts.After(latest) {
			latest = ts
			found = true
		}
	}

	return latest, found, nil
}

// IsStale reports whether the newest backup is older than maxAge, or
// whether no backup exists at all. A maxAge of zero means DefaultMaxAge.
func (m *Manager) IsStale(maxAge time.Duration) (bool, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	latest, found, err := m.LatestTimestamp()
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}

	return m.now().Sub(latest) > maxAge, nil
}

func parseFilename(name string) (time.Time, bool) {
	if len(name) != len(filenamePrefix)+len(filenameLayout)+len(".db") {
		return time.Time{}, false
	}
	if name[:len(filenamePrefix)] != filenamePrefix || name[len(name)-3:] != ".db" {
		return time.Time{}, false
	}

	stamp := name[len(filenamePrefix) : len(name)-3]
	ts, err := time.ParseInLocation(filenameLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open database for backup: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy database: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("flush backup file: %w", err)
	}

	return nil
}
