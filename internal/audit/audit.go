// Package audit provides the durable, append-only record of every
// inventory mutation. Entries are inserted inside the same transaction as
// the mutation they describe; the file mirror is written after commit and
// is best-effort only.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"
)

// TimeLayout is the wall-clock format stored in audit_logs.timestamp and
// embedded in mirror lines.
const TimeLayout = "2006-01-02 15:04:05"

// Action identifies the kind of mutation an entry records.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionImport Action = "IMPORT"
	ActionExport Action = "EXPORT"
	ActionBackup Action = "BACKUP"
)

// EntityType identifies what kind of entity an entry refers to.
type EntityType string

const (
	EntityBox       EntityType = "BOX"
	EntityItem      EntityType = "ITEM"
	EntityInventory EntityType = "INVENTORY"
	EntityLogs      EntityType = "LOGS"
	EntityDatabase  EntityType = "DATABASE"
)

// Entry is one immutable audit record. EntityID is a plain reference, not
// a foreign key: the entity it names may already be deleted.
type Entry struct {
	ID         int64
	Timestamp  string
	Action     Action
	EntityType EntityType
	EntityID   *int64
	EntityName string
	Details    string
	OldValue   string
	NewValue   string
}

// Logger appends audit entries to the store and mirrors them to an
// append-only daily log stream.
type Logger struct {
	db     *sql.DB
	mirror io.Writer
	now    func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithNow overrides the timestamp source. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// New creates a Logger writing entries to db and mirroring formatted lines
// to mirror. A nil mirror disables mirroring.
func New(db *sql.DB, mirror io.Writer, opts ...Option) *Logger {
	l := &Logger{db: db, mirror: mirror, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordIn appends e inside the caller's transaction. The enclosing
// mutation must not commit if this fails: a mutation without an audit
// trail violates the core contract. E's Timestamp and ID are filled in.
//
// The file mirror is NOT written here; call Mirror after the transaction
// commits so that rolled-back mutations never appear in the log stream.
func (l *Logger) RecordIn(ctx context.Context, tx *sql.Tx, e *Entry) error {
	e.Timestamp = l.now().Format(TimeLayout)

	result, err := tx.ExecContext(ctx, `
		INSERT INTO audit_logs
		(timestamp, action, entity_type, entity_id, entity_name, details, old_value, new_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Timestamp,
		string(e.Action),
		string(e.EntityType),
		e.EntityID,
		nullable(e.EntityName),
		nullable(e.Details),
		nullable(e.OldValue),
		nullable(e.NewValue),
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("record audit entry: last insert id: %w", err)
	}
	e.ID = id

	return nil
}

// Record appends e in its own transaction and mirrors it. Used for
// operations that have no other store mutation to share a transaction
// with (exports, backups).
func (l *Logger) Record(ctx context.Context, e *Entry) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record audit entry: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := l.RecordIn(ctx, tx, e); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record audit entry: commit: %w", err)
	}

	l.Mirror(e)
	return nil
}

// nullable maps empty strings to NULL so optional columns stay NULL the
// way the schema describes them, instead of accumulating empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
