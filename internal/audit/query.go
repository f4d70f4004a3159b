package audit

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// DefaultQueryLimit caps Query results when the filter does not set one.
const DefaultQueryLimit = 1000

// Filter narrows a Query. Zero values mean "no constraint".
type Filter struct {
	Action       Action
	EntityType   EntityType
	NameContains string
	Limit        int
}

// Query returns audit entries newest-first (by insertion order), capped at
// the filter's limit.
func (l *Logger) Query(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	qb := sq.Select(
		"id", "timestamp", "action", "entity_type",
		"entity_id", "entity_name", "details", "old_value", "new_value",
	).
		From("audit_logs").
		OrderBy("id DESC").
		Limit(uint64(limit))

	if f.Action != "" {
		qb = qb.Where(sq.Eq{"action": string(f.Action)})
	}
	if f.EntityType != "" {
		qb = qb.Where(sq.Eq{"entity_type": string(f.EntityType)})
	}
	if f.NameContains != "" {
		qb = qb.Where(sq.Like{"entity_name": "%" + f.NameContains + "%"})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("query audit log: build: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}

	return entries, nil
}

// Stats returns entry counts grouped by action kind.
func (l *Logger) Stats(ctx context.Context) (map[Action]int, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT action, COUNT(*) FROM audit_logs GROUP BY action")
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Action]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("audit stats: scan: %w", err)
		}
		stats[Action(action)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit stats: iterate: %w", err)
	}

	return stats, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var entityID sql.NullInt64
	var name, details, oldValue, newValue sql.NullString

	err := rows.Scan(
		&e.ID, &e.Timestamp, &e.Action, &e.EntityType,
		&entityID, &name, &details, &oldValue, &newValue,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}

	if entityID.Valid {
		id := entityID.Int64
		e.EntityID = &id
	}
	e.EntityName = name.String
	e.Details = details.String
	e.OldValue = oldValue.String
	e.NewValue = newValue.String

	return e, nil
}
