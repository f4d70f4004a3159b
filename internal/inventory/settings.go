package inventory

import (
	"context"
	"database/sql"
)

// SetSetting stores a user preference, replacing any existing value.
// Settings are not part of the audit trail.
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return storageErr("set setting", err)
	}
	return nil
}

// GetSetting returns a stored preference. ok is false when the key has
// never been set.
func (r *Repository) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get setting", err)
	}
	return value, true, nil
}

// ListSettings returns all stored preferences.
func (r *Repository) ListSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, storageErr("list settings", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, storageErr("list settings: scan", err)
		}
		settings[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list settings: iterate", err)
	}

	return settings, nil
}
