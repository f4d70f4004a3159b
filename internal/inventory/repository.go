// Package inventory implements the entity repository: atomic,
// constraint-checked mutation and query of boxes and items. Every
// committed mutation carries exactly one audit entry, written in the same
// transaction; failed mutations write none.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/packrat-dev/packrat/internal/audit"
	"github.com/packrat-dev/packrat/internal/store"
)

// maxNameLen bounds box/item names and box locations, in characters.
const maxNameLen = 255

// Repository mediates all box and item access. Mutations are serialized
// by the store's single-writer connection; no extra locking is needed.
type Repository struct {
	db  *sql.DB
	log *audit.Logger
}

// New creates a repository over the given store and audit logger.
func New(st *store.Store, log *audit.Logger) *Repository {
	return &Repository{db: st.DB(), log: log}
}

// CreateBox inserts a new box and returns its id.
// Name must be non-empty and at most 255 characters; location, when given,
// at most 255 characters.
func (r *Repository) CreateBox(ctx context.Context, name, location string) (int64, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if err := validateName("name", name); err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(location) > maxNameLen {
		return 0, newValidationError("location", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("create box: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx,
		"INSERT INTO boxes (name, location) VALUES (?, NULLIF(?, ''))",
		name, location)
	if err != nil {
		return 0, storageErr("create box", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageErr("create box: last insert id", err)
	}

	details := "Created new box"
	if location != "" {
		details = fmt.Sprintf("Created new box at location: %s", location)
	}
	entry := &audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityBox,
		EntityID:   &id,
		EntityName: name,
		Details:    details,
	}
	if err := r.log.RecordIn(ctx, tx, entry); err != nil {
		return 0, storageErr("create box", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("create box: commit", err)
	}
	r.log.Mirror(entry)

	return id, nil
}

// UpdateBox renames and/or relocates a box. Details list each changed
// field; an update that changes nothing is still recorded, with details
// "No changes".
func (r *Repository) UpdateBox(ctx context.Context, id int64, name, location string) error {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if err := validateName("name", name); err != nil {
		return err
	}
	if utf8.RuneCountInString(location) > maxNameLen {
		return newValidationError("location", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update box: begin tx", err)
	}
	defer tx.Rollback()

	var oldName string
	var oldLocation sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT name, location FROM boxes WHERE id = ?", id).
		Scan(&oldName, &oldLocation)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "box", ID: id}
	}
	if err != nil {
		return storageErr("update box: load", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE boxes SET name = ?, location = NULLIF(?, '') WHERE id = ?",
		name, location, id); err != nil {
		return storageErr("update box", err)
	}

	var changes []string
	if oldName != name {
		changes = append(changes, fmt.Sprintf("name: '%s' → '%s'", oldName, name))
	}
	if oldLocation.String != location {
		changes = append(changes, fmt.Sprintf("location: '%s' → '%s'", oldLocation.String, location))
	}
	details := "No changes"
	if len(changes) > 0 {
		details = strings.Join(changes, ", ")
	}

	entry := &audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityBox,
		EntityID:   &id,
		EntityName: name,
		Details:    details,
		OldValue:   fmt.Sprintf("name: %s, location: %s", oldName, oldLocation.String),
		NewValue:   fmt.Sprintf("name: %s, location: %s", name, location),
	}
	if err := r.log.RecordIn(ctx, tx, entry); err != nil {
		return storageErr("update box", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("update box: commit", err)
	}
	r.log.Mirror(entry)

	return nil
}

// DeleteBox removes a box and, through the schema's cascade, all items it
// contains, as one operation. The pre-delete item count is recorded in the
// audit details; no per-item entries are written.
func (r *Repository) DeleteBox(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete box: begin tx", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, "SELECT name FROM boxes WHERE id = ?", id).Scan(&name)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "box", ID: id}
	}
	if err != nil {
		return storageErr("delete box: load", err)
	}

	var itemCount int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE box_id = ?", id).Scan(&itemCount); err != nil {
		return storageErr("delete box: count items", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM boxes WHERE id = ?", id); err != nil {
		return storageErr("delete box", err)
	}

	entry := &audit.Entry{
		Action:     audit.ActionDelete,
		EntityType: audit.EntityBox,
		EntityID:   &id,
		EntityName: name,
		Details:    fmt.Sprintf("Deleted box with %d items", itemCount),
	}
	if err := r.log.RecordIn(ctx, tx, entry); err != nil {
		return storageErr("delete box", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("delete box: commit", err)
	}
	r.log.Mirror(entry)

	return nil
}

// GetBox returns a single box by id.
func (r *Repository) GetBox(ctx context.Context, id int64) (Box, error) {
	var b Box
	var location sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, location FROM boxes WHERE id = ?", id).
		Scan(&b.ID, &b.Name, &location)
	if err == sql.ErrNoRows {
		return Box{}, &NotFoundError{Entity: "box", ID: id}
	}
	if err != nil {
		return Box{}, storageErr("get box", err)
	}
	b.Location = location.String
	return b, nil
}

func validateName(field, name string) error {
	if name == "" {
		return newValidationError(field, "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return newValidationError(field, fmt.Sprintf("must be at most %d characters", maxNameLen))
	}
	return nil
}
