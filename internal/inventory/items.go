package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/packrat-dev/packrat/internal/audit"
)

// CreateItem inserts a new item into a box and returns its id.
// Quantity must be at least 1; the box must exist.
func (r *Repository) CreateItem(ctx context.Context, name string, boxID int64, quantity int) (int64, error) {
	name = strings.TrimSpace(name)
	if err := validateName("name", name); err != nil {
		return 0, err
	}
	if quantity < 1 {
		return 0, newValidationError("quantity", "must be at least 1")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("create item: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	// Resolve the box name up front: it both checks the reference and
	// snapshots the name for the audit details atomically.
	boxName, err := boxNameIn(ctx, tx, boxID)
	if err == sql.ErrNoRows {
		return 0, &ReferenceError{Entity: "box", ID: boxID}
	}
	if err != nil {
		return 0, storageErr("create item: resolve box", err)
	}

	result, err := tx.ExecContext(ctx,
		"INSERT INTO items (name, box_id, quantity) VALUES (?, ?, ?)",
		name, boxID, quantity)
	if err != nil {
		return 0, storageErr("create item", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageErr("create item: last insert id", err)
	}

	entry := &audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: audit.EntityItem,
		EntityID:   &id,
		EntityName: name,
		Details:    fmt.Sprintf("Added %d units to box '%s'", quantity, boxName),
	}
	if err := r.log.RecordIn(ctx, tx, entry); err != nil {
		return 0, storageErr("create item", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("create item: commit", err)
	}
	r.log.Mirror(entry)

	return id, nil
}

// UpdateItem renames, requantifies, or moves an item. Details list each
// changed field; box moves are reported by box name, resolving both the
// old and the new box inside the same transaction.
func (r *Repository) UpdateItem(ctx context.Context, id int64, name string, boxID int64, quantity int) error {
	name = strings.TrimSpace(name)
	if err := validateName("name", name); err != nil {
		return err
	}
	if quantity < 1 {
		return newValidationError("quantity", "must be at least 1")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("update item: begin tx", err)
	}
	defer tx.Rollback()

	var old Item
	err = tx.QueryRowContext(ctx,
		"SELECT name, box_id, quantity FROM items WHERE id = ?", id).
		Scan(&old.Name, &old.BoxID, &old.Quantity)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "item", ID: id}
	}
	if err != nil {
		return storageErr("update item: load", err)
	}

	newBoxName, err := boxNameIn(ctx, tx, boxID)
	if err == sql.ErrNoRows {
		return &ReferenceError{Entity: "box", ID: boxID}
	}
	if err != nil {
		return storageErr("update item: resolve box", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE items SET name = ?, box_id = ?, quantity = ? WHERE id = ?",
		name, boxID, quantity, id); err != nil {
		return storageErr("update item", err)
	}

	var changes []string
	if old.Name != name {
		changes = append(changes, fmt.Sprintf("name: '%s' → '%s'", old.Name, name))
	}
	if old.Quantity != quantity {
		changes = append(changes, fmt.Sprintf("quantity: %d → %d", old.Quantity, quantity))
	}
	if old.BoxID != boxID {
		oldBoxName, err := boxNameIn(ctx, tx, old.BoxID)
		if err == sql.ErrNoRows {
			oldBoxName = UnresolvedBoxName
		} else if err != nil {
			return storageErr("update item: resolve old box", err)
		}
		changes = append(changes, fmt.Sprintf("box: '%s' → '%s'", oldBoxName, newBoxName))
	}
	details := "No changes"
	if len(changes) > 0 {
		details = strings.Join(changes, ", ")
	}

	entry := &audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: audit.EntityItem,
		EntityID:   &id,
		EntityName: name,
		Details:    details,
		OldValue:   fmt.Sprintf("name: %s, box_id: %d, quantity: %d", old.Name, old.BoxID, old.Quantity),
		NewValue:   fmt.Sprintf("name: %s, box_id: %d, quantity: %d", name, boxID, quantity),
	}
	if err := r.log.RecordIn(ctx, tx, entry); err != nil {
		return storageErr("update item", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("update item: commit", err)
	}
	r.log.Mirror(entry)

	return nil
}

// DeleteItem removes an item, recording the pre-deletion snapshot in the
// audit details.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete item: begin tx", err)
	}
	defer tx.Rollback()

	var name string
	var quantity int
	var boxName sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT items.name, items.quantity, boxes.name
		FROM items
		LEFT JOIN boxes ON items.box_id = boxes.id
		WHERE items.id = ?
	`, id).Scan(&name, &quantity, &boxName)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "item", ID: id}
	}
	if err != nil {
		return storageErr("delete item: load", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
		return storageErr("delete item", err)
	}

	resolved := boxName.String
	if !boxName.Valid {
		resolved = UnresolvedBoxName
	}
	entry := &audit.Entry{
		Action:     audit.ActionDelete,
		EntityType: audit.EntityItem,
		EntityID:   &id,
		EntityName: name,
		Details:    fmt.Sprintf("Deleted %d units from box '%s'", quantity, resolved),
	}
	if err := r.log.RecordIn(ctx, tx, entry); err != nil {
		return storageErr("delete item", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("delete item: commit", err)
	}
	r.log.Mirror(entry)

	return nil
}

// GetItem returns a single item by id.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, box_id, quantity FROM items WHERE id = ?", id).
		Scan(&it.ID, &it.Name, &it.BoxID, &it.Quantity)
	if err == sql.ErrNoRows {
		return Item{}, &NotFoundError{Entity: "item", ID: id}
	}
	if err != nil {
		return Item{}, storageErr("get item", err)
	}
	return it, nil
}

// boxNameIn resolves a box's name inside tx. Returns sql.ErrNoRows
// unwrapped so callers can map it to a ReferenceError.
func boxNameIn(ctx context.Context, tx *sql.Tx, boxID int64) (string, error) {
	var name string
	err := tx.QueryRowContext(ctx, "SELECT name FROM boxes WHERE id = ?", boxID).Scan(&name)
	return name, err
}
