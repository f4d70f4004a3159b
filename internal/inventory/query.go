package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ListBoxes returns boxes ordered by id ascending. A non-empty search is
// matched case-insensitively as a substring of the name OR the location.
func (r *Repository) ListBoxes(ctx context.Context, search string) ([]Box, error) {
	qb := sq.Select("id", "name", "location").
		From("boxes").
		OrderBy("id ASC")

	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(sq.Or{
			sq.Expr("LOWER(name) LIKE ?", like),
			sq.Expr("LOWER(COALESCE(location, '')) LIKE ?", like),
		})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list boxes: build: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list boxes", err)
	}
	defer rows.Close()

	boxes := []Box{}
	for rows.Next() {
		var b Box
		var location sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &location); err != nil {
			return nil, storageErr("list boxes: scan", err)
		}
		b.Location = location.String
		boxes = append(boxes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list boxes: iterate", err)
	}

	return boxes, nil
}

// ListItems returns items ordered by id ascending, each with its box name
// resolved via LEFT JOIN. A non-empty search matches the item name
// case-insensitively; a non-nil boxID restricts to one box.
func (r *Repository) ListItems(ctx context.Context, search string, boxID *int64) ([]ItemView, error) {
	qb := sq.Select("items.id", "items.name", "items.box_id", "items.quantity", "boxes.name").
		From("items").
		LeftJoin("boxes ON items.box_id = boxes.id").
		OrderBy("items.id ASC")

	if search = strings.TrimSpace(search); search != "" {
		qb = qb.Where(sq.Expr("LOWER(items.name) LIKE ?", "%"+strings.ToLower(search)+"%"))
	}
	if boxID != nil {
		qb = qb.Where(sq.Eq{"items.box_id": *boxID})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list items: build: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer rows.Close()

	items := []ItemView{}
	for rows.Next() {
		var v ItemView
		var boxName sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.BoxID, &v.Quantity, &boxName); err != nil {
			return nil, storageErr("list items: scan", err)
		}
		v.BoxName = boxName.String
		if !boxName.Valid {
			v.BoxName = UnresolvedBoxName
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list items: iterate", err)
	}

	return items, nil
}

// BoxNameIndex maps lowercased box names to box ids for case-insensitive
// exact matching. When two boxes share a folded name, the lowest id wins:
// the scan runs in id order and keeps the first mapping.
func (r *Repository) BoxNameIndex(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM boxes ORDER BY id ASC")
	if err != nil {
		return nil, storageErr("box name index", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, storageErr("box name index: scan", err)
		}
		folded := strings.ToLower(name)
		if _, ok := index[folded]; !ok {
			index[folded] = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("box name index: iterate", err)
	}

	return index, nil
}
