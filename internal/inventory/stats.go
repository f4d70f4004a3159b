package inventory

import "context"

// Stats summarizes the inventory for reporting.
type Stats struct {
	TotalBoxes    int
	TotalItems    int
	TotalQuantity int
	PerBox        []BoxStats
}

// BoxStats is one box's contribution, ordered by box id.
type BoxStats struct {
	BoxID    int64
	BoxName  string
	Items    int
	Quantity int
}

// InventoryStats aggregates counts across the whole store.
func (r *Repository) InventoryStats(ctx context.Context) (Stats, error) {
	var s Stats

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM boxes").Scan(&s.TotalBoxes); err != nil {
		return Stats{}, storageErr("inventory stats: boxes", err)
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items").Scan(&s.TotalItems); err != nil {
		return Stats{}, storageErr("inventory stats: items", err)
	}
	if err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(quantity), 0) FROM items").Scan(&s.TotalQuantity); err != nil {
		return Stats{}, storageErr("inventory stats: quantity", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT boxes.id, boxes.name, COUNT(items.id), COALESCE(SUM(items.quantity), 0)
		FROM boxes
		LEFT JOIN items ON items.box_id = boxes.id
		GROUP BY boxes.id
		ORDER BY boxes.id ASC
	`)
	if err != nil {
		return Stats{}, storageErr("inventory stats: per box", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b BoxStats
		if err := rows.Scan(&b.BoxID, &b.BoxName, &b.Items, &b.Quantity); err != nil {
			return Stats{}, storageErr("inventory stats: scan", err)
		}
		s.PerBox = append(s.PerBox, b)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, storageErr("inventory stats: iterate", err)
	}

	return s, nil
}
