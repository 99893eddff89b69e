package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/podari/podari/internal/model"
)

// ItemFilter narrows ListItems results. Zero values mean no filter.
type ItemFilter struct {
	Status   string
	Category string
	OwnerID  int64
}

// NewItem holds the caller-provided fields for item creation and update.
type NewItem struct {
	Title       string
	Description string
	Category    string
	Location    string
	Lat         *float64
	Lng         *float64
}

// CreateItem creates a new item. Items start out available.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, in NewItem) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, title, description, category, location, lat, lng)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ownerID, in.Title, in.Description, in.Category, in.Location, in.Lat, in.Lng,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

const itemColumns = `i.id, i.owner_id, i.title, i.description, i.category, i.location,
	i.lat, i.lng, i.status, i.created_at, i.updated_at, i.deleted_at,
	u.name AS owner_name,
	(SELECT COUNT(*) FROM item_images im WHERE im.item_id = i.id) AS image_count`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
	item := &model.Item{}
	var description, category, location sql.NullString
	err := row.Scan(&item.ID, &item.OwnerID, &item.Title, &description, &category, &location,
		&item.Lat, &item.Lng, &item.Status, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
		&item.OwnerName, &item.ImageCount)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Category = category.String
	item.Location = location.String
	return item, nil
}

// GetItem returns an item by ID, including soft-deleted items.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items i JOIN users u ON u.id = i.owner_id WHERE i.id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all non-deleted items matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, filter ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + `
	          FROM items i JOIN users u ON u.id = i.owner_id
	          WHERE i.deleted_at IS NULL`
	var args []any

	if filter.Status != "" {
		query += ` AND i.status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += ` AND i.category = ?`
		args = append(args, filter.Category)
	}
	if filter.OwnerID > 0 {
		query += ` AND i.owner_id = ?`
		args = append(args, filter.OwnerID)
	}

	query += ` ORDER BY i.created_at DESC, i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's metadata. Status is deliberately not
// updatable here; it only moves through the lifecycle operations.
func UpdateItem(ctx context.Context, db *sql.DB, id, ownerID int64, in NewItem) (*model.Item, error) {
	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if item.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	_, err = db.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, category = ?, location = ?,
		        lat = ?, lng = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		in.Title, in.Description, in.Category, in.Location, in.Lat, in.Lng, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// DeleteItem soft-deletes an item and removes its interest entries.
func DeleteItem(ctx context.Context, db *sql.DB, id, ownerID int64) error {
	item, err := GetItem(ctx, db, id)
	if err != nil {
		return err
	}
	if item == nil || item.DeletedAt != nil {
		return ErrNotFound
	}
	if item.OwnerID != ownerID {
		return ErrNotOwner
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interests WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("deleting item interests: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`, id,
	); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item delete: %w", err)
	}
	return nil
}
