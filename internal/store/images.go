package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AddItemImage appends an image to an item's ordered image list and
// returns its position.
func AddItemImage(ctx context.Context, db *sql.DB, itemID int64, data []byte, mime string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM item_images WHERE item_id = ?`, itemID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("finding next image position: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO item_images (item_id, position, data, mime) VALUES (?, ?, ?, ?)`,
		itemID, next, data, mime,
	)
	if err != nil {
		return 0, fmt.Errorf("adding item image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing item image: %w", err)
	}
	return next, nil
}

// GetItemImage returns the image at the given position.
func GetItemImage(ctx context.Context, db *sql.DB, itemID int64, position int) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM item_images WHERE item_id = ? AND position = ?`,
		itemID, position,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return data, mime, nil
}

// ListItemImages returns the positions of an item's images in order.
func ListItemImages(ctx context.Context, db *sql.DB, itemID int64) ([]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT position FROM item_images WHERE item_id = ? ORDER BY position`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item images: %w", err)
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning image position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
