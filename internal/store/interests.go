package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/podari/podari/internal/lifecycle"
	"github.com/podari/podari/internal/model"
)

// Ledger and selection operations. Every operation here runs as a single
// transaction: preconditions are re-checked inside it, and the interest
// mutation and the status transition commit together or not at all.

// ExpressInterest records a user's interest in an available item and moves
// the item to pending. The user's stats snapshot is captured at this moment.
func ExpressInterest(ctx context.Context, db *sql.DB, itemID, userID int64) (*model.Interest, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ownerID, status, err := itemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if ownerID == userID {
		return nil, ErrSelfInterest
	}

	newStatus, err := lifecycle.OnInterestExpressed(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interests WHERE item_id = ? AND user_id = ?`,
		itemID, userID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("checking existing interest: %w", err)
	}
	if existing > 0 {
		return nil, ErrConflict
	}

	stats, err := UserStatsSnapshot(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO interests (item_id, user_id, total_given, total_received, avg_response_hours, last_activity)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		itemID, userID, stats.TotalItemsGiven, stats.TotalItemsReceived,
		stats.AverageResponseHours, stats.LastActivity,
	)
	if err != nil {
		// The unique index is the final arbiter under concurrency.
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("creating interest: %w", err)
	}

	if err := setStatus(ctx, tx, itemID, newStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing interest: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetInterest(ctx, db, id)
}

// RemoveInterest withdraws a user's interest. The item falls back to
// available when the withdrawn entry was the last one. The entry that
// finalized a taken item cannot be withdrawn.
func RemoveInterest(ctx context.Context, db *sql.DB, itemID, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var entryID int64
	var selected bool
	err = tx.QueryRowContext(ctx,
		`SELECT id, selected FROM interests WHERE item_id = ? AND user_id = ?`,
		itemID, userID,
	).Scan(&entryID, &selected)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting interest: %w", err)
	}

	_, status, err := itemForUpdate(ctx, tx, itemID)
	if err != nil {
		return err
	}
	if status == model.ItemStatusTaken && selected {
		return fmt.Errorf("%w: interest finalized a taken item", ErrInvalidState)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM interests WHERE id = ?`, entryID); err != nil {
		return fmt.Errorf("deleting interest: %w", err)
	}

	var remaining int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interests WHERE item_id = ?`, itemID,
	).Scan(&remaining)
	if err != nil {
		return fmt.Errorf("counting remaining interests: %w", err)
	}

	newStatus, err := lifecycle.OnInterestWithdrawn(status, remaining)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if newStatus != status {
		if err := setStatus(ctx, tx, itemID, newStatus); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing interest removal: %w", err)
	}
	return nil
}

// SelectRecipient marks the candidate's interest entry as selected and
// clears every other entry for the item. The targeted entry's existence is
// re-checked inside the transaction, so a concurrent withdrawal surfaces
// as ErrNotFound instead of a stale selection.
func SelectRecipient(ctx context.Context, db *sql.DB, itemID, ownerID, candidateID int64) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	actualOwner, status, err := itemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrNotOwner
	}

	newStatus, err := lifecycle.OnRecipientSelected(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE interests SET selected = 0 WHERE item_id = ? AND selected = 1`, itemID,
	); err != nil {
		return nil, fmt.Errorf("clearing previous selection: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE interests SET selected = 1 WHERE item_id = ? AND user_id = ?`,
		itemID, candidateID,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting recipient: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("selecting recipient: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	if err := setStatus(ctx, tx, itemID, newStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing selection: %w", err)
	}
	return GetItem(ctx, db, itemID)
}

// UnselectRecipient clears the current selection and reverts the item to
// available, regardless of remaining unselected interests.
func UnselectRecipient(ctx context.Context, db *sql.DB, itemID, ownerID int64) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	actualOwner, status, err := itemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrNotOwner
	}

	newStatus, err := lifecycle.OnRecipientUnselected(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE interests SET selected = 0 WHERE item_id = ? AND selected = 1`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("clearing selection: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("clearing selection: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: no recipient selected", ErrInvalidState)
	}

	if err := setStatus(ctx, tx, itemID, newStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing unselection: %w", err)
	}
	return GetItem(ctx, db, itemID)
}

// MarkTaken finalizes the giveaway. Requires a pending item with a
// selected interest; interest entries are kept for history.
func MarkTaken(ctx context.Context, db *sql.DB, itemID, ownerID int64) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	actualOwner, status, err := itemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}
	if actualOwner != ownerID {
		return nil, ErrNotOwner
	}

	var selectedCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interests WHERE item_id = ? AND selected = 1`, itemID,
	).Scan(&selectedCount)
	if err != nil {
		return nil, fmt.Errorf("counting selected interests: %w", err)
	}

	newStatus, err := lifecycle.OnMarkedTaken(status, selectedCount > 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := setStatus(ctx, tx, itemID, newStatus); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing mark taken: %w", err)
	}
	return GetItem(ctx, db, itemID)
}

// GetInterest returns an interest entry by ID.
func GetInterest(ctx context.Context, db *sql.DB, id int64) (*model.Interest, error) {
	in := &model.Interest{}
	err := db.QueryRowContext(ctx,
		`SELECT n.id, n.item_id, n.user_id, n.selected,
		        n.total_given, n.total_received, n.avg_response_hours, n.last_activity,
		        n.created_at, u.name, u.email
		 FROM interests n JOIN users u ON u.id = n.user_id
		 WHERE n.id = ?`, id,
	).Scan(&in.ID, &in.ItemID, &in.UserID, &in.Selected,
		&in.Stats.TotalItemsGiven, &in.Stats.TotalItemsReceived,
		&in.Stats.AverageResponseHours, &in.Stats.LastActivity,
		&in.CreatedAt, &in.UserName, &in.UserEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting interest: %w", err)
	}
	return in, nil
}

// ListInterests returns an item's interest entries, earliest expresser
// first. The ordering feeds the owner's selection view; it is not a
// selection rule.
func ListInterests(ctx context.Context, db *sql.DB, itemID int64) ([]model.Interest, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT n.id, n.item_id, n.user_id, n.selected,
		        n.total_given, n.total_received, n.avg_response_hours, n.last_activity,
		        n.created_at, u.name, u.email
		 FROM interests n JOIN users u ON u.id = n.user_id
		 WHERE n.item_id = ?
		 ORDER BY n.created_at ASC, n.id ASC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing interests: %w", err)
	}
	defer rows.Close()

	var interests []model.Interest
	for rows.Next() {
		var in model.Interest
		if err := rows.Scan(&in.ID, &in.ItemID, &in.UserID, &in.Selected,
			&in.Stats.TotalItemsGiven, &in.Stats.TotalItemsReceived,
			&in.Stats.AverageResponseHours, &in.Stats.LastActivity,
			&in.CreatedAt, &in.UserName, &in.UserEmail); err != nil {
			return nil, fmt.Errorf("scanning interest: %w", err)
		}
		interests = append(interests, in)
	}
	return interests, rows.Err()
}

// itemForUpdate reads an item's owner and status inside a transaction.
// Soft-deleted items are treated as absent.
func itemForUpdate(ctx context.Context, tx *sql.Tx, itemID int64) (ownerID int64, status string, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, status FROM items WHERE id = ? AND deleted_at IS NULL`, itemID,
	).Scan(&ownerID, &status)
	if err == sql.ErrNoRows {
		return 0, "", ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("getting item for update: %w", err)
	}
	return ownerID, status, nil
}

// setStatus writes a status computed by the lifecycle package.
func setStatus(ctx context.Context, tx *sql.Tx, itemID int64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, itemID,
	)
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	return nil
}
