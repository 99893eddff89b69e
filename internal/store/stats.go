package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/podari/podari/internal/model"
)

// RowQuerier is the subset of *sql.DB and *sql.Tx needed for snapshot
// queries, so ledger operations can capture stats inside their own
// transaction.
type RowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserStatsSnapshot computes a user's current give/receive statistics.
// Received counts interest entries where the user is the selected
// recipient; given counts items the user owns that reached taken.
// The average response time is a fixed placeholder.
func UserStatsSnapshot(ctx context.Context, q RowQuerier, userID int64) (model.UserStats, error) {
	stats := model.UserStats{
		AverageResponseHours: model.PlaceholderResponseHours,
		LastActivity:         time.Now().UTC(),
	}

	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interests WHERE user_id = ? AND selected = 1`, userID,
	).Scan(&stats.TotalItemsReceived)
	if err != nil {
		return stats, fmt.Errorf("counting received items: %w", err)
	}

	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE owner_id = ? AND status = ?`,
		userID, model.ItemStatusTaken,
	).Scan(&stats.TotalItemsGiven)
	if err != nil {
		return stats, fmt.Errorf("counting given items: %w", err)
	}

	return stats, nil
}
