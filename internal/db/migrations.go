package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: partial unique index on active users' emails so that
	// addresses of deleted accounts can register again. Also part of the
	// base schema; kept here for databases created before it existed.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
	     ON users(email) WHERE deleted_at IS NULL`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
