package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order on startup. Each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		user_id TEXT,
		position INTEGER NOT NULL,
		joined_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		paid_by TEXT NOT NULL REFERENCES members(id),
		category TEXT,
		date BIGINT NOT NULL,
		created_by TEXT,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expense_splits (
		expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL REFERENCES members(id),
		position INTEGER NOT NULL,
		amount_cents BIGINT,
		PRIMARY KEY (expense_id, member_id)
	)`,
	`CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		from_member TEXT NOT NULL REFERENCES members(id),
		to_member TEXT NOT NULL REFERENCES members(id),
		amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
		settled_at BIGINT NOT NULL,
		created_by TEXT,
		note TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_members_group_id ON members(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_settlements_group_id ON settlements(group_id)`,
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
