package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Rows in links are never physically removed on delete: the row keeps its
// place in the unique index on short_code so a deleted code can never be
// reallocated under stale analytics.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id             BIGSERIAL PRIMARY KEY,
		original_url   TEXT NOT NULL,
		short_code     VARCHAR(15) NOT NULL UNIQUE,
		owner_id       BIGINT,
		is_custom_code BOOLEAN NOT NULL DEFAULT FALSE,
		click_count    BIGINT NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at     TIMESTAMPTZ,
		deleted_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_owner ON links (owner_id) WHERE deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS clicks (
		id          BIGSERIAL PRIMARY KEY,
		link_id     BIGINT NOT NULL REFERENCES links (id) ON DELETE CASCADE,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		client_ip   TEXT NOT NULL DEFAULT '',
		user_agent  VARCHAR(300) NOT NULL DEFAULT '',
		referrer    VARCHAR(2000) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clicks_link_occurred ON clicks (link_id, occurred_at)`,
	`CREATE SEQUENCE IF NOT EXISTS short_code_seq START 1000000`,
}

// Migrate applies the idempotent schema DDL.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
