package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the freightledger store (PostgreSQL).
var Migrations = migrate.NewGroup("freightledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_freightledger_rows",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS freightledger_rows (
    id          TEXT PRIMARY KEY,
    table_name  TEXT NOT NULL,
    seq         BIGINT NOT NULL,
    cells       JSONB NOT NULL DEFAULT '[]',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_freightledger_rows_table_seq ON freightledger_rows (table_name, seq);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS freightledger_rows`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "index_freightledger_invoice_no",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE INDEX IF NOT EXISTS idx_freightledger_rows_invoice_no ON freightledger_rows (table_name, (cells->>0));
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP INDEX IF EXISTS idx_freightledger_rows_invoice_no`)
				return err
			},
		},
	)
}
