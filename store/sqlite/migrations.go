package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the freightledger store (SQLite).
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
    seq         INTEGER NOT NULL,
    cells       TEXT NOT NULL DEFAULT '[]',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
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
	)
}
