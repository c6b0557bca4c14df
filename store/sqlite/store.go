// Package sqlite persists the ledger tables in SQLite via Grove ORM.
//
// Every ledger table shares one SQL table, freightledger_rows. A row's
// position is its rank by seq within its table, so deletes shift later rows
// down without renumbering.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/freightledger/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the row table and its index using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("freightledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("freightledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListRows(ctx context.Context, table store.Table) ([]store.Row, error) {
	models, err := s.list(ctx, table)
	if err != nil {
		return nil, err
	}
	rows := make([]store.Row, len(models))
	for i := range models {
		r, err := fromRowModel(&models[i])
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return rows, nil
}

func (s *Store) AppendRow(ctx context.Context, table store.Table, row store.Row) error {
	if err := store.CheckTable(table); err != nil {
		return err
	}

	seq := int64(1)
	last := new(rowModel)
	err := s.sdb.NewSelect(last).
		Where("table_name = ?", string(table)).
		OrderExpr("seq DESC").
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		seq = last.Seq + 1
	case !isNoRows(err):
		return fmt.Errorf("freightledger/sqlite: last %s row: %w", table, err)
	}

	m, err := toRowModel(table, seq, row)
	if err != nil {
		return err
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("freightledger/sqlite: append %s: %w", table, err)
	}
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, table store.Table, index int, row store.Row) error {
	m, err := s.at(ctx, table, index)
	if err != nil {
		return err
	}
	cells, err := encodeCells(row)
	if err != nil {
		return err
	}

	res, err := s.sdb.NewUpdate((*rowModel)(nil)).
		Set("cells = ?", cells).
		Set("updated_at = ?", now()).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/sqlite: update %s row %d: %w", table, index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return vanished(table, index)
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, table store.Table, index int) error {
	m, err := s.at(ctx, table, index)
	if err != nil {
		return err
	}

	res, err := s.sdb.NewDelete((*rowModel)(nil)).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/sqlite: delete %s row %d: %w", table, index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return vanished(table, index)
	}
	return nil
}

func (s *Store) list(ctx context.Context, table store.Table) ([]rowModel, error) {
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	var models []rowModel
	err := s.sdb.NewSelect(&models).
		Where("table_name = ?", string(table)).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("freightledger/sqlite: list %s: %w", table, err)
	}
	return models, nil
}

// at returns the model at the 0-based position index of table.
func (s *Store) at(ctx context.Context, table store.Table, index int) (*rowModel, error) {
	models, err := s.list(ctx, table)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(models) {
		return nil, fmt.Errorf("%w: %s[%d] of %d", store.ErrRowOutOfRange, table, index, len(models))
	}
	return &models[index], nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// vanished reports a write that matched nothing: the row was removed
// between the read and the write.
func vanished(table store.Table, index int) error {
	return fmt.Errorf("%w: %s[%d] vanished", store.ErrRowOutOfRange, table, index)
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
