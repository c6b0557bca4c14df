// Package postgres persists the ledger tables in PostgreSQL via Grove ORM.
//
// Rows of every ledger table live in freightledger_rows, ordered by seq
// within their table. Cells are stored as a JSONB array.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/freightledger/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("freightledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("freightledger/postgres: migration failed: %w", err)
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
	err := s.pg.NewSelect(last).
		Where("table_name = ?", string(table)).
		OrderExpr("seq DESC").
		Limit(1).
		Scan(ctx)
	if err == nil {
		seq = last.Seq + 1
	} else if !isNoRows(err) {
		return fmt.Errorf("freightledger/postgres: last %s row: %w", table, err)
	}

	m, err := toRowModel(table, seq, row)
	if err != nil {
		return err
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/postgres: append %s: %w", table, err)
	}
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, table store.Table, index int, row store.Row) error {
	m, err := s.at(ctx, table, index)
	if err != nil {
		return err
	}
	m.Cells, err = encodeCells(row)
	if err != nil {
		return err
	}
	m.UpdatedAt = now()

	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/postgres: update %s row %d: %w", table, index, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s[%d] vanished", store.ErrRowOutOfRange, table, index)
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, table store.Table, index int) error {
	m, err := s.at(ctx, table, index)
	if err != nil {
		return err
	}

	res, err := s.pg.NewDelete((*rowModel)(nil)).
		Where("id = ?", m.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/postgres: delete %s row %d: %w", table, index, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s[%d] vanished", store.ErrRowOutOfRange, table, index)
	}
	return nil
}

func (s *Store) list(ctx context.Context, table store.Table) ([]rowModel, error) {
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	var models []rowModel
	if err := s.pg.NewSelect(&models).
		Where("table_name = ?", string(table)).
		OrderExpr("seq ASC").
		Scan(ctx); err != nil && !isNoRows(err) {
		return nil, fmt.Errorf("freightledger/postgres: list %s: %w", table, err)
	}
	return models, nil
}

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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
