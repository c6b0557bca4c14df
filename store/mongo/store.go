// Package mongo persists the ledger tables in MongoDB via Grove ORM. Each
// data row is one document of the freightledger_rows collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/freightledger/store"
)

// Collection name constants.
const (
	colRows = "freightledger_rows"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the row collection.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("freightledger/mongo: migrate %s indexes: %w", col, err)
		}
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
		rows[i] = fromRowModel(&models[i])
	}
	return rows, nil
}

func (s *Store) AppendRow(ctx context.Context, table store.Table, row store.Row) error {
	if err := store.CheckTable(table); err != nil {
		return err
	}

	seq := int64(1)
	var last rowModel
	err := s.mdb.NewFind(&last).
		Filter(bson.M{"table_name": string(table)}).
		Sort(bson.D{{Key: "seq", Value: -1}}).
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		seq = last.Seq + 1
	case !isNoDocuments(err):
		return fmt.Errorf("freightledger/mongo: last %s row: %w", table, err)
	}

	if _, err := s.mdb.NewInsert(toRowModel(table, seq, row)).Exec(ctx); err != nil {
		return fmt.Errorf("freightledger/mongo: append %s: %w", table, err)
	}
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, table store.Table, index int, row store.Row) error {
	m, err := s.at(ctx, table, index)
	if err != nil {
		return err
	}

	cells := []string(row.Clone())
	if cells == nil {
		cells = []string{}
	}
	res, err := s.mdb.NewUpdate((*rowModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Set("cells", cells).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/mongo: update %s row %d: %w", table, index, err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("%w: %s[%d] vanished", store.ErrRowOutOfRange, table, index)
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, table store.Table, index int) error {
	m, err := s.at(ctx, table, index)
	if err != nil {
		return err
	}

	res, err := s.mdb.NewDelete((*rowModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("freightledger/mongo: delete %s row %d: %w", table, index, err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("%w: %s[%d] vanished", store.ErrRowOutOfRange, table, index)
	}
	return nil
}

func (s *Store) list(ctx context.Context, table store.Table) ([]rowModel, error) {
	if err := store.CheckTable(table); err != nil {
		return nil, err
	}
	var models []rowModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"table_name": string(table)}).
		Sort(bson.D{{Key: "seq", Value: 1}}).
		Scan(ctx)
	if err != nil && !isNoDocuments(err) {
		return nil, fmt.Errorf("freightledger/mongo: list %s: %w", table, err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the row collection.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colRows: {
			{
				Keys:    bson.D{{Key: "table_name", Value: 1}, {Key: "seq", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "table_name", Value: 1}, {Key: "cells.0", Value: 1}}},
		},
	}
}
