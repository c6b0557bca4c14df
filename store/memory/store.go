// Package memory is an in-process store.Store. It is the reference backend
// for row semantics and the default fixture in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/freightledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store keeps every table as an ordered slice of rows.
type Store struct {
	mu     sync.RWMutex
	tables map[store.Table][]store.Row
	closed bool
}

// New returns an empty store with every ledger table present.
func New() *Store {
	s := &Store{tables: make(map[store.Table][]store.Row)}
	for _, t := range store.Tables() {
		s.tables[t] = nil
	}
	return s
}

// Seed appends rows to table without validation. Use it to load fixtures,
// including malformed data.
func (s *Store) Seed(table store.Table, rows ...store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		s.tables[table] = append(s.tables[table], r.Clone())
	}
}

// Len returns the number of data rows in table.
func (s *Store) Len(table store.Table) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func (s *Store) ListRows(_ context.Context, table store.Table) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(table); err != nil {
		return nil, err
	}
	rows := s.tables[table]
	out := make([]store.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) AppendRow(_ context.Context, table store.Table, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(table); err != nil {
		return err
	}
	s.tables[table] = append(s.tables[table], row.Clone())
	return nil
}

func (s *Store) UpdateRow(_ context.Context, table store.Table, index int, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(table); err != nil {
		return err
	}
	rows := s.tables[table]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %s[%d] of %d", store.ErrRowOutOfRange, table, index, len(rows))
	}
	rows[index] = row.Clone()
	return nil
}

func (s *Store) DeleteRow(_ context.Context, table store.Table, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(table); err != nil {
		return err
	}
	rows := s.tables[table]
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: %s[%d] of %d", store.ErrRowOutOfRange, table, index, len(rows))
	}
	s.tables[table] = append(rows[:index], rows[index+1:]...)
	return nil
}

// Migrate is a no-op; tables exist from New.
func (s *Store) Migrate(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// check must be called with s.mu held.
func (s *Store) check(table store.Table) error {
	if s.closed {
		return store.ErrClosed
	}
	return store.CheckTable(table)
}
