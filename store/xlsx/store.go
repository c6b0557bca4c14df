// Package xlsx stores the ledger tables as worksheets of a local Excel
// workbook. Row 1 of each worksheet is the header; data row i lives on
// worksheet row i+2. The workbook is written to disk after every mutation.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/xraph/freightledger/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// defaultSheet is created by excelize for every new workbook.
const defaultSheet = "Sheet1"

// Store is a store.Store over one .xlsx file.
type Store struct {
	mu     sync.Mutex
	path   string
	f      *excelize.File
	logger *slog.Logger
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open opens the workbook at path, or starts a new one if the file does
// not exist. A new workbook is first written by Migrate.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	f, err := excelize.OpenFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		s.logger.Debug("xlsx: new workbook", "path", path)
	default:
		return nil, fmt.Errorf("freightledger/xlsx: open %s: %w", path, err)
	}
	s.f = f
	return s, nil
}

// Path returns the workbook file path.
func (s *Store) Path() string { return s.path }

func (s *Store) ListRows(ctx context.Context, table store.Table) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, table); err != nil {
		return nil, err
	}
	data, err := s.dataRows(table)
	if err != nil {
		return nil, err
	}
	out := make([]store.Row, len(data))
	for i, r := range data {
		out[i] = store.Row(r)
	}
	return out, nil
}

func (s *Store) AppendRow(ctx context.Context, table store.Table, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, table); err != nil {
		return err
	}
	data, err := s.dataRows(table)
	if err != nil {
		return err
	}
	if err := s.writeRow(table, len(data)+2, row, 0); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) UpdateRow(ctx context.Context, table store.Table, index int, row store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, table); err != nil {
		return err
	}
	data, err := s.dataRows(table)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(data) {
		return fmt.Errorf("%w: %s[%d] of %d", store.ErrRowOutOfRange, table, index, len(data))
	}
	if err := s.writeRow(table, index+2, row, len(data[index])); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) DeleteRow(ctx context.Context, table store.Table, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, table); err != nil {
		return err
	}
	data, err := s.dataRows(table)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(data) {
		return fmt.Errorf("%w: %s[%d] of %d", store.ErrRowOutOfRange, table, index, len(data))
	}
	if err := s.f.RemoveRow(string(table), index+2); err != nil {
		return fmt.Errorf("freightledger/xlsx: delete %s row %d: %w", table, index, err)
	}
	return s.save()
}

// Migrate creates missing worksheets and header rows and removes the
// default empty sheet of a new workbook. The file is written only when
// something changed.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	changed := false
	headerStyle := -1
	for _, table := range store.Tables() {
		name := string(table)
		idx, err := s.f.GetSheetIndex(name)
		if err != nil {
			return fmt.Errorf("freightledger/xlsx: sheet index %s: %w", name, err)
		}
		if idx == -1 {
			if _, err := s.f.NewSheet(name); err != nil {
				return fmt.Errorf("freightledger/xlsx: create sheet %s: %w", name, err)
			}
			changed = true
			s.logger.Info("xlsx: created sheet", "sheet", name)
		}

		rows, err := s.f.GetRows(name)
		if err != nil {
			return fmt.Errorf("freightledger/xlsx: read %s: %w", name, err)
		}
		if len(rows) > 0 {
			continue
		}
		cols, err := store.Columns(table)
		if err != nil {
			return err
		}
		if err := s.writeRow(table, 1, cols, 0); err != nil {
			return err
		}
		if headerStyle == -1 {
			headerStyle, err = s.f.NewStyle(&excelize.Style{
				Font: &excelize.Font{Bold: true},
				Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
			})
			if err != nil {
				return fmt.Errorf("freightledger/xlsx: header style: %w", err)
			}
		}
		if err := s.f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("freightledger/xlsx: style header %s: %w", name, err)
		}
		changed = true
	}

	if idx, _ := s.f.GetSheetIndex(defaultSheet); idx != -1 && store.CheckTable(defaultSheet) != nil {
		if rows, err := s.f.GetRows(defaultSheet); err == nil && len(rows) == 0 {
			if err := s.f.DeleteSheet(defaultSheet); err != nil {
				return fmt.Errorf("freightledger/xlsx: delete %s: %w", defaultSheet, err)
			}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if idx, err := s.f.GetSheetIndex(string(store.Invoices)); err == nil && idx != -1 {
		s.f.SetActiveSheet(idx)
	}

	return s.save()
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	return ctx.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// check must be called with s.mu held.
func (s *Store) check(ctx context.Context, table store.Table) error {
	if s.closed {
		return store.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return store.CheckTable(table)
}

// dataRows returns the worksheet rows below the header.
func (s *Store) dataRows(table store.Table) ([][]string, error) {
	rows, err := s.f.GetRows(string(table))
	if err != nil {
		return nil, fmt.Errorf("freightledger/xlsx: read %s: %w", table, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// writeRow writes cells as text starting at column A of the 1-based sheet
// row. When the previous content was wider, the remaining cells are blanked.
func (s *Store) writeRow(table store.Table, sheetRow int, cells []string, previousWidth int) error {
	width := len(cells)
	if previousWidth > width {
		width = previousWidth
	}
	values := make([]interface{}, width)
	for i := range values {
		if i < len(cells) {
			values[i] = cells[i]
		} else {
			values[i] = ""
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, sheetRow)
	if err != nil {
		return fmt.Errorf("freightledger/xlsx: cell name: %w", err)
	}
	if err := s.f.SetSheetRow(string(table), cell, &values); err != nil {
		return fmt.Errorf("freightledger/xlsx: write %s row %d: %w", table, sheetRow, err)
	}
	return nil
}

func (s *Store) save() error {
	if err := s.f.SaveAs(s.path); err != nil {
		return fmt.Errorf("freightledger/xlsx: save %s: %w", s.path, err)
	}
	return nil
}
