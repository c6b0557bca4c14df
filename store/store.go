// Package store defines the ordered table store the ledger persists to.
//
// A store holds named tables of rows. Each row is a slice of cell strings
// laid out per the table's column schema. Rows are addressed by their
// 0-based position among data rows (header rows are never counted), and
// ListRows returns them in store order.
package store

import (
	"context"
	"errors"
)

// Table names a worksheet-like table.
type Table string

// Tables the ledger writes.
const (
	Invoices     Table = "Invoices"
	InvoiceItems Table = "InvoiceItems"
)

// Row is one data row; cells are positional per the table's Columns.
type Row []string

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Cell returns the i-th cell, or "" when the row is shorter than i+1.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// Pad returns the row padded with blanks to n cells. Spreadsheet backends
// drop trailing empty cells on read.
func (r Row) Pad(n int) Row {
	if len(r) >= n {
		return r
	}
	out := make(Row, n)
	copy(out, r)
	return out
}

var (
	// ErrRowOutOfRange is returned by UpdateRow and DeleteRow for an index
	// outside [0, len(rows)).
	ErrRowOutOfRange = errors.New("store: row index out of range")

	// ErrUnknownTable is returned for a table that is not in the schema.
	ErrUnknownTable = errors.New("store: unknown table")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Store is the persistence boundary used by the ledger.
type Store interface {
	// ListRows returns every data row of table in store order.
	ListRows(ctx context.Context, table Table) ([]Row, error)

	// AppendRow adds row after the last data row of table.
	AppendRow(ctx context.Context, table Table, row Row) error

	// UpdateRow overwrites the row at index.
	UpdateRow(ctx context.Context, table Table, index int, row Row) error

	// DeleteRow removes the row at index; later rows shift down by one.
	DeleteRow(ctx context.Context, table Table, index int) error

	// Migrate creates the tables and their header rows if missing.
	Migrate(ctx context.Context) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
