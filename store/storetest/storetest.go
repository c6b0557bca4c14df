// Package storetest is a conformance suite for store.Store backends.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/xraph/freightledger/store"
)

// Factory returns a fresh, empty store. Run migrates it.
type Factory func(t *testing.T) store.Store

// Run exercises the row semantics every backend must share.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, s store.Store)
	}{
		{"EmptyTables", testEmptyTables},
		{"AppendPreservesOrder", testAppendPreservesOrder},
		{"UpdateInPlace", testUpdateInPlace},
		{"DeleteShiftsDown", testDeleteShiftsDown},
		{"DeleteFromHighestIndex", testDeleteFromHighestIndex},
		{"OutOfRange", testOutOfRange},
		{"TablesAreIndependent", testTablesAreIndependent},
		{"UnknownTable", testUnknownTable},
		{"MigrateIsIdempotent", testMigrateIsIdempotent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			if err := s.Migrate(ctx); err != nil {
				t.Fatalf("Migrate: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, ctx, s)
		})
	}
}

func appendAll(t *testing.T, ctx context.Context, s store.Store, table store.Table, rows ...store.Row) {
	t.Helper()
	for _, r := range rows {
		if err := s.AppendRow(ctx, table, r); err != nil {
			t.Fatalf("AppendRow(%s, %q): %v", table, r, err)
		}
	}
}

func list(t *testing.T, ctx context.Context, s store.Store, table store.Table) []store.Row {
	t.Helper()
	rows, err := s.ListRows(ctx, table)
	if err != nil {
		t.Fatalf("ListRows(%s): %v", table, err)
	}
	return rows
}

// firstCells compares only the leading cell of each row; file and sheet
// backends may pad or trim trailing blanks.
func firstCells(rows []store.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Cell(0)
	}
	return out
}

func expectNumbers(t *testing.T, rows []store.Row, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if got := firstCells(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}

func testEmptyTables(t *testing.T, ctx context.Context, s store.Store) {
	for _, table := range store.Tables() {
		if rows := list(t, ctx, s, table); len(rows) != 0 {
			t.Errorf("%s has %d rows after migrate, want 0", table, len(rows))
		}
	}
}

func testAppendPreservesOrder(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.Invoices,
		store.Row{"INV-0001", "2026-01-01", "Acme"},
		store.Row{"INV-0003", "2026-01-02", "Beta"},
		store.Row{"INV-0002", "2026-01-03", "Gamma"},
	)
	rows := list(t, ctx, s, store.Invoices)
	expectNumbers(t, rows, "INV-0001", "INV-0003", "INV-0002")
	if rows[1].Cell(2) != "Beta" {
		t.Errorf("row 1 customer = %q, want Beta", rows[1].Cell(2))
	}
}

func testUpdateInPlace(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.Invoices,
		store.Row{"INV-0001", "", "Acme"},
		store.Row{"INV-0002", "", "Beta"},
	)
	if err := s.UpdateRow(ctx, store.Invoices, 0, store.Row{"INV-0001", "", "Acme Updated"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	rows := list(t, ctx, s, store.Invoices)
	expectNumbers(t, rows, "INV-0001", "INV-0002")
	if rows[0].Cell(2) != "Acme Updated" {
		t.Errorf("updated customer = %q", rows[0].Cell(2))
	}
	if rows[1].Cell(2) != "Beta" {
		t.Errorf("neighbour changed: %q", rows[1].Cell(2))
	}
}

func testDeleteShiftsDown(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.InvoiceItems,
		store.Row{"INV-0001", "A"},
		store.Row{"INV-0002", "B"},
		store.Row{"INV-0003", "C"},
	)
	if err := s.DeleteRow(ctx, store.InvoiceItems, 1); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	expectNumbers(t, list(t, ctx, s, store.InvoiceItems), "INV-0001", "INV-0003")

	// Appends after a delete land at the end.
	appendAll(t, ctx, s, store.InvoiceItems, store.Row{"INV-0004", "D"})
	expectNumbers(t, list(t, ctx, s, store.InvoiceItems), "INV-0001", "INV-0003", "INV-0004")
}

func testDeleteFromHighestIndex(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.InvoiceItems,
		store.Row{"INV-0001", "A"},
		store.Row{"INV-0002", "B"},
		store.Row{"INV-0001", "C"},
		store.Row{"INV-0001", "D"},
	)
	rows := list(t, ctx, s, store.InvoiceItems)
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Cell(0) != "INV-0001" {
			continue
		}
		if err := s.DeleteRow(ctx, store.InvoiceItems, i); err != nil {
			t.Fatalf("DeleteRow(%d): %v", i, err)
		}
	}
	expectNumbers(t, list(t, ctx, s, store.InvoiceItems), "INV-0002")
}

func testOutOfRange(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.Invoices, store.Row{"INV-0001"})
	for _, idx := range []int{-1, 1, 10} {
		if err := s.UpdateRow(ctx, store.Invoices, idx, store.Row{"X"}); !errors.Is(err, store.ErrRowOutOfRange) {
			t.Errorf("UpdateRow(%d) = %v, want ErrRowOutOfRange", idx, err)
		}
		if err := s.DeleteRow(ctx, store.Invoices, idx); !errors.Is(err, store.ErrRowOutOfRange) {
			t.Errorf("DeleteRow(%d) = %v, want ErrRowOutOfRange", idx, err)
		}
	}
	expectNumbers(t, list(t, ctx, s, store.Invoices), "INV-0001")
}

func testTablesAreIndependent(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.Invoices, store.Row{"INV-0001"})
	appendAll(t, ctx, s, store.InvoiceItems, store.Row{"INV-0001", "A"}, store.Row{"INV-0001", "B"})
	if err := s.DeleteRow(ctx, store.InvoiceItems, 0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	expectNumbers(t, list(t, ctx, s, store.Invoices), "INV-0001")
	expectNumbers(t, list(t, ctx, s, store.InvoiceItems), "INV-0001")
}

func testUnknownTable(t *testing.T, ctx context.Context, s store.Store) {
	if _, err := s.ListRows(ctx, "Payments"); !errors.Is(err, store.ErrUnknownTable) {
		t.Errorf("ListRows(Payments) = %v, want ErrUnknownTable", err)
	}
	if err := s.AppendRow(ctx, "Payments", store.Row{"x"}); !errors.Is(err, store.ErrUnknownTable) {
		t.Errorf("AppendRow(Payments) = %v, want ErrUnknownTable", err)
	}
}

func testMigrateIsIdempotent(t *testing.T, ctx context.Context, s store.Store) {
	appendAll(t, ctx, s, store.Invoices, store.Row{"INV-0001"})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	expectNumbers(t, list(t, ctx, s, store.Invoices), "INV-0001")
}
