package postgres

import (
	"reflect"
	"testing"

	"github.com/xraph/freightledger/store"
)

func TestRowModelRoundTrip(t *testing.T) {
	row := store.Row{"INV-0001", "2026-03-01", "Acme", "", "350.00"}
	m, err := toRowModel(store.Invoices, 1, row)
	if err != nil {
		t.Fatal(err)
	}
	if string(m.Cells) != `["INV-0001","2026-03-01","Acme","","350.00"]` {
		t.Errorf("cells = %s", m.Cells)
	}
	got, err := fromRowModel(m)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, row) {
		t.Errorf("got %q, want %q", got, row)
	}
}

func TestFromRowModelEmptyCells(t *testing.T) {
	got, err := fromRowModel(&rowModel{ID: "row_x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %q, want empty row", got)
	}
}
