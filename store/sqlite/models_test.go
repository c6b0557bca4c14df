package sqlite

import (
	"reflect"
	"strings"
	"testing"

	"github.com/xraph/freightledger/store"
)

func TestRowModelRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		row  store.Row
		want store.Row
	}{
		{"full", store.Row{"INV-0001", "Pallet", "pcs", "10", "35.00", "350.00"}, store.Row{"INV-0001", "Pallet", "pcs", "10", "35.00", "350.00"}},
		{"blanks kept", store.Row{"INV-0002", "", "", "1"}, store.Row{"INV-0002", "", "", "1"}},
		{"nil", nil, store.Row{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := toRowModel(store.InvoiceItems, 3, tt.row)
			if err != nil {
				t.Fatalf("toRowModel: %v", err)
			}
			if !strings.HasPrefix(m.ID, "row_") {
				t.Errorf("ID = %q, want row_ prefix", m.ID)
			}
			if m.TableName != "InvoiceItems" || m.Seq != 3 {
				t.Errorf("table/seq = %s/%d", m.TableName, m.Seq)
			}
			got, err := fromRowModel(m)
			if err != nil {
				t.Fatalf("fromRowModel: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromRowModelCorrupt(t *testing.T) {
	if _, err := fromRowModel(&rowModel{ID: "row_x", Cells: "{not json"}); err == nil {
		t.Error("expected decode error")
	}
}
