package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xraph/freightledger/internal/backend"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/types"
)

const palletDraft = `
customer_name: Siam Logistics
customer_address: 12 Rama IV Rd, Bangkok
items:
  - product: Pallet
    unit: pcs
    qty: 10
    price: 35.00
shipping: "100"
details:
  carrier: Northline
  origin: Bangkok
  destination: Chiang Mai
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]byte(`
currency: usd
tax:
  mode: fixed
  value: "12.50"
reconcile: true
auto_migrate: false
store:
  driver: sheets
  spreadsheet_id: abc
drive:
  enabled: true
  folder_id: f-1
`))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Currency != "usd" || cfg.Tax.Mode != "fixed" || cfg.Tax.Value != "12.50" || !cfg.Reconcile || cfg.AutoMigrate {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Store.Driver != backend.DriverSheets || cfg.Store.SpreadsheetID != "abc" || cfg.Store.MaxTries != 5 {
		t.Errorf("store = %+v", cfg.Store)
	}

	if !cfg.Drive.Enabled || cfg.Drive.FolderID != "f-1" {
		t.Errorf("drive = %+v", cfg.Drive)
	}

	empty, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if empty.Currency != types.DefaultCurrency || empty.Tax.Mode != "percentage" || empty.Store.Driver != backend.DriverXLSX || !empty.AutoMigrate {
		t.Errorf("empty = %+v", empty)
	}

	if _, err := parseConfig([]byte("currency: [")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestLoadConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := loadConfig(missing, false)
	if err != nil || cfg.Store.Driver != backend.DriverXLSX {
		t.Errorf("implicit missing file = %+v, %v", cfg, err)
	}
	if _, err := loadConfig(missing, true); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("explicit missing file = %v, want ErrNotExist", err)
	}
}

func TestDraftFileApply(t *testing.T) {
	f, err := readDraftFile(writeFile(t, "draft.yaml", palletDraft))
	if err != nil {
		t.Fatalf("readDraftFile: %v", err)
	}

	d := invoice.NewDraft("thb", invoice.DefaultTax())
	if err := f.apply(d); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if d.CustomerName != "Siam Logistics" || d.Details.Destination != "Chiang Mai" {
		t.Errorf("fields not applied: %q %+v", d.CustomerName, d.Details)
	}
	if d.Len() != 1 || d.Items()[0].UnitPrice.Amount != 3500 {
		t.Fatalf("items = %+v", d.Items())
	}
	got, err := d.Totals()
	if err != nil {
		t.Fatal(err)
	}
	if got.Subtotal.Amount != 35000 || got.Tax.Amount != 2450 || got.GrandTotal.Amount != 47450 {
		t.Errorf("totals = %+v", got)
	}
}

func TestDraftFileApplyReplacesItems(t *testing.T) {
	d := invoice.NewDraft("thb", invoice.DefaultTax())
	d.CustomerName = "Kept"
	for _, p := range []string{"Crate", "Drum"} {
		if _, err := d.AddItem(p, "pcs", 1, types.THB(1000)); err != nil {
			t.Fatal(err)
		}
	}

	f := draftFile{
		Items: []draftItem{{Product: "Pallet", Qty: 2, Price: "5"}},
		Tax:   &TaxConfig{Mode: "none"},
	}
	if err := f.apply(d); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.CustomerName != "Kept" {
		t.Errorf("CustomerName = %q, empty field should not override", d.CustomerName)
	}
	if d.Len() != 1 || d.Items()[0].Product != "Pallet" {
		t.Errorf("items = %+v", d.Items())
	}
	if got, err := d.Totals(); err != nil || !got.Tax.IsZero() {
		t.Errorf("tax = %v (%v), want none", got.Tax, err)
	}
}

func TestDraftFileApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		f    draftFile
	}{
		{"bad price", draftFile{Items: []draftItem{{Product: "Pallet", Qty: 1, Price: "abc"}}}},
		{"zero qty", draftFile{Items: []draftItem{{Product: "Pallet", Qty: 0, Price: "1"}}}},
		{"bad shipping", draftFile{Shipping: "x"}},
		{"bad tax", draftFile{Tax: &TaxConfig{Mode: "vat"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := invoice.NewDraft("thb", invoice.DefaultTax())
			if err := tt.f.apply(d); err == nil {
				t.Error("expected error")
			}
		})
	}
}
