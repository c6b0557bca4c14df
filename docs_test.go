package ledger_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	ledger "github.com/xraph/freightledger"
	"github.com/xraph/freightledger/render/pdf"
	"github.com/xraph/freightledger/store/xlsx"
)

// TestDocumentationExamples verifies that the package documentation examples
// run as written.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		s, err := xlsx.Open(filepath.Join(t.TempDir(), "invoices.xlsx"))
		if err != nil {
			t.Fatal(err)
		}

		l := ledger.New(s,
			ledger.WithLogger(slog.Default()),
			ledger.WithPlugin(pdf.New()),
		)
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		d := l.NewDraft()
		d.CustomerName = "Acme Logistics"
		d.CustomerAddress = "99 Rama IV Rd, Bangkok"
		if _, err := d.AddItem("Pallet", "pcs", 10, ledger.THB(3500)); err != nil {
			t.Fatal(err)
		}
		if err := d.SetShipping(ledger.THB(10000)); err != nil {
			t.Fatal(err)
		}

		number, err := l.Save(ctx, d, ledger.ModeCreate)
		if err != nil {
			t.Fatal(err)
		}
		if number != "INV-0001" {
			t.Errorf("number = %q, want INV-0001", number)
		}

		totals, err := d.Totals()
		if err != nil {
			t.Fatal(err)
		}
		if totals.Subtotal.FormatMajor() != "350.00" ||
			totals.Tax.FormatMajor() != "24.50" ||
			totals.GrandTotal.FormatMajor() != "474.50" {
			t.Errorf("totals = %+v", totals)
		}
	})

	t.Run("EditAndDuplicateExample", func(t *testing.T) {
		ctx := context.Background()

		s, err := xlsx.Open(filepath.Join(t.TempDir(), "invoices.xlsx"))
		if err != nil {
			t.Fatal(err)
		}
		l := ledger.New(s, ledger.WithTax(ledger.NoTax()))
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		d := l.NewDraft()
		d.CustomerName = "Acme Logistics"
		d.CustomerAddress = "99 Rama IV Rd, Bangkok"
		if _, err := d.AddItem("Crate", "pcs", 3, ledger.THB(1500)); err != nil {
			t.Fatal(err)
		}
		number, err := l.Save(ctx, d, ledger.ModeCreate)
		if err != nil {
			t.Fatal(err)
		}

		loaded, err := l.Load(ctx, number)
		if err != nil {
			t.Fatal(err)
		}
		if err := loaded.SetDiscount(ledger.THB(500)); err != nil {
			t.Fatal(err)
		}
		if _, err := l.Save(ctx, loaded, ledger.ModeEdit); err != nil {
			t.Fatal(err)
		}

		inv, err := l.Get(ctx, number)
		if err != nil {
			t.Fatal(err)
		}
		if inv.GrandTotal.Amount != 4000 {
			t.Errorf("grand total = %v, want 40.00", inv.GrandTotal)
		}

		dup := l.Duplicate(inv)
		second, err := l.Save(ctx, dup, ledger.ModeCreate)
		if err != nil {
			t.Fatal(err)
		}
		if second != "INV-0002" {
			t.Errorf("duplicate number = %q", second)
		}
	})
}
