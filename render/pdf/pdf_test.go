package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/render/pdf"
	"github.com/xraph/freightledger/types"
)

func palletInvoice() *invoice.Invoice {
	inv := &invoice.Invoice{
		Number:          "INV-0001",
		IssueDate:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		CustomerName:    "Acme Logistics",
		CustomerAddress: "99 Rama IV Rd, Bangkok",
		Items: []invoice.LineItem{
			{Product: "Pallet", Unit: "pcs", Quantity: 10, UnitPrice: types.THB(3500), Amount: types.THB(35000)},
		},
		Subtotal:   types.THB(35000),
		Tax:        types.THB(2450),
		Shipping:   types.THB(10000),
		Discount:   types.THB(0),
		GrandTotal: types.THB(47450),
		Details: invoice.Details{
			Carrier:     "Siam Freight",
			Origin:      "Bangkok",
			Destination: "Chiang Mai",
			CompanyName: "Siam Freight Co., Ltd.",
			Note:        "Thank you for your business",
		},
	}
	return inv
}

func TestRender(t *testing.T) {
	f := pdf.New(pdf.WithAuthor("Siam Freight"))
	if f.Format() != "pdf" || f.Name() == "" {
		t.Fatalf("Format/Name = %q/%q", f.Format(), f.Name())
	}

	var buf bytes.Buffer
	if err := f.Render(context.Background(), palletInvoice(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRenderManyItems(t *testing.T) {
	inv := palletInvoice()
	for i := 0; i < 60; i++ {
		inv.Items = append(inv.Items, invoice.LineItem{
			Product: "Crate", Quantity: 1, UnitPrice: types.THB(100), Amount: types.THB(100),
		})
	}

	var buf bytes.Buffer
	if err := pdf.New().Render(context.Background(), inv, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty document")
	}
}

func TestRenderErrors(t *testing.T) {
	f := pdf.New()
	if err := f.Render(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Error("Render(nil) succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Render(ctx, palletInvoice(), &bytes.Buffer{}); err == nil {
		t.Error("Render with cancelled context succeeded")
	}
}
