// Package pdf renders invoices as A4 "TRANSPORTATION INVOICE" documents.
//
// The formatter registers as a plugin and serves the "pdf" format:
//
//	l := ledger.New(s, ledger.WithPlugin(pdf.New()))
//	err := l.Render(ctx, "INV-0001", pdf.Format, w)
//
// The document creation date is the invoice issue date, so identical input
// yields identical output.
package pdf

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/plugin"
	"github.com/xraph/freightledger/types"
)

// Format is the format name the formatter registers under.
const Format = "pdf"

// DefaultTitle heads every document.
const DefaultTitle = "TRANSPORTATION INVOICE"

// Compile-time interface checks.
var (
	_ plugin.Plugin           = (*Formatter)(nil)
	_ plugin.InvoiceFormatter = (*Formatter)(nil)
)

// Formatter renders invoices to PDF.
type Formatter struct {
	title  string
	author string
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithTitle replaces the document heading.
func WithTitle(title string) Option {
	return func(f *Formatter) { f.title = title }
}

// WithAuthor sets the PDF author metadata.
func WithAuthor(author string) Option {
	return func(f *Formatter) { f.author = author }
}

// New returns a PDF formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{title: DefaultTitle}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements plugin.Plugin.
func (f *Formatter) Name() string { return "pdf-formatter" }

// Format implements plugin.InvoiceFormatter.
func (f *Formatter) Format() string { return Format }

// Render implements plugin.InvoiceFormatter.
func (f *Formatter) Render(ctx context.Context, inv *invoice.Invoice, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("pdf: nil invoice")
	}

	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithTitle(f.title+" "+inv.Number, true).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		})
	if !inv.IssueDate.IsZero() {
		b = b.WithCreationDate(inv.IssueDate)
	}
	if f.author != "" {
		b = b.WithAuthor(f.author, true)
	}

	m := maroto.New(b.Build())
	f.header(m, inv)
	f.parties(m, inv)
	f.items(m, inv)
	f.totals(m, inv)
	if inv.Details.Note != "" {
		m.AddRow(8, text.NewCol(12, "Note", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}))
		m.AddRow(10, text.NewCol(12, inv.Details.Note, props.Text{Size: 9}))
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generate %s: %w", inv.Number, err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("pdf: write %s: %w", inv.Number, err)
	}
	return nil
}

func (f *Formatter) header(m core.Maroto, inv *invoice.Invoice) {
	m.AddRow(14,
		text.NewCol(12, f.title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)

	d := inv.Details
	company := col.New(7)
	top := 0.0
	for i, s := range []string{d.CompanyName, d.CompanyAddress, labelled("Tax ID: ", d.CompanyTaxID), labelled("Tel: ", d.CompanyPhone)} {
		if s == "" {
			continue
		}
		p := props.Text{Size: 9, Top: top}
		if i == 0 {
			p.Style = fontstyle.Bold
		}
		company.Add(text.New(s, p))
		top += 5
	}

	meta := col.New(5).Add(
		text.New("Invoice No: "+inv.Number, props.Text{Size: 9, Align: align.Right, Style: fontstyle.Bold}),
		text.New("Date: "+formatDate(inv), props.Text{Size: 9, Align: align.Right, Top: 5}),
	)
	if d.Status != "" {
		meta.Add(text.New("Status: "+d.Status, props.Text{Size: 9, Align: align.Right, Top: 10}))
	}
	m.AddRow(24, company, meta)
	m.AddRow(2, line.NewCol(12))
}

func (f *Formatter) parties(m core.Maroto, inv *invoice.Invoice) {
	d := inv.Details
	shipment := col.New(6).Add(text.New("Shipment", props.Text{Size: 9, Style: fontstyle.Bold}))
	top := 5.0
	for _, s := range []string{
		labelled("Carrier: ", d.Carrier),
		labelled("Driver: ", d.Driver),
		labelled("Vehicle: ", d.VehiclePlate),
		route(d.Origin, d.Destination),
	} {
		if s == "" {
			continue
		}
		shipment.Add(text.New(s, props.Text{Size: 9, Top: top}))
		top += 5
	}

	m.AddRow(28,
		col.New(6).Add(
			text.New("Bill to", props.Text{Size: 9, Style: fontstyle.Bold}),
			text.New(inv.CustomerName, props.Text{Size: 9, Top: 5}),
			text.New(inv.CustomerAddress, props.Text{Size: 9, Top: 10}),
		),
		shipment,
	)
}

func (f *Formatter) items(m core.Maroto, inv *invoice.Invoice) {
	head := props.Text{Size: 9, Style: fontstyle.Bold}
	headRight := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	m.AddRow(8,
		text.NewCol(1, "No.", head),
		text.NewCol(5, "Product", head),
		text.NewCol(1, "Qty", headRight),
		text.NewCol(1, "Unit", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Center}),
		text.NewCol(2, "Unit Price", headRight),
		text.NewCol(2, "Amount", headRight),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 9}
	right := props.Text{Size: 9, Align: align.Right}
	for i, it := range inv.Items {
		m.AddRow(7,
			text.NewCol(1, strconv.Itoa(i+1), cell),
			text.NewCol(5, it.Product, cell),
			text.NewCol(1, strconv.FormatInt(it.Quantity, 10), right),
			text.NewCol(1, it.Unit, props.Text{Size: 9, Align: align.Center}),
			text.NewCol(2, amount(it.UnitPrice), right),
			text.NewCol(2, amount(it.Amount), right),
		)
	}
	m.AddRow(2, line.NewCol(12))
}

func (f *Formatter) totals(m core.Maroto, inv *invoice.Invoice) {
	rows := []struct {
		label string
		value types.Money
	}{
		{"Subtotal", inv.Subtotal},
		{"Tax", inv.Tax},
		{"Shipping", inv.Shipping},
		{"Discount", inv.Discount.Negate()},
	}
	for _, r := range rows {
		m.AddRow(6,
			col.New(8),
			text.NewCol(2, r.label, props.Text{Size: 9}),
			text.NewCol(2, amount(r.value), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Grand Total", props.Text{Size: 10, Style: fontstyle.Bold, Top: 1}),
		text.NewCol(2, amount(inv.GrandTotal), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 1}),
	)
}

// amount formats money with its currency code; the core PDF fonts carry
// no baht sign.
func amount(m types.Money) string {
	cur := strings.ToUpper(m.Currency)
	if cur == "" {
		return m.FormatMajor()
	}
	return m.FormatMajor() + " " + cur
}

func formatDate(inv *invoice.Invoice) string {
	if inv.IssueDate.IsZero() {
		return ""
	}
	return inv.IssueDate.Format("02 Jan 2006")
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + value
}

func route(origin, destination string) string {
	switch {
	case origin == "" && destination == "":
		return ""
	case destination == "":
		return "From: " + origin
	case origin == "":
		return "To: " + destination
	}
	return "Route: " + origin + " -> " + destination
}
