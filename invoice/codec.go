package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/freightledger/store"
	"github.com/xraph/freightledger/types"
)

// DecodeError reports a cell that could not be decoded.
type DecodeError struct {
	Table  store.Table
	Column string
	Value  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invoice: decode %s.%s %q: %v", e.Table, e.Column, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeInvoice lays out the invoice header as an Invoices row.
func EncodeInvoice(inv *Invoice) store.Row {
	row := make(store.Row, store.Width(store.Invoices))
	row[store.ColInvoiceNo] = inv.Number
	row[store.ColDate] = formatDate(inv.IssueDate)
	row[store.ColCustomer] = inv.CustomerName
	row[store.ColAddress] = inv.CustomerAddress
	row[store.ColSubtotal] = inv.Subtotal.FormatMajor()
	row[store.ColTax] = inv.Tax.FormatMajor()
	row[store.ColShipping] = inv.Shipping.FormatMajor()
	row[store.ColDiscount] = inv.Discount.FormatMajor()
	row[store.ColGrandTotal] = inv.GrandTotal.FormatMajor()
	row[store.ColCarrier] = inv.Details.Carrier
	row[store.ColDriver] = inv.Details.Driver
	row[store.ColVehiclePlate] = inv.Details.VehiclePlate
	row[store.ColOrigin] = inv.Details.Origin
	row[store.ColDestination] = inv.Details.Destination
	row[store.ColStatus] = inv.Details.Status
	row[store.ColCompanyName] = inv.Details.CompanyName
	row[store.ColCompanyAddress] = inv.Details.CompanyAddress
	row[store.ColCompanyTaxID] = inv.Details.CompanyTaxID
	row[store.ColCompanyPhone] = inv.Details.CompanyPhone
	row[store.ColNote] = inv.Details.Note
	return row
}

// EncodeItems lays out one InvoiceItems row per line item, in order.
func EncodeItems(inv *Invoice) []store.Row {
	rows := make([]store.Row, 0, len(inv.Items))
	for _, it := range inv.Items {
		row := make(store.Row, store.Width(store.InvoiceItems))
		row[store.ColItemInvoiceNo] = inv.Number
		row[store.ColItemProduct] = it.Product
		row[store.ColItemUnit] = it.Unit
		row[store.ColItemQty] = strconv.FormatInt(it.Quantity, 10)
		row[store.ColItemPrice] = it.UnitPrice.FormatMajor()
		row[store.ColItemAmount] = it.Amount.FormatMajor()
		rows = append(rows, row)
	}
	return rows
}

// DecodeInvoice reads an Invoices row. Items are not populated. Short rows
// are padded with blanks.
func DecodeInvoice(row store.Row, currency string) (*Invoice, error) {
	row = row.Pad(store.Width(store.Invoices))
	inv := &Invoice{
		Number:          strings.TrimSpace(row[store.ColInvoiceNo]),
		CustomerName:    row[store.ColCustomer],
		CustomerAddress: row[store.ColAddress],
		Details: Details{
			Carrier:        row[store.ColCarrier],
			Driver:         row[store.ColDriver],
			VehiclePlate:   row[store.ColVehiclePlate],
			Origin:         row[store.ColOrigin],
			Destination:    row[store.ColDestination],
			Status:         row[store.ColStatus],
			CompanyName:    row[store.ColCompanyName],
			CompanyAddress: row[store.ColCompanyAddress],
			CompanyTaxID:   row[store.ColCompanyTaxID],
			CompanyPhone:   row[store.ColCompanyPhone],
			Note:           row[store.ColNote],
		},
	}

	date, err := parseDate(row[store.ColDate])
	if err != nil {
		return nil, &DecodeError{Table: store.Invoices, Column: "date", Value: row[store.ColDate], Err: err}
	}
	inv.IssueDate = date

	money := []struct {
		col  int
		name string
		dst  *types.Money
	}{
		{store.ColSubtotal, "subtotal", &inv.Subtotal},
		{store.ColTax, "tax", &inv.Tax},
		{store.ColShipping, "shipping", &inv.Shipping},
		{store.ColDiscount, "discount", &inv.Discount},
		{store.ColGrandTotal, "grand_total", &inv.GrandTotal},
	}
	for _, m := range money {
		v, err := types.ParseMoney(row[m.col], currency)
		if err != nil {
			return nil, &DecodeError{Table: store.Invoices, Column: m.name, Value: row[m.col], Err: err}
		}
		*m.dst = v
	}
	return inv, nil
}

// DecodeItem reads an InvoiceItems row and returns the invoice number it
// belongs to. The stored amount is kept as is.
func DecodeItem(row store.Row, currency string) (string, LineItem, error) {
	row = row.Pad(store.Width(store.InvoiceItems))
	number := strings.TrimSpace(row[store.ColItemInvoiceNo])

	qty, err := parseQuantity(row[store.ColItemQty])
	if err != nil {
		return number, LineItem{}, &DecodeError{Table: store.InvoiceItems, Column: "qty", Value: row[store.ColItemQty], Err: err}
	}
	price, err := types.ParseMoney(row[store.ColItemPrice], currency)
	if err != nil {
		return number, LineItem{}, &DecodeError{Table: store.InvoiceItems, Column: "price", Value: row[store.ColItemPrice], Err: err}
	}
	amount, err := types.ParseMoney(row[store.ColItemAmount], currency)
	if err != nil {
		return number, LineItem{}, &DecodeError{Table: store.InvoiceItems, Column: "amount", Value: row[store.ColItemAmount], Err: err}
	}

	return number, LineItem{
		Product:   row[store.ColItemProduct],
		Unit:      row[store.ColItemUnit],
		Quantity:  qty,
		UnitPrice: price,
		Amount:    amount,
	}, nil
}

// NumberOf returns the trimmed invoice_no cell of a row from either table.
func NumberOf(row store.Row) string {
	return strings.TrimSpace(row.Cell(0))
}

// Numbers returns the invoice_no column of rows, in order.
func Numbers(rows []store.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = NumberOf(r)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, s)
}

// parseQuantity accepts integral values written as "10" or "10.0".
func parseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity %s is not a whole number", s)
	}
	return d.IntPart(), nil
}
