package store

import "fmt"

// Column positions in the Invoices table.
const (
	ColInvoiceNo = iota
	ColDate
	ColCustomer
	ColAddress
	ColSubtotal
	ColTax
	ColShipping
	ColDiscount
	ColGrandTotal
	ColCarrier
	ColDriver
	ColVehiclePlate
	ColOrigin
	ColDestination
	ColStatus
	ColCompanyName
	ColCompanyAddress
	ColCompanyTaxID
	ColCompanyPhone
	ColNote
)

// Column positions in the InvoiceItems table.
const (
	ColItemInvoiceNo = iota
	ColItemProduct
	ColItemUnit
	ColItemQty
	ColItemPrice
	ColItemAmount
)

var columns = map[Table][]string{
	Invoices: {
		"invoice_no", "date", "customer", "address",
		"subtotal", "tax", "shipping", "discount", "grand_total",
		"carrier", "driver", "vehicle_plate", "origin", "destination", "status",
		"company_name", "company_address", "company_tax_id", "company_phone", "note",
	},
	InvoiceItems: {
		"invoice_no", "product", "unit", "qty", "price", "amount",
	},
}

// Tables returns the ledger tables in migration order.
func Tables() []Table {
	return []Table{Invoices, InvoiceItems}
}

// Columns returns the header row for table.
func Columns(table Table) ([]string, error) {
	cols, ok := columns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Width returns the number of columns in table, or 0 if unknown.
func Width(table Table) int {
	return len(columns[table])
}

// CheckTable returns ErrUnknownTable unless table is part of the schema.
func CheckTable(table Table) error {
	if _, ok := columns[table]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}
