// Package invoice holds the transportation invoice model, its editable draft,
// numbering policy, totals computation and the row codec used at the store
// boundary.
package invoice

import (
	"time"

	"github.com/xraph/freightledger/types"
)

// DateLayout is the calendar-date format persisted in the date column.
const DateLayout = "2006-01-02"

// Invoice is a persisted transportation invoice.
//
// Monetary totals are stored alongside the items and are never recomputed
// on read.
type Invoice struct {
	Number          string      `json:"number"`
	IssueDate       time.Time   `json:"issue_date"`
	CustomerName    string      `json:"customer_name"`
	CustomerAddress string      `json:"customer_address"`
	Items           []LineItem  `json:"items"`
	Subtotal        types.Money `json:"subtotal"`
	Tax             types.Money `json:"tax"`
	Shipping        types.Money `json:"shipping"`
	Discount        types.Money `json:"discount"`
	GrandTotal      types.Money `json:"grand_total"`
	Details         Details     `json:"details"`
}

// LineItem is one billed product line.
type LineItem struct {
	Product   string      `json:"product"`
	Unit      string      `json:"unit,omitempty"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unit_price"`
	Amount    types.Money `json:"amount"`
}

// Details are pass-through attributes persisted verbatim with the invoice.
type Details struct {
	Carrier        string `json:"carrier,omitempty" yaml:"carrier"`
	Driver         string `json:"driver,omitempty" yaml:"driver"`
	VehiclePlate   string `json:"vehicle_plate,omitempty" yaml:"vehicle_plate"`
	Origin         string `json:"origin,omitempty" yaml:"origin"`
	Destination    string `json:"destination,omitempty" yaml:"destination"`
	Status         string `json:"status,omitempty" yaml:"status"`
	CompanyName    string `json:"company_name,omitempty" yaml:"company_name"`
	CompanyAddress string `json:"company_address,omitempty" yaml:"company_address"`
	CompanyTaxID   string `json:"company_tax_id,omitempty" yaml:"company_tax_id"`
	CompanyPhone   string `json:"company_phone,omitempty" yaml:"company_phone"`
	Note           string `json:"note,omitempty" yaml:"note"`
}

// Totals returns the stored monetary summary.
func (inv *Invoice) Totals() Totals {
	return Totals{
		Subtotal:   inv.Subtotal,
		Tax:        inv.Tax,
		Shipping:   inv.Shipping,
		Discount:   inv.Discount,
		GrandTotal: inv.GrandTotal,
	}
}

// SetTotals copies t into the invoice's stored totals.
func (inv *Invoice) SetTotals(t Totals) {
	inv.Subtotal = t.Subtotal
	inv.Tax = t.Tax
	inv.Shipping = t.Shipping
	inv.Discount = t.Discount
	inv.GrandTotal = t.GrandTotal
}

// Currency returns the invoice currency, taken from its totals.
func (inv *Invoice) Currency() string {
	return inv.GrandTotal.Currency
}

// Clone returns a deep copy.
func (inv *Invoice) Clone() *Invoice {
	out := *inv
	out.Items = make([]LineItem, len(inv.Items))
	copy(out.Items, inv.Items)
	return &out
}

// SaveMode selects how a draft is persisted.
type SaveMode int

const (
	// ModeCreate assigns a new number and appends the invoice.
	ModeCreate SaveMode = iota
	// ModeEdit overwrites the stored invoice with the draft's number.
	ModeEdit
)

func (m SaveMode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}
