package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/freightledger/id"
	"github.com/xraph/freightledger/types"
)

var (
	// ErrItemIndex is returned for an item index outside the draft.
	ErrItemIndex = errors.New("invoice: item index out of range")

	// ErrInvalidItem is returned for a non-positive quantity or negative price.
	ErrInvalidItem = errors.New("invoice: invalid line item")

	// ErrCurrencyMismatch is returned for money in a currency other than the draft's.
	ErrCurrencyMismatch = errors.New("invoice: currency mismatch")
)

// DraftState reports whether a draft holds any line items.
type DraftState int

const (
	DraftEmpty DraftState = iota
	DraftPopulated
)

func (s DraftState) String() string {
	if s == DraftPopulated {
		return "populated"
	}
	return "empty"
}

// Draft is an editable invoice. It is owned by a single caller; it is not
// safe for concurrent use.
//
// Number and IssueDate are set only by the ledger once a save succeeds, or
// retained when a draft is loaded from a stored invoice.
type Draft struct {
	types.Entity
	Handle id.DraftID

	CustomerName    string
	CustomerAddress string
	Details         Details
	Tax             Tax

	number    string
	issueDate time.Time
	currency  string
	items     []LineItem
	shipping  types.Money
	discount  types.Money
}

// NewDraft returns an empty draft in currency using the given tax policy.
func NewDraft(currency string, tax Tax) *Draft {
	currency = strings.ToLower(currency)
	return &Draft{
		Entity:   types.NewEntity(),
		Handle:   id.NewDraftID(),
		Tax:      tax,
		currency: currency,
		shipping: types.Zero(currency),
		discount: types.Zero(currency),
	}
}

// DraftFromInvoice opens a stored invoice for editing. The number and issue
// date are retained. The tax policy is inferred so that an unchanged draft
// reproduces the stored tax; see InferTax.
func DraftFromInvoice(inv *Invoice, policy Tax) *Draft {
	cur := inv.Currency()
	if cur == "" {
		cur = inv.Subtotal.Currency
	}
	d := NewDraft(cur, InferTax(inv, policy))
	d.number = inv.Number
	d.issueDate = inv.IssueDate
	d.CustomerName = inv.CustomerName
	d.CustomerAddress = inv.CustomerAddress
	d.Details = inv.Details
	d.items = make([]LineItem, len(inv.Items))
	copy(d.items, inv.Items)
	d.shipping = inCurrency(inv.Shipping, cur)
	d.discount = inCurrency(inv.Discount, cur)
	return d
}

// InferTax returns policy when it reproduces the stored tax on the stored
// subtotal. Otherwise the stored amount is kept as a fixed tax, or no tax
// when it is zero.
func InferTax(inv *Invoice, policy Tax) Tax {
	if tax, err := policy.Apply(inv.Subtotal); err == nil && tax.Equal(inv.Tax) {
		return policy
	}
	if inv.Tax.IsZero() {
		return NoTax()
	}
	return FixedTax(inv.Tax)
}

// Number returns the assigned invoice number, or "" for a new draft.
func (d *Draft) Number() string { return d.number }

// IssueDate returns the issue date, or the zero time for a new draft.
func (d *Draft) IssueDate() time.Time { return d.issueDate }

// Currency returns the draft currency.
func (d *Draft) Currency() string { return d.currency }

// Shipping returns the shipping charge.
func (d *Draft) Shipping() types.Money { return d.shipping }

// Discount returns the discount.
func (d *Draft) Discount() types.Money { return d.discount }

// State reports whether the draft has items.
func (d *Draft) State() DraftState {
	if len(d.items) == 0 {
		return DraftEmpty
	}
	return DraftPopulated
}

// Len returns the number of line items.
func (d *Draft) Len() int { return len(d.items) }

// Items returns a copy of the line items in insertion order.
func (d *Draft) Items() []LineItem {
	out := make([]LineItem, len(d.items))
	copy(out, d.items)
	return out
}

// AddItem appends a line item and returns its index.
func (d *Draft) AddItem(product, unit string, qty int64, price types.Money) (int, error) {
	it, err := d.newItem(product, unit, qty, price)
	if err != nil {
		return -1, err
	}
	d.items = append(d.items, it)
	d.Touch()
	return len(d.items) - 1, nil
}

// UpdateItem replaces the line item at i.
func (d *Draft) UpdateItem(i int, product, unit string, qty int64, price types.Money) error {
	if i < 0 || i >= len(d.items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	it, err := d.newItem(product, unit, qty, price)
	if err != nil {
		return err
	}
	d.items[i] = it
	d.Touch()
	return nil
}

// RemoveItem deletes the line item at i; later items shift down.
func (d *Draft) RemoveItem(i int) error {
	if i < 0 || i >= len(d.items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
	d.Touch()
	return nil
}

// SetShipping sets the shipping charge.
func (d *Draft) SetShipping(m types.Money) error {
	m = inCurrency(m, d.currency)
	if m.Currency != d.currency {
		return fmt.Errorf("%w: shipping in %s, draft in %s", ErrCurrencyMismatch, m.Currency, d.currency)
	}
	d.shipping = m
	d.Touch()
	return nil
}

// SetDiscount sets the discount.
func (d *Draft) SetDiscount(m types.Money) error {
	m = inCurrency(m, d.currency)
	if m.Currency != d.currency {
		return fmt.Errorf("%w: discount in %s, draft in %s", ErrCurrencyMismatch, m.Currency, d.currency)
	}
	d.discount = m
	d.Touch()
	return nil
}

// Totals computes the draft totals under its tax policy. It fails with
// ErrCurrencyMismatch when Tax is a fixed amount in another currency.
func (d *Draft) Totals() (Totals, error) {
	return ComputeTotals(d.currency, d.items, d.Tax, d.shipping, d.discount)
}

// Invoice returns a snapshot of the draft with amounts and totals computed.
func (d *Draft) Invoice() (*Invoice, error) {
	totals, err := d.Totals()
	if err != nil {
		return nil, err
	}
	inv := &Invoice{
		Number:          d.number,
		IssueDate:       d.issueDate,
		CustomerName:    d.CustomerName,
		CustomerAddress: d.CustomerAddress,
		Items:           d.Items(),
		Details:         d.Details,
	}
	Recalculate(inv.Items)
	inv.SetTotals(totals)
	return inv, nil
}

// Duplicate returns a new draft with the same customer, details, items and
// charges. Number and issue date are cleared.
func (d *Draft) Duplicate() *Draft {
	dup := NewDraft(d.currency, d.Tax)
	dup.CustomerName = d.CustomerName
	dup.CustomerAddress = d.CustomerAddress
	dup.Details = d.Details
	dup.items = d.Items()
	dup.shipping = d.shipping
	dup.discount = d.discount
	return dup
}

// Assign records a successful save: the number, issue date and recomputed
// item amounts.
func (d *Draft) Assign(number string, issued time.Time) {
	d.number = number
	d.issueDate = issued
	Recalculate(d.items)
	d.Touch()
}

func (d *Draft) newItem(product, unit string, qty int64, price types.Money) (LineItem, error) {
	price = inCurrency(price, d.currency)
	if price.Currency != d.currency {
		return LineItem{}, fmt.Errorf("%w: price in %s, draft in %s", ErrCurrencyMismatch, price.Currency, d.currency)
	}
	if qty <= 0 {
		return LineItem{}, fmt.Errorf("%w: quantity %d must be positive", ErrInvalidItem, qty)
	}
	if price.IsNegative() {
		return LineItem{}, fmt.Errorf("%w: unit price %s is negative", ErrInvalidItem, price)
	}
	return LineItem{
		Product:   product,
		Unit:      unit,
		Quantity:  qty,
		UnitPrice: price,
		Amount:    price.Multiply(qty),
	}, nil
}
