package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/freightledger/types"
)

// TaxMode selects how tax is derived from the subtotal.
type TaxMode string

const (
	TaxPercentage  TaxMode = "percentage"
	TaxFixedAmount TaxMode = "fixed"
	TaxNone        TaxMode = "none"
)

// DefaultTaxRate is the VAT rate applied when none is configured (7%).
var DefaultTaxRate = decimal.New(7, -2)

// Tax is the tax policy applied when computing totals.
type Tax struct {
	Mode   TaxMode         `json:"mode"`
	Rate   decimal.Decimal `json:"rate"`   // fraction of subtotal, percentage mode
	Amount types.Money     `json:"amount"` // flat amount, fixed mode
}

// DefaultTax returns 7% percentage tax.
func DefaultTax() Tax { return Tax{Mode: TaxPercentage, Rate: DefaultTaxRate} }

// PercentTax returns a percentage policy; rate is a fraction (0.07 = 7%).
func PercentTax(rate decimal.Decimal) Tax { return Tax{Mode: TaxPercentage, Rate: rate} }

// FixedTax returns a flat-amount policy.
func FixedTax(amount types.Money) Tax { return Tax{Mode: TaxFixedAmount, Amount: amount} }

// NoTax returns a policy that charges no tax.
func NoTax() Tax { return Tax{Mode: TaxNone} }

// ParseTaxMode parses a mode name. The empty string selects percentage.
func ParseTaxMode(s string) (TaxMode, error) {
	switch TaxMode(s) {
	case "", TaxPercentage:
		return TaxPercentage, nil
	case TaxFixedAmount, TaxNone:
		return TaxMode(s), nil
	}
	return "", fmt.Errorf("invoice: unknown tax mode %q", s)
}

// ParseTax builds a Tax from configuration text. For percentage mode value
// is a percent ("7", "7.5%"); empty means DefaultTaxRate. For fixed mode
// value is a major-unit amount in currency.
func ParseTax(mode, value, currency string) (Tax, error) {
	m, err := ParseTaxMode(strings.TrimSpace(mode))
	if err != nil {
		return Tax{}, err
	}
	value = strings.TrimSuffix(strings.TrimSpace(value), "%")

	switch m {
	case TaxNone:
		return NoTax(), nil
	case TaxFixedAmount:
		amount, err := types.ParseMoney(value, currency)
		if err != nil {
			return Tax{}, fmt.Errorf("invoice: fixed tax amount: %w", err)
		}
		if amount.IsNegative() {
			return Tax{}, fmt.Errorf("invoice: fixed tax amount %s is negative", value)
		}
		return FixedTax(amount), nil
	}

	if value == "" {
		return DefaultTax(), nil
	}
	pct, err := decimal.NewFromString(value)
	if err != nil {
		return Tax{}, fmt.Errorf("invoice: tax rate %q: %w", value, err)
	}
	if pct.IsNegative() {
		return Tax{}, fmt.Errorf("invoice: tax rate %s%% is negative", value)
	}
	return PercentTax(pct.Shift(-2)), nil
}

// Apply returns the tax owed on subtotal. A fixed amount in another
// currency is an ErrCurrencyMismatch.
func (t Tax) Apply(subtotal types.Money) (types.Money, error) {
	switch t.Mode {
	case TaxFixedAmount:
		amount := inCurrency(t.Amount, subtotal.Currency)
		if amount.Currency != subtotal.Currency {
			return types.Money{}, fmt.Errorf("%w: tax in %s, invoice in %s", ErrCurrencyMismatch, amount.Currency, subtotal.Currency)
		}
		return amount, nil
	case TaxNone:
		return types.Zero(subtotal.Currency), nil
	default:
		return subtotal.MulRate(t.Rate), nil
	}
}

func (t Tax) String() string {
	switch t.Mode {
	case TaxFixedAmount:
		return "fixed " + t.Amount.String()
	case TaxNone:
		return "none"
	default:
		return t.Rate.Shift(2).String() + "%"
	}
}

// Totals is the monetary summary of an invoice.
type Totals struct {
	Subtotal   types.Money `json:"subtotal"`
	Tax        types.Money `json:"tax"`
	Shipping   types.Money `json:"shipping"`
	Discount   types.Money `json:"discount"`
	GrandTotal types.Money `json:"grand_total"`
}

// Recalculate sets every item's Amount to Quantity × UnitPrice.
func Recalculate(items []LineItem) {
	for i := range items {
		items[i].Amount = items[i].UnitPrice.Multiply(items[i].Quantity)
	}
}

// ComputeTotals derives the invoice totals in currency:
//
//	subtotal    = Σ quantity × unit_price
//	grand_total = subtotal + tax + shipping − discount
//
// The grand total may be negative. Items are read, not modified. Zero-value
// Money arguments are taken to be in currency; any other currency is an
// ErrCurrencyMismatch.
func ComputeTotals(currency string, items []LineItem, tax Tax, shipping, discount types.Money) (Totals, error) {
	currency = strings.ToLower(currency)

	amounts := make([]types.Money, 0, len(items))
	for i, it := range items {
		price := inCurrency(it.UnitPrice, currency)
		if price.Currency != currency {
			return Totals{}, fmt.Errorf("%w: item %d priced in %s, invoice in %s", ErrCurrencyMismatch, i, price.Currency, currency)
		}
		amounts = append(amounts, price.Multiply(it.Quantity))
	}
	shipping = inCurrency(shipping, currency)
	discount = inCurrency(discount, currency)
	for _, m := range []types.Money{shipping, discount} {
		if m.Currency != currency {
			return Totals{}, fmt.Errorf("%w: charge in %s, invoice in %s", ErrCurrencyMismatch, m.Currency, currency)
		}
	}

	subtotal := types.Sum(currency, amounts...)
	taxAmount, err := tax.Apply(subtotal)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal:   subtotal,
		Tax:        taxAmount,
		Shipping:   shipping,
		Discount:   discount,
		GrandTotal: types.Sum(currency, subtotal, taxAmount, shipping).Subtract(discount),
	}, nil
}

func inCurrency(m types.Money, currency string) types.Money {
	if m.Currency == "" {
		return types.New(m.Amount, currency)
	}
	return m
}
