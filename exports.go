package ledger

import (
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/types"
)

// Re-export common types for convenience so users don't have to import the
// types and invoice packages for everyday use.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Invoice is re-exported from invoice package.
type Invoice = invoice.Invoice

// Draft is re-exported from invoice package.
type Draft = invoice.Draft

// Tax is re-exported from invoice package.
type Tax = invoice.Tax

// Re-export Money constructors
var (
	THB        = types.THB
	USD        = types.USD
	Zero       = types.Zero
	Sum        = types.Sum
	ParseMoney = types.ParseMoney
)

// Re-export tax policies
var (
	DefaultTax = invoice.DefaultTax
	PercentTax = invoice.PercentTax
	FixedTax   = invoice.FixedTax
	NoTax      = invoice.NoTax
)
