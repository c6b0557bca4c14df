// Package plugin provides an extensible plugin system for the invoice ledger.
// Plugins can hook into lifecycle events and contribute document formatters.
package plugin

import (
	"context"
	"io"
	"time"

	"github.com/xraph/freightledger/invoice"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called after a new invoice and all its items are stored.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceUpdated is called after an existing invoice is overwritten.
type OnInvoiceUpdated interface {
	Plugin
	OnInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) error
}

// OnInvoiceSaveFailed is called when a save returns an error. number is
// empty when the failure happened before a number was assigned.
type OnInvoiceSaveFailed interface {
	Plugin
	OnInvoiceSaveFailed(ctx context.Context, mode invoice.SaveMode, number string, err error) error
}

// ──────────────────────────────────────────────────
// Numbering & reconciliation hooks
// ──────────────────────────────────────────────────

// OnNumberReset is called when the last stored number was malformed and the
// sequence restarted at the first number.
type OnNumberReset interface {
	Plugin
	OnNumberReset(ctx context.Context, last string, assigned string) error
}

// OnReconcileMismatch is called when a post-save re-read finds a different
// number of item rows than were written.
type OnReconcileMismatch interface {
	Plugin
	OnReconcileMismatch(ctx context.Context, number string, expected, found int) error
}

// ──────────────────────────────────────────────────
// Rendering
// ──────────────────────────────────────────────────

// OnInvoiceRendered is called after a formatter produced a document.
type OnInvoiceRendered interface {
	Plugin
	OnInvoiceRendered(ctx context.Context, number, format string, elapsed time.Duration) error
}

// InvoiceFormatter renders an invoice document.
type InvoiceFormatter interface {
	Plugin
	Format() string // "pdf", "csv", ...
	Render(ctx context.Context, inv *invoice.Invoice, w io.Writer) error
}
