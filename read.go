package ledger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/store"
)

// Get returns the stored invoice with its items in row order. When several
// rows carry the number, the first one wins.
func (l *Ledger) Get(ctx context.Context, number string) (*invoice.Invoice, error) {
	rows, err := l.listRows(ctx, store.Invoices)
	if err != nil {
		return nil, err
	}
	idx := indexOf(rows, number)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, number)
	}
	inv, err := invoice.DecodeInvoice(rows[idx], l.currency)
	if err != nil {
		return nil, fmt.Errorf("ledger: get %s: %w", number, err)
	}

	itemRows, err := l.listRows(ctx, store.InvoiceItems)
	if err != nil {
		return nil, err
	}
	for _, r := range itemRows {
		if !invoice.SameNumber(invoice.NumberOf(r), number) {
			continue
		}
		_, it, err := invoice.DecodeItem(r, l.currency)
		if err != nil {
			return nil, fmt.Errorf("ledger: get %s: %w", number, err)
		}
		inv.Items = append(inv.Items, it)
	}
	return inv, nil
}

// List returns every stored invoice header in store order. Items are not
// loaded.
func (l *Ledger) List(ctx context.Context) ([]*invoice.Invoice, error) {
	rows, err := l.listRows(ctx, store.Invoices)
	if err != nil {
		return nil, err
	}
	out := make([]*invoice.Invoice, 0, len(rows))
	for i, r := range rows {
		inv, err := invoice.DecodeInvoice(r, l.currency)
		if err != nil {
			return nil, fmt.Errorf("ledger: list row %d: %w", i, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// ItemCounts returns the number of stored item rows per invoice number,
// read in a single pass over the items table.
func (l *Ledger) ItemCounts(ctx context.Context) (map[string]int, error) {
	rows, err := l.listRows(ctx, store.InvoiceItems)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range rows {
		counts[invoice.NumberOf(r)]++
	}
	return counts, nil
}

// Load opens a stored invoice as a draft for editing. The number and issue
// date are retained.
func (l *Ledger) Load(ctx context.Context, number string) (*invoice.Draft, error) {
	inv, err := l.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	return invoice.DraftFromInvoice(inv, l.tax), nil
}

// Duplicate returns a new draft copying src's customer, details, items and
// charges, with number and issue date cleared. Saving it in ModeCreate
// assigns a new number.
func (l *Ledger) Duplicate(src *invoice.Invoice) *invoice.Draft {
	return invoice.DraftFromInvoice(src, l.tax).Duplicate()
}

// DuplicateNumber loads the stored invoice and duplicates it.
func (l *Ledger) DuplicateNumber(ctx context.Context, number string) (*invoice.Draft, error) {
	inv, err := l.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	return l.Duplicate(inv), nil
}

// Render writes the stored invoice through the formatter registered for format.
func (l *Ledger) Render(ctx context.Context, number, format string, w io.Writer) error {
	f := l.plugins.Formatter(format)
	if f == nil {
		return fmt.Errorf("%w: %q (registered: %v)", ErrFormatterNotFound, format, l.plugins.Formats())
	}

	inv, err := l.Get(ctx, number)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := f.Render(ctx, inv, w); err != nil {
		return fmt.Errorf("ledger: render %s as %s: %w", number, format, err)
	}
	elapsed := time.Since(start)

	l.logger.Debug("invoice rendered",
		"number", number,
		"format", format,
		"elapsed", elapsed,
	)
	l.plugins.EmitInvoiceRendered(ctx, number, format, elapsed)
	return nil
}
