package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/store"
)

// Save modes, re-exported from the invoice package.
const (
	ModeCreate = invoice.ModeCreate
	ModeEdit   = invoice.ModeEdit
)

// NextNumber returns the number the next created invoice would receive.
// It does not reserve it.
func (l *Ledger) NextNumber(ctx context.Context) (string, error) {
	rows, err := l.listRows(ctx, store.Invoices)
	if err != nil {
		return "", err
	}
	return l.nextNumber(ctx, rows), nil
}

// nextNumber applies the numbering policy to the stored Invoices rows. A
// malformed last number is logged and the sequence restarts.
func (l *Ledger) nextNumber(ctx context.Context, rows []store.Row) string {
	numbers := invoice.Numbers(rows)
	next, err := invoice.NextNumber(numbers)
	if err != nil {
		var mErr *invoice.MalformedNumberError
		last := ""
		if errors.As(err, &mErr) {
			last = mErr.Value
		}
		l.logger.Warn("invoice number sequence reset",
			"last", last,
			"assigned", next,
			"error", err,
		)
		l.plugins.EmitNumberReset(ctx, last, next)
	}
	return next
}

// Save persists the draft and returns its invoice number.
//
// In ModeCreate a new number is assigned and the invoice and its item rows
// are appended. In ModeEdit the stored invoice row carrying the draft's
// number is overwritten, its item rows deleted and the draft's items
// appended.
//
// Writes are not rolled back. A failure after the invoice row was written
// is reported as a *PartialWriteError. The draft is only updated (number,
// issue date, item amounts) once every write succeeded.
func (l *Ledger) Save(ctx context.Context, d *invoice.Draft, mode invoice.SaveMode) (string, error) {
	if err := l.validate(d, mode); err != nil {
		number := ""
		if d != nil {
			number = d.Number()
		}
		l.saveFailed(ctx, mode, number, err)
		return "", err
	}

	var (
		inv *invoice.Invoice
		err error
	)
	switch mode {
	case invoice.ModeEdit:
		inv, err = l.edit(ctx, d)
	default:
		inv, err = l.create(ctx, d)
	}
	if err != nil {
		number := d.Number()
		if inv != nil {
			number = inv.Number
		}
		l.saveFailed(ctx, mode, number, err)
		return "", err
	}

	d.Assign(inv.Number, inv.IssueDate)

	if mode == invoice.ModeEdit {
		l.logger.Info("invoice updated",
			"number", inv.Number,
			"items", len(inv.Items),
			"grand_total", inv.GrandTotal.String(),
		)
		l.plugins.EmitInvoiceUpdated(ctx, inv)
	} else {
		l.logger.Info("invoice created",
			"number", inv.Number,
			"items", len(inv.Items),
			"grand_total", inv.GrandTotal.String(),
		)
		l.plugins.EmitInvoiceCreated(ctx, inv)
	}

	if l.reconcile {
		if err := l.reconcileItems(ctx, inv.Number, len(inv.Items)); err != nil {
			return inv.Number, err
		}
	}

	return inv.Number, nil
}

// create appends a new invoice. The returned invoice is non-nil once a
// number was assigned.
func (l *Ledger) create(ctx context.Context, d *invoice.Draft) (*invoice.Invoice, error) {
	rows, err := l.listRows(ctx, store.Invoices)
	if err != nil {
		return nil, err
	}

	inv, err := d.Invoice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	inv.Number = l.nextNumber(ctx, rows)
	if inv.IssueDate.IsZero() {
		inv.IssueDate = l.today()
	}

	if err := l.store.AppendRow(ctx, store.Invoices, invoice.EncodeInvoice(inv)); err != nil {
		return inv, &StoreUnavailableError{Op: "append", Table: store.Invoices, Err: err}
	}

	if err := l.appendItems(ctx, inv); err != nil {
		return inv, err
	}
	return inv, nil
}

// edit overwrites the stored invoice carrying the draft's number.
func (l *Ledger) edit(ctx context.Context, d *invoice.Draft) (*invoice.Invoice, error) {
	rows, err := l.listRows(ctx, store.Invoices)
	if err != nil {
		return nil, err
	}

	inv, err := d.Invoice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	idx := indexOf(rows, inv.Number)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, inv.Number)
	}
	if inv.IssueDate.IsZero() {
		// Keep the stored date when the draft did not carry one.
		if stored, decErr := invoice.DecodeInvoice(rows[idx], l.currency); decErr == nil && !stored.IssueDate.IsZero() {
			inv.IssueDate = stored.IssueDate
		} else {
			inv.IssueDate = l.today()
		}
	}

	if err := l.store.UpdateRow(ctx, store.Invoices, idx, invoice.EncodeInvoice(inv)); err != nil {
		return inv, &StoreUnavailableError{Op: "update", Table: store.Invoices, Err: err}
	}

	items, err := l.listRows(ctx, store.InvoiceItems)
	if err != nil {
		return inv, &PartialWriteError{Number: inv.Number, Phase: PhaseDeleteItems, Err: err}
	}
	// Highest index first so earlier indices stay valid.
	for i := len(items) - 1; i >= 0; i-- {
		if !invoice.SameNumber(invoice.NumberOf(items[i]), inv.Number) {
			continue
		}
		if err := l.store.DeleteRow(ctx, store.InvoiceItems, i); err != nil {
			return inv, &PartialWriteError{
				Number: inv.Number,
				Phase:  PhaseDeleteItems,
				Err:    &StoreUnavailableError{Op: "delete", Table: store.InvoiceItems, Err: err},
			}
		}
	}

	if err := l.appendItems(ctx, inv); err != nil {
		return inv, err
	}
	return inv, nil
}

func (l *Ledger) appendItems(ctx context.Context, inv *invoice.Invoice) error {
	for i, row := range invoice.EncodeItems(inv) {
		if err := l.store.AppendRow(ctx, store.InvoiceItems, row); err != nil {
			l.logger.Error("item append failed",
				"number", inv.Number,
				"written", i,
				"total", len(inv.Items),
				"error", err,
			)
			return &PartialWriteError{
				Number: inv.Number,
				Phase:  PhaseAppendItems,
				Err:    &StoreUnavailableError{Op: "append", Table: store.InvoiceItems, Err: err},
			}
		}
	}
	return nil
}

// reconcileItems re-reads the item rows and compares the count for number.
// A failed re-read is logged only; the save itself succeeded.
func (l *Ledger) reconcileItems(ctx context.Context, number string, expected int) error {
	rows, err := l.listRows(ctx, store.InvoiceItems)
	if err != nil {
		l.logger.Warn("reconcile read failed", "number", number, "error", err)
		return nil
	}
	found := 0
	for _, r := range rows {
		if invoice.SameNumber(invoice.NumberOf(r), number) {
			found++
		}
	}
	if found == expected {
		return nil
	}

	l.logger.Warn("reconcile mismatch",
		"number", number,
		"expected", expected,
		"found", found,
	)
	l.plugins.EmitReconcileMismatch(ctx, number, expected, found)
	return &ReconcileError{Number: number, Expected: expected, Found: found}
}

func (l *Ledger) saveFailed(ctx context.Context, mode invoice.SaveMode, number string, err error) {
	l.logger.Warn("invoice save failed",
		"mode", mode.String(),
		"number", number,
		"error", err,
	)
	l.plugins.EmitInvoiceSaveFailed(ctx, mode, number, err)
}

// validate checks the draft before any store call. Every failing field is
// reported.
func (l *Ledger) validate(d *invoice.Draft, mode invoice.SaveMode) error {
	if d == nil {
		return ValidationError{Field: "draft", Message: "is nil"}
	}

	switch mode {
	case invoice.ModeCreate:
		if d.Number() != "" {
			return fmt.Errorf("%w: %w: %s", ErrInvalidInput, ErrDraftNumbered, d.Number())
		}
	case invoice.ModeEdit:
		if d.Number() == "" {
			return fmt.Errorf("%w: %w", ErrInvalidInput, ErrDraftUnnumbered)
		}
	default:
		return ValidationError{Field: "mode", Message: fmt.Sprintf("unknown save mode %d", mode)}
	}

	var errs MultiError
	if strings.TrimSpace(d.CustomerName) == "" {
		errs.Add(ValidationError{Field: "customer_name", Message: "is required"})
	}
	if strings.TrimSpace(d.CustomerAddress) == "" {
		errs.Add(ValidationError{Field: "customer_address", Message: "is required"})
	}
	if d.Currency() != l.currency {
		errs.Add(ValidationError{
			Field:   "currency",
			Message: fmt.Sprintf("draft is in %s, ledger is in %s", d.Currency(), l.currency),
		})
	}

	items := d.Items()
	if len(items) == 0 {
		errs.Add(ValidationError{Field: "items", Message: "at least one line item is required"})
	}
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Quantity <= 0 {
			errs.Add(ValidationError{Field: field + ".quantity", Message: fmt.Sprintf("%d must be positive", it.Quantity)})
		}
		if it.UnitPrice.IsNegative() {
			errs.Add(ValidationError{Field: field + ".unit_price", Message: fmt.Sprintf("%s must not be negative", it.UnitPrice)})
		}
		if it.UnitPrice.Currency != "" && it.UnitPrice.Currency != l.currency {
			errs.Add(ValidationError{Field: field + ".unit_price", Message: "currency " + it.UnitPrice.Currency + " does not match " + l.currency})
		}
	}

	for _, m := range []struct {
		field    string
		currency string
	}{
		{"shipping", d.Shipping().Currency},
		{"discount", d.Discount().Currency},
		{"tax", d.Tax.Amount.Currency},
	} {
		if m.currency != "" && m.currency != l.currency {
			errs.Add(ValidationError{Field: m.field, Message: "currency " + m.currency + " does not match " + l.currency})
		}
	}

	switch len(errs.Errors) {
	case 0:
		return nil
	case 1:
		return errs.First()
	}
	return errs
}

// indexOf returns the first row whose invoice_no is number, or -1.
func indexOf(rows []store.Row, number string) int {
	for i, r := range rows {
		if invoice.SameNumber(invoice.NumberOf(r), number) {
			return i
		}
	}
	return -1
}
