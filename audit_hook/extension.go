// Package audithook bridges ledger invoice events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit system. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ledger "github.com/xraph/freightledger"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnInvoiceCreated    = (*Extension)(nil)
	_ plugin.OnInvoiceUpdated    = (*Extension)(nil)
	_ plugin.OnInvoiceSaveFailed = (*Extension)(nil)
	_ plugin.OnNumberReset       = (*Extension)(nil)
	_ plugin.OnReconcileMismatch = (*Extension)(nil)
	_ plugin.OnInvoiceRendered   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.Number, CategoryBilling, nil,
		invoiceMeta(inv)...,
	)
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (e *Extension) OnInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) error {
	return e.record(ctx, ActionInvoiceUpdated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, inv.Number, CategoryBilling, nil,
		invoiceMeta(inv)...,
	)
}

// OnInvoiceSaveFailed implements plugin.OnInvoiceSaveFailed. Partial writes
// are recorded as critical: the store holds an invoice row whose items may
// be incomplete.
func (e *Extension) OnInvoiceSaveFailed(ctx context.Context, mode invoice.SaveMode, number string, err error) error {
	severity, outcome := SeverityError, OutcomeFailure
	kv := []any{"mode", mode.String()}

	var pw *ledger.PartialWriteError
	switch {
	case errors.As(err, &pw):
		severity, outcome = SeverityCritical, OutcomePartial
		kv = append(kv, "phase", pw.Phase)
	case ledger.IsValidation(err):
		severity = SeverityWarning
	}

	return e.record(ctx, ActionInvoiceSaveFailed, severity, outcome,
		ResourceInvoice, number, CategoryBilling, err,
		kv...,
	)
}

// ──────────────────────────────────────────────────
// Numbering & consistency hooks
// ──────────────────────────────────────────────────

// OnNumberReset implements plugin.OnNumberReset.
func (e *Extension) OnNumberReset(ctx context.Context, last, assigned string) error {
	return e.record(ctx, ActionNumberReset, SeverityWarning, OutcomeSuccess,
		ResourceSequence, assigned, CategoryConsistency, nil,
		"last_number", last,
		"assigned", assigned,
	)
}

// OnReconcileMismatch implements plugin.OnReconcileMismatch.
func (e *Extension) OnReconcileMismatch(ctx context.Context, number string, expected, found int) error {
	return e.record(ctx, ActionReconcileMismatch, SeverityCritical, OutcomePartial,
		ResourceStore, number, CategoryConsistency, nil,
		"expected_items", expected,
		"found_items", found,
	)
}

// OnInvoiceRendered implements plugin.OnInvoiceRendered.
func (e *Extension) OnInvoiceRendered(ctx context.Context, number, format string, elapsed time.Duration) error {
	return e.record(ctx, ActionInvoiceRendered, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, number, CategoryDocument, nil,
		"format", format,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func invoiceMeta(inv *invoice.Invoice) []any {
	return []any{
		"customer", inv.CustomerName,
		"items", len(inv.Items),
		"grand_total", inv.GrandTotal.FormatMajor(),
		"currency", inv.Currency(),
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
