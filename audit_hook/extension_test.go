package audithook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	ledger "github.com/xraph/freightledger"
	audithook "github.com/xraph/freightledger/audit_hook"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/types"
)

type captured struct {
	events []*audithook.AuditEvent
}

func (c *captured) recorder() audithook.Recorder {
	return audithook.RecorderFunc(func(_ context.Context, e *audithook.AuditEvent) error {
		c.events = append(c.events, e)
		return nil
	})
}

func TestInvoiceEvents(t *testing.T) {
	ctx := context.Background()
	var c captured
	ext := audithook.New(c.recorder())

	inv := &invoice.Invoice{Number: "INV-0001", CustomerName: "Acme", GrandTotal: types.THB(47450)}
	_ = ext.OnInvoiceCreated(ctx, inv)
	_ = ext.OnInvoiceUpdated(ctx, inv)
	_ = ext.OnInvoiceRendered(ctx, "INV-0001", "pdf", 12*time.Millisecond)

	if len(c.events) != 3 {
		t.Fatalf("events = %d, want 3", len(c.events))
	}
	created := c.events[0]
	if created.Action != audithook.ActionInvoiceCreated || created.ResourceID != "INV-0001" {
		t.Errorf("created = %+v", created)
	}
	if created.Metadata["grand_total"] != "474.50" {
		t.Errorf("grand_total = %v", created.Metadata["grand_total"])
	}
	if c.events[2].Metadata["format"] != "pdf" {
		t.Errorf("rendered metadata = %v", c.events[2].Metadata)
	}
}

func TestSaveFailedClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantSeverity string
		wantOutcome  string
	}{
		{
			name:         "partial write",
			err:          &ledger.PartialWriteError{Number: "INV-0002", Phase: ledger.PhaseAppendItems, Err: errors.New("quota")},
			wantSeverity: audithook.SeverityCritical,
			wantOutcome:  audithook.OutcomePartial,
		},
		{
			name:         "validation",
			err:          ledger.ValidationError{Field: "customer_name", Message: "is required"},
			wantSeverity: audithook.SeverityWarning,
			wantOutcome:  audithook.OutcomeFailure,
		},
		{
			name:         "store down",
			err:          &ledger.StoreUnavailableError{Op: "list", Err: errors.New("timeout")},
			wantSeverity: audithook.SeverityError,
			wantOutcome:  audithook.OutcomeFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c captured
			ext := audithook.New(c.recorder())
			_ = ext.OnInvoiceSaveFailed(context.Background(), invoice.ModeCreate, "INV-0002", tt.err)

			if len(c.events) != 1 {
				t.Fatalf("events = %d", len(c.events))
			}
			e := c.events[0]
			if e.Severity != tt.wantSeverity || e.Outcome != tt.wantOutcome {
				t.Errorf("severity/outcome = %s/%s, want %s/%s", e.Severity, e.Outcome, tt.wantSeverity, tt.wantOutcome)
			}
			if e.Reason == "" {
				t.Error("reason not set")
			}
		})
	}
}

func TestActionFilters(t *testing.T) {
	ctx := context.Background()

	var only captured
	ext := audithook.New(only.recorder(), audithook.WithEnabledActions(audithook.ActionNumberReset))
	_ = ext.OnInvoiceCreated(ctx, &invoice.Invoice{Number: "INV-0001"})
	_ = ext.OnNumberReset(ctx, "garbage", "INV-0001")
	if len(only.events) != 1 || only.events[0].Action != audithook.ActionNumberReset {
		t.Errorf("enabled filter recorded %d events", len(only.events))
	}

	var skip captured
	ext = audithook.New(skip.recorder(), audithook.WithDisabledActions(audithook.ActionInvoiceRendered))
	_ = ext.OnInvoiceRendered(ctx, "INV-0001", "pdf", time.Millisecond)
	_ = ext.OnReconcileMismatch(ctx, "INV-0001", 3, 2)
	if len(skip.events) != 1 || skip.events[0].Action != audithook.ActionReconcileMismatch {
		t.Errorf("disabled filter recorded %+v", skip.events)
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("audit backend down")
	}))
	if err := ext.OnInvoiceCreated(context.Background(), &invoice.Invoice{Number: "INV-0001"}); err != nil {
		t.Errorf("hook returned %v", err)
	}
}
