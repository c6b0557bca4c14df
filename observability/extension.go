// Package observability provides a metrics extension for the ledger that
// records invoice event counts and latencies via an injected MetricFactory.
package observability

import (
	"context"
	"errors"
	"time"

	ledger "github.com/xraph/freightledger"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceUpdated    = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceSaveFailed = (*MetricsExtension)(nil)
	_ plugin.OnNumberReset       = (*MetricsExtension)(nil)
	_ plugin.OnReconcileMismatch = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceRendered   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a ledger plugin to track saves, failures and renders.
type MetricsExtension struct {
	factory MetricFactory

	// Invoice metrics
	InvoiceCreated    Counter
	InvoiceUpdated    Counter
	InvoiceItems      Histogram
	InvoiceGrandTotal Histogram

	// Failure metrics
	SaveFailed        Counter
	ValidationFailed  Counter
	StoreErrors       Counter
	PartialWrites     Counter
	ReconcileMismatch Counter

	// Numbering metrics
	NumberResets Counter

	// Rendering metrics
	Rendered      Counter
	RenderLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		InvoiceCreated:    factory.Counter("freightledger.invoice.created"),
		InvoiceUpdated:    factory.Counter("freightledger.invoice.updated"),
		InvoiceItems:      factory.Histogram("freightledger.invoice.items"),
		InvoiceGrandTotal: factory.Histogram("freightledger.invoice.grand_total"),

		SaveFailed:        factory.Counter("freightledger.save.failed"),
		ValidationFailed:  factory.Counter("freightledger.save.invalid"),
		StoreErrors:       factory.Counter("freightledger.store.errors"),
		PartialWrites:     factory.Counter("freightledger.store.partial_writes"),
		ReconcileMismatch: factory.Counter("freightledger.store.reconcile_mismatch"),

		NumberResets: factory.Counter("freightledger.number.resets"),

		Rendered:      factory.Counter("freightledger.render.count"),
		RenderLatency: factory.Histogram("freightledger.render.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceCreated.Inc()
	m.observeInvoice(inv)
	return nil
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (m *MetricsExtension) OnInvoiceUpdated(_ context.Context, inv *invoice.Invoice) error {
	m.InvoiceUpdated.Inc()
	m.observeInvoice(inv)
	return nil
}

// OnInvoiceSaveFailed implements plugin.OnInvoiceSaveFailed.
func (m *MetricsExtension) OnInvoiceSaveFailed(_ context.Context, _ invoice.SaveMode, _ string, err error) error {
	m.SaveFailed.Inc()
	switch {
	case ledger.IsValidation(err):
		m.ValidationFailed.Inc()
	case errors.Is(err, ledger.ErrPartialWrite):
		m.PartialWrites.Inc()
		m.StoreErrors.Inc()
	case errors.Is(err, ledger.ErrStoreUnavailable):
		m.StoreErrors.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Numbering & consistency hooks
// ──────────────────────────────────────────────────

// OnNumberReset implements plugin.OnNumberReset.
func (m *MetricsExtension) OnNumberReset(_ context.Context, _, _ string) error {
	m.NumberResets.Inc()
	return nil
}

// OnReconcileMismatch implements plugin.OnReconcileMismatch.
func (m *MetricsExtension) OnReconcileMismatch(_ context.Context, _ string, _, _ int) error {
	m.ReconcileMismatch.Inc()
	return nil
}

// OnInvoiceRendered implements plugin.OnInvoiceRendered.
func (m *MetricsExtension) OnInvoiceRendered(_ context.Context, _, _ string, elapsed time.Duration) error {
	m.Rendered.Inc()
	m.RenderLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// observeInvoice records size and value in major units.
func (m *MetricsExtension) observeInvoice(inv *invoice.Invoice) {
	if inv == nil {
		return
	}
	m.InvoiceItems.Observe(float64(len(inv.Items)))
	total, _ := inv.GrandTotal.Decimal().Float64()
	m.InvoiceGrandTotal.Observe(total)
}
