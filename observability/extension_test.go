package observability_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ledger "github.com/xraph/freightledger"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/observability"
	"github.com/xraph/freightledger/types"
)

type fakeFactory struct {
	mu         sync.Mutex
	counters   map[string]*fakeCounter
	histograms map[string]*fakeHistogram
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		counters:   make(map[string]*fakeCounter),
		histograms: make(map[string]*fakeHistogram),
	}
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeCounter{}
	f.counters[name] = c
	return c
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &fakeHistogram{}
	f.histograms[name] = h
	return h
}

type fakeCounter struct{ v float64 }

func (c *fakeCounter) Inc()          { c.v++ }
func (c *fakeCounter) Add(v float64) { c.v += v }

type fakeHistogram struct{ obs []float64 }

func (h *fakeHistogram) Observe(v float64) { h.obs = append(h.obs, v) }

func TestInvoiceMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)

	inv := &invoice.Invoice{
		Number:     "INV-0001",
		Items:      make([]invoice.LineItem, 3),
		GrandTotal: types.THB(47450),
	}
	_ = m.OnInvoiceCreated(ctx, inv)
	_ = m.OnInvoiceUpdated(ctx, inv)
	_ = m.OnInvoiceRendered(ctx, "INV-0001", "pdf", 40*time.Millisecond)

	if got := f.counters["freightledger.invoice.created"].v; got != 1 {
		t.Errorf("created = %v", got)
	}
	if got := f.counters["freightledger.invoice.updated"].v; got != 1 {
		t.Errorf("updated = %v", got)
	}
	totals := f.histograms["freightledger.invoice.grand_total"].obs
	if len(totals) != 2 || totals[0] != 474.5 {
		t.Errorf("grand_total observations = %v", totals)
	}
	if obs := f.histograms["freightledger.render.latency_ms"].obs; len(obs) != 1 || obs[0] != 40 {
		t.Errorf("render latency = %v", obs)
	}
}

func TestSaveFailureMetrics(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)

	storeErr := &ledger.StoreUnavailableError{Op: "append", Err: errors.New("down")}
	_ = m.OnInvoiceSaveFailed(ctx, invoice.ModeCreate, "", ledger.ValidationError{Field: "items", Message: "empty"})
	_ = m.OnInvoiceSaveFailed(ctx, invoice.ModeCreate, "", storeErr)
	_ = m.OnInvoiceSaveFailed(ctx, invoice.ModeEdit, "INV-0003",
		&ledger.PartialWriteError{Number: "INV-0003", Phase: ledger.PhaseDeleteItems, Err: storeErr})
	_ = m.OnNumberReset(ctx, "junk", "INV-0001")
	_ = m.OnReconcileMismatch(ctx, "INV-0003", 2, 1)

	want := map[string]float64{
		"freightledger.save.failed":              3,
		"freightledger.save.invalid":             1,
		"freightledger.store.errors":             2,
		"freightledger.store.partial_writes":     1,
		"freightledger.number.resets":            1,
		"freightledger.store.reconcile_mismatch": 1,
	}
	for name, v := range want {
		if got := f.counters[name].v; got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}
}
