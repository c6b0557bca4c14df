package plugin_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/plugin"
)

type createdHook struct {
	name  string
	calls int
	err   error
	block time.Duration
}

func (h *createdHook) Name() string { return h.name }

func (h *createdHook) OnInvoiceCreated(context.Context, *invoice.Invoice) error {
	if h.block > 0 {
		time.Sleep(h.block)
	}
	h.calls++
	return h.err
}

type formatter struct{ format string }

func (f formatter) Name() string   { return f.format + "-formatter" }
func (f formatter) Format() string { return f.format }
func (f formatter) Render(context.Context, *invoice.Invoice, io.Writer) error {
	return nil
}

func TestRegister(t *testing.T) {
	r := plugin.NewRegistry()

	if err := r.Register(&createdHook{name: "audit"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&createdHook{name: "audit"}); err == nil {
		t.Error("duplicate name accepted")
	}
	if err := r.Register(formatter{format: "pdf"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(formatter{format: "csv"}); err != nil {
		t.Fatal(err)
	}

	if r.Count() != 3 || len(r.List()) != 3 {
		t.Errorf("Count = %d", r.Count())
	}
	if r.Get("audit") == nil || r.Get("missing") != nil {
		t.Error("Get by name")
	}
	if got := r.Formats(); len(got) != 2 || got[0] != "csv" || got[1] != "pdf" {
		t.Errorf("Formats = %v", got)
	}
	if r.Formatter("pdf") == nil || r.Formatter("docx") != nil {
		t.Error("Formatter lookup")
	}
}

func TestEmitIgnoresHookFailures(t *testing.T) {
	ok := &createdHook{name: "ok"}
	bad := &createdHook{name: "bad", err: errors.New("boom")}
	slow := &createdHook{name: "slow", block: 200 * time.Millisecond}

	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	for _, p := range []plugin.Plugin{bad, slow, ok} {
		if err := r.Register(p); err != nil {
			t.Fatal(err)
		}
	}

	start := time.Now()
	r.EmitInvoiceCreated(context.Background(), &invoice.Invoice{Number: "INV-0001"})
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("emit waited %v for a slow hook", elapsed)
	}
	if bad.calls != 1 || ok.calls != 1 {
		t.Errorf("calls: bad=%d ok=%d", bad.calls, ok.calls)
	}
}
