package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/xraph/freightledger/invoice"
)

// DefaultHookTimeout bounds every hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Interfaces are discovered once at registration and cached per hook.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit              []OnInit
	onShutdown          []OnShutdown
	onInvoiceCreated    []OnInvoiceCreated
	onInvoiceUpdated    []OnInvoiceUpdated
	onInvoiceSaveFailed []OnInvoiceSaveFailed
	onNumberReset       []OnNumberReset
	onReconcileMismatch []OnReconcileMismatch
	onInvoiceRendered   []OnInvoiceRendered
	invoiceFormatters   map[string]InvoiceFormatter
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:            slog.Default(),
		timeout:           DefaultHookTimeout,
		invoiceFormatters: make(map[string]InvoiceFormatter),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
	}
	if v, ok := p.(OnInvoiceUpdated); ok {
		r.onInvoiceUpdated = append(r.onInvoiceUpdated, v)
	}
	if v, ok := p.(OnInvoiceSaveFailed); ok {
		r.onInvoiceSaveFailed = append(r.onInvoiceSaveFailed, v)
	}
	if v, ok := p.(OnNumberReset); ok {
		r.onNumberReset = append(r.onNumberReset, v)
	}
	if v, ok := p.(OnReconcileMismatch); ok {
		r.onReconcileMismatch = append(r.onReconcileMismatch, v)
	}
	if v, ok := p.(OnInvoiceRendered); ok {
		r.onInvoiceRendered = append(r.onInvoiceRendered, v)
	}
	if v, ok := p.(InvoiceFormatter); ok {
		r.invoiceFormatters[v.Format()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnInvoiceCreated", reflect.TypeOf((*OnInvoiceCreated)(nil)).Elem()},
	{"OnInvoiceUpdated", reflect.TypeOf((*OnInvoiceUpdated)(nil)).Elem()},
	{"OnInvoiceSaveFailed", reflect.TypeOf((*OnInvoiceSaveFailed)(nil)).Elem()},
	{"OnNumberReset", reflect.TypeOf((*OnNumberReset)(nil)).Elem()},
	{"OnReconcileMismatch", reflect.TypeOf((*OnReconcileMismatch)(nil)).Elem()},
	{"OnInvoiceRendered", reflect.TypeOf((*OnInvoiceRendered)(nil)).Elem()},
	{"InvoiceFormatter", reflect.TypeOf((*InvoiceFormatter)(nil)).Elem()},
}

// implementedInterfaces lists the hooks p implements, for logging.
func implementedInterfaces(p Plugin) []string {
	var out []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			out = append(out, h.name)
		}
	}
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Formatter returns the formatter registered for format, or nil.
func (r *Registry) Formatter(format string) InvoiceFormatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.invoiceFormatters[format]
}

// Formats returns the registered formatter names, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.invoiceFormatters))
	for f := range r.invoiceFormatters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitInvoiceCreated emits an invoice created event.
func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvoiceCreated", p.Name(), func() error {
			return p.OnInvoiceCreated(ctx, inv)
		})
	}
}

// EmitInvoiceUpdated emits an invoice updated event.
func (r *Registry) EmitInvoiceUpdated(ctx context.Context, inv *invoice.Invoice) {
	r.mu.RLock()
	plugins := r.onInvoiceUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvoiceUpdated", p.Name(), func() error {
			return p.OnInvoiceUpdated(ctx, inv)
		})
	}
}

// EmitInvoiceSaveFailed emits a save failure event.
func (r *Registry) EmitInvoiceSaveFailed(ctx context.Context, mode invoice.SaveMode, number string, saveErr error) {
	r.mu.RLock()
	plugins := r.onInvoiceSaveFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvoiceSaveFailed", p.Name(), func() error {
			return p.OnInvoiceSaveFailed(ctx, mode, number, saveErr)
		})
	}
}

// EmitNumberReset emits a numbering reset event.
func (r *Registry) EmitNumberReset(ctx context.Context, last, assigned string) {
	r.mu.RLock()
	plugins := r.onNumberReset
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnNumberReset", p.Name(), func() error {
			return p.OnNumberReset(ctx, last, assigned)
		})
	}
}

// EmitReconcileMismatch emits a reconciliation mismatch event.
func (r *Registry) EmitReconcileMismatch(ctx context.Context, number string, expected, found int) {
	r.mu.RLock()
	plugins := r.onReconcileMismatch
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnReconcileMismatch", p.Name(), func() error {
			return p.OnReconcileMismatch(ctx, number, expected, found)
		})
	}
}

// EmitInvoiceRendered emits a document rendered event.
func (r *Registry) EmitInvoiceRendered(ctx context.Context, number, format string, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onInvoiceRendered
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInvoiceRendered", p.Name(), func() error {
			return p.OnInvoiceRendered(ctx, number, format, elapsed)
		})
	}
}

// dispatch runs one hook and logs its failure. Hooks never fail the caller.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a save.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
