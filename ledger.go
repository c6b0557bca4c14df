package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/plugin"
	"github.com/xraph/freightledger/store"
	"github.com/xraph/freightledger/types"
)

// Ledger numbers, totals and persists transportation invoices.
//
// A Ledger holds no locks: it assumes a single writer per store. Concurrent
// creates against the same store can read the same last number.
type Ledger struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	currency  string
	tax       invoice.Tax
	clock     func() time.Time
	reconcile bool
	migrate   bool
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		currency: types.DefaultCurrency,
		tax:      invoice.DefaultTax(),
		clock:    time.Now,
		migrate:  true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		l.plugins.WithTimeout(d)
	}
}

// WithCurrency sets the ledger currency (default "thb").
func WithCurrency(currency string) Option {
	return func(l *Ledger) {
		if currency != "" {
			l.currency = strings.ToLower(currency)
		}
	}
}

// WithTax sets the tax policy for new drafts (default 7%).
func WithTax(tax invoice.Tax) Option {
	return func(l *Ledger) {
		l.tax = tax
	}
}

// WithClock sets the time source used for issue dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.clock = now
		}
	}
}

// WithReconcile enables a re-read of the item rows after every save.
func WithReconcile(enabled bool) Option {
	return func(l *Ledger) {
		l.reconcile = enabled
	}
}

// WithMigrateOnStart controls whether Start migrates the store (default
// true). When disabled, Start only pings it and Migrate must be run once.
func WithMigrateOnStart(enabled bool) Option {
	return func(l *Ledger) {
		l.migrate = enabled
	}
}

// Start migrates the store, or pings it when migration on start is
// disabled, and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if l.migrate {
		if err := l.Migrate(ctx); err != nil {
			return err
		}
	} else if err := l.Ping(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started",
		"currency", l.currency,
		"tax", l.tax.String(),
		"reconcile", l.reconcile,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Migrate creates the invoice and item tables with their header rows. It is
// idempotent.
func (l *Ledger) Migrate(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return &StoreUnavailableError{Op: "migrate", Err: err}
	}
	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Ping checks that the store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.store.Ping(ctx); err != nil {
		return &StoreUnavailableError{Op: "ping", Err: err}
	}
	return nil
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Currency returns the ledger currency.
func (l *Ledger) Currency() string { return l.currency }

// Tax returns the default tax policy.
func (l *Ledger) Tax() invoice.Tax { return l.tax }

// NewDraft returns an empty draft in the ledger currency and tax policy.
func (l *Ledger) NewDraft() *invoice.Draft {
	return invoice.NewDraft(l.currency, l.tax)
}

// today returns the clock's calendar date.
func (l *Ledger) today() time.Time {
	t := l.clock()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (l *Ledger) listRows(ctx context.Context, table store.Table) ([]store.Row, error) {
	rows, err := l.store.ListRows(ctx, table)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "list", Table: table, Err: err}
	}
	return rows, nil
}
