package extension

import (
	"time"

	"github.com/xraph/grove"

	ledger "github.com/xraph/freightledger"
	audithook "github.com/xraph/freightledger/audit_hook"
	"github.com/xraph/freightledger/internal/backend"
	"github.com/xraph/freightledger/observability"
	"github.com/xraph/freightledger/plugin"
	"github.com/xraph/freightledger/store"
)

// Option configures the freightledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger. It takes precedence over the
// configured backend.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB supplies the database for the sqlite, postgres or mongo
// backend and selects driver.
func WithGroveDB(driver string, db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.Store.Driver = driver
	}
}

// WithStoreConfig sets the backend configuration.
func WithStoreConfig(cfg backend.Config) Option {
	return func(e *Extension) { e.config.Store = cfg }
}

// WithLedgerOption passes a ledger.Option through to the underlying ledger.
func WithLedgerOption(opt ledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, ledger.WithPlugin(p))
	}
}

// WithMetrics records ledger metrics through factory.
func WithMetrics(factory observability.MetricFactory) Option {
	return WithPlugin(observability.NewMetricsExtension(factory))
}

// WithAudit records ledger events through r.
func WithAudit(r audithook.Recorder, opts ...audithook.Option) Option {
	return WithPlugin(audithook.New(r, opts...))
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithCurrency sets the ledger currency.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithTax sets the default tax policy, e.g. ("percentage", "7") or
// ("fixed", "50.00").
func WithTax(mode, value string) Option {
	return func(e *Extension) {
		e.config.TaxMode = mode
		e.config.TaxValue = value
	}
}

// WithReconcile enables post-save item reconciliation.
func WithReconcile() Option {
	return func(e *Extension) { e.config.Reconcile = true }
}

// WithHookTimeout bounds each plugin hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.HookTimeout = d }
}
