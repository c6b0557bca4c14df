package extension

import (
	"time"

	"github.com/xraph/freightledger/internal/backend"
	"github.com/xraph/freightledger/types"
)

// Config holds the freightledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.freightledger" or
// "freightledger" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Currency is the ledger-wide currency code (default: "thb").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// TaxMode is percentage, fixed or none (default: percentage).
	TaxMode string `json:"tax_mode" mapstructure:"tax_mode" yaml:"tax_mode"`

	// TaxValue is the percent for percentage mode (default: 7) or the
	// major-unit amount for fixed mode.
	TaxValue string `json:"tax_value" mapstructure:"tax_value" yaml:"tax_value"`

	// Reconcile re-reads item rows after every save.
	Reconcile bool `json:"reconcile" mapstructure:"reconcile" yaml:"reconcile"`

	// HookTimeout bounds each plugin hook call (default: 5s).
	HookTimeout time.Duration `json:"hook_timeout" mapstructure:"hook_timeout" yaml:"hook_timeout"`

	// Store selects the backend when no store was set programmatically.
	Store backend.Config `json:"store" mapstructure:"store" yaml:"store"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency:    types.DefaultCurrency,
		TaxMode:     "percentage",
		HookTimeout: 5 * time.Second,
		Store:       backend.DefaultConfig(),
	}
}
