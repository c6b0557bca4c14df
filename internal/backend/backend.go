// Package backend opens a store.Store from declarative configuration. It is
// shared by the CLI and the Forge extension.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/grove"
	"golang.org/x/time/rate"

	"github.com/xraph/freightledger/store"
	"github.com/xraph/freightledger/store/memory"
	"github.com/xraph/freightledger/store/mongo"
	"github.com/xraph/freightledger/store/postgres"
	"github.com/xraph/freightledger/store/sheets"
	"github.com/xraph/freightledger/store/sqlite"
	"github.com/xraph/freightledger/store/xlsx"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverXLSX     = "xlsx"
	DriverSheets   = "sheets"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// ErrNoDatabase is returned for a grove driver when no database was given.
var ErrNoDatabase = errors.New("backend: grove driver requires a database")

// Config selects and configures a store backend.
type Config struct {
	// Driver is one of memory, xlsx, sheets, sqlite, postgres, mongo
	// (default: xlsx).
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// Path is the workbook file for the xlsx driver (default: invoices.xlsx).
	Path string `json:"path" mapstructure:"path" yaml:"path"`

	// SpreadsheetID and CredentialsFile configure the sheets driver.
	SpreadsheetID   string `json:"spreadsheet_id" mapstructure:"spreadsheet_id" yaml:"spreadsheet_id"`
	CredentialsFile string `json:"credentials_file" mapstructure:"credentials_file" yaml:"credentials_file"`

	// RequestsPerSecond limits sheets API calls (default: 1).
	RequestsPerSecond float64 `json:"requests_per_second" mapstructure:"requests_per_second" yaml:"requests_per_second"`

	// MaxTries bounds attempts per sheets API call (default: 5).
	MaxTries uint `json:"max_tries" mapstructure:"max_tries" yaml:"max_tries"`
}

// DefaultConfig returns the local workbook configuration.
func DefaultConfig() Config {
	return Config{
		Driver:            DriverXLSX,
		Path:              "invoices.xlsx",
		RequestsPerSecond: 1,
		MaxTries:          5,
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Driver == "" {
		c.Driver = d.Driver
	}
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if c.MaxTries == 0 {
		c.MaxTries = d.MaxTries
	}
	return c
}

// Open constructs the configured store. db is required for the grove
// drivers (sqlite, postgres, mongo) and ignored otherwise.
func Open(ctx context.Context, cfg Config, logger *slog.Logger, db *grove.DB) (store.Store, error) {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverMemory:
		return memory.New(), nil

	case DriverXLSX:
		return xlsx.Open(cfg.Path, xlsx.WithLogger(logger))

	case DriverSheets:
		opts := []sheets.Option{
			sheets.WithLogger(logger),
			sheets.WithRateLimit(rate.Limit(cfg.RequestsPerSecond), 5),
			sheets.WithRetry(cfg.MaxTries, 500*time.Millisecond),
		}
		if cfg.CredentialsFile != "" {
			opts = append(opts, sheets.WithCredentialsFile(cfg.CredentialsFile))
		}
		return sheets.New(ctx, cfg.SpreadsheetID, opts...)

	case DriverSQLite, DriverPostgres, DriverMongo:
		if db == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoDatabase, cfg.Driver)
		}
		return Grove(cfg.Driver, db)
	}
	return nil, fmt.Errorf("backend: unknown driver %q", cfg.Driver)
}

// Grove wraps a grove database in the store for driver.
func Grove(driver string, db *grove.DB) (store.Store, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	}
	return nil, fmt.Errorf("backend: %q is not a grove driver", driver)
}
