package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/freightledger/internal/backend"
	"github.com/xraph/freightledger/types"
)

const defaultConfigFile = "freightledger.yaml"

// Config is the command-line configuration file.
type Config struct {
	Currency  string         `yaml:"currency"`
	Tax       TaxConfig      `yaml:"tax"`
	Reconcile bool           `yaml:"reconcile"`
	Store     backend.Config `yaml:"store"`

	// AutoMigrate creates missing tables on every command. When false, run
	// "freightledger migrate" once per store.
	AutoMigrate bool `yaml:"auto_migrate"`

	// AuditLog, when set, receives one JSON line per audited ledger event.
	AuditLog string `yaml:"audit_log"`

	Drive DriveConfig `yaml:"drive"`
}

// DriveConfig enables the "pdf-drive" format, which archives every rendered
// PDF in a Google Drive folder.
type DriveConfig struct {
	Enabled         bool   `yaml:"enabled"`
	FolderID        string `yaml:"folder_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// TaxConfig names a tax policy: mode is percentage, fixed or none.
type TaxConfig struct {
	Mode  string `yaml:"mode"`
	Value string `yaml:"value"`
}

func defaultConfig() Config {
	return Config{
		Currency: types.DefaultCurrency,
		Tax:      TaxConfig{Mode: "percentage"},
		Store:    backend.DefaultConfig(),

		AutoMigrate: true,
	}
}

// loadConfig reads path. A missing file yields the defaults unless the path
// was asked for explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (Config, error) {
	cfg := Config{AutoMigrate: true}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Currency == "" {
		cfg.Currency = types.DefaultCurrency
	}
	if cfg.Tax.Mode == "" && cfg.Tax.Value == "" {
		cfg.Tax.Mode = "percentage"
	}
	cfg.Store = cfg.Store.WithDefaults()
	return cfg, nil
}
