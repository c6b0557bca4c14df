package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	ledger "github.com/xraph/freightledger"
	audithook "github.com/xraph/freightledger/audit_hook"
	"github.com/xraph/freightledger/internal/backend"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/render/drive"
	"github.com/xraph/freightledger/render/pdf"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgFile string
	verbose bool

	cfg    Config
	logger *slog.Logger
	ledger *ledger.Ledger
	audit  *auditFile
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "freightledger",
		Short: "Number, total, store and render transportation invoices",
		Long: `freightledger keeps transportation invoices in a spreadsheet or database.
Invoices are numbered INV-0001, INV-0002, ... in save order and are stored as one
summary row plus one row per billed item.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.open,
		PersistentPostRunE: a.close,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", defaultConfigFile, "config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.nextNumberCmd(),
		a.createCmd(),
		a.editCmd(),
		a.duplicateCmd(),
		a.showCmd(),
		a.listCmd(),
		a.renderCmd(),
		a.migrateCmd(),
	)
	return root
}

// open loads the config, opens the store and starts the ledger.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(a.cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	a.cfg = cfg

	tax, err := invoice.ParseTax(cfg.Tax.Mode, cfg.Tax.Value, cfg.Currency)
	if err != nil {
		return err
	}

	s, err := backend.Open(cmd.Context(), cfg.Store, a.logger, nil)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	opts := []ledger.Option{
		ledger.WithLogger(a.logger),
		ledger.WithCurrency(cfg.Currency),
		ledger.WithTax(tax),
		ledger.WithReconcile(cfg.Reconcile),
		ledger.WithMigrateOnStart(cfg.AutoMigrate && cmd.Name() != "migrate"),
		ledger.WithPlugin(pdf.New()),
	}
	if cfg.AuditLog != "" {
		if a.audit, err = openAuditFile(cfg.AuditLog); err != nil {
			_ = s.Close()
			return err
		}
		opts = append(opts, ledger.WithPlugin(audithook.New(a.audit, audithook.WithLogger(a.logger))))
	}
	if cfg.Drive.Enabled {
		archiver, err := newArchiver(cmd.Context(), cfg.Drive, a.logger)
		if err != nil {
			_ = s.Close()
			_ = a.close(cmd, nil)
			return err
		}
		opts = append(opts, ledger.WithPlugin(archiver))
	}

	a.ledger = ledger.New(s, opts...)
	if err := a.ledger.Start(cmd.Context()); err != nil {
		_ = a.close(cmd, nil)
		return err
	}

	a.logger.Debug("ledger ready",
		slog.String("driver", cfg.Store.Driver),
		slog.String("currency", cfg.Currency),
		slog.String("tax", tax.String()),
	)
	return nil
}

func (a *app) close(_ *cobra.Command, _ []string) error {
	var err error
	if a.ledger != nil {
		err = a.ledger.Stop()
		a.ledger = nil
	}
	if a.audit != nil {
		if cerr := a.audit.Close(); err == nil {
			err = cerr
		}
		a.audit = nil
	}
	return err
}

func newArchiver(ctx context.Context, cfg DriveConfig, logger *slog.Logger) (*drive.Archiver, error) {
	opts := []drive.Option{
		drive.WithLogger(logger),
		drive.WithFolder(cfg.FolderID),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, drive.WithCredentialsFile(cfg.CredentialsFile))
	}
	archiver, err := drive.New(ctx, pdf.New(), opts...)
	if err != nil {
		return nil, fmt.Errorf("open drive archive: %w", err)
	}
	return archiver, nil
}
