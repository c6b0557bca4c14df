package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ledger "github.com/xraph/freightledger"
	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/render/pdf"
)

func (a *app) nextNumberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-number",
		Short: "Print the number the next created invoice will get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.ledger.NextNumber(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice from a draft file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := readDraftFile(file)
			if err != nil {
				return err
			}
			d := a.ledger.NewDraft()
			if err := f.apply(d); err != nil {
				return err
			}
			return a.save(cmd, d, ledger.ModeCreate)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "draft YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "edit <number>",
		Short: "Apply a draft file to a stored invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readDraftFile(file)
			if err != nil {
				return err
			}
			d, err := a.ledger.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := f.apply(d); err != nil {
				return err
			}
			return a.save(cmd, d, ledger.ModeEdit)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "draft YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) duplicateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "duplicate <number>",
		Short: "Create a new invoice from a copy of a stored one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.ledger.DuplicateNumber(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if file != "" {
				f, err := readDraftFile(file)
				if err != nil {
					return err
				}
				if err := f.apply(d); err != nil {
					return err
				}
			}
			return a.save(cmd, d, ledger.ModeCreate)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "optional draft YAML file applied to the copy")
	return cmd
}

func (a *app) save(cmd *cobra.Command, d *invoice.Draft, mode invoice.SaveMode) error {
	n, err := a.ledger.Save(cmd.Context(), d, mode)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func (a *app) showCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Print a stored invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := a.ledger.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(inv)
			}
			return printInvoice(cmd.OutOrStdout(), inv)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored invoices in save order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			invs, err := a.ledger.List(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := a.ledger.ItemCounts(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NUMBER\tDATE\tCUSTOMER\tITEMS\tTOTAL")
			for _, inv := range invs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					inv.Number, inv.IssueDate.Format(invoice.DateLayout), inv.CustomerName,
					counts[inv.Number], inv.GrandTotal)
			}
			return tw.Flush()
		},
	}
}

func (a *app) renderCmd() *cobra.Command {
	var (
		out    string
		format string
	)
	cmd := &cobra.Command{
		Use:   "render <number>",
		Short: "Render a stored invoice to a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			number := args[0]
			if out == "" {
				out = number + "." + format
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
				if err != nil {
					_ = os.Remove(out)
				}
			}()

			if err := a.ledger.Render(cmd.Context(), number, format, f); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <number>.<format>)")
	cmd.Flags().StringVar(&format, "format", pdf.Format, "document format")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the invoice and item tables with their headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ledger.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", a.cfg.Store.Driver)
			return nil
		},
	}
}

func printInvoice(w io.Writer, inv *invoice.Invoice) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Invoice:\t%s\n", inv.Number)
	fmt.Fprintf(tw, "Date:\t%s\n", inv.IssueDate.Format(invoice.DateLayout))
	fmt.Fprintf(tw, "Customer:\t%s\n", inv.CustomerName)
	if inv.CustomerAddress != "" {
		fmt.Fprintf(tw, "Address:\t%s\n", inv.CustomerAddress)
	}
	if inv.Details.Origin != "" || inv.Details.Destination != "" {
		fmt.Fprintf(tw, "Route:\t%s -> %s\n", inv.Details.Origin, inv.Details.Destination)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "#\tPRODUCT\tQTY\tUNIT\tPRICE\tAMOUNT")
	for i, it := range inv.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", i+1, it.Product, it.Quantity, it.Unit, it.UnitPrice, it.Amount)
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Subtotal:\t%s\n", inv.Subtotal)
	fmt.Fprintf(tw, "Tax:\t%s\n", inv.Tax)
	fmt.Fprintf(tw, "Shipping:\t%s\n", inv.Shipping)
	fmt.Fprintf(tw, "Discount:\t%s\n", inv.Discount)
	fmt.Fprintf(tw, "Grand total:\t%s\n", inv.GrandTotal)
	return tw.Flush()
}
