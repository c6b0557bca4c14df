// Package ledger numbers, totals and persists transportation invoices against
// an ordered, spreadsheet-like table store.
//
// Ledger is designed as a library. It provides:
//
//   - Sequential invoice numbering (INV-0001, INV-0002, ...)
//   - Exact totals in integer minor units with percentage, fixed or no tax
//   - Create and edit of invoices across an Invoices and an InvoiceItems table
//   - Typed errors for validation, store failures and partial writes
//   - Pluggable document formatters (PDF built in) and lifecycle hooks
//
// # Quick Start
//
// Create a ledger over a store backend:
//
//	import (
//	    "github.com/xraph/freightledger"
//	    "github.com/xraph/freightledger/store/xlsx"
//	)
//
//	s, err := xlsx.Open("invoices.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := ledger.New(s)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Drafts
//
// Invoices are edited as drafts and persisted with Save:
//
//	d := l.NewDraft()
//	d.CustomerName = "Acme Logistics"
//	d.CustomerAddress = "99 Rama IV Rd, Bangkok"
//	d.AddItem("Pallet", "pcs", 10, ledger.THB(3500))
//	d.SetShipping(ledger.THB(10000))
//
//	number, err := l.Save(ctx, d, ledger.ModeCreate) // "INV-0001"
//
// With the default 7% tax the invoice above totals 350.00 + 24.50 + 100.00
// = 474.50.
//
// A stored invoice is reopened with Load and saved again with ModeEdit, or
// copied into a fresh draft with Duplicate.
//
// # Numbering
//
// The next number is derived from the last stored row only, not the
// highest number. If that row's number is malformed the sequence restarts
// at INV-0001 and a warning is logged.
//
// # Consistency
//
// Saves are not transactional. Each store call is independent and nothing
// is rolled back; a failure after the invoice row was written returns a
// *PartialWriteError. The draft is only updated once every write succeeded.
// Enable WithReconcile to re-read the item rows after each save.
//
// All monetary calculations use integer arithmetic. The Money type holds
// amounts in the smallest currency unit (satang for THB).
package ledger
