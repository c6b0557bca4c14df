package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/freightledger/store"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("ledger: invalid input")

	// Invoice errors
	ErrInvoiceNotFound   = errors.New("ledger: invoice not found")
	ErrDraftNumbered     = errors.New("ledger: draft already has an invoice number")
	ErrDraftUnnumbered   = errors.New("ledger: draft has no invoice number")
	ErrFormatterNotFound = errors.New("ledger: formatter not found")

	// Store errors
	ErrStoreUnavailable  = errors.New("ledger: store unavailable")
	ErrStoreClosed       = errors.New("ledger: store is closed")
	ErrPartialWrite      = errors.New("ledger: partial write")
	ErrReconcileMismatch = errors.New("ledger: reconciliation mismatch")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "ledger: no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("ledger: %d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is / errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// StoreUnavailableError wraps a failed store call.
type StoreUnavailableError struct {
	Op    string
	Table store.Table
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("ledger: store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrStoreUnavailable, and ErrStoreClosed when the backend was closed.
func (e *StoreUnavailableError) Is(target error) bool {
	if target == ErrStoreUnavailable {
		return true
	}
	return target == ErrStoreClosed && errors.Is(e.Err, store.ErrClosed)
}

// Save phases reported by PartialWriteError.
const (
	PhaseUpdateInvoice = "update_invoice"
	PhaseDeleteItems   = "delete_items"
	PhaseAppendItems   = "append_items"
)

// PartialWriteError reports a save that failed after the invoice row was
// written. The store may hold the invoice row without all of its items.
type PartialWriteError struct {
	Number string
	Phase  string
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("ledger: partial write of %s during %s: %v", e.Number, e.Phase, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// Is matches ErrPartialWrite.
func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

// ReconcileError reports a post-save re-read that found a different number
// of item rows than were written.
type ReconcileError struct {
	Number   string
	Expected int
	Found    int
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("ledger: reconcile %s: expected %d item rows, found %d", e.Number, e.Expected, e.Found)
}

// Is matches ErrReconcileMismatch.
func (e *ReconcileError) Is(target error) bool {
	return target == ErrReconcileMismatch
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrFormatterNotFound)
}

// IsValidation returns true if the draft was rejected before any store call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDraftNumbered) ||
		errors.Is(err, ErrDraftUnnumbered)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
// Partial writes are not: retrying a create would assign a second number.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) &&
		!errors.Is(err, ErrPartialWrite) &&
		!errors.Is(err, ErrStoreClosed)
}
