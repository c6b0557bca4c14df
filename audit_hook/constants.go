package audithook

// Action constants for audit events.
const (
	// Invoice actions
	ActionInvoiceCreated    = "invoice.created"
	ActionInvoiceUpdated    = "invoice.updated"
	ActionInvoiceSaveFailed = "invoice.save_failed"
	ActionInvoiceRendered   = "invoice.rendered"

	// Numbering actions
	ActionNumberReset = "number.reset"

	// Store actions
	ActionReconcileMismatch = "store.reconcile_mismatch"
)

// Resource constants for audit events.
const (
	ResourceInvoice  = "invoice"
	ResourceSequence = "invoice_sequence"
	ResourceStore    = "store"
)

// Category constants for audit events.
const (
	CategoryBilling     = "billing"
	CategoryDocument    = "document"
	CategoryConsistency = "consistency"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
