package models

// Currency codes carried on settlement records.
const (
	CurrencyCAD = "CAD"
	CurrencyUSD = "US"
)

// ProcessStatus tracks an EFT file or one of its lines through reconciliation.
type ProcessStatus string

const (
	StatusInProgress ProcessStatus = "IN_PROGRESS"
	StatusCompleted  ProcessStatus = "COMPLETED"
	StatusFailed     ProcessStatus = "FAILED"
	StatusSkipped    ProcessStatus = "SKIPPED"
)

// LineType identifies the record kind of a persisted EFT line.
type LineType string

const (
	LineTypeHeader      LineType = "HEADER"
	LineTypeTransaction LineType = "TRANSACTION"
	LineTypeTrailer     LineType = "TRAILER"
)

// ShortNameType is the channel a payer's funds arrived through.
type ShortNameType string

const (
	ShortNameTypeEFT  ShortNameType = "EFT"
	ShortNameTypeWire ShortNameType = "WIRE"
)

// ShortNameState records how far a short name has been matched to an account.
type ShortNameState string

const (
	ShortNameUnlinked  ShortNameState = "UNLINKED"
	ShortNameLinked    ShortNameState = "LINKED"
	ShortNameGenerated ShortNameState = "GENERATED"
)

// CreditLinkStatus is the GL posting state of a credit applied to an invoice.
type CreditLinkStatus string

const (
	CreditLinkPending   CreditLinkStatus = "PENDING"
	CreditLinkCompleted CreditLinkStatus = "COMPLETED"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceApproved InvoiceStatus = "APPROVED"
	InvoicePartial  InvoiceStatus = "PARTIAL"
	InvoicePaid     InvoiceStatus = "PAID"
)

// PaymentStatus is the state of a payment recorded from a CAS receipt.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentFailed    PaymentStatus = "FAILED"
)

// File permissions
const (
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
