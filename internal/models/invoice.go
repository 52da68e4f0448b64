package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the slice of an issued invoice that reconciliation reads and
// updates.
type Invoice struct {
	ID                 int64           `json:"id" yaml:"id"`
	PaymentAccountID   string          `json:"payment_account_id" yaml:"payment_account_id"`
	BusinessIdentifier string          `json:"business_identifier" yaml:"business_identifier"`
	InvoiceNumber      string          `json:"invoice_number" yaml:"invoice_number"`
	Total              decimal.Decimal `json:"total" yaml:"total"`
	Paid               decimal.Decimal `json:"paid" yaml:"paid"`
	Status             InvoiceStatus   `json:"status" yaml:"status"`
	DueDate            time.Time       `json:"due_date" yaml:"due_date"`
}

// Balance returns the amount still owing.
func (i *Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.Paid)
}

// StatusForPaid derives the invoice status once paid reaches the given value.
func StatusForPaid(total, paid decimal.Decimal) InvoiceStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return InvoicePaid
	case paid.IsPositive():
		return InvoicePartial
	default:
		return InvoiceApproved
	}
}

// CasSettlement marks a CAS settlement file as received so it is processed once.
type CasSettlement struct {
	ID          int64      `json:"id" yaml:"id"`
	FileName    string     `json:"file_name" yaml:"file_name"`
	ReceivedOn  time.Time  `json:"received_on" yaml:"received_on"`
	ProcessedOn *time.Time `json:"processed_on,omitempty" yaml:"processed_on,omitempty"`
}

// Payment is a receipt recorded from a CAS settlement file.
type Payment struct {
	ID            int64           `json:"id" yaml:"id"`
	ReceiptNumber string          `json:"receipt_number" yaml:"receipt_number"`
	PaymentMethod string          `json:"payment_method" yaml:"payment_method"`
	PaidAmount    decimal.Decimal `json:"paid_amount" yaml:"paid_amount"`
	InvoiceNumber string          `json:"invoice_number" yaml:"invoice_number"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty" yaml:"payment_date,omitempty"`
	Status        PaymentStatus   `json:"status" yaml:"status"`
}
