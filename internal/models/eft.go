package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EFTFile is one received TDI17 file. A file is identified by its reference
// (the blob name) and is never deleted.
type EFTFile struct {
	ID               int64         `json:"id" yaml:"id" csv:"id"`
	FileRef          string        `json:"file_ref" yaml:"file_ref" csv:"file_ref"`
	Status           ProcessStatus `json:"status" yaml:"status" csv:"status"`
	CreatedOn        time.Time     `json:"created_on" yaml:"created_on" csv:"-"`
	CompletedOn      *time.Time    `json:"completed_on,omitempty" yaml:"completed_on,omitempty" csv:"-"`
	FileCreationDate *time.Time    `json:"file_creation_date,omitempty" yaml:"file_creation_date,omitempty" csv:"-"`
	DepositFromDate  *time.Time    `json:"deposit_from_date,omitempty" yaml:"deposit_from_date,omitempty" csv:"-"`
	DepositToDate    *time.Time    `json:"deposit_to_date,omitempty" yaml:"deposit_to_date,omitempty" csv:"-"`
	NumberOfDetails  *int          `json:"number_of_details,omitempty" yaml:"number_of_details,omitempty" csv:"-"`
	TotalDeposit     *int64        `json:"total_deposit_cents,omitempty" yaml:"total_deposit_cents,omitempty" csv:"-"`
	ErrorMessages    []string      `json:"error_messages,omitempty" yaml:"error_messages,omitempty" csv:"-"`
}

// IsCompleted reports whether the file has been fully reconciled.
func (f *EFTFile) IsCompleted() bool {
	return f.Status == StatusCompleted
}

// EFTTransactionLine is the persisted outcome of one parsed line. The
// (file, line type, line number) triple is unique so replays reuse the row.
type EFTTransactionLine struct {
	ID                 int64            `json:"id" yaml:"id"`
	FileID             int64            `json:"file_id" yaml:"file_id"`
	LineType           LineType         `json:"line_type" yaml:"line_type"`
	LineNumber         int              `json:"line_number" yaml:"line_number"`
	Status             ProcessStatus    `json:"status" yaml:"status"`
	ShortNameID        *int64           `json:"short_name_id,omitempty" yaml:"short_name_id,omitempty"`
	DepositDate        *time.Time       `json:"deposit_date,omitempty" yaml:"deposit_date,omitempty"`
	TransactionDate    *time.Time       `json:"transaction_date,omitempty" yaml:"transaction_date,omitempty"`
	DepositAmountCents *decimal.Decimal `json:"deposit_amount_cents,omitempty" yaml:"deposit_amount_cents,omitempty"`
	ErrorMessages      []string         `json:"error_messages,omitempty" yaml:"error_messages,omitempty"`
}

// ShortName maps a payer key taken from a transaction description to an
// account. SourceKey is the description it was derived from and, with Type,
// is unique.
type ShortName struct {
	ID        int64          `json:"id" yaml:"id" csv:"id"`
	ShortName string         `json:"short_name" yaml:"short_name" csv:"short_name"`
	SourceKey string         `json:"source_key" yaml:"source_key" csv:"source_key"`
	Type      ShortNameType  `json:"type" yaml:"type" csv:"type"`
	State     ShortNameState `json:"state" yaml:"state" csv:"state"`
	AccountID *string        `json:"account_id,omitempty" yaml:"account_id,omitempty" csv:"-"`
	CreatedOn time.Time      `json:"created_on" yaml:"created_on" csv:"-"`
}

// IsLinked reports whether the short name resolves to an account.
func (s *ShortName) IsLinked() bool {
	return s.State == ShortNameLinked && s.AccountID != nil && *s.AccountID != ""
}

// EFTCredit is money received for a short name from one transaction line.
// 0 <= RemainingAmount <= Amount always holds.
type EFTCredit struct {
	ID               int64           `json:"id" yaml:"id"`
	Amount           decimal.Decimal `json:"amount" yaml:"amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount" yaml:"remaining_amount"`
	ShortNameID      int64           `json:"short_name_id" yaml:"short_name_id"`
	EFTFileID        int64           `json:"eft_file_id" yaml:"eft_file_id"`
	EFTTransactionID int64           `json:"eft_transaction_id" yaml:"eft_transaction_id"`
	CreatedOn        time.Time       `json:"created_on" yaml:"created_on"`
}

// EFTCreditInvoiceLink records an amount of a credit applied to an invoice.
type EFTCreditInvoiceLink struct {
	ID            int64            `json:"id" yaml:"id"`
	EFTCreditID   int64            `json:"eft_credit_id" yaml:"eft_credit_id"`
	InvoiceID     int64            `json:"invoice_id" yaml:"invoice_id"`
	AmountApplied decimal.Decimal  `json:"amount_applied" yaml:"amount_applied"`
	Status        CreditLinkStatus `json:"status" yaml:"status"`
	LinkGroupID   string           `json:"link_group_id" yaml:"link_group_id"`
	CreatedOn     time.Time        `json:"created_on" yaml:"created_on"`
}
