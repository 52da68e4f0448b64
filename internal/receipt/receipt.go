// Package receipt computes how much of a settlement receipt was applied to
// invoices.
package receipt

import (
	"github.com/shopspring/decimal"
)

// MethodOnlineBanking is the receipt method used by online banking payments.
// Those receipts may arrive with no invoice applications at all.
const MethodOnlineBanking = "Online Banking Payments"

// MethodPAD is the receipt method used by pre-authorized debits.
const MethodPAD = "BCR-PAD Daily"

// fullAmountMethods credit the whole receipt when no application is listed.
var fullAmountMethods = map[string]bool{
	MethodOnlineBanking: true,
}

// InvoiceApplication is one invoice line of a receipt.
type InvoiceApplication struct {
	InvoiceNumber string
	AmountApplied decimal.Decimal
}

// Receipt is the reconciliation view of a settlement receipt.
type Receipt struct {
	Number          string
	ReceiptAmount   decimal.Decimal
	ReceiptMethod   string
	UnappliedAmount decimal.Decimal
	Invoices        []InvoiceApplication
}

// AppliedAmount returns the amount of the receipt applied to invoices. A
// receipt with an unapplied balance counts as nothing applied.
func AppliedAmount(r Receipt) decimal.Decimal {
	if r.UnappliedAmount.IsPositive() {
		return decimal.Zero
	}
	if fullAmountMethods[r.ReceiptMethod] && len(r.Invoices) == 0 {
		return r.ReceiptAmount
	}

	total := decimal.Zero
	for _, inv := range r.Invoices {
		total = total.Add(inv.AmountApplied)
	}
	return total
}
