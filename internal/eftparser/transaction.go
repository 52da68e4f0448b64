package eftparser

import (
	"time"

	"bcgov/pay-reconciler/internal/fixedwidth"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Transaction is a detail record of a TDI17 file. Money fields are in cents.
type Transaction struct {
	fixedwidth.Line

	RecordType          string
	MinistryCode        string
	ProgramCode         string
	DepositDatetime     *time.Time
	LocationID          string
	TransactionSequence string
	Description         string
	DepositAmount       *decimal.Decimal
	Currency            string
	ExchangeAdjAmount   *decimal.Decimal
	DepositAmountCAD    *decimal.Decimal
	DestBankNumber      string
	BatchNumber         string
	JVType              string
	JVNumber            string
	TransactionDate     *time.Time

	// Short name derived from Description.
	ShortNameKey      string
	ShortNameType     models.ShortNameType
	GenerateShortName bool
}

// NewTransaction parses a detail line. A nil classifier leaves the short name
// fields empty.
func NewTransaction(content string, index int, classifier *Classifier) *Transaction {
	t := &Transaction{Line: fixedwidth.NewLine(content, index)}
	t.process(classifier)
	return t
}

func (t *Transaction) process(classifier *Classifier) {
	if !t.IsValidLength() {
		t.AddError(parsererror.InvalidLineLength)
		return
	}

	t.RecordType = t.ExtractValue(0, 1)
	t.ValidateRecordType(TransactionRecordType)

	t.MinistryCode = t.ExtractValue(1, 3)
	t.ProgramCode = t.ExtractValue(3, 7)

	depositTime := t.ExtractValue(20, 24)
	if depositTime == "" {
		depositTime = "0000"
	}
	t.DepositDatetime = t.ParseDatetime(t.ExtractValue(7, 15)+depositTime, parsererror.InvalidDepositDatetime)
	t.LocationID = t.ExtractValue(15, 20)
	t.TransactionSequence = t.ExtractValue(24, 27)

	t.Description = t.ExtractValue(27, 67)
	if t.Description == "" {
		t.AddError(parsererror.AccountShortnameRequired)
	} else if classifier != nil {
		c := classifier.Classify(t.Description)
		t.ShortNameKey = c.Key
		t.ShortNameType = c.Type
		t.GenerateShortName = c.Generate
	}

	t.DepositAmount = t.ParseDecimal(t.ExtractValue(67, 80), parsererror.InvalidDepositAmount)
	t.Currency = t.ExtractValue(80, 82)
	if t.Currency == "" {
		t.Currency = models.CurrencyCAD
	}
	t.ExchangeAdjAmount = t.ParseDecimal(t.ExtractValue(82, 95), parsererror.InvalidExchangeAdjAmount)
	t.DepositAmountCAD = t.ParseDecimal(t.ExtractValue(95, 108), parsererror.InvalidDepositAmountCAD)
	t.DestBankNumber = t.ExtractValue(108, 112)
	t.BatchNumber = t.ExtractValue(112, 121)
	t.JVType = t.ExtractValue(121, 122)
	t.JVNumber = t.ExtractValue(122, 131)

	if txnDate := t.ExtractValue(131, 139); txnDate != "" {
		t.TransactionDate = t.ParseDate(txnDate, parsererror.InvalidTransactionDate)
	}
}

// CreditAmount returns the CAD deposit as a two place amount, or zero when it
// did not parse.
func (t *Transaction) CreditAmount() decimal.Decimal {
	if t.DepositAmountCAD == nil {
		return decimal.Zero
	}
	return models.CentsToAmount(*t.DepositAmountCAD)
}

// IsIgnored reports whether the description marks a transaction that is not
// reconciled.
func (t *Transaction) IsIgnored() bool {
	return t.ShortNameType == ""
}

// Reconcilable reports whether the line should be credited: it parsed
// cleanly, belongs to the EFT location and is not ignored.
func (t *Transaction) Reconcilable(locationID string) bool {
	return !t.HasErrors() && t.LocationID == locationID && !t.IsIgnored()
}
