// Package testutil builds fixtures shared by package tests.
package testutil

import (
	"strconv"
	"strings"

	"bcgov/pay-reconciler/internal/eftparser"
	"bcgov/pay-reconciler/internal/fixedwidth"
)

// HeaderFields are the raw column values of a TDI17 header record.
type HeaderFields struct {
	RecordType       string
	CreationDate     string
	CreationTime     string
	DepositStartDate string
	DepositEndDate   string
}

// TransactionFields are the raw column values of a detail record. Amounts are
// cents digits, optionally ending in '-'.
type TransactionFields struct {
	RecordType          string
	MinistryCode        string
	ProgramCode         string
	DepositDate         string
	LocationID          string
	DepositTime         string
	TransactionSequence string
	Description         string
	DepositAmount       string
	Currency            string
	ExchangeAdjAmount   string
	DepositAmountCAD    string
	DestBankNumber      string
	BatchNumber         string
	JVType              string
	JVNumber            string
	TransactionDate     string
}

// TrailerFields are the raw column values of a trailer record.
type TrailerFields struct {
	RecordType         string
	NumberOfDetails    int
	TotalDepositAmount string
}

// EncodeHeader renders a header record padded to the line length.
func EncodeHeader(h HeaderFields) string {
	rt := orDefault(h.RecordType, eftparser.HeaderRecordType)
	line := rt +
		"CREATION DATE: " + fixedwidth.PadRight(h.CreationDate, 8) +
		"CREATION TIME:   " + fixedwidth.PadRight(h.CreationTime, 4) +
		"DEPOSIT DATE(S) FROM:   " + fixedwidth.PadRight(h.DepositStartDate, 8) +
		" TO DATE :  " + fixedwidth.PadRight(h.DepositEndDate, 8)
	return fixedwidth.PadRight(line, fixedwidth.LineLength)
}

// EncodeTransaction renders a detail record padded to the line length.
func EncodeTransaction(t TransactionFields) string {
	var b strings.Builder
	b.WriteString(fixedwidth.PadRight(orDefault(t.RecordType, eftparser.TransactionRecordType), 1))
	b.WriteString(fixedwidth.PadRight(t.MinistryCode, 2))
	b.WriteString(fixedwidth.PadRight(t.ProgramCode, 4))
	b.WriteString(fixedwidth.PadRight(t.DepositDate, 8))
	b.WriteString(fixedwidth.PadRight(t.LocationID, 5))
	b.WriteString(fixedwidth.PadRight(t.DepositTime, 4))
	b.WriteString(fixedwidth.PadRight(t.TransactionSequence, 3))
	b.WriteString(fixedwidth.PadRight(t.Description, 40))
	b.WriteString(moneyField(t.DepositAmount, 13))
	b.WriteString(fixedwidth.PadRight(t.Currency, 2))
	b.WriteString(moneyField(t.ExchangeAdjAmount, 13))
	b.WriteString(moneyField(t.DepositAmountCAD, 13))
	b.WriteString(fixedwidth.PadRight(t.DestBankNumber, 4))
	b.WriteString(fixedwidth.PadRight(t.BatchNumber, 9))
	b.WriteString(fixedwidth.PadRight(t.JVType, 1))
	b.WriteString(fixedwidth.PadRight(t.JVNumber, 9))
	b.WriteString(fixedwidth.PadRight(t.TransactionDate, 8))
	return fixedwidth.PadRight(b.String(), fixedwidth.LineLength)
}

// EncodeTrailer renders a trailer record padded to the line length.
func EncodeTrailer(t TrailerFields) string {
	line := orDefault(t.RecordType, eftparser.TrailerRecordType) +
		fixedwidth.PadLeft(strconv.Itoa(t.NumberOfDetails), 6, '0') +
		moneyField(t.TotalDepositAmount, 14)
	return fixedwidth.PadRight(line, fixedwidth.LineLength)
}

// EncodeFile joins a header, detail records and a trailer into file content.
func EncodeFile(h HeaderFields, txns []TransactionFields, t TrailerFields) []byte {
	lines := make([]string, 0, len(txns)+2)
	lines = append(lines, EncodeHeader(h))
	for _, txn := range txns {
		lines = append(lines, EncodeTransaction(txn))
	}
	lines = append(lines, EncodeTrailer(t))
	return []byte(strings.Join(lines, "\n") + "\n")
}

// moneyField appends the sign column when missing and zero fills to width.
func moneyField(value string, width int) string {
	if !strings.HasSuffix(value, "-") {
		value += " "
	}
	return fixedwidth.PadLeft(value, width, '0')
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
