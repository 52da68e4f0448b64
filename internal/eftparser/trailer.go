package eftparser

import (
	"bcgov/pay-reconciler/internal/fixedwidth"
	"bcgov/pay-reconciler/internal/parsererror"

	"github.com/shopspring/decimal"
)

// Trailer is the last record of a TDI17 file. TotalDepositAmount is in cents.
type Trailer struct {
	fixedwidth.Line

	RecordType         string
	NumberOfDetails    *int
	TotalDepositAmount *decimal.Decimal
}

// NewTrailer parses a trailer line.
func NewTrailer(content string, index int) *Trailer {
	t := &Trailer{Line: fixedwidth.NewLine(content, index)}
	t.process()
	return t
}

func (t *Trailer) process() {
	if !t.IsValidLength() {
		t.AddError(parsererror.InvalidLineLength)
		return
	}

	t.RecordType = t.ExtractValue(0, 1)
	t.ValidateRecordType(TrailerRecordType)

	t.NumberOfDetails = t.ParseInt(t.ExtractValue(1, 7), parsererror.InvalidNumberOfDetails)
	t.TotalDepositAmount = t.ParseDecimal(t.ExtractValue(7, 21), parsererror.InvalidTotalDepositAmount)
}
