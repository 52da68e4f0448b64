package eftparser

import (
	"time"

	"bcgov/pay-reconciler/internal/fixedwidth"
	"bcgov/pay-reconciler/internal/parsererror"
)

// Record type discriminants found at position 0.
const (
	HeaderRecordType      = "1"
	TransactionRecordType = "2"
	TrailerRecordType     = "7"
)

// Header is the first record of a TDI17 file.
type Header struct {
	fixedwidth.Line

	RecordType       string
	CreationDatetime *time.Time
	DepositStartDate *time.Time
	DepositEndDate   *time.Time
}

// NewHeader parses a header line. It never fails; problems are recorded on
// the returned record.
func NewHeader(content string, index int) *Header {
	h := &Header{Line: fixedwidth.NewLine(content, index)}
	h.process()
	return h
}

func (h *Header) process() {
	if !h.IsValidLength() {
		h.AddError(parsererror.InvalidLineLength)
		return
	}

	h.RecordType = h.ExtractValue(0, 1)
	h.ValidateRecordType(HeaderRecordType)

	// Creation date and time sit in separate columns.
	creation := h.ExtractValue(16, 24) + h.ExtractValue(41, 45)
	h.CreationDatetime = h.ParseDatetime(creation, parsererror.InvalidCreationDatetime)
	h.DepositStartDate = h.ParseDate(h.ExtractValue(69, 77), parsererror.InvalidDepositStartDate)
	h.DepositEndDate = h.ParseDate(h.ExtractValue(89, 97), parsererror.InvalidDepositEndDate)
}
