package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstants(t *testing.T) {
	fields := []string{
		FieldFileName, FieldLocation, FieldFileID, FieldLine, FieldTransactionID,
		FieldShortName, FieldShortNameID, FieldAccountID, FieldInvoiceID, FieldCreditID,
		FieldAmount, FieldMessageType, FieldMessageID, FieldStatus, FieldOperation,
		FieldCount, FieldDuration, FieldError,
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		assert.NotEmpty(t, f)
		assert.False(t, seen[f], "duplicate field name %q", f)
		seen[f] = true
	}
}
