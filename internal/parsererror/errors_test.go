package parsererror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds_FixedCodesAndMessages(t *testing.T) {
	tests := []struct {
		kind    ErrorKind
		code    string
		message string
	}{
		{InvalidLineLength, "INVALID_LINE_LENGTH", "Invalid EFT file line length."},
		{InvalidRecordType, "INVALID_RECORD_TYPE", "Invalid Record Type."},
		{InvalidCreationDatetime, "INVALID_CREATION_DATETIME", "Invalid header creation date time."},
		{InvalidDepositStartDate, "INVALID_DEPOSIT_START_DATE", "Invalid header deposit start date."},
		{InvalidDepositEndDate, "INVALID_DEPOSIT_END_DATE", "Invalid header deposit end date."},
		{InvalidNumberOfDetails, "INVALID_NUMBER_OF_DETAILS", "Invalid trailer number of details value."},
		{InvalidTotalDepositAmount, "INVALID_TOTAL_DEPOSIT_AMOUNT", "Invalid trailer total deposit amount."},
		{InvalidDepositAmount, "INVALID_DEPOSIT_AMOUNT", "Invalid transaction deposit amount."},
		{InvalidExchangeAdjAmount, "INVALID_EXCHANGE_ADJ_AMOUNT", "Invalid transaction exchange adjustment amount."},
		{InvalidDepositAmountCAD, "INVALID_DEPOSIT_AMOUNT_CAD", "Invalid transaction deposit amount CAD."},
		{InvalidTransactionDate, "INVALID_TRANSACTION_DATE", "Invalid transaction date."},
		{InvalidDepositDatetime, "INVALID_DEPOSIT_DATETIME", "Invalid transaction deposit date time."},
		{AccountShortnameRequired, "ACCOUNT_SHORTNAME_REQUIRED", "Account shortname is missing from the transaction description."},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.Code)
			assert.Equal(t, tt.message, tt.kind.Message)
			assert.Equal(t, tt.code, tt.kind.String())
		})
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError(InvalidDepositAmount, 3)
	assert.Equal(t, "INVALID_DEPOSIT_AMOUNT", err.Code())
	assert.Equal(t, "Invalid transaction deposit amount.", err.Message())
	assert.Nil(t, err.FieldIndex)
	assert.Equal(t, "line 3: INVALID_DEPOSIT_AMOUNT: Invalid transaction deposit amount.", err.Error())

	withField := err.WithField(7)
	assert.Nil(t, err.FieldIndex, "WithField must not mutate the receiver")
	if assert.NotNil(t, withField.FieldIndex) {
		assert.Equal(t, 7, *withField.FieldIndex)
	}
	assert.Equal(t, "line 3 field 7: INVALID_DEPOSIT_AMOUNT: Invalid transaction deposit amount.", withField.Error())
}

func TestLineError_Unwrap(t *testing.T) {
	cause := errors.New("invoice locked")
	err := &LineError{FileName: "eft.txt", Line: 2, Err: cause}

	assert.Equal(t, "eft.txt line 2: invoice locked", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsFatal(err))
}

func TestFatalError(t *testing.T) {
	cause := errors.New("bucket unreachable")
	err := Fatal("fetch", cause)

	assert.Equal(t, "fatal error during fetch: bucket unreachable", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsFatal(err))
	assert.True(t, IsFatal(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsFatal(cause))
	assert.False(t, IsFatal(nil))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Subject: "eft.location_id", Reason: "must be set"}
	assert.Equal(t, "validation failed for eft.location_id: must be set", err.Error())
}
