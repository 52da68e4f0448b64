// Package parsererror defines the error vocabulary shared by the settlement
// parsers and the reconciliation pipelines.
package parsererror

import (
	"errors"
	"fmt"
)

// ErrorKind is a closed set of error codes, each with a fixed message.
type ErrorKind struct {
	Code    string
	Message string
}

func (k ErrorKind) String() string {
	return k.Code
}

// Field and record level kinds.
var (
	InvalidLineLength         = ErrorKind{"INVALID_LINE_LENGTH", "Invalid EFT file line length."}
	InvalidRecordType         = ErrorKind{"INVALID_RECORD_TYPE", "Invalid Record Type."}
	InvalidCreationDatetime   = ErrorKind{"INVALID_CREATION_DATETIME", "Invalid header creation date time."}
	InvalidDepositStartDate   = ErrorKind{"INVALID_DEPOSIT_START_DATE", "Invalid header deposit start date."}
	InvalidDepositEndDate     = ErrorKind{"INVALID_DEPOSIT_END_DATE", "Invalid header deposit end date."}
	InvalidNumberOfDetails    = ErrorKind{"INVALID_NUMBER_OF_DETAILS", "Invalid trailer number of details value."}
	InvalidTotalDepositAmount = ErrorKind{"INVALID_TOTAL_DEPOSIT_AMOUNT", "Invalid trailer total deposit amount."}
	InvalidDepositAmount      = ErrorKind{"INVALID_DEPOSIT_AMOUNT", "Invalid transaction deposit amount."}
	InvalidExchangeAdjAmount  = ErrorKind{"INVALID_EXCHANGE_ADJ_AMOUNT", "Invalid transaction exchange adjustment amount."}
	InvalidDepositAmountCAD   = ErrorKind{"INVALID_DEPOSIT_AMOUNT_CAD", "Invalid transaction deposit amount CAD."}
	InvalidTransactionDate    = ErrorKind{"INVALID_TRANSACTION_DATE", "Invalid transaction date."}
	InvalidDepositDatetime    = ErrorKind{"INVALID_DEPOSIT_DATETIME", "Invalid transaction deposit date time."}
	AccountShortnameRequired  = ErrorKind{"ACCOUNT_SHORTNAME_REQUIRED", "Account shortname is missing from the transaction description."}
)

// File structure kinds.
var (
	EmptyFile            = ErrorKind{"EMPTY_FILE", "File contains no records."}
	MissingHeader        = ErrorKind{"MISSING_HEADER", "File does not start with a header record."}
	MissingTrailer       = ErrorKind{"MISSING_TRAILER", "File does not end with a trailer record."}
	UnexpectedRecord     = ErrorKind{"UNEXPECTED_RECORD", "Record between header and trailer is not a transaction record."}
	TrailerCountMismatch = ErrorKind{"TRAILER_COUNT_MISMATCH", "Trailer number of details does not match transaction count."}
	TrailerTotalMismatch = ErrorKind{"TRAILER_TOTAL_MISMATCH", "Trailer total deposit amount does not match transaction total."}
)

// ParseError is a recorded, non-fatal problem with one line or the file.
// FieldIndex is optional and points at the offending field or line.
type ParseError struct {
	Kind       ErrorKind
	Index      int
	FieldIndex *int
}

// NewParseError builds a ParseError for the line at index.
func NewParseError(kind ErrorKind, index int) ParseError {
	return ParseError{Kind: kind, Index: index}
}

// WithField returns a copy pointing at a field index.
func (e ParseError) WithField(field int) ParseError {
	e.FieldIndex = &field
	return e
}

// Code returns the stable code of the error kind.
func (e ParseError) Code() string {
	return e.Kind.Code
}

// Message returns the fixed message of the error kind.
func (e ParseError) Message() string {
	return e.Kind.Message
}

func (e ParseError) Error() string {
	if e.FieldIndex != nil {
		return fmt.Sprintf("line %d field %d: %s: %s", e.Index, *e.FieldIndex, e.Kind.Code, e.Kind.Message)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Index, e.Kind.Code, e.Kind.Message)
}

// LineError is raised while applying a single transaction line. The line is
// rolled back and the rest of the file carries on.
type LineError struct {
	FileName string
	Line     int
	Err      error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.FileName, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// FatalError aborts processing of a whole message. Nothing it touched is kept.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal error during %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a FatalError for the given operation.
func Fatal(op string, err error) error {
	return &FatalError{Op: op, Err: err}
}

// IsFatal reports whether err or anything it wraps is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// ValidationError represents an invalid message payload or configuration.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}
