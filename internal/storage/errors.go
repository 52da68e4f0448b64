package storage

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrEmptyString is returned for a required string parameter left empty.
	ErrEmptyString = errors.New("string parameter cannot be empty")
	// ErrNilParameter is returned for a required pointer parameter left nil.
	ErrNilParameter = errors.New("parameter cannot be nil")
	// ErrInvalidParameter is returned for a malformed parameter value.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrOverpayment is returned when a payment exceeds an invoice balance.
	ErrOverpayment = errors.New("amount exceeds invoice balance")
)
