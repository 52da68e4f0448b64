// Package eftparser reads TDI17 EFT deposit files: one header record, zero or
// more transaction records and one trailer record, each exactly 140
// characters wide.
package eftparser

import (
	"bytes"
	"strings"

	"bcgov/pay-reconciler/internal/fixedwidth"
	"bcgov/pay-reconciler/internal/parsererror"

	"github.com/shopspring/decimal"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// File is a parsed TDI17 file. Errors holds file level problems; each record
// keeps its own line errors.
type File struct {
	Header       *Header
	Transactions []*Transaction
	Trailer      *Trailer
	Errors       []parsererror.ParseError
}

// SplitLines decodes content into lines, dropping a byte order mark and a
// trailing empty line.
func SplitLines(content []byte) []string {
	content = bytes.TrimPrefix(content, utf8BOM)
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// ParseFile parses and validates a TDI17 file. The first line is read as the
// header, the last as the trailer and everything between as transactions.
func ParseFile(content []byte, classifier *Classifier) *File {
	lines := SplitLines(content)
	f := &File{}

	for i, line := range lines {
		switch {
		case i == 0:
			f.Header = NewHeader(line, i)
		case i == len(lines)-1:
			f.Trailer = NewTrailer(line, i)
		default:
			f.Transactions = append(f.Transactions, NewTransaction(line, i, classifier))
		}
	}

	f.Validate()
	return f
}

// Validate checks the file structure and the trailer totals, replacing any
// previously recorded file errors.
func (f *File) Validate() {
	f.Errors = nil

	if f.Header == nil && f.Trailer == nil && len(f.Transactions) == 0 {
		f.addError(parsererror.EmptyFile, 0)
		return
	}

	if f.Header == nil || recordType(&f.Header.Line) != HeaderRecordType {
		f.addError(parsererror.MissingHeader, 0)
	}

	hasTrailer := f.Trailer != nil && recordType(&f.Trailer.Line) == TrailerRecordType
	if !hasTrailer {
		f.addError(parsererror.MissingTrailer, len(f.Transactions)+1)
	}

	for _, t := range f.Transactions {
		if recordType(&t.Line) != TransactionRecordType {
			f.Errors = append(f.Errors, parsererror.NewParseError(parsererror.UnexpectedRecord, t.Index()).WithField(t.Index()))
		}
	}

	// Totals are meaningless without a real trailer.
	if !hasTrailer {
		return
	}

	if f.Trailer.NumberOfDetails != nil && *f.Trailer.NumberOfDetails != len(f.Transactions) {
		f.addError(parsererror.TrailerCountMismatch, f.Trailer.Index())
	}

	if f.Trailer.TotalDepositAmount != nil {
		if total, ok := f.transactionTotal(); ok && !total.Equal(*f.Trailer.TotalDepositAmount) {
			f.addError(parsererror.TrailerTotalMismatch, f.Trailer.Index())
		}
	}
}

// transactionTotal sums transaction deposit amounts in cents. ok is false
// when any amount is missing; those lines already carry their own error.
func (f *File) transactionTotal() (decimal.Decimal, bool) {
	total := decimal.Zero
	for _, t := range f.Transactions {
		if t.DepositAmount == nil {
			return decimal.Zero, false
		}
		total = total.Add(*t.DepositAmount)
	}
	return total, true
}

func (f *File) addError(kind parsererror.ErrorKind, index int) {
	f.Errors = append(f.Errors, parsererror.NewParseError(kind, index))
}

// recordType reads the discriminant without trusting the parsed field, which
// is left empty for lines of the wrong length.
func recordType(l *fixedwidth.Line) string {
	return l.ExtractValue(0, 1)
}

// LineErrors returns every line error in file order.
func (f *File) LineErrors() []parsererror.ParseError {
	var errs []parsererror.ParseError
	if f.Header != nil {
		errs = append(errs, f.Header.Errors()...)
	}
	for _, t := range f.Transactions {
		errs = append(errs, t.Errors()...)
	}
	if f.Trailer != nil {
		errs = append(errs, f.Trailer.Errors()...)
	}
	return errs
}

// HasFileErrors reports whether any structural error was found.
func (f *File) HasFileErrors() bool {
	return len(f.Errors) > 0
}

// HasErrors reports whether any file or line error exists.
func (f *File) HasErrors() bool {
	return f.HasFileErrors() || len(f.LineErrors()) > 0
}

// CanComplete reports whether the file may be marked completed. Application
// failures are tracked by the caller and must be checked separately.
func (f *File) CanComplete() bool {
	return !f.HasErrors()
}

// ErrorMessages returns file errors followed by line errors, formatted with
// their position.
func (f *File) ErrorMessages() []string {
	var msgs []string
	for _, e := range f.Errors {
		msgs = append(msgs, e.Error())
	}
	for _, e := range f.LineErrors() {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
