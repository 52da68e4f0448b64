// Package fixedwidth models one line of a fixed-width settlement file and the
// coercions shared by every record type. Coercion failures are recorded on the
// line instead of being returned, so a bad field never stops the parse.
package fixedwidth

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"bcgov/pay-reconciler/internal/dateutils"
	"bcgov/pay-reconciler/internal/parsererror"

	"github.com/shopspring/decimal"
)

// LineLength is the width of every TDI17 record.
const LineLength = 140

// Line holds the raw content of a record, its zero-based position in the
// file and the errors found while parsing it. Offsets are counted in
// characters, not bytes.
type Line struct {
	content string
	runes   []rune
	index   int
	errors  []parsererror.ParseError
}

// NewLine creates a Line for content at index. A trailing carriage return is
// dropped.
func NewLine(content string, index int) Line {
	content = strings.TrimSuffix(content, "\r")
	return Line{
		content: content,
		runes:   []rune(content),
		index:   index,
	}
}

// Content returns the raw record text.
func (l *Line) Content() string {
	return l.content
}

// Index returns the zero-based line number.
func (l *Line) Index() int {
	return l.index
}

// Len returns the line length in characters.
func (l *Line) Len() int {
	return len(l.runes)
}

// IsValidLength reports whether the line is exactly LineLength characters.
func (l *Line) IsValidLength() bool {
	return len(l.runes) == LineLength
}

// ExtractValue returns the trimmed characters in [start, end). Out of range
// bounds are clamped.
func (l *Line) ExtractValue(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(l.runes) {
		end = len(l.runes)
	}
	if start >= end {
		return ""
	}
	return strings.TrimSpace(string(l.runes[start:end]))
}

// ValidateRecordType records INVALID_RECORD_TYPE when the first character is
// not expected.
func (l *Line) ValidateRecordType(expected string) bool {
	if l.ExtractValue(0, 1) != expected {
		l.AddError(parsererror.InvalidRecordType)
		return false
	}
	return true
}

// ParseInt converts value to an int, recording kind on failure.
func (l *Line) ParseInt(value string, kind parsererror.ErrorKind) *int {
	if value == "" || !isDigits(value) {
		l.AddError(kind)
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.AddError(kind)
		return nil
	}
	return &n
}

// ParseDecimal converts a signed cents field. A trailing '-' marks a negative
// value; anything but digits before it is rejected.
func (l *Line) ParseDecimal(value string, kind parsererror.ErrorKind) *decimal.Decimal {
	negative := false
	if strings.HasSuffix(value, "-") {
		negative = true
		value = strings.TrimSpace(strings.TrimSuffix(value, "-"))
	}
	if value == "" || !isDigits(value) {
		l.AddError(kind)
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		l.AddError(kind)
		return nil
	}
	if negative {
		d = d.Neg()
	}
	return &d
}

// ParseDate converts a YYYYMMDD value, recording kind on failure.
func (l *Line) ParseDate(value string, kind parsererror.ErrorKind) *time.Time {
	t, err := dateutils.ParseTDI17Date(value)
	if err != nil {
		l.AddError(kind)
		return nil
	}
	return &t
}

// ParseDatetime converts a YYYYMMDDHHMM value, recording kind on failure.
func (l *Line) ParseDatetime(value string, kind parsererror.ErrorKind) *time.Time {
	t, err := dateutils.ParseTDI17Datetime(value)
	if err != nil {
		l.AddError(kind)
		return nil
	}
	return &t
}

// AddError records an error of kind against this line.
func (l *Line) AddError(kind parsererror.ErrorKind) {
	l.errors = append(l.errors, parsererror.NewParseError(kind, l.index))
}

// AddParseError records a prepared error.
func (l *Line) AddParseError(err parsererror.ParseError) {
	l.errors = append(l.errors, err)
}

// Errors returns the recorded errors in the order they were found.
func (l *Line) Errors() []parsererror.ParseError {
	out := make([]parsererror.ParseError, len(l.errors))
	copy(out, l.errors)
	return out
}

// HasErrors reports whether anything was recorded.
func (l *Line) HasErrors() bool {
	return len(l.errors) > 0
}

// ErrorCodes returns the codes of the recorded errors.
func (l *Line) ErrorCodes() []string {
	codes := make([]string, 0, len(l.errors))
	for _, e := range l.errors {
		codes = append(codes, e.Code())
	}
	return codes
}

// ErrorMessages returns the fixed messages of the recorded errors.
func (l *Line) ErrorMessages() []string {
	msgs := make([]string, 0, len(l.errors))
	for _, e := range l.errors {
		msgs = append(msgs, e.Message())
	}
	return msgs
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
