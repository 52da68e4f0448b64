// Package dateutils holds the date layouts of the settlement feeds and the
// helpers that parse them.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts of the settlement feeds.
const (
	// LayoutTDI17Date is the YYYYMMDD date used in TDI17 EFT files.
	LayoutTDI17Date = "20060102"
	// LayoutTDI17Datetime is a TDI17 date followed by a HHMM time.
	LayoutTDI17Datetime = "200601021504"
	// LayoutCASDate is the application date of CAS settlement rows (14-Aug-23).
	LayoutCASDate = "02-Jan-06"
	// LayoutISO is used for reports and CLI flags.
	LayoutISO = "2006-01-02"
	// LayoutISODatetime is used for report timestamps.
	LayoutISODatetime = "2006-01-02 15:04:05"
)

// CLIFormats are accepted for dates passed on the command line.
var CLIFormats = []string{
	LayoutISO,
	LayoutTDI17Date,
	LayoutISODatetime,
	"2006/01/02",
}

// ParseTDI17Date parses a YYYYMMDD value.
func ParseTDI17Date(value string) (time.Time, error) {
	return parseExact(LayoutTDI17Date, value)
}

// ParseTDI17Datetime parses a YYYYMMDDHHMM value.
func ParseTDI17Datetime(value string) (time.Time, error) {
	return parseExact(LayoutTDI17Datetime, value)
}

// ParseCASDate parses a CAS application date. Month names are matched
// without regard to case.
func ParseCASDate(value string) (time.Time, error) {
	return parseExact(LayoutCASDate, value)
}

func parseExact(layout, value string) (time.Time, error) {
	cleaned := CleanDateString(value)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date value for layout %s", layout)
	}
	t, err := time.Parse(layout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse %q with layout %s: %w", value, layout, err)
	}
	return t, nil
}

// ParseDate tries each of CLIFormats and returns the first match together
// with the layout used.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	for _, format := range CLIFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// FormatDate formats date with layout, defaulting to LayoutISO.
func FormatDate(date time.Time, layout string) string {
	if layout == "" {
		layout = LayoutISO
	}
	return date.Format(layout)
}

// FormatOptional formats a possibly absent date, returning "" for nil.
func FormatOptional(date *time.Time, layout string) string {
	if date == nil {
		return ""
	}
	return FormatDate(*date, layout)
}

// CleanDateString trims whitespace and collapses inner runs of spaces.
func CleanDateString(dateStr string) string {
	return strings.Join(strings.Fields(dateStr), " ")
}
