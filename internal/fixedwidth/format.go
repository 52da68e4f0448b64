package fixedwidth

import "strings"

// PadRight left-aligns value in a field of width characters, truncating
// anything longer.
func PadRight(value string, width int) string {
	r := []rune(value)
	if len(r) >= width {
		return string(r[:width])
	}
	return value + strings.Repeat(" ", width-len(r))
}

// PadLeft right-aligns value in a field of width characters using pad.
func PadLeft(value string, width int, pad rune) string {
	r := []rune(value)
	if len(r) >= width {
		return string(r[len(r)-width:])
	}
	return strings.Repeat(string(pad), width-len(r)) + value
}
