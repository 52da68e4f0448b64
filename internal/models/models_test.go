package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentsToAmount(t *testing.T) {
	tests := []struct {
		cents string
		want  string
	}{
		{"13500", "135.00"},
		{"1", "0.01"},
		{"0", "0.00"},
		{"-2550", "-25.50"},
	}
	for _, tt := range tests {
		t.Run(tt.cents, func(t *testing.T) {
			got := CentsToAmount(decimal.RequireFromString(tt.cents))
			assert.Equal(t, tt.want, FormatAmount(got))
		})
	}
}

func TestAmountCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 13500, -42} {
		assert.Equal(t, cents, AmountToCents(NewAmountFromCents(cents)))
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("12.5")
	require.NoError(t, err)
	assert.Equal(t, "12.50", FormatAmount(got))

	_, err = ParseAmount("twelve")
	assert.Error(t, err)
}

func TestMinAmount(t *testing.T) {
	a := decimal.RequireFromString("10.10")
	b := decimal.RequireFromString("20.20")
	assert.True(t, MinAmount(a, b).Equal(a))
	assert.True(t, MinAmount(b, a).Equal(a))
}

func TestStatusForPaid(t *testing.T) {
	total := decimal.NewFromInt(100)
	assert.Equal(t, InvoiceApproved, StatusForPaid(total, decimal.Zero))
	assert.Equal(t, InvoicePartial, StatusForPaid(total, decimal.NewFromInt(40)))
	assert.Equal(t, InvoicePaid, StatusForPaid(total, total))
}

func TestInvoiceBalance(t *testing.T) {
	inv := Invoice{Total: decimal.RequireFromString("150.00"), Paid: decimal.RequireFromString("49.99")}
	assert.Equal(t, "100.01", FormatAmount(inv.Balance()))
}

func TestShortNameIsLinked(t *testing.T) {
	acct := "1234"
	empty := ""
	assert.True(t, (&ShortName{State: ShortNameLinked, AccountID: &acct}).IsLinked())
	assert.False(t, (&ShortName{State: ShortNameLinked, AccountID: &empty}).IsLinked())
	assert.False(t, (&ShortName{State: ShortNameUnlinked, AccountID: &acct}).IsLinked())
	assert.False(t, (&ShortName{State: ShortNameGenerated}).IsLinked())
}

func TestEFTFileIsCompleted(t *testing.T) {
	assert.True(t, (&EFTFile{Status: StatusCompleted}).IsCompleted())
	assert.False(t, (&EFTFile{Status: StatusInProgress}).IsCompleted())
}
