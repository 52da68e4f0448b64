package eftparser_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"bcgov/pay-reconciler/internal/eftparser"
	"bcgov/pay-reconciler/internal/fixedwidth"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/parsererror"
	"bcgov/pay-reconciler/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassifier() *eftparser.Classifier {
	return eftparser.NewClassifier(eftparser.Patterns{
		EFT:      []string{"MISC PAYMENT"},
		Wire:     []string{"FUNDS TRANSFER CR TT"},
		Generate: []string{"FEDERAL PAYMENT CANADA"},
		Ignore:   []string{"PAD"},
	})
}

func baseRecord() testutil.TransactionFields {
	return testutil.TransactionFields{
		MinistryCode:        "AT",
		ProgramCode:         "0146",
		DepositDate:         "20230810",
		DepositTime:         "0000",
		LocationID:          "85004",
		TransactionSequence: "001",
		Description:         "MISC PAYMENT EFTSN1",
		DepositAmount:       "13500",
		ExchangeAdjAmount:   "0",
		DepositAmountCAD:    "13500",
		DestBankNumber:      "0003",
		BatchNumber:         "002400986",
		JVType:              "I",
		JVNumber:            "002425669",
	}
}

func codes(errs []parsererror.ParseError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code())
	}
	return out
}

func TestParseHeader(t *testing.T) {
	content := testutil.EncodeHeader(testutil.HeaderFields{
		CreationDate:     "20230814",
		CreationTime:     "1601",
		DepositStartDate: "20230810",
		DepositEndDate:   "20230810",
	})
	require.Len(t, content, 140)

	h := eftparser.NewHeader(content, 0)

	assert.False(t, h.HasErrors())
	assert.Equal(t, 0, h.Index())
	assert.Equal(t, "1", h.RecordType)
	require.NotNil(t, h.CreationDatetime)
	assert.Equal(t, time.Date(2023, 8, 14, 16, 1, 0, 0, time.UTC), *h.CreationDatetime)
	assert.Equal(t, time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC), *h.DepositStartDate)
	assert.Equal(t, time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC), *h.DepositEndDate)
}

func TestParseHeader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "invalid length stops parsing",
			content: " ",
			want:    []string{"INVALID_LINE_LENGTH"},
		},
		{
			name: "invalid record type",
			content: testutil.EncodeHeader(testutil.HeaderFields{
				RecordType: "X", CreationDate: "20230814", CreationTime: "1601",
				DepositStartDate: "20230810", DepositEndDate: "20230810",
			}),
			want: []string{"INVALID_RECORD_TYPE"},
		},
		{
			name: "invalid dates in field order",
			content: testutil.EncodeHeader(testutil.HeaderFields{
				CreationDate: "2023081_", CreationTime: "160 ",
				DepositStartDate: "20230850", DepositEndDate: "202308AB",
			}),
			want: []string{"INVALID_CREATION_DATETIME", "INVALID_DEPOSIT_START_DATE", "INVALID_DEPOSIT_END_DATE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := eftparser.NewHeader(tt.content, 0)
			assert.Equal(t, tt.want, codes(h.Errors()))
			for _, e := range h.Errors() {
				assert.Equal(t, 0, e.Index)
			}
		})
	}
}

func TestParseTrailer(t *testing.T) {
	tr := eftparser.NewTrailer(testutil.EncodeTrailer(testutil.TrailerFields{NumberOfDetails: 5, TotalDepositAmount: "3733750"}), 1)

	assert.False(t, tr.HasErrors())
	assert.Equal(t, 1, tr.Index())
	assert.Equal(t, "7", tr.RecordType)
	require.NotNil(t, tr.NumberOfDetails)
	assert.Equal(t, 5, *tr.NumberOfDetails)
	require.NotNil(t, tr.TotalDepositAmount)
	assert.Equal(t, int64(3733750), tr.TotalDepositAmount.IntPart())
}

func TestParseTrailer_Errors(t *testing.T) {
	badNumbers := fixedwidth.PadRight("7"+"00000B"+"0000003733A50 ", fixedwidth.LineLength)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"invalid length", " ", []string{"INVALID_LINE_LENGTH"}},
		{
			"invalid record type",
			testutil.EncodeTrailer(testutil.TrailerFields{RecordType: "X", NumberOfDetails: 5, TotalDepositAmount: "3733750"}),
			[]string{"INVALID_RECORD_TYPE"},
		},
		{"invalid numbers", badNumbers, []string{"INVALID_NUMBER_OF_DETAILS", "INVALID_TOTAL_DEPOSIT_AMOUNT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := eftparser.NewTrailer(tt.content, 1)
			assert.Equal(t, tt.want, codes(tr.Errors()))
			for _, e := range tr.Errors() {
				assert.Equal(t, 1, e.Index)
			}
		})
	}
}

func TestParseTransaction_Classification(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantType    models.ShortNameType
		wantKey     string
		wantGen     bool
	}{
		{"eft", "MISC PAYMENT EFTSN1", models.ShortNameTypeEFT, "EFTSN1", false},
		{"wire", "FUNDS TRANSFER CR TT WIRESN1", models.ShortNameTypeWire, "WIRESN1", false},
		{"federal payment", "FEDERAL PAYMENT CANADA", models.ShortNameTypeEFT, "FEDERAL PAYMENT CANADA", true},
		{"pad ignored", "PAD", "", "PAD", false},
		{"unregistered payer", "ABC 123", models.ShortNameTypeEFT, "ABC 123", false},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := baseRecord()
			fields.Description = tt.description
			rec := eftparser.NewTransaction(testutil.EncodeTransaction(fields), i+1, testClassifier())

			require.False(t, rec.HasErrors(), "errors: %v", rec.ErrorCodes())
			assert.Equal(t, i+1, rec.Index())
			assert.Equal(t, "2", rec.RecordType)
			assert.Equal(t, "AT", rec.MinistryCode)
			assert.Equal(t, "0146", rec.ProgramCode)
			assert.Equal(t, time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC), *rec.DepositDatetime)
			assert.Equal(t, "85004", rec.LocationID)
			assert.Equal(t, "001", rec.TransactionSequence)
			assert.Equal(t, tt.description, rec.Description)
			assert.Equal(t, int64(13500), rec.DepositAmount.IntPart())
			assert.Equal(t, models.CurrencyCAD, rec.Currency)
			assert.True(t, rec.ExchangeAdjAmount.IsZero())
			assert.Equal(t, int64(13500), rec.DepositAmountCAD.IntPart())
			assert.Equal(t, "0003", rec.DestBankNumber)
			assert.Equal(t, "002400986", rec.BatchNumber)
			assert.Equal(t, "I", rec.JVType)
			assert.Equal(t, "002425669", rec.JVNumber)
			assert.Nil(t, rec.TransactionDate)

			assert.Equal(t, tt.wantType, rec.ShortNameType)
			assert.Equal(t, tt.wantKey, rec.ShortNameKey)
			assert.Equal(t, tt.wantGen, rec.GenerateShortName)
		})
	}
}

func TestParseTransaction_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*testutil.TransactionFields)
		want   []string
	}{
		{"invalid record type", func(f *testutil.TransactionFields) { f.RecordType = "X" }, []string{"INVALID_RECORD_TYPE"}},
		{
			"invalid dates",
			func(f *testutil.TransactionFields) {
				f.DepositDate = "2023081 "
				f.DepositTime = "A000"
				f.TransactionDate = "20233001"
			},
			[]string{"INVALID_DEPOSIT_DATETIME", "INVALID_TRANSACTION_DATE"},
		},
		{
			"invalid numbers",
			func(f *testutil.TransactionFields) {
				f.DepositAmount = "1350A"
				f.ExchangeAdjAmount = "ABC"
				f.DepositAmountCAD = "1350A"
			},
			[]string{"INVALID_DEPOSIT_AMOUNT", "INVALID_EXCHANGE_ADJ_AMOUNT", "INVALID_DEPOSIT_AMOUNT_CAD"},
		},
		{"description required", func(f *testutil.TransactionFields) { f.Description = "" }, []string{"ACCOUNT_SHORTNAME_REQUIRED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := baseRecord()
			tt.modify(&fields)
			rec := eftparser.NewTransaction(testutil.EncodeTransaction(fields), 0, testClassifier())
			assert.Equal(t, tt.want, rec.ErrorCodes())
		})
	}

	rec := eftparser.NewTransaction(" ", 0, testClassifier())
	assert.Equal(t, []string{"INVALID_LINE_LENGTH"}, rec.ErrorCodes())
	assert.Empty(t, rec.Description)
}

func TestParseTransaction_OptionalFields(t *testing.T) {
	fields := baseRecord()
	fields.DepositTime = ""
	fields.TransactionDate = "20230811"
	fields.Currency = "US"
	fields.DepositAmount = "10000"
	fields.ExchangeAdjAmount = "350-"
	fields.DepositAmountCAD = "13250"

	rec := eftparser.NewTransaction(testutil.EncodeTransaction(fields), 2, nil)
	require.False(t, rec.HasErrors(), "errors: %v", rec.ErrorCodes())

	assert.Equal(t, time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC), *rec.DepositDatetime, "blank time defaults to 0000")
	assert.Equal(t, time.Date(2023, 8, 11, 0, 0, 0, 0, time.UTC), *rec.TransactionDate)
	assert.Equal(t, "US", rec.Currency)
	assert.Equal(t, int64(-350), rec.ExchangeAdjAmount.IntPart())
	assert.Equal(t, "132.50", models.FormatAmount(rec.CreditAmount()))
	assert.Empty(t, rec.ShortNameKey, "nil classifier leaves short name unset")
}

func TestTransaction_Reconcilable(t *testing.T) {
	good := eftparser.NewTransaction(testutil.EncodeTransaction(baseRecord()), 1, testClassifier())
	assert.True(t, good.Reconcilable("85004"))
	assert.False(t, good.Reconcilable("85020"))

	pad := baseRecord()
	pad.Description = "PAD"
	assert.False(t, eftparser.NewTransaction(testutil.EncodeTransaction(pad), 1, testClassifier()).Reconcilable("85004"))

	bad := baseRecord()
	bad.DepositAmountCAD = "X"
	broken := eftparser.NewTransaction(testutil.EncodeTransaction(bad), 1, testClassifier())
	assert.False(t, broken.Reconcilable("85004"))
	assert.True(t, broken.CreditAmount().IsZero())
}

func TestParseFile_Sample(t *testing.T) {
	content, err := os.ReadFile("testdata/tdi17_sample.txt")
	require.NoError(t, err)

	f := eftparser.ParseFile(content, testClassifier())

	require.NotNil(t, f.Header)
	require.NotNil(t, f.Trailer)
	require.Len(t, f.Transactions, 6)
	assert.Empty(t, f.Errors, "file structure is valid")

	assert.Equal(t, time.Date(2023, 8, 14, 16, 1, 0, 0, time.UTC), *f.Header.CreationDatetime)
	assert.Equal(t, 7, f.Trailer.Index())
	assert.Equal(t, 6, *f.Trailer.NumberOfDetails)
	assert.Equal(t, int64(3852750), f.Trailer.TotalDepositAmount.IntPart())

	expect := []struct {
		key      string
		typ      models.ShortNameType
		amount   int64
		location string
		hour     int
		generate bool
	}{
		{"DEPOSIT          26", models.ShortNameTypeEFT, 13500, "85004", 0, false},
		{"HSIMPSON", models.ShortNameTypeWire, 525000, "85004", 0, false},
		{"ABC1234567", models.ShortNameTypeEFT, 951250, "85004", 0, false},
		{"INTERBLOCK C", models.ShortNameTypeWire, 2125000, "85004", 0, false},
		{"", "", 119000, "85020", 16, false},
		{"FEDERAL PAYMENT CANADA", models.ShortNameTypeEFT, 119000, "85020", 16, true},
	}
	for i, e := range expect {
		rec := f.Transactions[i]
		assert.Equal(t, i+1, rec.Index())
		assert.Equal(t, e.key, rec.ShortNameKey, "line %d", i+1)
		assert.Equal(t, e.typ, rec.ShortNameType, "line %d", i+1)
		assert.Equal(t, e.amount, rec.DepositAmount.IntPart(), "line %d", i+1)
		assert.Equal(t, e.location, rec.LocationID, "line %d", i+1)
		assert.Equal(t, e.hour, rec.DepositDatetime.Hour(), "line %d", i+1)
		assert.Equal(t, e.generate, rec.GenerateShortName, "line %d", i+1)
	}

	assert.Equal(t, []string{"ACCOUNT_SHORTNAME_REQUIRED"}, f.Transactions[4].ErrorCodes())
	assert.Equal(t, []string{"ACCOUNT_SHORTNAME_REQUIRED"}, codes(f.LineErrors()))
	assert.False(t, f.CanComplete())
}

func TestParseFile_BOMAndCRLF(t *testing.T) {
	body := testutil.EncodeFile(
		testutil.HeaderFields{CreationDate: "20230814", CreationTime: "1601", DepositStartDate: "20230810", DepositEndDate: "20230810"},
		[]testutil.TransactionFields{baseRecord()},
		testutil.TrailerFields{NumberOfDetails: 1, TotalDepositAmount: "13500"},
	)
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(strings.ReplaceAll(string(body), "\n", "\r\n"))...)

	f := eftparser.ParseFile(withBOM, testClassifier())
	assert.False(t, f.HasErrors(), "errors: %v", f.ErrorMessages())
	assert.True(t, f.CanComplete())
}
