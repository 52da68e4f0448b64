package eftparser_test

import (
	"math/rand"
	"strings"
	"testing"

	"bcgov/pay-reconciler/internal/eftparser"
	"bcgov/pay-reconciler/internal/parsererror"
	"bcgov/pay-reconciler/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleHeader = testutil.HeaderFields{
	CreationDate:     "20230814",
	CreationTime:     "1601",
	DepositStartDate: "20230810",
	DepositEndDate:   "20230810",
}

func fileCodes(f *eftparser.File) []string {
	return codes(f.Errors)
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"single newline", "\n", []string{""}},
		{"trailing newline dropped", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"bom", "\xEF\xBB\xBFa\nb", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eftparser.SplitLines([]byte(tt.content)))
		})
	}
}

func TestValidate_StructureErrors(t *testing.T) {
	header := testutil.EncodeHeader(sampleHeader)
	txn := testutil.EncodeTransaction(baseRecord())
	trailer := testutil.EncodeTrailer(testutil.TrailerFields{NumberOfDetails: 1, TotalDepositAmount: "13500"})

	tests := []struct {
		name    string
		lines   []string
		want    []string
		indexes []int
	}{
		{
			name:  "valid",
			lines: []string{header, txn, trailer},
		},
		{
			name:    "empty file",
			lines:   nil,
			want:    []string{"EMPTY_FILE"},
			indexes: []int{0},
		},
		{
			name:    "missing header",
			lines:   []string{txn, txn, trailer},
			want:    []string{"MISSING_HEADER"},
			indexes: []int{0},
		},
		{
			name:    "missing trailer",
			lines:   []string{header, txn, txn},
			want:    []string{"MISSING_TRAILER"},
			indexes: []int{2},
		},
		{
			name:    "header only",
			lines:   []string{header},
			want:    []string{"MISSING_TRAILER"},
			indexes: []int{1},
		},
		{
			name:    "unexpected record",
			lines:   []string{header, txn, header, trailer},
			want:    []string{"UNEXPECTED_RECORD", "TRAILER_COUNT_MISMATCH"},
			indexes: []int{2, 3},
		},
		{
			name:    "count mismatch",
			lines:   []string{header, txn, txn, trailer},
			want:    []string{"TRAILER_COUNT_MISMATCH", "TRAILER_TOTAL_MISMATCH"},
			indexes: []int{3, 3},
		},
		{
			name:    "total mismatch",
			lines:   []string{header, txn, testutil.EncodeTrailer(testutil.TrailerFields{NumberOfDetails: 1, TotalDepositAmount: "13501"})},
			want:    []string{"TRAILER_TOTAL_MISMATCH"},
			indexes: []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := eftparser.ParseFile([]byte(strings.Join(tt.lines, "\n")), testClassifier())

			if tt.want == nil {
				assert.Empty(t, f.Errors)
				assert.True(t, f.CanComplete())
				return
			}
			assert.Equal(t, tt.want, fileCodes(f))
			for i, e := range f.Errors {
				assert.Equal(t, tt.indexes[i], e.Index, "error %d", i)
			}
			assert.True(t, f.HasFileErrors())
			assert.False(t, f.CanComplete())
		})
	}
}

func TestValidate_UnexpectedRecordPointsAtLine(t *testing.T) {
	lines := []string{
		testutil.EncodeHeader(sampleHeader),
		testutil.EncodeTrailer(testutil.TrailerFields{NumberOfDetails: 1, TotalDepositAmount: "0"}),
		testutil.EncodeTrailer(testutil.TrailerFields{NumberOfDetails: 1, TotalDepositAmount: "0"}),
	}
	f := eftparser.ParseFile([]byte(strings.Join(lines, "\n")), testClassifier())

	require.Len(t, f.Errors, 1)
	e := f.Errors[0]
	assert.Equal(t, parsererror.UnexpectedRecord, e.Kind)
	require.NotNil(t, e.FieldIndex)
	assert.Equal(t, 1, *e.FieldIndex)
}

func TestValidate_SkipsTotalWhenAmountInvalid(t *testing.T) {
	bad := baseRecord()
	bad.DepositAmount = "ABC"
	content := testutil.EncodeFile(sampleHeader, []testutil.TransactionFields{bad}, testutil.TrailerFields{NumberOfDetails: 1, TotalDepositAmount: "99"})

	f := eftparser.ParseFile(content, testClassifier())

	assert.Empty(t, f.Errors)
	assert.Equal(t, []string{"INVALID_DEPOSIT_AMOUNT"}, codes(f.LineErrors()))
	assert.True(t, f.HasErrors())
}

func TestValidate_ReplacesPreviousErrors(t *testing.T) {
	content := testutil.EncodeFile(sampleHeader, []testutil.TransactionFields{baseRecord()}, testutil.TrailerFields{NumberOfDetails: 2, TotalDepositAmount: "13500"})
	f := eftparser.ParseFile(content, testClassifier())
	require.Equal(t, []string{"TRAILER_COUNT_MISMATCH"}, fileCodes(f))

	two := 1
	f.Trailer.NumberOfDetails = &two
	f.Validate()
	assert.Empty(t, f.Errors)
}

func TestFile_ErrorMessages(t *testing.T) {
	bad := baseRecord()
	bad.Description = ""
	content := testutil.EncodeFile(sampleHeader, []testutil.TransactionFields{bad}, testutil.TrailerFields{NumberOfDetails: 3, TotalDepositAmount: "13500"})

	f := eftparser.ParseFile(content, testClassifier())

	assert.Equal(t, []string{
		"line 2: TRAILER_COUNT_MISMATCH: Trailer number of details does not match transaction count.",
		"line 1: ACCOUNT_SHORTNAME_REQUIRED: Account shortname is missing from the transaction description.",
	}, f.ErrorMessages())
}

func TestParseFile_NeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("0123456789 -ABCZ127é\r\n")

	for i := 0; i < 200; i++ {
		n := rng.Intn(600)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		input := b.String()

		assert.NotPanics(t, func() {
			f := eftparser.ParseFile([]byte(input), testClassifier())
			_ = f.ErrorMessages()
		}, "input %q", input)
	}
}
