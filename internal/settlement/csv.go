// Package settlement reconciles CAS settlement CSV files against invoices
// and payments.
package settlement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Record types found in the settlement feed.
const (
	RecordPAD  = "PAD"
	RecordPADR = "PADR"
	RecordPAYR = "PAYR"
	RecordBOLP = "BOLP"
	RecordEFTP = "EFTP"
	RecordONAC = "ONAC"
	RecordCMAP = "CMAP"
	RecordDRWP = "DRWP"
	RecordADJS = "ADJS"
)

// Target transaction types.
const (
	TargetInvoice = "INV"
	TargetReceipt = "RECEIPT"
)

// Target transaction statuses, compared without regard to case.
const (
	StatusPaid    = "PAID"
	StatusPartial = "PARTIAL"
	StatusNotPaid = "NOT PAID"
)

var knownRecordTypes = map[string]bool{
	RecordPAD: true, RecordPADR: true, RecordPAYR: true,
	RecordBOLP: true, RecordEFTP: true,
	RecordONAC: true, RecordCMAP: true, RecordDRWP: true,
	RecordADJS: true,
}

// IsPAD reports whether recordType belongs to the pre-authorized debit family.
func IsPAD(recordType string) bool {
	switch recordType {
	case RecordPAD, RecordPADR, RecordPAYR:
		return true
	}
	return false
}

// Row is one line of a settlement file. Headers are matched in lower case.
type Row struct {
	RecordType           string `csv:"record type"`
	SourceTxnType        string `csv:"source transaction type"`
	SourceTxnNumber      string `csv:"source transaction number"`
	ApplicationID        string `csv:"application id"`
	ApplicationDate      string `csv:"application date"`
	ApplicationAmount    string `csv:"application amount"`
	CustomerAccount      string `csv:"customer account"`
	TargetTxn            string `csv:"target transaction type"`
	TargetTxnNumber      string `csv:"target transaction number"`
	TargetTxnOriginal    string `csv:"target transaction original amount"`
	TargetTxnOutstanding string `csv:"target transaction outstanding amount"`
	TargetTxnStatus      string `csv:"target transaction status"`
	ReversalReasonCode   string `csv:"reversal reason code"`
	ReversalReasonDesc   string `csv:"reversal reason description"`
}

// ErrNoHeader is returned for a file without a header row.
var ErrNoHeader = errors.New("settlement file has no header row")

// headerReader lower-cases the header record so column names match however
// the feed capitalises them.
type headerReader struct {
	r    *csv.Reader
	seen bool
}

func (h *headerReader) Read() ([]string, error) {
	rec, err := h.r.Read()
	if err != nil {
		return rec, err
	}
	if !h.seen {
		h.seen = true
		for i, col := range rec {
			rec[i] = strings.ToLower(strings.TrimSpace(col))
		}
	}
	return rec, nil
}

func (h *headerReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := h.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// ParseRows decodes a settlement file. A UTF-8 byte order mark is ignored.
func ParseRows(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoHeader
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows []Row
	if err := gocsv.UnmarshalCSV(&headerReader{r: r}, &rows); err != nil {
		return nil, fmt.Errorf("error reading settlement csv: %w", err)
	}
	for i := range rows {
		rows[i].RecordType = strings.ToUpper(strings.TrimSpace(rows[i].RecordType))
		rows[i].TargetTxn = strings.ToUpper(strings.TrimSpace(rows[i].TargetTxn))
		rows[i].TargetTxnStatus = strings.ToUpper(strings.TrimSpace(rows[i].TargetTxnStatus))
		rows[i].SourceTxnNumber = strings.TrimSpace(rows[i].SourceTxnNumber)
		rows[i].TargetTxnNumber = strings.TrimSpace(rows[i].TargetTxnNumber)
	}
	return rows, nil
}
