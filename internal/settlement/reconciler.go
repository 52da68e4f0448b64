package settlement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bcgov/pay-reconciler/internal/blob"
	"bcgov/pay-reconciler/internal/dateutils"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/notify"
	"bcgov/pay-reconciler/internal/parsererror"
	"bcgov/pay-reconciler/internal/queue"
	"bcgov/pay-reconciler/internal/receipt"
	"bcgov/pay-reconciler/internal/storage"

	"github.com/shopspring/decimal"
)

// Database is the persistence used by the settlement pipeline.
type Database interface {
	FindCasSettlement(ctx context.Context, fileName string) (*models.CasSettlement, error)
	WithTx(ctx context.Context, fn func(*storage.Tx) error) error
}

// Result summarises one settlement file.
type Result struct {
	FileName        string
	Duplicate       bool
	Rows            int
	SkippedRows     int
	InvoicesUpdated int
	Payments        int
	Errors          []notify.ErrorMessage
}

// HasErrors reports whether any row failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Reconciler applies CAS settlement files.
type Reconciler struct {
	db     Database
	blobs  blob.Store
	logger logging.Logger
	now    func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(db Database, blobs blob.Store, logger logging.Logger) *Reconciler {
	return &Reconciler{db: db, blobs: blobs, logger: logger, now: time.Now}
}

// receiptGroup collects the rows of one source transaction.
type receiptGroup struct {
	receipt receipt.Receipt
	date    *time.Time
	status  models.PaymentStatus
}

// Reconcile fetches and applies a settlement file. A file seen before is
// skipped. Row problems are collected in the result; the returned error is
// fatal and leaves nothing persisted.
func (r *Reconciler) Reconcile(ctx context.Context, msg queue.FileMessage) (*Result, error) {
	log := r.logger.WithFields(logging.F(logging.FieldFileName, msg.FileName), logging.F(logging.FieldLocation, msg.Location))
	res := &Result{FileName: msg.FileName}

	_, err := r.db.FindCasSettlement(ctx, msg.FileName)
	switch {
	case err == nil:
		log.Info("Settlement file has been processed already, skipping")
		res.Duplicate = true
		return res, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, parsererror.Fatal("find cas settlement", err)
	}

	data, err := r.blobs.GetObject(ctx, msg.Location, msg.FileName)
	if err != nil {
		return nil, parsererror.Fatal("fetch settlement file", err)
	}
	rows, err := ParseRows(data)
	if err != nil {
		return nil, parsererror.Fatal("parse settlement file", err)
	}
	res.Rows = len(rows)

	err = r.db.WithTx(ctx, func(tx *storage.Tx) error {
		cs := &models.CasSettlement{FileName: msg.FileName, ReceivedOn: r.now().UTC()}
		if err := tx.CreateCasSettlement(ctx, cs); err != nil {
			return err
		}

		groups, order, err := r.applyRows(ctx, tx, rows, res, log)
		if err != nil {
			return err
		}
		for _, number := range order {
			g := groups[number]
			method := g.receipt.ReceiptMethod
			if method == "" {
				method = RecordONAC
			}
			p := &models.Payment{
				ReceiptNumber: number,
				PaymentMethod: method,
				PaidAmount:    receipt.AppliedAmount(g.receipt),
				PaymentDate:   g.date,
				Status:        g.status,
			}
			if len(g.receipt.Invoices) > 0 {
				p.InvoiceNumber = g.receipt.Invoices[0].InvoiceNumber
			}
			if err := tx.UpsertPayment(ctx, p); err != nil {
				return err
			}
			res.Payments++
		}
		return tx.MarkCasSettlementProcessed(ctx, cs.ID, r.now().UTC())
	})
	if err != nil {
		return nil, parsererror.Fatal("apply settlement file", err)
	}

	log.Info("Settlement file reconciled",
		logging.F(logging.FieldCount, res.Rows),
		logging.F("payments", res.Payments),
		logging.F("invoices_updated", res.InvoicesUpdated),
		logging.F("row_errors", len(res.Errors)))
	return res, nil
}

func (r *Reconciler) applyRows(ctx context.Context, tx *storage.Tx, rows []Row, res *Result, log logging.Logger) (map[string]*receiptGroup, []string, error) {
	groups := make(map[string]*receiptGroup)
	var order []string

	rowError := func(line int, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Warn(msg, logging.F(logging.FieldLine, line))
		res.Errors = append(res.Errors, notify.ErrorMessage{Error: msg, Row: strconv.Itoa(line)})
	}

	for i, row := range rows {
		line := i + 2

		if !knownRecordTypes[row.RecordType] {
			rowError(line, "Record Type is received as %s, and cannot process.", row.RecordType)
			continue
		}
		amt, err := parseAmount(row.ApplicationAmount)
		if err != nil {
			rowError(line, "Invalid application amount %q.", row.ApplicationAmount)
			continue
		}
		if amt.IsZero() && !IsPAD(row.RecordType) {
			res.SkippedRows++
			continue
		}
		if row.RecordType == RecordADJS {
			log.Info("Adjustment received", logging.F(logging.FieldLine, line))
			res.SkippedRows++
			continue
		}
		if row.SourceTxnNumber == "" {
			rowError(line, "Source transaction number is missing.")
			continue
		}

		status := models.PaymentCompleted
		if row.TargetTxn == TargetInvoice {
			st, err := r.applyInvoice(ctx, tx, row)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					rowError(line, "Invoice %s not found.", row.TargetTxnNumber)
					continue
				}
				var ve *parsererror.ValidationError
				if errors.As(err, &ve) {
					rowError(line, "%s", ve.Error())
					continue
				}
				return nil, nil, err
			}
			if st != models.PaymentFailed {
				res.InvoicesUpdated++
			}
			status = st
		}

		g, ok := groups[row.SourceTxnNumber]
		if !ok {
			g = &receiptGroup{
				receipt: receipt.Receipt{Number: row.SourceTxnNumber},
				status:  models.PaymentCompleted,
			}
			groups[row.SourceTxnNumber] = g
			order = append(order, row.SourceTxnNumber)
		}
		g.add(row, amt, status)
	}
	return groups, order, nil
}

// applyInvoice updates the invoice a row targets and returns the payment
// status the row implies.
func (r *Reconciler) applyInvoice(ctx context.Context, tx *storage.Tx, row Row) (models.PaymentStatus, error) {
	if row.TargetTxnStatus == StatusNotPaid || row.RecordType == RecordPADR || row.RecordType == RecordPAYR {
		return models.PaymentFailed, nil
	}
	if row.TargetTxnStatus != StatusPaid && row.TargetTxnStatus != StatusPartial {
		return "", &parsererror.ValidationError{
			Subject: "target transaction status",
			Reason:  fmt.Sprintf("%q is not supported for invoice %s", row.TargetTxnStatus, row.TargetTxnNumber),
		}
	}

	inv, err := tx.FindInvoiceByNumber(ctx, row.TargetTxnNumber)
	if err != nil {
		return "", err
	}
	original, err := parseAmount(row.TargetTxnOriginal)
	if err != nil {
		return "", &parsererror.ValidationError{Subject: "target transaction original amount", Reason: err.Error()}
	}
	outstanding, err := parseAmount(row.TargetTxnOutstanding)
	if err != nil {
		return "", &parsererror.ValidationError{Subject: "target transaction outstanding amount", Reason: err.Error()}
	}
	paid := original.Sub(outstanding)
	if paid.IsNegative() {
		return "", &parsererror.ValidationError{
			Subject: "target transaction outstanding amount",
			Reason:  fmt.Sprintf("outstanding %s exceeds original %s", outstanding, original),
		}
	}

	invStatus, payStatus := models.InvoicePartial, models.PaymentPartial
	if outstanding.IsZero() {
		invStatus, payStatus = models.InvoicePaid, models.PaymentCompleted
	}
	if err := tx.UpdateInvoicePaid(ctx, inv.ID, paid, invStatus); err != nil {
		return "", err
	}
	return payStatus, nil
}

func (g *receiptGroup) add(row Row, amt decimal.Decimal, status models.PaymentStatus) {
	g.receipt.ReceiptAmount = g.receipt.ReceiptAmount.Add(amt)

	switch {
	case row.TargetTxn == TargetInvoice:
		g.receipt.Invoices = append(g.receipt.Invoices, receipt.InvoiceApplication{
			InvoiceNumber: row.TargetTxnNumber,
			AmountApplied: amt,
		})
	case row.RecordType == RecordONAC:
		g.receipt.UnappliedAmount = g.receipt.UnappliedAmount.Add(amt)
	}

	if g.receipt.ReceiptMethod == "" && row.RecordType != RecordONAC {
		g.receipt.ReceiptMethod = ReceiptMethod(row.RecordType)
	}
	if g.date == nil {
		if d, err := dateutils.ParseCASDate(row.ApplicationDate); err == nil {
			g.date = &d
		}
	}

	switch {
	case status == models.PaymentFailed:
		g.status = models.PaymentFailed
	case status == models.PaymentPartial && g.status != models.PaymentFailed:
		g.status = models.PaymentPartial
	}
}

// ReceiptMethod maps a record type to the receipt method it settles with.
func ReceiptMethod(recordType string) string {
	switch {
	case recordType == RecordBOLP:
		return receipt.MethodOnlineBanking
	case IsPAD(recordType):
		return receipt.MethodPAD
	default:
		return recordType
	}
}

var amountCleaner = strings.NewReplacer(",", "", "$", "")

func parseAmount(value string) (decimal.Decimal, error) {
	cleaned := amountCleaner.Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d, nil
}
