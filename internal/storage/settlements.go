package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bcgov/pay-reconciler/internal/models"
)

// FindCasSettlement returns the settlement recorded for fileName.
func (s *queries) FindCasSettlement(ctx context.Context, fileName string) (*models.CasSettlement, error) {
	var (
		cs        models.CasSettlement
		processed sql.NullTime
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, file_name, received_on, processed_on FROM cas_settlements WHERE file_name = ?
	`, fileName).Scan(&cs.ID, &cs.FileName, &cs.ReceivedOn, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cas settlement: %w", err)
	}
	cs.ProcessedOn = timePtr(processed)
	return &cs, nil
}

// CreateCasSettlement inserts cs and sets its ID.
func (s *queries) CreateCasSettlement(ctx context.Context, cs *models.CasSettlement) error {
	if cs == nil {
		return fmt.Errorf("%w: cas settlement", ErrNilParameter)
	}
	if cs.FileName == "" {
		return fmt.Errorf("%w: file_name", ErrEmptyString)
	}
	if cs.ReceivedOn.IsZero() {
		cs.ReceivedOn = now()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO cas_settlements (file_name, received_on, processed_on) VALUES (?, ?, ?)
	`, cs.FileName, cs.ReceivedOn.UTC(), nullTime(cs.ProcessedOn))
	if err != nil {
		return fmt.Errorf("failed to create cas settlement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read cas settlement id: %w", err)
	}
	cs.ID = id
	return nil
}

// MarkCasSettlementProcessed stamps the settlement as processed at t.
func (s *queries) MarkCasSettlementProcessed(ctx context.Context, id int64, t time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE cas_settlements SET processed_on = ? WHERE id = ?`, t.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update cas settlement: %w", err)
	}
	return requireRow(res, "cas settlement")
}

// UpsertPayment inserts p, or updates the payment with the same receipt
// number, and sets p.ID.
func (s *queries) UpsertPayment(ctx context.Context, p *models.Payment) error {
	if p == nil {
		return fmt.Errorf("%w: payment", ErrNilParameter)
	}
	if p.ReceiptNumber == "" {
		return fmt.Errorf("%w: receipt_number", ErrEmptyString)
	}
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO payments (receipt_number, payment_method, paid_cents, invoice_number, payment_date, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (receipt_number) DO UPDATE SET
			payment_method = excluded.payment_method,
			paid_cents = excluded.paid_cents,
			invoice_number = excluded.invoice_number,
			payment_date = excluded.payment_date,
			status = excluded.status
		RETURNING id
	`, p.ReceiptNumber, p.PaymentMethod, cents(p.PaidAmount), p.InvoiceNumber, nullTime(p.PaymentDate), p.Status).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

// FindPaymentByReceipt returns the payment recorded for a receipt number.
func (s *queries) FindPaymentByReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	var (
		p      models.Payment
		paid   int64
		paidOn sql.NullTime
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, receipt_number, payment_method, paid_cents, invoice_number, payment_date, status
		FROM payments WHERE receipt_number = ?
	`, receiptNumber).Scan(&p.ID, &p.ReceiptNumber, &p.PaymentMethod, &paid, &p.InvoiceNumber, &paidOn, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	p.PaidAmount = amount(paid)
	p.PaymentDate = timePtr(paidOn)
	return &p, nil
}
