package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bcgov/pay-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, payment_account_id, business_identifier, invoice_number, total_cents, paid_cents, status, due_date`

func scanInvoice(row interface{ Scan(...any) error }) (*models.Invoice, error) {
	var (
		inv         models.Invoice
		number      sql.NullString
		total, paid int64
	)
	if err := row.Scan(&inv.ID, &inv.PaymentAccountID, &inv.BusinessIdentifier, &number,
		&total, &paid, &inv.Status, &inv.DueDate); err != nil {
		return nil, err
	}
	inv.InvoiceNumber = number.String
	inv.Total = amount(total)
	inv.Paid = amount(paid)
	return &inv, nil
}

func collectInvoices(rows *sql.Rows) ([]models.Invoice, error) {
	defer func() { _ = rows.Close() }()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// CreateInvoice inserts inv and sets its ID. The status is derived from the
// paid amount when left empty.
func (s *queries) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv == nil {
		return fmt.Errorf("%w: invoice", ErrNilParameter)
	}
	if inv.PaymentAccountID == "" {
		return fmt.Errorf("%w: payment_account_id", ErrEmptyString)
	}
	if inv.Status == "" {
		inv.Status = models.StatusForPaid(inv.Total, inv.Paid)
	}
	var number sql.NullString
	if inv.InvoiceNumber != "" {
		number = sql.NullString{String: inv.InvoiceNumber, Valid: true}
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO invoices (payment_account_id, business_identifier, invoice_number, total_cents, paid_cents, status, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inv.PaymentAccountID, inv.BusinessIdentifier, number, cents(inv.Total), cents(inv.Paid), inv.Status, inv.DueDate.UTC())
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read invoice id: %w", err)
	}
	inv.ID = id
	return nil
}

// FindInvoiceByID returns the invoice with the given id.
func (s *queries) FindInvoiceByID(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, err := scanInvoice(s.q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// FindInvoiceByNumber returns the invoice with the given invoice number.
func (s *queries) FindInvoiceByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	inv, err := scanInvoice(s.q.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// FindOutstandingInvoices returns the account's unpaid invoices, oldest due
// date first and then by id.
func (s *queries) FindOutstandingInvoices(ctx context.Context, accountID string) ([]models.Invoice, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE payment_account_id = ? AND status IN (?, ?) AND paid_cents < total_cents
		ORDER BY due_date, id
	`, accountID, models.InvoiceApproved, models.InvoicePartial)
	if err != nil {
		return nil, fmt.Errorf("failed to find outstanding invoices: %w", err)
	}
	return collectInvoices(rows)
}

// DecrementInvoiceBalance records a payment of amt against the invoice and
// updates its status. Paying more than the balance is an error.
func (s *queries) DecrementInvoiceBalance(ctx context.Context, id int64, amt decimal.Decimal) error {
	if !amt.IsPositive() {
		return fmt.Errorf("%w: amount %s must be positive", ErrInvalidParameter, amt)
	}
	inv, err := s.FindInvoiceByID(ctx, id)
	if err != nil {
		return err
	}
	if amt.GreaterThan(inv.Balance()) {
		return fmt.Errorf("invoice %d: %w (%s > %s)", id, ErrOverpayment, amt, inv.Balance())
	}

	paid := inv.Paid.Add(amt)
	return s.UpdateInvoicePaid(ctx, id, paid, models.StatusForPaid(inv.Total, paid))
}

// UpdateInvoicePaid overwrites the paid amount and status of an invoice.
func (s *queries) UpdateInvoicePaid(ctx context.Context, id int64, paid decimal.Decimal, status models.InvoiceStatus) error {
	res, err := s.q.ExecContext(ctx, `UPDATE invoices SET paid_cents = ?, status = ? WHERE id = ?`, cents(paid), status, id)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return requireRow(res, "invoice")
}

// FindInvoicesByBusinessIdentifier returns every invoice filed under the
// identifier.
func (s *queries) FindInvoicesByBusinessIdentifier(ctx context.Context, identifier string) ([]models.Invoice, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE business_identifier = ? ORDER BY id
	`, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find invoices by identifier: %w", err)
	}
	return collectInvoices(rows)
}

// UpdateBusinessIdentifier relabels every invoice under oldID to newID and
// returns the number of invoices changed.
func (s *queries) UpdateBusinessIdentifier(ctx context.Context, oldID, newID string) (int64, error) {
	if oldID == "" || newID == "" {
		return 0, fmt.Errorf("%w: business identifier", ErrEmptyString)
	}
	res, err := s.q.ExecContext(ctx, `UPDATE invoices SET business_identifier = ? WHERE business_identifier = ?`, newID, oldID)
	if err != nil {
		return 0, fmt.Errorf("failed to update business identifier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
