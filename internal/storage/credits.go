package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bcgov/pay-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

const creditColumns = `id, amount_cents, remaining_cents, short_name_id, eft_file_id, eft_transaction_id, created_on`

func scanCredit(row interface{ Scan(...any) error }) (*models.EFTCredit, error) {
	var (
		c                models.EFTCredit
		amountC, remainC int64
	)
	if err := row.Scan(&c.ID, &amountC, &remainC, &c.ShortNameID, &c.EFTFileID, &c.EFTTransactionID, &c.CreatedOn); err != nil {
		return nil, err
	}
	c.Amount = amount(amountC)
	c.RemainingAmount = amount(remainC)
	return &c, nil
}

// FindCredit returns the credit created for a file's transaction line.
func (s *queries) FindCredit(ctx context.Context, fileID, transactionID int64) (*models.EFTCredit, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+creditColumns+` FROM eft_credits
		WHERE eft_file_id = ? AND eft_transaction_id = ?
	`, fileID, transactionID)
	c, err := scanCredit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credit: %w", err)
	}
	return c, nil
}

// CreateCredit inserts c and sets its ID.
func (s *queries) CreateCredit(ctx context.Context, c *models.EFTCredit) error {
	if c == nil {
		return fmt.Errorf("%w: credit", ErrNilParameter)
	}
	if c.CreatedOn.IsZero() {
		c.CreatedOn = now()
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO eft_credits (amount_cents, remaining_cents, short_name_id, eft_file_id, eft_transaction_id, created_on)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cents(c.Amount), cents(c.RemainingAmount), c.ShortNameID, c.EFTFileID, c.EFTTransactionID, c.CreatedOn.UTC())
	if err != nil {
		return fmt.Errorf("failed to create credit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read credit id: %w", err)
	}
	c.ID = id
	return nil
}

// UpdateCreditRemaining stores the unapplied balance of a credit.
func (s *queries) UpdateCreditRemaining(ctx context.Context, id int64, remaining decimal.Decimal) error {
	if remaining.IsNegative() {
		return fmt.Errorf("%w: negative remaining amount %s", ErrInvalidParameter, remaining)
	}
	res, err := s.q.ExecContext(ctx, `UPDATE eft_credits SET remaining_cents = ? WHERE id = ?`, cents(remaining), id)
	if err != nil {
		return fmt.Errorf("failed to update credit remaining: %w", err)
	}
	return requireRow(res, "credit")
}

// FindCreditsWithBalance returns the short name's credits that still hold
// money, oldest first.
func (s *queries) FindCreditsWithBalance(ctx context.Context, shortNameID int64) ([]models.EFTCredit, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+creditColumns+` FROM eft_credits
		WHERE short_name_id = ? AND remaining_cents > 0
		ORDER BY created_on, id
	`, shortNameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var credits []models.EFTCredit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		credits = append(credits, *c)
	}
	return credits, rows.Err()
}

// ShortNameBalance returns the total unapplied credit held by a short name.
func (s *queries) ShortNameBalance(ctx context.Context, shortNameID int64) (decimal.Decimal, error) {
	var total int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(remaining_cents), 0) FROM eft_credits WHERE short_name_id = ?
	`, shortNameID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum short name balance: %w", err)
	}
	return amount(total), nil
}

// CreateCreditInvoiceLink inserts l and sets its ID.
func (s *queries) CreateCreditInvoiceLink(ctx context.Context, l *models.EFTCreditInvoiceLink) error {
	if l == nil {
		return fmt.Errorf("%w: credit invoice link", ErrNilParameter)
	}
	if l.CreatedOn.IsZero() {
		l.CreatedOn = now()
	}
	if l.Status == "" {
		l.Status = models.CreditLinkPending
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO eft_credit_invoice_links (eft_credit_id, invoice_id, amount_applied_cents, status, link_group_id, created_on)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.EFTCreditID, l.InvoiceID, cents(l.AmountApplied), l.Status, l.LinkGroupID, l.CreatedOn.UTC())
	if err != nil {
		return fmt.Errorf("failed to create credit invoice link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read credit invoice link id: %w", err)
	}
	l.ID = id
	return nil
}

// ListCreditLinks returns the invoice applications of a credit.
func (s *queries) ListCreditLinks(ctx context.Context, creditID int64) ([]models.EFTCreditInvoiceLink, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, eft_credit_id, invoice_id, amount_applied_cents, status, link_group_id, created_on
		FROM eft_credit_invoice_links
		WHERE eft_credit_id = ?
		ORDER BY id
	`, creditID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []models.EFTCreditInvoiceLink
	for rows.Next() {
		var (
			l       models.EFTCreditInvoiceLink
			applied int64
		)
		if err := rows.Scan(&l.ID, &l.EFTCreditID, &l.InvoiceID, &applied, &l.Status, &l.LinkGroupID, &l.CreatedOn); err != nil {
			return nil, fmt.Errorf("failed to scan credit link: %w", err)
		}
		l.AmountApplied = amount(applied)
		links = append(links, l)
	}
	return links, rows.Err()
}
