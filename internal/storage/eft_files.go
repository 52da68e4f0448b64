package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bcgov/pay-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

const eftFileColumns = `id, file_ref, status, created_on, completed_on, file_creation_date,
	deposit_from_date, deposit_to_date, number_of_details, total_deposit_cents, error_messages`

func scanEFTFile(row interface{ Scan(...any) error }) (*models.EFTFile, error) {
	var (
		f                             models.EFTFile
		completed, creation, from, to sql.NullTime
		details, total                sql.NullInt64
		messages                      sql.NullString
	)
	if err := row.Scan(&f.ID, &f.FileRef, &f.Status, &f.CreatedOn, &completed, &creation,
		&from, &to, &details, &total, &messages); err != nil {
		return nil, err
	}

	f.CompletedOn = timePtr(completed)
	f.FileCreationDate = timePtr(creation)
	f.DepositFromDate = timePtr(from)
	f.DepositToDate = timePtr(to)
	if details.Valid {
		n := int(details.Int64)
		f.NumberOfDetails = &n
	}
	f.TotalDeposit = int64Ptr(total)

	msgs, err := decodeMessages(messages)
	if err != nil {
		return nil, err
	}
	f.ErrorMessages = msgs
	return &f, nil
}

// FindEFTFileByRef returns the file received under ref.
func (s *queries) FindEFTFileByRef(ctx context.Context, ref string) (*models.EFTFile, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+eftFileColumns+` FROM eft_files WHERE file_ref = ?`, ref)
	f, err := scanEFTFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get eft file: %w", err)
	}
	return f, nil
}

// CreateEFTFile inserts f and sets its ID.
func (s *queries) CreateEFTFile(ctx context.Context, f *models.EFTFile) error {
	if f == nil {
		return fmt.Errorf("%w: eft file", ErrNilParameter)
	}
	if f.FileRef == "" {
		return fmt.Errorf("%w: file_ref", ErrEmptyString)
	}
	if f.CreatedOn.IsZero() {
		f.CreatedOn = now()
	}
	if f.Status == "" {
		f.Status = models.StatusInProgress
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO eft_files (file_ref, status, created_on)
		VALUES (?, ?, ?)
	`, f.FileRef, f.Status, f.CreatedOn.UTC())
	if err != nil {
		return fmt.Errorf("failed to create eft file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read eft file id: %w", err)
	}
	f.ID = id
	return s.UpdateEFTFile(ctx, f)
}

// UpdateEFTFile writes every mutable column of f.
func (s *queries) UpdateEFTFile(ctx context.Context, f *models.EFTFile) error {
	if f == nil {
		return fmt.Errorf("%w: eft file", ErrNilParameter)
	}
	messages, err := encodeMessages(f.ErrorMessages)
	if err != nil {
		return err
	}
	var details sql.NullInt64
	if f.NumberOfDetails != nil {
		details = sql.NullInt64{Int64: int64(*f.NumberOfDetails), Valid: true}
	}

	res, err := s.q.ExecContext(ctx, `
		UPDATE eft_files
		SET status = ?, completed_on = ?, file_creation_date = ?, deposit_from_date = ?,
			deposit_to_date = ?, number_of_details = ?, total_deposit_cents = ?, error_messages = ?
		WHERE id = ?
	`, f.Status, nullTime(f.CompletedOn), nullTime(f.FileCreationDate), nullTime(f.DepositFromDate),
		nullTime(f.DepositToDate), details, nullInt(f.TotalDeposit), messages, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update eft file: %w", err)
	}
	return requireRow(res, "eft file")
}

// ListEFTFiles returns files in creation order, optionally filtered by status.
func (s *queries) ListEFTFiles(ctx context.Context, status models.ProcessStatus) ([]models.EFTFile, error) {
	query := `SELECT ` + eftFileColumns + ` FROM eft_files`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eft files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []models.EFTFile
	for rows.Next() {
		f, err := scanEFTFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan eft file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

const eftLineColumns = `id, file_id, line_type, line_number, status, short_name_id,
	deposit_date, transaction_date, deposit_amount_cents, error_messages`

func scanEFTLine(row interface{ Scan(...any) error }) (*models.EFTTransactionLine, error) {
	var (
		l                    models.EFTTransactionLine
		shortNameID, amountC sql.NullInt64
		depositDate, txnDate sql.NullTime
		messages             sql.NullString
	)
	if err := row.Scan(&l.ID, &l.FileID, &l.LineType, &l.LineNumber, &l.Status, &shortNameID,
		&depositDate, &txnDate, &amountC, &messages); err != nil {
		return nil, err
	}
	l.ShortNameID = int64Ptr(shortNameID)
	l.DepositDate = timePtr(depositDate)
	l.TransactionDate = timePtr(txnDate)
	if amountC.Valid {
		d := decimal.NewFromInt(amountC.Int64)
		l.DepositAmountCents = &d
	}
	msgs, err := decodeMessages(messages)
	if err != nil {
		return nil, err
	}
	l.ErrorMessages = msgs
	return &l, nil
}

// UpsertEFTLine inserts the line or overwrites the row with the same file,
// line type and line number, then sets l.ID.
func (s *queries) UpsertEFTLine(ctx context.Context, l *models.EFTTransactionLine) error {
	if l == nil {
		return fmt.Errorf("%w: eft line", ErrNilParameter)
	}
	messages, err := encodeMessages(l.ErrorMessages)
	if err != nil {
		return err
	}
	var amountC sql.NullInt64
	if l.DepositAmountCents != nil {
		amountC = sql.NullInt64{Int64: l.DepositAmountCents.IntPart(), Valid: true}
	}

	err = s.q.QueryRowContext(ctx, `
		INSERT INTO eft_transactions (file_id, line_type, line_number, status, short_name_id,
			deposit_date, transaction_date, deposit_amount_cents, error_messages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_id, line_type, line_number) DO UPDATE SET
			status = excluded.status,
			short_name_id = excluded.short_name_id,
			deposit_date = excluded.deposit_date,
			transaction_date = excluded.transaction_date,
			deposit_amount_cents = excluded.deposit_amount_cents,
			error_messages = excluded.error_messages
		RETURNING id
	`, l.FileID, l.LineType, l.LineNumber, l.Status, nullInt(l.ShortNameID),
		nullTime(l.DepositDate), nullTime(l.TransactionDate), amountC, messages).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert eft line: %w", err)
	}
	return nil
}

// ListEFTLines returns the persisted lines of a file in line order.
func (s *queries) ListEFTLines(ctx context.Context, fileID int64) ([]models.EFTTransactionLine, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+eftLineColumns+` FROM eft_transactions
		WHERE file_id = ?
		ORDER BY line_number, id
	`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eft lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []models.EFTTransactionLine
	for rows.Next() {
		l, err := scanEFTLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan eft line: %w", err)
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

func requireRow(res sql.Result, subject string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}
	return nil
}
