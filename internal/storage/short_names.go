package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bcgov/pay-reconciler/internal/models"
)

const shortNameColumns = `id, short_name, source_key, type, state, account_id, created_on`

// shortNameSequence names the counter used for generated short names.
const shortNameSequence = "eft_short_name"

func scanShortName(row interface{ Scan(...any) error }) (*models.ShortName, error) {
	var (
		sn      models.ShortName
		account sql.NullString
	)
	if err := row.Scan(&sn.ID, &sn.ShortName, &sn.SourceKey, &sn.Type, &sn.State, &account, &sn.CreatedOn); err != nil {
		return nil, err
	}
	sn.AccountID = stringPtr(account)
	return &sn, nil
}

// FindShortName returns the short name derived from sourceKey for the given
// type.
func (s *queries) FindShortName(ctx context.Context, sourceKey string, typ models.ShortNameType) (*models.ShortName, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+shortNameColumns+` FROM eft_short_names
		WHERE source_key = ? AND type = ?
	`, sourceKey, typ)
	sn, err := scanShortName(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get short name: %w", err)
	}
	return sn, nil
}

// FindShortNameByID returns the short name with the given id.
func (s *queries) FindShortNameByID(ctx context.Context, id int64) (*models.ShortName, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+shortNameColumns+` FROM eft_short_names WHERE id = ?`, id)
	sn, err := scanShortName(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get short name: %w", err)
	}
	return sn, nil
}

// CreateShortName inserts sn and sets its ID. SourceKey defaults to the
// short name itself.
func (s *queries) CreateShortName(ctx context.Context, sn *models.ShortName) error {
	if sn == nil {
		return fmt.Errorf("%w: short name", ErrNilParameter)
	}
	if sn.ShortName == "" {
		return fmt.Errorf("%w: short_name", ErrEmptyString)
	}
	if sn.SourceKey == "" {
		sn.SourceKey = sn.ShortName
	}
	if sn.CreatedOn.IsZero() {
		sn.CreatedOn = now()
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO eft_short_names (short_name, source_key, type, state, account_id, created_on)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sn.ShortName, sn.SourceKey, sn.Type, sn.State, nullString(sn.AccountID), sn.CreatedOn.UTC())
	if err != nil {
		return fmt.Errorf("failed to create short name: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read short name id: %w", err)
	}
	sn.ID = id
	return nil
}

// NextShortNameSequence returns the next number for a generated short name,
// starting at 1.
func (s *queries) NextShortNameSequence(ctx context.Context) (int64, error) {
	var next int64
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = value + 1
		RETURNING value
	`, shortNameSequence).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to advance short name sequence: %w", err)
	}
	return next, nil
}

// LinkShortName marks the short name as LINKED to accountID.
func (s *queries) LinkShortName(ctx context.Context, id int64, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("%w: account_id", ErrEmptyString)
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE eft_short_names SET state = ?, account_id = ? WHERE id = ?
	`, models.ShortNameLinked, accountID, id)
	if err != nil {
		return fmt.Errorf("failed to link short name: %w", err)
	}
	return requireRow(res, "short name")
}

// ListShortNames returns short names ordered by id, optionally filtered by
// state.
func (s *queries) ListShortNames(ctx context.Context, state models.ShortNameState) ([]models.ShortName, error) {
	query := `SELECT ` + shortNameColumns + ` FROM eft_short_names`
	var args []any
	if state != "" {
		query += ` WHERE state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list short names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []models.ShortName
	for rows.Next() {
		sn, err := scanShortName(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan short name: %w", err)
		}
		names = append(names, *sn)
	}
	return names, rows.Err()
}
