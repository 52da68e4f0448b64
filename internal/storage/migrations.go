package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// ExpectedSchemaVersion is the schema version this build requires.
const ExpectedSchemaVersion = 2

// Migration is one forward-only schema change.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS eft_files (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_ref TEXT NOT NULL UNIQUE,
					status TEXT NOT NULL,
					created_on DATETIME NOT NULL,
					completed_on DATETIME,
					file_creation_date DATETIME,
					deposit_from_date DATETIME,
					deposit_to_date DATETIME,
					number_of_details INTEGER,
					total_deposit_cents INTEGER,
					error_messages TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS eft_short_names (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					short_name TEXT NOT NULL,
					source_key TEXT NOT NULL,
					type TEXT NOT NULL,
					state TEXT NOT NULL,
					account_id TEXT,
					created_on DATETIME NOT NULL,
					UNIQUE (source_key, type)
				)`,

				`CREATE TABLE IF NOT EXISTS sequences (
					name TEXT PRIMARY KEY,
					value INTEGER NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS eft_transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_id INTEGER NOT NULL REFERENCES eft_files(id),
					line_type TEXT NOT NULL,
					line_number INTEGER NOT NULL,
					status TEXT NOT NULL,
					short_name_id INTEGER REFERENCES eft_short_names(id),
					deposit_date DATETIME,
					transaction_date DATETIME,
					deposit_amount_cents INTEGER,
					error_messages TEXT,
					UNIQUE (file_id, line_type, line_number)
				)`,

				`CREATE TABLE IF NOT EXISTS invoices (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					payment_account_id TEXT NOT NULL,
					business_identifier TEXT NOT NULL DEFAULT '',
					invoice_number TEXT UNIQUE,
					total_cents INTEGER NOT NULL,
					paid_cents INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL,
					due_date DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS eft_credits (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					amount_cents INTEGER NOT NULL,
					remaining_cents INTEGER NOT NULL,
					short_name_id INTEGER NOT NULL REFERENCES eft_short_names(id),
					eft_file_id INTEGER NOT NULL REFERENCES eft_files(id),
					eft_transaction_id INTEGER NOT NULL REFERENCES eft_transactions(id),
					created_on DATETIME NOT NULL,
					CHECK (remaining_cents >= 0 AND remaining_cents <= amount_cents),
					UNIQUE (eft_file_id, eft_transaction_id)
				)`,

				`CREATE TABLE IF NOT EXISTS eft_credit_invoice_links (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					eft_credit_id INTEGER NOT NULL REFERENCES eft_credits(id),
					invoice_id INTEGER NOT NULL REFERENCES invoices(id),
					amount_applied_cents INTEGER NOT NULL,
					status TEXT NOT NULL,
					link_group_id TEXT NOT NULL,
					created_on DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS cas_settlements (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					file_name TEXT NOT NULL UNIQUE,
					received_on DATETIME NOT NULL,
					processed_on DATETIME
				)`,

				`CREATE TABLE IF NOT EXISTS payments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					receipt_number TEXT NOT NULL UNIQUE,
					payment_method TEXT NOT NULL,
					paid_cents INTEGER NOT NULL,
					invoice_number TEXT NOT NULL DEFAULT '',
					payment_date DATETIME,
					status TEXT NOT NULL
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Lookup indexes",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_invoices_account_status ON invoices(payment_account_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_invoices_business_identifier ON invoices(business_identifier)`,
				`CREATE INDEX IF NOT EXISTS idx_eft_credits_short_name ON eft_credits(short_name_id)`,
				`CREATE INDEX IF NOT EXISTS idx_eft_credit_links_credit ON eft_credit_invoice_links(eft_credit_id)`,
				`CREATE INDEX IF NOT EXISTS idx_eft_short_names_state ON eft_short_names(state)`,
			})
		},
	},
}

// SchemaVersion returns the version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies every migration newer than the recorded schema version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}
	return nil
}
