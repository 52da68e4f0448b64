package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bcgov/pay-reconciler/internal/models"

	"github.com/shopspring/decimal"
)

func cents(amount decimal.Decimal) int64 {
	return models.AmountToCents(amount)
}

func amount(c int64) decimal.Decimal {
	return models.NewAmountFromCents(c)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func encodeMessages(msgs []string) (sql.NullString, error) {
	if len(msgs) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode error messages: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeMessages(ns sql.NullString) ([]string, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var msgs []string
	if err := json.Unmarshal([]byte(ns.String), &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode error messages: %w", err)
	}
	return msgs, nil
}

func now() time.Time {
	return time.Now().UTC()
}
