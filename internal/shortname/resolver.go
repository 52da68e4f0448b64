// Package shortname maps payer keys taken from deposit descriptions to short
// name records.
package shortname

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/storage"
)

var (
	// ErrEmptyKey is returned when a transaction carries no payer key.
	ErrEmptyKey = errors.New("short name key is empty")
	// ErrAlreadyLinked is returned when linking a short name that belongs to
	// another account.
	ErrAlreadyLinked = errors.New("short name is linked to another account")
)

// Store is the persistence the resolver needs. Lookups return
// storage.ErrNotFound when nothing matches.
type Store interface {
	FindShortName(ctx context.Context, sourceKey string, typ models.ShortNameType) (*models.ShortName, error)
	FindShortNameByID(ctx context.Context, id int64) (*models.ShortName, error)
	CreateShortName(ctx context.Context, sn *models.ShortName) error
	NextShortNameSequence(ctx context.Context) (int64, error)
	LinkShortName(ctx context.Context, id int64, accountID string) error
}

// Request identifies the payer of one transaction.
type Request struct {
	Key      string
	Type     models.ShortNameType
	Generate bool
}

// Resolver finds or lazily creates short names.
type Resolver struct {
	logger logging.Logger
}

// NewResolver creates a Resolver.
func NewResolver(logger logging.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve returns the short name for req, creating it on first sight.
// created reports whether a new row was written. An existing row is returned
// unchanged whatever its state.
func (r *Resolver) Resolve(ctx context.Context, store Store, req Request) (sn *models.ShortName, created bool, err error) {
	if req.Key == "" {
		return nil, false, ErrEmptyKey
	}

	existing, err := store.FindShortName(ctx, req.Key, req.Type)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up short name %q: %w", req.Key, err)
	}

	sn = &models.ShortName{
		ShortName: req.Key,
		SourceKey: req.Key,
		Type:      req.Type,
		State:     models.ShortNameUnlinked,
	}
	if req.Generate {
		seq, err := store.NextShortNameSequence(ctx)
		if err != nil {
			return nil, false, err
		}
		sn.ShortName = req.Key + " " + strconv.FormatInt(seq, 10)
		sn.State = models.ShortNameGenerated
	}

	if err := store.CreateShortName(ctx, sn); err != nil {
		return nil, false, err
	}

	r.logger.Info("Created short name",
		logging.F(logging.FieldShortName, sn.ShortName),
		logging.F(logging.FieldShortNameID, sn.ID),
		logging.F(logging.FieldStatus, sn.State))
	return sn, true, nil
}

// Link attaches the short name to an account. Linking again to the same
// account is a no-op.
func (r *Resolver) Link(ctx context.Context, store Store, id int64, accountID string) (*models.ShortName, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required to link short name %d", id)
	}

	sn, err := store.FindShortNameByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load short name %d: %w", id, err)
	}
	if sn.IsLinked() {
		if *sn.AccountID == accountID {
			return sn, nil
		}
		return nil, fmt.Errorf("short name %d (account %s): %w", id, *sn.AccountID, ErrAlreadyLinked)
	}

	if err := store.LinkShortName(ctx, id, accountID); err != nil {
		return nil, err
	}
	sn.State = models.ShortNameLinked
	sn.AccountID = &accountID

	r.logger.Info("Linked short name",
		logging.F(logging.FieldShortName, sn.ShortName),
		logging.F(logging.FieldAccountID, accountID))
	return sn, nil
}
