package reconcile

import (
	"context"

	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/parsererror"
	"bcgov/pay-reconciler/internal/queue"
)

// IdentifierStore relabels invoices filed under a temporary identifier.
type IdentifierStore interface {
	UpdateBusinessIdentifier(ctx context.Context, oldID, newID string) (int64, error)
}

// RenameIdentifier moves invoices from the temporary business identifier to
// the registered one. Running it again changes nothing.
func RenameIdentifier(ctx context.Context, store IdentifierStore, update queue.IdentifierUpdate, logger logging.Logger) (int64, error) {
	if update.TempIdentifier == "" || update.Identifier == "" {
		return 0, parsererror.Fatal("rename identifier", &parsererror.ValidationError{
			Subject: "identifier update",
			Reason:  "tempidentifier and identifier are required",
		})
	}

	n, err := store.UpdateBusinessIdentifier(ctx, update.TempIdentifier, update.Identifier)
	if err != nil {
		return 0, parsererror.Fatal("rename identifier", err)
	}
	logger.Info("Updated business identifier",
		logging.F("temp_identifier", update.TempIdentifier),
		logging.F("identifier", update.Identifier),
		logging.F(logging.FieldCount, n))
	return n, nil
}
