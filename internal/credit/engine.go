// Package credit turns deposits into short name credits and applies them to
// outstanding invoices.
package credit

import (
	"context"
	"errors"
	"fmt"

	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for a credit amount that is not a positive
// number of whole cents.
var ErrInvalidAmount = errors.New("credit amount must be positive whole cents")

// Store is the persistence the engine needs. FindCredit returns
// storage.ErrNotFound when no credit exists.
type Store interface {
	FindCredit(ctx context.Context, fileID, transactionID int64) (*models.EFTCredit, error)
	CreateCredit(ctx context.Context, c *models.EFTCredit) error
	UpdateCreditRemaining(ctx context.Context, id int64, remaining decimal.Decimal) error
	CreateCreditInvoiceLink(ctx context.Context, l *models.EFTCreditInvoiceLink) error
	FindCreditsWithBalance(ctx context.Context, shortNameID int64) ([]models.EFTCredit, error)
	FindOutstandingInvoices(ctx context.Context, accountID string) ([]models.Invoice, error)
	DecrementInvoiceBalance(ctx context.Context, id int64, amount decimal.Decimal) error
}

// Request is one deposit to credit to a short name.
type Request struct {
	ShortName     *models.ShortName
	FileID        int64
	TransactionID int64
	Amount        decimal.Decimal
}

// Result describes what Apply or ApplyBalance did.
type Result struct {
	Credits  []models.EFTCredit
	Links    []models.EFTCreditInvoiceLink
	Applied  decimal.Decimal
	Replayed bool
}

// Engine applies credits. It holds no state between calls.
type Engine struct {
	logger     logging.Logger
	newGroupID func() string
}

// NewEngine creates an Engine.
func NewEngine(logger logging.Logger) *Engine {
	return &Engine{logger: logger, newGroupID: uuid.NewString}
}

// Apply creates the credit for req and, when the short name is linked, pays
// down the account's outstanding invoices with it. A credit that already
// exists for the same file and transaction line is reported as replayed and
// left untouched. On error the caller must roll back everything Apply wrote.
func (e *Engine) Apply(ctx context.Context, store Store, req Request) (*Result, error) {
	if req.ShortName == nil {
		return nil, fmt.Errorf("short name is required")
	}
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(models.MoneyPlaces)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, req.Amount)
	}

	existing, err := store.FindCredit(ctx, req.FileID, req.TransactionID)
	switch {
	case err == nil:
		e.logger.Info("Credit already exists, skipping",
			logging.F(logging.FieldCreditID, existing.ID),
			logging.F(logging.FieldFileID, req.FileID),
			logging.F(logging.FieldTransactionID, req.TransactionID))
		return &Result{Credits: []models.EFTCredit{*existing}, Applied: decimal.Zero, Replayed: true}, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing credit: %w", err)
	}

	credit := &models.EFTCredit{
		Amount:           req.Amount,
		RemainingAmount:  req.Amount,
		ShortNameID:      req.ShortName.ID,
		EFTFileID:        req.FileID,
		EFTTransactionID: req.TransactionID,
	}
	if err := store.CreateCredit(ctx, credit); err != nil {
		return nil, err
	}

	result := &Result{Applied: decimal.Zero}
	if req.ShortName.IsLinked() {
		invoices, err := store.FindOutstandingInvoices(ctx, *req.ShortName.AccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to find outstanding invoices: %w", err)
		}
		links, err := e.applyToInvoices(ctx, store, credit, invoices, e.newGroupID())
		if err != nil {
			return nil, err
		}
		result.Links = links
	}

	result.Credits = []models.EFTCredit{*credit}
	result.Applied = req.Amount.Sub(credit.RemainingAmount)

	e.logger.Info("Created credit",
		logging.F(logging.FieldCreditID, credit.ID),
		logging.F(logging.FieldShortName, req.ShortName.ShortName),
		logging.F(logging.FieldAmount, models.FormatAmount(req.Amount)),
		logging.F("applied", models.FormatAmount(result.Applied)))
	return result, nil
}

// ApplyBalance spends the short name's unapplied credits, oldest first, on
// its account's outstanding invoices. It is used after a short name becomes
// linked.
func (e *Engine) ApplyBalance(ctx context.Context, store Store, sn *models.ShortName) (*Result, error) {
	if sn == nil || !sn.IsLinked() {
		return nil, fmt.Errorf("short name must be linked to apply its balance")
	}

	credits, err := store.FindCreditsWithBalance(ctx, sn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find credits: %w", err)
	}
	invoices, err := store.FindOutstandingInvoices(ctx, *sn.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find outstanding invoices: %w", err)
	}

	result := &Result{Applied: decimal.Zero}
	groupID := e.newGroupID()
	for i := range credits {
		credit := &credits[i]
		before := credit.RemainingAmount

		links, err := e.applyToInvoices(ctx, store, credit, invoices, groupID)
		if err != nil {
			return nil, err
		}
		invoices = remainingInvoices(invoices, links)

		result.Credits = append(result.Credits, *credit)
		result.Links = append(result.Links, links...)
		result.Applied = result.Applied.Add(before.Sub(credit.RemainingAmount))
		if len(invoices) == 0 {
			break
		}
	}

	e.logger.Info("Applied short name balance",
		logging.F(logging.FieldShortName, sn.ShortName),
		logging.F(logging.FieldCount, len(result.Links)),
		logging.F(logging.FieldAmount, models.FormatAmount(result.Applied)))
	return result, nil
}

// applyToInvoices walks invoices in order while the credit has money left.
// credit.RemainingAmount is updated in memory and in the store.
func (e *Engine) applyToInvoices(ctx context.Context, store Store, credit *models.EFTCredit, invoices []models.Invoice, groupID string) ([]models.EFTCreditInvoiceLink, error) {
	var links []models.EFTCreditInvoiceLink
	remaining := credit.RemainingAmount

	for _, inv := range invoices {
		if !remaining.IsPositive() {
			break
		}
		balance := inv.Balance()
		if !balance.IsPositive() {
			continue
		}

		applied := models.MinAmount(balance, remaining)
		if err := store.DecrementInvoiceBalance(ctx, inv.ID, applied); err != nil {
			return nil, fmt.Errorf("failed to apply credit %d to invoice %d: %w", credit.ID, inv.ID, err)
		}
		link := &models.EFTCreditInvoiceLink{
			EFTCreditID:   credit.ID,
			InvoiceID:     inv.ID,
			AmountApplied: applied,
			Status:        models.CreditLinkPending,
			LinkGroupID:   groupID,
		}
		if err := store.CreateCreditInvoiceLink(ctx, link); err != nil {
			return nil, fmt.Errorf("failed to link credit %d to invoice %d: %w", credit.ID, inv.ID, err)
		}
		remaining = remaining.Sub(applied)
		links = append(links, *link)

		e.logger.Debug("Applied credit to invoice",
			logging.F(logging.FieldCreditID, credit.ID),
			logging.F(logging.FieldInvoiceID, inv.ID),
			logging.F(logging.FieldAmount, models.FormatAmount(applied)))
	}

	if len(links) > 0 {
		if err := store.UpdateCreditRemaining(ctx, credit.ID, remaining); err != nil {
			return nil, err
		}
	}
	credit.RemainingAmount = remaining
	return links, nil
}

// remainingInvoices returns invoices with the applied links deducted,
// dropping those that are now paid.
func remainingInvoices(invoices []models.Invoice, links []models.EFTCreditInvoiceLink) []models.Invoice {
	paid := make(map[int64]decimal.Decimal, len(links))
	for _, l := range links {
		paid[l.InvoiceID] = paid[l.InvoiceID].Add(l.AmountApplied)
	}

	out := invoices[:0:0]
	for _, inv := range invoices {
		inv.Paid = inv.Paid.Add(paid[inv.ID])
		if inv.Balance().IsPositive() {
			out = append(out, inv)
		}
	}
	return out
}
