package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bcgov/pay-reconciler/internal/blob"
	"bcgov/pay-reconciler/internal/credit"
	"bcgov/pay-reconciler/internal/eftparser"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/parsererror"
	"bcgov/pay-reconciler/internal/queue"
	"bcgov/pay-reconciler/internal/shortname"
	"bcgov/pay-reconciler/internal/storage"
)

// TxBeginner opens the transaction a file is reconciled in.
type TxBeginner interface {
	BeginTx(ctx context.Context) (*storage.Tx, error)
}

// EFTOptions configures EFT reconciliation.
type EFTOptions struct {
	LocationID string
	Patterns   eftparser.Patterns
}

// Validate checks the settings reconciliation cannot run without.
func (o EFTOptions) Validate() error {
	switch {
	case o.LocationID == "":
		return &parsererror.ValidationError{Subject: "eft configuration", Reason: "location id is required"}
	case len(o.Patterns.EFT) == 0:
		return &parsererror.ValidationError{Subject: "eft configuration", Reason: "eft patterns are required"}
	case len(o.Patterns.Wire) == 0:
		return &parsererror.ValidationError{Subject: "eft configuration", Reason: "wire patterns are required"}
	}
	return nil
}

// EFTReconciler reconciles TDI17 files into short name credits.
type EFTReconciler struct {
	db         TxBeginner
	blobs      blob.Store
	resolver   *shortname.Resolver
	engine     *credit.Engine
	opts       EFTOptions
	classifier *eftparser.Classifier
	logger     logging.Logger
	now        func() time.Time
}

// NewEFTReconciler creates an EFTReconciler.
func NewEFTReconciler(db TxBeginner, blobs blob.Store, resolver *shortname.Resolver, engine *credit.Engine, opts EFTOptions, logger logging.Logger) *EFTReconciler {
	return &EFTReconciler{
		db:         db,
		blobs:      blobs,
		resolver:   resolver,
		engine:     engine,
		opts:       opts,
		classifier: eftparser.NewClassifier(opts.Patterns),
		logger:     logger,
		now:        time.Now,
	}
}

// Reconcile fetches, parses and applies one TDI17 file in a single
// transaction. Each transaction line runs under its own savepoint so a
// failing line is rolled back without losing the rest of the file. The
// returned error is fatal and means nothing was kept.
func (r *EFTReconciler) Reconcile(ctx context.Context, msg queue.FileMessage) (*Outcome, error) {
	log := r.logger.WithFields(logging.F(logging.FieldFileName, msg.FileName), logging.F(logging.FieldLocation, msg.Location))

	if err := r.opts.Validate(); err != nil {
		return nil, parsererror.Fatal("validate eft configuration", err)
	}

	data, err := r.blobs.GetObject(ctx, msg.Location, msg.FileName)
	if err != nil {
		return nil, parsererror.Fatal("fetch eft file", err)
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return nil, parsererror.Fatal("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	file, err := findOrCreateFile(ctx, tx, msg.FileName)
	if err != nil {
		return nil, parsererror.Fatal("find eft file", err)
	}
	log = log.WithField(logging.FieldFileID, file.ID)

	if file.IsCompleted() {
		log.Info("File already completed, skipping")
		if err := tx.Commit(); err != nil {
			return nil, parsererror.Fatal("commit", err)
		}
		return &Outcome{Status: StatusReplayed, FileName: msg.FileName}, nil
	}

	parsed := eftparser.ParseFile(data, r.classifier)
	out := &Outcome{FileName: msg.FileName, FileErrors: parsed.ErrorMessages()}

	applyFileInfo(file, parsed)
	if err := r.persistRecords(ctx, tx, file.ID, parsed); err != nil {
		return nil, parsererror.Fatal("persist eft lines", err)
	}

	for _, txn := range parsed.Transactions {
		if err := r.reconcileLine(ctx, tx, file.ID, txn, out, log); err != nil {
			return nil, parsererror.Fatal("reconcile eft line", err)
		}
	}

	if parsed.CanComplete() && len(out.LineErrors) == 0 {
		completed := r.now().UTC()
		file.Status = models.StatusCompleted
		file.CompletedOn = &completed
		file.ErrorMessages = nil
		out.Status = StatusSuccess
	} else {
		file.Status = models.StatusInProgress
		file.ErrorMessages = append(append([]string{}, out.FileErrors...), out.LineErrors...)
		out.Status = StatusPartial
	}
	if err := tx.UpdateEFTFile(ctx, file); err != nil {
		return nil, parsererror.Fatal("update eft file", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, parsererror.Fatal("commit", err)
	}

	log.Info("EFT file reconciled",
		logging.F(logging.FieldStatus, out.Status),
		logging.F(logging.FieldCount, len(parsed.Transactions)),
		logging.F("credits_created", out.CreditsCreated),
		logging.F("credits_replayed", out.CreditsReplayed),
		logging.F("links_created", out.LinksCreated),
		logging.F("errors", len(out.FileErrors)+len(out.LineErrors)))
	return out, nil
}

func findOrCreateFile(ctx context.Context, tx *storage.Tx, ref string) (*models.EFTFile, error) {
	file, err := tx.FindEFTFileByRef(ctx, ref)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	file = &models.EFTFile{FileRef: ref, Status: models.StatusInProgress}
	if err := tx.CreateEFTFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func applyFileInfo(file *models.EFTFile, parsed *eftparser.File) {
	if h := parsed.Header; h != nil {
		file.FileCreationDate = h.CreationDatetime
		file.DepositFromDate = h.DepositStartDate
		file.DepositToDate = h.DepositEndDate
	}
	if t := parsed.Trailer; t != nil {
		file.NumberOfDetails = t.NumberOfDetails
		if t.TotalDepositAmount != nil {
			total := t.TotalDepositAmount.IntPart()
			file.TotalDeposit = &total
		}
	}
}

// record is the part of a parsed header or trailer that gets persisted.
type record interface {
	Index() int
	HasErrors() bool
	ErrorMessages() []string
}

// persistRecords writes one row per parsed record. Transactions start
// IN_PROGRESS, or FAILED when they did not parse.
func (r *EFTReconciler) persistRecords(ctx context.Context, tx *storage.Tx, fileID int64, parsed *eftparser.File) error {
	if h := parsed.Header; h != nil {
		if err := upsertRecord(ctx, tx, fileID, models.LineTypeHeader, &h.Line); err != nil {
			return err
		}
	}
	for _, txn := range parsed.Transactions {
		row := transactionRow(fileID, txn)
		if txn.HasErrors() {
			row.Status = models.StatusFailed
		}
		if err := tx.UpsertEFTLine(ctx, row); err != nil {
			return err
		}
	}
	if t := parsed.Trailer; t != nil {
		if err := upsertRecord(ctx, tx, fileID, models.LineTypeTrailer, &t.Line); err != nil {
			return err
		}
	}
	return nil
}

func upsertRecord(ctx context.Context, tx *storage.Tx, fileID int64, lineType models.LineType, rec record) error {
	status := models.StatusCompleted
	if rec.HasErrors() {
		status = models.StatusFailed
	}
	return tx.UpsertEFTLine(ctx, &models.EFTTransactionLine{
		FileID:        fileID,
		LineType:      lineType,
		LineNumber:    rec.Index(),
		Status:        status,
		ErrorMessages: rec.ErrorMessages(),
	})
}

func transactionRow(fileID int64, txn *eftparser.Transaction) *models.EFTTransactionLine {
	return &models.EFTTransactionLine{
		FileID:             fileID,
		LineType:           models.LineTypeTransaction,
		LineNumber:         txn.Index(),
		Status:             models.StatusInProgress,
		DepositDate:        txn.DepositDatetime,
		TransactionDate:    txn.TransactionDate,
		DepositAmountCents: txn.DepositAmountCAD,
		ErrorMessages:      txn.ErrorMessages(),
	}
}

// reconcileLine credits one transaction. Application failures are recorded
// on the line and in out; only storage failures outside the savepoint are
// returned.
func (r *EFTReconciler) reconcileLine(ctx context.Context, tx *storage.Tx, fileID int64, txn *eftparser.Transaction, out *Outcome, log logging.Logger) error {
	if txn.HasErrors() {
		return nil
	}
	row := transactionRow(fileID, txn)
	amount := txn.CreditAmount()

	if !txn.Reconcilable(r.opts.LocationID) || !amount.IsPositive() {
		row.Status = models.StatusSkipped
		return tx.UpsertEFTLine(ctx, row)
	}

	savepoint := fmt.Sprintf("line_%d", txn.Index())
	if err := tx.Savepoint(ctx, savepoint); err != nil {
		return err
	}

	res, applyErr := r.applyLine(ctx, tx, fileID, txn, row)
	if applyErr != nil {
		if err := tx.RollbackToSavepoint(ctx, savepoint); err != nil {
			return err
		}
		lineErr := &parsererror.LineError{FileName: out.FileName, Line: txn.Index(), Err: applyErr}
		log.WithError(applyErr).Error("Failed to apply transaction line", logging.F(logging.FieldLine, txn.Index()))
		out.LineErrors = append(out.LineErrors, lineErr.Error())

		row.Status = models.StatusFailed
		row.ShortNameID = nil
		row.ErrorMessages = []string{applyErr.Error()}
		return tx.UpsertEFTLine(ctx, row)
	}
	if err := tx.ReleaseSavepoint(ctx, savepoint); err != nil {
		return err
	}

	if res.Replayed {
		out.CreditsReplayed++
	} else {
		out.CreditsCreated += len(res.Credits)
		out.LinksCreated += len(res.Links)
	}
	return nil
}

// applyLine resolves the payer, marks the line completed and credits it.
func (r *EFTReconciler) applyLine(ctx context.Context, tx *storage.Tx, fileID int64, txn *eftparser.Transaction, row *models.EFTTransactionLine) (*credit.Result, error) {
	sn, _, err := r.resolver.Resolve(ctx, tx, shortname.Request{
		Key:      txn.ShortNameKey,
		Type:     txn.ShortNameType,
		Generate: txn.GenerateShortName,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve short name: %w", err)
	}

	row.Status = models.StatusCompleted
	row.ShortNameID = &sn.ID
	if err := tx.UpsertEFTLine(ctx, row); err != nil {
		return nil, err
	}

	res, err := r.engine.Apply(ctx, tx, credit.Request{
		ShortName:     sn,
		FileID:        fileID,
		TransactionID: row.ID,
		Amount:        txn.CreditAmount(),
	})
	if err != nil {
		return nil, fmt.Errorf("apply credit: %w", err)
	}
	return res, nil
}
