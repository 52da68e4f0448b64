package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bcgov/pay-reconciler/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func createTestFile(t *testing.T, store *SQLiteStorage, ref string) *models.EFTFile {
	t.Helper()
	f := &models.EFTFile{FileRef: ref}
	require.NoError(t, store.CreateEFTFile(context.Background(), f))
	return f
}

func createTestLine(t *testing.T, store *SQLiteStorage, fileID int64, number int) *models.EFTTransactionLine {
	t.Helper()
	l := &models.EFTTransactionLine{
		FileID:     fileID,
		LineType:   models.LineTypeTransaction,
		LineNumber: number,
		Status:     models.StatusInProgress,
	}
	require.NoError(t, store.UpsertEFTLine(context.Background(), l))
	return l
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.CreateEFTFile(ctx, &models.EFTFile{FileRef: "rolled-back.txt"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.FindEFTFileByRef(ctx, "rolled-back.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.WithTx(ctx, func(tx *Tx) error {
		return tx.CreateEFTFile(ctx, &models.EFTFile{FileRef: "kept.txt"})
	})
	require.NoError(t, err)
	_, err = store.FindEFTFileByRef(ctx, "kept.txt")
	assert.NoError(t, err)
}

func TestSavepoints(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	require.NoError(t, tx.Savepoint(ctx, "line_1"))
	require.NoError(t, tx.CreateShortName(ctx, &models.ShortName{ShortName: "KEPT", Type: models.ShortNameTypeEFT, State: models.ShortNameUnlinked}))
	require.NoError(t, tx.ReleaseSavepoint(ctx, "line_1"))

	require.NoError(t, tx.Savepoint(ctx, "line_2"))
	require.NoError(t, tx.CreateShortName(ctx, &models.ShortName{ShortName: "UNDONE", Type: models.ShortNameTypeEFT, State: models.ShortNameUnlinked}))
	require.NoError(t, tx.RollbackToSavepoint(ctx, "line_2"))

	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback(), "rollback after commit is harmless")

	names, err := store.ListShortNames(ctx, "")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "KEPT", names[0].ShortName)
}

func TestSavepoint_RejectsBadName(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	for _, name := range []string{"", "1abc", "a; DROP TABLE invoices", "a-b"} {
		assert.ErrorIs(t, tx.Savepoint(ctx, name), ErrInvalidParameter, name)
	}
}

func TestEFTFiles(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	f := createTestFile(t, store, "tdi17_20230814.txt")
	assert.NotZero(t, f.ID)
	assert.Equal(t, models.StatusInProgress, f.Status)

	created := time.Date(2023, 8, 14, 16, 1, 0, 0, time.UTC)
	details := 6
	total := int64(3852750)
	f.FileCreationDate = &created
	f.NumberOfDetails = &details
	f.TotalDeposit = &total
	f.ErrorMessages = []string{"line 5: ACCOUNT_SHORTNAME_REQUIRED"}
	require.NoError(t, store.UpdateEFTFile(ctx, f))

	got, err := store.FindEFTFileByRef(ctx, "tdi17_20230814.txt")
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, created, *got.FileCreationDate)
	assert.Equal(t, 6, *got.NumberOfDetails)
	assert.Equal(t, total, *got.TotalDeposit)
	assert.Equal(t, f.ErrorMessages, got.ErrorMessages)
	assert.Nil(t, got.CompletedOn)

	completed := time.Date(2023, 8, 14, 17, 0, 0, 0, time.UTC)
	got.Status = models.StatusCompleted
	got.CompletedOn = &completed
	got.ErrorMessages = nil
	require.NoError(t, store.UpdateEFTFile(ctx, got))

	inProgress, err := store.ListEFTFiles(ctx, models.StatusInProgress)
	require.NoError(t, err)
	assert.Empty(t, inProgress)

	all, err := store.ListEFTFiles(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsCompleted())
	assert.Empty(t, all[0].ErrorMessages)

	_, err = store.FindEFTFileByRef(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.CreateEFTFile(ctx, &models.EFTFile{FileRef: "tdi17_20230814.txt"}), "file_ref is unique")
	assert.ErrorIs(t, store.UpdateEFTFile(ctx, &models.EFTFile{ID: 999}), ErrNotFound)
}

func TestUpsertEFTLine_ReusesRow(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	f := createTestFile(t, store, "lines.txt")

	first := createTestLine(t, store, f.ID, 1)

	amountC := decimal.NewFromInt(13500)
	deposit := time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC)
	again := &models.EFTTransactionLine{
		FileID:             f.ID,
		LineType:           models.LineTypeTransaction,
		LineNumber:         1,
		Status:             models.StatusFailed,
		DepositDate:        &deposit,
		DepositAmountCents: &amountC,
		ErrorMessages:      []string{"boom"},
	}
	require.NoError(t, store.UpsertEFTLine(ctx, again))
	assert.Equal(t, first.ID, again.ID)

	header := &models.EFTTransactionLine{FileID: f.ID, LineType: models.LineTypeHeader, LineNumber: 0, Status: models.StatusCompleted}
	require.NoError(t, store.UpsertEFTLine(ctx, header))
	assert.NotEqual(t, first.ID, header.ID)

	lines, err := store.ListEFTLines(ctx, f.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, models.LineTypeHeader, lines[0].LineType)
	assert.Equal(t, models.StatusFailed, lines[1].Status)
	assert.Equal(t, int64(13500), lines[1].DepositAmountCents.IntPart())
	assert.Equal(t, deposit, *lines[1].DepositDate)
	assert.Equal(t, []string{"boom"}, lines[1].ErrorMessages)
}

func TestShortNames(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sn := &models.ShortName{ShortName: "ABC123", Type: models.ShortNameTypeEFT, State: models.ShortNameUnlinked}
	require.NoError(t, store.CreateShortName(ctx, sn))
	assert.Equal(t, "ABC123", sn.SourceKey)

	got, err := store.FindShortName(ctx, "ABC123", models.ShortNameTypeEFT)
	require.NoError(t, err)
	assert.Equal(t, sn.ID, got.ID)
	assert.Nil(t, got.AccountID)

	_, err = store.FindShortName(ctx, "ABC123", models.ShortNameTypeWire)
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &models.ShortName{ShortName: "ABC123", Type: models.ShortNameTypeEFT, State: models.ShortNameUnlinked}
	assert.Error(t, store.CreateShortName(ctx, dup), "(source_key, type) is unique")

	require.NoError(t, store.LinkShortName(ctx, sn.ID, "1234"))
	linked, err := store.FindShortNameByID(ctx, sn.ID)
	require.NoError(t, err)
	assert.True(t, linked.IsLinked())
	assert.Equal(t, "1234", *linked.AccountID)

	assert.ErrorIs(t, store.LinkShortName(ctx, 999, "1234"), ErrNotFound)
	assert.ErrorIs(t, store.LinkShortName(ctx, sn.ID, ""), ErrEmptyString)

	unlinked, err := store.ListShortNames(ctx, models.ShortNameUnlinked)
	require.NoError(t, err)
	assert.Empty(t, unlinked)
}

func TestNextShortNameSequence(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.NextShortNameSequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCredits(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	f := createTestFile(t, store, "credits.txt")
	line := createTestLine(t, store, f.ID, 1)
	sn := &models.ShortName{ShortName: "ABC", Type: models.ShortNameTypeEFT, State: models.ShortNameLinked}
	require.NoError(t, store.CreateShortName(ctx, sn))

	c := &models.EFTCredit{
		Amount:           dec("135.00"),
		RemainingAmount:  dec("135.00"),
		ShortNameID:      sn.ID,
		EFTFileID:        f.ID,
		EFTTransactionID: line.ID,
	}
	require.NoError(t, store.CreateCredit(ctx, c))

	got, err := store.FindCredit(ctx, f.ID, line.ID)
	require.NoError(t, err)
	assert.True(t, dec("135").Equal(got.Amount))

	dup := *c
	assert.Error(t, store.CreateCredit(ctx, &dup), "one credit per file line")

	require.NoError(t, store.UpdateCreditRemaining(ctx, c.ID, dec("35.50")))
	assert.ErrorIs(t, store.UpdateCreditRemaining(ctx, c.ID, dec("-1")), ErrInvalidParameter)
	assert.Error(t, store.UpdateCreditRemaining(ctx, c.ID, dec("200")), "remaining cannot exceed amount")

	withBalance, err := store.FindCreditsWithBalance(ctx, sn.ID)
	require.NoError(t, err)
	require.Len(t, withBalance, 1)
	assert.Equal(t, "35.50", withBalance[0].RemainingAmount.StringFixed(2))

	balance, err := store.ShortNameBalance(ctx, sn.ID)
	require.NoError(t, err)
	assert.Equal(t, "35.50", balance.StringFixed(2))

	inv := &models.Invoice{PaymentAccountID: "1234", Total: dec("99.50"), DueDate: time.Now()}
	require.NoError(t, store.CreateInvoice(ctx, inv))
	link := &models.EFTCreditInvoiceLink{EFTCreditID: c.ID, InvoiceID: inv.ID, AmountApplied: dec("99.50"), LinkGroupID: "g1"}
	require.NoError(t, store.CreateCreditInvoiceLink(ctx, link))
	assert.Equal(t, models.CreditLinkPending, link.Status)

	links, err := store.ListCreditLinks(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "99.50", links[0].AmountApplied.StringFixed(2))
	assert.Equal(t, "g1", links[0].LinkGroupID)

	_, err = store.FindCredit(ctx, f.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoices_Outstanding(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2023, 8, d, 0, 0, 0, 0, time.UTC) }

	seed := []*models.Invoice{
		{PaymentAccountID: "1", InvoiceNumber: "INV-3", Total: dec("30"), DueDate: day(3)},
		{PaymentAccountID: "1", InvoiceNumber: "INV-1", Total: dec("10"), DueDate: day(1)},
		{PaymentAccountID: "1", InvoiceNumber: "INV-1B", Total: dec("15"), Paid: dec("5"), DueDate: day(1)},
		{PaymentAccountID: "1", InvoiceNumber: "PAID", Total: dec("20"), Paid: dec("20"), DueDate: day(1)},
		{PaymentAccountID: "2", InvoiceNumber: "OTHER", Total: dec("20"), DueDate: day(1)},
	}
	for _, inv := range seed {
		require.NoError(t, store.CreateInvoice(ctx, inv))
	}
	assert.Equal(t, models.InvoicePartial, seed[2].Status)
	assert.Equal(t, models.InvoicePaid, seed[3].Status)

	outstanding, err := store.FindOutstandingInvoices(ctx, "1")
	require.NoError(t, err)
	var numbers []string
	for _, inv := range outstanding {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	assert.Equal(t, []string{"INV-1", "INV-1B", "INV-3"}, numbers)

	require.NoError(t, store.DecrementInvoiceBalance(ctx, seed[0].ID, dec("12.34")))
	inv, err := store.FindInvoiceByNumber(ctx, "INV-3")
	require.NoError(t, err)
	assert.Equal(t, "12.34", inv.Paid.StringFixed(2))
	assert.Equal(t, models.InvoicePartial, inv.Status)

	require.NoError(t, store.DecrementInvoiceBalance(ctx, seed[0].ID, dec("17.66")))
	inv, err = store.FindInvoiceByID(ctx, seed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, inv.Status)
	assert.True(t, inv.Balance().IsZero())

	assert.ErrorIs(t, store.DecrementInvoiceBalance(ctx, seed[1].ID, dec("10.01")), ErrOverpayment)
	assert.ErrorIs(t, store.DecrementInvoiceBalance(ctx, seed[1].ID, dec("0")), ErrInvalidParameter)
	assert.ErrorIs(t, store.DecrementInvoiceBalance(ctx, 999, dec("1")), ErrNotFound)
}

func TestInvoices_BusinessIdentifier(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"T123", "T123", "BC999"} {
		require.NoError(t, store.CreateInvoice(ctx, &models.Invoice{PaymentAccountID: "1", BusinessIdentifier: id, Total: dec("1"), DueDate: time.Now()}))
	}

	n, err := store.UpdateBusinessIdentifier(ctx, "T123", "BC123")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.UpdateBusinessIdentifier(ctx, "T123", "BC123")
	require.NoError(t, err)
	assert.Zero(t, n, "rename is idempotent")

	renamed, err := store.FindInvoicesByBusinessIdentifier(ctx, "BC123")
	require.NoError(t, err)
	assert.Len(t, renamed, 2)

	_, err = store.UpdateBusinessIdentifier(ctx, "", "BC123")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestCasSettlementsAndPayments(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cs := &models.CasSettlement{FileName: "cas_settlement.csv"}
	require.NoError(t, store.CreateCasSettlement(ctx, cs))
	assert.Error(t, store.CreateCasSettlement(ctx, &models.CasSettlement{FileName: "cas_settlement.csv"}))

	processed := time.Date(2023, 8, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkCasSettlementProcessed(ctx, cs.ID, processed))
	got, err := store.FindCasSettlement(ctx, "cas_settlement.csv")
	require.NoError(t, err)
	assert.Equal(t, processed, *got.ProcessedOn)

	_, err = store.FindCasSettlement(ctx, "other.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	p := &models.Payment{ReceiptNumber: "R1", PaymentMethod: "Online Banking Payments", PaidAmount: dec("10"), Status: models.PaymentPartial}
	require.NoError(t, store.UpsertPayment(ctx, p))
	firstID := p.ID

	p2 := &models.Payment{ReceiptNumber: "R1", PaymentMethod: "Online Banking Payments", PaidAmount: dec("25.10"), Status: models.PaymentCompleted}
	require.NoError(t, store.UpsertPayment(ctx, p2))
	assert.Equal(t, firstID, p2.ID)

	payment, err := store.FindPaymentByReceipt(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "25.10", payment.PaidAmount.StringFixed(2))
	assert.Equal(t, models.PaymentCompleted, payment.Status)
}
