package report

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fakeSource struct {
	files   []models.EFTFile
	names   []models.ShortName
	balance map[int64]decimal.Decimal
	err     error
}

func (s *fakeSource) ListEFTFiles(_ context.Context, status models.ProcessStatus) ([]models.EFTFile, error) {
	var out []models.EFTFile
	for _, f := range s.files {
		if status == "" || f.Status == status {
			out = append(out, f)
		}
	}
	return out, s.err
}

func (s *fakeSource) ListShortNames(_ context.Context, state models.ShortNameState) ([]models.ShortName, error) {
	var out []models.ShortName
	for _, sn := range s.names {
		if state == "" || sn.State == state {
			out = append(out, sn)
		}
	}
	return out, s.err
}

func (s *fakeSource) ShortNameBalance(_ context.Context, id int64) (decimal.Decimal, error) {
	return s.balance[id], nil
}

func testSource() *fakeSource {
	created := time.Date(2023, 8, 14, 11, 39, 0, 0, time.UTC)
	completed := created.Add(time.Minute)
	from := time.Date(2023, 8, 10, 0, 0, 0, 0, time.UTC)
	details := 6
	total := int64(44500)
	account := "1234"
	return &fakeSource{
		files: []models.EFTFile{
			{ID: 1, FileRef: "tdi17_1.txt", Status: models.StatusCompleted, CreatedOn: created, CompletedOn: &completed,
				DepositFromDate: &from, DepositToDate: &from, NumberOfDetails: &details, TotalDeposit: &total},
			{ID: 2, FileRef: "tdi17_2.txt", Status: models.StatusInProgress, CreatedOn: created,
				ErrorMessages: []string{"line 7: TRAILER_COUNT_MISMATCH: Trailer number of details does not match transaction count."}},
		},
		names: []models.ShortName{
			{ID: 10, ShortName: "ABC123", Type: models.ShortNameTypeEFT, State: models.ShortNameLinked, AccountID: &account},
			{ID: 11, ShortName: "WIREPAYER", Type: models.ShortNameTypeWire, State: models.ShortNameUnlinked},
		},
		balance: map[int64]decimal.Decimal{10: decimal.RequireFromString("35"), 11: decimal.RequireFromString("250.5")},
	}
}

func newTestGenerator() *Generator {
	g := NewGenerator(logging.NewMockLogger())
	g.now = func() time.Time { return time.Date(2023, 8, 15, 8, 0, 0, 0, time.UTC) }
	return g
}

func TestBuild_Files(t *testing.T) {
	g := newTestGenerator()
	r, err := g.Build(context.Background(), testSource(), KindFiles, "")
	require.NoError(t, err)
	require.Len(t, r.Files, 2)

	assert.Equal(t, FileRow{
		ID: 1, FileRef: "tdi17_1.txt", Status: "COMPLETED",
		CreatedOn: "2023-08-14 11:39:00", CompletedOn: "2023-08-14 11:40:00",
		DepositFrom: "2023-08-10", DepositTo: "2023-08-10",
		Details: 6, TotalDeposit: "445.00",
	}, r.Files[0])
	assert.Equal(t, 1, r.Files[1].ErrorCount)
	assert.Equal(t, "0.00", r.Files[1].TotalDeposit)
}

func TestBuild_Filters(t *testing.T) {
	g := newTestGenerator()

	r, err := g.Build(context.Background(), testSource(), KindFiles, string(models.StatusInProgress))
	require.NoError(t, err)
	require.Len(t, r.Files, 1)
	assert.Equal(t, "tdi17_2.txt", r.Files[0].FileRef)

	r, err = g.Build(context.Background(), testSource(), KindShortNames, string(models.ShortNameUnlinked))
	require.NoError(t, err)
	require.Len(t, r.ShortNames, 1)
	assert.Equal(t, ShortNameRow{ID: 11, ShortName: "WIREPAYER", Type: "WIRE", State: "UNLINKED", Balance: "250.50"}, r.ShortNames[0])
}

func TestBuild_Errors(t *testing.T) {
	g := newTestGenerator()

	_, err := g.Build(context.Background(), testSource(), Kind("invoices"), "")
	assert.Error(t, err)

	src := testSource()
	src.err = errors.New("db down")
	_, err = g.Build(context.Background(), src, KindShortNames, "")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	g := newTestGenerator()
	files, err := g.Build(context.Background(), testSource(), KindFiles, "")
	require.NoError(t, err)
	names, err := g.Build(context.Background(), testSource(), KindShortNames, "")
	require.NoError(t, err)

	t.Run("csv files", func(t *testing.T) {
		out, err := g.Render(files, "csv")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(out)), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "id,file_ref,status,created_on,completed_on,deposit_from,deposit_to,details,total_deposit,error_count", lines[0])
		assert.Equal(t, "1,tdi17_1.txt,COMPLETED,2023-08-14 11:39:00,2023-08-14 11:40:00,2023-08-10,2023-08-10,6,445.00,0", lines[1])
	})

	t.Run("csv short names", func(t *testing.T) {
		out, err := g.Render(names, "csv")
		require.NoError(t, err)
		assert.Contains(t, string(out), "10,ABC123,EFT,LINKED,1234,35.00")
	})

	t.Run("json", func(t *testing.T) {
		out, err := g.Render(names, "json")
		require.NoError(t, err)
		var decoded Report
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Equal(t, KindShortNames, decoded.Kind)
		assert.Len(t, decoded.ShortNames, 2)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := g.Render(files, "yaml")
		require.NoError(t, err)
		var decoded Report
		require.NoError(t, yaml.Unmarshal(out, &decoded))
		assert.Equal(t, KindFiles, decoded.Kind)
		assert.Equal(t, "tdi17_1.txt", decoded.Files[0].FileRef)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := g.Render(files, "xml")
		assert.Error(t, err)
	})
}
