// Package report exports reconciliation state for operators.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bcgov/pay-reconciler/internal/dateutils"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Kind selects what a report lists.
type Kind string

const (
	KindFiles      Kind = "files"
	KindShortNames Kind = "shortnames"
)

// Source is the storage a report reads from.
type Source interface {
	ListEFTFiles(ctx context.Context, status models.ProcessStatus) ([]models.EFTFile, error)
	ListShortNames(ctx context.Context, state models.ShortNameState) ([]models.ShortName, error)
	ShortNameBalance(ctx context.Context, shortNameID int64) (decimal.Decimal, error)
}

// FileRow summarises one EFT file.
type FileRow struct {
	ID           int64  `json:"id" yaml:"id" csv:"id"`
	FileRef      string `json:"file_ref" yaml:"file_ref" csv:"file_ref"`
	Status       string `json:"status" yaml:"status" csv:"status"`
	CreatedOn    string `json:"created_on" yaml:"created_on" csv:"created_on"`
	CompletedOn  string `json:"completed_on,omitempty" yaml:"completed_on,omitempty" csv:"completed_on"`
	DepositFrom  string `json:"deposit_from,omitempty" yaml:"deposit_from,omitempty" csv:"deposit_from"`
	DepositTo    string `json:"deposit_to,omitempty" yaml:"deposit_to,omitempty" csv:"deposit_to"`
	Details      int    `json:"details" yaml:"details" csv:"details"`
	TotalDeposit string `json:"total_deposit" yaml:"total_deposit" csv:"total_deposit"`
	ErrorCount   int    `json:"error_count" yaml:"error_count" csv:"error_count"`
}

// ShortNameRow summarises one short name and its unapplied balance.
type ShortNameRow struct {
	ID        int64  `json:"id" yaml:"id" csv:"id"`
	ShortName string `json:"short_name" yaml:"short_name" csv:"short_name"`
	Type      string `json:"type" yaml:"type" csv:"type"`
	State     string `json:"state" yaml:"state" csv:"state"`
	AccountID string `json:"account_id,omitempty" yaml:"account_id,omitempty" csv:"account_id"`
	Balance   string `json:"balance" yaml:"balance" csv:"balance"`
}

// Report is a point in time export.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Kind        Kind           `json:"kind" yaml:"kind"`
	Files       []FileRow      `json:"files,omitempty" yaml:"files,omitempty"`
	ShortNames  []ShortNameRow `json:"short_names,omitempty" yaml:"short_names,omitempty"`
}

// Generator builds and renders reports.
type Generator struct {
	logger logging.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(logger logging.Logger) *Generator {
	return &Generator{logger: logger, now: time.Now}
}

// Build reads the rows for kind. filter is a file status or short name
// state; empty means all.
func (g *Generator) Build(ctx context.Context, src Source, kind Kind, filter string) (*Report, error) {
	r := &Report{GeneratedAt: g.now().UTC(), Kind: kind}

	switch kind {
	case KindFiles:
		files, err := src.ListEFTFiles(ctx, models.ProcessStatus(filter))
		if err != nil {
			return nil, err
		}
		for i := range files {
			r.Files = append(r.Files, fileRow(&files[i]))
		}
	case KindShortNames:
		names, err := src.ListShortNames(ctx, models.ShortNameState(filter))
		if err != nil {
			return nil, err
		}
		for _, sn := range names {
			balance, err := src.ShortNameBalance(ctx, sn.ID)
			if err != nil {
				return nil, err
			}
			row := ShortNameRow{
				ID:        sn.ID,
				ShortName: sn.ShortName,
				Type:      string(sn.Type),
				State:     string(sn.State),
				Balance:   models.FormatAmount(balance),
			}
			if sn.AccountID != nil {
				row.AccountID = *sn.AccountID
			}
			r.ShortNames = append(r.ShortNames, row)
		}
	default:
		return nil, fmt.Errorf("unsupported report kind: %s", kind)
	}

	g.logger.Debug("Built report", logging.F("kind", kind), logging.F(logging.FieldCount, len(r.Files)+len(r.ShortNames)))
	return r, nil
}

func fileRow(f *models.EFTFile) FileRow {
	row := FileRow{
		ID:          f.ID,
		FileRef:     f.FileRef,
		Status:      string(f.Status),
		CreatedOn:   dateutils.FormatDate(f.CreatedOn, dateutils.LayoutISODatetime),
		CompletedOn: dateutils.FormatOptional(f.CompletedOn, dateutils.LayoutISODatetime),
		DepositFrom: dateutils.FormatOptional(f.DepositFromDate, dateutils.LayoutISO),
		DepositTo:   dateutils.FormatOptional(f.DepositToDate, dateutils.LayoutISO),
		ErrorCount:  len(f.ErrorMessages),
	}
	if f.NumberOfDetails != nil {
		row.Details = *f.NumberOfDetails
	}
	total := decimal.Zero
	if f.TotalDeposit != nil {
		total = models.CentsToAmount(decimal.NewFromInt(*f.TotalDeposit))
	}
	row.TotalDeposit = models.FormatAmount(total)
	return row
}

// Render encodes the report as csv, json or yaml.
func (g *Generator) Render(r *Report, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "csv":
		return g.renderCSV(r)
	case "json":
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal JSON report")
			return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
		}
		return out, nil
	case "yaml":
		out, err := yaml.Marshal(r)
		if err != nil {
			g.logger.WithError(err).Error("Failed to marshal YAML report")
			return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *Generator) renderCSV(r *Report) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch r.Kind {
	case KindFiles:
		rows := r.Files
		if rows == nil {
			rows = []FileRow{}
		}
		out, err = gocsv.MarshalBytes(&rows)
	case KindShortNames:
		rows := r.ShortNames
		if rows == nil {
			rows = []ShortNameRow{}
		}
		out, err = gocsv.MarshalBytes(&rows)
	default:
		return nil, fmt.Errorf("unsupported report kind: %s", r.Kind)
	}
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal CSV report")
		return nil, fmt.Errorf("failed to marshal CSV report: %w", err)
	}
	return out, nil
}
