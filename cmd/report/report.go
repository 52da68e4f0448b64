// Package report exports EFT file and short name state.
package report

import (
	"fmt"

	"bcgov/pay-reconciler/cmd/root"
	"bcgov/pay-reconciler/internal/fileutils"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"
	rpt "bcgov/pay-reconciler/internal/report"
	"bcgov/pay-reconciler/internal/validation"

	"github.com/spf13/cobra"
)

var (
	kind   string
	filter string
	format string
	output string
)

// Cmd represents the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Export EFT files or short names",
	Long: `Export reconciliation state as CSV, JSON or YAML.

Examples:
  pay-reconciler report --kind files --filter IN_PROGRESS
  pay-reconciler report --kind shortnames --filter UNLINKED --format json -o unlinked.json`,
	RunE: reportFunc,
}

func init() {
	Cmd.Flags().StringVarP(&kind, "kind", "k", string(rpt.KindFiles), "What to list: files or shortnames")
	Cmd.Flags().StringVar(&filter, "filter", "", "File status or short name state to keep")
	Cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, json or yaml")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
}

func reportFunc(cmd *cobra.Command, args []string) error {
	if err := validation.IsValidOutputFormat(format); err != nil {
		return err
	}
	if err := validation.IsValidOutputPath(output); err != nil {
		return err
	}
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	gen := c.GetReportGenerator()
	r, err := gen.Build(cmd.Context(), c.GetStorage(), rpt.Kind(kind), filter)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	data, err := gen.Render(r, format)
	if err != nil {
		return err
	}

	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := fileutils.WriteFile(output, data, models.PermissionReportFile); err != nil {
		return err
	}
	c.GetLogger().Info("Report written", logging.F(logging.FieldFileName, output))
	return nil
}
