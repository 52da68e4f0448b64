// Package shortnames lists short names and links them to accounts.
package shortnames

import (
	"context"
	"fmt"
	"strconv"

	"bcgov/pay-reconciler/cmd/root"
	"bcgov/pay-reconciler/internal/credit"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/models"
	"bcgov/pay-reconciler/internal/report"
	"bcgov/pay-reconciler/internal/shortname"
	"bcgov/pay-reconciler/internal/storage"
	"bcgov/pay-reconciler/internal/validation"

	"github.com/spf13/cobra"
)

var (
	state  string
	format string
)

// Cmd represents the shortnames command
var Cmd = &cobra.Command{
	Use:   "shortnames",
	Short: "Inspect and link short names",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List short names with their unapplied balance",
	RunE:  listFunc,
}

var linkCmd = &cobra.Command{
	Use:   "link SHORT_NAME_ID ACCOUNT_ID",
	Short: "Link a short name to an account and apply its balance",
	Long: `Link a short name to an account. Credits already received for the short
name are applied to the account's outstanding invoices, oldest first.`,
	Args: cobra.ExactArgs(2),
	RunE: linkFunc,
}

func init() {
	listCmd.Flags().StringVar(&state, "state", "", "Keep only LINKED or UNLINKED short names")
	listCmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, json or yaml")
	Cmd.AddCommand(listCmd, linkCmd)
}

func listFunc(cmd *cobra.Command, args []string) error {
	if err := validation.IsValidOutputFormat(format); err != nil {
		return err
	}
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}
	gen := c.GetReportGenerator()
	r, err := gen.Build(cmd.Context(), c.GetStorage(), report.KindShortNames, state)
	if err != nil {
		return err
	}
	data, err := gen.Render(r, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func linkFunc(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid short name id %q: %w", args[0], err)
	}
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	res, err := Link(cmd.Context(), c.GetStorage(), c.GetResolver(), c.GetEngine(), id, args[1])
	if err != nil {
		return err
	}
	c.GetLogger().Info("Short name linked",
		logging.F(logging.FieldShortNameID, id),
		logging.F(logging.FieldAccountID, args[1]),
		logging.F(logging.FieldAmount, models.FormatAmount(res.Applied)),
		logging.F("links", len(res.Links)))
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "linked short name %d to %s, applied %s across %d invoice(s)\n",
		id, args[1], models.FormatAmount(res.Applied), len(res.Links))
	return err
}

// Link attaches the short name to the account and applies its existing
// credits in the same transaction.
func Link(ctx context.Context, db *storage.SQLiteStorage, resolver *shortname.Resolver, engine *credit.Engine, id int64, accountID string) (*credit.Result, error) {
	var res *credit.Result
	err := db.WithTx(ctx, func(tx *storage.Tx) error {
		sn, err := resolver.Link(ctx, tx, id, accountID)
		if err != nil {
			return err
		}
		res, err = engine.ApplyBalance(ctx, tx, sn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link short name %d: %w", id, err)
	}
	return res, nil
}
