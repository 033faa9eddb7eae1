// Package tenants handles the rent roll commands
package tenants

import (
	"fmt"
	"text/tabwriter"

	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/rentroll"
	"fjacquet/rent-recon/internal/validation"

	"github.com/spf13/cobra"
)

var dryRun bool

// Cmd represents the tenants command
var Cmd = &cobra.Command{
	Use:   "tenants",
	Short: "Import and list the rent roll",
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import tenants from a rent roll CSV, XLSX or XLS file",
	Long: `Import tenants from a rent roll. Rows are keyed by PropertyID; existing tenants are
updated in place. A baseline date that slipped into the debt amount column is moved back.
Rows without a PropertyID are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the file without saving")
	Cmd.AddCommand(importCmd, listCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	logger := app.GetLogger()
	path := args[0]

	if err := validation.IsValidInputFile(path, loader.SupportedExtensions()...); err != nil {
		return err
	}
	res, err := rentroll.Load(path, app.GetLoader())
	if err != nil {
		return err
	}

	owner := app.Owner()
	for i := range res.Tenants {
		if res.Tenants[i].Owner == "" {
			res.Tenants[i].Owner = owner
		}
	}

	out := cmd.OutOrStdout()
	for _, skipped := range res.Skipped {
		fmt.Fprintf(out, "skipped: %v\n", skipped)
	}
	if !dryRun {
		if err := app.GetStore().UpsertTenants(cmd.Context(), res.Tenants); err != nil {
			return err
		}
	}

	logger.Info("Imported rent roll",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(res.Tenants)),
		logging.F("fixed", res.Fixed),
		logging.F("skipped", len(res.Skipped)),
		logging.F("dry_run", dryRun))
	fmt.Fprintf(out, "%d tenants read, %d baseline dates fixed, %d rows skipped", len(res.Tenants), res.Fixed, len(res.Skipped))
	if dryRun {
		fmt.Fprint(out, " (dry run, nothing saved)")
	}
	fmt.Fprintln(out)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	tenants, err := app.GetStore().FetchTenants(cmd.Context(), app.Owner())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "物件ID\t氏名\t家賃\t基準日\t基準残高\t照合名")
	for _, t := range tenants {
		note := ""
		if t.SeparatelyManaged {
			note = " (別管理)"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t%v\n", t.PropertyID, note, t.Name,
			currencyutils.FormatYen(t.MonthlyRent),
			dateutils.ToSlashDate(t.Baseline.Date),
			currencyutils.FormatYen(t.Baseline.Debt),
			t.MatchNames)
	}
	return tw.Flush()
}
