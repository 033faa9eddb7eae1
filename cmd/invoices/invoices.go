// Package invoices handles the invoice payload command
package invoices

import (
	"fmt"
	"path/filepath"

	"fjacquet/rent-recon/cmd/common"
	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/report"

	"github.com/spf13/cobra"
)

var (
	mode   string
	ids    string
	date   string
	output string
	zipDir string
)

// Cmd represents the invoices command
var Cmd = &cobra.Command{
	Use:   "invoices",
	Short: "Build invoice payloads for overdue, selected or all tenants",
	Long: `Build one invoice payload per tenant: billing address, rent, total due, outstanding
obligations, obligation history and recent deposits. By default only delinquent tenants
with a positive balance are invoiced.

Examples:
  rent-recon invoices
  rent-recon invoices --mode all --output invoices.json
  rent-recon invoices --ids 101,102 --zip out/`,
	Args: cobra.NoArgs,
	RunE: runInvoices,
}

func init() {
	Cmd.Flags().StringVarP(&mode, "mode", "m", string(reconcile.SelectOverdue), "Selection mode (overdue, all or ids)")
	Cmd.Flags().StringVar(&ids, "ids", "", "Comma-separated property ids (implies --mode ids)")
	Cmd.Flags().StringVarP(&date, "date", "d", "", "Evaluation date (default today)")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output file for the JSON array (default stdout)")
	Cmd.Flags().StringVar(&zipDir, "zip", "", "Write a ZIP bundle with one JSON file per invoice into this directory")
}

func runInvoices(cmd *cobra.Command, _ []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	logger := app.GetLogger()

	sel, err := reconcile.ParseSelection(mode, ids)
	if err != nil {
		return err
	}
	evalDate, err := common.EvalDate(date)
	if err != nil {
		return err
	}

	invoices, err := app.GetIngest().Invoices(cmd.Context(), app.Owner(), evalDate, sel)
	if err != nil {
		return err
	}
	logger.Info("Built invoices",
		logging.F("mode", string(sel.Mode)),
		logging.F(logging.FieldCount, len(invoices)))

	if zipDir == "" {
		w, closeOutput, err := common.OpenOutput(cmd, output, logger)
		if err != nil {
			return err
		}
		defer closeOutput()
		return app.GetReports().WriteInvoices(w, invoices)
	}

	path := filepath.Join(zipDir, report.ZipFileName(evalDate))
	f, err := fileutils.CreateFile(path)
	if err != nil {
		return err
	}
	if err := app.GetReports().WriteInvoiceZip(f, invoices, evalDate); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d invoices to %s\n", len(invoices), path)
	return nil
}
