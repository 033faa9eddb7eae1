// Package status handles the portfolio status command
package status

import (
	"fmt"

	"fjacquet/rent-recon/cmd/common"
	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/report"
	"fjacquet/rent-recon/internal/validation"

	"github.com/spf13/cobra"
)

var (
	format string
	date   string
	output string
	tenant string
)

// Cmd represents the status command
var Cmd = &cobra.Command{
	Use:   "status",
	Short: "Show balances and delinquency for every tenant",
	Long: `Show the rent, balance due, overdue amount and status of every tenant as of an
evaluation date (today by default). With --tenant, show one tenant's obligations and how
each deposit was allocated.

Examples:
  rent-recon status
  rent-recon status --date 2026-01-31 --format csv --output status.csv
  rent-recon status --tenant 101`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "Output format (text, csv or json)")
	Cmd.Flags().StringVarP(&date, "date", "d", "", "Evaluation date (default today)")
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	Cmd.Flags().StringVarP(&tenant, "tenant", "t", "", "Show the ledger of one property id")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	if err := validation.IsValidOutputFormat(format, report.Formats()...); err != nil {
		return err
	}
	evalDate, err := common.EvalDate(date)
	if err != nil {
		return err
	}

	w, closeOutput, err := common.OpenOutput(cmd, output, app.GetLogger())
	if err != nil {
		return err
	}
	defer closeOutput()

	svc := app.GetIngest()
	if tenant != "" {
		l, found, err := svc.Ledger(cmd.Context(), app.Owner(), tenant, evalDate)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("tenant not found: %s", tenant)
		}
		return app.GetReports().WriteLedger(w, l, format)
	}

	rows, err := svc.Status(cmd.Context(), app.Owner(), evalDate)
	if err != nil {
		return err
	}
	return app.GetReports().WriteStatus(w, rows, format)
}
