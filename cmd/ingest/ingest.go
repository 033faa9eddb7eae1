// Package ingest handles the bank file upload command
package ingest

import (
	"errors"
	"fmt"

	"fjacquet/rent-recon/cmd/common"
	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/ingest"
	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/normalizer"
	"fjacquet/rent-recon/internal/parsererror"
	"fjacquet/rent-recon/internal/report"
	"fjacquet/rent-recon/internal/validation"

	"github.com/spf13/cobra"
)

// Options are the ingest command flags.
type Options struct {
	Confirm      bool
	DryRun       bool
	SaveTemplate bool
	Label        string
	KnownOnly    bool
	Format       string
	Export       string
	Mapping      common.MappingFlags
}

var opts Options

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Ingest a bank export and record the matched deposits",
	Long: `Ingest a bank export (CSV, XLSX or XLS). The column layout is resolved from a saved
template, a registered bank profile or header heuristics; deposits are matched to tenants
by payer name and recorded. Re-ingesting the same file records nothing new.

Examples:
  rent-recon ingest statement.csv --dry-run
  rent-recon ingest statement.csv --confirm --save-template --label "main bank"
  rent-recon ingest statement.csv --dry-run --export canonical.csv
  rent-recon ingest export.xlsx --date-col 日付 --amount-col 入金額 --sender-col 摘要`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	Cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "Accept a suggested mapping that needs confirmation")
	Cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Match deposits without recording them")
	Cmd.Flags().BoolVar(&opts.SaveTemplate, "save-template", false, "Save the mapping as a template for this header layout")
	Cmd.Flags().StringVar(&opts.Label, "label", "", "Label of the saved template")
	Cmd.Flags().BoolVar(&opts.KnownOnly, "known-only", false, "Refuse layouts without a saved template or bank profile")
	Cmd.Flags().StringVarP(&opts.Format, "format", "f", report.FormatText, "Report format (text or json)")
	Cmd.Flags().StringVar(&opts.Export, "export", "", "Also write the normalized deposit table (date,amount,description) to this CSV file")
	opts.Mapping.Register(Cmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	logger := app.GetLogger()
	path := args[0]

	if err := validation.IsValidInputFile(path, loader.SupportedExtensions()...); err != nil {
		return err
	}
	if err := validation.IsValidOutputFormat(opts.Format, report.FormatText, report.FormatJSON); err != nil {
		return err
	}
	mapping, err := opts.Mapping.Mapping()
	if err != nil {
		return err
	}

	rep, ingestErr := app.GetIngest().Ingest(cmd.Context(), ingest.Request{
		Path:            path,
		Owner:           app.Owner(),
		Mapping:         mapping,
		Confirm:         opts.Confirm,
		SaveTemplate:    opts.SaveTemplate,
		TemplateLabel:   opts.Label,
		DryRun:          opts.DryRun,
		KnownLayoutOnly: opts.KnownOnly,
	})
	if rep != nil {
		if err := app.GetReports().WriteIngestReport(cmd.OutOrStdout(), rep, opts.Format); err != nil {
			return err
		}
	}
	if ingestErr != nil {
		hint(cmd, ingestErr)
		return ingestErr
	}
	if opts.Export != "" {
		if err := normalizer.WriteCSVFile(opts.Export, rep.Deposits, app.Delimiter(), logger); err != nil {
			return err
		}
	}

	logger.Debug("Ingest command finished")
	return nil
}

func hint(cmd *cobra.Command, err error) {
	w := common.Stderr(cmd)
	switch {
	case errors.Is(err, parsererror.ErrUnconfirmedMapping):
		fmt.Fprintln(w, "The detected mapping is a suggestion. Check it above and rerun with --confirm, or pass the columns explicitly.")
	case errors.Is(err, parsererror.ErrMappingRequired):
		fmt.Fprintln(w, "The date and amount columns could not be found. Pass them with --date-col (or --year-col/--month-col/--day-col) and --amount-col.")
	case errors.Is(err, ingest.ErrUnknownLayout):
		fmt.Fprintln(w, "This layout has no saved template. Ingest it once interactively with --save-template.")
	}
}
