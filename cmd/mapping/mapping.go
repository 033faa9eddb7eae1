// Package mapping handles the column-mapping template commands
package mapping

import (
	"fmt"
	"text/tabwriter"

	"fjacquet/rent-recon/cmd/common"
	"fjacquet/rent-recon/cmd/root"
	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/report"
	"fjacquet/rent-recon/internal/validation"

	"github.com/spf13/cobra"
)

var (
	format   string
	label    string
	confirm  bool
	shared   bool
	mappings common.MappingFlags
)

// Cmd represents the mapping command
var Cmd = &cobra.Command{
	Use:   "mapping",
	Short: "Manage column mapping templates for bank exports",
	Long: `Templates remember which columns of a bank export hold the date, amount and payer,
keyed by the export's header layout. Templates saved with --shared apply to every owner.`,
}

var detectCmd = &cobra.Command{
	Use:   "detect FILE",
	Short: "Show the mapping that would be used for a bank file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

var saveCmd = &cobra.Command{
	Use:   "save FILE",
	Short: "Save the detected or given mapping as a template for the file's layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runSave,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete HASH",
	Short: "Delete a saved template by header hash",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the registered bank profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

func init() {
	Cmd.PersistentFlags().StringVarP(&format, "format", "f", report.FormatText, "Output format (text or json)")
	saveCmd.Flags().StringVar(&label, "label", "", "Template label")
	saveCmd.Flags().BoolVar(&confirm, "confirm", false, "Accept a detected mapping that needs confirmation")
	saveCmd.Flags().BoolVar(&shared, "shared", false, "Save to the shared namespace")
	mappings.Register(saveCmd)
	deleteCmd.Flags().BoolVar(&shared, "shared", false, "Delete from the shared namespace")

	Cmd.AddCommand(detectCmd, saveCmd, listCmd, deleteCmd, profilesCmd)
}

func checkFormat() error {
	return validation.IsValidOutputFormat(format, report.FormatText, report.FormatJSON)
}

func runDetect(cmd *cobra.Command, args []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	if err := checkFormat(); err != nil {
		return err
	}
	if err := validation.IsValidInputFile(args[0], loader.SupportedExtensions()...); err != nil {
		return err
	}
	d, err := app.GetIngest().Detect(cmd.Context(), args[0], app.Owner())
	if err != nil {
		return err
	}
	return app.GetReports().WriteDetection(cmd.OutOrStdout(), d, format)
}

func runSave(cmd *cobra.Command, args []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	if err := validation.IsValidInputFile(args[0], loader.SupportedExtensions()...); err != nil {
		return err
	}
	explicit, err := mappings.Mapping()
	if err != nil {
		return err
	}

	d, err := app.GetIngest().Detect(cmd.Context(), args[0], app.Owner())
	if err != nil {
		return err
	}

	var m models.ColumnMapping
	switch {
	case explicit != nil:
		m = *explicit
	case d.Mapping.NeedsConfirmation && !confirm:
		return fmt.Errorf("detected mapping (%s) needs confirmation: rerun with --confirm or pass the columns explicitly",
			report.DescribeMapping(d.Mapping))
	default:
		m = d.Mapping
	}

	owner := app.Owner()
	if shared {
		owner = ""
	}
	t, err := app.GetTemplates().Save(cmd.Context(), owner, d.Table.Header, m, label)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved template %s: %s\n", t.HeaderHash, report.DescribeMapping(t.Mapping))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	if err := checkFormat(); err != nil {
		return err
	}
	templates, err := app.GetTemplates().List(cmd.Context(), app.Owner())
	if err != nil {
		return err
	}
	return app.GetReports().WriteTemplates(cmd.OutOrStdout(), templates, format)
}

func runDelete(cmd *cobra.Command, args []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	owner := app.Owner()
	if shared {
		owner = ""
	}
	if err := app.GetTemplates().DeleteByHash(cmd.Context(), owner, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted template %s\n", args[0])
	return nil
}

func runProfiles(cmd *cobra.Command, _ []string) error {
	app, err := root.RequireContainer()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOLUMNS\tLABEL\tMAPPING")
	for _, p := range app.GetRegistry().Profiles() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", p.Name, len(p.Header), p.Label, report.DescribeMapping(p.Mapping))
	}
	return tw.Flush()
}
