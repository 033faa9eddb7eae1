// Package report renders status tables, invoice payloads and ingestion
// summaries. Visual invoice layout is left to downstream renderers; amounts
// are written as whole yen.
package report

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"fjacquet/rent-recon/internal/common"
	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/fileutils"
	"fjacquet/rent-recon/internal/ingest"
	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/template"
)

// Output formats.
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Formats lists the formats accepted by WriteStatus.
func Formats() []string {
	return []string{FormatText, FormatCSV, FormatJSON}
}

// Generator writes reports in the supported formats.
type Generator struct {
	logger    logging.Logger
	delimiter rune
}

// NewGenerator creates a generator. delimiter applies to CSV output.
func NewGenerator(logger logging.Logger, delimiter rune) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{logger: logger, delimiter: delimiter}
}

// statusCSVRow is the CSV shape of a status row.
type statusCSVRow struct {
	PropertyID        string `csv:"property_id"`
	Name              string `csv:"name"`
	Rent              string `csv:"rent"`
	BalanceDue        string `csv:"balance_due"`
	Overdue           string `csv:"overdue"`
	Status            string `csv:"status"`
	Strategy          string `csv:"strategy"`
	LatestDescription string `csv:"latest_description"`
}

// WriteStatus writes the status table in the given format.
func (g *Generator) WriteStatus(w io.Writer, rows []reconcile.StatusRow, format string) error {
	switch format {
	case "", FormatText:
		return g.writeStatusText(w, rows)
	case FormatCSV:
		out := make([]statusCSVRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, statusCSVRow{
				PropertyID:        r.PropertyID,
				Name:              r.Name,
				Rent:              r.Rent.Round(0).String(),
				BalanceDue:        r.BalanceDue.Round(0).String(),
				Overdue:           r.Overdue.Round(0).String(),
				Status:            r.Status,
				Strategy:          r.Strategy,
				LatestDescription: r.LatestDescription,
			})
		}
		return common.WriteCSV(w, out, g.delimiter)
	case FormatJSON:
		return g.writeJSON(w, rows)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *Generator) writeStatusText(w io.Writer, rows []reconcile.StatusRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "物件ID\t氏名\t家賃\t請求額\t滞納額\t状態\t最新入金")
	delinquent := 0
	for _, r := range rows {
		if r.Delinquent() {
			delinquent++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.PropertyID, r.Name,
			currencyutils.FormatYen(r.Rent),
			currencyutils.FormatYen(r.BalanceDue),
			currencyutils.FormatYen(r.Overdue),
			r.Status, r.LatestDescription)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d tenants, %d delinquent\n", len(rows), delinquent)
	return err
}

// WriteInvoices writes invoice payloads as a JSON array.
func (g *Generator) WriteInvoices(w io.Writer, invoices []ledger.InvoiceView) error {
	if invoices == nil {
		invoices = []ledger.InvoiceView{}
	}
	return g.writeJSON(w, invoices)
}

// ZipFileName is the bundle name for an evaluation date.
func ZipFileName(evalDate time.Time) string {
	return fmt.Sprintf("invoices_%s.zip", evalDate.Format(dateutils.DateLayoutCompact))
}

// InvoiceFileName is the bundle entry name of one invoice.
func InvoiceFileName(propertyID string, evalDate time.Time) string {
	return fmt.Sprintf("invoice_%s_%s.json", fileutils.SanitizeFileName(propertyID), evalDate.Format(dateutils.DateLayoutCompact))
}

// WriteInvoiceZip writes one JSON entry per invoice into a ZIP archive.
func (g *Generator) WriteInvoiceZip(w io.Writer, invoices []ledger.InvoiceView, evalDate time.Time) error {
	zw := zip.NewWriter(w)
	for _, inv := range invoices {
		entry, err := zw.Create(InvoiceFileName(inv.PropertyID, evalDate))
		if err != nil {
			return fmt.Errorf("failed to add invoice %s: %w", inv.PropertyID, err)
		}
		if err := g.writeJSON(entry, inv); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish invoice archive: %w", err)
	}
	g.logger.Info("Wrote invoice archive", logging.F(logging.FieldCount, len(invoices)))
	return nil
}

// WriteLedger writes one tenant's obligations and allocations.
func (g *Generator) WriteLedger(w io.Writer, l *ledger.Ledger, format string) error {
	switch format {
	case FormatJSON:
		return g.writeJSON(w, l.InvoiceView())
	case "", FormatText:
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}

	fmt.Fprintf(w, "%s %s (%s)\n", l.Tenant.PropertyID, l.Tenant.Name, l.Origin.Strategy())
	fmt.Fprintf(w, "cutoff %s, overdue %s, balance due %s\n\n",
		dateutils.ToSlashDate(l.Cutoff),
		currencyutils.FormatYen(l.CurrentOverdue()),
		currencyutils.FormatYen(l.BalanceDue()))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "期間\t請求\t入金済\t残額")
	for _, o := range l.Obligations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Label(),
			currencyutils.FormatYen(o.Amount),
			currencyutils.FormatYen(o.Paid),
			currencyutils.FormatYen(o.Remaining()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, d := range l.Deposits {
		desc := d.Description
		if desc == "" {
			desc = dateutils.ToSlashDate(d.Deposit.Date) + " " + currencyutils.FormatYen(d.Deposit.Amount)
		}
		if _, err := fmt.Fprintln(w, desc); err != nil {
			return err
		}
	}
	return nil
}

// WriteIngestReport summarizes an ingestion for the operator, naming the
// closest tenant of unmatched deposits when one is near.
func (g *Generator) WriteIngestReport(w io.Writer, r *ingest.Report, format string) error {
	if format == FormatJSON {
		return g.writeJSON(w, r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "file: %s\n", r.File)
	fmt.Fprintf(&b, "mapping (%s): %s\n", r.Mapping.Source, DescribeMapping(r.Mapping))
	if r.Mapping.NeedsConfirmation {
		b.WriteString("mapping needs confirmation: rerun with --confirm or pass the columns explicitly\n")
	}
	n := r.Normalize
	fmt.Fprintf(&b, "rows: %d read, %d kept, %d totals, %d not deposits, %d bad dates, %d bad amounts, %d non-positive\n",
		n.Input, n.Kept, n.TotalRows, n.NonDeposits, n.InvalidDate, n.InvalidAmount, n.NonPositive)
	for _, msg := range r.Rejected {
		fmt.Fprintf(&b, "  skipped %s\n", msg)
	}
	fmt.Fprintf(&b, "deposits: %d matched, %d duplicates, %d unmatched, %d committed\n",
		r.Matched, r.Duplicates, r.Unmatched, r.Committed)
	for _, u := range r.Match.Unmatched {
		fmt.Fprintf(&b, "  unmatched %s %s %s", dateutils.ToSlashDate(u.Deposit.Date),
			currencyutils.FormatYen(u.Deposit.Amount), u.Deposit.Description)
		if u.HintPropertyID != "" {
			fmt.Fprintf(&b, " (close to %s %s)", u.HintPropertyID, u.HintName)
		}
		b.WriteString("\n")
	}
	if r.DryRun {
		b.WriteString("dry run: nothing was written\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// DescribeMapping renders a mapping on one line, e.g.
// "date=年/月/日 amount=金額 sender=摘要".
func DescribeMapping(m models.ColumnMapping) string {
	var parts []string
	if m.DateParts != nil {
		parts = append(parts, fmt.Sprintf("date=%s/%s/%s", m.DateParts.Year, m.DateParts.Month, m.DateParts.Day))
	} else if m.Date != "" {
		parts = append(parts, "date="+m.Date)
	}
	if m.Amount != "" {
		parts = append(parts, "amount="+m.Amount)
	}
	if m.Sender != "" {
		parts = append(parts, "sender="+m.Sender)
	}
	if m.DepositFilter != "" {
		parts = append(parts, "filter="+m.DepositFilter)
	}
	if m.Profile != "" {
		parts = append(parts, "profile="+m.Profile)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// WriteDetection shows the mapping resolved for a bank file.
func (g *Generator) WriteDetection(w io.Writer, d *ingest.Detection, format string) error {
	if format == FormatJSON {
		return g.writeJSON(w, detectionView{
			HeaderHash: d.HeaderHash,
			Columns:    d.Table.Header,
			Rows:       len(d.Table.Rows),
			Mapping:    d.Mapping,
			Template:   d.Template,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "header hash: %s\n", d.HeaderHash)
	fmt.Fprintf(&b, "columns: %s\n", strings.Join(d.Table.Header, ", "))
	fmt.Fprintf(&b, "rows: %d\n", len(d.Table.Rows))
	if d.Template != nil {
		label := d.Template.Label
		if label == "" {
			label = "(no label)"
		}
		fmt.Fprintf(&b, "template: %s saved %s\n", label, dateutils.ToSlashDate(d.Template.SavedAt))
	}
	fmt.Fprintf(&b, "mapping (%s, confidence %.2f): %s\n", d.Mapping.Source, d.Mapping.Confidence, DescribeMapping(d.Mapping))
	if d.Mapping.NeedsConfirmation {
		b.WriteString("needs confirmation\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type detectionView struct {
	HeaderHash string               `json:"header_hash"`
	Columns    []string             `json:"columns"`
	Rows       int                  `json:"rows"`
	Mapping    models.ColumnMapping `json:"mapping"`
	Template   *template.Template   `json:"template,omitempty"`
}

// WriteTemplates lists saved templates.
func (g *Generator) WriteTemplates(w io.Writer, templates []template.Template, format string) error {
	switch format {
	case FormatJSON:
		if templates == nil {
			templates = []template.Template{}
		}
		return g.writeJSON(w, templates)
	case "", FormatText:
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tOWNER\tLABEL\tSAVED\tMAPPING")
	for _, t := range templates {
		owner := t.Owner
		if t.Shared() {
			owner = "(shared)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.HeaderHash, owner, t.Label,
			dateutils.ToSlashDate(t.SavedAt), DescribeMapping(t.Mapping))
	}
	return tw.Flush()
}

func (g *Generator) writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}
