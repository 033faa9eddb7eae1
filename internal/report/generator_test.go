package report

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"fjacquet/rent-recon/internal/ingest"
	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/normalizer"
	"fjacquet/rent-recon/internal/reconcile"
	"fjacquet/rent-recon/internal/template"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusRows() []reconcile.StatusRow {
	return []reconcile.StatusRow{
		{
			PropertyID: "101", Name: "山田太郎",
			Rent: decimal.NewFromInt(60000), BalanceDue: decimal.NewFromInt(144500),
			Overdue: decimal.NewFromInt(84500), Status: models.StatusDelinquent,
			Strategy: ledger.StrategyBaseline, LatestDescription: "2026/01/15 60,000 → 2026年01月分",
		},
		{
			PropertyID: "102", Name: "佐藤花子",
			Rent: decimal.NewFromInt(50000), BalanceDue: decimal.NewFromInt(50000),
			Overdue: decimal.Zero, Status: models.StatusNormal,
			Strategy: ledger.StrategyBaseline,
		},
	}
}

func TestWriteStatus(t *testing.T) {
	g := NewGenerator(logging.NewMockLogger(), ',')

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, g.WriteStatus(&buf, statusRows(), FormatText))
		out := buf.String()
		assert.Contains(t, out, "山田太郎")
		assert.Contains(t, out, "84,500")
		assert.Contains(t, out, "2 tenants, 1 delinquent")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, g.WriteStatus(&buf, statusRows(), FormatCSV))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "property_id,name,rent,balance_due,overdue,status"))
		assert.True(t, strings.HasPrefix(lines[1], "101,山田太郎,60000,144500,84500,滞納あり"))
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, g.WriteStatus(&buf, statusRows(), FormatJSON))
		var decoded []map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "101", decoded[0]["property_id"])
	})

	t.Run("unsupported", func(t *testing.T) {
		err := g.WriteStatus(io.Discard, statusRows(), "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported report format")
	})
}

func invoices() []ledger.InvoiceView {
	return []ledger.InvoiceView{
		{PropertyID: "101", Name: "山田太郎", TotalDue: decimal.NewFromInt(144500)},
		{PropertyID: "104", Name: "鈴木次郎", TotalDue: decimal.NewFromInt(80000)},
	}
}

func TestWriteInvoices(t *testing.T) {
	g := NewGenerator(nil, ',')

	var buf bytes.Buffer
	require.NoError(t, g.WriteInvoices(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))

	buf.Reset()
	require.NoError(t, g.WriteInvoices(&buf, invoices()))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestWriteInvoiceZip(t *testing.T) {
	logger := logging.NewMockLogger()
	g := NewGenerator(logger, ',')
	eval := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, g.WriteInvoiceZip(&buf, invoices(), eval))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "invoice_101_20260220.json", zr.File[0].Name)
	assert.Equal(t, "invoice_104_20260220.json", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	var inv map[string]interface{}
	require.NoError(t, json.NewDecoder(rc).Decode(&inv))
	assert.Equal(t, "山田太郎", inv["name"])

	assert.Equal(t, "invoices_20260220.zip", ZipFileName(eval))
	assert.True(t, logger.HasEntry("INFO", "Wrote invoice archive"))
}

func TestWriteLedger(t *testing.T) {
	tenant := models.NewTenantBuilder().
		WithPropertyID("101").
		WithName("山田太郎").
		WithRentInt(60000).
		WithBaseline(time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(24500)).
		MustBuild()
	deposits := []models.Deposit{{
		PropertyID: "101",
		Date:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:     decimal.NewFromInt(60000),
	}}
	l := ledger.Compute(tenant, deposits, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), ledger.DefaultOptions())
	g := NewGenerator(nil, ',')

	var buf bytes.Buffer
	require.NoError(t, g.WriteLedger(&buf, l, FormatText))
	assert.Contains(t, buf.String(), "101 山田太郎 (baseline)")
	assert.Contains(t, buf.String(), "60,000")

	buf.Reset()
	require.NoError(t, g.WriteLedger(&buf, l, FormatJSON))
	assert.Contains(t, buf.String(), `"property_id": "101"`)

	assert.Error(t, g.WriteLedger(io.Discard, l, "pdf"))
}

func TestWriteIngestReport(t *testing.T) {
	r := &ingest.Report{
		File: "bank.csv",
		Mapping: models.ColumnMapping{
			DateParts: &models.DateParts{Year: "年", Month: "月", Day: "日"},
			Amount:    "金額",
			Sender:    "摘要",
			Source:    models.SourceProfile,
			Profile:   "jp-transfer-detail",
		},
		Normalize: normalizer.Stats{Input: 5, Kept: 3, TotalRows: 1, NonDeposits: 1},
		Rejected:  []string{"row 4: normalizer: failed to parse date='2026/2/30': not a calendar date"},
		Match: reconcile.MatchResult{
			Unmatched: []reconcile.Unmatched{{
				Deposit: models.CanonicalDeposit{
					Date:        time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC),
					Amount:      decimal.NewFromInt(1000),
					Description: "振込ﾔﾏﾀﾞﾀﾛ",
				},
				HintPropertyID: "101",
				HintName:       "山田太郎",
			}},
		},
		Matched:   2,
		Unmatched: 1,
		Committed: 2,
		DryRun:    true,
	}
	g := NewGenerator(nil, ',')

	var buf bytes.Buffer
	require.NoError(t, g.WriteIngestReport(&buf, r, FormatText))
	out := buf.String()
	assert.Contains(t, out, "date=年/月/日 amount=金額 sender=摘要 profile=jp-transfer-detail")
	assert.Contains(t, out, "2 matched, 0 duplicates, 1 unmatched")
	assert.Contains(t, out, "close to 101 山田太郎")
	assert.Contains(t, out, "  skipped row 4: normalizer")
	assert.Contains(t, out, "dry run")

	buf.Reset()
	require.NoError(t, g.WriteIngestReport(&buf, r, FormatJSON))
	assert.Contains(t, buf.String(), `"matched": 2`)
}

func TestWriteDetection(t *testing.T) {
	g := NewGenerator(nil, ',')
	d := &ingest.Detection{
		Table: models.Table{
			Header: []string{"日付", "金額", "摘要"},
			Rows:   [][]string{{"2026/01/15", "60000", "振込 ﾔﾏﾀﾞ"}},
		},
		HeaderHash: "abc123",
		Mapping: models.ColumnMapping{
			Date: "日付", Amount: "金額", Sender: "摘要",
			Confidence: 1, Source: models.SourceTemplate,
		},
		Template: &template.Template{Label: "main bank", SavedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteDetection(&buf, d, FormatText))
	out := buf.String()
	assert.Contains(t, out, "header hash: abc123")
	assert.Contains(t, out, "template: main bank saved 2026/01/02")
	assert.Contains(t, out, "mapping (template, confidence 1.00): date=日付 amount=金額 sender=摘要")
	assert.NotContains(t, out, "needs confirmation")

	d.Template = nil
	d.Mapping.NeedsConfirmation = true
	buf.Reset()
	require.NoError(t, g.WriteDetection(&buf, d, FormatText))
	assert.Contains(t, buf.String(), "needs confirmation")

	buf.Reset()
	require.NoError(t, g.WriteDetection(&buf, d, FormatJSON))
	assert.Contains(t, buf.String(), `"rows": 1`)
}

func TestWriteTemplates(t *testing.T) {
	g := NewGenerator(nil, ',')
	templates := []template.Template{
		{HeaderHash: "h1", Owner: "owner-a", Label: "main", Mapping: models.ColumnMapping{Date: "日付", Amount: "金額"}},
		{HeaderHash: "h2", Label: "shared bank", Mapping: models.ColumnMapping{Date: "d", Amount: "a"}},
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteTemplates(&buf, templates, FormatText))
	out := buf.String()
	assert.Contains(t, out, "owner-a")
	assert.Contains(t, out, "(shared)")
	assert.Contains(t, out, "date=日付 amount=金額")

	buf.Reset()
	require.NoError(t, g.WriteTemplates(&buf, nil, FormatJSON))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))

	assert.Error(t, g.WriteTemplates(io.Discard, templates, "yaml"))
}

func TestDescribeMapping(t *testing.T) {
	assert.Equal(t, "none", DescribeMapping(models.ColumnMapping{}))
	assert.Equal(t, "date=日付 amount=金額 filter=取引区分",
		DescribeMapping(models.ColumnMapping{Date: "日付", Amount: "金額", DepositFilter: "取引区分"}))
}
