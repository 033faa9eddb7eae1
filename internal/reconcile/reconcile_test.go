package reconcile

import (
	"testing"
	"time"

	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func yen(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func canonical(d time.Time, amount int64, desc string) models.CanonicalDeposit {
	return models.CanonicalDeposit{Date: d, Amount: yen(amount), Description: desc}
}

func portfolio() []models.Tenant {
	return []models.Tenant{
		models.NewTenantBuilder().
			WithPropertyID("101").
			WithName("山田太郎").
			WithRentInt(60000).
			WithMatchNames("ﾔﾏﾀﾞ ﾀﾛｳ").
			WithBaseline(date(2025, 12, 16), yen(24500)).
			MustBuild(),
		models.NewTenantBuilder().
			WithPropertyID("102").
			WithName("佐藤花子").
			WithRentInt(50000).
			WithMatchNames("ｻﾄｳ").
			WithBaseline(date(2025, 12, 31), decimal.Zero).
			AsCleanStart().
			MustBuild(),
		models.NewTenantBuilder().
			WithPropertyID("103").
			WithName("田中一郎").
			WithRentInt(70000).
			WithMatchNames("ﾀﾅｶ").
			SeparatelyManaged().
			MustBuild(),
	}
}

func bankRows() []models.CanonicalDeposit {
	return []models.CanonicalDeposit{
		canonical(date(2026, 1, 15), 60000, "振込 ﾔﾏﾀﾞ ﾀﾛｳ"),
		canonical(date(2026, 1, 10), 50000, "振込ｻﾄｳ ﾊﾅｺ"),
		canonical(date(2026, 1, 12), 70000, "振込ﾀﾅｶ"),
		canonical(date(2026, 1, 13), 1000, "振込ﾔﾏﾀﾞﾀﾛ"),
	}
}

func TestMatchDeposits(t *testing.T) {
	opts := DefaultOptions()
	opts.Owner = "owner-1"

	result := MatchDeposits(bankRows(), portfolio(), nil, opts)

	assert.Equal(t, 4, result.Input)
	assert.Zero(t, result.Duplicates)
	require.Len(t, result.Matched, 2)

	assert.Equal(t, "101", result.Matched[0].PropertyID)
	assert.Equal(t, "振込 ﾔﾏﾀﾞ ﾀﾛｳ", result.Matched[0].Summary)
	assert.Equal(t, bankRows()[0].Key(), result.Matched[0].TransactionKey)
	assert.Equal(t, "owner-1", result.Matched[0].Owner)
	assert.Equal(t, "102", result.Matched[1].PropertyID)

	require.Len(t, result.Unmatched, 2)
	assert.Equal(t, "ﾀﾅｶ", result.Unmatched[0].Normalized, "separately managed tenants are not matched")
	assert.Empty(t, result.Unmatched[0].HintPropertyID)

	near := result.Unmatched[1]
	assert.Equal(t, "101", near.HintPropertyID)
	assert.Equal(t, "山田太郎", near.HintName)
	assert.Equal(t, 1, near.HintDistance)
}

func TestMatchDeposits_NoHintsWhenDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.FuzzyMaxDistance = 0

	result := MatchDeposits(bankRows(), portfolio(), nil, opts)

	for _, u := range result.Unmatched {
		assert.Empty(t, u.HintPropertyID)
	}
}

func TestMatchDeposits_IdempotentReupload(t *testing.T) {
	first := MatchDeposits(bankRows(), portfolio(), nil, DefaultOptions())
	require.NotEmpty(t, first.Matched)

	second := MatchDeposits(bankRows(), portfolio(), first.Matched, DefaultOptions())

	assert.Empty(t, second.Matched)
	assert.Equal(t, len(first.Matched), second.Duplicates)
}

func TestMatchDeposits_ExistingWithoutStoredKey(t *testing.T) {
	row := bankRows()[0]
	existing := []models.Deposit{{PropertyID: "101", Date: row.Date, Amount: row.Amount, Summary: row.Description}}

	result := MatchDeposits([]models.CanonicalDeposit{row}, portfolio(), existing, DefaultOptions())

	assert.Empty(t, result.Matched)
	assert.Equal(t, 1, result.Duplicates)
}

func TestMatchDeposits_InBatchDuplicates(t *testing.T) {
	row := bankRows()[0]

	result := MatchDeposits([]models.CanonicalDeposit{row, row}, portfolio(), nil, DefaultOptions())

	assert.Len(t, result.Matched, 1)
	assert.Equal(t, 1, result.Duplicates)
}

func TestMatchDeposits_FirstMatchByDeclarationOrder(t *testing.T) {
	short := models.NewTenantBuilder().WithPropertyID("201").WithRentInt(1).WithMatchNames("ﾔﾏﾀﾞ").MustBuild()
	long := models.NewTenantBuilder().WithPropertyID("202").WithRentInt(1).WithMatchNames("ﾔﾏﾀﾞﾀﾛｳ").MustBuild()
	rows := []models.CanonicalDeposit{canonical(date(2026, 1, 15), 60000, "振込ﾔﾏﾀﾞﾀﾛｳ")}

	tests := []struct {
		name    string
		tenants []models.Tenant
		want    string
	}{
		{"shorter pattern declared first", []models.Tenant{short, long}, "201"},
		{"longer pattern declared first", []models.Tenant{long, short}, "202"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				result := MatchDeposits(rows, tt.tenants, nil, DefaultOptions())
				require.Len(t, result.Matched, 1)
				assert.Equal(t, tt.want, result.Matched[0].PropertyID)
			}
		})
	}
}

func TestMatchDeposits_BlankDescriptionNeverMatches(t *testing.T) {
	result := MatchDeposits([]models.CanonicalDeposit{canonical(date(2026, 1, 15), 100, "")}, portfolio(), nil, DefaultOptions())

	assert.Empty(t, result.Matched)
	assert.Len(t, result.Unmatched, 1)
}

func matchedDeposits(t *testing.T) []models.Deposit {
	t.Helper()
	return MatchDeposits(bankRows(), portfolio(), nil, DefaultOptions()).Matched
}

func TestComputeStatus(t *testing.T) {
	rows := ComputeStatus(portfolio(), matchedDeposits(t), date(2026, 1, 20), DefaultOptions())

	require.Len(t, rows, 2)

	yamada := rows[0]
	assert.Equal(t, "101", yamada.PropertyID)
	assert.True(t, yamada.Rent.Equal(yen(60000)))
	assert.True(t, yamada.Overdue.Equal(yen(24500)))
	assert.True(t, yamada.BalanceDue.Equal(yen(84500)))
	assert.Equal(t, models.StatusDelinquent, yamada.Status)
	assert.True(t, yamada.Delinquent())
	assert.Equal(t, ledger.StrategyBaseline, yamada.Strategy)
	assert.Contains(t, yamada.LatestDescription, "2026/01/15")

	sato := rows[1]
	assert.Equal(t, "102", sato.PropertyID)
	assert.True(t, sato.Overdue.IsZero())
	assert.True(t, sato.BalanceDue.Equal(yen(50000)))
	assert.Equal(t, models.StatusNormal, sato.Status)
}

func TestComputeStatus_Threshold(t *testing.T) {
	opts := DefaultOptions()
	opts.DelinquencyThreshold = yen(30000)

	rows := ComputeStatus(portfolio(), matchedDeposits(t), date(2026, 1, 20), opts)

	require.Len(t, rows, 2)
	assert.Equal(t, models.StatusNormal, rows[0].Status)
}

func TestComputeStatus_Deterministic(t *testing.T) {
	deposits := matchedDeposits(t)
	first := ComputeStatus(portfolio(), deposits, date(2026, 1, 20), DefaultOptions())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeStatus(portfolio(), deposits, date(2026, 1, 20), DefaultOptions()))
	}
}

func TestTenantLedger(t *testing.T) {
	l, ok := TenantLedger(portfolio(), matchedDeposits(t), "101.0", date(2026, 1, 20), DefaultOptions())
	require.True(t, ok)
	assert.Len(t, l.Deposits, 1)

	_, ok = TenantLedger(portfolio(), nil, "999", date(2026, 1, 20), DefaultOptions())
	assert.False(t, ok)
}

func propertyIDs(invoices []ledger.InvoiceView) []string {
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.PropertyID)
	}
	return ids
}

func TestBuildInvoices(t *testing.T) {
	deposits := matchedDeposits(t)
	eval := date(2026, 1, 20)

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"overdue only", Selection{Mode: SelectOverdue}, []string{"101"}},
		{"all", Selection{Mode: SelectAll}, []string{"101", "102"}},
		{"explicit ids", Selection{Mode: SelectIDs, IDs: []string{"102"}}, []string{"102"}},
		{"separately managed never invoiced", Selection{Mode: SelectIDs, IDs: []string{"103"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoices := BuildInvoices(portfolio(), deposits, eval, tt.sel, DefaultOptions())
			assert.Equal(t, tt.want, propertyIDs(invoices))
		})
	}
}

func TestBuildInvoices_Payload(t *testing.T) {
	invoices := BuildInvoices(portfolio(), matchedDeposits(t), date(2026, 1, 20), Selection{Mode: SelectOverdue}, DefaultOptions())

	require.Len(t, invoices, 1)
	inv := invoices[0]
	assert.True(t, inv.TotalDue.Equal(yen(84500)))
	require.Len(t, inv.Outstanding, 2)
	assert.Equal(t, date(2026, 2, 1), inv.Outstanding[0].Period)
	assert.Len(t, inv.Recent, 1)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		ids     string
		want    Selection
		wantErr bool
	}{
		{"default is overdue", "", "", Selection{Mode: SelectOverdue}, false},
		{"all", "ALL", "", Selection{Mode: SelectAll}, false},
		{"ids win", "all", "101, 102.0,,", Selection{Mode: SelectIDs, IDs: []string{"101", "102"}}, false},
		{"ids mode without ids", "ids", "", Selection{}, true},
		{"unknown", "late", "", Selection{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSelection(tt.mode, tt.ids)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
