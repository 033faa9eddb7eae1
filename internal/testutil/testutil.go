// Package testutil holds fixtures shared by command and integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/rent-recon/internal/config"
	"fjacquet/rent-recon/internal/container"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// BankCSV is a small bank export whose columns the heuristics resolve. Two
// rows match Portfolio tenants, one deposit is unknown and one row is a
// withdrawal.
const BankCSV = `年,月,日,取引区分,金額,摘要
2026,1,15,振込入金,"60,000",振込 ﾔﾏﾀﾞ ﾀﾛｳ
2026,1,16,出金,3000,ｶｰﾄﾞ
2026,1,17,入金,"50,000",振込ｻﾄｳ
2026,1,18,入金,"8,000",振込ｽｽﾞｷ
`

// Day is a UTC calendar date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Portfolio returns a delinquent baseline tenant (101) and a clean-start
// tenant (102).
func Portfolio() []models.Tenant {
	return []models.Tenant{
		models.NewTenantBuilder().
			WithPropertyID("101").
			WithName("山田太郎").
			WithRentInt(60000).
			WithMatchNames("ﾔﾏﾀﾞ ﾀﾛｳ").
			WithBaseline(Day(2025, 12, 16), decimal.NewFromInt(24500)).
			MustBuild(),
		models.NewTenantBuilder().
			WithPropertyID("102").
			WithName("佐藤花子").
			WithRentInt(50000).
			WithMatchNames("ｻﾄｳ").
			WithBaseline(Day(2025, 12, 31), decimal.Zero).
			AsCleanStart().
			MustBuild(),
	}
}

// Deposits are January payments already recorded for Portfolio: 101 pays
// one month's rent, 102 pays in full. As of 2026-01-20, 101 is delinquent
// with 24,500 overdue and 102 is current.
func Deposits() []models.Deposit {
	return []models.Deposit{
		{PropertyID: "101", Date: Day(2026, 1, 15), Amount: decimal.NewFromInt(60000), Summary: "振込 ﾔﾏﾀﾞ ﾀﾛｳ ｼﾞｭｳｶﾞﾂ"},
		{PropertyID: "102", Date: Day(2026, 1, 10), Amount: decimal.NewFromInt(50000), Summary: "振込ｻﾄｳ ﾊﾅｺ"},
	}
}

// SeedDeposits records Deposits.
func (a *App) SeedDeposits(t testing.TB) {
	t.Helper()
	require.NoError(t, a.Store.UpsertDeposits(context.Background(), Deposits()))
}

// Config returns the default configuration with the data directory inside
// the test's temp dir.
func Config(t testing.TB) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Directory = t.TempDir()
	return cfg
}

// App is a container over an in-memory store seeded with Portfolio.
type App struct {
	Container *container.Container
	Store     *store.MemoryStore
	Logger    *logging.MockLogger
	Config    *config.Config
}

// NewApp wires a container for command tests. It is closed on cleanup.
func NewApp(t testing.TB) *App {
	t.Helper()
	cfg := Config(t)
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertTenants(context.Background(), Portfolio()))

	logger := logging.NewMockLogger()
	c, err := container.NewContainerWithStorage(context.Background(), cfg, logger, st)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &App{Container: c, Store: st, Logger: logger, Config: cfg}
}

// WriteFile writes content into a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
