package rentroll

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var header = []string{
	"PropertyID", "TenantName", "MonthlyRent", "BaseDebtAmount", "BaseDebtDate",
	"Zip", "Address", "BillingAddressZip", "BillingAddress", "InitialPaymentDate",
	"SeparateAccountManagement", "BankMatchName1", "BankMatchName2", "BankMatchName3", "Agent",
}

func rentRoll() models.Table {
	return models.Table{
		Header: header,
		Rows: [][]string{
			{"101.0", "山田太郎", "60000", "24500", "2025-12-16", "100-0001", "東京都千代田区1-1", "nan", "", "R5.4.1", "0", "ﾔﾏﾀﾞ ﾀﾛｳ", "", "nan", "A社"},
			{"102", "佐藤花子", "abc", "2025/12/31", "", "", "", "150-0001", "東京都渋谷区2-2", "", "1.0", "ｻﾄｳ", "ｻﾄｳ ﾊﾅｺ", "", ""},
			{"", "名無し", "50000", "", "", "", "", "", "", "", "", "", "", "", ""},
			{"104", "鈴木", "55,000", "-100", "", "", "", "", "", "", "", "ｽｽﾞｷ"},
		},
	}
}

func TestDecode(t *testing.T) {
	result, err := Decode(rentRoll(), "rent_roll.csv")
	require.NoError(t, err)

	require.Len(t, result.Tenants, 3)
	assert.Equal(t, 1, result.Fixed)
	require.Len(t, result.Skipped, 1)
	var de *parsererror.DataExtractionError
	assert.True(t, errors.As(result.Skipped[0], &de))

	yamada := result.Tenants[0]
	assert.Equal(t, "101", yamada.PropertyID)
	assert.True(t, yamada.MonthlyRent.Equal(decimal.NewFromInt(60000)))
	assert.True(t, yamada.Baseline.Debt.Equal(decimal.NewFromInt(24500)))
	assert.Equal(t, day(2025, 12, 16), yamada.Baseline.Date)
	assert.Equal(t, day(2023, 4, 1), yamada.RentStart)
	assert.Equal(t, []string{"ﾔﾏﾀﾞ ﾀﾛｳ"}, yamada.MatchNames)
	assert.False(t, yamada.SeparatelyManaged)
	assert.Equal(t, "100-0001", yamada.BillingZipCode())

	sato := result.Tenants[1]
	assert.True(t, sato.MonthlyRent.IsZero(), "unreadable rent falls back to zero")
	assert.Equal(t, day(2025, 12, 31), sato.Baseline.Date, "shifted date moved to the date column")
	assert.True(t, sato.Baseline.Debt.IsZero())
	assert.True(t, sato.SeparatelyManaged)
	assert.Equal(t, []string{"ｻﾄｳ", "ｻﾄｳ ﾊﾅｺ"}, sato.MatchNames)
	assert.Equal(t, "東京都渋谷区2-2", sato.BillingAddressLine())

	suzuki := result.Tenants[2]
	assert.True(t, suzuki.MonthlyRent.Equal(decimal.NewFromInt(55000)))
	assert.True(t, suzuki.Baseline.Debt.IsZero(), "negative debt is clamped")
	assert.False(t, suzuki.Baseline.HasDate())
}

func TestDecode_ShiftNotAppliedWhenDatePresent(t *testing.T) {
	table := models.Table{
		Header: []string{"PropertyID", "BaseDebtAmount", "BaseDebtDate"},
		Rows:   [][]string{{"1", "2025-12-01", "2025-11-01"}},
	}

	result, err := Decode(table, "x.csv")
	require.NoError(t, err)
	assert.Zero(t, result.Fixed)
	assert.Equal(t, day(2025, 11, 1), result.Tenants[0].Baseline.Date)
	assert.True(t, result.Tenants[0].Baseline.Debt.IsZero())
}

func TestDecode_MissingPropertyColumn(t *testing.T) {
	_, err := Decode(models.Table{Header: []string{"Name"}, Rows: [][]string{{"x"}}}, "x.csv")

	var fe *parsererror.InvalidFormatError
	assert.True(t, errors.As(err, &fe))
}

func TestFlag(t *testing.T) {
	for _, v := range []string{"1", "1.0", " TRUE ", "yes"} {
		assert.True(t, flag(v), v)
	}
	for _, v := range []string{"", "0", "0.0", "nan", "no"} {
		assert.False(t, flag(v), v)
	}
}

func TestLoad_ShiftJISCSV(t *testing.T) {
	content := "PropertyID,TenantName,MonthlyRent,BankMatchName1\n201,田中一郎,70000,ﾀﾅｶ\n"
	raw, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(content))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "rent_roll.csv")
	require.NoError(t, os.WriteFile(path, raw, 0600))

	result, err := Load(path, loader.New(loader.Options{}, nil))
	require.NoError(t, err)
	require.Len(t, result.Tenants, 1)
	assert.Equal(t, "田中一郎", result.Tenants[0].Name)
	assert.Equal(t, []string{"ﾀﾅｶ"}, result.Tenants[0].MatchNames)
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"PropertyID", "TenantName", "MonthlyRent", "BaseDebtDate", "BaseDebtAmount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{301, "高橋", 45000, "H31.4.1", 9000}))
	path := filepath.Join(t.TempDir(), "rent_roll.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	result, err := Load(path, loader.New(loader.Options{}, nil))
	require.NoError(t, err)
	require.Len(t, result.Tenants, 1)
	got := result.Tenants[0]
	assert.Equal(t, "301", got.PropertyID)
	assert.True(t, got.MonthlyRent.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, day(2019, 4, 1), got.Baseline.Date)
	assert.True(t, got.Baseline.Debt.Equal(decimal.NewFromInt(9000)))
}
