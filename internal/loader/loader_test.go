package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/parsererror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const bankCSV = "年,月,日,金額,摘要\n2026,1,15,\"60,000\",振込 ﾔﾏﾀﾞ ﾀﾛｳ\n,,,,\n2026,1,16,3000,ｶｰﾄﾞ\n"

func encode(t *testing.T, s string, enc transform.Transformer) []byte {
	t.Helper()
	out, _, err := transform.Bytes(enc, []byte(s))
	require.NoError(t, err)
	return out
}

func TestReadCSV_UTF8(t *testing.T) {
	l := New(Options{}, logging.NewMockLogger())

	table, err := l.ReadCSV(strings.NewReader(bankCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"年", "月", "日", "金額", "摘要"}, table.Header)
	require.Len(t, table.Rows, 2, "blank rows are dropped")
	assert.Equal(t, "60,000", table.Rows[0][3])
	assert.Equal(t, "振込 ﾔﾏﾀﾞ ﾀﾛｳ", table.Rows[0][4])
}

func TestReadCSV_UTF8WithBOM(t *testing.T) {
	l := New(Options{}, nil)
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(bankCSV)...)

	table, err := l.ReadCSV(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "年", table.Header[0])
}

func TestReadCSV_ShiftJISAutoDetected(t *testing.T) {
	logger := logging.NewMockLogger()
	l := New(Options{Encoding: EncodingAuto}, logger)
	raw := encode(t, bankCSV, japanese.ShiftJIS.NewEncoder())
	require.False(t, bytes.Equal(raw, []byte(bankCSV)))

	table, err := l.ReadCSV(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "摘要", table.Header[4])
	assert.Equal(t, "振込 ﾔﾏﾀﾞ ﾀﾛｳ", table.Rows[0][4])
}

func TestReadCSV_ExplicitEncodingLabel(t *testing.T) {
	l := New(Options{Encoding: "euc-jp"}, nil)
	raw := encode(t, "日付,金額\n2026/01/15,100\n", japanese.EUCJP.NewEncoder())

	table, err := l.ReadCSV(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"日付", "金額"}, table.Header)
}

func TestReadCSV_SemicolonDelimiter(t *testing.T) {
	l := New(Options{Delimiter: ';'}, nil)

	table, err := l.ReadCSV(strings.NewReader("date;amount\n2026-01-15; 100\n"))
	require.NoError(t, err)
	assert.Equal(t, "100", table.Rows[0][1])
}

func TestDecode_UnknownEncoding(t *testing.T) {
	_, _, err := Decode([]byte("x"), "klingon")
	var formatErr *parsererror.InvalidFormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := New(Options{}, nil).ReadCSV(strings.NewReader("\n\n"))
	assert.Error(t, err)
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"日付", "金額", "摘要"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2026/01/15", 60000, "振込 ﾔﾏﾀﾞ"}))
	path := filepath.Join(t.TempDir(), "bank.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := New(Options{}, logging.NewMockLogger()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"日付", "金額", "摘要"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "60000", table.Rows[0][1])
}

func TestLoad_XLSXDateAndNumberCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"日付", "金額", "摘要", "記帳日"}))
	paid := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{paid, 60000, "振込 ﾔﾏﾀﾞ", 46037}))

	yen := "¥#,##0"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &yen})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", amountStyle))
	wareki := `yyyy"年"m"月"d"日"`
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &wareki})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "D2", dateStyle))

	path := filepath.Join(t.TempDir(), "bank.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := New(Options{}, logging.NewMockLogger()).Load(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]

	assert.Equal(t, "2026-01-15", row[0])
	got, ok := dateutils.ParseEraDate(row[0])
	require.True(t, ok)
	assert.True(t, paid.Equal(got))
	assert.Equal(t, "60000", row[1])
	assert.Equal(t, "2026-01-15", row[3])
}

func TestIsDateFormatCode(t *testing.T) {
	assert.True(t, isDateFormatCode("yyyy/mm/dd"))
	assert.True(t, isDateFormatCode(`[$-411]ggge"年"m"月"d"日"`))
	assert.False(t, isDateFormatCode("General"))
	assert.False(t, isDateFormatCode(`#,##0"円"`))
	assert.False(t, isDateFormatCode("[Red]#,##0"))
	assert.False(t, isDateFormatCode("h:mm:ss"))
}

func TestLoad_CSVFile(t *testing.T) {
	logger := logging.NewMockLogger()
	path := filepath.Join(t.TempDir(), "bank.CSV")
	require.NoError(t, os.WriteFile(path, []byte(bankCSV), 0600))

	table, err := New(Options{}, logger).Load(path)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.True(t, logger.HasEntry("INFO", "Loaded bank file"))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{}, nil)

	_, err := l.Load(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	pdf := filepath.Join(dir, "statement.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0600))
	_, err = l.Load(pdf)
	var formatErr *parsererror.InvalidFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, pdf, formatErr.FilePath)

	broken := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("not a zip"), 0600))
	_, err = l.Load(broken)
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, broken, formatErr.FilePath)
}
