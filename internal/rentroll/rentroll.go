// Package rentroll decodes a rent roll spreadsheet into tenants. Malformed
// values fall back to safe defaults so one bad line never blocks the import.
package rentroll

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/parsererror"
	"fjacquet/rent-recon/internal/textutils"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Row is one rent roll line, decoded by header name.
type Row struct {
	PropertyID         string `csv:"PropertyID"`
	TenantName         string `csv:"TenantName"`
	MonthlyRent        string `csv:"MonthlyRent"`
	BaseDebtAmount     string `csv:"BaseDebtAmount"`
	BaseDebtDate       string `csv:"BaseDebtDate"`
	BaseSurplusAmount  string `csv:"BaseSurplusAmount"`
	AdjustmentAmount   string `csv:"AdjustmentAmount"`
	AdjustmentMemo     string `csv:"AdjustmentMemo"`
	CleanStart         string `csv:"CleanStart"`
	LastConfirmedDate  string `csv:"LastConfirmedDate"`
	InitialPaymentDate string `csv:"InitialPaymentDate"`
	Zip                string `csv:"Zip"`
	Address            string `csv:"Address"`
	BillingAddressZip  string `csv:"BillingAddressZip"`
	BillingAddress     string `csv:"BillingAddress"`
	LatestPaymentMemo  string `csv:"LatestPaymentMemo"`
	SeparateManagement string `csv:"SeparateAccountManagement"`
	BankMatchName1     string `csv:"BankMatchName1"`
	BankMatchName2     string `csv:"BankMatchName2"`
	BankMatchName3     string `csv:"BankMatchName3"`
	Owner              string `csv:"Owner"`
}

// Result is the outcome of decoding a rent roll.
type Result struct {
	Tenants []models.Tenant
	// Fixed counts rows whose baseline date had slipped into the amount
	// column.
	Fixed   int
	Skipped []error
}

var shiftedDateRe = regexp.MustCompile(`^\d{4}[-/]\d{1,2}[-/]\d{1,2}$`)

// Load reads a rent roll file (CSV in any supported encoding, XLSX or XLS).
func Load(path string, ld *loader.Loader) (Result, error) {
	table, err := ld.Load(path)
	if err != nil {
		return Result{}, err
	}
	return Decode(table, path)
}

// Decode converts a loaded table. source names the file in errors.
func Decode(table models.Table, source string) (Result, error) {
	if table.ColumnIndex("PropertyID") < 0 {
		return Result{}, &parsererror.InvalidFormatError{
			FilePath:       source,
			ExpectedFormat: "rent roll",
			Msg:            "missing PropertyID column",
		}
	}
	var rows []Row
	if err := gocsv.UnmarshalCSV(&tableReader{table: table}, &rows); err != nil {
		return Result{}, &parsererror.InvalidFormatError{
			FilePath:       source,
			ExpectedFormat: "rent roll",
			Msg:            "cannot decode rent roll columns",
			Err:            err,
		}
	}

	var result Result
	for i, row := range rows {
		if fixShiftedDate(&row) {
			result.Fixed++
		}
		tenant, err := row.Tenant()
		if err != nil {
			result.Skipped = append(result.Skipped, &parsererror.DataExtractionError{
				FilePath:       source,
				FieldName:      "PropertyID",
				RawDataSnippet: fmt.Sprintf("row %d: %s", i+2, textutils.Truncate(row.TenantName, 40)),
				Reason:         err.Error(),
			})
			continue
		}
		result.Tenants = append(result.Tenants, tenant)
	}
	return result, nil
}

// fixShiftedDate moves a date found in the amount column into the empty date
// column and zeroes the amount.
func fixShiftedDate(row *Row) bool {
	amount := strings.TrimSpace(row.BaseDebtAmount)
	if !shiftedDateRe.MatchString(amount) || !textutils.IsBlank(row.BaseDebtDate) {
		return false
	}
	row.BaseDebtDate = amount
	row.BaseDebtAmount = "0"
	return true
}

// Tenant converts the row. Only a missing property id is an error. A debt
// without a baseline date is dropped.
func (r Row) Tenant() (models.Tenant, error) {
	rent := decimal.Max(currencyutils.ParseAmountOrZero(clean(r.MonthlyRent)), decimal.Zero)

	b := models.NewTenantBuilder().
		WithPropertyID(r.PropertyID).
		WithName(clean(r.TenantName)).
		WithRent(rent).
		WithAddress(clean(r.Zip), clean(r.Address)).
		WithBillingAddress(clean(r.BillingAddressZip), clean(r.BillingAddress)).
		WithMatchNames(r.BankMatchName1, r.BankMatchName2, r.BankMatchName3).
		WithMemo(clean(r.LatestPaymentMemo)).
		WithRentStart(date(r.InitialPaymentDate)).
		WithSurplus(currencyutils.ParseAmountOrZero(clean(r.BaseSurplusAmount))).
		WithAdjustment(currencyutils.ParseAmountOrZero(clean(r.AdjustmentAmount)), clean(r.AdjustmentMemo)).
		WithLastConfirmed(date(r.LastConfirmedDate)).
		WithOwner(clean(r.Owner))
	if baseDate := date(r.BaseDebtDate); !baseDate.IsZero() {
		b.WithBaseline(baseDate, currencyutils.ParseAmountOrZero(clean(r.BaseDebtAmount)))
	}
	if flag(r.CleanStart) {
		b.AsCleanStart()
	}
	if flag(r.SeparateManagement) {
		b.SeparatelyManaged()
	}
	return b.Build()
}

func clean(s string) string {
	if textutils.IsBlank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func date(s string) time.Time {
	t, ok := dateutils.ParseEraDate(clean(s))
	if !ok {
		return time.Time{}
	}
	return t
}

// flag reads spreadsheet booleans: 1, 1.0, true, yes.
func flag(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(v, "1") || v == "true" || v == "yes"
}

// tableReader feeds a loaded table to gocsv.
type tableReader struct {
	table models.Table
	next  int
}

func (r *tableReader) Read() ([]string, error) {
	if r.next == 0 {
		r.next++
		return r.table.Header, nil
	}
	if r.next > len(r.table.Rows) {
		return nil, io.EOF
	}
	row := r.table.Rows[r.next-1]
	r.next++
	return padded(row, len(r.table.Header)), nil
}

func (r *tableReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func padded(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
