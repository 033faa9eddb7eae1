// Package normalizer turns a raw bank export into the canonical deposit
// table: date, amount and description.
package normalizer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/common"
	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/mapping"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/parsererror"
	"fjacquet/rent-recon/internal/textutils"
)

// Stats counts what happened to the input rows.
type Stats struct {
	Input         int `json:"input"`
	TotalRows     int `json:"total_rows"`
	NonDeposits   int `json:"non_deposits"`
	InvalidDate   int `json:"invalid_date"`
	InvalidAmount int `json:"invalid_amount"`
	NonPositive   int `json:"non_positive"`
	Kept          int `json:"kept"`
}

// Dropped is the number of input rows not kept.
func (s Stats) Dropped() int {
	return s.Input - s.Kept
}

// MaxRejected caps the row diagnostics kept in a Result.
const MaxRejected = 20

var errInvalidDate = errors.New("not a calendar date")

// Result is the canonical deposit table with its statistics. Rejected holds
// a *parsererror.ParseError, wrapped with the one-based data row number, for
// the first rows dropped because of an unreadable date or amount.
type Result struct {
	Deposits []models.CanonicalDeposit
	Stats    Stats
	Rejected []error
}

func (r *Result) reject(row int, field, value string, err error) {
	if len(r.Rejected) >= MaxRejected {
		return
	}
	r.Rejected = append(r.Rejected, fmt.Errorf("row %d: %w", row,
		&parsererror.ParseError{Parser: "normalizer", Field: field, Value: value, Err: err}))
}

type columns struct {
	date, year, month, day int
	amount, sender, filter int
	recordType             int
}

// Normalize applies a mapping to a table. Row-level problems drop the row
// and are counted; a mapping that cannot locate the date or the amount is an
// error, as is a suggestion nobody confirmed.
func Normalize(table models.Table, m models.ColumnMapping) (Result, error) {
	if m.NeedsConfirmation {
		return Result{}, parsererror.ErrUnconfirmedMapping
	}

	cols, err := resolveColumns(table, m)
	if err != nil {
		return Result{}, err
	}

	result := Result{Stats: Stats{Input: len(table.Rows)}}
	for n, row := range table.Rows {
		cell := func(i int) string { return strings.TrimSpace(table.Cell(row, i)) }
		line := n + 1

		if cols.recordType >= 0 && cell(cols.recordType) == mapping.TotalMarker {
			result.Stats.TotalRows++
			continue
		}

		switch {
		case cols.filter >= 0:
			if !textutils.EqualsAny(cell(cols.filter), mapping.DepositValues) {
				result.Stats.NonDeposits++
				continue
			}
		case cols.sender >= 0:
			if !strings.HasPrefix(cell(cols.sender), mapping.TransferMarker) {
				result.Stats.NonDeposits++
				continue
			}
		}

		date, ok := rowDate(cols, cell)
		if !ok {
			result.Stats.InvalidDate++
			result.reject(line, "date", rawDate(cols, cell), errInvalidDate)
			continue
		}

		amount, err := currencyutils.ParseAmount(cell(cols.amount))
		if err != nil {
			result.Stats.InvalidAmount++
			result.reject(line, "amount", cell(cols.amount), err)
			continue
		}
		if !amount.IsPositive() {
			result.Stats.NonPositive++
			continue
		}

		description := ""
		if cols.sender >= 0 {
			description = cell(cols.sender)
		}

		result.Deposits = append(result.Deposits, models.CanonicalDeposit{
			Date:        date,
			Amount:      amount,
			Description: description,
		})
	}

	result.Stats.Kept = len(result.Deposits)
	return result, nil
}

func resolveColumns(table models.Table, m models.ColumnMapping) (columns, error) {
	cols := columns{date: -1, year: -1, month: -1, day: -1, amount: -1, sender: -1, filter: -1, recordType: -1}

	locate := func(role, name string) (int, error) {
		i := table.ColumnIndex(name)
		if i < 0 {
			return -1, &parsererror.MappingError{Role: role, Column: name, Reason: "column not present in the table"}
		}
		return i, nil
	}

	var err error
	switch {
	case m.DateParts != nil && m.HasDate() && m.Date == "":
		if cols.year, err = locate("year", m.DateParts.Year); err != nil {
			return cols, err
		}
		if cols.month, err = locate("month", m.DateParts.Month); err != nil {
			return cols, err
		}
		if cols.day, err = locate("day", m.DateParts.Day); err != nil {
			return cols, err
		}
	case m.Date != "":
		if cols.date, err = locate("date", m.Date); err != nil {
			return cols, err
		}
	default:
		return cols, &parsererror.MappingError{Role: "date", Reason: "no date column could be determined; select it manually"}
	}

	if !m.HasAmount() {
		return cols, &parsererror.MappingError{Role: "amount", Reason: "no amount column could be determined; select it manually"}
	}
	if cols.amount, err = locate("amount", m.Amount); err != nil {
		return cols, err
	}

	// Optional roles referring to missing columns are ignored.
	if m.Sender != "" {
		cols.sender = table.ColumnIndex(m.Sender)
	}
	if m.DepositFilter != "" {
		cols.filter = table.ColumnIndex(m.DepositFilter)
	}
	for i, h := range table.Header {
		if strings.Contains(h, mapping.RecordTypeKeyword) {
			cols.recordType = i
			break
		}
	}
	return cols, nil
}

func rowDate(cols columns, cell func(int) string) (time.Time, bool) {
	if cols.date >= 0 {
		return dateutils.ParseEraDate(cell(cols.date))
	}
	y, ok := wholeNumber(cell(cols.year))
	if !ok {
		return time.Time{}, false
	}
	m, ok := wholeNumber(cell(cols.month))
	if !ok {
		return time.Time{}, false
	}
	d, ok := wholeNumber(cell(cols.day))
	if !ok {
		return time.Time{}, false
	}
	return dateutils.Date(y, m, d)
}

func rawDate(cols columns, cell func(int) string) string {
	if cols.date >= 0 {
		return cell(cols.date)
	}
	return cell(cols.year) + "/" + cell(cols.month) + "/" + cell(cols.day)
}

// wholeNumber reads "2026" as well as the "2026.0" spreadsheets produce.
func wholeNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// canonicalRow is the CSV shape of a canonical deposit.
type canonicalRow struct {
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Description string `csv:"description"`
}

// WriteCSV writes the canonical table with the header date,amount,description.
func WriteCSV(w io.Writer, deposits []models.CanonicalDeposit, delimiter rune) error {
	rows := make([]canonicalRow, 0, len(deposits))
	for _, d := range deposits {
		rows = append(rows, toCanonicalRow(d))
	}
	return common.WriteCSV(w, rows, delimiter)
}

func toCanonicalRow(d models.CanonicalDeposit) canonicalRow {
	return canonicalRow{
		Date:        dateutils.ToISODate(d.Date),
		Amount:      d.Amount.String(),
		Description: d.Description,
	}
}

// WriteCSVFile writes the canonical table to a file.
func WriteCSVFile(path string, deposits []models.CanonicalDeposit, delimiter rune, logger logging.Logger) error {
	rows := make([]canonicalRow, 0, len(deposits))
	for _, d := range deposits {
		rows = append(rows, toCanonicalRow(d))
	}
	return common.WriteCSVFile(path, rows, delimiter, logger)
}
