// Package loader reads bank exports (CSV, XLSX, XLS) into raw tables.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/logging"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/parsererror"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// EncodingAuto detects UTF-8 (with or without BOM) and falls back to
// Shift-JIS, the usual encoding of Japanese bank exports.
const EncodingAuto = "auto"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls CSV decoding.
type Options struct {
	Encoding  string
	Delimiter rune
}

// Loader reads bank files.
type Loader struct {
	opts   Options
	logger logging.Logger
}

// New creates a loader.
func New(opts Options, logger logging.Logger) *Loader {
	if opts.Encoding == "" {
		opts.Encoding = EncodingAuto
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Loader{opts: opts, logger: logger}
}

// SupportedExtensions lists the file types Load accepts.
func SupportedExtensions() []string {
	return []string{".csv", ".txt", ".xlsx", ".xls"}
}

// Load reads a file, choosing the reader by extension.
func (l *Loader) Load(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to open bank file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	ext := strings.ToLower(filepath.Ext(path))
	var table models.Table
	switch ext {
	case ".csv", ".txt":
		table, err = l.ReadCSV(f)
	case ".xlsx":
		table, err = ReadXLSX(f)
	case ".xls":
		table, err = ReadXLS(f)
	default:
		return models.Table{}, &parsererror.InvalidFormatError{
			FilePath:       path,
			ExpectedFormat: strings.Join(SupportedExtensions(), ", "),
			Msg:            "unsupported file extension " + ext,
		}
	}
	if err != nil {
		var formatErr *parsererror.InvalidFormatError
		if errors.As(err, &formatErr) && formatErr.FilePath == "" {
			formatErr.FilePath = path
		}
		return models.Table{}, err
	}

	l.logger.Info("Loaded bank file",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(table.Rows)})
	return table, nil
}

// ReadCSV decodes a CSV stream into a table.
func (l *Loader) ReadCSV(r io.Reader) (models.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to read CSV: %w", err)
	}

	text, encoding, err := Decode(raw, l.opts.Encoding)
	if err != nil {
		return models.Table{}, err
	}
	l.logger.Debug("Decoded CSV", logging.Field{Key: logging.FieldEncoding, Value: encoding})

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = l.opts.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "CSV", Msg: "malformed CSV", Err: err}
	}
	return tableFromRecords(records)
}

// Decode converts raw bytes to UTF-8 text. It returns the encoding used.
func Decode(raw []byte, encoding string) (string, string, error) {
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label == "" || label == EncodingAuto {
		if bytes.HasPrefix(raw, utf8BOM) {
			return string(raw[len(utf8BOM):]), "utf-8", nil
		}
		if utf8.Valid(raw) {
			return string(raw), "utf-8", nil
		}
		decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw)
		if err != nil {
			return "", "", &parsererror.InvalidFormatError{ExpectedFormat: "UTF-8 or Shift-JIS text", Msg: "cannot decode", Err: err}
		}
		return string(decoded), "shift_jis", nil
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", "", &parsererror.InvalidFormatError{ExpectedFormat: "known text encoding", Msg: "unknown encoding " + encoding}
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", "", &parsererror.InvalidFormatError{ExpectedFormat: name, Msg: "cannot decode", Err: err}
	}
	return string(bytes.TrimPrefix(decoded, utf8BOM)), name, nil
}

// ReadXLSX reads the first sheet of an XLSX workbook.
func ReadXLSX(r io.Reader) (models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "XLSX", Msg: "cannot open workbook", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "XLSX", Msg: "workbook has no sheets"}
	}
	// Raw values keep amounts free of display formats like "#,##0" or "¥".
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "XLSX", Msg: "cannot read sheet", Err: err}
	}
	dates := xlsxDateCells{f: f, sheet: sheets[0], styles: make(map[int]bool)}
	for r, row := range rows {
		for c, v := range row {
			if t, ok := dates.convert(c, r, v); ok {
				row[c] = t.Format(dateutils.DateLayoutISO)
			}
		}
	}
	return tableFromRecords(rows)
}

// xlsxDateCells turns date-formatted serial numbers into dates.
type xlsxDateCells struct {
	f      *excelize.File
	sheet  string
	styles map[int]bool
}

func (d xlsxDateCells) convert(col, row int, value string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || serial <= 0 {
		return time.Time{}, false
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return time.Time{}, false
	}
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(idx) {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func (d xlsxDateCells) isDateStyle(idx int) bool {
	if isDate, ok := d.styles[idx]; ok {
		return isDate
	}
	isDate := false
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		isDate = isBuiltinDateFormat(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	d.styles[idx] = isDate
	return isDate
}

// isBuiltinDateFormat reports whether a built-in number format id carries a
// calendar date. Pure time formats (18-21, 45-47) are left as numbers.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

var formatLiteralRe = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// isDateFormatCode reports whether a custom format code has a year or day
// token outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	code = strings.ToLower(formatLiteralRe.ReplaceAllString(code, ""))
	if code == "general" {
		return false
	}
	return strings.ContainsAny(code, "yd")
}

// ReadXLS reads the first sheet of a legacy XLS workbook.
func ReadXLS(r io.ReadSeeker) (models.Table, error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "XLS", Msg: "cannot open workbook", Err: err}
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "XLS", Msg: "workbook has no sheets"}
	}

	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		record := make([]string, row.LastCol())
		for c := range record {
			record[c] = row.Col(c)
		}
		records = append(records, record)
	}
	return tableFromRecords(records)
}

// tableFromRecords uses the first non-empty record as header and drops
// blank rows.
func tableFromRecords(records [][]string) (models.Table, error) {
	var table models.Table
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		if table.Header == nil {
			header := make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			}
			table.Header = header
			continue
		}
		table.Rows = append(table.Rows, rec)
	}
	if table.Header == nil {
		return models.Table{}, &parsererror.InvalidFormatError{ExpectedFormat: "table with a header row", Msg: "file is empty"}
	}
	return table, nil
}

func isBlankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
