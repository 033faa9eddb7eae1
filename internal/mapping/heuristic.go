package mapping

import (
	"regexp"
	"strings"

	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/models"
	"fjacquet/rent-recon/internal/textutils"
)

var dateValueRe = regexp.MustCompile(`^\d{4}[/\-]\d{1,2}[/\-]\d{1,2}`)

// columnSet tracks header columns already assigned to a role.
type columnSet map[int]bool

// Heuristic infers a mapping from header keywords, falling back to sniffing
// sampled values. It never consults profiles or external services.
func Heuristic(table models.Table) models.ColumnMapping {
	folded := make([]string, len(table.Header))
	for i, h := range table.Header {
		folded[i] = textutils.FoldWidth(h)
	}

	mapping := models.ColumnMapping{Source: models.SourceHeuristic}
	claimed := columnSet{}
	score := 0

	if parts, ok := detectDateParts(table.Header, folded, claimed); ok {
		mapping.DateParts = parts
		score++
	} else if col := findColumn(folded, DateKeywords, nil, false, claimed); col >= 0 {
		mapping.Date = table.Header[col]
		claimed[col] = true
		score++
	} else if col := sniffDateColumn(table, claimed); col >= 0 {
		mapping.Date = table.Header[col]
		claimed[col] = true
		score++
	}

	amountCol := findColumn(folded, AmountKeywords, AmountExclude, false, claimed)
	if amountCol < 0 {
		amountCol = sniffNumericColumn(table, folded, claimed)
	}
	if amountCol >= 0 {
		mapping.Amount = table.Header[amountCol]
		claimed[amountCol] = true
		score++
	}

	if col := findColumn(folded, SenderKeywords, nil, false, claimed); col >= 0 {
		mapping.Sender = table.Header[col]
		claimed[col] = true
		score++
	}

	if col := findColumn(folded, DepositKeywords, DepositExclude, false, claimed); col >= 0 {
		if hasDepositValues(table, col) {
			mapping.DepositFilter = table.Header[col]
		}
	}

	mapping.Confidence = float64(score) / 3
	return mapping
}

// detectDateParts looks for year, month and day in three distinct columns:
// first by exact header match, then by containment while skipping columns
// already taken, which separates compound headers such as "取扱日付　年".
func detectDateParts(header, folded []string, claimed columnSet) (*models.DateParts, bool) {
	for _, exact := range []bool{true, false} {
		taken := columnSet{}
		for k := range claimed {
			taken[k] = true
		}
		year := findColumn(folded, YearKeywords, nil, exact, taken)
		if year < 0 {
			continue
		}
		taken[year] = true
		month := findColumn(folded, MonthKeywords, nil, exact, taken)
		if month < 0 {
			continue
		}
		taken[month] = true
		day := findColumn(folded, DayKeywords, nil, exact, taken)
		if day < 0 {
			continue
		}
		taken[day] = true

		for k := range taken {
			claimed[k] = true
		}
		return &models.DateParts{Year: header[year], Month: header[month], Day: header[day]}, true
	}
	return nil, false
}

// findColumn returns the first column matching any keyword, or -1. Columns
// containing an exclude keyword or already claimed are skipped.
func findColumn(folded, keywords, exclude []string, exact bool, claimed columnSet) int {
	for i, header := range folded {
		if claimed[i] || textutils.ContainsAny(header, exclude) {
			continue
		}
		for _, kw := range keywords {
			kw = strings.ToLower(kw)
			if (exact && header == kw) || (!exact && strings.Contains(header, kw)) {
				return i
			}
		}
	}
	return -1
}

// sampleValues returns up to SampleRows non-blank values of a column.
func sampleValues(table models.Table, col int) []string {
	var values []string
	for _, row := range table.Rows {
		v := strings.TrimSpace(table.Cell(row, col))
		if textutils.IsBlank(v) {
			continue
		}
		values = append(values, v)
		if len(values) == SampleRows {
			break
		}
	}
	return values
}

func sniffDateColumn(table models.Table, claimed columnSet) int {
	for col := range table.Header {
		if claimed[col] {
			continue
		}
		hits := 0
		for _, v := range sampleValues(table, col) {
			if dateValueRe.MatchString(v) {
				hits++
			}
		}
		if hits >= MinSampleHits {
			return col
		}
	}
	return -1
}

func sniffNumericColumn(table models.Table, folded []string, claimed columnSet) int {
	for col := range table.Header {
		if claimed[col] || textutils.ContainsAny(folded[col], AmountExclude) {
			continue
		}
		hits := 0
		for _, v := range sampleValues(table, col) {
			if currencyutils.IsNumeric(v) {
				hits++
			}
		}
		if hits >= MinSampleHits {
			return col
		}
	}
	return -1
}

func hasDepositValues(table models.Table, col int) bool {
	for _, row := range table.Rows {
		if textutils.EqualsAny(strings.TrimSpace(table.Cell(row, col)), DepositValues) {
			return true
		}
	}
	return false
}
