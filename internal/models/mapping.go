package models

// DateParts names the columns of a date split over three columns.
type DateParts struct {
	Year  string `json:"year" yaml:"year"`
	Month string `json:"month" yaml:"month"`
	Day   string `json:"day" yaml:"day"`
}

// ColumnMapping ties the semantic roles of a bank export to its header
// columns. At most one of Date and DateParts is set.
type ColumnMapping struct {
	Date              string     `json:"date,omitempty" yaml:"date,omitempty"`
	DateParts         *DateParts `json:"date_parts,omitempty" yaml:"date_parts,omitempty"`
	Amount            string     `json:"amount,omitempty" yaml:"amount,omitempty"`
	Sender            string     `json:"sender,omitempty" yaml:"sender,omitempty"`
	DepositFilter     string     `json:"deposit_filter,omitempty" yaml:"deposit_filter,omitempty"`
	Confidence        float64    `json:"confidence" yaml:"confidence"`
	Source            string     `json:"source,omitempty" yaml:"source,omitempty"`
	Profile           string     `json:"profile,omitempty" yaml:"profile,omitempty"`
	NeedsConfirmation bool       `json:"needs_confirmation,omitempty" yaml:"needs_confirmation,omitempty"`
}

// HasDate reports whether a date role is mapped.
func (m ColumnMapping) HasDate() bool {
	return m.Date != "" || (m.DateParts != nil && m.DateParts.Year != "" && m.DateParts.Month != "" && m.DateParts.Day != "")
}

// HasAmount reports whether the amount role is mapped.
func (m ColumnMapping) HasAmount() bool {
	return m.Amount != ""
}

// Confirmed returns a copy accepted by the operator.
func (m ColumnMapping) Confirmed() ColumnMapping {
	m.NeedsConfirmation = false
	if m.Source == "" {
		m.Source = SourceManual
	}
	return m
}

// Table is a raw bank export: a header row and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of a header column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value of a column in a row, "" when absent.
func (t Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Column returns up to limit values of a column, limit <= 0 for all.
func (t Table) Column(col, limit int) []string {
	n := len(t.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	values := make([]string, 0, n)
	for _, row := range t.Rows[:n] {
		values = append(values, t.Cell(row, col))
	}
	return values
}
