// Package dateutils provides the date handling shared by the normalizer and the
// ledger: generic bank-export date parsing, Japanese era dates and month
// arithmetic on first-of-month periods.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Common date layouts
const (
	DateLayoutISO     = "2006-01-02"
	DateLayoutSlash   = "2006/01/02"
	DateLayoutFull    = "2006-01-02 15:04:05"
	DateLayoutCompact = "20060102"
)

// CommonFormats is the list of layouts tried, in order, by ParseDate.
var CommonFormats = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	DateLayoutFull,
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	DateLayoutISO + "T15:04:05Z07:00",
	"2006年1月2日",
	DateLayoutCompact,
	"01/02/2006",
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	eraRe        = regexp.MustCompile(`^([HRSThrst])(\d+)\.(\d+)\.(\d+)`)
)

// eraOffsets maps the leading era letter to the Gregorian year of era year 0.
var eraOffsets = map[byte]int{
	'H': 1988, // Heisei
	'R': 2018, // Reiwa
	'S': 1925, // Showa
	'T': 1911, // Taisho
}

// ParseDate attempts to parse a date string using CommonFormats.
func ParseDate(dateStr string) (time.Time, error) {
	clean := CleanDateString(dateStr)
	if clean == "" {
		return time.Time{}, fmt.Errorf("unable to parse date: empty value")
	}

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, clean); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseEraDate converts a Japanese era date such as "H31.2.15" or "R5.6.1" to
// a Gregorian date, falling back to ParseDate for anything else. The boolean
// is false when the input cannot be read as a date; no error is raised.
func ParseEraDate(s string) (time.Time, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if clean == "" || strings.EqualFold(clean, "nan") || strings.EqualFold(clean, "none") {
		return time.Time{}, false
	}

	if m := eraRe.FindStringSubmatch(clean); m != nil {
		offset := eraOffsets[strings.ToUpper(m[1])[0]]
		year, _ := strconv.Atoi(m[2])
		month, _ := strconv.Atoi(m[3])
		day, _ := strconv.Atoi(m[4])
		t, ok := Date(offset+year, month, day)
		if ok {
			return t, true
		}
		return time.Time{}, false
	}

	t, err := ParseDate(clean)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Date builds a UTC date and reports whether the components form a real
// calendar date (time.Date silently normalizes Feb 30 into March).
func Date(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// NormalizeMonth truncates t to the first day of its month, in UTC. All
// obligation periods and cutoff comparisons are made on normalized months.
func NormalizeMonth(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves a normalized month by n months.
func AddMonths(month time.Time, n int) time.Time {
	m := NormalizeMonth(month)
	return m.AddDate(0, n, 0)
}

// StartOfDay drops the clock part of t, in UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CompareDates compares two dates at day granularity and returns -1, 0 or 1.
func CompareDates(date1, date2 time.Time) int {
	date1 = time.Date(date1.Year(), date1.Month(), date1.Day(), 0, 0, 0, 0, time.UTC)
	date2 = time.Date(date2.Year(), date2.Month(), date2.Day(), 0, 0, 0, 0, time.UTC)

	if date1.Before(date2) {
		return -1
	} else if date1.After(date2) {
		return 1
	}
	return 0
}

// MinTime returns the earlier of two times.
func MinTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxTime returns the later of two times.
func MaxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}

// ToSlashDate formats a time.Time value as YYYY/MM/DD, the form used in
// allocation descriptions and payment memos.
func ToSlashDate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutSlash)
}
