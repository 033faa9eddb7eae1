// Package textutils provides the string normalization used to match bank
// payer names against tenants and to compare bank CSV headers with keywords.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// TransferPrefixes are stripped from payer names, in order, after whitespace
// removal: the bank transfer marker and the katakana abbreviations banks use
// for additional ("ツイカ") and re-sent ("サイソウ") transfers.
var TransferPrefixes = []string{"振込", "ﾂｲｶ", "ｻｲｿｳ"}

// IsBlank reports whether s carries no usable value. Spreadsheet exports
// write missing cells as "nan", "None" or "NaT".
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "nat", "null":
		return true
	}
	return false
}

// StripSpaces removes every whitespace rune, full-width spaces included.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeName prepares a payer name or deposit description for substring
// matching. Blank input yields "".
func NormalizeName(s string) string {
	if IsBlank(s) {
		return ""
	}
	name := StripSpaces(s)
	for _, prefix := range TransferPrefixes {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.ToUpper(name)
}

// FoldWidth maps full-width ASCII to its narrow form and half-width katakana
// to its wide form, then lower-cases and trims. Used for header comparisons
// only; payer names keep their original width.
func FoldWidth(s string) string {
	return strings.ToLower(strings.TrimSpace(width.Fold.String(s)))
}

// ContainsAny reports whether s contains any of the keywords.
func ContainsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// EqualsAny reports whether s equals any of the keywords.
func EqualsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if s == kw {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
