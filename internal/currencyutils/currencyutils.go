// Package currencyutils provides yen amount parsing and formatting.
package currencyutils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// amountNoise lists the characters removed before parsing an amount: ASCII
// and full-width thousands separators, yen markers and spaces.
var amountNoise = strings.NewReplacer(
	",", "",
	"，", "",
	"円", "",
	"¥", "",
	"￥", "",
	"\\", "",
	" ", "",
	"　", "",
	"+", "",
)

var printer = message.NewPrinter(language.Japanese)

// StandardizeAmount strips separators and currency markers so the result can
// be read by decimal.NewFromString. A trailing ".0" written by spreadsheet
// exports is kept; decimal handles it.
func StandardizeAmount(amountStr string) string {
	s := amountNoise.Replace(strings.TrimSpace(amountStr))
	s = strings.ReplaceAll(s, "−", "-")
	if strings.HasPrefix(s, "△") || strings.HasPrefix(s, "▲") {
		s = "-" + strings.TrimLeft(s, "△▲")
	}
	return s
}

// ParseAmount parses a bank amount such as "60,000", "¥60,000" or "60000.0".
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': empty value", amountStr)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// ParseAmountOrZero is ParseAmount for tenant records, where a malformed value
// must not block the rest of the portfolio.
func ParseAmountOrZero(amountStr string) decimal.Decimal {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// IsNumeric reports whether s parses as an amount.
func IsNumeric(s string) bool {
	_, err := ParseAmount(s)
	return err == nil
}

// FormatYen renders an amount as a whole-yen figure with thousands separators,
// e.g. "60,000". Fractions are rounded.
func FormatYen(amount decimal.Decimal) string {
	return printer.Sprintf("%d", amount.Round(0).IntPart())
}

// IsPositive checks if an amount is positive
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
