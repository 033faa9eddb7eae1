package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/dateutils"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var (
	memoDateRe    = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	memoFullRe    = regexp.MustCompile(`(?:(\d{4})年)?(\d{1,2})月分(全額|全額充当)`)
	memoPartialRe = regexp.MustCompile(`(?:(\d{4})年)?(\d{1,2})月分のうち([\d,]+)円`)
)

// MemoPayment is a month the memo reports as paid, fully or in part.
type MemoPayment struct {
	Month  time.Time
	Full   bool
	Amount decimal.Decimal
}

// PaidAmount returns what the memo says was paid against a month's rent.
func (p MemoPayment) PaidAmount(rent decimal.Decimal) decimal.Decimal {
	if p.Full {
		return rent
	}
	return p.Amount
}

// MemoParse is what a delinquency memo says about a tenant's history.
type MemoParse struct {
	// Settled is set for an empty memo or one starting with "ok": the tenant
	// is considered paid through the month after evaluation.
	Settled bool
	// Anchor is the date up to which history is already accounted for.
	Anchor time.Time
	// FirstMention is the earliest month named in the memo, capped at the
	// evaluation month. Months before it count as paid.
	FirstMention time.Time
	// Payments are in ascending month order, one per month.
	Payments []MemoPayment
}

// Payment returns the memo entry for a month.
func (m MemoParse) Payment(month time.Time) (MemoPayment, bool) {
	for _, p := range m.Payments {
		if p.Month.Equal(month) {
			return p, true
		}
	}
	return MemoPayment{}, false
}

// ParseMemo reads a free-text delinquency memo such as
// "2026/01/15 60000円入金 2025年12月分全額充当". Only the first
// date-delimited entry is read so older history in the same memo is not
// mixed in. Months written without a year take the evaluation year, or the
// previous one when the month is more than two months ahead of evaluation.
func ParseMemo(text string, evalDate time.Time) MemoParse {
	evalMonth := dateutils.NormalizeMonth(evalDate)
	// Full-width digits and slashes are common in hand-typed memos.
	memo := strings.TrimSpace(width.Fold.String(text))

	if memo == "" || strings.HasPrefix(strings.ToLower(memo), "ok") {
		anchor := dateutils.AddMonths(evalMonth, 1)
		return MemoParse{Settled: true, Anchor: anchor, FirstMention: anchor}
	}

	parseText := firstMemoSection(memo)
	firstMention := evalMonth
	seen := map[string]bool{}
	var payments []MemoPayment

	record := func(yearStr, monthStr string, p MemoPayment) {
		month, ok := memoMonth(yearStr, monthStr, evalDate)
		if !ok {
			return
		}
		key := month.Format("2006-01")
		if !seen[key] {
			seen[key] = true
			p.Month = month
			payments = append(payments, p)
		}
		if month.Before(firstMention) {
			firstMention = month
		}
	}

	for _, m := range memoFullRe.FindAllStringSubmatch(parseText, -1) {
		record(m[1], m[2], MemoPayment{Full: true})
	}
	for _, m := range memoPartialRe.FindAllStringSubmatch(parseText, -1) {
		amount, err := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
		if err != nil {
			continue
		}
		record(m[1], m[2], MemoPayment{Amount: amount})
	}

	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].Month.Before(payments[j].Month)
	})

	anchor := dateutils.MinTime(firstMention, evalMonth).AddDate(0, 0, -1)
	if m := memoDateRe.FindStringSubmatch(parseText); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := dateutils.Date(y, mo, d); ok {
			anchor = t
		}
	}

	return MemoParse{
		Anchor:       anchor,
		FirstMention: firstMention,
		Payments:     payments,
	}
}

// firstMemoSection keeps the text before and through the first dated entry.
func firstMemoSection(memo string) string {
	locs := memoDateRe.FindAllStringIndex(memo, -1)
	if len(locs) == 0 {
		return memo
	}
	// Text up to the second date belongs to the first entry.
	if len(locs) > 1 {
		return memo[:locs[1][0]]
	}
	return memo
}

func memoMonth(yearStr, monthStr string, evalDate time.Time) (time.Time, bool) {
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	year := evalDate.Year()
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	} else if month > int(evalDate.Month())+2 {
		year--
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}
