package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
)

// Result is the outcome of an allocation pass.
type Result struct {
	Obligations []models.Obligation
	Deposits    []models.AllocatedDeposit
}

// Allocate applies credits and then every deposit after the cutoff to the
// obligations, oldest first. Deposits dated on or before the cutoff day are
// marked as recorded and left out, since the baseline already reflects them.
// A zero cutoff allocates everything. The inputs are not modified.
func Allocate(obligations []models.Obligation, credits decimal.Decimal, deposits []models.Deposit, cutoff time.Time) Result {
	obs := OrderObligations(obligations)

	if credits.IsPositive() {
		obs, _, _ = fill(obs, credits)
	}

	sorted := append([]models.Deposit(nil), deposits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	allocated := make([]models.AllocatedDeposit, 0, len(sorted))
	for _, d := range sorted {
		if !cutoff.IsZero() && dateutils.CompareDates(d.Date, cutoff) <= 0 {
			allocated = append(allocated, models.AllocatedDeposit{
				Deposit:     d,
				Surplus:     decimal.Zero,
				Recorded:    true,
				Description: models.LabelRecorded,
			})
			continue
		}

		var allocations []models.Allocation
		var surplus decimal.Decimal
		obs, allocations, surplus = fill(obs, d.Amount)
		allocated = append(allocated, models.AllocatedDeposit{
			Deposit:     d,
			Allocations: allocations,
			Surplus:     surplus,
			Description: describe(d.Date, allocations, surplus),
		})
	}

	return Result{Obligations: obs, Deposits: allocated}
}

// OrderObligations returns a copy in allocation order: carry-over and
// adjustment entries first, in their given order, then monthly rent by
// period.
func OrderObligations(obligations []models.Obligation) []models.Obligation {
	ordered := append([]models.Obligation(nil), obligations...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.IsMonthly() != b.IsMonthly() {
			return !a.IsMonthly()
		}
		if a.IsMonthly() {
			return a.Period.Before(b.Period)
		}
		return false
	})
	return ordered
}

// fill is one step of the fold: it applies amount to the unpaid obligations
// in order and returns the updated list, what was applied where, and the
// leftover.
func fill(obligations []models.Obligation, amount decimal.Decimal) ([]models.Obligation, []models.Allocation, decimal.Decimal) {
	next := make([]models.Obligation, len(obligations))
	copy(next, obligations)

	remaining := amount
	var allocations []models.Allocation
	for i := range next {
		if !remaining.IsPositive() {
			break
		}
		need := next[i].Remaining()
		if !need.IsPositive() {
			continue
		}
		applied := currencyutils.Min(need, remaining)
		next[i].Paid = next[i].Paid.Add(applied)
		remaining = remaining.Sub(applied)
		allocations = append(allocations, models.Allocation{
			Period: next[i].Period,
			Label:  next[i].Label(),
			Amount: applied,
			Full:   !next[i].Remaining().IsPositive(),
		})
	}

	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return next, allocations, remaining
}

// describe renders e.g.
// "2026/01/15 前月以前残高全額(24,500円) / 2026年01月分一部(35,500円)".
func describe(date time.Time, allocations []models.Allocation, surplus decimal.Decimal) string {
	parts := make([]string, 0, len(allocations)+1)
	for _, a := range allocations {
		kind := models.LabelPartial
		if a.Full {
			kind = models.LabelFull
		}
		parts = append(parts, fmt.Sprintf("%s%s(%s円)", a.Label, kind, currencyutils.FormatYen(a.Amount)))
	}
	if surplus.IsPositive() {
		parts = append(parts, fmt.Sprintf("%s %s円", models.LabelSurplus, currencyutils.FormatYen(surplus)))
	}
	if len(parts) == 0 {
		return models.LabelUnallocated
	}
	return date.Format(models.DescriptionLayout) + " " + strings.Join(parts, " / ")
}
