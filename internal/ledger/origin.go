// Package ledger computes a tenant's rent obligations and allocates bank
// deposits against them, oldest first.
//
// Obligation construction depends on where the tenant's history starts: a
// recorded debt baseline, or, for legacy records, the free-text delinquency
// memo. That choice is a DebtOrigin resolved once per tenant; allocation and
// the queries do not know which one produced the schedule.
package ledger

import (
	"time"

	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
)

// Strategy names
const (
	StrategyBaseline = "baseline"
	StrategyMemo     = "memo"
)

// defaultRentStart applies when a memo tenant has no initial payment date.
var defaultRentStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Schedule is the output of obligation construction.
type Schedule struct {
	// Obligations in allocation order.
	Obligations []models.Obligation
	// Credits is applied before any deposit, as if it were a payment.
	Credits decimal.Decimal
	// Deposits dated on or before Cutoff are already accounted for.
	Cutoff time.Time
	// FirstAccrual is the first month with a regular rent obligation.
	FirstAccrual time.Time
	// GraceEligible tenants get the payment-date grace period.
	GraceEligible bool
}

// DebtOrigin is where a tenant's obligation history starts. It is either a
// BaselineOrigin or a MemoOrigin.
type DebtOrigin interface {
	Strategy() string
	Schedule(rent decimal.Decimal, evalDate time.Time, opts Options) Schedule
}

// BaselineOrigin starts from a recorded debt snapshot.
type BaselineOrigin struct {
	Date          time.Time
	Debt          decimal.Decimal
	Surplus       decimal.Decimal
	Adjustment    decimal.Decimal
	CleanStart    bool
	LastConfirmed time.Time
}

// MemoOrigin starts from what the delinquency memo says.
type MemoOrigin struct {
	Memo          MemoParse
	RentStart     time.Time
	LastConfirmed time.Time
}

// ResolveOrigin picks the strategy for a tenant: the baseline when it has a
// date, the memo otherwise.
func ResolveOrigin(t models.Tenant, evalDate time.Time) DebtOrigin {
	b := t.Baseline
	if b.HasDate() {
		return BaselineOrigin{
			Date:          b.Date,
			Debt:          b.Debt,
			Surplus:       b.Surplus,
			Adjustment:    b.Adjustment,
			CleanStart:    b.CleanStart,
			LastConfirmed: b.LastConfirmed,
		}
	}
	return MemoOrigin{
		Memo:          ParseMemo(t.DelinquencyMemo, evalDate),
		RentStart:     t.RentStart,
		LastConfirmed: b.LastConfirmed,
	}
}

// Strategy implements DebtOrigin.
func (BaselineOrigin) Strategy() string { return StrategyBaseline }

// InitialBalance is the debt carried in at the baseline date; negative when
// the tenant had prepaid.
func (o BaselineOrigin) InitialBalance() decimal.Decimal {
	if o.CleanStart {
		return o.Surplus.Neg()
	}
	return o.Debt.Sub(o.Surplus)
}

// FirstAccrualMonth is the baseline month when the baseline falls on the 1st,
// the following month otherwise.
func (o BaselineOrigin) FirstAccrualMonth() time.Time {
	month := dateutils.NormalizeMonth(o.Date)
	if o.Date.Day() == 1 {
		return month
	}
	return dateutils.AddMonths(month, 1)
}

// Schedule implements DebtOrigin.
func (o BaselineOrigin) Schedule(rent decimal.Decimal, evalDate time.Time, opts Options) Schedule {
	baselineMonth := dateutils.NormalizeMonth(o.Date)
	firstAccrual := o.FirstAccrualMonth()
	initial := o.InitialBalance()

	var obligations []models.Obligation
	if initial.IsPositive() {
		obligations = append(obligations, models.Obligation{
			Period: baselineMonth,
			Amount: initial,
			Paid:   decimal.Zero,
			Kind:   models.ObligationCarryOver,
		})
	}
	if o.Adjustment.IsPositive() {
		obligations = append(obligations, models.Obligation{
			Period: baselineMonth,
			Amount: o.Adjustment,
			Paid:   decimal.Zero,
			Kind:   models.ObligationAdjustment,
		})
	}
	obligations = append(obligations, monthlyObligations(firstAccrual, lastBilledMonth(evalDate), rent)...)

	credits := decimal.Zero
	if initial.IsNegative() {
		credits = credits.Add(initial.Neg())
	}
	if o.Adjustment.IsNegative() {
		credits = credits.Add(o.Adjustment.Neg())
	}

	cutoff := dateutils.StartOfDay(o.Date)
	switch {
	case !o.LastConfirmed.IsZero():
		cutoff = dateutils.StartOfDay(o.LastConfirmed)
	case o.CleanStart:
		cutoff = firstAccrual.AddDate(0, 0, -opts.CleanStartLeadDays)
	}

	return Schedule{
		Obligations:   obligations,
		Credits:       credits,
		Cutoff:        cutoff,
		FirstAccrual:  firstAccrual,
		GraceEligible: o.CleanStart,
	}
}

// Strategy implements DebtOrigin.
func (MemoOrigin) Strategy() string { return StrategyMemo }

// Schedule implements DebtOrigin. Months before the memo's first mention are
// seeded as paid; months the memo names take the amount it reports.
func (o MemoOrigin) Schedule(rent decimal.Decimal, evalDate time.Time, opts Options) Schedule {
	evalMonth := dateutils.NormalizeMonth(evalDate)
	start := o.RentStart
	if start.IsZero() {
		start = defaultRentStart
	}
	calcStart := dateutils.MaxTime(dateutils.NormalizeMonth(start), dateutils.AddMonths(evalMonth, -opts.MemoLookbackMonths))

	memo := o.Memo
	curr := calcStart
	if !memo.Settled {
		curr = dateutils.MinTime(calcStart, memo.FirstMention)
	}

	end := lastBilledMonth(evalDate)
	var obligations []models.Obligation
	for ; !curr.After(end); curr = dateutils.AddMonths(curr, 1) {
		paid := decimal.Zero
		if memo.Settled {
			if !curr.After(memo.Anchor) {
				paid = rent
			}
		} else {
			if curr.Before(memo.FirstMention) {
				paid = rent
			}
			if p, ok := memo.Payment(curr); ok {
				paid = p.PaidAmount(rent)
			}
		}
		if paid.GreaterThan(rent) {
			paid = rent
		}
		obligations = append(obligations, models.Obligation{
			Period: curr,
			Amount: rent,
			Paid:   paid,
			Kind:   models.ObligationMonthly,
		})
	}

	cutoff := dateutils.StartOfDay(memo.Anchor)
	if !o.LastConfirmed.IsZero() {
		cutoff = dateutils.StartOfDay(o.LastConfirmed)
	}

	firstAccrual := calcStart
	if len(obligations) > 0 {
		firstAccrual = obligations[0].Period
	}

	return Schedule{
		Obligations:  obligations,
		Credits:      decimal.Zero,
		Cutoff:       cutoff,
		FirstAccrual: firstAccrual,
	}
}

// lastBilledMonth is the month after evaluation: invoices include the
// upcoming month's rent.
func lastBilledMonth(evalDate time.Time) time.Time {
	return dateutils.AddMonths(dateutils.NormalizeMonth(evalDate), 1)
}

func monthlyObligations(from, to time.Time, rent decimal.Decimal) []models.Obligation {
	var obligations []models.Obligation
	for curr := from; !curr.After(to); curr = dateutils.AddMonths(curr, 1) {
		obligations = append(obligations, models.Obligation{
			Period: curr,
			Amount: rent,
			Paid:   decimal.Zero,
			Kind:   models.ObligationMonthly,
		})
	}
	return obligations
}
