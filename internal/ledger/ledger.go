package ledger

import (
	"sort"
	"time"

	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
)

// Options tunes the ledger computation.
type Options struct {
	// GraceDay is the day of the month before which clean-start tenants are
	// not yet overdue for the previous month's rent.
	GraceDay int
	// CleanStartLeadDays moves the clean-start cutoff before the first
	// accrual month so early payments of the first rent are allocated.
	CleanStartLeadDays int
	// MemoLookbackMonths bounds how far back the memo strategy accrues rent.
	MemoLookbackMonths int
	// RecentDeposits is the number of described deposits on an invoice.
	RecentDeposits int
	// HistoryMonths is the number of obligations in invoice history.
	HistoryMonths int
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		GraceDay:           20,
		CleanStartLeadDays: 15,
		MemoLookbackMonths: 8,
		RecentDeposits:     6,
		HistoryMonths:      12,
	}
}

// Ledger is the computed state of one tenant as of an evaluation date. It is
// derived on every call and never persisted.
type Ledger struct {
	Tenant       models.Tenant
	EvalDate     time.Time
	Origin       DebtOrigin
	Obligations  []models.Obligation
	Deposits     []models.AllocatedDeposit
	Cutoff       time.Time
	FirstAccrual time.Time
	Credits      decimal.Decimal

	graceEligible bool
	opts          Options
}

// Compute builds the obligations for a tenant and allocates its deposits.
// Deposits belonging to other properties must be filtered out by the caller.
func Compute(tenant models.Tenant, deposits []models.Deposit, evalDate time.Time, opts Options) *Ledger {
	tenant = tenant.Sanitize()
	origin := ResolveOrigin(tenant, evalDate)
	schedule := origin.Schedule(tenant.MonthlyRent, evalDate, opts)
	result := Allocate(schedule.Obligations, schedule.Credits, deposits, schedule.Cutoff)

	return &Ledger{
		Tenant:        tenant,
		EvalDate:      evalDate,
		Origin:        origin,
		Obligations:   result.Obligations,
		Deposits:      result.Deposits,
		Cutoff:        schedule.Cutoff,
		FirstAccrual:  schedule.FirstAccrual,
		Credits:       schedule.Credits,
		graceEligible: schedule.GraceEligible,
		opts:          opts,
	}
}

// TotalOverdue sums the unpaid part of every obligation up to and including
// asOf's month.
func (l *Ledger) TotalOverdue(asOf time.Time) decimal.Decimal {
	limit := dateutils.NormalizeMonth(asOf)
	total := decimal.Zero
	for _, o := range l.Obligations {
		if !o.Period.After(limit) {
			total = total.Add(o.Remaining())
		}
	}
	return total
}

// NextMonth is the month after evaluation.
func (l *Ledger) NextMonth() time.Time {
	return lastBilledMonth(l.EvalDate)
}

// BalanceDue is the amount to bill, including next month's rent.
func (l *Ledger) BalanceDue() decimal.Decimal {
	return l.TotalOverdue(l.NextMonth())
}

// OverdueMonth is the last month counted as overdue at evaluation. Clean
// start tenants have until the grace day to pay the previous month.
func (l *Ledger) OverdueMonth() time.Time {
	month := dateutils.NormalizeMonth(l.EvalDate)
	if l.graceEligible && l.EvalDate.Day() < l.opts.GraceDay {
		return dateutils.AddMonths(month, -1)
	}
	return month
}

// CurrentOverdue is what the tenant is late on at evaluation.
func (l *Ledger) CurrentOverdue() decimal.Decimal {
	return l.TotalOverdue(l.OverdueMonth())
}

// LatestDescription is the allocation description of the most recent deposit.
func (l *Ledger) LatestDescription() string {
	if len(l.Deposits) == 0 {
		return ""
	}
	return l.Deposits[len(l.Deposits)-1].Description
}

// InvoiceView is the payload handed to invoice rendering.
type InvoiceView struct {
	PropertyID  string                    `json:"property_id"`
	Name        string                    `json:"name"`
	Zip         string                    `json:"zip"`
	Address     string                    `json:"address"`
	Rent        decimal.Decimal           `json:"rent"`
	TotalDue    decimal.Decimal           `json:"total_due"`
	Outstanding []models.Obligation       `json:"outstanding"`
	History     []models.Obligation       `json:"history"`
	Recent      []models.AllocatedDeposit `json:"recent"`
}

// InvoiceView lists unpaid obligations up to next month, newest first, the
// last obligations as history and the most recent described deposits, newest
// first.
func (l *Ledger) InvoiceView() InvoiceView {
	next := l.NextMonth()

	var outstanding []models.Obligation
	for _, o := range l.Obligations {
		if !o.Period.After(next) && o.Remaining().IsPositive() {
			outstanding = append(outstanding, o)
		}
	}
	sort.SliceStable(outstanding, func(i, j int) bool {
		return outstanding[i].Period.After(outstanding[j].Period)
	})

	history := l.Obligations
	if n := l.opts.HistoryMonths; n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	var described []models.AllocatedDeposit
	for _, d := range l.Deposits {
		if d.Description != "" {
			described = append(described, d)
		}
	}
	if n := l.opts.RecentDeposits; n >= 0 && len(described) > n {
		described = described[len(described)-n:]
	}
	recent := make([]models.AllocatedDeposit, 0, len(described))
	for i := len(described) - 1; i >= 0; i-- {
		recent = append(recent, described[i])
	}

	return InvoiceView{
		PropertyID:  l.Tenant.PropertyID,
		Name:        l.Tenant.Name,
		Zip:         l.Tenant.BillingZipCode(),
		Address:     l.Tenant.BillingAddressLine(),
		Rent:        l.Tenant.MonthlyRent,
		TotalDue:    l.BalanceDue(),
		Outstanding: outstanding,
		History:     append([]models.Obligation(nil), history...),
		Recent:      recent,
	}
}
