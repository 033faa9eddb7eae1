package models

import (
	"strings"
	"time"

	"fjacquet/rent-recon/internal/textutils"

	"github.com/shopspring/decimal"
)

// DebtBaseline is a snapshot of what a tenant owed, or had prepaid, as of a
// fixed date. A zero Date means the tenant has no baseline and falls back to
// the delinquency memo.
type DebtBaseline struct {
	Date           time.Time       `json:"date" yaml:"date"`
	Debt           decimal.Decimal `json:"debt" yaml:"debt"`
	Surplus        decimal.Decimal `json:"surplus" yaml:"surplus"`
	Adjustment     decimal.Decimal `json:"adjustment" yaml:"adjustment"`
	AdjustmentMemo string          `json:"adjustment_memo,omitempty" yaml:"adjustment_memo,omitempty"`
	CleanStart     bool            `json:"clean_start" yaml:"clean_start"`
	LastConfirmed  time.Time       `json:"last_confirmed" yaml:"last_confirmed"`
}

// HasDate reports whether the baseline strategy applies.
func (b DebtBaseline) HasDate() bool {
	return !b.Date.IsZero()
}

// Tenant is one rental unit and its occupant. The engine treats it as
// read-only input.
type Tenant struct {
	PropertyID        string          `json:"property_id" yaml:"property_id"`
	Name              string          `json:"name" yaml:"name"`
	MonthlyRent       decimal.Decimal `json:"monthly_rent" yaml:"monthly_rent"`
	Zip               string          `json:"zip,omitempty" yaml:"zip,omitempty"`
	Address           string          `json:"address,omitempty" yaml:"address,omitempty"`
	BillingZip        string          `json:"billing_zip,omitempty" yaml:"billing_zip,omitempty"`
	BillingAddress    string          `json:"billing_address,omitempty" yaml:"billing_address,omitempty"`
	MatchNames        []string        `json:"match_names,omitempty" yaml:"match_names,omitempty"`
	SeparatelyManaged bool            `json:"separately_managed" yaml:"separately_managed"`
	DelinquencyMemo   string          `json:"delinquency_memo,omitempty" yaml:"delinquency_memo,omitempty"`
	RentStart         time.Time       `json:"rent_start" yaml:"rent_start"`
	Baseline          DebtBaseline    `json:"baseline" yaml:"baseline"`
	Owner             string          `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// CanonicalPropertyID trims whitespace and the ".0" suffix spreadsheets add
// to numeric identifiers.
func CanonicalPropertyID(id string) string {
	id = strings.TrimSpace(id)
	if textutils.IsBlank(id) {
		return ""
	}
	return strings.TrimSuffix(id, ".0")
}

// MatchCandidates returns the normalized, non-empty payer-name patterns in
// declaration order.
func (t Tenant) MatchCandidates() []string {
	candidates := make([]string, 0, len(t.MatchNames))
	for i, name := range t.MatchNames {
		if i >= MaxMatchNames {
			break
		}
		if n := textutils.NormalizeName(name); n != "" {
			candidates = append(candidates, n)
		}
	}
	return candidates
}

// BillingZipCode returns the billing zip, falling back to the mailing zip.
func (t Tenant) BillingZipCode() string {
	if !textutils.IsBlank(t.BillingZip) {
		return strings.TrimSpace(t.BillingZip)
	}
	if textutils.IsBlank(t.Zip) {
		return ""
	}
	return strings.TrimSpace(t.Zip)
}

// BillingAddressLine returns the billing address, falling back to the mailing
// address.
func (t Tenant) BillingAddressLine() string {
	if !textutils.IsBlank(t.BillingAddress) {
		return strings.TrimSpace(t.BillingAddress)
	}
	if textutils.IsBlank(t.Address) {
		return ""
	}
	return strings.TrimSpace(t.Address)
}

// Sanitize coerces a tenant record to safe defaults so one malformed record
// cannot block portfolio-wide computation.
func (t Tenant) Sanitize() Tenant {
	t.PropertyID = CanonicalPropertyID(t.PropertyID)
	if t.MonthlyRent.IsNegative() {
		t.MonthlyRent = decimal.Zero
	}
	if t.Baseline.Debt.IsNegative() {
		t.Baseline.Debt = decimal.Zero
	}
	if t.Baseline.Surplus.IsNegative() {
		t.Baseline.Surplus = decimal.Zero
	}
	if textutils.IsBlank(t.DelinquencyMemo) {
		t.DelinquencyMemo = ""
	}

	names := make([]string, 0, MaxMatchNames)
	for _, n := range t.MatchNames {
		if textutils.IsBlank(n) || len(names) == MaxMatchNames {
			continue
		}
		names = append(names, strings.TrimSpace(n))
	}
	t.MatchNames = names
	return t
}
