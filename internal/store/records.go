package store

import (
	"time"

	"fjacquet/rent-recon/internal/currencyutils"
	"fjacquet/rent-recon/internal/dateutils"
	"fjacquet/rent-recon/internal/models"
)

// tenantRecord is the flat, human-editable form of a tenant.
type tenantRecord struct {
	PropertyID         string   `yaml:"property_id"`
	Name               string   `yaml:"name"`
	MonthlyRent        string   `yaml:"monthly_rent"`
	Zip                string   `yaml:"zip,omitempty"`
	Address            string   `yaml:"address,omitempty"`
	BillingZip         string   `yaml:"billing_zip,omitempty"`
	BillingAddress     string   `yaml:"billing_address,omitempty"`
	MatchNames         []string `yaml:"match_names,omitempty"`
	SeparatelyManaged  bool     `yaml:"separately_managed,omitempty"`
	DelinquencyMemo    string   `yaml:"delinquency_memo,omitempty"`
	RentStart          string   `yaml:"rent_start,omitempty"`
	BaselineDate       string   `yaml:"baseline_date,omitempty"`
	BaselineDebt       string   `yaml:"baseline_debt,omitempty"`
	BaselineSurplus    string   `yaml:"baseline_surplus,omitempty"`
	BaselineAdjustment string   `yaml:"baseline_adjustment,omitempty"`
	AdjustmentMemo     string   `yaml:"adjustment_memo,omitempty"`
	CleanStart         bool     `yaml:"clean_start,omitempty"`
	LastConfirmed      string   `yaml:"last_confirmed,omitempty"`
	Owner              string   `yaml:"owner,omitempty"`
}

// depositRecord is the flat form of a deposit.
type depositRecord struct {
	ID             string `yaml:"id"`
	TransactionKey string `yaml:"transaction_key"`
	PropertyID     string `yaml:"property_id"`
	Date           string `yaml:"date"`
	Amount         string `yaml:"amount"`
	Summary        string `yaml:"summary,omitempty"`
	Owner          string `yaml:"owner,omitempty"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return dateutils.ToISODate(t)
}

// parseDate is lenient: unreadable dates become the zero time.
func parseDate(s string) time.Time {
	t, ok := dateutils.ParseEraDate(s)
	if !ok {
		return time.Time{}
	}
	return t
}

func toTenantRecord(t models.Tenant) tenantRecord {
	return tenantRecord{
		PropertyID:         t.PropertyID,
		Name:               t.Name,
		MonthlyRent:        t.MonthlyRent.String(),
		Zip:                t.Zip,
		Address:            t.Address,
		BillingZip:         t.BillingZip,
		BillingAddress:     t.BillingAddress,
		MatchNames:         t.MatchNames,
		SeparatelyManaged:  t.SeparatelyManaged,
		DelinquencyMemo:    t.DelinquencyMemo,
		RentStart:          formatDate(t.RentStart),
		BaselineDate:       formatDate(t.Baseline.Date),
		BaselineDebt:       t.Baseline.Debt.String(),
		BaselineSurplus:    t.Baseline.Surplus.String(),
		BaselineAdjustment: t.Baseline.Adjustment.String(),
		AdjustmentMemo:     t.Baseline.AdjustmentMemo,
		CleanStart:         t.Baseline.CleanStart,
		LastConfirmed:      formatDate(t.Baseline.LastConfirmed),
		Owner:              t.Owner,
	}
}

// fromTenantRecord coerces malformed values to safe defaults.
func fromTenantRecord(r tenantRecord) models.Tenant {
	t := models.Tenant{
		PropertyID:        r.PropertyID,
		Name:              r.Name,
		MonthlyRent:       currencyutils.ParseAmountOrZero(r.MonthlyRent),
		Zip:               r.Zip,
		Address:           r.Address,
		BillingZip:        r.BillingZip,
		BillingAddress:    r.BillingAddress,
		MatchNames:        r.MatchNames,
		SeparatelyManaged: r.SeparatelyManaged,
		DelinquencyMemo:   r.DelinquencyMemo,
		RentStart:         parseDate(r.RentStart),
		Baseline: models.DebtBaseline{
			Date:           parseDate(r.BaselineDate),
			Debt:           currencyutils.ParseAmountOrZero(r.BaselineDebt),
			Surplus:        currencyutils.ParseAmountOrZero(r.BaselineSurplus),
			Adjustment:     currencyutils.ParseAmountOrZero(r.BaselineAdjustment),
			AdjustmentMemo: r.AdjustmentMemo,
			CleanStart:     r.CleanStart,
			LastConfirmed:  parseDate(r.LastConfirmed),
		},
		Owner: r.Owner,
	}
	return t.Sanitize()
}

func toDepositRecord(d models.Deposit) depositRecord {
	return depositRecord{
		ID:             d.ID,
		TransactionKey: d.TransactionKey,
		PropertyID:     d.PropertyID,
		Date:           formatDate(d.Date),
		Amount:         d.Amount.String(),
		Summary:        d.Summary,
		Owner:          d.Owner,
	}
}

func fromDepositRecord(r depositRecord) models.Deposit {
	return models.Deposit{
		ID:             r.ID,
		TransactionKey: r.TransactionKey,
		PropertyID:     models.CanonicalPropertyID(r.PropertyID),
		Date:           parseDate(r.Date),
		Amount:         currencyutils.ParseAmountOrZero(r.Amount),
		Summary:        r.Summary,
		Owner:          r.Owner,
	}
}
