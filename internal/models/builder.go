package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TenantBuilder provides a fluent API for constructing tenants
type TenantBuilder struct {
	tenant Tenant
	err    error
}

// NewTenantBuilder creates a new TenantBuilder with default values
func NewTenantBuilder() *TenantBuilder {
	return &TenantBuilder{
		tenant: Tenant{
			MonthlyRent: decimal.Zero,
			Baseline: DebtBaseline{
				Debt:       decimal.Zero,
				Surplus:    decimal.Zero,
				Adjustment: decimal.Zero,
			},
		},
	}
}

// WithPropertyID sets the property identifier
func (b *TenantBuilder) WithPropertyID(id string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	canonical := CanonicalPropertyID(id)
	if canonical == "" {
		b.err = errors.New("property id cannot be empty")
		return b
	}
	b.tenant.PropertyID = canonical
	return b
}

// WithName sets the display name
func (b *TenantBuilder) WithName(name string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Name = name
	return b
}

// WithRent sets the monthly rent
func (b *TenantBuilder) WithRent(rent decimal.Decimal) *TenantBuilder {
	if b.err != nil {
		return b
	}
	if rent.IsNegative() {
		b.err = fmt.Errorf("monthly rent cannot be negative: %s", rent)
		return b
	}
	b.tenant.MonthlyRent = rent
	return b
}

// WithRentInt sets the monthly rent from a whole yen amount
func (b *TenantBuilder) WithRentInt(rent int64) *TenantBuilder {
	return b.WithRent(decimal.NewFromInt(rent))
}

// WithAddress sets the mailing address
func (b *TenantBuilder) WithAddress(zip, address string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Zip = zip
	b.tenant.Address = address
	return b
}

// WithBillingAddress sets the billing address
func (b *TenantBuilder) WithBillingAddress(zip, address string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.BillingZip = zip
	b.tenant.BillingAddress = address
	return b
}

// WithMatchNames sets the bank payer-name patterns
func (b *TenantBuilder) WithMatchNames(names ...string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	if len(names) > MaxMatchNames {
		b.err = fmt.Errorf("at most %d match names are supported, got %d", MaxMatchNames, len(names))
		return b
	}
	b.tenant.MatchNames = append([]string(nil), names...)
	return b
}

// SeparatelyManaged excludes the tenant from reconciliation
func (b *TenantBuilder) SeparatelyManaged() *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.SeparatelyManaged = true
	return b
}

// WithMemo sets the delinquency memo
func (b *TenantBuilder) WithMemo(memo string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.DelinquencyMemo = memo
	return b
}

// WithRentStart sets the initial payment date
func (b *TenantBuilder) WithRentStart(start time.Time) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.RentStart = start
	return b
}

// WithBaseline sets the baseline date and debt
func (b *TenantBuilder) WithBaseline(date time.Time, debt decimal.Decimal) *TenantBuilder {
	if b.err != nil {
		return b
	}
	if date.IsZero() {
		b.err = errors.New("baseline date cannot be zero")
		return b
	}
	b.tenant.Baseline.Date = date
	b.tenant.Baseline.Debt = debt
	return b
}

// WithSurplus sets the prepaid amount at the baseline date
func (b *TenantBuilder) WithSurplus(surplus decimal.Decimal) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Baseline.Surplus = surplus
	return b
}

// WithAdjustment sets a signed manual adjustment
func (b *TenantBuilder) WithAdjustment(amount decimal.Decimal, memo string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Baseline.Adjustment = amount
	b.tenant.Baseline.AdjustmentMemo = memo
	return b
}

// AsCleanStart flags the baseline as a clean start
func (b *TenantBuilder) AsCleanStart() *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Baseline.CleanStart = true
	return b
}

// WithLastConfirmed sets the last confirmed payment date
func (b *TenantBuilder) WithLastConfirmed(date time.Time) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Baseline.LastConfirmed = date
	return b
}

// WithOwner sets the owning user
func (b *TenantBuilder) WithOwner(owner string) *TenantBuilder {
	if b.err != nil {
		return b
	}
	b.tenant.Owner = owner
	return b
}

// Build validates and returns the tenant
func (b *TenantBuilder) Build() (Tenant, error) {
	if b.err != nil {
		return Tenant{}, b.err
	}
	if b.tenant.PropertyID == "" {
		return Tenant{}, errors.New("property id is required")
	}
	return b.tenant.Sanitize(), nil
}

// MustBuild is Build for fixtures; it panics on error.
func (b *TenantBuilder) MustBuild() Tenant {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
