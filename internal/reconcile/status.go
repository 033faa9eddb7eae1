package reconcile

import (
	"time"

	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
)

// StatusRow is one line of the portfolio status table.
type StatusRow struct {
	PropertyID        string          `json:"property_id"`
	Name              string          `json:"name"`
	Rent              decimal.Decimal `json:"rent"`
	BalanceDue        decimal.Decimal `json:"balance_due"`
	Overdue           decimal.Decimal `json:"overdue"`
	Status            string          `json:"status"`
	Strategy          string          `json:"strategy"`
	LatestDescription string          `json:"latest_description"`
}

// Delinquent reports whether the row carries the delinquent status.
func (r StatusRow) Delinquent() bool {
	return r.Status == models.StatusDelinquent
}

// ComputeStatus runs the ledger for every tenant not managed separately, in
// declaration order.
func ComputeStatus(tenants []models.Tenant, deposits []models.Deposit, evalDate time.Time, opts Options) []StatusRow {
	grouped := GroupDeposits(deposits)
	rows := make([]StatusRow, 0, len(tenants))
	for _, t := range tenants {
		t = t.Sanitize()
		if t.SeparatelyManaged {
			continue
		}
		l := ledger.Compute(t, grouped[t.PropertyID], evalDate, opts.Ledger)
		overdue := l.CurrentOverdue()

		status := models.StatusNormal
		if isDelinquent(overdue, opts) {
			status = models.StatusDelinquent
		}

		rows = append(rows, StatusRow{
			PropertyID:        t.PropertyID,
			Name:              t.Name,
			Rent:              t.MonthlyRent,
			BalanceDue:        l.BalanceDue(),
			Overdue:           overdue,
			Status:            status,
			Strategy:          l.Origin.Strategy(),
			LatestDescription: l.LatestDescription(),
		})
	}
	return rows
}

// TenantLedger computes the ledger of a single tenant by property id.
func TenantLedger(tenants []models.Tenant, deposits []models.Deposit, propertyID string, evalDate time.Time, opts Options) (*ledger.Ledger, bool) {
	id := models.CanonicalPropertyID(propertyID)
	for _, t := range tenants {
		if models.CanonicalPropertyID(t.PropertyID) != id {
			continue
		}
		return ledger.Compute(t, GroupDeposits(deposits)[id], evalDate, opts.Ledger), true
	}
	return nil, false
}

func isDelinquent(overdue decimal.Decimal, opts Options) bool {
	return overdue.GreaterThan(opts.DelinquencyThreshold)
}
