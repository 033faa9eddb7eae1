// Package reconcile matches canonical deposits to tenants and derives the
// portfolio status and invoice payloads. Every function is pure: callers load
// tenants and deposits, pass them in and persist what comes back.
package reconcile

import (
	"fjacquet/rent-recon/internal/ledger"
	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
)

// Options configures matching and status computation.
type Options struct {
	Ledger ledger.Options
	// DelinquencyThreshold is the overdue amount above which a tenant is
	// delinquent.
	DelinquencyThreshold decimal.Decimal
	// FuzzyMaxDistance bounds the edit distance of unmatched-deposit hints;
	// zero disables hints.
	FuzzyMaxDistance int
	// Owner is stamped on newly matched deposits.
	Owner string
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		Ledger:               ledger.DefaultOptions(),
		DelinquencyThreshold: decimal.Zero,
		FuzzyMaxDistance:     2,
	}
}

// GroupDeposits indexes deposits by canonical property id, keeping their
// order.
func GroupDeposits(deposits []models.Deposit) map[string][]models.Deposit {
	grouped := make(map[string][]models.Deposit)
	for _, d := range deposits {
		id := models.CanonicalPropertyID(d.PropertyID)
		grouped[id] = append(grouped[id], d)
	}
	return grouped
}
