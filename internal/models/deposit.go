package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// depositNamespace scopes the name-based UUIDs used as deduplication keys.
var depositNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rent-recon/deposit"))

// Deposit is a bank credit attributed to a tenant.
type Deposit struct {
	ID             string          `json:"id" yaml:"id"`
	PropertyID     string          `json:"property_id" yaml:"property_id"`
	Date           time.Time       `json:"date" yaml:"date"`
	Amount         decimal.Decimal `json:"amount" yaml:"amount"`
	Summary        string          `json:"summary" yaml:"summary"`
	TransactionKey string          `json:"transaction_key" yaml:"transaction_key"`
	Owner          string          `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// CanonicalDeposit is one row of the normalized bank table.
type CanonicalDeposit struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// Key returns the deduplication key of the canonical row.
func (c CanonicalDeposit) Key() string {
	return DepositKey(c.Date, c.Description, c.Amount)
}

// DepositKey derives a stable identifier from the date components, the
// description and the amount, in that order. Re-uploading the same export row
// always yields the same key.
func DepositKey(date time.Time, description string, amount decimal.Decimal) string {
	raw := fmt.Sprintf("%d|%d|%d|%s|%s",
		date.Year(), int(date.Month()), date.Day(),
		strings.TrimSpace(description),
		amount.String())
	return uuid.NewSHA1(depositNamespace, []byte(raw)).String()
}

// NewDepositID returns a random identifier for a stored deposit.
func NewDepositID() string {
	return uuid.NewString()
}

// Allocation records how much of a deposit went to one obligation.
type Allocation struct {
	Period time.Time       `json:"period"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Full   bool            `json:"full"`
}

// AllocatedDeposit is a deposit after the FIFO pass.
type AllocatedDeposit struct {
	Deposit     Deposit         `json:"deposit"`
	Allocations []Allocation    `json:"allocations"`
	Surplus     decimal.Decimal `json:"surplus"`
	Recorded    bool            `json:"recorded"`
	Description string          `json:"description"`
}
