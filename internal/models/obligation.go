package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes regular rent accruals from one-time balances.
// It only affects description text; allocation order is by position.
type ObligationKind string

const (
	ObligationMonthly    ObligationKind = "monthly"
	ObligationCarryOver  ObligationKind = "carry_over"
	ObligationAdjustment ObligationKind = "adjustment"
)

// Obligation is one amount owed: a month's rent, a carried-over balance or a
// manual adjustment. Period is always the first day of a month.
type Obligation struct {
	Period time.Time       `json:"period"`
	Amount decimal.Decimal `json:"amount"`
	Paid   decimal.Decimal `json:"paid"`
	Kind   ObligationKind  `json:"kind"`
}

// Remaining is the unpaid part.
func (o Obligation) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.Paid)
}

// IsMonthly reports whether the obligation is a regular rent accrual.
func (o Obligation) IsMonthly() bool {
	return o.Kind == ObligationMonthly || o.Kind == ""
}

// Label renders the obligation for allocation descriptions.
func (o Obligation) Label() string {
	switch o.Kind {
	case ObligationCarryOver:
		return LabelCarryOver
	case ObligationAdjustment:
		return LabelAdjustment
	default:
		return o.Period.Format(MonthLabelLayout)
	}
}
