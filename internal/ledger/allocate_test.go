package ledger

import (
	"testing"
	"time"

	"fjacquet/rent-recon/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yen(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func monthly(period time.Time, amount int64) models.Obligation {
	return models.Obligation{Period: period, Amount: yen(amount), Paid: decimal.Zero, Kind: models.ObligationMonthly}
}

func deposit(d time.Time, amount int64) models.Deposit {
	return models.Deposit{Date: d, Amount: yen(amount), Summary: "振込 ﾃｽﾄ"}
}

func TestAllocate_FIFOOrdering(t *testing.T) {
	obligations := []models.Obligation{
		monthly(date(2026, 1, 1), 1000),
		monthly(date(2026, 2, 1), 1000),
		monthly(date(2026, 3, 1), 1000),
	}

	result := Allocate(obligations, decimal.Zero, []models.Deposit{deposit(date(2026, 1, 10), 2500)}, date(2025, 12, 31))

	require.Len(t, result.Deposits, 1)
	d := result.Deposits[0]
	require.Len(t, d.Allocations, 3)
	assert.Equal(t, date(2026, 1, 1), d.Allocations[0].Period)
	assert.True(t, d.Allocations[0].Amount.Equal(yen(1000)))
	assert.True(t, d.Allocations[0].Full)
	assert.Equal(t, date(2026, 2, 1), d.Allocations[1].Period)
	assert.True(t, d.Allocations[1].Amount.Equal(yen(1000)))
	assert.True(t, d.Allocations[1].Full)
	assert.Equal(t, date(2026, 3, 1), d.Allocations[2].Period)
	assert.True(t, d.Allocations[2].Amount.Equal(yen(500)))
	assert.False(t, d.Allocations[2].Full)
	assert.True(t, d.Surplus.IsZero())
	assert.Equal(t, "2026/01/10 2026年01月分全額(1,000円) / 2026年02月分全額(1,000円) / 2026年03月分一部(500円)", d.Description)
}

func TestAllocate_CutoffExclusion(t *testing.T) {
	obligations := []models.Obligation{monthly(date(2026, 1, 1), 60000)}
	cutoff := date(2025, 12, 16)

	deposits := []models.Deposit{
		deposit(date(2025, 12, 1), 1_000_000),
		deposit(time.Date(2025, 12, 16, 18, 30, 0, 0, time.UTC), 60000),
	}
	result := Allocate(obligations, decimal.Zero, deposits, cutoff)

	for _, d := range result.Deposits {
		assert.True(t, d.Recorded)
		assert.Empty(t, d.Allocations)
		assert.Equal(t, models.LabelRecorded, d.Description)
	}
	assert.True(t, result.Obligations[0].Paid.IsZero())
}

func TestAllocate_CarryOverPrecedence(t *testing.T) {
	obligations := []models.Obligation{
		monthly(date(2025, 11, 1), 60000),
		{Period: date(2026, 1, 1), Amount: yen(24500), Paid: decimal.Zero, Kind: models.ObligationCarryOver},
	}

	result := Allocate(obligations, decimal.Zero, []models.Deposit{deposit(date(2026, 1, 20), 30000)}, time.Time{})

	d := result.Deposits[0]
	require.Len(t, d.Allocations, 2)
	assert.Equal(t, models.LabelCarryOver, d.Allocations[0].Label)
	assert.True(t, d.Allocations[0].Full)
	assert.True(t, d.Allocations[1].Amount.Equal(yen(5500)))
	assert.Equal(t, models.ObligationCarryOver, result.Obligations[0].Kind)
}

func TestAllocate_SurplusAndCredits(t *testing.T) {
	obligations := []models.Obligation{
		monthly(date(2026, 1, 1), 60000),
		monthly(date(2026, 2, 1), 60000),
	}

	result := Allocate(obligations, yen(10000), []models.Deposit{deposit(date(2026, 1, 25), 120000)}, time.Time{})

	d := result.Deposits[0]
	assert.True(t, d.Surplus.Equal(yen(10000)))
	require.Len(t, d.Allocations, 2)
	assert.True(t, d.Allocations[0].Amount.Equal(yen(50000)), "credit fills January first")
	assert.Equal(t, "2026/01/25 2026年01月分全額(50,000円) / 2026年02月分全額(60,000円) / 余剰金 10,000円", d.Description)
}

func TestAllocate_NothingToAllocate(t *testing.T) {
	result := Allocate(nil, decimal.Zero, []models.Deposit{deposit(date(2026, 1, 25), 0)}, time.Time{})
	assert.Equal(t, models.LabelUnallocated, result.Deposits[0].Description)
}

func TestAllocate_DoesNotMutateInputs(t *testing.T) {
	obligations := []models.Obligation{monthly(date(2026, 2, 1), 1000), monthly(date(2026, 1, 1), 1000)}
	deposits := []models.Deposit{deposit(date(2026, 3, 1), 500), deposit(date(2026, 1, 1), 1500)}

	result := Allocate(obligations, decimal.Zero, deposits, time.Time{})

	assert.True(t, obligations[0].Paid.IsZero())
	assert.True(t, obligations[1].Paid.IsZero())
	assert.Equal(t, date(2026, 3, 1), deposits[0].Date)

	assert.Equal(t, date(2026, 1, 1), result.Obligations[0].Period)
	assert.Equal(t, date(2026, 1, 1), result.Deposits[0].Deposit.Date, "deposits are processed chronologically")
	assert.True(t, result.Obligations[1].Paid.Equal(yen(1000)))
}

func TestAllocate_IsDeterministic(t *testing.T) {
	obligations := []models.Obligation{monthly(date(2026, 1, 1), 1000), monthly(date(2026, 2, 1), 1000)}
	deposits := []models.Deposit{deposit(date(2026, 1, 5), 700), deposit(date(2026, 1, 5), 900)}

	first := Allocate(obligations, decimal.Zero, deposits, time.Time{})
	second := Allocate(obligations, decimal.Zero, deposits, time.Time{})
	assert.Equal(t, first, second)
}

func TestOrderObligations(t *testing.T) {
	in := []models.Obligation{
		monthly(date(2026, 2, 1), 1),
		{Period: date(2026, 3, 1), Kind: models.ObligationAdjustment},
		monthly(date(2026, 1, 1), 1),
		{Period: date(2026, 3, 1), Kind: models.ObligationCarryOver},
	}
	out := OrderObligations(in)
	assert.Equal(t, models.ObligationAdjustment, out[0].Kind)
	assert.Equal(t, models.ObligationCarryOver, out[1].Kind)
	assert.Equal(t, date(2026, 1, 1), out[2].Period)
	assert.Equal(t, date(2026, 2, 1), out[3].Period)
}
