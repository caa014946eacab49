package entity

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplitFee_OneDollar(t *testing.T) {
	policy := DefaultPolicy()

	split := policy.SplitFee(decimal.NewFromInt(1))

	assert.True(t, split.TechnicianPayout.Equal(decimal.RequireFromString("0.85")),
		"payout = %s", split.TechnicianPayout)
	assert.True(t, split.PlatformFee.Equal(decimal.RequireFromString("0.15")),
		"fee = %s", split.PlatformFee)
}

func TestSplitFee_Zero(t *testing.T) {
	policy := DefaultPolicy()

	split := policy.SplitFee(decimal.Zero)

	assert.True(t, split.TechnicianPayout.IsZero())
	assert.True(t, split.PlatformFee.IsZero())
}

func TestSplitFee_RoundingAbsorbedByPayout(t *testing.T) {
	policy := DefaultPolicy()

	// 15% of $0.01 rounds to $0.00; the full cent goes to the technician.
	split := policy.SplitFee(decimal.RequireFromString("0.01"))
	assert.True(t, split.PlatformFee.IsZero())
	assert.True(t, split.TechnicianPayout.Equal(decimal.RequireFromString("0.01")))

	// 15% of $0.03 is $0.0045, rounds to $0.00.
	split = policy.SplitFee(decimal.RequireFromString("0.03"))
	assert.True(t, split.TechnicianPayout.Add(split.PlatformFee).Equal(decimal.RequireFromString("0.03")))
}

func TestSplitFee_ExactForRandomCentValues(t *testing.T) {
	policy := DefaultPolicy()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 10000; i++ {
		cents := rng.Int63n(10_000_000) // up to $100,000.00
		value := decimal.New(cents, -2)

		split := policy.SplitFee(value)

		sum := split.TechnicianPayout.Add(split.PlatformFee)
		if !sum.Equal(value) {
			t.Fatalf("split of %s leaks: payout %s + fee %s = %s",
				value, split.TechnicianPayout, split.PlatformFee, sum)
		}
		if split.PlatformFee.IsNegative() || split.TechnicianPayout.IsNegative() {
			t.Fatalf("negative split component for %s: %+v", value, split)
		}
	}
}

func TestSplitSettlement_FlatFeeAppliedFirst(t *testing.T) {
	policy := DefaultPolicy()

	// $10.00 gross: $0.99 flat fee, remainder $9.01 split 85/15.
	// Platform share of remainder = $1.35, payout = $7.66.
	split := policy.SplitSettlement(decimal.NewFromInt(10))

	assert.True(t, split.TechnicianPayout.Equal(decimal.RequireFromString("7.66")),
		"payout = %s", split.TechnicianPayout)
	assert.True(t, split.PlatformFee.Equal(decimal.RequireFromString("2.34")),
		"fee = %s", split.PlatformFee)
	assert.True(t, split.TechnicianPayout.Add(split.PlatformFee).Equal(decimal.NewFromInt(10)))
}

func TestSplitSettlement_GrossBelowFlatFee(t *testing.T) {
	policy := DefaultPolicy()

	split := policy.SplitSettlement(decimal.RequireFromString("0.50"))

	assert.True(t, split.TechnicianPayout.IsZero())
	assert.True(t, split.PlatformFee.Equal(decimal.RequireFromString("0.50")))
}

func TestSplitSettlement_ExactForRandomCentValues(t *testing.T) {
	policy := DefaultPolicy()
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 10000; i++ {
		cents := rng.Int63n(1_000_000)
		value := decimal.New(cents, -2)

		split := policy.SplitSettlement(value)

		sum := split.TechnicianPayout.Add(split.PlatformFee)
		if !sum.Equal(value) {
			t.Fatalf("settlement of %s leaks: payout %s + fee %s = %s",
				value, split.TechnicianPayout, split.PlatformFee, sum)
		}
	}
}
