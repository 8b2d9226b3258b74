package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLimitsCrisisHalving(t *testing.T) {
	base := NewLimits(10_000_000, false)
	assert.InDelta(t, 300_000.0, base.MaxDailyLoss(), 1e-9)
	assert.InDelta(t, 8_000_000.0, base.MaxTotalExposure(), 1e-9)
	assert.InDelta(t, 1_000_000.0, base.MaxSinglePosition(), 1e-9)

	crisis := NewLimits(10_000_000, true)
	assert.InDelta(t, 150_000.0, crisis.MaxDailyLoss(), 1e-9)
	assert.InDelta(t, 4_000_000.0, crisis.MaxTotalExposure(), 1e-9)
	assert.InDelta(t, 500_000.0, crisis.MaxSinglePosition(), 1e-9)
}

func TestCheckOrderRejectsOnDailyLossBreach(t *testing.T) {
	limits := NewLimits(10_000_000, false)

	check := limits.CheckOrder(100_000, 0, -300_000)
	assert.False(t, check.Approved)
	assert.Contains(t, check.Reason, "daily loss limit breached")
}

func TestCheckOrderCapsToSinglePosition(t *testing.T) {
	limits := NewLimits(10_000_000, false)

	check := limits.CheckOrder(2_000_000, 0, 0)
	assert.True(t, check.Approved)
	assert.InDelta(t, 1_000_000.0, check.CappedValue, 1e-9)
}

func TestCheckOrderCapsToExposureBudget(t *testing.T) {
	limits := NewLimits(10_000_000, false)

	// 7.5M already deployed leaves 500k of the 8M budget.
	check := limits.CheckOrder(900_000, 7_500_000, 0)
	assert.True(t, check.Approved)
	assert.InDelta(t, 500_000.0, check.CappedValue, 1e-9)
}

func TestCheckOrderExposureExhausted(t *testing.T) {
	limits := NewLimits(10_000_000, false)

	check := limits.CheckOrder(100_000, 8_000_000, 0)
	assert.False(t, check.Approved)
	assert.Contains(t, check.Reason, "exposure budget exhausted")
}

func TestCheckOrderCapsToDailyLossMargin(t *testing.T) {
	limits := NewLimits(10_000_000, false)

	// 270k already lost leaves a 30k margin; at a 3% adverse move that
	// allows a 1M order, which happens to equal the single-position cap.
	check := limits.CheckOrder(5_000_000, 0, -270_000)
	assert.True(t, check.Approved)
	assert.InDelta(t, 1_000_000.0, check.CappedValue, 1e-9)

	// 295k lost leaves 5k of margin: order capped well below its value.
	check = limits.CheckOrder(5_000_000, 0, -295_000)
	assert.True(t, check.Approved)
	assert.InDelta(t, 5_000/assumedAdverseMovePct, check.CappedValue, 1e-6)
}

func TestCheckOrderSmallOrderPassesUncapped(t *testing.T) {
	limits := NewLimits(10_000_000, false)

	check := limits.CheckOrder(200_000, 1_000_000, -50_000)
	assert.True(t, check.Approved)
	assert.InDelta(t, 200_000.0, check.CappedValue, 1e-9)
}
