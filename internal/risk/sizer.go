package risk

import (
	"math"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Kelly sizing parameters: half-Kelly for variance reduction, hard cap on
// the fraction regardless of how strong the edge looks.
const (
	kellyFractionMultiplier = 0.5
	maxKellyFraction        = 0.25

	// Drawdown recovery ladder relative to the configured maximum.
	drawdownReduceHeavy     = 0.7 // of max: scale 0.3
	drawdownReduceLight     = 0.5 // of max: scale 0.6
	drawdownScaleHeavy      = 0.3
	drawdownScaleLight      = 0.6
	DefaultMaxDrawdown      = 0.15
	defaultRegimeMultiplier = 0.5
)

var regimeMultipliers = map[types.RegimeClassification]float64{
	types.RegimeBull:     1.0,
	types.RegimeSideways: 0.7,
	types.RegimeBear:     0.4,
	types.RegimeVolatile: 0.5,
	types.RegimeCrisis:   0.2,
}

// KellyFraction computes the half-Kelly capital fraction from backtest win
// statistics, clamped to [0, maxKellyFraction]. A non-positive edge or
// degenerate loss magnitude sizes to zero.
func KellyFraction(m types.BacktestMetrics) float64 {
	if m.AvgLoss <= 0 || m.AvgWin <= 0 {
		return 0
	}
	b := m.AvgWin / m.AvgLoss
	kelly := (b*m.WinRate - (1 - m.WinRate)) / b
	if kelly <= 0 {
		return 0
	}
	kelly *= kellyFractionMultiplier
	return math.Min(kelly, maxKellyFraction)
}

// RegimeMultiplier scales the sizing fraction by market regime. Unknown
// regimes are sized like volatile markets.
func RegimeMultiplier(classification types.RegimeClassification) float64 {
	if m, ok := regimeMultipliers[classification]; ok {
		return m
	}
	return defaultRegimeMultiplier
}

// DrawdownScale resolves the drawdown recovery mode and its position scale.
// At or beyond the maximum allowed drawdown all trading halts.
func DrawdownScale(currentDrawdown, maxAllowed float64) (float64, types.DrawdownMode) {
	if maxAllowed <= 0 {
		maxAllowed = DefaultMaxDrawdown
	}
	switch {
	case currentDrawdown >= maxAllowed:
		return 0, types.DrawdownHalt
	case currentDrawdown >= maxAllowed*drawdownReduceHeavy:
		return drawdownScaleHeavy, types.DrawdownReduceSize
	case currentDrawdown >= maxAllowed*drawdownReduceLight:
		return drawdownScaleLight, types.DrawdownReduceSize
	default:
		return 1.0, types.DrawdownNormal
	}
}

// SizePosition computes the sizing for one candidate: Kelly fraction,
// regime multiplier and drawdown scale applied in sequence, converted to
// whole shares at the candidate's reference price.
func SizePosition(capital float64, metrics types.BacktestMetrics, regime types.RegimeClassification, drawdownScale, price float64) types.PositionSizing {
	fraction := KellyFraction(metrics) * RegimeMultiplier(regime) * drawdownScale

	sizing := types.PositionSizing{KellyAdjusted: fraction}
	if price <= 0 || fraction <= 0 {
		return sizing
	}
	sizing.Shares = int64(math.Floor(capital * fraction / price))
	sizing.PositionValue = float64(sizing.Shares) * price
	return sizing
}
