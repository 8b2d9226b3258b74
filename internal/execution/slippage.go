package execution

import "github.com/cho-y-j/able-sub001/pkg/types"

// SlippageBps measures the fill price deviation from the expected price in
// basis points, signed so that a positive value is always unfavorable to the
// trader regardless of side. Returns 0 when no meaningful expected price is
// available.
func SlippageBps(side types.Side, expectedPrice, fillPrice float64) float64 {
	if expectedPrice <= 0 {
		return 0
	}
	bps := (fillPrice - expectedPrice) / expectedPrice * 10000
	if side == types.SideSell {
		bps = -bps
	}
	return bps
}

// BuildSlippageReport aggregates per-order slippage into a session-level
// report. Orders that never filled contribute nothing to the averages.
func BuildSlippageReport(orders []types.ExecutionResult) *types.SlippageReport {
	report := &types.SlippageReport{}

	var weightedSum float64
	var totalValue float64
	for _, order := range orders {
		if order.FilledQuantity <= 0 || order.FillPrice <= 0 {
			continue
		}
		value := float64(order.FilledQuantity) * order.FillPrice
		weightedSum += order.SlippageBps * value
		totalValue += value
		if order.SlippageBps > report.WorstBps {
			report.WorstBps = order.SlippageBps
		}
		report.Orders++
	}

	if totalValue > 0 {
		report.AvgBps = weightedSum / totalValue
	}
	report.TotalValue = totalValue
	return report
}
