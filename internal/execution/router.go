package execution

import (
	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Routing thresholds. Depth is order quantity relative to average daily
// volume; spread is quoted relative to mid.
const (
	vwapDepthThreshold   = 0.10
	twapDepthThreshold   = 0.05
	directDepthThreshold = 0.01
	tightSpreadThreshold = 0.001

	vwapSliceCount = 9
	twapSliceCount = 5
)

// RoutingDecision is the chosen execution strategy for one order.
type RoutingDecision struct {
	Strategy   types.ExecutionStrategy
	NumSlices  int
	OrderType  broker.OrderType
	LimitPrice float64
	Reason     string
}

// Route picks an execution strategy from order size, daily volume and the
// quoted spread. Large orders relative to daily volume are time-sliced;
// small orders in tight markets go straight to the market; everything else
// posts a limit at the touch.
func Route(quantity int64, side types.Side, price float64, book *broker.OrderBook) RoutingDecision {
	var depthPct, spreadPct float64
	if book != nil && book.AvgDailyVolume > 0 {
		depthPct = float64(quantity) / float64(book.AvgDailyVolume)
	}
	if mid := book.Mid(); mid > 0 {
		spreadPct = (book.BestAsk - book.BestBid) / mid
	}

	switch {
	case depthPct >= vwapDepthThreshold:
		return RoutingDecision{
			Strategy:  types.StrategyVWAP,
			NumSlices: vwapSliceCount,
			Reason:    "order exceeds 10% of daily volume",
		}
	case depthPct >= twapDepthThreshold:
		return RoutingDecision{
			Strategy:  types.StrategyTWAP,
			NumSlices: twapSliceCount,
			Reason:    "order exceeds 5% of daily volume",
		}
	case book != nil && spreadPct < tightSpreadThreshold && depthPct < directDepthThreshold:
		return RoutingDecision{
			Strategy:  types.StrategyDirect,
			OrderType: broker.OrderTypeMarket,
			Reason:    "tight spread, small order",
		}
	default:
		limit := price
		if book != nil {
			if side == types.SideBuy && book.BestAsk > 0 {
				limit = book.BestAsk
			} else if side == types.SideSell && book.BestBid > 0 {
				limit = book.BestBid
			}
		}
		return RoutingDecision{
			Strategy:   types.StrategyDirect,
			OrderType:  broker.OrderTypeLimit,
			LimitPrice: limit,
			Reason:     "direct limit at touch",
		}
	}
}
