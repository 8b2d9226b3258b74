package broker

import (
	"context"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

// OrderType selects how a broker order is priced.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderBook carries the top of book plus the liquidity figure the router
// needs to judge order depth.
type OrderBook struct {
	BestBid        float64
	BestAsk        float64
	BidVolume      int64
	AskVolume      int64
	AvgDailyVolume int64
}

// Mid returns the midpoint price, or 0 when either side is missing.
func (b *OrderBook) Mid() float64 {
	if b == nil || b.BestBid <= 0 || b.BestAsk <= 0 {
		return 0
	}
	return (b.BestBid + b.BestAsk) / 2
}

// Balance is the account snapshot the pipeline syncs each cycle.
type Balance struct {
	TotalBalance float64
	Available    float64
	DailyPnL     float64
}

// OrderResult is the broker's acknowledgement of one order submission.
type OrderResult struct {
	Success       bool
	BrokerOrderID string
	Message       string
}

// Client is the abstract broker capability the execution engine and monitor
// depend on. Every call is context-bound; implementations must honor
// deadlines and treat a timeout as a failure of that call only.
type Client interface {
	GetPrice(ctx context.Context, code string) (float64, error)
	GetOrderBook(ctx context.Context, code string) (*OrderBook, error)
	GetBalance(ctx context.Context) (*Balance, error)
	PlaceOrder(ctx context.Context, code string, side types.Side, quantity int64, price float64, orderType OrderType) (*OrderResult, error)
}
