package types

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ExecutionStrategy selects how an order is worked against the market.
type ExecutionStrategy string

const (
	StrategyDirect ExecutionStrategy = "direct"
	StrategyTWAP   ExecutionStrategy = "twap"
	StrategyVWAP   ExecutionStrategy = "vwap"
)

// OrderStatus is the lifecycle state of an execution result.
// Dry-run orders never become submitted or failed.
type OrderStatus string

const (
	OrderSubmitted    OrderStatus = "submitted"
	OrderFilled       OrderStatus = "filled"
	OrderFailed       OrderStatus = "failed"
	OrderDryRun       OrderStatus = "dry_run"
	OrderDryRunFilled OrderStatus = "dry_run_filled"
)

// OrderIntent describes one trade the pipeline wants executed.
// ExpectedPrice is the upstream reference price; dry-run executions fall
// back to it when the simulated broker has no quote for the code.
type OrderIntent struct {
	StockCode     string            `json:"stock_code"`
	Side          Side              `json:"side"`
	Quantity      int64             `json:"quantity"`
	Strategy      ExecutionStrategy `json:"strategy,omitempty"` // empty lets the router decide
	ExpectedPrice float64           `json:"expected_price,omitempty"`
}

// ChildOrder records one slice submitted by a TWAP/VWAP schedule, or the
// single order of a direct execution.
type ChildOrder struct {
	Index         int     `json:"index"`
	Quantity      int64   `json:"quantity"`
	LimitPrice    float64 `json:"limit_price"`
	Weight        float64 `json:"weight,omitempty"` // VWAP bucket share
	BrokerOrderID string  `json:"broker_order_id,omitempty"`
	Success       bool    `json:"success"`
	Error         string  `json:"error,omitempty"`
}

// ExecutionResult is the outcome of executing one OrderIntent.
// FilledQuantity never exceeds Quantity; FillPrice is value-weighted over
// successful child orders only.
type ExecutionResult struct {
	StockCode      string            `json:"stock_code"`
	Side           Side              `json:"side"`
	Quantity       int64             `json:"quantity"`
	FilledQuantity int64             `json:"filled_quantity"`
	Strategy       ExecutionStrategy `json:"strategy"`
	ExpectedPrice  float64           `json:"expected_price"`
	FillPrice      float64           `json:"fill_price"`
	SlippageBps    float64           `json:"slippage_bps"`
	ChildOrders    []ChildOrder      `json:"child_orders,omitempty"`
	Status         OrderStatus       `json:"status"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

// SlippageReport aggregates realized slippage across one execution pass.
type SlippageReport struct {
	Orders     int     `json:"orders"`
	AvgBps     float64 `json:"avg_bps"`
	WorstBps   float64 `json:"worst_bps"`
	TotalValue float64 `json:"total_value"`
}
