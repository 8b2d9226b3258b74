package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/cho-y-j/able-sub001/internal/broker"
	pipelineerrors "github.com/cho-y-j/able-sub001/internal/errors"
	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/internal/monitoring"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// limitPriceEpsilon shades slice limit prices by 0.1% in the direction that
// favors getting filled.
const limitPriceEpsilon = 0.001

// DefaultSliceInterval is the pause between child orders of a TWAP/VWAP
// schedule when no interval is configured.
const DefaultSliceInterval = 30 * time.Second

// Engine works approved orders against the broker, slicing large orders
// over time and recording realized slippage for every fill.
type Engine struct {
	broker        broker.Client
	log           *logger.Logger
	sliceInterval time.Duration
	dryRun        bool
}

// NewEngine builds an execution engine. A nil or dry-run broker client puts
// the engine in dry-run mode; orders are then priced and sliced normally but
// never submitted.
func NewEngine(client broker.Client, log *logger.Logger, sliceInterval time.Duration) *Engine {
	if client == nil {
		client = broker.NewDryRunClient(nil, 0)
	}
	if log == nil {
		log = logger.NewDiscard()
	}
	if sliceInterval <= 0 {
		sliceInterval = DefaultSliceInterval
	}
	return &Engine{
		broker:        client,
		log:           log,
		sliceInterval: sliceInterval,
		dryRun:        broker.IsDryRun(client),
	}
}

// DryRun reports whether the engine simulates instead of submitting.
func (e *Engine) DryRun() bool {
	return e.dryRun
}

// Execute works one order intent to completion. The reference price fetch is
// fail-fast; a missing order book only degrades routing, never aborts. When
// intent.Strategy is set it overrides the router's choice.
func (e *Engine) Execute(ctx context.Context, intent types.OrderIntent) types.ExecutionResult {
	result := types.ExecutionResult{
		StockCode: intent.StockCode,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
	}

	if intent.Quantity <= 0 {
		result.Status = types.OrderFailed
		result.ErrorMessage = "order quantity must be positive"
		return result
	}

	price, err := e.broker.GetPrice(ctx, intent.StockCode)
	if (err != nil || price <= 0) && e.dryRun && intent.ExpectedPrice > 0 {
		price, err = intent.ExpectedPrice, nil
	}
	if err != nil || price <= 0 {
		var wrapped *pipelineerrors.PipelineError
		if err != nil {
			wrapped = pipelineerrors.Wrap(err, pipelineerrors.ErrorCategoryDataUnavailable, "execution", "get_price")
		} else {
			wrapped = pipelineerrors.New(pipelineerrors.ErrorCategoryDataUnavailable, "execution", "get_price",
				fmt.Sprintf("no reference price for %s", intent.StockCode))
		}
		e.log.LogError("execution price fetch", wrapped)
		result.Status = types.OrderFailed
		result.ErrorMessage = wrapped.Error()
		return result
	}
	result.ExpectedPrice = price

	book, err := e.broker.GetOrderBook(ctx, intent.StockCode)
	if err != nil {
		e.log.Warning("order book unavailable for %s, routing on price only: %v", intent.StockCode, err)
		book = nil
	}

	decision := Route(intent.Quantity, intent.Side, price, book)
	if intent.Strategy != "" {
		decision = overrideRoute(decision, intent.Strategy, price)
	}
	result.Strategy = decision.Strategy
	e.log.Info("routing %s %s x%d via %s (%s)",
		intent.Side, intent.StockCode, intent.Quantity, decision.Strategy, decision.Reason)

	switch decision.Strategy {
	case types.StrategyTWAP:
		e.executeSliced(ctx, intent, SplitEven(intent.Quantity, decision.NumSlices), nil, &result)
	case types.StrategyVWAP:
		profile := VWAPProfile(decision.NumSlices)
		e.executeSliced(ctx, intent, SplitByProfile(intent.Quantity, profile), profile, &result)
	default:
		e.executeDirect(ctx, intent, decision, &result)
	}

	e.finalize(&result)
	return result
}

// overrideRoute rebuilds the routing decision for an explicitly requested
// strategy, keeping the default slice counts.
func overrideRoute(decision RoutingDecision, strategy types.ExecutionStrategy, price float64) RoutingDecision {
	switch strategy {
	case types.StrategyTWAP:
		return RoutingDecision{
			Strategy:  types.StrategyTWAP,
			NumSlices: twapSliceCount,
			Reason:    "strategy override",
		}
	case types.StrategyVWAP:
		return RoutingDecision{
			Strategy:  types.StrategyVWAP,
			NumSlices: vwapSliceCount,
			Reason:    "strategy override",
		}
	case types.StrategyDirect:
		return RoutingDecision{
			Strategy:   types.StrategyDirect,
			OrderType:  broker.OrderTypeLimit,
			LimitPrice: price,
			Reason:     "strategy override",
		}
	}
	return decision
}

// executeDirect submits the whole quantity as one order.
func (e *Engine) executeDirect(ctx context.Context, intent types.OrderIntent, decision RoutingDecision, result *types.ExecutionResult) {
	child := types.ChildOrder{
		Index:      0,
		Quantity:   intent.Quantity,
		LimitPrice: decision.LimitPrice,
	}
	e.submitChild(ctx, intent, decision.OrderType, &child, result)
	result.ChildOrders = append(result.ChildOrders, child)
}

// executeSliced walks a TWAP/VWAP schedule in index order, re-pricing each
// slice from the live market and pausing between slices. The sleep after the
// final slice is skipped.
func (e *Engine) executeSliced(ctx context.Context, intent types.OrderIntent, slices []int64, profile []float64, result *types.ExecutionResult) {
	for i, quantity := range slices {
		if quantity <= 0 {
			continue
		}

		slicePrice := result.ExpectedPrice
		if live, err := e.broker.GetPrice(ctx, intent.StockCode); err == nil && live > 0 {
			slicePrice = live
		}

		child := types.ChildOrder{
			Index:      i,
			Quantity:   quantity,
			LimitPrice: sliceLimitPrice(intent.Side, slicePrice),
		}
		if profile != nil && i < len(profile) {
			child.Weight = profile[i]
		}

		e.submitChild(ctx, intent, broker.OrderTypeLimit, &child, result)
		result.ChildOrders = append(result.ChildOrders, child)

		if e.dryRun {
			continue // simulated schedules run without pacing
		}
		if i < len(slices)-1 {
			select {
			case <-ctx.Done():
				e.log.Warning("execution of %s interrupted after slice %d: %v", intent.StockCode, i, ctx.Err())
				return
			case <-time.After(e.sliceInterval):
			}
		}
	}
}

// submitChild places one child order and folds its fill into the running
// totals. In dry-run mode the order is recorded as filled at its limit price
// without touching the broker.
func (e *Engine) submitChild(ctx context.Context, intent types.OrderIntent, orderType broker.OrderType, child *types.ChildOrder, result *types.ExecutionResult) {
	fillPrice := child.LimitPrice
	if fillPrice <= 0 {
		fillPrice = result.ExpectedPrice
	}

	if e.dryRun {
		child.Success = true
		if res, err := e.broker.PlaceOrder(ctx, intent.StockCode, intent.Side, child.Quantity, child.LimitPrice, orderType); err == nil && res != nil {
			child.BrokerOrderID = res.BrokerOrderID
		}
		e.accumulateFill(result, child.Quantity, fillPrice)
		return
	}

	res, err := e.broker.PlaceOrder(ctx, intent.StockCode, intent.Side, child.Quantity, child.LimitPrice, orderType)
	if err != nil {
		child.Error = err.Error()
		e.log.LogError(fmt.Sprintf("place order %s slice %d", intent.StockCode, child.Index), err)
		monitoring.RecordOrderFailure(intent.StockCode)
		return
	}
	if !res.Success {
		child.Error = res.Message
		e.log.Error("order rejected for %s slice %d: %s", intent.StockCode, child.Index, res.Message)
		monitoring.RecordOrderFailure(intent.StockCode)
		return
	}

	child.Success = true
	child.BrokerOrderID = res.BrokerOrderID
	e.accumulateFill(result, child.Quantity, fillPrice)
}

// accumulateFill maintains the value-weighted average fill price over
// successful child orders only.
func (e *Engine) accumulateFill(result *types.ExecutionResult, quantity int64, price float64) {
	prevValue := float64(result.FilledQuantity) * result.FillPrice
	result.FilledQuantity += quantity
	if result.FilledQuantity > 0 {
		result.FillPrice = (prevValue + float64(quantity)*price) / float64(result.FilledQuantity)
	}
}

// finalize settles the terminal status and slippage for one execution.
// Dry-run executions record neither a fill price nor slippage; they only
// carry the schedule that would have been submitted. Slippage is measured
// against realized fills only, so a fully failed order carries none.
func (e *Engine) finalize(result *types.ExecutionResult) {
	if !e.dryRun && result.FilledQuantity > 0 {
		result.SlippageBps = SlippageBps(result.Side, result.ExpectedPrice, result.FillPrice)
	}

	switch {
	case e.dryRun:
		result.Status = types.OrderDryRun
		result.FillPrice = 0
	case result.FilledQuantity == 0:
		result.Status = types.OrderFailed
		if result.ErrorMessage == "" {
			result.ErrorMessage = "no child order succeeded"
		}
	default:
		result.Status = types.OrderSubmitted
	}

	monitoring.RecordExecution(string(result.Strategy), string(result.Status))
	if !e.dryRun && result.FilledQuantity > 0 {
		monitoring.RecordSlippage(result.SlippageBps)
	}
	e.log.LogExecution(result.StockCode, string(result.Side), string(result.Strategy),
		result.FilledQuantity, result.FillPrice, result.SlippageBps, string(result.Status))
}

// sliceLimitPrice shades the reference price toward the far touch so limit
// slices cross the spread instead of resting.
func sliceLimitPrice(side types.Side, price float64) float64 {
	if side == types.SideBuy {
		return price * (1 + limitPriceEpsilon)
	}
	return price * (1 - limitPriceEpsilon)
}
