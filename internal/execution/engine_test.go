package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// scriptedBroker is a live-looking broker whose order outcomes are scripted
// per call.
type scriptedBroker struct {
	price      float64
	priceErr   error
	book       *broker.OrderBook
	bookErr    error
	placed     []placedOrder
	orderFails map[int]string // call index -> rejection message
	orderErr   error
}

type placedOrder struct {
	code      string
	side      types.Side
	quantity  int64
	price     float64
	orderType broker.OrderType
}

func (s *scriptedBroker) GetPrice(context.Context, string) (float64, error) {
	return s.price, s.priceErr
}

func (s *scriptedBroker) GetOrderBook(context.Context, string) (*broker.OrderBook, error) {
	return s.book, s.bookErr
}

func (s *scriptedBroker) GetBalance(context.Context) (*broker.Balance, error) {
	return &broker.Balance{TotalBalance: 1_000_000, Available: 1_000_000}, nil
}

func (s *scriptedBroker) PlaceOrder(_ context.Context, code string, side types.Side, quantity int64, price float64, orderType broker.OrderType) (*broker.OrderResult, error) {
	idx := len(s.placed)
	s.placed = append(s.placed, placedOrder{code, side, quantity, price, orderType})
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	if msg, ok := s.orderFails[idx]; ok {
		return &broker.OrderResult{Success: false, Message: msg}, nil
	}
	return &broker.OrderResult{Success: true, BrokerOrderID: "ord-1"}, nil
}

func newTestEngine(client broker.Client) *Engine {
	return NewEngine(client, nil, time.Millisecond)
}

func TestExecuteDirectSubmitted(t *testing.T) {
	b := &scriptedBroker{
		price: 100.0,
		book:  &broker.OrderBook{BestBid: 99.0, BestAsk: 101.0, AvgDailyVolume: 1_000_000},
	}
	engine := newTestEngine(b)

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  100,
	})

	assert.Equal(t, types.OrderSubmitted, result.Status)
	assert.Equal(t, types.StrategyDirect, result.Strategy)
	assert.Equal(t, int64(100), result.FilledQuantity)
	assert.Len(t, result.ChildOrders, 1)
	assert.True(t, result.ChildOrders[0].Success)
	assert.Len(t, b.placed, 1)
	assert.Equal(t, broker.OrderTypeLimit, b.placed[0].orderType)
	assert.InDelta(t, 101.0, b.placed[0].price, 1e-9) // at the ask
}

func TestExecutePriceFetchFailsFast(t *testing.T) {
	b := &scriptedBroker{priceErr: errors.New("market data feed down")}
	engine := newTestEngine(b)

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  100,
	})

	assert.Equal(t, types.OrderFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "market data feed down")
	assert.Empty(t, b.placed)
}

func TestExecuteMissingBookStillRoutes(t *testing.T) {
	b := &scriptedBroker{price: 100.0, bookErr: errors.New("book unavailable")}
	engine := newTestEngine(b)

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideSell,
		Quantity:  100,
	})

	assert.Equal(t, types.OrderSubmitted, result.Status)
	assert.Equal(t, types.StrategyDirect, result.Strategy)
	assert.Len(t, b.placed, 1)
}

func TestExecuteTWAPSlicesInOrder(t *testing.T) {
	b := &scriptedBroker{
		price: 100.0,
		book:  &broker.OrderBook{BestBid: 99.9, BestAsk: 100.1, AvgDailyVolume: 1_000},
	}
	engine := newTestEngine(b)

	// 70 shares against ADV 1000 is 7% of daily volume: TWAP over 5 slices.
	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  70,
	})

	assert.Equal(t, types.StrategyTWAP, result.Strategy)
	assert.Equal(t, types.OrderSubmitted, result.Status)
	assert.Equal(t, int64(70), result.FilledQuantity)
	assert.Len(t, result.ChildOrders, 5)
	for i, child := range result.ChildOrders {
		assert.Equal(t, i, child.Index)
		assert.InDelta(t, 100.0*(1+limitPriceEpsilon), child.LimitPrice, 1e-9)
	}
	assert.Equal(t, []int64{14, 14, 14, 14, 14}, []int64{
		b.placed[0].quantity, b.placed[1].quantity, b.placed[2].quantity,
		b.placed[3].quantity, b.placed[4].quantity,
	})
}

func TestExecuteStrategyOverride(t *testing.T) {
	b := &scriptedBroker{
		price: 100.0,
		book:  &broker.OrderBook{BestBid: 99.9, BestAsk: 100.1, AvgDailyVolume: 1_000_000},
	}
	engine := newTestEngine(b)

	// Tiny order, but the intent forces VWAP.
	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  90,
		Strategy:  types.StrategyVWAP,
	})

	assert.Equal(t, types.StrategyVWAP, result.Strategy)
	assert.Len(t, result.ChildOrders, 9)

	var total int64
	for _, child := range result.ChildOrders {
		total += child.Quantity
		assert.Greater(t, child.Weight, 0.0)
	}
	assert.Equal(t, int64(90), total)
}

func TestExecutePartialFillOnSliceFailure(t *testing.T) {
	b := &scriptedBroker{
		price:      100.0,
		book:       &broker.OrderBook{BestBid: 99.9, BestAsk: 100.1, AvgDailyVolume: 1_000},
		orderFails: map[int]string{2: "insufficient margin"},
	}
	engine := newTestEngine(b)

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  70,
	})

	assert.Equal(t, types.OrderSubmitted, result.Status)
	assert.Equal(t, int64(56), result.FilledQuantity) // 4 of 5 slices
	assert.False(t, result.ChildOrders[2].Success)
	assert.Equal(t, "insufficient margin", result.ChildOrders[2].Error)
}

func TestExecuteAllSlicesFail(t *testing.T) {
	b := &scriptedBroker{
		price:    100.0,
		book:     &broker.OrderBook{BestBid: 99.0, BestAsk: 101.0, AvgDailyVolume: 1_000_000},
		orderErr: errors.New("connection reset"),
	}
	engine := newTestEngine(b)

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  100,
	})

	assert.Equal(t, types.OrderFailed, result.Status)
	assert.Zero(t, result.FilledQuantity)
	assert.Zero(t, result.FillPrice)
	assert.Zero(t, result.SlippageBps) // slippage is measured against fills, not misses
}

func TestExecuteDryRun(t *testing.T) {
	client := broker.NewDryRunClient(map[string]float64{"005930": 100.0}, 10_000_000)
	engine := newTestEngine(client)

	assert.True(t, engine.DryRun())

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  100,
	})

	assert.Equal(t, types.OrderDryRun, result.Status)
	assert.Equal(t, int64(100), result.FilledQuantity)
	assert.NotEmpty(t, result.ChildOrders[0].BrokerOrderID)
	assert.Zero(t, result.FillPrice)
	assert.Zero(t, result.SlippageBps)
}

func TestExecuteRejectsNonPositiveQuantity(t *testing.T) {
	engine := newTestEngine(&scriptedBroker{price: 100.0})

	result := engine.Execute(context.Background(), types.OrderIntent{
		StockCode: "005930",
		Side:      types.SideBuy,
		Quantity:  0,
	})

	assert.Equal(t, types.OrderFailed, result.Status)
}
