package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

// DryRunClient is the no-op broker used when no live broker is configured.
// It never touches the network: prices come from a fixed table, balances are
// static, and placed orders are acknowledged with synthetic order ids. The
// execution engine detects it and records orders as dry-run without
// submitting child orders at all.
type DryRunClient struct {
	mu      sync.Mutex
	prices  map[string]float64
	balance Balance
	seq     int
}

// NewDryRunClient creates a dry-run broker with the given reference prices
// and starting balance.
func NewDryRunClient(prices map[string]float64, totalBalance float64) *DryRunClient {
	if prices == nil {
		prices = make(map[string]float64)
	}
	return &DryRunClient{
		prices: prices,
		balance: Balance{
			TotalBalance: totalBalance,
			Available:    totalBalance,
		},
	}
}

// SetPrice updates the reference price for a code.
func (c *DryRunClient) SetPrice(code string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[code] = price
}

// GetPrice returns the fixed reference price for the code.
func (c *DryRunClient) GetPrice(_ context.Context, code string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	price, ok := c.prices[code]
	if !ok {
		return 0, fmt.Errorf("no reference price for %s", code)
	}
	return price, nil
}

// GetOrderBook returns a synthetic book around the reference price.
func (c *DryRunClient) GetOrderBook(ctx context.Context, code string) (*OrderBook, error) {
	price, err := c.GetPrice(ctx, code)
	if err != nil {
		return nil, err
	}
	return &OrderBook{
		BestBid:        price * 0.999,
		BestAsk:        price * 1.001,
		AvgDailyVolume: 1_000_000,
	}, nil
}

// GetBalance returns the static account snapshot.
func (c *DryRunClient) GetBalance(_ context.Context) (*Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.balance
	return &b, nil
}

// PlaceOrder acknowledges the order with a deterministic synthetic id.
func (c *DryRunClient) PlaceOrder(_ context.Context, code string, side types.Side, quantity int64, price float64, _ OrderType) (*OrderResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return &OrderResult{
		Success:       true,
		BrokerOrderID: fmt.Sprintf("dry-%s-%s-%d", code, side, c.seq),
		Message:       fmt.Sprintf("dry run: %s %d @ %.2f", side, quantity, price),
	}, nil
}

// IsDryRun lets callers detect the no-op broker without a type switch at
// every call site.
func (c *DryRunClient) IsDryRun() bool { return true }

// dryRunner is implemented by brokers whose orders must be recorded as
// dry-run instead of submitted.
type dryRunner interface {
	IsDryRun() bool
}

// IsDryRun reports whether the client is a dry-run broker.
func IsDryRun(c Client) bool {
	if c == nil {
		return true
	}
	dr, ok := c.(dryRunner)
	return ok && dr.IsDryRun()
}
