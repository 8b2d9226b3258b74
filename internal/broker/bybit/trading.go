package bybit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

type placeOrderResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

// PlaceOrder submits one order. Limit orders default to GTC; market orders
// ignore the price argument.
func (c *Client) PlaceOrder(ctx context.Context, code string, side types.Side, quantity int64, price float64, orderType broker.OrderType) (*broker.OrderResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	apiSide := "Buy"
	if side == types.SideSell {
		apiSide = "Sell"
	}

	params := map[string]interface{}{
		"category":  c.category,
		"symbol":    code,
		"side":      apiSide,
		"qty":       strconv.FormatInt(quantity, 10),
		"orderType": "Market",
	}
	if orderType == broker.OrderTypeLimit {
		if price <= 0 {
			return nil, fmt.Errorf("price is required for limit orders")
		}
		params["orderType"] = "Limit"
		params["price"] = strconv.FormatFloat(price, 'f', -1, 64)
		params["timeInForce"] = "GTC"
	}

	var placed placeOrderResult
	err := c.withRetry(ctx, func(ctx context.Context) error {
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
		if err != nil {
			return fmt.Errorf("failed to place order: %w", err)
		}
		return decodeResult(result, &placed)
	})
	if err != nil {
		return &broker.OrderResult{Success: false, Message: err.Error()}, err
	}

	return &broker.OrderResult{
		Success:       true,
		BrokerOrderID: placed.OrderID,
		Message:       fmt.Sprintf("%s %d %s", apiSide, quantity, code),
	}, nil
}
