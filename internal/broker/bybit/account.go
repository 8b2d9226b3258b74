package bybit

import (
	"context"
	"fmt"

	"github.com/cho-y-j/able-sub001/internal/broker"
)

type walletResult struct {
	List []struct {
		TotalEquity           string `json:"totalEquity"`
		TotalAvailableBalance string `json:"totalAvailableBalance"`
		TotalPerpUPL          string `json:"totalPerpUPL"`
	} `json:"list"`
}

// GetBalance fetches the unified account balance. The monitor also uses a
// successful balance query as its optimistic fill confirmation.
func (c *Client) GetBalance(ctx context.Context) (*broker.Balance, error) {
	var balance *broker.Balance
	err := c.withRetry(ctx, func(ctx context.Context) error {
		params := map[string]interface{}{
			"accountType": "UNIFIED",
		}
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
		if err != nil {
			return fmt.Errorf("failed to get account wallet: %w", err)
		}

		var wallet walletResult
		if err := decodeResult(result, &wallet); err != nil {
			return err
		}
		if len(wallet.List) == 0 {
			return fmt.Errorf("no account data found")
		}

		balance = &broker.Balance{
			TotalBalance: parseFloat(wallet.List[0].TotalEquity),
			Available:    parseFloat(wallet.List[0].TotalAvailableBalance),
			DailyPnL:     parseFloat(wallet.List[0].TotalPerpUPL),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
