package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/cho-y-j/able-sub001/internal/broker"
)

// GetPrice fetches the latest traded price for a symbol.
func (c *Client) GetPrice(ctx context.Context, code string) (float64, error) {
	var price float64
	err := c.withRetry(ctx, func(ctx context.Context) error {
		params := map[string]interface{}{
			"category": c.category,
			"symbol":   code,
		}
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
		if err != nil {
			return fmt.Errorf("failed to get market tickers: %w", err)
		}
		price, err = parseTickerPrice(result)
		return err
	})
	if err != nil {
		return 0, err
	}
	return price, nil
}

// GetOrderBook fetches the top of book and the 24h volume used as the
// router's daily-volume figure.
func (c *Client) GetOrderBook(ctx context.Context, code string) (*broker.OrderBook, error) {
	var book *broker.OrderBook
	err := c.withRetry(ctx, func(ctx context.Context) error {
		params := map[string]interface{}{
			"category": c.category,
			"symbol":   code,
			"limit":    1,
		}
		result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetOrderBookInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to get order book: %w", err)
		}
		book, err = parseOrderBook(result)
		if err != nil {
			return err
		}

		// Order book depth has no daily volume; take it from the ticker.
		tickerParams := map[string]interface{}{
			"category": c.category,
			"symbol":   code,
		}
		tickerResult, err := c.httpClient.NewUtaBybitServiceWithParams(tickerParams).GetMarketTickers(ctx)
		if err != nil {
			return fmt.Errorf("failed to get ticker volume: %w", err)
		}
		book.AvgDailyVolume, err = parseTickerVolume(tickerResult)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

type tickerResult struct {
	List []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
		Volume24h string `json:"volume24h"`
	} `json:"list"`
}

type orderBookResult struct {
	Bids [][]string `json:"b"`
	Asks [][]string `json:"a"`
}

func decodeResult(response interface{}, out interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return &APIError{Code: serverResp.RetCode, Message: serverResp.RetMsg}
	}
	raw, err := json.Marshal(serverResp.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}
	return nil
}

func parseTickerPrice(response interface{}) (float64, error) {
	var result tickerResult
	if err := decodeResult(response, &result); err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no ticker data found")
	}
	return parseFloat(result.List[0].LastPrice), nil
}

func parseTickerVolume(response interface{}) (int64, error) {
	var result tickerResult
	if err := decodeResult(response, &result); err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no ticker data found")
	}
	return int64(parseFloat(result.List[0].Volume24h)), nil
}

func parseOrderBook(response interface{}) (*broker.OrderBook, error) {
	var result orderBookResult
	if err := decodeResult(response, &result); err != nil {
		return nil, err
	}
	book := &broker.OrderBook{}
	if len(result.Bids) > 0 && len(result.Bids[0]) >= 2 {
		book.BestBid = parseFloat(result.Bids[0][0])
		book.BidVolume = int64(parseFloat(result.Bids[0][1]))
	}
	if len(result.Asks) > 0 && len(result.Asks[0]) >= 2 {
		book.BestAsk = parseFloat(result.Asks[0][0])
		book.AskVolume = int64(parseFloat(result.Asks[0][1]))
	}
	return book, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
