package bybit

import (
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// Client wraps the Bybit HTTP API behind the pipeline's broker capability.
// All calls are bounded by callTimeout and routed through the retry policy.
type Client struct {
	httpClient  *bybit_api.Client
	category    string
	callTimeout time.Duration
	retry       RetryConfig
}

// Config holds the Bybit client configuration.
type Config struct {
	APIKey      string
	APISecret   string
	Testnet     bool
	Demo        bool // demo trading environment (paper trading)
	Category    string
	CallTimeout time.Duration
}

// NewClient creates a Bybit-backed broker client.
func NewClient(config Config) *Client {
	var baseURL string
	switch {
	case config.Demo:
		baseURL = "https://api-demo.bybit.com"
	case config.Testnet:
		baseURL = bybit_api.TESTNET
	default:
		baseURL = bybit_api.MAINNET
	}

	if config.Category == "" {
		config.Category = "spot"
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 10 * time.Second
	}

	httpClient := bybit_api.NewBybitHttpClient(
		config.APIKey,
		config.APISecret,
		bybit_api.WithBaseURL(baseURL),
	)

	return &Client{
		httpClient:  httpClient,
		category:    config.Category,
		callTimeout: config.CallTimeout,
		retry:       DefaultRetryConfig(),
	}
}
