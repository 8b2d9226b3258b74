package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cho-y-j/able-sub001/internal/approval"
	"github.com/cho-y-j/able-sub001/internal/execution"
)

// Config is the env-driven process configuration. Secrets stay in the
// environment (or a .env file loaded by the entrypoint); nothing here is
// persisted with session state.
type Config struct {
	Environment string
	LogDir      string
	StateDir    string

	Broker struct {
		APIKey      string
		APISecret   string
		Testnet     bool
		Demo        bool
		Category    string
		CallTimeout time.Duration
	}

	Trading struct {
		DryRun            bool
		HITLEnabled       bool
		ApprovalThreshold float64
		SliceInterval     time.Duration
		MaxDrawdown       float64
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

// Load reads the configuration from the environment with safe defaults.
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogDir:      getEnv("LOG_DIR", "logs"),
		StateDir:    getEnv("STATE_DIR", "state"),
	}

	cfg.Broker.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Broker.APISecret = getEnv("BYBIT_API_SECRET", "")
	cfg.Broker.Testnet = getEnvBool("BYBIT_TESTNET", true)
	cfg.Broker.Demo = getEnvBool("BYBIT_DEMO", false)
	cfg.Broker.Category = getEnv("BYBIT_CATEGORY", "spot")
	cfg.Broker.CallTimeout = getEnvDuration("BROKER_CALL_TIMEOUT", 10*time.Second)

	cfg.Trading.DryRun = getEnvBool("DRY_RUN", true)
	cfg.Trading.HITLEnabled = getEnvBool("HITL_ENABLED", true)
	cfg.Trading.ApprovalThreshold = getEnvFloat("APPROVAL_THRESHOLD", approval.DefaultThreshold)
	cfg.Trading.SliceInterval = getEnvDuration("SLICE_INTERVAL", execution.DefaultSliceInterval)
	cfg.Trading.MaxDrawdown = getEnvFloat("MAX_DRAWDOWN", 0.15)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 0)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 0)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

// Validate rejects configurations that cannot run at all. Live trading
// without credentials is the main trap; dry-run needs nothing.
func (c *Config) Validate() error {
	if !c.Trading.DryRun {
		if c.Broker.APIKey == "" || c.Broker.APISecret == "" {
			return fmt.Errorf("live trading requires BYBIT_API_KEY and BYBIT_API_SECRET (or set DRY_RUN=true)")
		}
	}
	if c.Trading.ApprovalThreshold < 0 {
		return fmt.Errorf("APPROVAL_THRESHOLD must not be negative, got %.0f", c.Trading.ApprovalThreshold)
	}
	if c.Trading.SliceInterval < 0 {
		return fmt.Errorf("SLICE_INTERVAL must not be negative, got %s", c.Trading.SliceInterval)
	}
	if c.Trading.MaxDrawdown <= 0 || c.Trading.MaxDrawdown >= 1 {
		return fmt.Errorf("MAX_DRAWDOWN must be a fraction in (0, 1), got %.2f", c.Trading.MaxDrawdown)
	}
	if (c.Notifications.TelegramToken == "") != (c.Notifications.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
