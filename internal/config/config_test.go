package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.Trading.DryRun)
	assert.True(t, cfg.Trading.HITLEnabled)
	assert.InDelta(t, 5_000_000.0, cfg.Trading.ApprovalThreshold, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Broker.CallTimeout)
	assert.Equal(t, "spot", cfg.Broker.Category)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DRY_RUN", "false")
	t.Setenv("BYBIT_API_KEY", "key")
	t.Setenv("BYBIT_API_SECRET", "secret")
	t.Setenv("APPROVAL_THRESHOLD", "2500000")
	t.Setenv("SLICE_INTERVAL", "5s")
	t.Setenv("PROMETHEUS_PORT", "9100")

	cfg := Load()

	assert.False(t, cfg.Trading.DryRun)
	assert.Equal(t, "key", cfg.Broker.APIKey)
	assert.InDelta(t, 2_500_000.0, cfg.Trading.ApprovalThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Trading.SliceInterval)
	assert.Equal(t, 9100, cfg.Monitoring.PrometheusPort)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("APPROVAL_THRESHOLD", "not-a-number")
	t.Setenv("SLICE_INTERVAL", "soon")

	cfg := Load()

	assert.InDelta(t, 5_000_000.0, cfg.Trading.ApprovalThreshold, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Trading.SliceInterval)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	require.NoError(t, cfg.Validate())

	live := Load()
	live.Trading.DryRun = false
	err := live.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BYBIT_API_KEY")

	live.Broker.APIKey = "key"
	live.Broker.APISecret = "secret"
	assert.NoError(t, live.Validate())

	bad := Load()
	bad.Trading.MaxDrawdown = 1.5
	assert.Error(t, bad.Validate())

	half := Load()
	half.Notifications.TelegramToken = "tok"
	assert.Error(t, half.Validate())
}
