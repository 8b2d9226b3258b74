package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/internal/execution"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// balanceBroker only answers balance probes; everything else is unused by
// the monitor.
type balanceBroker struct {
	err error
}

func (b *balanceBroker) GetPrice(context.Context, string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (b *balanceBroker) GetOrderBook(context.Context, string) (*broker.OrderBook, error) {
	return nil, errors.New("not implemented")
}

func (b *balanceBroker) GetBalance(context.Context) (*broker.Balance, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &broker.Balance{TotalBalance: 1_000_000}, nil
}

func (b *balanceBroker) PlaceOrder(context.Context, string, types.Side, int64, float64, broker.OrderType) (*broker.OrderResult, error) {
	return nil, errors.New("not implemented")
}

func TestMonitorMarksDryRunFilled(t *testing.T) {
	step := &MonitorStep{Broker: broker.NewDryRunClient(nil, 0)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{DryRun: true})
	view.PendingOrders = []types.ExecutionResult{
		{StockCode: "005930", Status: types.OrderDryRun, FilledQuantity: 100},
	}

	delta := step.Run(context.Background(), view)

	assert.True(t, delta.ReplacePending)
	assert.Empty(t, delta.PendingOrders)
	require.Len(t, delta.ExecutedOrders, 1)
	assert.Equal(t, types.OrderDryRunFilled, delta.ExecutedOrders[0].Status)
}

func TestMonitorOptimisticFillOnBalanceSuccess(t *testing.T) {
	step := &MonitorStep{Broker: &balanceBroker{}}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.PendingOrders = []types.ExecutionResult{
		{StockCode: "005930", Status: types.OrderSubmitted, FilledQuantity: 50, FillPrice: 100, SlippageBps: 5},
	}

	delta := step.Run(context.Background(), view)

	assert.Empty(t, delta.PendingOrders)
	require.Len(t, delta.ExecutedOrders, 1)
	assert.Equal(t, types.OrderFilled, delta.ExecutedOrders[0].Status)
	require.NotNil(t, delta.SlippageReport)
	assert.Equal(t, 1, delta.SlippageReport.Orders)
}

func TestMonitorLeavesSubmittedOnProbeFailure(t *testing.T) {
	step := &MonitorStep{Broker: &balanceBroker{err: errors.New("timeout")}}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.PendingOrders = []types.ExecutionResult{
		{StockCode: "005930", Status: types.OrderSubmitted},
	}

	delta := step.Run(context.Background(), view)

	require.Len(t, delta.PendingOrders, 1)
	assert.Equal(t, types.OrderSubmitted, delta.PendingOrders[0].Status)
	assert.Empty(t, delta.ExecutedOrders)
	assert.Nil(t, delta.ShouldContinue)
}

func TestMonitorMovesFailedOrdersOut(t *testing.T) {
	step := &MonitorStep{}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.PendingOrders = []types.ExecutionResult{
		{StockCode: "005930", Status: types.OrderFailed, ErrorMessage: "rejected"},
	}

	delta := step.Run(context.Background(), view)

	assert.Empty(t, delta.PendingOrders)
	require.Len(t, delta.ExecutedOrders, 1)

	var sawError bool
	for _, alert := range delta.Alerts {
		if alert.Level == types.AlertError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestMonitorDiversificationWarning(t *testing.T) {
	step := &MonitorStep{}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	for i := 0; i < 11; i++ {
		view.ExecutedOrders = append(view.ExecutedOrders, types.ExecutionResult{Status: types.OrderFilled})
	}

	delta := step.Run(context.Background(), view)

	var sawWarning bool
	for _, alert := range delta.Alerts {
		if alert.Level == types.AlertWarning {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestMonitorStopsNearIterationCap(t *testing.T) {
	step := &MonitorStep{}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.IterationCount = MaxIterations - iterationWarnMargin

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.ShouldContinue)
	assert.False(t, *delta.ShouldContinue)
}

func TestMonitorBelowCapContinues(t *testing.T) {
	step := &MonitorStep{}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.IterationCount = 10

	delta := step.Run(context.Background(), view)

	assert.Nil(t, delta.ShouldContinue)
}

func TestExecutionStepDryRunStatuses(t *testing.T) {
	client := broker.NewDryRunClient(map[string]float64{"005930": 100}, 10_000_000)
	step := &ExecutionStep{Engine: execution.NewEngine(client, nil, 1)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{DryRun: true})
	view.ApprovedTrades = []types.StrategyCandidate{sizedCandidate("005930", 10_000, 100)}

	delta := step.Run(context.Background(), view)

	require.Len(t, delta.PendingOrders, 1)
	assert.Equal(t, types.OrderDryRun, delta.PendingOrders[0].Status)
	assert.Zero(t, delta.PendingOrders[0].SlippageBps)
}

func TestExecutionStepSkipsUnsizedCandidates(t *testing.T) {
	client := broker.NewDryRunClient(map[string]float64{"005930": 100}, 10_000_000)
	step := &ExecutionStep{Engine: execution.NewEngine(client, nil, 1)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.ApprovedTrades = []types.StrategyCandidate{{StockCode: "005930"}}

	delta := step.Run(context.Background(), view)

	assert.Empty(t, delta.PendingOrders)
}
