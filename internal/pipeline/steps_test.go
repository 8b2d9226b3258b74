package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cho-y-j/able-sub001/internal/approval"
	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/internal/risk"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

type stubAnalysis struct {
	regime *types.MarketRegime
	err    error
}

func (s *stubAnalysis) Analyze(context.Context, []string) (*types.MarketRegime, error) {
	return s.regime, s.err
}

type stubCandidates struct {
	candidates []types.StrategyCandidate
	err        error
}

func (s *stubCandidates) Candidates(context.Context, string, []string) ([]types.StrategyCandidate, error) {
	return s.candidates, s.err
}

func sizedCandidate(code string, value float64, shares int64) types.StrategyCandidate {
	return types.StrategyCandidate{
		StockCode: code,
		PositionSizing: &types.PositionSizing{
			Shares:        shares,
			PositionValue: value,
		},
	}
}

func TestMarketAnalysisStep(t *testing.T) {
	client := broker.NewDryRunClient(nil, 10_000_000)
	step := &MarketAnalysisStep{
		Provider: &stubAnalysis{regime: &types.MarketRegime{Classification: types.RegimeBull, Confidence: 0.8}},
		Broker:   client,
	}

	view := NewContext("s1", "u1", []string{"005930"}, ExecutionConfig{})
	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Regime)
	assert.Equal(t, types.RegimeBull, delta.Regime.Classification)
	require.NotNil(t, delta.Portfolio)
	assert.InDelta(t, 10_000_000.0, delta.Portfolio.TotalBalance, 1e-9)
	assert.NotEmpty(t, delta.Messages)
	assert.Empty(t, delta.ErrorState)
}

func TestMarketAnalysisStepDegradesToUnknown(t *testing.T) {
	step := &MarketAnalysisStep{
		Provider: &stubAnalysis{err: errors.New("upstream down")},
		Broker:   broker.NewDryRunClient(nil, 1_000_000),
	}

	delta := step.Run(context.Background(), NewContext("s1", "u1", nil, ExecutionConfig{}))

	require.NotNil(t, delta.Regime)
	assert.Equal(t, types.RegimeUnknown, delta.Regime.Classification)
	assert.NotEmpty(t, delta.Alerts)
	assert.Empty(t, delta.ErrorState)
}

func TestStrategySearchReplacesCandidates(t *testing.T) {
	step := &StrategySearchStep{Source: &stubCandidates{
		candidates: []types.StrategyCandidate{{StockCode: "005930"}, {StockCode: "000660"}},
	}}

	delta := step.Run(context.Background(), NewContext("s1", "u1", nil, ExecutionConfig{}))

	assert.True(t, delta.SetCandidates)
	assert.Len(t, delta.Candidates, 2)
}

func TestStrategySearchKeepsOldListOnFailure(t *testing.T) {
	step := &StrategySearchStep{Source: &stubCandidates{err: errors.New("search offline")}}

	delta := step.Run(context.Background(), NewContext("s1", "u1", nil, ExecutionConfig{}))

	assert.False(t, delta.SetCandidates)
	assert.NotEmpty(t, delta.Alerts)
}

func TestRiskAssessmentStep(t *testing.T) {
	step := &RiskAssessmentStep{Manager: risk.NewManager(nil)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{})
	view.MarketRegime = &types.MarketRegime{Classification: types.RegimeBull}
	view.Portfolio = &types.PortfolioSnapshot{TotalBalance: 10_000_000}
	view.Candidates = []types.StrategyCandidate{{
		StockCode:      "005930",
		CompositeScore: 80,
		LastPrice:      100,
		BacktestMetrics: &types.BacktestMetrics{
			WinRate: 0.6, AvgWin: 0.1, AvgLoss: 0.05,
		},
	}}

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Assessment)
	assert.Equal(t, []string{"005930"}, delta.Assessment.ApprovedTrades)
	assert.True(t, delta.SetApproved)
	require.Len(t, delta.ApprovedTrades, 1)
	assert.NotNil(t, delta.ApprovedTrades[0].PositionSizing)
}

func TestRiskAssessmentStepRequiresPortfolio(t *testing.T) {
	step := &RiskAssessmentStep{Manager: risk.NewManager(nil)}

	delta := step.Run(context.Background(), NewContext("s1", "u1", nil, ExecutionConfig{}))

	assert.NotEmpty(t, delta.ErrorState)
}

func TestHumanApprovalRaisesPending(t *testing.T) {
	step := &HumanApprovalStep{Gate: approval.NewGate(5_000_000)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{HITLEnabled: true})
	view.ApprovedTrades = []types.StrategyCandidate{sizedCandidate("005930", 6_000_000, 60)}

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Approval)
	assert.True(t, delta.Approval.Pending)
	require.Len(t, delta.Approval.Requests, 1)
	assert.Equal(t, "005930", delta.Approval.Requests[0].StockCode)
	assert.InDelta(t, 6_000_000.0, delta.Approval.Requests[0].PositionValue, 1e-9)
}

func TestHumanApprovalBelowThresholdProceeds(t *testing.T) {
	step := &HumanApprovalStep{Gate: approval.NewGate(5_000_000)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{HITLEnabled: true})
	view.ApprovedTrades = []types.StrategyCandidate{sizedCandidate("005930", 1_000_000, 10)}

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Approval)
	assert.False(t, delta.Approval.Pending)
	assert.Empty(t, delta.Approval.Requests)
}

func TestHumanApprovalCrisisLowersThreshold(t *testing.T) {
	step := &HumanApprovalStep{Gate: approval.NewGate(5_000_000)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{HITLEnabled: true})
	view.MarketRegime = &types.MarketRegime{Classification: types.RegimeCrisis}
	view.ApprovedTrades = []types.StrategyCandidate{sizedCandidate("005930", 3_000_000, 30)}

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Approval)
	assert.True(t, delta.Approval.Pending)
}

func TestHumanApprovalAppliesRejection(t *testing.T) {
	step := &HumanApprovalStep{Gate: approval.NewGate(5_000_000)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{HITLEnabled: true})
	view.ApprovedTrades = []types.StrategyCandidate{sizedCandidate("005930", 6_000_000, 60)}
	view.RiskAssessment = &types.RiskAssessment{
		ApprovedTrades: []string{"005930"},
		RejectedTrades: []string{},
	}
	view.Approval = ApprovalState{Decision: approval.DecisionRejected}

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Approval)
	assert.False(t, delta.Approval.Pending)
	assert.Equal(t, approval.DecisionNone, delta.Approval.Decision)
	assert.True(t, delta.SetApproved)
	assert.Empty(t, delta.ApprovedTrades)
	require.NotNil(t, delta.Assessment)
	assert.Empty(t, delta.Assessment.ApprovedTrades)
	assert.Contains(t, delta.Assessment.RejectedTrades, "005930")
	assert.NotEmpty(t, delta.Assessment.Warnings)
}

func TestHumanApprovalAppliesApproval(t *testing.T) {
	step := &HumanApprovalStep{Gate: approval.NewGate(5_000_000)}

	view := NewContext("s1", "u1", nil, ExecutionConfig{HITLEnabled: true})
	view.ApprovedTrades = []types.StrategyCandidate{sizedCandidate("005930", 6_000_000, 60)}
	view.Approval = ApprovalState{Decision: approval.DecisionApproved}

	delta := step.Run(context.Background(), view)

	require.NotNil(t, delta.Approval)
	assert.False(t, delta.Approval.Pending)
	// Approval clears nothing: the approved set is untouched.
	assert.False(t, delta.SetApproved)
}
