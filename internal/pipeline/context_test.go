package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

func TestApplyReplacesScalars(t *testing.T) {
	ctx := NewContext("s1", "u1", []string{"005930"}, ExecutionConfig{})

	regime := &types.MarketRegime{Classification: types.RegimeBull, Confidence: 0.9}
	ctx.Apply(Delta{Regime: regime})
	assert.Equal(t, regime, ctx.MarketRegime)

	replacement := &types.MarketRegime{Classification: types.RegimeCrisis}
	ctx.Apply(Delta{Regime: replacement})
	assert.Equal(t, replacement, ctx.MarketRegime)
}

func TestApplyAppendsLists(t *testing.T) {
	ctx := NewContext("s1", "u1", nil, ExecutionConfig{})

	ctx.Apply(Delta{
		Alerts:   []types.Alert{{Message: "first"}},
		Messages: []string{"m1"},
	})
	ctx.Apply(Delta{
		Alerts:   []types.Alert{{Message: "second"}},
		Messages: []string{"m2", "m3"},
	})

	assert.Len(t, ctx.Alerts, 2)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ctx.Messages)
}

func TestApplyCandidateReplacement(t *testing.T) {
	ctx := NewContext("s1", "u1", nil, ExecutionConfig{})
	ctx.Candidates = []types.StrategyCandidate{{StockCode: "old"}}

	// Without the flag the old list survives.
	ctx.Apply(Delta{Candidates: []types.StrategyCandidate{{StockCode: "ignored"}}})
	assert.Equal(t, "old", ctx.Candidates[0].StockCode)

	ctx.Apply(Delta{SetCandidates: true, Candidates: []types.StrategyCandidate{{StockCode: "new"}}})
	assert.Len(t, ctx.Candidates, 1)
	assert.Equal(t, "new", ctx.Candidates[0].StockCode)

	// A replace with an empty list clears it.
	ctx.Apply(Delta{SetCandidates: true})
	assert.Empty(t, ctx.Candidates)
}

func TestApplyPendingOrdersAppendAndReplace(t *testing.T) {
	ctx := NewContext("s1", "u1", nil, ExecutionConfig{})

	ctx.Apply(Delta{PendingOrders: []types.ExecutionResult{{StockCode: "a"}}})
	ctx.Apply(Delta{PendingOrders: []types.ExecutionResult{{StockCode: "b"}}})
	assert.Len(t, ctx.PendingOrders, 2)

	// Monitor rewrites the pending list wholesale.
	ctx.Apply(Delta{ReplacePending: true, PendingOrders: []types.ExecutionResult{{StockCode: "b"}}})
	assert.Len(t, ctx.PendingOrders, 1)
	assert.Equal(t, "b", ctx.PendingOrders[0].StockCode)
}

func TestApplyTracksPeakBalance(t *testing.T) {
	ctx := NewContext("s1", "u1", nil, ExecutionConfig{})

	ctx.Apply(Delta{Portfolio: &types.PortfolioSnapshot{TotalBalance: 100}})
	assert.InDelta(t, 100.0, ctx.PeakBalance, 1e-9)

	ctx.Apply(Delta{Portfolio: &types.PortfolioSnapshot{TotalBalance: 80}})
	assert.InDelta(t, 100.0, ctx.PeakBalance, 1e-9)

	ctx.Apply(Delta{Portfolio: &types.PortfolioSnapshot{TotalBalance: 120}})
	assert.InDelta(t, 120.0, ctx.PeakBalance, 1e-9)
}

func TestApplyScalarPointers(t *testing.T) {
	ctx := NewContext("s1", "u1", nil, ExecutionConfig{})
	assert.True(t, ctx.ShouldContinue)

	ctx.Apply(Delta{})
	assert.True(t, ctx.ShouldContinue)

	ctx.Apply(Delta{ShouldContinue: BoolPtr(false)})
	assert.False(t, ctx.ShouldContinue)

	ctx.Apply(Delta{ErrorState: "broker credentials rejected"})
	assert.Equal(t, "broker credentials rejected", ctx.ErrorState)
}
