package pipeline

import (
	"context"
	"fmt"

	"github.com/cho-y-j/able-sub001/internal/approval"
	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/internal/execution"
	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/internal/monitoring"
	"github.com/cho-y-j/able-sub001/internal/risk"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Step is one pipeline node. Run receives a read view of the blackboard and
// returns a delta; it must not retain or mutate the view. Failures are
// expressed through the delta's Alerts/ErrorState, never through a panic or
// an error return, so the orchestrator stays a pure router.
type Step interface {
	Name() string
	Run(ctx context.Context, view Context) Delta
}

// MarketAnalysisProvider is the opaque upstream producer of regime labels.
type MarketAnalysisProvider interface {
	Analyze(ctx context.Context, watchlist []string) (*types.MarketRegime, error)
}

// CandidateSource produces strategy candidates for a user. Strategy search
// and recipe evaluation are different sources with the same shape.
type CandidateSource interface {
	Candidates(ctx context.Context, userID string, watchlist []string) ([]types.StrategyCandidate, error)
}

// MarketAnalysisStep asks the upstream producer for a regime label and syncs
// the portfolio snapshot from the broker. A failed analysis degrades to the
// unknown regime; a failed balance sync keeps the previous snapshot.
type MarketAnalysisStep struct {
	Provider MarketAnalysisProvider
	Broker   broker.Client
	Log      *logger.Logger
}

func (s *MarketAnalysisStep) Name() string { return "market_analysis" }

func (s *MarketAnalysisStep) Run(ctx context.Context, view Context) Delta {
	var delta Delta

	regime := &types.MarketRegime{Classification: types.RegimeUnknown}
	if s.Provider != nil {
		r, err := s.Provider.Analyze(ctx, view.Watchlist)
		if err != nil {
			delta.Alerts = append(delta.Alerts,
				NewAlert(types.AlertWarning, s.Name(), fmt.Sprintf("market analysis failed, assuming unknown regime: %v", err)))
		} else if r != nil {
			regime = r
		}
	}
	delta.Regime = regime

	if snapshot := s.syncPortfolio(ctx, view); snapshot != nil {
		delta.Portfolio = snapshot
	} else if view.Portfolio == nil {
		delta.ErrorState = "portfolio snapshot unavailable and no previous snapshot exists"
		delta.Messages = append(delta.Messages, "market analysis: no portfolio snapshot, session cannot size positions")
		return delta
	}

	delta.Messages = append(delta.Messages,
		fmt.Sprintf("market analysis: regime=%s confidence=%.2f", regime.Classification, regime.Confidence))
	return delta
}

// syncPortfolio refreshes the account snapshot from the broker. Drawdown is
// measured against the session's peak balance.
func (s *MarketAnalysisStep) syncPortfolio(ctx context.Context, view Context) *types.PortfolioSnapshot {
	if s.Broker == nil {
		return nil
	}
	balance, err := s.Broker.GetBalance(ctx)
	if err != nil {
		monitoring.SetBrokerHealthy(false)
		if s.Log != nil {
			s.Log.Warning("balance sync failed: %v", err)
		}
		return nil
	}
	monitoring.SetBrokerHealthy(true)

	snapshot := &types.PortfolioSnapshot{
		TotalBalance: balance.TotalBalance,
		DailyPnL:     balance.DailyPnL,
		SyncedAt:     nowFunc(),
	}
	if view.Portfolio != nil {
		snapshot.TotalExposure = view.Portfolio.TotalExposure
		snapshot.Positions = view.Portfolio.Positions
	}

	peak := view.PeakBalance
	if balance.TotalBalance > peak {
		peak = balance.TotalBalance
	}
	if peak > 0 && balance.TotalBalance < peak {
		snapshot.CurrentDrawdown = (peak - balance.TotalBalance) / peak
	}

	monitoring.UpdatePortfolio(snapshot.TotalExposure, snapshot.CurrentDrawdown, snapshot.TotalBalance)
	return snapshot
}

// StrategySearchStep pulls fresh candidates from the search source,
// replacing the previous cycle's list.
type StrategySearchStep struct {
	Source CandidateSource
}

func (s *StrategySearchStep) Name() string { return "strategy_search" }

func (s *StrategySearchStep) Run(ctx context.Context, view Context) Delta {
	return fetchCandidates(ctx, s.Name(), s.Source, view)
}

// RecipeEvaluationStep pulls candidates from the user's saved recipes
// instead of the open search.
type RecipeEvaluationStep struct {
	Source CandidateSource
}

func (s *RecipeEvaluationStep) Name() string { return "recipe_evaluation" }

func (s *RecipeEvaluationStep) Run(ctx context.Context, view Context) Delta {
	return fetchCandidates(ctx, s.Name(), s.Source, view)
}

func fetchCandidates(ctx context.Context, stepName string, source CandidateSource, view Context) Delta {
	var delta Delta
	delta.SetCandidates = true

	if source == nil {
		delta.Messages = append(delta.Messages, fmt.Sprintf("%s: no candidate source configured", stepName))
		return delta
	}

	candidates, err := source.Candidates(ctx, view.UserID, view.Watchlist)
	if err != nil {
		delta.SetCandidates = false
		delta.Alerts = append(delta.Alerts,
			NewAlert(types.AlertWarning, stepName, fmt.Sprintf("candidate fetch failed: %v", err)))
		delta.Messages = append(delta.Messages, fmt.Sprintf("%s: candidate fetch failed, keeping previous list", stepName))
		return delta
	}

	delta.Candidates = candidates
	delta.Messages = append(delta.Messages, fmt.Sprintf("%s: %d candidate(s)", stepName, len(candidates)))
	return delta
}

// RiskAssessmentStep runs the sequential risk pass and attaches sizing to
// the approved candidates.
type RiskAssessmentStep struct {
	Manager *risk.Manager
}

func (s *RiskAssessmentStep) Name() string { return "risk_assessment" }

func (s *RiskAssessmentStep) Run(_ context.Context, view Context) Delta {
	var delta Delta

	if view.Portfolio == nil {
		delta.ErrorState = "risk assessment requires a portfolio snapshot"
		delta.Messages = append(delta.Messages, "risk assessment: no portfolio snapshot")
		return delta
	}

	result := s.Manager.Evaluate(risk.Input{
		Candidates: view.Candidates,
		Regime:     view.MarketRegime,
		Portfolio:  *view.Portfolio,
	})

	delta.Assessment = &result.Assessment
	delta.ApprovedTrades = result.Approved
	delta.SetApproved = true

	for range result.Assessment.ApprovedTrades {
		monitoring.RecordRiskDecision("approved")
	}
	for range result.Assessment.RejectedTrades {
		monitoring.RecordRiskDecision("rejected")
	}
	for _, warning := range result.Assessment.Warnings {
		delta.Alerts = append(delta.Alerts, NewAlert(types.AlertWarning, s.Name(), warning))
	}

	delta.Messages = append(delta.Messages, fmt.Sprintf(
		"risk assessment: %d approved, %d rejected, exposure %.0f, budget %.0f",
		len(result.Assessment.ApprovedTrades), len(result.Assessment.RejectedTrades),
		result.Assessment.CurrentExposure, result.Assessment.RiskBudgetRemaining))
	return delta
}

// HumanApprovalStep runs the HITL gate. On a fresh pass it raises pending
// requests when any approved trade trips the threshold; on a resumed pass it
// applies the external decision and clears the pending state.
type HumanApprovalStep struct {
	Gate *approval.Gate
}

func (s *HumanApprovalStep) Name() string { return "human_approval" }

func (s *HumanApprovalStep) Run(_ context.Context, view Context) Delta {
	var delta Delta

	if view.Approval.Decision != approval.DecisionNone {
		return s.applyDecision(view)
	}

	crisis := view.MarketRegime.IsCrisis()
	requests := s.Gate.Evaluate(view.SessionID, view.ApprovedTrades, crisis)
	if len(requests) == 0 {
		delta.Approval = &ApprovalState{}
		delta.Messages = append(delta.Messages, "human approval: no trade meets the threshold, proceeding")
		return delta
	}

	delta.Approval = &ApprovalState{Pending: true, Requests: requests}
	delta.Alerts = append(delta.Alerts, NewAlert(types.AlertWarning, s.Name(),
		fmt.Sprintf("%d trade(s) await human approval (threshold %.0f)",
			len(requests), s.Gate.EffectiveThreshold(crisis))))
	delta.Messages = append(delta.Messages,
		fmt.Sprintf("human approval: pending on %d request(s), pipeline halting", len(requests)))
	monitoring.UpdatePendingApprovals(len(requests))
	return delta
}

func (s *HumanApprovalStep) applyDecision(view Context) Delta {
	var delta Delta
	delta.Approval = &ApprovalState{}
	monitoring.UpdatePendingApprovals(0)

	switch view.Approval.Decision {
	case approval.DecisionApproved:
		delta.Messages = append(delta.Messages,
			fmt.Sprintf("human approval: approved, %d trade(s) proceed", len(view.ApprovedTrades)))
		delta.Alerts = append(delta.Alerts,
			NewAlert(types.AlertSuccess, s.Name(), "pending trades approved by operator"))
	case approval.DecisionRejected:
		assessment := view.RiskAssessment
		if assessment != nil {
			copied := *assessment
			approval.ApplyRejection(&copied)
			delta.Assessment = &copied
			for _, warning := range copied.Warnings[len(assessment.Warnings):] {
				delta.Alerts = append(delta.Alerts, NewAlert(types.AlertWarning, s.Name(), warning))
			}
		}
		delta.ApprovedTrades = nil
		delta.SetApproved = true
		delta.Messages = append(delta.Messages, "human approval: rejected, approved set cleared")
	}
	return delta
}

// ExecutionStep works every approved trade through the execution engine.
// Per-order failures are contained; sibling orders still execute.
type ExecutionStep struct {
	Engine *execution.Engine
}

func (s *ExecutionStep) Name() string { return "execution" }

func (s *ExecutionStep) Run(ctx context.Context, view Context) Delta {
	var delta Delta

	if len(view.ApprovedTrades) == 0 {
		delta.Messages = append(delta.Messages, "execution: nothing to execute")
		return delta
	}

	var failed int
	for _, candidate := range view.ApprovedTrades {
		if candidate.PositionSizing == nil || candidate.PositionSizing.Shares <= 0 {
			continue
		}

		result := s.Engine.Execute(ctx, types.OrderIntent{
			StockCode:     candidate.StockCode,
			Side:          types.SideBuy,
			Quantity:      candidate.PositionSizing.Shares,
			Strategy:      view.Execution.StrategyOverride,
			ExpectedPrice: candidate.LastPrice,
		})
		delta.PendingOrders = append(delta.PendingOrders, result)

		if result.Status == types.OrderFailed {
			failed++
			delta.Alerts = append(delta.Alerts, NewAlert(types.AlertError, s.Name(),
				fmt.Sprintf("order for %s failed: %s", result.StockCode, result.ErrorMessage)))
		}
	}

	delta.Messages = append(delta.Messages,
		fmt.Sprintf("execution: %d order(s) placed, %d failed", len(delta.PendingOrders), failed))
	return delta
}
