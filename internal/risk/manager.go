package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Composite scores below this reject a candidate when backtest metrics exist.
const minCompositeScore = 40.0

// Manager runs the risk pass over one cycle's candidates. Candidates are
// evaluated strictly in input order because every acceptance updates the
// running exposure consumed by the next decision; the pass must never be
// parallelized.
type Manager struct {
	MaxDrawdown       float64
	DailyLossWarnFrac float64
	logger            *logger.Logger
}

// NewManager creates a risk manager with the default drawdown ceiling.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Manager{
		MaxDrawdown:       DefaultMaxDrawdown,
		DailyLossWarnFrac: 0.8,
		logger:            log,
	}
}

// Input is everything one risk pass evaluates.
type Input struct {
	Candidates []types.StrategyCandidate
	Regime     *types.MarketRegime
	Portfolio  types.PortfolioSnapshot
}

// Result pairs the assessment with the approved candidates carrying their
// sizing. Approved and rejected code sets are disjoint.
type Result struct {
	Assessment types.RiskAssessment
	Approved   []types.StrategyCandidate
}

// Evaluate runs one deterministic, sequential risk pass.
func (m *Manager) Evaluate(in Input) Result {
	capital := in.Portfolio.TotalBalance
	crisis := in.Regime.IsCrisis()
	limits := NewLimits(capital, crisis)

	assessment := types.RiskAssessment{
		MaxPositionSize: limits.MaxSinglePosition(),
		CurrentExposure: in.Portfolio.TotalExposure,
		ApprovedTrades:  []string{},
		RejectedTrades:  []string{},
		DailyLossCheck:  types.DailyLossOK,
		EvaluatedAt:     time.Now(),
	}

	scale, mode := DrawdownScale(in.Portfolio.CurrentDrawdown, m.MaxDrawdown)
	assessment.DrawdownMode = mode
	if mode == types.DrawdownHalt {
		m.logger.Warning("Drawdown %.1f%% at or above maximum %.1f%% - halting trading",
			in.Portfolio.CurrentDrawdown*100, m.MaxDrawdown*100)
		return m.rejectAll(in, assessment,
			fmt.Sprintf("drawdown %.1f%% exceeds maximum allowed %.1f%%",
				in.Portfolio.CurrentDrawdown*100, m.MaxDrawdown*100))
	}

	loss := -in.Portfolio.DailyPnL
	switch {
	case loss >= limits.MaxDailyLoss():
		assessment.DailyLossCheck = types.DailyLossHalt
		return m.rejectAll(in, assessment,
			fmt.Sprintf("daily loss %.0f reached limit %.0f", loss, limits.MaxDailyLoss()))
	case loss >= limits.MaxDailyLoss()*m.DailyLossWarnFrac:
		assessment.DailyLossCheck = types.DailyLossWarning
		assessment.Warnings = append(assessment.Warnings,
			fmt.Sprintf("daily loss %.0f is within %.0f%% of the limit %.0f",
				loss, m.DailyLossWarnFrac*100, limits.MaxDailyLoss()))
	}

	held := make(map[string]bool, len(in.Portfolio.Positions))
	for _, pos := range in.Portfolio.Positions {
		held[pos.StockCode] = true
	}

	var approved []types.StrategyCandidate
	exposure := in.Portfolio.TotalExposure

	for _, candidate := range in.Candidates {
		if candidate.BacktestMetrics != nil && candidate.CompositeScore < minCompositeScore {
			m.reject(&assessment, candidate.StockCode,
				fmt.Sprintf("composite score %.0f below minimum %.0f", candidate.CompositeScore, minCompositeScore))
			continue
		}

		if held[candidate.StockCode] {
			assessment.Warnings = append(assessment.Warnings,
				fmt.Sprintf("%s: existing position, sizing adds to current exposure", candidate.StockCode))
		}

		var metrics types.BacktestMetrics
		if candidate.BacktestMetrics != nil {
			metrics = *candidate.BacktestMetrics
		}

		regime := types.RegimeUnknown
		if in.Regime != nil {
			regime = in.Regime.Classification
		}

		sizing := SizePosition(capital, metrics, regime, scale, candidate.LastPrice)
		if sizing.Shares <= 0 {
			m.reject(&assessment, candidate.StockCode, "calculated 0 shares")
			continue
		}

		check := limits.CheckOrder(sizing.PositionValue, exposure, in.Portfolio.DailyPnL)
		if !check.Approved {
			m.reject(&assessment, candidate.StockCode, check.Reason)
			continue
		}
		if check.CappedValue < sizing.PositionValue {
			sizing.Shares = int64(math.Floor(check.CappedValue / candidate.LastPrice))
			sizing.PositionValue = float64(sizing.Shares) * candidate.LastPrice
			if sizing.Shares <= 0 {
				m.reject(&assessment, candidate.StockCode, "calculated 0 shares")
				continue
			}
		}

		exposure += sizing.PositionValue
		sized := candidate
		sized.PositionSizing = &sizing
		approved = append(approved, sized)
		assessment.ApprovedTrades = append(assessment.ApprovedTrades, candidate.StockCode)

		m.logger.Info("Approved %s: %d shares, value %.0f (fraction %.4f)",
			candidate.StockCode, sizing.Shares, sizing.PositionValue, sizing.KellyAdjusted)
	}

	assessment.CurrentExposure = exposure
	assessment.RiskBudgetRemaining = math.Max(0, limits.MaxTotalExposure()-exposure)

	return Result{Assessment: assessment, Approved: approved}
}

func (m *Manager) reject(assessment *types.RiskAssessment, code, reason string) {
	assessment.RejectedTrades = append(assessment.RejectedTrades, code)
	assessment.Warnings = append(assessment.Warnings, fmt.Sprintf("%s rejected: %s", code, reason))
	m.logger.Info("Rejected %s: %s", code, reason)
}

// rejectAll rejects every candidate with the same session-level reason and
// zeroes the remaining budget.
func (m *Manager) rejectAll(in Input, assessment types.RiskAssessment, reason string) Result {
	for _, candidate := range in.Candidates {
		assessment.RejectedTrades = append(assessment.RejectedTrades, candidate.StockCode)
	}
	assessment.Warnings = append(assessment.Warnings, reason)
	assessment.RiskBudgetRemaining = 0
	return Result{Assessment: assessment}
}
