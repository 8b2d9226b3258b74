package types

import "time"

// RegimeClassification is the coarse market-condition label produced by the
// upstream market analysis and consumed by sizing and approval thresholds.
type RegimeClassification string

const (
	RegimeBull     RegimeClassification = "bull"
	RegimeBear     RegimeClassification = "bear"
	RegimeSideways RegimeClassification = "sideways"
	RegimeVolatile RegimeClassification = "volatile"
	RegimeCrisis   RegimeClassification = "crisis"
	RegimeUnknown  RegimeClassification = "unknown"
)

// MarketRegime is the opaque result of the external market analysis step.
type MarketRegime struct {
	Classification RegimeClassification `json:"classification"`
	Confidence     float64              `json:"confidence"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
}

// IsCrisis reports whether the classified regime is a crisis regime.
func (m *MarketRegime) IsCrisis() bool {
	return m != nil && m.Classification == RegimeCrisis
}

// BacktestMetrics carries the backtest statistics attached to a candidate by
// the upstream strategy search. Win/loss magnitudes feed the Kelly sizing.
type BacktestMetrics struct {
	WinRate     float64 `json:"win_rate"`
	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"`
	TotalTrades int     `json:"total_trades"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// PositionSizing is the sizing decision produced by the risk pass for an
// approved candidate.
type PositionSizing struct {
	Shares        int64   `json:"shares"`
	PositionValue float64 `json:"position_value"`
	KellyAdjusted float64 `json:"kelly_adjusted"` // final capital fraction after all multipliers
}

// StrategyCandidate is one stock/strategy pair proposed by the upstream
// candidate producer. PositionSizing is nil until the risk pass approves it.
type StrategyCandidate struct {
	StockCode       string             `json:"stock_code"`
	StrategyName    string             `json:"strategy_name"`
	Parameters      map[string]float64 `json:"parameters,omitempty"`
	BacktestMetrics *BacktestMetrics   `json:"backtest_metrics,omitempty"`
	CompositeScore  float64            `json:"composite_score"`
	LastPrice       float64            `json:"last_price"`
	PositionSizing  *PositionSizing    `json:"position_sizing,omitempty"`
}

// DailyLossStatus summarizes where the session sits against its daily loss limit.
type DailyLossStatus string

const (
	DailyLossOK      DailyLossStatus = "ok"
	DailyLossWarning DailyLossStatus = "warning"
	DailyLossHalt    DailyLossStatus = "halt"
)

// DrawdownMode is the risk state derived from cumulative loss from peak.
type DrawdownMode string

const (
	DrawdownNormal     DrawdownMode = "normal"
	DrawdownReduceSize DrawdownMode = "reduce_size"
	DrawdownHalt       DrawdownMode = "halt_trading"
)

// RiskAssessment is the output of one risk manager pass.
// ApprovedTrades and RejectedTrades are disjoint and both are subsets of the
// input candidate codes.
type RiskAssessment struct {
	MaxPositionSize     float64         `json:"max_position_size"`
	CurrentExposure     float64         `json:"current_exposure"`
	RiskBudgetRemaining float64         `json:"risk_budget_remaining"`
	ApprovedTrades      []string        `json:"approved_trades"`
	RejectedTrades      []string        `json:"rejected_trades"`
	Warnings            []string        `json:"warnings,omitempty"`
	DailyLossCheck      DailyLossStatus `json:"daily_loss_check"`
	DrawdownMode        DrawdownMode    `json:"drawdown_mode"`
	EvaluatedAt         time.Time       `json:"evaluated_at"`
}

// Position is an existing holding used for cross-strategy exposure checks.
type Position struct {
	StockCode string  `json:"stock_code"`
	Quantity  int64   `json:"quantity"`
	Value     float64 `json:"value"`
}

// PortfolioSnapshot is the account view the risk pass evaluates against.
type PortfolioSnapshot struct {
	TotalBalance    float64    `json:"total_balance"`
	TotalExposure   float64    `json:"total_exposure"`
	DailyPnL        float64    `json:"daily_pnl"`
	CurrentDrawdown float64    `json:"current_drawdown"`
	Positions       []Position `json:"positions,omitempty"`
	SyncedAt        time.Time  `json:"synced_at"`
}

// ApprovalRequest is the durable snapshot of a trade that tripped the
// human-approval threshold. It is created when the gate triggers and cleared
// when the external decision arrives.
type ApprovalRequest struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	StockCode     string    `json:"stock_code"`
	PositionValue float64   `json:"position_value"`
	Shares        int64     `json:"shares"`
	CreatedAt     time.Time `json:"created_at"`
}

// AlertLevel classifies pipeline alerts for sinks that care about severity.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
	AlertSuccess AlertLevel = "success"
)

// Alert is one human-readable message raised by a pipeline step.
type Alert struct {
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	Source    string     `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
}
