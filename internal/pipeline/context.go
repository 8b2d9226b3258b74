package pipeline

import (
	"time"

	"github.com/cho-y-j/able-sub001/internal/approval"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// ApprovalState tracks the human checkpoint across the halt boundary.
// Pending means the invocation stopped and an external decision must
// re-invoke the pipeline; Decision carries that verdict back in.
type ApprovalState struct {
	Pending  bool                    `json:"pending"`
	Decision approval.Decision       `json:"decision,omitempty"`
	Requests []types.ApprovalRequest `json:"requests,omitempty"`
}

// ExecutionConfig is the per-session execution policy, fixed at session
// start and never modified by steps.
type ExecutionConfig struct {
	DryRun            bool                    `json:"dry_run"`
	StrategyOverride  types.ExecutionStrategy `json:"strategy_override,omitempty"`
	SliceInterval     time.Duration           `json:"slice_interval,omitempty"`
	HITLEnabled       bool                    `json:"hitl_enabled"`
	ApprovalThreshold float64                 `json:"approval_threshold,omitempty"`
	MaxDrawdown       float64                 `json:"max_drawdown,omitempty"` // 0 keeps the risk default
}

// Context is the blackboard value threaded through every pipeline step.
// The orchestrator exclusively owns the canonical Context; steps receive a
// copy and return a Delta, never mutating the canonical value directly.
type Context struct {
	SessionID        string                    `json:"session_id"`
	UserID           string                    `json:"user_id"`
	Watchlist        []string                  `json:"watchlist,omitempty"`
	HasActiveRecipes bool                      `json:"has_active_recipes"`
	MarketRegime     *types.MarketRegime       `json:"market_regime,omitempty"`
	Candidates       []types.StrategyCandidate `json:"candidates,omitempty"`
	RiskAssessment   *types.RiskAssessment     `json:"risk_assessment,omitempty"`
	ApprovedTrades   []types.StrategyCandidate `json:"approved_trades,omitempty"`
	PendingOrders    []types.ExecutionResult   `json:"pending_orders,omitempty"`
	ExecutedOrders   []types.ExecutionResult   `json:"executed_orders,omitempty"`
	Portfolio        *types.PortfolioSnapshot  `json:"portfolio,omitempty"`
	PeakBalance      float64                   `json:"peak_balance,omitempty"`
	Alerts           []types.Alert             `json:"alerts,omitempty"`
	Messages         []string                  `json:"messages,omitempty"`
	Approval         ApprovalState             `json:"approval"`
	Execution        ExecutionConfig           `json:"execution"`
	SlippageReport   *types.SlippageReport     `json:"slippage_report,omitempty"`
	IterationCount   int                       `json:"iteration_count"`
	ShouldContinue   bool                      `json:"should_continue"`
	ErrorState       string                    `json:"error_state,omitempty"`
}

// NewContext seeds a blackboard for a fresh session.
func NewContext(sessionID, userID string, watchlist []string, cfg ExecutionConfig) Context {
	return Context{
		SessionID:      sessionID,
		UserID:         userID,
		Watchlist:      watchlist,
		Execution:      cfg,
		ShouldContinue: true,
	}
}

// Delta is the result of one step run. Nil pointers leave the field
// untouched; list fields are appended unless the step sets the matching
// replace flag. The orchestrator is the only component that applies deltas.
type Delta struct {
	Regime    *types.MarketRegime
	Portfolio *types.PortfolioSnapshot

	Candidates    []types.StrategyCandidate
	SetCandidates bool // replace instead of keeping the old list

	Assessment     *types.RiskAssessment
	ApprovedTrades []types.StrategyCandidate
	SetApproved    bool

	PendingOrders    []types.ExecutionResult
	ReplacePending   bool // Monitor rewrites the whole pending list
	ExecutedOrders   []types.ExecutionResult
	Alerts           []types.Alert
	Messages         []string
	Approval         *ApprovalState
	SlippageReport   *types.SlippageReport
	ShouldContinue   *bool
	HasActiveRecipes *bool
	ErrorState       string
}

// Apply merges a step delta into the canonical context. Scalars replace,
// lists append, and the replace flags let a step rewrite a list it owns.
func (c *Context) Apply(d Delta) {
	if d.Regime != nil {
		c.MarketRegime = d.Regime
	}
	if d.Portfolio != nil {
		c.Portfolio = d.Portfolio
		if d.Portfolio.TotalBalance > c.PeakBalance {
			c.PeakBalance = d.Portfolio.TotalBalance
		}
	}
	if d.SetCandidates {
		c.Candidates = d.Candidates
	}
	if d.Assessment != nil {
		c.RiskAssessment = d.Assessment
	}
	if d.SetApproved {
		c.ApprovedTrades = d.ApprovedTrades
	}
	if d.ReplacePending {
		c.PendingOrders = d.PendingOrders
	} else {
		c.PendingOrders = append(c.PendingOrders, d.PendingOrders...)
	}
	c.ExecutedOrders = append(c.ExecutedOrders, d.ExecutedOrders...)
	c.Alerts = append(c.Alerts, d.Alerts...)
	c.Messages = append(c.Messages, d.Messages...)
	if d.Approval != nil {
		c.Approval = *d.Approval
	}
	if d.SlippageReport != nil {
		c.SlippageReport = d.SlippageReport
	}
	if d.ShouldContinue != nil {
		c.ShouldContinue = *d.ShouldContinue
	}
	if d.HasActiveRecipes != nil {
		c.HasActiveRecipes = *d.HasActiveRecipes
	}
	if d.ErrorState != "" {
		c.ErrorState = d.ErrorState
	}
}

// NewAlert builds one timestamped pipeline alert.
func NewAlert(level types.AlertLevel, source, message string) types.Alert {
	return types.Alert{
		Level:     level,
		Message:   message,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// BoolPtr is a delta helper for optional scalar fields.
func BoolPtr(v bool) *bool { return &v }

// nowFunc is swapped out by tests that pin timestamps.
var nowFunc = time.Now
