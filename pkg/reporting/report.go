package reporting

import (
	"time"

	"github.com/cho-y-j/able-sub001/internal/session"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// SessionReport is the flattened end-of-invocation view the console and
// Excel writers render.
type SessionReport struct {
	SessionID  string
	UserID     string
	Status     session.Status
	Iterations int
	StartedAt  time.Time
	EndedAt    *time.Time

	Regime     *types.MarketRegime
	Assessment *types.RiskAssessment
	Executed   []types.ExecutionResult
	Pending    []types.ExecutionResult
	Approvals  []types.ApprovalRequest
	Slippage   *types.SlippageReport
	Alerts     []types.Alert
	Messages   []string
}

// BuildReport flattens one persisted session record.
func BuildReport(record *session.Record) *SessionReport {
	if record == nil {
		return &SessionReport{}
	}
	return &SessionReport{
		SessionID:  record.Session.ID,
		UserID:     record.Session.UserID,
		Status:     record.Session.Status,
		Iterations: record.Session.IterationCount,
		StartedAt:  record.Session.StartedAt,
		EndedAt:    record.Session.EndedAt,
		Regime:     record.Context.MarketRegime,
		Assessment: record.Context.RiskAssessment,
		Executed:   record.Context.ExecutedOrders,
		Pending:    record.Context.PendingOrders,
		Approvals:  record.PendingApprovals,
		Slippage:   record.Context.SlippageReport,
		Alerts:     record.Context.Alerts,
		Messages:   record.Context.Messages,
	}
}
