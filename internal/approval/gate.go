package approval

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Approval thresholds in currency units. A crisis regime forces the
// effective threshold down regardless of session configuration.
const (
	DefaultThreshold = 5_000_000.0
	CrisisThreshold  = 2_000_000.0
)

// Decision is the external actor's verdict on a pending approval.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Gate decides whether an approved trade set needs a human checkpoint.
// The gate itself is stateless across the halt boundary: pending requests
// are persisted with the paused context and the pipeline stops running
// until an external decision re-invokes it.
type Gate struct {
	Threshold float64
}

// NewGate creates a gate with the configured threshold, falling back to the
// default when unset.
func NewGate(threshold float64) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{Threshold: threshold}
}

// EffectiveThreshold resolves the threshold for the current regime.
func (g *Gate) EffectiveThreshold(crisis bool) float64 {
	if crisis && CrisisThreshold < g.Threshold {
		return CrisisThreshold
	}
	return g.Threshold
}

// Evaluate returns one ApprovalRequest per approved trade whose position
// value meets the effective threshold. An empty result means no human
// checkpoint is needed.
func (g *Gate) Evaluate(sessionID string, approved []types.StrategyCandidate, crisis bool) []types.ApprovalRequest {
	threshold := g.EffectiveThreshold(crisis)

	var requests []types.ApprovalRequest
	for _, candidate := range approved {
		if candidate.PositionSizing == nil {
			continue
		}
		if candidate.PositionSizing.PositionValue >= threshold {
			requests = append(requests, types.ApprovalRequest{
				ID:            uuid.NewString(),
				SessionID:     sessionID,
				StockCode:     candidate.StockCode,
				PositionValue: candidate.PositionSizing.PositionValue,
				Shares:        candidate.PositionSizing.Shares,
				CreatedAt:     time.Now(),
			})
		}
	}
	return requests
}

// ApplyRejection clears the entire approved set into the rejected set and
// records a warning. The gate never partially approves: one rejection
// covers every trade of the pass.
func ApplyRejection(assessment *types.RiskAssessment) {
	if assessment == nil || len(assessment.ApprovedTrades) == 0 {
		return
	}
	assessment.RejectedTrades = append(assessment.RejectedTrades, assessment.ApprovedTrades...)
	assessment.Warnings = append(assessment.Warnings,
		fmt.Sprintf("human approval rejected: %d trade(s) cancelled", len(assessment.ApprovedTrades)))
	assessment.ApprovedTrades = []string{}
}
