package session

import (
	"time"

	"github.com/cho-y-j/able-sub001/internal/pipeline"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

// Status is the lifecycle state of one trading session.
type Status string

const (
	StatusActive          Status = "active"
	StatusPendingApproval Status = "pendingApproval"
	StatusStopped         Status = "stopped"
	StatusError           Status = "error"
)

// Session is one trading run. It is mutated only by the orchestrator and by
// the external approve/reject/stop actions.
type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Status         Status     `json:"status"`
	IterationCount int        `json:"iteration_count"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// Record is the durable unit the store persists: the session, its paused
// blackboard and any pending approval requests, written once per pipeline
// invocation.
type Record struct {
	Version          string                  `json:"version"`
	Session          Session                 `json:"session"`
	Context          pipeline.Context        `json:"context"`
	PendingApprovals []types.ApprovalRequest `json:"pending_approvals,omitempty"`
	LastUpdated      time.Time               `json:"last_updated"`
}

// Terminal reports whether the session can no longer be resumed.
func (s *Session) Terminal() bool {
	return s.Status == StatusStopped || s.Status == StatusError
}
