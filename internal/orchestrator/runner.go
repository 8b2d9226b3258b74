package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cho-y-j/able-sub001/internal/approval"
	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/internal/execution"
	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/internal/notifications"
	"github.com/cho-y-j/able-sub001/internal/pipeline"
	"github.com/cho-y-j/able-sub001/internal/risk"
	"github.com/cho-y-j/able-sub001/internal/session"
)

// Deps are the collaborators a runner wires into every invocation.
// Analysis and the candidate sources are the opaque upstream producers;
// Broker may be nil, which forces dry-run mode for every session.
type Deps struct {
	Analysis pipeline.MarketAnalysisProvider
	Search   pipeline.CandidateSource
	Recipes  pipeline.CandidateSource
	Broker   broker.Client
	Notifier *notifications.Fanout
	Log      *logger.Logger
}

// Runner is the external trigger surface: start, stop, approve and reject.
// Each call is one-shot; it loads the durable record, runs the machine to
// its next halt point and persists the result before returning.
type Runner struct {
	store *session.Store
	deps  Deps
}

// NewRunner wires the trigger surface over a session store.
func NewRunner(store *session.Store, deps Deps) *Runner {
	if deps.Log == nil {
		deps.Log = logger.NewDiscard()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewFanout(deps.Log, &notifications.LogSink{Log: deps.Log})
	}
	return &Runner{store: store, deps: deps}
}

// StartSession creates and runs a new session for the user. At most one
// non-terminal session may exist per user; a second start is refused.
func (r *Runner) StartSession(ctx context.Context, userID string, watchlist []string, cfg pipeline.ExecutionConfig) (*session.Record, error) {
	existing, err := r.store.FindActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("user %s already has session %s in status %s",
			userID, existing.Session.ID, existing.Session.Status)
	}

	record := &session.Record{
		Session: session.Session{
			ID:        uuid.NewString(),
			UserID:    userID,
			Status:    session.StatusActive,
			StartedAt: time.Now(),
		},
		Context: pipeline.NewContext("", userID, watchlist, cfg),
	}
	record.Context.SessionID = record.Session.ID

	return r.invoke(ctx, record, StateMarketAnalysis)
}

// Approve resumes a pending session with an approved decision.
func (r *Runner) Approve(ctx context.Context, sessionID string) (*session.Record, error) {
	return r.resume(ctx, sessionID, approval.DecisionApproved)
}

// Reject resumes a pending session with a rejected decision.
func (r *Runner) Reject(ctx context.Context, sessionID string) (*session.Record, error) {
	return r.resume(ctx, sessionID, approval.DecisionRejected)
}

func (r *Runner) resume(ctx context.Context, sessionID string, decision approval.Decision) (*session.Record, error) {
	record, err := r.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if record.Session.Status != session.StatusPendingApproval {
		return nil, fmt.Errorf("session %s is %s, not pending approval", sessionID, record.Session.Status)
	}

	record.Session.Status = session.StatusActive
	record.Context.Approval.Decision = decision
	record.Context.Approval.Pending = false
	record.PendingApprovals = nil

	return r.invoke(ctx, record, StateHumanApproval)
}

// Stop terminates a session without running the pipeline.
func (r *Runner) Stop(sessionID string) (*session.Record, error) {
	record, err := r.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if record.Session.Terminal() {
		return record, nil
	}

	now := time.Now()
	record.Session.Status = session.StatusStopped
	record.Session.EndedAt = &now
	if err := r.store.Save(record); err != nil {
		return nil, err
	}
	r.deps.Log.Info("session %s stopped by operator", sessionID)
	return record, nil
}

// invoke runs the machine once and persists the outcome.
func (r *Runner) invoke(ctx context.Context, record *session.Record, start State) (*session.Record, error) {
	machine := NewMachine(r.buildSteps(record.Context.Execution), r.deps.Log)

	alertMark := len(record.Context.Alerts)
	reason := machine.Run(ctx, &record.Context, start)
	r.deps.Notifier.PublishAll(record.Context.Alerts[alertMark:])

	record.Session.IterationCount = record.Context.IterationCount
	now := time.Now()

	switch reason {
	case StopPendingApproval:
		record.Session.Status = session.StatusPendingApproval
		record.PendingApprovals = record.Context.Approval.Requests
	case StopError:
		record.Session.Status = session.StatusError
		record.Session.EndedAt = &now
	case StopCancelled:
		// Leave the session active; a later trigger picks it back up.
	default:
		record.Session.Status = session.StatusStopped
		record.Session.EndedAt = &now
	}

	if err := r.store.Save(record); err != nil {
		return nil, fmt.Errorf("failed to persist session %s: %w", record.Session.ID, err)
	}
	return record, nil
}

// buildSteps assembles the per-invocation step set. A dry-run session gets
// the no-op broker no matter what live client is configured.
func (r *Runner) buildSteps(cfg pipeline.ExecutionConfig) Steps {
	client := r.deps.Broker
	if cfg.DryRun || client == nil {
		client = broker.NewDryRunClient(nil, defaultDryRunBalance)
	}

	gate := approval.NewGate(cfg.ApprovalThreshold)
	engine := execution.NewEngine(client, r.deps.Log, cfg.SliceInterval)

	manager := risk.NewManager(r.deps.Log)
	if cfg.MaxDrawdown > 0 {
		manager.MaxDrawdown = cfg.MaxDrawdown
	}

	return Steps{
		MarketAnalysis:   &pipeline.MarketAnalysisStep{Provider: r.deps.Analysis, Broker: client, Log: r.deps.Log},
		StrategySearch:   &pipeline.StrategySearchStep{Source: r.deps.Search},
		RecipeEvaluation: &pipeline.RecipeEvaluationStep{Source: r.deps.Recipes},
		RiskAssessment:   &pipeline.RiskAssessmentStep{Manager: manager},
		HumanApproval:    &pipeline.HumanApprovalStep{Gate: gate},
		Execution:        &pipeline.ExecutionStep{Engine: engine},
		Monitor:          &pipeline.MonitorStep{Broker: client, Log: r.deps.Log},
	}
}

// defaultDryRunBalance is the simulated account size used when no broker is
// configured.
const defaultDryRunBalance = 10_000_000.0
