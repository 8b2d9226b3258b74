package orchestrator

import (
	"context"

	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/internal/monitoring"
	"github.com/cho-y-j/able-sub001/internal/pipeline"
)

// State names one node of the pipeline graph.
type State string

const (
	StateMarketAnalysis   State = "market_analysis"
	StateStrategySearch   State = "strategy_search"
	StateRecipeEvaluation State = "recipe_evaluation"
	StateRiskAssessment   State = "risk_assessment"
	StateHumanApproval    State = "human_approval"
	StateExecution        State = "execution"
	StateMonitor          State = "monitor"
	StateHalt             State = "halt"
)

// HardIterationCap terminates a session regardless of what the monitor
// decides. It sits above the monitor's own soft cap.
const HardIterationCap = 100

// StopReason explains why one invocation of the machine ended.
type StopReason string

const (
	StopCompleted       StopReason = "completed"
	StopPendingApproval StopReason = "pending_approval"
	StopError           StopReason = "error"
	StopCancelled       StopReason = "cancelled"
)

// Next is the transition table: a pure predicate over the blackboard,
// evaluated after each step. Keeping it a standalone function makes routing
// testable without running any step.
func Next(state State, view pipeline.Context) State {
	switch state {
	case StateMarketAnalysis:
		if view.HasActiveRecipes {
			return StateRecipeEvaluation
		}
		if view.MarketRegime.IsCrisis() || len(view.Candidates) > 0 {
			return StateRiskAssessment
		}
		return StateStrategySearch

	case StateStrategySearch, StateRecipeEvaluation:
		return StateRiskAssessment

	case StateRiskAssessment:
		if view.RiskAssessment == nil || len(view.RiskAssessment.ApprovedTrades) == 0 {
			return StateMonitor
		}
		if view.Execution.HITLEnabled {
			return StateHumanApproval
		}
		return StateExecution

	case StateHumanApproval:
		// Pending never reaches here; the machine halts before routing.
		if view.RiskAssessment != nil && len(view.RiskAssessment.ApprovedTrades) > 0 {
			return StateExecution
		}
		return StateMonitor

	case StateExecution:
		return StateMonitor

	case StateMonitor:
		if view.ErrorState != "" || !view.ShouldContinue || view.IterationCount >= HardIterationCap {
			return StateHalt
		}
		return StateMarketAnalysis
	}
	return StateHalt
}

// Steps binds one pipeline step implementation to each state.
type Steps struct {
	MarketAnalysis   pipeline.Step
	StrategySearch   pipeline.Step
	RecipeEvaluation pipeline.Step
	RiskAssessment   pipeline.Step
	HumanApproval    pipeline.Step
	Execution        pipeline.Step
	Monitor          pipeline.Step
}

func (s Steps) step(state State) pipeline.Step {
	switch state {
	case StateMarketAnalysis:
		return s.MarketAnalysis
	case StateStrategySearch:
		return s.StrategySearch
	case StateRecipeEvaluation:
		return s.RecipeEvaluation
	case StateRiskAssessment:
		return s.RiskAssessment
	case StateHumanApproval:
		return s.HumanApproval
	case StateExecution:
		return s.Execution
	case StateMonitor:
		return s.Monitor
	}
	return nil
}

// Machine drives one session's pipeline. It owns the canonical blackboard
// for the duration of an invocation: steps get a copy and their deltas are
// merged here. The machine never retries a failed step; failures arrive as
// alerts or an error state in the delta and routing does the rest.
type Machine struct {
	steps Steps
	log   *logger.Logger
}

// NewMachine builds a state machine over the given step set.
func NewMachine(steps Steps, log *logger.Logger) *Machine {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Machine{steps: steps, log: log}
}

// Run executes the pipeline from a start state until it halts. The caller
// owns persistence of the final blackboard. A pending approval halts the
// whole invocation; resumption is a fresh Run starting at the approval
// state with the decision seeded into the blackboard.
func (m *Machine) Run(ctx context.Context, pc *pipeline.Context, start State) StopReason {
	state := start
	if state == "" || state == StateHalt {
		state = StateMarketAnalysis
	}

	for state != StateHalt {
		if err := ctx.Err(); err != nil {
			m.log.Warning("invocation cancelled in %s: %v", state, err)
			return StopCancelled
		}

		step := m.steps.step(state)
		if step == nil {
			m.log.Error("no step bound for state %s", state)
			pc.Apply(pipeline.Delta{ErrorState: "no step bound for state " + string(state)})
			return StopError
		}

		delta := step.Run(ctx, *pc)
		pc.Apply(delta)
		m.log.Step(step.Name(), lastMessage(pc))

		if pc.ErrorState != "" {
			monitoring.RecordCycle("error", pc.IterationCount)
			monitoring.RecordError("session_fatal")
			monitoring.ReportError(pc.ErrorState)
			return StopError
		}

		if state == StateHumanApproval && pc.Approval.Pending {
			monitoring.RecordCycle("pending_approval", pc.IterationCount)
			return StopPendingApproval
		}

		if state == StateMonitor {
			pc.IterationCount++
			monitoring.RecordCycle("ok", pc.IterationCount)
			monitoring.UpdateCycle(pc.SessionID, pc.IterationCount)
			m.log.LogCycle(pc.IterationCount, approvedCount(pc), rejectedCount(pc), len(pc.ExecutedOrders))
		}

		state = Next(state, *pc)
	}

	return StopCompleted
}

func lastMessage(pc *pipeline.Context) string {
	if len(pc.Messages) == 0 {
		return ""
	}
	return pc.Messages[len(pc.Messages)-1]
}

func approvedCount(pc *pipeline.Context) int {
	if pc.RiskAssessment == nil {
		return 0
	}
	return len(pc.RiskAssessment.ApprovedTrades)
}

func rejectedCount(pc *pipeline.Context) int {
	if pc.RiskAssessment == nil {
		return 0
	}
	return len(pc.RiskAssessment.RejectedTrades)
}
