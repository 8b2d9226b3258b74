package pipeline

import (
	"context"
	"fmt"

	"github.com/cho-y-j/able-sub001/internal/broker"
	"github.com/cho-y-j/able-sub001/internal/execution"
	"github.com/cho-y-j/able-sub001/internal/logger"
	"github.com/cho-y-j/able-sub001/internal/monitoring"
	"github.com/cho-y-j/able-sub001/pkg/types"
)

const (
	// MaxIterations is the loop-level soft cap; the monitor winds the
	// session down a few cycles before it is reached. The orchestrator's
	// hard cap is separate and higher.
	MaxIterations = 50

	// iterationWarnMargin is how many cycles before MaxIterations the
	// monitor stops the loop.
	iterationWarnMargin = 5

	// diversificationLimit is the executed-order count beyond which the
	// monitor raises a concentration warning.
	diversificationLimit = 10
)

// MonitorStep closes the loop: it settles pending orders, raises alerts and
// decides whether the session keeps cycling.
//
// Fill confirmation is an approximation. The broker's basic API has no
// per-order status endpoint, so a successful balance query is treated as
// confirmation that a submitted order was accepted and the order is
// optimistically marked filled. A real per-order status capability should
// replace this check. A failed balance query leaves the order submitted;
// the next cycle is the retry mechanism.
type MonitorStep struct {
	Broker broker.Client
	Log    *logger.Logger
}

func (s *MonitorStep) Name() string { return "monitor" }

func (s *MonitorStep) Run(ctx context.Context, view Context) Delta {
	var delta Delta
	delta.ReplacePending = true

	var filled, failed, stillPending int
	brokerReachable := s.checkBroker(ctx, view)

	for _, order := range view.PendingOrders {
		switch order.Status {
		case types.OrderDryRun:
			order.Status = types.OrderDryRunFilled
			delta.ExecutedOrders = append(delta.ExecutedOrders, order)
			filled++
		case types.OrderSubmitted:
			if brokerReachable {
				order.Status = types.OrderFilled
				delta.ExecutedOrders = append(delta.ExecutedOrders, order)
				filled++
			} else {
				delta.PendingOrders = append(delta.PendingOrders, order)
				stillPending++
			}
		case types.OrderFailed:
			delta.ExecutedOrders = append(delta.ExecutedOrders, order)
			failed++
		default:
			delta.ExecutedOrders = append(delta.ExecutedOrders, order)
		}
	}

	if filled > 0 {
		delta.Alerts = append(delta.Alerts, NewAlert(types.AlertSuccess, s.Name(),
			fmt.Sprintf("%d order(s) filled", filled)))
	}
	if failed > 0 {
		delta.Alerts = append(delta.Alerts, NewAlert(types.AlertError, s.Name(),
			fmt.Sprintf("%d order(s) failed", failed)))
	}

	executedTotal := len(view.ExecutedOrders) + len(delta.ExecutedOrders)
	if executedTotal > diversificationLimit {
		delta.Alerts = append(delta.Alerts, NewAlert(types.AlertWarning, s.Name(),
			fmt.Sprintf("%d orders executed this session, check diversification", executedTotal)))
	}

	if view.IterationCount >= MaxIterations-iterationWarnMargin {
		delta.Alerts = append(delta.Alerts, NewAlert(types.AlertWarning, s.Name(),
			fmt.Sprintf("iteration %d approaching the session cap of %d, stopping",
				view.IterationCount, MaxIterations)))
		delta.ShouldContinue = BoolPtr(false)
	}

	if len(delta.ExecutedOrders) > 0 {
		settled := append(append([]types.ExecutionResult{}, view.ExecutedOrders...), delta.ExecutedOrders...)
		delta.SlippageReport = execution.BuildSlippageReport(settled)
	}

	delta.Messages = append(delta.Messages, fmt.Sprintf(
		"monitor: %d filled, %d failed, %d pending", filled, failed, stillPending))
	return delta
}

// checkBroker runs the balance probe backing the optimistic fill check.
// Dry-run sessions never touch the broker here.
func (s *MonitorStep) checkBroker(ctx context.Context, view Context) bool {
	if !s.hasSubmittedOrders(view) {
		return false
	}
	if s.Broker == nil || broker.IsDryRun(s.Broker) {
		return false
	}
	if _, err := s.Broker.GetBalance(ctx); err != nil {
		monitoring.SetBrokerHealthy(false)
		if s.Log != nil {
			s.Log.Warning("fill-status probe failed, orders stay submitted: %v", err)
		}
		return false
	}
	monitoring.SetBrokerHealthy(true)
	return true
}

func (s *MonitorStep) hasSubmittedOrders(view Context) bool {
	for _, order := range view.PendingOrders {
		if order.Status == types.OrderSubmitted {
			return true
		}
	}
	return false
}
