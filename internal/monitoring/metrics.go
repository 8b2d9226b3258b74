package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_cycles_total",
			Help: "Total number of pipeline cycles by terminal state",
		},
		[]string{"outcome"},
	)

	iterationCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_iteration_count",
			Help: "Iteration count of the active session",
		},
	)

	// Execution metrics
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_executions_total",
			Help: "Total number of order executions",
		},
		[]string{"strategy", "status"},
	)

	orderFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_order_failures_total",
			Help: "Total number of failed order submissions",
		},
		[]string{"symbol"},
	)

	slippageBps = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trader_slippage_bps",
			Help:    "Distribution of realized slippage in basis points",
			Buckets: []float64{-50, -20, -10, -5, 0, 5, 10, 20, 50, 100},
		},
	)

	// Risk metrics
	approvedTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_risk_decisions_total",
			Help: "Risk assessment decisions per trade",
		},
		[]string{"decision"},
	)

	currentExposure = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_current_exposure",
			Help: "Current total exposure in account currency",
		},
	)

	currentDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_current_drawdown",
			Help: "Current drawdown fraction from peak equity",
		},
	)

	accountBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_account_balance",
			Help: "Last synced total account balance",
		},
	)

	// Approval metrics
	approvalsPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trader_approvals_pending",
			Help: "Number of trades waiting for human approval",
		},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trader_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(cyclesTotal)
	prometheus.MustRegister(iterationCount)
	prometheus.MustRegister(executionsTotal)
	prometheus.MustRegister(orderFailuresTotal)
	prometheus.MustRegister(slippageBps)
	prometheus.MustRegister(approvedTrades)
	prometheus.MustRegister(currentExposure)
	prometheus.MustRegister(currentDrawdown)
	prometheus.MustRegister(accountBalance)
	prometheus.MustRegister(approvalsPending)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordCycle records the outcome of one pipeline cycle
func RecordCycle(outcome string, iteration int) {
	cyclesTotal.WithLabelValues(outcome).Inc()
	iterationCount.Set(float64(iteration))
}

// RecordExecution records an order execution result
func RecordExecution(strategy, status string) {
	executionsTotal.WithLabelValues(strategy, status).Inc()
}

// RecordOrderFailure records a failed order submission
func RecordOrderFailure(symbol string) {
	orderFailuresTotal.WithLabelValues(symbol).Inc()
}

// RecordSlippage records realized slippage for one execution
func RecordSlippage(bps float64) {
	slippageBps.Observe(bps)
}

// RecordRiskDecision records one approved or rejected trade
func RecordRiskDecision(decision string) {
	approvedTrades.WithLabelValues(decision).Inc()
}

// UpdatePortfolio updates the exposure, drawdown and balance gauges
func UpdatePortfolio(exposure, drawdown, balance float64) {
	currentExposure.Set(exposure)
	currentDrawdown.Set(drawdown)
	accountBalance.Set(balance)
}

// UpdatePendingApprovals updates the pending approvals gauge
func UpdatePendingApprovals(count int) {
	approvalsPending.Set(float64(count))
}

// RecordError records an error metric by category
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
