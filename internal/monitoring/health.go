package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

type HealthChecker struct {
	mu            sync.RWMutex
	lastCycle     time.Time
	iteration     int
	sessionID     string
	brokerHealthy bool
	errors        []string
}

type HealthStatus struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"session_id,omitempty"`
	LastCycle     time.Time `json:"last_cycle"`
	Iteration     int       `json:"iteration"`
	BrokerHealthy bool      `json:"broker_healthy"`
	Uptime        string    `json:"uptime"`
	Errors        []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// processHealth is the process-wide checker updated by the pipeline and
// served at /health, mirroring how the metrics collectors are package-level.
var processHealth = NewHealthChecker()

// HealthHandler serves the process-wide health report.
func HealthHandler() http.Handler { return processHealth }

// UpdateCycle records one completed pipeline cycle on the process checker.
func UpdateCycle(sessionID string, iteration int) { processHealth.UpdateCycle(sessionID, iteration) }

// SetBrokerHealthy records the outcome of the latest broker call.
func SetBrokerHealthy(healthy bool) { processHealth.SetBrokerHealthy(healthy) }

// ReportError appends an error to the process health report.
func ReportError(msg string) { processHealth.AddError(msg) }

// UpdateCycle records the completion of one pipeline cycle.
func (h *HealthChecker) UpdateCycle(sessionID string, iteration int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = sessionID
	h.iteration = iteration
	h.lastCycle = time.Now()
}

// SetBrokerHealthy marks whether the last broker call succeeded.
func (h *HealthChecker) SetBrokerHealthy(healthy bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.brokerHealthy = healthy
}

// AddError appends an error to the health report, keeping the last ten.
func (h *HealthChecker) AddError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 10 {
		h.errors = h.errors[len(h.errors)-10:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if !h.brokerHealthy {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if len(h.errors) > 0 {
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	}

	health := HealthStatus{
		Status:        status,
		Timestamp:     time.Now(),
		SessionID:     h.sessionID,
		LastCycle:     h.lastCycle,
		Iteration:     h.iteration,
		BrokerHealthy: h.brokerHealthy,
		Uptime:        time.Since(startTime).String(),
		Errors:        h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
