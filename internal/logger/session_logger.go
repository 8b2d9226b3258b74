package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes per-session trading activity to a dated log file.
type Logger struct {
	sessionID string
	logFile   *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logDir    string
}

// LogLevel tags each log entry by type.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelStep    LogLevel = "STEP"
)

// NewLogger creates a file logger for one trading session.
func NewLogger(logDir, sessionID string) (*Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("session_%s_%s.log", sessionID, time.Now().Format("2006-01-02"))
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		sessionID: sessionID,
		logFile:   file,
		logger:    log.New(file, "", 0),
		logDir:    logDir,
	}

	l.writeSessionHeader()
	return l, nil
}

// NewDiscard returns a logger that drops everything. Used by tests and by
// components constructed without a session.
func NewDiscard() *Logger {
	return &Logger{logger: log.New(io.Discard, "", 0)}
}

func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 TRADING SESSION STARTED
================================================================================
Session: %s
Started: %s
================================================================================
`, l.sessionID, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted entry with the given level.
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s", timestamp, level, message)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs an order/trade action.
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Step logs a pipeline step summary.
func (l *Logger) Step(name, summary string) {
	l.Log(LogLevelStep, "%s: %s", name, summary)
}

// LogError logs an error with a context label.
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogExecution logs an execution result summary.
func (l *Logger) LogExecution(stockCode, side, strategy string, quantity int64, fillPrice, slippageBps float64, status string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	entry := fmt.Sprintf(`
[%s] [TRADE] ==================== %s %s ====================
📦 Quantity: %d
💰 Fill Price: %.2f
📊 Slippage: %.1f bps | Strategy: %s
✅ Status: %s
=============================================================`,
		timestamp, side, stockCode, quantity, fillPrice, slippageBps, strategy, status)

	l.logger.Println(entry)
}

// LogCycle logs the end of one orchestrator cycle.
func (l *Logger) LogCycle(iteration int, approved, rejected, executed int) {
	l.Info("Cycle %d complete - approved: %d, rejected: %d, executed: %d",
		iteration, approved, rejected, executed)
}

// Close writes the session footer and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}

	footer := fmt.Sprintf(`
================================================================================
🛑 TRADING SESSION ENDED
================================================================================
Ended: %s
================================================================================

`, time.Now().Format("2006-01-02 15:04:05"))
	l.logger.Print(footer)

	return l.logFile.Close()
}
