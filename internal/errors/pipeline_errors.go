package errors

import (
	"fmt"
	"strings"
)

// ErrorCategory classifies pipeline failures by how they must be contained.
type ErrorCategory string

const (
	// Session-fatal categories: the only ones allowed to stop the loop.
	ErrorCategoryFatal       ErrorCategory = "FATAL"
	ErrorCategoryCredentials ErrorCategory = "CREDENTIALS"
	ErrorCategoryConfig      ErrorCategory = "CONFIG"

	// Contained at the step or order level.
	ErrorCategoryDataUnavailable ErrorCategory = "DATA_UNAVAILABLE"
	ErrorCategoryLimitBreach     ErrorCategory = "LIMIT_BREACH"
	ErrorCategoryExecution       ErrorCategory = "EXECUTION"
	ErrorCategoryValidation      ErrorCategory = "VALIDATION"

	// Transient broker/network conditions.
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
	ErrorCategoryTemporary ErrorCategory = "TEMPORARY"
)

// PipelineError is a categorized error with component and operation context.
type PipelineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *PipelineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether the failed operation may be retried.
func (e *PipelineError) IsRetryable() bool {
	return e.Retryable
}

// IsSessionFatal reports whether this error must terminate the session.
// Everything else degrades at the step or order level.
func (e *PipelineError) IsSessionFatal() bool {
	return e.Category == ErrorCategoryFatal ||
		e.Category == ErrorCategoryCredentials ||
		e.Category == ErrorCategoryConfig
}

// New creates a categorized pipeline error.
func New(category ErrorCategory, component, operation, message string) *PipelineError {
	return &PipelineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Retryable: retryableCategory(category),
	}
}

// Wrap attaches category and context to an existing error. Returns nil for a
// nil error so call sites can wrap unconditionally.
func Wrap(err error, category ErrorCategory, component, operation string) *PipelineError {
	if err == nil {
		return nil
	}
	return &PipelineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Retryable:  retryableCategory(category),
	}
}

// WithRetryable overrides the category's default retryability.
func (e *PipelineError) WithRetryable(retryable bool) *PipelineError {
	e.Retryable = retryable
	return e
}

func retryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryTemporary,
		ErrorCategoryRateLimit, ErrorCategoryDataUnavailable:
		return true
	default:
		return false
	}
}

// Categorize maps a generic error onto the pipeline taxonomy by message
// inspection. Already-categorized errors pass through unchanged.
func Categorize(err error, component, operation string) *PipelineError {
	if err == nil {
		return nil
	}
	if perr, ok := err.(*PipelineError); ok {
		return perr
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "context deadline exceeded"):
		return Wrap(err, ErrorCategoryTimeout, component, operation)
	case strings.Contains(msg, "connection"), strings.Contains(msg, "dial"), strings.Contains(msg, "dns"):
		return Wrap(err, ErrorCategoryNetwork, component, operation)
	case strings.Contains(msg, "api key"), strings.Contains(msg, "signature"), strings.Contains(msg, "unauthorized"):
		return Wrap(err, ErrorCategoryCredentials, component, operation)
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return Wrap(err, ErrorCategoryRateLimit, component, operation)
	case strings.Contains(msg, "insufficient"):
		return Wrap(err, ErrorCategoryExecution, component, operation).WithRetryable(false)
	case strings.Contains(msg, "invalid"), strings.Contains(msg, "minimum"), strings.Contains(msg, "maximum"):
		return Wrap(err, ErrorCategoryValidation, component, operation)
	default:
		return Wrap(err, ErrorCategoryTemporary, component, operation)
	}
}

// Convenience constructors for the common categories.

func NewDataUnavailable(component, operation string, err error) *PipelineError {
	return Wrap(err, ErrorCategoryDataUnavailable, component, operation)
}

func NewLimitBreach(component, operation, message string) *PipelineError {
	return New(ErrorCategoryLimitBreach, component, operation, message)
}

func NewExecutionFailure(component, operation string, err error) *PipelineError {
	return Wrap(err, ErrorCategoryExecution, component, operation)
}

func NewValidation(component, operation, message string) *PipelineError {
	return New(ErrorCategoryValidation, component, operation, message)
}

func NewConfig(component, operation, message string) *PipelineError {
	return New(ErrorCategoryConfig, component, operation, message)
}

func NewFatal(component, operation, message string) *PipelineError {
	return New(ErrorCategoryFatal, component, operation, message)
}
