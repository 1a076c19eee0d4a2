package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Praxis errors.
type ErrorCode string

// Plan validation error codes
const (
	PLAN_VALIDATION_FAILED ErrorCode = "PLAN_VALIDATION_FAILED"
	PLAN_PARSE_FAILED      ErrorCode = "PLAN_PARSE_FAILED"
	PLAN_CANCELLED         ErrorCode = "PLAN_CANCELLED"
)

// Step execution error codes
const (
	VARIABLE_UNRESOLVED ErrorCode = "VARIABLE_UNRESOLVED"
	UNKNOWN_OPERATION   ErrorCode = "UNKNOWN_OPERATION"
	SAFETY_BLOCKED      ErrorCode = "SAFETY_BLOCKED"
	CONFIDENCE_GATED    ErrorCode = "CONFIDENCE_GATED"
	OPERATION_FAILED    ErrorCode = "OPERATION_FAILED"
	STEP_TIMEOUT        ErrorCode = "STEP_TIMEOUT"
	CONDITION_INVALID   ErrorCode = "CONDITION_INVALID"
)

// State store error codes
const (
	STATE_NOT_FOUND    ErrorCode = "STATE_NOT_FOUND"
	STATE_CORRUPTED    ErrorCode = "STATE_CORRUPTED"
	STATE_LOCKED       ErrorCode = "STATE_LOCKED"
	STATE_WRITE_FAILED ErrorCode = "STATE_WRITE_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Knowledge store error codes
const (
	KNOWLEDGE_OPEN_FAILED  ErrorCode = "KNOWLEDGE_OPEN_FAILED"
	KNOWLEDGE_QUERY_FAILED ErrorCode = "KNOWLEDGE_QUERY_FAILED"
)

// PraxisError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for
// the engine's retry logic.
type PraxisError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PraxisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *PraxisError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *PraxisError) Is(target error) bool {
	var praxisErr *PraxisError
	if errors.As(target, &praxisErr) {
		return e.Code == praxisErr.Code
	}
	return false
}

// NewError creates a new non-retryable PraxisError with the given code and message.
func NewError(code ErrorCode, message string) *PraxisError {
	return &PraxisError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable PraxisError.
// Use this for transient failures that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *PraxisError {
	return &PraxisError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable PraxisError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *PraxisError {
	return &PraxisError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) a PraxisError.
// Returns an empty code otherwise.
func CodeOf(err error) ErrorCode {
	var praxisErr *PraxisError
	if errors.As(err, &praxisErr) {
		return praxisErr.Code
	}
	return ""
}

// IsRetryable reports whether err is (or wraps) a retryable PraxisError.
func IsRetryable(err error) bool {
	var praxisErr *PraxisError
	if errors.As(err, &praxisErr) {
		return praxisErr.Retryable
	}
	return false
}
