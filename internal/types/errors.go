package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for fedlink errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CONFIG_NOT_FOUND         ErrorCode = "CONFIG_NOT_FOUND"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
	DB_DUPLICATE_KEY    ErrorCode = "DB_DUPLICATE_KEY"
)

// Source feed error codes
const (
	FEED_OPEN_FAILED    ErrorCode = "FEED_OPEN_FAILED"
	FEED_PARSE_FAILED   ErrorCode = "FEED_PARSE_FAILED"
	FEED_RECORD_INVALID ErrorCode = "FEED_RECORD_INVALID"
)

// Organization hierarchy error codes
const (
	ORG_NOT_FOUND        ErrorCode = "ORG_NOT_FOUND"
	ORG_PARENT_NOT_FOUND ErrorCode = "ORG_PARENT_NOT_FOUND"
	ORG_CYCLE_DETECTED   ErrorCode = "ORG_CYCLE_DETECTED"
)

// Matching error codes
const (
	MATCH_RUN_FAILED    ErrorCode = "MATCH_RUN_FAILED"
	MATCH_STORE_FAILED  ErrorCode = "MATCH_STORE_FAILED"
	MATCH_INVALID_RULE  ErrorCode = "MATCH_INVALID_RULE"
	MATCH_UNKNOWN_KIND  ErrorCode = "MATCH_UNKNOWN_KIND"
	MATCH_EMPTY_CORPUS  ErrorCode = "MATCH_EMPTY_CORPUS"
	MATCH_SCORE_INVALID ErrorCode = "MATCH_SCORE_INVALID"
)

// Embedding error codes
const (
	EMBED_PROVIDER_FAILED      ErrorCode = "EMBED_PROVIDER_FAILED"
	EMBED_PROVIDER_UNAVAILABLE ErrorCode = "EMBED_PROVIDER_UNAVAILABLE"
	EMBED_DIMENSION_MISMATCH   ErrorCode = "EMBED_DIMENSION_MISMATCH"
	EMBED_EMPTY_INPUT          ErrorCode = "EMBED_EMPTY_INPUT"
)

// Initialization error codes
const (
	INIT_DIRS_FAILED   ErrorCode = "INIT_DIRS_FAILED"
	INIT_CONFIG_FAILED ErrorCode = "INIT_CONFIG_FAILED"
	INIT_DB_FAILED     ErrorCode = "INIT_DB_FAILED"
)

// FedlinkError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type FedlinkError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *FedlinkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *FedlinkError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a FedlinkError with the same Code.
func (e *FedlinkError) Is(target error) bool {
	var fedErr *FedlinkError
	if errors.As(target, &fedErr) {
		return e.Code == fedErr.Code
	}
	return false
}

// NewError creates a new non-retryable FedlinkError with the given code and message.
func NewError(code ErrorCode, message string) *FedlinkError {
	return &FedlinkError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable FedlinkError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *FedlinkError {
	return &FedlinkError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable FedlinkError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *FedlinkError {
	return &FedlinkError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// IsRetryable reports whether err carries a retryable FedlinkError anywhere
// in its chain.
func IsRetryable(err error) bool {
	var fedErr *FedlinkError
	if errors.As(err, &fedErr) {
		return fedErr.Retryable
	}
	return false
}
