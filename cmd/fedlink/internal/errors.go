package internal

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitFeedError indicates a source feed could not be read or parsed
	ExitFeedError = 2
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitMatchError indicates a match pass failed
	ExitMatchError = 11
	// ExitDatabaseError indicates a database error
	ExitDatabaseError = 12
	// ExitEmbedError indicates an embedding provider or pipeline error
	ExitEmbedError = 13
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// HandleError handles an error and returns the appropriate exit code.
// It also prints the error message to the command's error output.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for context cancellation
	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}

	// Check for context deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	// Check for CLIError
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil {
			verboseFlag := cmd.Flag("verbose")
			if verboseFlag != nil && verboseFlag.Changed {
				cmd.PrintErrln("Cause:", cliErr.Cause)
			}
		}
		return cliErr.Code
	}

	// Check for FedlinkError
	var fedErr *types.FedlinkError
	if errors.As(err, &fedErr) {
		exitCode := mapFedlinkErrorToExitCode(fedErr)
		cmd.PrintErrf("Error [%s]: %s\n", fedErr.Code, fedErr.Message)

		verboseFlag := cmd.Flag("verbose")
		if verboseFlag != nil && verboseFlag.Changed {
			if fedErr.Cause != nil {
				cmd.PrintErrln("Cause:", fedErr.Cause)
			}
			if fedErr.Retryable {
				cmd.PrintErrln("This error is transient; retrying may succeed")
			}
		}

		return exitCode
	}

	// Generic error
	cmd.PrintErrln("Error:", err)
	return ExitError
}

// mapFedlinkErrorToExitCode maps FedlinkError codes to CLI exit codes
func mapFedlinkErrorToExitCode(err *types.FedlinkError) int {
	switch err.Code {
	case types.CONFIG_LOAD_FAILED,
		types.CONFIG_PARSE_FAILED,
		types.CONFIG_VALIDATION_FAILED,
		types.CONFIG_NOT_FOUND,
		types.INIT_DIRS_FAILED,
		types.INIT_CONFIG_FAILED:
		return ExitConfigError
	case types.DB_OPEN_FAILED,
		types.DB_MIGRATION_FAILED,
		types.DB_QUERY_FAILED,
		types.DB_DUPLICATE_KEY,
		types.INIT_DB_FAILED:
		return ExitDatabaseError
	case types.FEED_OPEN_FAILED,
		types.FEED_PARSE_FAILED,
		types.FEED_RECORD_INVALID:
		return ExitFeedError
	case types.MATCH_RUN_FAILED,
		types.MATCH_STORE_FAILED,
		types.MATCH_INVALID_RULE,
		types.MATCH_UNKNOWN_KIND,
		types.MATCH_EMPTY_CORPUS,
		types.MATCH_SCORE_INVALID:
		return ExitMatchError
	case types.EMBED_PROVIDER_FAILED,
		types.EMBED_PROVIDER_UNAVAILABLE,
		types.EMBED_DIMENSION_MISMATCH,
		types.EMBED_EMPTY_INPUT:
		return ExitEmbedError
	default:
		return ExitError
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}

// IsVerbose checks if verbose mode is enabled via environment variable or flag.
// This is used for panic recovery to determine if stack traces should be shown.
func IsVerbose() bool {
	// Check environment variable
	if os.Getenv("FEDLINK_VERBOSE") != "" {
		return true
	}

	// Check common verbose flag patterns
	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}

	return false
}
