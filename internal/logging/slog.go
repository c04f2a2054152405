package logging

import (
	"fmt"
	"log/slog"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation    = "operation"
	KeyTool         = "tool"
	KeyUserID       = "user_id"
	KeyConnectionID = "connection_id"
	KeyAuthConfigID = "auth_config_id"
	KeyCallID       = "call_id"
	KeyRunID        = "run_id"
	KeyIteration    = "iteration"
	KeyDuration     = "duration"
	KeyStatus       = "status"
	KeyError        = "error"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithRun returns a logger tagged with an agent run id.
func WithRun(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(slog.String(KeyRunID, runID))
}

func Operation(op string) slog.Attr { return slog.String(KeyOperation, op) }

func Tool(tool string) slog.Attr { return slog.String(KeyTool, tool) }

func UserID(id string) slog.Attr { return slog.String(KeyUserID, id) }

func ConnectionID(id string) slog.Attr { return slog.String(KeyConnectionID, id) }

func AuthConfigID(id string) slog.Attr { return slog.String(KeyAuthConfigID, id) }

func CallID(id string) slog.Attr { return slog.String(KeyCallID, id) }

func Iteration(n int) slog.Attr { return slog.Int(KeyIteration, n) }

func Status(status string) slog.Attr { return slog.String(KeyStatus, status) }

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// SanitizeSecret returns a length indicator for a secret without exposing
// any of its content.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}
