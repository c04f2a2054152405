// Package logging provides structured logging utilities for the mailagent
// service.
//
// Everything logs through log/slog. NewLogger picks the handler: a colored
// tint console handler for humans or the JSON handler for log shipping.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "auth.authenticate")
//	logger.Info("connection established",
//	    logging.ConnectionID(id),
//	    logging.Status(logging.StatusSuccess))
//
// Secrets are never logged; use SanitizeSecret when a length hint helps.
package logging
