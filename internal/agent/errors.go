package agent

import (
	"errors"
	"strings"
)

var (
	// ErrNotConfigured is returned when the provider clients are missing.
	ErrNotConfigured = errors.New("clients not initialized")

	// ErrNotAuthenticated is returned when no ACTIVE Gmail connection exists.
	ErrNotAuthenticated = errors.New("gmail not authenticated, authenticate first")
)

// ConfigurationError lists the required credentials that are absent.
// It matches ErrNotConfigured with errors.Is.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return ErrNotConfigured.Error()
	}
	return "missing credentials: " + strings.Join(e.Missing, ", ")
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrNotConfigured
}
