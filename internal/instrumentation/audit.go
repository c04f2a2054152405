package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mailagent/internal/logging"
)

// ToolInvocation captures one provider tool execution for audit logging.
//
// UserID and ConnectionID identify the operator's mailbox. They are only
// emitted when the AuditLogger is configured to include identifiers.
type ToolInvocation struct {
	Tool         string
	CallID       string
	UserID       string
	ConnectionID string
	Iteration    int

	StartTime   time.Time
	Duration    time.Duration
	Success     bool
	Error       string
	ResultChars int
	Truncated   bool

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool, callID string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		CallID:    callID,
		StartTime: time.Now(),
	}
}

// WithUser sets the operator user and connection the tool ran against.
func (ti *ToolInvocation) WithUser(userID, connectionID string) *ToolInvocation {
	ti.UserID = userID
	ti.ConnectionID = connectionID
	return ti
}

// WithIteration sets the agent iteration that issued the call.
func (ti *ToolInvocation) WithIteration(n int) *ToolInvocation {
	ti.Iteration = n
	return ti
}

// WithResult records the size of the produced result string and whether it was cut.
func (ti *ToolInvocation) WithResult(chars int, truncated bool) *ToolInvocation {
	ti.ResultChars = chars
	ti.Truncated = truncated
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the slog attributes for the invocation. Identifiers are
// only included when withIdentifiers is set.
func (ti *ToolInvocation) LogAttrs(withIdentifiers bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		logging.CallID(ti.CallID),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
		slog.Int("result_chars", ti.ResultChars),
	}

	if ti.Iteration > 0 {
		attrs = append(attrs, logging.Iteration(ti.Iteration))
	}
	if ti.Truncated {
		attrs = append(attrs, slog.Bool("truncated", true))
	}
	if withIdentifiers {
		if ti.UserID != "" {
			attrs = append(attrs, logging.UserID(ti.UserID))
		}
		if ti.ConnectionID != "" {
			attrs = append(attrs, logging.ConnectionID(ti.ConnectionID))
		}
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// AuditLogger writes one structured record per tool execution.
type AuditLogger struct {
	logger             *slog.Logger
	includeIdentifiers bool
	enabled            bool
}

// NewAuditLogger creates an enabled AuditLogger that omits identifiers.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:             logger,
		includeIdentifiers: config.IncludeIdentifiers,
		enabled:            config.Enabled,
	}
}

// LogToolInvocation logs the invocation at Info on success and Warn on failure.
// A nil AuditLogger is a no-op.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeIdentifiers)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
