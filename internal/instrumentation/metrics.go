package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod  = "method"
	attrPath    = "path"
	attrStatus  = "status"
	attrOutcome = "outcome"
	attrResult  = "result"
	attrTool    = "tool"
)

var (
	latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0}
	httpBuckets    = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 120.0}
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Agent loop metrics
	agentRunsTotal  metric.Int64Counter
	agentIterations metric.Int64Histogram

	// Model provider metrics
	modelCallsTotal   metric.Int64Counter
	modelCallDuration metric.Float64Histogram

	// Tool-execution provider metrics
	toolExecutionsTotal    metric.Int64Counter
	toolExecutionDuration  metric.Float64Histogram
	toolResultTruncations  metric.Int64Counter
	connectionChecksTotal  metric.Int64Counter
	authAttemptsTotal      metric.Int64Counter
	mcpToolInvocationTotal metric.Int64Counter
	mcpToolDuration        metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments registered on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.agentRunsTotal, err = meter.Int64Counter(
		"agent_runs_total",
		metric.WithDescription("Total number of agent runs by outcome"),
		metric.WithUnit("{run}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent_runs_total counter: %w", err)
	}

	if m.agentIterations, err = meter.Int64Histogram(
		"agent_iterations",
		metric.WithDescription("Model turns used per agent run"),
		metric.WithUnit("{iteration}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5),
	); err != nil {
		return nil, fmt.Errorf("failed to create agent_iterations histogram: %w", err)
	}

	if m.modelCallsTotal, err = meter.Int64Counter(
		"model_calls_total",
		metric.WithDescription("Total number of chat completion calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create model_calls_total counter: %w", err)
	}

	if m.modelCallDuration, err = meter.Float64Histogram(
		"model_call_duration_seconds",
		metric.WithDescription("Chat completion latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create model_call_duration_seconds histogram: %w", err)
	}

	if m.toolExecutionsTotal, err = meter.Int64Counter(
		"tool_executions_total",
		metric.WithDescription("Total number of provider tool executions"),
		metric.WithUnit("{execution}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool_executions_total counter: %w", err)
	}

	if m.toolExecutionDuration, err = meter.Float64Histogram(
		"tool_execution_duration_seconds",
		metric.WithDescription("Provider tool execution latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool_execution_duration_seconds histogram: %w", err)
	}

	if m.toolResultTruncations, err = meter.Int64Counter(
		"tool_result_truncations_total",
		metric.WithDescription("Tool results cut to the maximum result length"),
		metric.WithUnit("{result}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create tool_result_truncations_total counter: %w", err)
	}

	if m.connectionChecksTotal, err = meter.Int64Counter(
		"connection_checks_total",
		metric.WithDescription("Gmail connection existence checks by result"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create connection_checks_total counter: %w", err)
	}

	if m.authAttemptsTotal, err = meter.Int64Counter(
		"auth_attempts_total",
		metric.WithDescription("Gmail authentication attempts by result"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create auth_attempts_total counter: %w", err)
	}

	if m.mcpToolInvocationTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	if m.mcpToolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
// path should already be bounded with RouteLabel.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAgentRun records one finished agent run and the number of model turns it used.
// Outcome is one of OutcomeAnswered, OutcomeExhausted, OutcomeFailed.
func (m *Metrics) RecordAgentRun(ctx context.Context, outcome string, iterations int) {
	if m == nil || m.agentRunsTotal == nil {
		return
	}

	m.agentRunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	m.agentIterations.Record(ctx, int64(iterations), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordModelCall records a chat completion request.
func (m *Metrics) RecordModelCall(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.modelCallsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.modelCallsTotal.Add(ctx, 1, attrs)
	m.modelCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolExecution records a provider tool execution. tool should already
// be bounded with BoundedLabel.
func (m *Metrics) RecordToolExecution(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolExecutionsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)
	m.toolExecutionsTotal.Add(ctx, 1, attrs)
	m.toolExecutionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolResultTruncated counts a tool result that exceeded the maximum length.
func (m *Metrics) RecordToolResultTruncated(ctx context.Context, tool string) {
	if m == nil || m.toolResultTruncations == nil {
		return
	}

	m.toolResultTruncations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrTool, tool)))
}

// RecordConnectionCheck records a Gmail connection existence check.
func (m *Metrics) RecordConnectionCheck(ctx context.Context, result string) {
	if m == nil || m.connectionChecksTotal == nil {
		return
	}

	m.connectionChecksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordAuthAttempt records an authenticate call with its result.
func (m *Metrics) RecordAuthAttempt(ctx context.Context, result string) {
	if m == nil || m.authAttemptsTotal == nil {
		return
	}

	m.authAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.mcpToolInvocationTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.mcpToolInvocationTotal.Add(ctx, 1, attrs)
	m.mcpToolDuration.Record(ctx, duration.Seconds(), attrs)
}
