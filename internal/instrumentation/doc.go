// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the mailagent service.
//
// # Metrics
//
// HTTP surface:
//   - http_requests_total, http_request_duration_seconds by method, route, status
//
// Agent loop:
//   - agent_runs_total by outcome (answered, exhausted, failed)
//   - agent_iterations: model turns used per run
//   - model_calls_total, model_call_duration_seconds by status
//   - tool_executions_total, tool_execution_duration_seconds by tool and status
//   - tool_result_truncations_total by tool
//
// Gmail connection:
//   - connection_checks_total by result
//   - auth_attempts_total by result
//
// MCP exposure:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds by tool and status
//
// With the Prometheus exporter every name is prefixed with the configured
// namespace (default "mailagent").
//
// # Tracing
//
// Spans: agent.run, agent.iteration, model.complete, tool.execute,
// auth.authenticate, auth.check_connection and mcp.<tool>.
//
// # Configuration
//
// Instrumentation is configured through environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - METRICS_NAMESPACE: Prometheus metric prefix (default: mailagent)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_IDENTIFIERS
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordAgentRun(ctx, instrumentation.OutcomeAnswered, 2)
package instrumentation
