package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterValue(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestMetrics_AgentAndTools(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAgentRun(ctx, OutcomeAnswered, 2)
	m.RecordAgentRun(ctx, OutcomeExhausted, 5)
	m.RecordModelCall(ctx, StatusSuccess, 300*time.Millisecond)
	m.RecordToolExecution(ctx, "GMAIL_FETCH_EMAILS", StatusSuccess, time.Second)
	m.RecordToolExecution(ctx, "GMAIL_FETCH_EMAILS", StatusSuccess, time.Second)
	m.RecordToolResultTruncated(ctx, "GMAIL_FETCH_EMAILS")

	got := collect(t, reader)

	assert.Equal(t, int64(1), counterValue(t, got["agent_runs_total"], attribute.String(attrOutcome, OutcomeExhausted)))
	assert.Equal(t, int64(1), counterValue(t, got["model_calls_total"], attribute.String(attrStatus, StatusSuccess)))
	assert.Equal(t, int64(2), counterValue(t, got["tool_executions_total"],
		attribute.String(attrTool, "GMAIL_FETCH_EMAILS"),
		attribute.String(attrStatus, StatusSuccess),
	))
	assert.Equal(t, int64(1), counterValue(t, got["tool_result_truncations_total"], attribute.String(attrTool, "GMAIL_FETCH_EMAILS")))

	hist, ok := got["agent_iterations"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var runs uint64
	for _, dp := range hist.DataPoints {
		runs += dp.Count
	}
	assert.Equal(t, uint64(2), runs)
}

func TestMetrics_AuthAndHTTP(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAuthAttempt(ctx, AuthResultTimeout)
	m.RecordConnectionCheck(ctx, CheckResultError)
	m.RecordHTTPRequest(ctx, "POST", "/query", 200, 100*time.Millisecond)
	m.RecordToolInvocation(ctx, "gmail_agent_query", StatusError, time.Second)

	got := collect(t, reader)

	assert.Equal(t, int64(1), counterValue(t, got["auth_attempts_total"], attribute.String(attrResult, AuthResultTimeout)))
	assert.Equal(t, int64(1), counterValue(t, got["connection_checks_total"], attribute.String(attrResult, CheckResultError)))
	assert.Equal(t, int64(1), counterValue(t, got["http_requests_total"],
		attribute.String(attrMethod, "POST"),
		attribute.String(attrPath, "/query"),
		attribute.String(attrStatus, "200"),
	))
	assert.Equal(t, int64(1), counterValue(t, got["mcp_tool_invocations_total"],
		attribute.String(attrTool, "gmail_agent_query"),
		attribute.String(attrStatus, StatusError),
	))
}

func TestMetrics_NilAndZeroAreNoops(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.RecordAgentRun(ctx, OutcomeFailed, 0)
	nilMetrics.RecordHTTPRequest(ctx, "GET", "/", 200, 0)

	zero := &Metrics{}
	zero.RecordModelCall(ctx, StatusError, 0)
	zero.RecordAuthAttempt(ctx, AuthResultFailure)
}
