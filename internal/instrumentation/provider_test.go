package instrumentation

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.ServesPrometheus() {
		t.Error("disabled provider must not serve prometheus")
	}

	// The no-op recorder must accept every call.
	ctx := context.Background()
	provider.Metrics().RecordAgentRun(ctx, OutcomeAnswered, 1)
	provider.Metrics().RecordToolExecution(ctx, "GMAIL_LIST_LABELS", StatusSuccess, time.Millisecond)

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
	if provider.Tracer("test") == nil {
		t.Error("expected tracer to be non-nil (no-op)")
	}
}

func TestNewProvider_PrometheusExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:      "test-service",
		ServiceVersion:   "1.0.0",
		Enabled:          true,
		MetricsExporter:  ExporterPrometheus,
		MetricsNamespace: "mailagent_test",
		TracingExporter:  ExporterNone,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if !provider.ServesPrometheus() {
		t.Error("expected prometheus exporter to be active")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil")
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	provider, err := NewProvider(ctx, Config{
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
		DebugWriter:       &out,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.ServesPrometheus() {
		t.Error("stdout exporter must not be served through prometheus")
	}

	_, span := provider.Tracer("test").Start(ctx, "agent.run")
	span.End()
	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(out.String(), "agent.run") {
		t.Errorf("expected span in debug writer output, got %q", out.String())
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"metrics exporter", Config{Enabled: true, MetricsExporter: "invalid"}},
		{"tracing exporter", Config{Enabled: true, TracingExporter: "invalid"}},
		{"otlp without endpoint", Config{Enabled: true, TracingExporter: ExporterOTLP}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(context.Background(), tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProvider_AuditLogger(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		AuditLogging: AuditLoggingConfig{Enabled: true, IncludeIdentifiers: true},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var buf bytes.Buffer
	audit := provider.AuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	audit.LogToolInvocation(NewToolInvocation("GMAIL_SEND_EMAIL", "call_1").WithUser("alice", "ca_1").Complete(nil))

	if !strings.Contains(buf.String(), `"user_id":"alice"`) {
		t.Errorf("expected identifiers in audit log, got %s", buf.String())
	}
}
