package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/mailagent/internal/instrumentation"
	"github.com/teemow/mailagent/internal/logging"
)

const (
	// DefaultMaxIterations caps the model turns of one run.
	DefaultMaxIterations = 5

	// DefaultSystemPrompt seeds every run.
	DefaultSystemPrompt = "You are a helpful Gmail assistant. You help users manage their emails, " +
		"send messages, create drafts, and organize their inbox. Be concise and helpful. " +
		"When fetching emails, threads or drafts, request at most 10 results unless the user asks for more. " +
		"After performing actions, reply with a short summary of what was done."

	// FallbackResponse replaces an empty final answer.
	FallbackResponse = "Action completed"

	// ExhaustedResponse is returned when every turn ended in tool calls.
	ExhaustedResponse = "I've carried out the requested Gmail actions. Ask me for a summary if you need the details."
)

// DefaultTools is the fixed set of Gmail actions offered to the model.
var DefaultTools = []string{
	"GMAIL_FETCH_EMAILS",
	"GMAIL_SEND_EMAIL",
	"GMAIL_CREATE_EMAIL_DRAFT",
	"GMAIL_LIST_DRAFTS",
	"GMAIL_SEND_DRAFT",
	"GMAIL_DELETE_DRAFT",
	"GMAIL_REPLY_TO_THREAD",
	"GMAIL_GET_THREAD",
	"GMAIL_LIST_THREADS",
	"GMAIL_ADD_LABEL_TO_EMAIL",
	"GMAIL_REMOVE_LABEL_FROM_EMAIL",
	"GMAIL_LIST_LABELS",
	"GMAIL_CREATE_LABEL",
}

// Config wires an Agent. Model, Executor, Catalog and Connections are required.
type Config struct {
	Model       Model
	Executor    ToolExecutor
	Catalog     ToolCatalog
	Connections ConnectionChecker

	// UserID is the operator the tools run for.
	UserID string

	// Tools defaults to DefaultTools.
	Tools []string

	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string

	// MaxIterations defaults to DefaultMaxIterations.
	MaxIterations int

	// MaxResultChars defaults to MaxToolResultChars.
	MaxResultChars int

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// Agent runs prompts against the model and the tool-execution provider.
// An Agent holds no per-run state and may serve concurrent runs.
type Agent struct {
	model       Model
	executor    ToolExecutor
	catalog     ToolCatalog
	connections ConnectionChecker

	userID         string
	tools          []string
	systemPrompt   string
	maxIterations  int
	maxResultChars int

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// New validates cfg and applies defaults.
func New(cfg Config) (*Agent, error) {
	if cfg.Model == nil || cfg.Executor == nil {
		return nil, ErrNotConfigured
	}
	if cfg.Catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	if cfg.Connections == nil {
		return nil, errors.New("connection checker is required")
	}

	a := &Agent{
		model:          cfg.Model,
		executor:       cfg.Executor,
		catalog:        cfg.Catalog,
		connections:    cfg.Connections,
		userID:         cfg.UserID,
		tools:          cfg.Tools,
		systemPrompt:   cfg.SystemPrompt,
		maxIterations:  cfg.MaxIterations,
		maxResultChars: cfg.MaxResultChars,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		audit:          cfg.Audit,
	}
	if len(a.tools) == 0 {
		a.tools = DefaultTools
	}
	if a.systemPrompt == "" {
		a.systemPrompt = DefaultSystemPrompt
	}
	if a.maxIterations <= 0 {
		a.maxIterations = DefaultMaxIterations
	}
	if a.maxResultChars <= 0 {
		a.maxResultChars = MaxToolResultChars
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

// ToolResult is one executed tool call as reported to callers.
type ToolResult struct {
	CallID    string `json:"call_id"`
	Tool      string `json:"tool"`
	Result    string `json:"result"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Result is the outcome of a run.
type Result struct {
	RunID       string
	Response    string
	ToolResults []ToolResult
	Iterations  int
	Exhausted   bool
}

// session is the conversation of one run.
type session struct {
	messages []Message
	// results remembers the output per call id so a repeated id is answered
	// without running the tool again.
	results     map[string]string
	toolResults []ToolResult
}

func newSession(systemPrompt, prompt string) *session {
	return &session{
		messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: prompt},
		},
		results: make(map[string]string),
	}
}

// Run answers prompt. It fails with ErrNotAuthenticated when the operator has
// no active Gmail connection; provider and model failures are returned as is.
func (a *Agent) Run(ctx context.Context, prompt string) (*Result, error) {
	runID := uuid.NewString()
	logger := logging.WithRun(logging.WithOperation(a.logger, "agent.run"), runID)

	ctx, span := instrumentation.StartSpan(ctx, "agent.run",
		attribute.String(instrumentation.SpanAttrRunID, runID),
		attribute.String(instrumentation.SpanAttrUserID, a.userID),
	)
	defer span.End()

	result, err := a.run(ctx, logger, runID, prompt)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		a.metrics.RecordAgentRun(ctx, instrumentation.OutcomeFailed, iterationsOf(result))
		logger.Warn("agent run failed", logging.Err(err))
		return nil, err
	}

	outcome := instrumentation.OutcomeAnswered
	if result.Exhausted {
		outcome = instrumentation.OutcomeExhausted
	}
	instrumentation.SetSpanSuccess(span)
	a.metrics.RecordAgentRun(ctx, outcome, result.Iterations)
	logger.Info("agent run finished",
		slog.String("outcome", outcome),
		slog.Int("iterations", result.Iterations),
		slog.Int("tool_calls", len(result.ToolResults)),
	)
	return result, nil
}

func iterationsOf(r *Result) int {
	if r == nil {
		return 0
	}
	return r.Iterations
}

func (a *Agent) run(ctx context.Context, logger *slog.Logger, runID, prompt string) (*Result, error) {
	if !a.connections.CheckConnected(ctx) {
		return nil, ErrNotAuthenticated
	}

	tools, err := a.catalog.Tools(ctx, a.tools)
	if err != nil {
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}

	s := newSession(a.systemPrompt, prompt)
	result := &Result{RunID: runID}

	for i := 1; i <= a.maxIterations; i++ {
		result.Iterations = i

		reply, err := a.complete(ctx, i, s.messages, tools)
		if err != nil {
			return result, err
		}

		if len(reply.ToolCalls) == 0 {
			result.Response = reply.Content
			if strings.TrimSpace(result.Response) == "" {
				result.Response = FallbackResponse
			}
			result.ToolResults = s.toolResults
			return result, nil
		}

		s.messages = append(s.messages, Message{
			Role:      RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		for _, call := range reply.ToolCalls {
			output, err := a.execute(ctx, logger, i, s, call)
			if err != nil {
				return result, err
			}
			s.messages = append(s.messages, Message{
				Role:       RoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	logger.Warn("iteration limit reached without a final answer", slog.Int("max_iterations", a.maxIterations))
	result.Response = ExhaustedResponse
	result.Exhausted = true
	result.ToolResults = s.toolResults
	return result, nil
}

func (a *Agent) complete(ctx context.Context, iteration int, messages []Message, tools []ToolSpec) (Message, error) {
	ctx, span := instrumentation.StartClientSpan(ctx, "model.complete",
		attribute.Int(instrumentation.SpanAttrIteration, iteration),
	)
	defer span.End()

	start := time.Now()
	reply, err := a.model.Complete(ctx, slices.Clone(messages), tools)
	if err != nil {
		a.metrics.RecordModelCall(ctx, instrumentation.StatusError, time.Since(start))
		instrumentation.SetSpanError(span, err)
		return Message{}, fmt.Errorf("model call failed: %w", err)
	}

	a.metrics.RecordModelCall(ctx, instrumentation.StatusSuccess, time.Since(start))
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrToolCalls, len(reply.ToolCalls)))
	instrumentation.SetSpanSuccess(span)
	return reply, nil
}

// execute runs call at most once per call id and returns the string handed
// back to the model.
func (a *Agent) execute(ctx context.Context, logger *slog.Logger, iteration int, s *session, call ToolCall) (string, error) {
	logger = logging.WithTool(logger, call.Name)

	if call.ID != "" {
		if prev, ok := s.results[call.ID]; ok {
			logger.Debug("tool call already executed, reusing result", logging.CallID(call.ID))
			return prev, nil
		}
	}

	if !slices.Contains(a.tools, call.Name) {
		logger.Warn("model requested an undeclared tool", logging.CallID(call.ID))
		output := fmt.Sprintf("Error: tool %q is not available", call.Name)
		a.remember(s, call, output, false)
		return output, nil
	}

	ctx, span := instrumentation.StartClientSpan(ctx, "tool.execute",
		instrumentation.NewSpanAttributeBuilder().
			WithTool(call.Name).
			WithCallID(call.ID).
			WithIteration(iteration).
			WithUser(a.userID).
			Build()...,
	)
	defer span.End()

	invocation := instrumentation.NewToolInvocation(call.Name, call.ID).
		WithUser(a.userID, "").
		WithIteration(iteration).
		WithSpanContext(ctx)

	start := time.Now()
	raw, err := a.executor.Execute(ctx, a.userID, call)
	if err != nil {
		a.metrics.RecordToolExecution(ctx, call.Name, instrumentation.StatusError, time.Since(start))
		instrumentation.SetSpanError(span, err)
		a.audit.LogToolInvocation(invocation.Complete(err))
		return "", fmt.Errorf("tool %s failed: %w", call.Name, err)
	}
	a.metrics.RecordToolExecution(ctx, call.Name, instrumentation.StatusSuccess, time.Since(start))

	output, truncated := Truncate(ResultString(raw), a.maxResultChars)
	if truncated {
		a.metrics.RecordToolResultTruncated(ctx, call.Name)
		span.SetAttributes(attribute.Bool(instrumentation.SpanAttrTruncated, true))
		logger.Debug("tool result truncated", logging.CallID(call.ID), slog.Int("limit", a.maxResultChars))
	}

	instrumentation.SetSpanSuccess(span)
	a.audit.LogToolInvocation(invocation.WithResult(len(output), truncated).Complete(nil))
	a.remember(s, call, output, truncated)
	return output, nil
}

func (a *Agent) remember(s *session, call ToolCall, output string, truncated bool) {
	if call.ID != "" {
		s.results[call.ID] = output
	}
	s.toolResults = append(s.toolResults, ToolResult{
		CallID:    call.ID,
		Tool:      call.Name,
		Result:    output,
		Truncated: truncated,
	})
}

// UserID returns the operator the agent acts for.
func (a *Agent) UserID() string {
	return a.userID
}

// Tools returns the declared tool names.
func (a *Agent) Tools() []string {
	return slices.Clone(a.tools)
}
