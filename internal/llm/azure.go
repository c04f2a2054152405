package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mailagent/internal/agent"
	"github.com/teemow/mailagent/internal/instrumentation"
)

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 120 * time.Second

// ErrEmptyResponse is returned when the deployment answers without choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Config describes an Azure OpenAI deployment.
type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client implements agent.Model on top of openai-go.
type Client struct {
	api        openai.Client
	deployment string
	logger     *slog.Logger
}

// New validates cfg and builds the underlying openai-go client. Retries are
// disabled; a failed call fails the run.
func New(cfg Config) (*Client, error) {
	var missing []string
	if cfg.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if cfg.APIKey == "" {
		missing = append(missing, "api key")
	}
	if cfg.APIVersion == "" {
		missing = append(missing, "api version")
	}
	if cfg.Deployment == "" {
		missing = append(missing, "deployment")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("azure openai config incomplete: missing %s", strings.Join(missing, ", "))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(strings.TrimRight(cfg.Endpoint, "/"), cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:        openai.NewClient(opts...),
		deployment: cfg.Deployment,
		logger:     logger,
	}, nil
}

// Deployment returns the deployment name requests are sent to.
func (c *Client) Deployment() string {
	return c.deployment
}

// Complete sends the conversation and the declared tools to the deployment
// and returns the first choice as an assistant message.
func (c *Client) Complete(ctx context.Context, messages []agent.Message, tools []agent.ToolSpec) (agent.Message, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(instrumentation.SpanAttrDeployment, c.deployment),
	)

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.deployment),
		Messages: toParams(messages),
	}
	if len(tools) > 0 {
		params.Tools = toToolParams(tools)
	}

	start := time.Now()
	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return agent.Message{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return agent.Message{}, ErrEmptyResponse
	}

	reply := fromCompletion(completion.Choices[0].Message)
	c.logger.Debug("chat completion received",
		slog.String("deployment", c.deployment),
		slog.Int("tool_calls", len(reply.ToolCalls)),
		slog.String("finish_reason", completion.Choices[0].FinishReason),
		slog.Duration("duration", time.Since(start)),
	)
	return reply, nil
}
