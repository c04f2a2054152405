package composio

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/teemow/mailagent/internal/agent"
)

// Toolset exposes provider tools to the agent loop. Tool schemas are fetched
// once per distinct name list and then served from memory.
type Toolset struct {
	client *Client

	mu    sync.Mutex
	specs map[string][]agent.ToolSpec
}

// NewToolset wraps client.
func NewToolset(client *Client) *Toolset {
	return &Toolset{
		client: client,
		specs:  make(map[string][]agent.ToolSpec),
	}
}

// Tools implements agent.ToolCatalog.
func (t *Toolset) Tools(ctx context.Context, names []string) ([]agent.ToolSpec, error) {
	key := strings.Join(names, ",")

	t.mu.Lock()
	cached, ok := t.specs[key]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}

	tools, err := t.client.GetTools(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tool schemas: %w", err)
	}

	// Keep the caller's order; the provider may return any.
	slices.SortStableFunc(tools, func(a, b Tool) int {
		return slices.Index(names, a.Slug) - slices.Index(names, b.Slug)
	})

	specs := make([]agent.ToolSpec, 0, len(tools))
	for _, tool := range tools {
		specs = append(specs, agent.ToolSpec{
			Name:        tool.Slug,
			Description: tool.Description,
			Parameters:  tool.InputParameters,
		})
	}

	t.mu.Lock()
	t.specs[key] = specs
	t.mu.Unlock()
	return specs, nil
}

// Execute implements agent.ToolExecutor. Arguments the model produced that are
// not a JSON object, and actions the provider reports as unsuccessful, come
// back as a result describing the failure so the model can react to it.
func (t *Toolset) Execute(ctx context.Context, userID string, call agent.ToolCall) (any, error) {
	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return map[string]any{
				"successful": false,
				"error":      fmt.Sprintf("invalid arguments for %s: %v", call.Name, err),
			}, nil
		}
	}

	resp, err := t.client.ExecuteTool(ctx, call.Name, ExecuteRequest{
		UserID:    userID,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Successful {
		return map[string]any{
			"successful": false,
			"error":      resp.Error,
			"data":       resp.Data,
		}, nil
	}
	return resp.Data, nil
}
