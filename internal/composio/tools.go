package composio

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// GetTools fetches the schemas of the named tools. Unknown slugs are simply
// absent from the result.
func (c *Client) GetTools(ctx context.Context, slugs []string) ([]Tool, error) {
	var out listResponse[Tool]
	req := c.request(ctx).
		SetQueryParamsFromValues(queryValues(
			"tool_slugs", joinQuery(slugs),
			"limit", strconv.Itoa(len(slugs)),
		))
	if err := do(req, http.MethodGet, "/api/v3/tools", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ExecuteTool runs one tool for a user. A provider-side action failure is
// reported through ExecuteResponse.Successful, not as an error.
func (c *Client) ExecuteTool(ctx context.Context, slug string, in ExecuteRequest) (*ExecuteResponse, error) {
	if in.Arguments == nil {
		in.Arguments = map[string]any{}
	}

	var out ExecuteResponse
	req := c.request(ctx).SetPathParam("slug", slug).SetBody(in)
	if err := do(req, http.MethodPost, "/api/v3/tools/execute/{slug}", &out); err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", slug, err)
	}
	return &out, nil
}
