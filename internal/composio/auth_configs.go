package composio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ListAuthConfigs returns the auth configs of the project, optionally
// filtered to one toolkit.
func (c *Client) ListAuthConfigs(ctx context.Context, toolkit string) ([]AuthConfig, error) {
	var out listResponse[AuthConfig]
	req := c.request(ctx).
		SetQueryParamsFromValues(queryValues("toolkit_slug", toolkit))
	if err := do(req, http.MethodGet, "/api/v3/auth_configs", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateAuthConfig creates an auth config. Custom configs carry the OAuth
// client credentials and scopes; managed configs use the provider's own app.
func (c *Client) CreateAuthConfig(ctx context.Context, in CreateAuthConfigRequest) (*AuthConfig, error) {
	authConfig := map[string]any{"type": in.Type}
	if in.Name != "" {
		authConfig["name"] = in.Name
	}
	if in.Type == AuthTypeCustom {
		authConfig["authScheme"] = AuthSchemeOAuth
		credentials := map[string]any{
			"client_id":     in.ClientID,
			"client_secret": in.ClientSecret,
		}
		if len(in.Scopes) > 0 {
			credentials["scopes"] = strings.Join(in.Scopes, ",")
		}
		authConfig["credentials"] = credentials
	}

	body := map[string]any{
		"toolkit":     map[string]string{"slug": in.Toolkit},
		"auth_config": authConfig,
	}

	var out struct {
		Toolkit    ToolkitRef `json:"toolkit"`
		AuthConfig AuthConfig `json:"auth_config"`
	}
	req := c.request(ctx).SetBody(body)
	if err := do(req, http.MethodPost, "/api/v3/auth_configs", &out); err != nil {
		return nil, err
	}
	if out.AuthConfig.ID == "" {
		return nil, fmt.Errorf("auth config creation returned no id")
	}
	if out.AuthConfig.Toolkit.Slug == "" {
		out.AuthConfig.Toolkit = out.Toolkit
	}
	return &out.AuthConfig, nil
}
