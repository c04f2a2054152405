package composio

// Toolkit slug of the Gmail integration.
const ToolkitGmail = "gmail"

// Connected account statuses reported by the provider.
const (
	StatusActive       = "ACTIVE"
	StatusInitiated    = "INITIATED"
	StatusInitializing = "INITIALIZING"
	StatusFailed       = "FAILED"
	StatusExpired      = "EXPIRED"
	StatusInactive     = "INACTIVE"
)

// Auth config creation modes.
const (
	AuthTypeCustom  = "use_custom_auth"
	AuthTypeManaged = "use_composio_managed_auth"
	AuthSchemeOAuth = "OAUTH2"
)

// ToolkitRef names a toolkit inside other records.
type ToolkitRef struct {
	Slug string `json:"slug"`
}

// ConnectedAccount is one authorized link between a user and a toolkit.
type ConnectedAccount struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	UserID     string        `json:"user_id,omitempty"`
	Toolkit    ToolkitRef    `json:"toolkit"`
	AuthConfig AuthConfigRef `json:"auth_config"`
}

// IsActive reports whether the provider considers the connection usable.
func (a ConnectedAccount) IsActive() bool {
	return a.Status == StatusActive
}

// AuthConfigRef names an auth config inside other records.
type AuthConfigRef struct {
	ID string `json:"id"`
}

// AuthConfig describes how OAuth for a toolkit is performed.
type AuthConfig struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Toolkit    ToolkitRef `json:"toolkit"`
	AuthScheme string     `json:"auth_scheme,omitempty"`
	Status     string     `json:"status,omitempty"`
}

// CreateAuthConfigRequest creates an auth config for a toolkit. Credentials
// are only sent for AuthTypeCustom.
type CreateAuthConfigRequest struct {
	Toolkit      string
	Name         string
	Type         string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// ConnectionRequest is the provider's answer to an initiated connection.
// The operator completes OAuth at RedirectURL; the connection identified by
// ID then turns ACTIVE.
type ConnectionRequest struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// URL returns the authorization URL regardless of which field carried it.
func (r ConnectionRequest) URL() string {
	if r.RedirectURL != "" {
		return r.RedirectURL
	}
	return r.RedirectURI
}

// Tool is the schema of one provider action.
type Tool struct {
	Slug            string         `json:"slug"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	InputParameters map[string]any `json:"input_parameters"`
}

// ExecuteRequest runs a tool for a user.
type ExecuteRequest struct {
	UserID             string         `json:"user_id"`
	ConnectedAccountID string         `json:"connected_account_id,omitempty"`
	Arguments          map[string]any `json:"arguments"`
}

// ExecuteResponse is the provider's tool result. Successful is false when the
// action itself failed (for example an unknown draft id); the HTTP call still
// succeeded.
type ExecuteResponse struct {
	Data       any    `json:"data"`
	Error      any    `json:"error"`
	Successful bool   `json:"successful"`
	LogID      string `json:"log_id,omitempty"`
}

type listResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
