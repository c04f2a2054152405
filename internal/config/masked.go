package config

const maskedValue = "***"

// MaskedView is the configuration as shown to API callers, with secrets
// replaced by a fixed mask.
type MaskedView struct {
	ComposioAPIKey        *string `json:"composio_api_key"`
	OpenAIAPIKey          *string `json:"openai_api_key"`
	AzureOpenAIEndpoint   *string `json:"azure_openai_endpoint"`
	OpenAIAPIVersion      string  `json:"openai_api_version"`
	AzureOpenAIDeployment string  `json:"azure_openai_deployment"`
	GmailClientID         *string `json:"gmail_client_id"`
	GmailClientSecret     *string `json:"gmail_client_secret"`
	UserID                string  `json:"user_id"`
	ConnectionID          *string `json:"connection_id"`
	GmailAuthConfigID     *string `json:"gmail_auth_config_id"`
	IsConfigured          bool    `json:"is_configured"`
	IsAuthenticated       bool    `json:"is_authenticated"`
}

// Masked builds the masked view of creds and state.
func Masked(creds *Credentials, state *AuthState) MaskedView {
	return MaskedView{
		ComposioAPIKey:        mask(creds.ComposioAPIKey()),
		OpenAIAPIKey:          mask(creds.OpenAIAPIKey()),
		AzureOpenAIEndpoint:   optional(creds.AzureOpenAIEndpoint()),
		OpenAIAPIVersion:      creds.OpenAIAPIVersion(),
		AzureOpenAIDeployment: creds.Deployment(),
		GmailClientID:         mask(creds.GmailClientID()),
		GmailClientSecret:     mask(creds.GmailClientSecret()),
		UserID:                creds.UserID(),
		ConnectionID:          optional(state.ConnectionID()),
		GmailAuthConfigID:     optional(state.AuthConfigID()),
		IsConfigured:          creds.IsConfigured(),
		IsAuthenticated:       state.IsAuthenticated(),
	}
}

func mask(v string) *string {
	if v == "" {
		return nil
	}
	m := maskedValue
	return &m
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
