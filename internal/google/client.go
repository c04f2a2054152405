package google

import (
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// ClientConfig returns the OAuth2 configuration of the operator's own Google
// client, or nil when either half of the credentials is missing.
func ClientConfig(clientID, clientSecret string) *oauth2.Config {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       append([]string(nil), GmailScopes...),
	}
}

// HasClient reports whether cfg describes a usable client.
func HasClient(cfg *oauth2.Config) bool {
	return cfg != nil && cfg.ClientID != "" && cfg.ClientSecret != ""
}
