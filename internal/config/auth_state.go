package config

import "path/filepath"

const (
	keyConnectionID      = "connection_id"
	keyGmailAuthConfigID = "gmail_auth_config_id"
)

// AuthState tracks the provider-side Gmail connection and the reusable auth
// configuration. The connection id is only as fresh as the last provider
// query that recorded it.
type AuthState struct {
	rec *record
}

// LoadAuthState opens auth_config.json in dir. An absent or corrupt file
// yields an empty state.
func LoadAuthState(dir string) *AuthState {
	return &AuthState{rec: loadRecord(filepath.Join(dir, AuthStateFile))}
}

func (a *AuthState) ConnectionID() string { return a.rec.get(keyConnectionID) }

func (a *AuthState) SetConnectionID(id string) error {
	return a.rec.set(keyConnectionID, id)
}

func (a *AuthState) AuthConfigID() string { return a.rec.get(keyGmailAuthConfigID) }

func (a *AuthState) SetAuthConfigID(id string) error {
	return a.rec.set(keyGmailAuthConfigID, id)
}

// IsAuthenticated reports whether a connection id has been recorded.
func (a *AuthState) IsAuthenticated() bool {
	return a.ConnectionID() != ""
}

// Clear forgets both identifiers.
func (a *AuthState) Clear() error {
	return a.rec.reset()
}
