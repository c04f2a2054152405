package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthState_PersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	state := LoadAuthState(dir)
	assert.False(t, state.IsAuthenticated())

	require.NoError(t, state.SetAuthConfigID("ac_123"))
	require.NoError(t, state.SetConnectionID("ca_456"))

	reloaded := LoadAuthState(dir)
	assert.Equal(t, "ac_123", reloaded.AuthConfigID())
	assert.Equal(t, "ca_456", reloaded.ConnectionID())
	assert.True(t, reloaded.IsAuthenticated())
}

func TestAuthState_ClearRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	state := LoadAuthState(dir)
	require.NoError(t, state.SetAuthConfigID("ac_123"))
	require.NoError(t, state.SetConnectionID("ca_456"))

	require.NoError(t, state.Clear())

	assert.Empty(t, state.ConnectionID())
	assert.Empty(t, state.AuthConfigID())

	data, err := os.ReadFile(filepath.Join(dir, AuthStateFile))
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Empty(t, onDisk)
}

func TestAuthState_CorruptFileLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AuthStateFile), []byte("]]"), 0o600))

	state := LoadAuthState(dir)
	assert.Empty(t, state.ConnectionID())
	assert.False(t, state.IsAuthenticated())
}

func TestMasked(t *testing.T) {
	clearCredentialEnv(t)
	dir := t.TempDir()
	creds := LoadCredentials(dir)
	state := LoadAuthState(dir)

	view := Masked(creds, state)
	assert.Nil(t, view.ComposioAPIKey)
	assert.Nil(t, view.ConnectionID)
	assert.False(t, view.IsConfigured)
	assert.Equal(t, DefaultUserID, view.UserID)

	require.NoError(t, creds.SetMany(map[string]string{
		KeyComposioAPIKey:      "ck-secret",
		KeyOpenAIAPIKey:        "sk-secret",
		KeyAzureOpenAIEndpoint: "https://example.openai.azure.com",
		KeyGmailClientSecret:   "gs-secret",
	}))
	require.NoError(t, state.SetConnectionID("ca_1"))

	view = Masked(creds, state)
	require.NotNil(t, view.ComposioAPIKey)
	assert.Equal(t, "***", *view.ComposioAPIKey)
	assert.Equal(t, "***", *view.GmailClientSecret)
	assert.Nil(t, view.GmailClientID)
	assert.Equal(t, "https://example.openai.azure.com", *view.AzureOpenAIEndpoint)
	assert.Equal(t, "ca_1", *view.ConnectionID)
	assert.True(t, view.IsConfigured)
	assert.True(t, view.IsAuthenticated)

	encoded, err := json.Marshal(view)
	require.NoError(t, err)
	for _, stored := range []string{"ck-secret", "sk-secret", "gs-secret"} {
		assert.NotContains(t, string(encoded), stored)
	}
	assert.Contains(t, string(encoded), `"gmail_client_secret":"***"`)
}
