package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailagent/internal/config"
)

func TestHome(t *testing.T) {
	b := newBackends(t)
	h := newTestRouter(t, newTestSession(t, b, false))

	rec, body := doRequest(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email Agent API", body["name"])
	assert.Equal(t, "test", body["version"])
	endpoints, ok := body["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, endpoints, "POST /query")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestUnknownPathAndMethod(t *testing.T) {
	b := newBackends(t)
	h := newTestRouter(t, newTestSession(t, b, false))

	rec, _ := doRequest(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doRequest(t, h, http.MethodGet, "/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatus(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		b := newBackends(t)
		h := newTestRouter(t, newTestSession(t, b, false))

		rec, body := doRequest(t, h, http.MethodGet, "/status", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["configured"])
		assert.Equal(t, false, body["authenticated"])
		assert.Equal(t, config.DefaultUserID, body["user_id"])
		assert.Equal(t, []any{"composio_api_key", "openai_api_key", "azure_openai_endpoint"}, body["missing_credentials"])
	})

	t.Run("configured and connected", func(t *testing.T) {
		b := newBackends(t)
		b.connected.Store(true)
		s := newTestSession(t, b, true)
		h := newTestRouter(t, s)

		rec, body := doRequest(t, h, http.MethodGet, "/status", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["configured"])
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, []any{}, body["missing_credentials"])
		assert.Equal(t, "ca_1", s.State().ConnectionID())
	})

	t.Run("provider down reports not authenticated", func(t *testing.T) {
		b := newBackends(t)
		s := newTestSession(t, b, true)
		b.composio.Close()
		h := newTestRouter(t, s)

		rec, body := doRequest(t, h, http.MethodGet, "/status", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["authenticated"])
	})
}

func TestGetConfigMasksSecrets(t *testing.T) {
	b := newBackends(t)
	h := newTestRouter(t, newTestSession(t, b, true))

	rec, body := doRequest(t, h, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "***", body["composio_api_key"])
	assert.Equal(t, "***", body["openai_api_key"])
	assert.Equal(t, b.azure.URL, body["azure_openai_endpoint"])
	assert.Nil(t, body["gmail_client_id"])
	assert.Nil(t, body["connection_id"])
	assert.Equal(t, true, body["is_configured"])
}

func TestUpdateConfig(t *testing.T) {
	b := newBackends(t)
	s := newTestSession(t, b, false)
	h := newTestRouter(t, s)

	rec, body := doRequest(t, h, http.MethodPost, "/config", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No data provided", body["error"])

	rec, body = doRequest(t, h, http.MethodPost, "/config", `{"composio_api_key":"ck_test"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["configured"])
	assert.Contains(t, body["message"], "Configuration saved but clients not initialized")

	rec, body = doRequest(t, h, http.MethodPost, "/config",
		`{"openai_api_key":"azure-key","azure_openai_endpoint":"`+b.azure.URL+`","user_id":"","server_port":"1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Configuration updated", body["message"])
	assert.Equal(t, true, body["configured"])

	// Empty values do not overwrite and unlisted keys are ignored.
	assert.Equal(t, config.DefaultUserID, s.Credentials().UserID())
	assert.Equal(t, config.DefaultServerPort, s.Credentials().ServerPort())

	_, err := s.Agent()
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		b := newBackends(t)
		h := newTestRouter(t, newTestSession(t, b, false))

		rec, body := doRequest(t, h, http.MethodPost, "/authenticate", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing credentials", body["error"])
		assert.Len(t, body["missing"], 3)
	})

	t.Run("already authenticated", func(t *testing.T) {
		b := newBackends(t)
		b.connected.Store(true)
		h := newTestRouter(t, newTestSession(t, b, true))

		rec, body := doRequest(t, h, http.MethodPost, "/authenticate", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Already authenticated", body["message"])
		assert.Equal(t, "ca_1", body["connection_id"])
		assert.Equal(t, int32(0), b.initiated.Load())
	})

	t.Run("new connection", func(t *testing.T) {
		b := newBackends(t)
		s := newTestSession(t, b, true)
		h := newTestRouter(t, s)

		rec, body := doRequest(t, h, http.MethodPost, "/authenticate", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Authentication successful", body["message"])
		assert.Equal(t, "ca_new", body["connection_id"])
		assert.Equal(t, "ca_new", s.State().ConnectionID())
		assert.Equal(t, "ac_1", s.State().AuthConfigID())
	})
}

func TestLogout(t *testing.T) {
	b := newBackends(t)
	s := newTestSession(t, b, false)
	require.NoError(t, s.State().SetConnectionID("ca_1"))
	h := newTestRouter(t, s)

	rec, body := doRequest(t, h, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Authentication cleared", body["message"])
	assert.Empty(t, s.State().ConnectionID())
}

func TestQuery(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		b := newBackends(t)
		h := newTestRouter(t, newTestSession(t, b, true))

		rec, body := doRequest(t, h, http.MethodPost, "/query", `{"prompt":"hi"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing 'query' in request body", body["error"])
	})

	t.Run("unconfigured", func(t *testing.T) {
		b := newBackends(t)
		h := newTestRouter(t, newTestSession(t, b, false))

		rec, body := doRequest(t, h, http.MethodPost, "/query", `{"query":"labels?"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing credentials", body["error"])
	})

	t.Run("not authenticated", func(t *testing.T) {
		b := newBackends(t)
		h := newTestRouter(t, newTestSession(t, b, true))

		rec, body := doRequest(t, h, http.MethodPost, "/query", `{"query":"labels?"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, body["error"], "not authenticated")
		assert.Equal(t, int32(0), b.executed.Load())
	})

	t.Run("runs the agent", func(t *testing.T) {
		b := newBackends(t)
		b.connected.Store(true)
		h := newTestRouter(t, newTestSession(t, b, true))

		rec, body := doRequest(t, h, http.MethodPost, "/query", `{"query":"What labels do I have?"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "You have 2 labels: INBOX and SENT.", body["response"])

		results, ok := body["tool_results"].([]any)
		require.True(t, ok)
		require.Len(t, results, 1)
		first := results[0].(map[string]any)
		assert.Equal(t, "call_1", first["call_id"])
		assert.Equal(t, "GMAIL_LIST_LABELS", first["tool"])
		assert.JSONEq(t, `{"labels":["INBOX","SENT"]}`, first["result"].(string))

		assert.Equal(t, int32(1), b.executed.Load())
		assert.Equal(t, "What labels do I have?", b.lastPrompt())
	})
}

func TestEmailActions(t *testing.T) {
	b := newBackends(t)
	b.connected.Store(true)
	h := newTestRouter(t, newTestSession(t, b, true))

	rec, body := doRequest(t, h, http.MethodPost, "/send", `{"to":"a@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: subject, body", body["error"])

	rec, _ = doRequest(t, h, http.MethodPost, "/send", `{"to":"a@example.com","subject":"Hi","body":"Hello","bcc":"b@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, b.lastPrompt(), "Send an email to a@example.com")
	assert.Contains(t, b.lastPrompt(), "BCC: b@example.com")

	rec, _ = doRequest(t, h, http.MethodPost, "/draft", `{"to":"a@example.com","subject":"Hi","body":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, b.lastPrompt(), "Create an email draft to a@example.com")

	rec, _ = doRequest(t, h, http.MethodGet, "/emails?max=3&label=SENT", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, b.lastPrompt(), "Fetch the 3 most recent emails from the SENT folder")

	rec, _ = doRequest(t, h, http.MethodGet, "/emails?max=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, b.lastPrompt(), "Fetch the 10 most recent emails from the INBOX folder")

	rec, _ = doRequest(t, h, http.MethodGet, "/drafts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, b.lastPrompt(), "List my 10 most recent email drafts")

	rec, _ = doRequest(t, h, http.MethodGet, "/labels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, labelsPrompt, b.lastPrompt())
}
