package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/mailagent/internal/composio"
	"github.com/teemow/mailagent/internal/config"
)

// backends fakes the tool-execution provider and the model deployment.
type backends struct {
	connected atomic.Bool
	executed  atomic.Int32
	initiated atomic.Int32

	mu      sync.Mutex
	prompts []string

	composio *httptest.Server
	azure    *httptest.Server
}

func newBackends(t *testing.T) *backends {
	t.Helper()
	b := &backends{}
	b.composio = httptest.NewServer(http.HandlerFunc(b.serveComposio))
	b.azure = httptest.NewServer(http.HandlerFunc(b.serveAzure))
	t.Cleanup(b.composio.Close)
	t.Cleanup(b.azure.Close)
	return b
}

func (b *backends) serveComposio(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v3/connected_accounts":
		items := []map[string]any{}
		if b.connected.Load() {
			items = append(items, map[string]any{"id": "ca_1", "status": composio.StatusActive})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v3/connected_accounts":
		b.initiated.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ca_new", "status": composio.StatusInitiated, "redirect_url": "https://auth.example.com/start"})
	case r.Method == http.MethodGet && r.URL.Path == "/api/v3/connected_accounts/ca_new":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "ca_new", "status": composio.StatusActive})
	case r.Method == http.MethodGet && r.URL.Path == "/api/v3/auth_configs":
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
			{"id": "ac_1", "toolkit": map[string]string{"slug": "gmail"}},
		}})
	case r.Method == http.MethodGet && r.URL.Path == "/api/v3/tools":
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{
			{"slug": "GMAIL_LIST_LABELS", "description": "List labels", "input_parameters": map[string]any{"type": "object"}},
		}})
	case r.Method == http.MethodPost && r.URL.Path == "/api/v3/tools/execute/GMAIL_LIST_LABELS":
		b.executed.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":       map[string]any{"labels": []string{"INBOX", "SENT"}},
			"successful": true,
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}
}

// serveAzure asks for GMAIL_LIST_LABELS on the first turn and answers once a
// tool result is in the conversation.
func (b *backends) serveAzure(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(raw, &body)

	last := body.Messages[len(body.Messages)-1]
	if len(body.Messages) >= 2 {
		b.mu.Lock()
		b.prompts = append(b.prompts, fmt.Sprint(body.Messages[1].Content))
		b.mu.Unlock()
	}

	w.Header().Set("Content-Type", "application/json")
	if last.Role == "tool" {
		_, _ = w.Write([]byte(`{"id":"c2","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"You have 2 labels: INBOX and SENT."}}]}`))
		return
	}
	_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"GMAIL_LIST_LABELS","arguments":"{}"}}]}}]}`))
}

func (b *backends) lastPrompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.prompts) == 0 {
		return ""
	}
	return b.prompts[len(b.prompts)-1]
}

type recordingNotifier struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNotifier) NotifyAuthURL(url string, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urls = append(n.urls, url)
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range config.SettableKeys() {
		if env := config.EnvVar(key); env != "" {
			t.Setenv(env, "")
		}
	}
}

func configure(t *testing.T, creds *config.Credentials, b *backends) {
	t.Helper()
	require.NoError(t, creds.SetMany(map[string]string{
		config.KeyComposioAPIKey:      "ck_test",
		config.KeyOpenAIAPIKey:        "azure-key",
		config.KeyAzureOpenAIEndpoint: b.azure.URL,
	}))
}

func newTestSession(t *testing.T, b *backends, configured bool) *Session {
	t.Helper()
	clearCredentialEnv(t)
	dir := t.TempDir()
	creds := config.LoadCredentials(dir)
	if configured {
		configure(t, creds, b)
	}
	return NewSession(SessionConfig{
		Credentials: creds,
		State:       config.LoadAuthState(dir),
		Notifier:    &recordingNotifier{},
		OpenBrowser: func(string) error { return nil },
		AuthTimeout: 2 * time.Second,
		ComposioOptions: []composio.Option{
			composio.WithBaseURL(b.composio.URL),
			composio.WithPollInterval(5 * time.Millisecond),
		},
	})
}

func newTestRouter(t *testing.T, s *Session) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{Session: s, Health: NewHealthChecker(s), Version: "test"})
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}
