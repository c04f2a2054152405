package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/teemow/mailagent/internal/agent"
	"github.com/teemow/mailagent/internal/auth"
	"github.com/teemow/mailagent/internal/config"
	"github.com/teemow/mailagent/internal/logging"
)

// configBodyKeys are the credentials POST /config accepts.
var configBodyKeys = []string{
	config.KeyComposioAPIKey,
	config.KeyOpenAIAPIKey,
	config.KeyAzureOpenAIEndpoint,
	config.KeyOpenAIAPIVersion,
	config.KeyAzureOpenAIDeployment,
	config.KeyGmailClientID,
	config.KeyGmailClientSecret,
	config.KeyUserID,
}

// endpointDocs is served at GET /.
var endpointDocs = map[string]string{
	"GET /":              "API documentation",
	"GET /status":        "Check authentication status",
	"GET /config":        "View current configuration (masked)",
	"POST /config":       "Update configuration",
	"POST /authenticate": "Initiate Gmail authentication",
	"POST /logout":       "Clear authentication",
	"POST /query":        "Execute Gmail action with natural language",
	"POST /send":         "Send an email",
	"POST /draft":        "Create an email draft",
	"GET /emails":        "Fetch recent emails",
	"GET /drafts":        "List email drafts",
	"GET /labels":        "List Gmail labels",
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

type agentResponse struct {
	Success     bool               `json:"success"`
	Response    string             `json:"response"`
	ToolResults []agent.ToolResult `json:"tool_results"`
}

type messageResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ConnectionID string `json:"connection_id,omitempty"`
	Configured   *bool  `json:"configured,omitempty"`
}

type handlers struct {
	session *Session
	logger  *slog.Logger
	version string
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps an operation error to a status code. Configuration errors
// carry the missing credential names.
func (h *handlers) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var cfgErr *agent.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing credentials", Missing: cfgErr.Missing})
	case errors.Is(err, agent.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAuthTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logging.Err(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
		return nil, false
	}
	return body, true
}

func stringField(body map[string]any, key string) string {
	switch v := body[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func intQuery(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (h *handlers) home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "Email Agent API",
		"version":     h.version,
		"description": "Gmail actions powered by Composio",
		"endpoints":   endpointDocs,
	})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Status(r.Context()))
}

func (h *handlers) getConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, config.Masked(h.session.Credentials(), h.session.State()))
}

func (h *handlers) updateConfig(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	values := make(map[string]string, len(configBodyKeys))
	for _, key := range configBodyKeys {
		values[key] = strings.TrimSpace(stringField(body, key))
	}
	if err := h.session.Credentials().SetMany(values); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	resp := messageResponse{Success: true, Message: "Configuration updated"}
	if err := h.session.Reload(); err != nil {
		resp.Message = "Configuration saved but clients not initialized: " + err.Error()
	}
	configured := h.session.Credentials().IsConfigured()
	resp.Configured = &configured
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) authenticate(w http.ResponseWriter, r *http.Request) {
	creds := h.session.Credentials()
	if !creds.IsConfigured() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing credentials", Missing: creds.Missing()})
		return
	}

	if err := h.session.Reload(); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	res, err := h.session.Authenticate(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	msg := "Authentication successful"
	if res.AlreadyConnected {
		msg = "Already authenticated"
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: msg, ConnectionID: res.ConnectionID})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Authentication cleared"})
}

func (h *handlers) runPrompt(w http.ResponseWriter, r *http.Request, prompt string) {
	res, err := h.session.Query(r.Context(), prompt)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	toolResults := res.ToolResults
	if toolResults == nil {
		toolResults = []agent.ToolResult{}
	}
	writeJSON(w, http.StatusOK, agentResponse{Success: true, Response: res.Response, ToolResults: toolResults})
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(r)
	q := stringField(body, "query")
	if !ok || strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "Missing 'query' in request body")
		return
	}
	h.runPrompt(w, r, q)
}

func emailRequest(body map[string]any) (EmailRequest, []string) {
	req := EmailRequest{
		To:      stringField(body, "to"),
		Subject: stringField(body, "subject"),
		Body:    stringField(body, "body"),
		CC:      stringField(body, "cc"),
		BCC:     stringField(body, "bcc"),
	}
	var missing []string
	for _, name := range []string{"to", "subject", "body"} {
		if _, present := body[name]; !present {
			missing = append(missing, name)
		}
	}
	return req, missing
}

func (h *handlers) emailAction(build func(EmailRequest) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := decodeBody(r)
		req, missing := emailRequest(body)
		if len(missing) > 0 {
			writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
			return
		}
		h.runPrompt(w, r, build(req))
	}
}

func (h *handlers) emails(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		label = defaultLabel
	}
	h.runPrompt(w, r, emailsPrompt(intQuery(r, "max", defaultMaxResults), label))
}

func (h *handlers) drafts(w http.ResponseWriter, r *http.Request) {
	h.runPrompt(w, r, draftsPrompt(intQuery(r, "max", defaultMaxResults)))
}

func (h *handlers) labels(w http.ResponseWriter, r *http.Request) {
	h.runPrompt(w, r, labelsPrompt)
}
