package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	b := newBackends(t)
	s := newTestSession(t, b, false)
	health := NewHealthChecker(s)
	h := NewRouter(RouterConfig{Session: s, Health: health, Version: "test"})

	rec, body := doRequest(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	// Ready from construction, even in limited mode.
	rec, body = doRequest(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "limited", checks["clients"])

	health.SetReady(false)
	rec, body = doRequest(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])

	health.SetReady(true)
	rec, _ = doRequest(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = doRequest(t, h, http.MethodGet, "/healthz/detailed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["configured"])
	assert.NotEmpty(t, body["uptime"])

	health.MarkShuttingDown()
	rec, body = doRequest(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting down", body["checks"].(map[string]any)["shutdown"])

	rec, body = doRequest(t, h, http.MethodGet, "/healthz/detailed", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting down", body["status"])
}

func TestReadinessReportsClients(t *testing.T) {
	b := newBackends(t)
	s := newTestSession(t, b, true)
	health := NewHealthChecker(s)
	health.SetReady(true)
	h := NewRouter(RouterConfig{Session: s, Health: health})

	rec, body := doRequest(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["checks"].(map[string]any)["clients"])
}
