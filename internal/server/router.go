package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/mailagent/internal/instrumentation"
)

const requestIDHeader = "X-Request-ID"

// routes are the metric labels of the registered paths.
var routes = []string{
	"/", "/status", "/config", "/authenticate", "/logout", "/query",
	"/send", "/draft", "/emails", "/drafts", "/labels", "/healthz", "/readyz",
	"/healthz/detailed",
}

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RouterConfig wires NewRouter.
type RouterConfig struct {
	Session *Session
	Health  *HealthChecker
	Logger  *slog.Logger
	Version string
}

// NewRouter returns the HTTP surface: the JSON API plus health probes,
// wrapped with request ids, access logging and request metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{session: cfg.Session, logger: logger, version: cfg.Version}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /status", h.status)
	mux.HandleFunc("GET /config", h.getConfig)
	mux.HandleFunc("POST /config", h.updateConfig)
	mux.HandleFunc("POST /authenticate", h.authenticate)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("POST /query", h.query)
	mux.HandleFunc("POST /send", h.emailAction(sendPrompt))
	mux.HandleFunc("POST /draft", h.emailAction(draftPrompt))
	mux.HandleFunc("GET /emails", h.emails)
	mux.HandleFunc("GET /drafts", h.drafts)
	mux.HandleFunc("GET /labels", h.labels)
	if cfg.Health != nil {
		cfg.Health.RegisterHealthEndpoints(mux)
	}

	return withRequestID(withAccessLog(mux, logger, cfg.Session.Metrics()))
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withAccessLog(next http.Handler, logger *slog.Logger, metrics *instrumentation.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Context(), r.Method, instrumentation.RouteLabel(r.URL.Path, routes), rec.status, duration)

		level := slog.LevelInfo
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			level = slog.LevelDebug
		}
		logger.Log(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", duration),
			slog.String("request_id", RequestID(r.Context())),
		)
	})
}
