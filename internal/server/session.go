package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/mailagent/internal/agent"
	"github.com/teemow/mailagent/internal/auth"
	"github.com/teemow/mailagent/internal/composio"
	"github.com/teemow/mailagent/internal/config"
	"github.com/teemow/mailagent/internal/google"
	"github.com/teemow/mailagent/internal/instrumentation"
	"github.com/teemow/mailagent/internal/llm"
	"github.com/teemow/mailagent/internal/logging"
)

// SessionConfig holds what a Session needs besides the credentials.
type SessionConfig struct {
	Credentials *config.Credentials
	State       *config.AuthState

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger

	// Notifier and OpenBrowser are handed to the auth manager.
	Notifier    auth.Notifier
	OpenBrowser func(url string) error
	AuthTimeout time.Duration

	// ComposioOptions and ModelHTTPClient override provider transports.
	ComposioOptions []composio.Option
	ModelHTTPClient *http.Client
}

// Session owns the provider clients built from the current credentials. The
// clients are absent until the credentials are complete; Reload rebuilds them
// after the credentials changed.
type Session struct {
	creds   *config.Credentials
	state   *config.AuthState
	cfg     SessionConfig
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu    sync.RWMutex
	agent *agent.Agent
	auth  *auth.Manager
}

// NewSession creates a session and tries to build the clients. Missing
// credentials leave the session in limited mode.
func NewSession(cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		creds:   cfg.Credentials,
		state:   cfg.State,
		cfg:     cfg,
		logger:  logger,
		metrics: cfg.Metrics,
	}
	if err := s.Reload(); err != nil {
		logger.Debug("session started without provider clients", slog.String("reason", err.Error()))
	}
	return s
}

// Credentials returns the credential store.
func (s *Session) Credentials() *config.Credentials {
	return s.creds
}

// State returns the auth state store.
func (s *Session) State() *config.AuthState {
	return s.state
}

// Metrics returns the metrics the session was created with, possibly nil.
func (s *Session) Metrics() *instrumentation.Metrics {
	return s.metrics
}

// AuditLogger returns the tool audit logger, possibly nil.
func (s *Session) AuditLogger() *instrumentation.AuditLogger {
	return s.cfg.Audit
}

// Reload rebuilds the clients from the current credentials. When credentials
// are missing the clients are dropped and a *agent.ConfigurationError is
// returned.
func (s *Session) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agent = nil
	s.auth = nil

	if !s.creds.IsConfigured() {
		return &agent.ConfigurationError{Missing: s.creds.Missing()}
	}

	userID := s.creds.UserID()
	provider := composio.New(s.creds.ComposioAPIKey(), s.cfg.ComposioOptions...)

	model, err := llm.New(llm.Config{
		Endpoint:   s.creds.AzureOpenAIEndpoint(),
		APIKey:     s.creds.OpenAIAPIKey(),
		APIVersion: s.creds.OpenAIAPIVersion(),
		Deployment: s.creds.Deployment(),
		HTTPClient: s.cfg.ModelHTTPClient,
		Logger:     s.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	manager, err := auth.NewManager(auth.Config{
		Provider:    provider,
		State:       s.state,
		UserID:      userID,
		OAuthClient: google.ClientConfig(s.creds.GmailClientID(), s.creds.GmailClientSecret()),
		Timeout:     s.cfg.AuthTimeout,
		Notifier:    s.cfg.Notifier,
		OpenBrowser: s.cfg.OpenBrowser,
		Logger:      s.logger,
		Metrics:     s.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth manager: %w", err)
	}

	toolset := composio.NewToolset(provider)
	a, err := agent.New(agent.Config{
		Model:       model,
		Executor:    toolset,
		Catalog:     toolset,
		Connections: manager,
		UserID:      userID,
		Logger:      s.logger,
		Metrics:     s.metrics,
		Audit:       s.cfg.Audit,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	s.agent = a
	s.auth = manager
	s.logger.Info("provider clients initialized",
		logging.UserID(userID),
		slog.String("deployment", model.Deployment()),
	)
	return nil
}

// Agent returns the agent, or a *agent.ConfigurationError when the clients
// are not available.
func (s *Session) Agent() (*agent.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.agent == nil {
		return nil, s.notConfigured()
	}
	return s.agent, nil
}

// Auth returns the auth manager, or a *agent.ConfigurationError when the
// clients are not available.
func (s *Session) Auth() (*auth.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.auth == nil {
		return nil, s.notConfigured()
	}
	return s.auth, nil
}

func (s *Session) notConfigured() error {
	return &agent.ConfigurationError{Missing: s.creds.Missing()}
}

// Status is the configuration and authentication state reported to callers.
type Status struct {
	Configured         bool     `json:"configured"`
	Authenticated      bool     `json:"authenticated"`
	UserID             string   `json:"user_id"`
	MissingCredentials []string `json:"missing_credentials"`
}

// Status checks the connection at the provider. It never fails: provider
// errors report as not authenticated.
func (s *Session) Status(ctx context.Context) Status {
	st := Status{
		Configured:         s.creds.IsConfigured(),
		UserID:             s.creds.UserID(),
		MissingCredentials: []string{},
	}
	if !st.Configured {
		st.MissingCredentials = s.creds.Missing()
	}
	if manager, err := s.Auth(); err == nil {
		st.Authenticated = manager.CheckConnected(ctx)
	}
	return st
}

// Query runs prompt through the agent.
func (s *Session) Query(ctx context.Context, prompt string) (*agent.Result, error) {
	a, err := s.Agent()
	if err != nil {
		return nil, err
	}
	return a.Run(ctx, prompt)
}

// Authenticate runs the blocking OAuth handshake.
func (s *Session) Authenticate(ctx context.Context) (*auth.Result, error) {
	manager, err := s.Auth()
	if err != nil {
		return nil, err
	}
	return manager.Authenticate(ctx)
}

// Logout forgets the recorded connection. It works without provider clients.
func (s *Session) Logout() error {
	if manager, err := s.Auth(); err == nil {
		return manager.Logout()
	}
	if err := s.state.Clear(); err != nil {
		return fmt.Errorf("failed to clear auth state: %w", err)
	}
	s.logger.Info("gmail authentication cleared", logging.UserID(s.creds.UserID()))
	return nil
}
