package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/mailagent/internal/composio"
	"github.com/teemow/mailagent/internal/google"
	"github.com/teemow/mailagent/internal/instrumentation"
	"github.com/teemow/mailagent/internal/logging"
)

const (
	// DefaultTimeout bounds the wait for the operator to finish OAuth.
	DefaultTimeout = 120 * time.Second

	// AuthConfigName names auth configs created by this service.
	AuthConfigName = "mailagent_gmail_auth"
)

var (
	// ErrAuthTimeout is returned when the connection does not turn ACTIVE
	// before the timeout. The operator has to authenticate again.
	ErrAuthTimeout = errors.New("gmail authentication timed out")

	// ErrClientNotInitialized is returned when no provider client is set.
	ErrClientNotInitialized = errors.New("composio client not initialized")
)

// Provider is the part of the tool-execution provider the manager needs.
type Provider interface {
	ListConnectedAccounts(ctx context.Context, userID, toolkit string) ([]composio.ConnectedAccount, error)
	ListAuthConfigs(ctx context.Context, toolkit string) ([]composio.AuthConfig, error)
	CreateAuthConfig(ctx context.Context, in composio.CreateAuthConfigRequest) (*composio.AuthConfig, error)
	InitiateConnection(ctx context.Context, authConfigID, userID string) (*composio.ConnectionRequest, error)
	WaitForConnection(ctx context.Context, id string, timeout time.Duration) (*composio.ConnectedAccount, error)
}

// StateStore persists the connection and auth config identifiers.
type StateStore interface {
	ConnectionID() string
	SetConnectionID(id string) error
	AuthConfigID() string
	SetAuthConfigID(id string) error
	Clear() error
}

// Config wires a Manager. Provider and State are required.
type Config struct {
	Provider Provider
	State    StateStore
	UserID   string

	// OAuthClient is the operator's own Google client. When nil, new auth
	// configs use provider-managed credentials.
	OAuthClient *oauth2.Config

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Notifier defaults to a WriterNotifier on io.Discard.
	Notifier Notifier

	// OpenBrowser defaults to OpenBrowser. Failures are ignored.
	OpenBrowser func(url string) error

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Manager drives the Gmail connection lifecycle.
type Manager struct {
	provider    Provider
	state       StateStore
	userID      string
	oauthClient *oauth2.Config
	timeout     time.Duration
	notifier    Notifier
	openBrowser func(string) error
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// NewManager validates cfg and applies defaults.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Provider == nil {
		return nil, ErrClientNotInitialized
	}
	if cfg.State == nil {
		return nil, errors.New("auth state store is required")
	}

	m := &Manager{
		provider:    cfg.Provider,
		state:       cfg.State,
		userID:      cfg.UserID,
		oauthClient: cfg.OAuthClient,
		timeout:     cfg.Timeout,
		notifier:    cfg.Notifier,
		openBrowser: cfg.OpenBrowser,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.notifier == nil {
		m.notifier = WriterNotifier{W: io.Discard}
	}
	if m.openBrowser == nil {
		m.openBrowser = OpenBrowser
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// Result is the outcome of Authenticate.
type Result struct {
	ConnectionID     string
	AlreadyConnected bool
}

// CheckConnected reports whether the operator has an ACTIVE Gmail connection
// and records the first one found. Provider errors count as not connected.
func (m *Manager) CheckConnected(ctx context.Context) bool {
	logger := logging.WithOperation(m.logger, "auth.check_connected")

	accounts, err := m.provider.ListConnectedAccounts(ctx, m.userID, composio.ToolkitGmail)
	if err != nil {
		logger.Warn("failed to list connected accounts", logging.UserID(m.userID), logging.Err(err))
		m.metrics.RecordConnectionCheck(ctx, instrumentation.CheckResultError)
		return false
	}

	for _, account := range accounts {
		if !account.IsActive() {
			logger.Warn("inactive connection found",
				logging.ConnectionID(account.ID),
				logging.UserID(m.userID),
				logging.Status(account.Status),
			)
			continue
		}
		if m.state.ConnectionID() != account.ID {
			if err := m.state.SetConnectionID(account.ID); err != nil {
				logger.Warn("failed to record connection id", logging.ConnectionID(account.ID), logging.Err(err))
			}
		}
		m.metrics.RecordConnectionCheck(ctx, instrumentation.CheckResultActive)
		return true
	}

	if len(accounts) > 0 {
		m.metrics.RecordConnectionCheck(ctx, instrumentation.CheckResultInactive)
	} else {
		m.metrics.RecordConnectionCheck(ctx, instrumentation.CheckResultAbsent)
	}
	return false
}

// GetOrCreateAuthConfig returns the recorded auth config if the provider still
// lists it, else the first existing Gmail auth config, else a new one. The
// chosen identifier is recorded for reuse.
func (m *Manager) GetOrCreateAuthConfig(ctx context.Context) (*composio.AuthConfig, error) {
	logger := logging.WithOperation(m.logger, "auth.get_or_create_auth_config")

	if recorded := m.state.AuthConfigID(); recorded != "" {
		configs, err := m.provider.ListAuthConfigs(ctx, "")
		if err != nil {
			logger.Warn("failed to list auth configs", logging.Err(err))
		}
		for i := range configs {
			if configs[i].ID == recorded {
				return &configs[i], nil
			}
		}
		logger.Info("recorded auth config no longer listed", logging.AuthConfigID(recorded))
	}

	configs, err := m.provider.ListAuthConfigs(ctx, composio.ToolkitGmail)
	if err != nil {
		logger.Warn("failed to list gmail auth configs", logging.Err(err))
	}
	for i := range configs {
		if strings.EqualFold(configs[i].Toolkit.Slug, composio.ToolkitGmail) {
			if err := m.state.SetAuthConfigID(configs[i].ID); err != nil {
				return nil, fmt.Errorf("failed to record auth config: %w", err)
			}
			logger.Info("reusing existing gmail auth config", logging.AuthConfigID(configs[i].ID))
			return &configs[i], nil
		}
	}

	req := composio.CreateAuthConfigRequest{
		Toolkit: composio.ToolkitGmail,
		Name:    AuthConfigName,
		Type:    composio.AuthTypeManaged,
	}
	if google.HasClient(m.oauthClient) {
		req.Type = composio.AuthTypeCustom
		req.ClientID = m.oauthClient.ClientID
		req.ClientSecret = m.oauthClient.ClientSecret
		req.Scopes = m.oauthClient.Scopes
	}

	created, err := m.provider.CreateAuthConfig(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail auth config: %w", err)
	}
	if err := m.state.SetAuthConfigID(created.ID); err != nil {
		return nil, fmt.Errorf("failed to record auth config: %w", err)
	}
	logger.Info("created gmail auth config", logging.AuthConfigID(created.ID), slog.String("type", req.Type))
	return created, nil
}

// Authenticate connects the operator's Gmail account. It returns at once when
// an ACTIVE connection exists; otherwise it initiates a connection, shows the
// authorization URL and blocks until the connection is ACTIVE or the timeout
// passes. On timeout the error matches ErrAuthTimeout and no connection id is
// recorded.
func (m *Manager) Authenticate(ctx context.Context) (*Result, error) {
	ctx, span := instrumentation.StartSpan(ctx, "auth.authenticate",
		attribute.String(instrumentation.SpanAttrUserID, m.userID),
	)
	defer span.End()

	logger := logging.WithOperation(m.logger, "auth.authenticate")

	if m.CheckConnected(ctx) {
		m.metrics.RecordAuthAttempt(ctx, instrumentation.AuthResultAlreadyConnected)
		instrumentation.SetSpanSuccess(span)
		return &Result{ConnectionID: m.state.ConnectionID(), AlreadyConnected: true}, nil
	}

	res, err := m.authenticate(ctx, logger)
	if err != nil {
		result := instrumentation.AuthResultFailure
		if errors.Is(err, ErrAuthTimeout) {
			result = instrumentation.AuthResultTimeout
		}
		m.metrics.RecordAuthAttempt(ctx, result)
		instrumentation.SetSpanError(span, err)
		logger.Error("gmail authentication failed", logging.UserID(m.userID), logging.Err(err))
		return nil, err
	}

	m.metrics.RecordAuthAttempt(ctx, instrumentation.AuthResultConnected)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrConnectionID, res.ConnectionID))
	instrumentation.SetSpanSuccess(span)
	logger.Info("gmail authentication successful", logging.UserID(m.userID), logging.ConnectionID(res.ConnectionID))
	return res, nil
}

func (m *Manager) authenticate(ctx context.Context, logger *slog.Logger) (*Result, error) {
	authConfig, err := m.GetOrCreateAuthConfig(ctx)
	if err != nil {
		return nil, err
	}

	req, err := m.provider.InitiateConnection(ctx, authConfig.ID, m.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate gmail connection: %w", err)
	}

	url := req.URL()
	logger.Info("gmail authorization required",
		logging.AuthConfigID(authConfig.ID),
		logging.ConnectionID(req.ID),
		slog.String("url", url),
	)
	m.notifier.NotifyAuthURL(url, m.timeout)
	if err := m.openBrowser(url); err != nil {
		logger.Debug("could not open browser", logging.Err(err))
	}

	account, err := m.provider.WaitForConnection(ctx, req.ID, m.timeout)
	if err != nil {
		if errors.Is(err, composio.ErrWaitTimeout) {
			return nil, fmt.Errorf("%w after %s: %w", ErrAuthTimeout, m.timeout, err)
		}
		return nil, fmt.Errorf("failed waiting for gmail connection: %w", err)
	}

	connectionID := req.ID
	if account != nil && account.ID != "" {
		connectionID = account.ID
	}
	if err := m.state.SetConnectionID(connectionID); err != nil {
		return nil, fmt.Errorf("failed to record connection: %w", err)
	}
	return &Result{ConnectionID: connectionID}, nil
}

// Logout forgets the recorded connection and auth config.
func (m *Manager) Logout() error {
	if err := m.state.Clear(); err != nil {
		return fmt.Errorf("failed to clear auth state: %w", err)
	}
	m.logger.Info("gmail authentication cleared", logging.UserID(m.userID))
	return nil
}

// UserID returns the operator the manager acts for.
func (m *Manager) UserID() string {
	return m.userID
}
