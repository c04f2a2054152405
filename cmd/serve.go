package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teemow/mailagent/internal/config"
	"github.com/teemow/mailagent/internal/instrumentation"
	"github.com/teemow/mailagent/internal/logging"
	"github.com/teemow/mailagent/internal/server"
	"github.com/teemow/mailagent/internal/tools/agent_tools"
)

const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

// serveOptions holds the serve command flags.
type serveOptions struct {
	transport       string
	addr            string
	metricsEnabled  bool
	metricsAddr     string
	interactiveAuth bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Gmail agent server",
		Long: `Start the Gmail agent.

Supports two transport types:
  - http: JSON API on --addr (default), metrics on --metrics-addr
  - stdio: MCP server exposing the gmail_agent_* tools

The server always starts. Without credentials it runs in limited mode and
only /status, /config and the health probes are useful until POST /config
supplies them.

Credentials:
  COMPOSIO_API_KEY, OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT are required,
  either in the environment or stored with 'mailagent config set'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.metricsAddr = addr
				}
			}
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				opts.metricsEnabled = false
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (default: server_host:server_port from the stored configuration)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Serve Prometheus metrics on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().BoolVar(&opts.interactiveAuth, "interactive-auth", false, "Offer to authenticate Gmail at startup when stdin is a terminal (http transport only)")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if opts.transport != transportHTTP && opts.transport != transportStdio {
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", opts.transport)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		// The signal context is already cancelled here.
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer flushCancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	sessOpts := sessionOptions{logger: logger, notify: os.Stderr}
	if provider.Enabled() {
		sessOpts.metrics = provider.Metrics()
		sessOpts.audit = provider.AuditLogger(logger)
	}
	session := openSession(sessOpts)

	interactive := opts.interactiveAuth && opts.transport == transportHTTP && term.IsTerminal(int(os.Stdin.Fd()))
	startupCheck(shutdownCtx, session, logger, startupPrompt{enabled: interactive, in: os.Stdin, out: os.Stderr})

	if opts.transport == transportStdio {
		mcpSrv := mcpserver.NewMCPServer("mailagent", version,
			mcpserver.WithToolCapabilities(true),
		)
		agent_tools.RegisterAgentTools(mcpSrv, session)
		return runStdioServer(mcpSrv)
	}

	if opts.metricsEnabled && provider.ServesPrometheus() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metricsAddr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		serveMetrics, err := metricsServer.Listen()
		if err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		go func() {
			if err := serveMetrics(); err != nil {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := metricsServer.Shutdown(stopCtx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	addr := opts.addr
	if addr == "" {
		creds := session.Credentials()
		addr = net.JoinHostPort(creds.ServerHost(), strconv.Itoa(creds.ServerPort()))
	}

	health := server.NewHealthChecker(session)
	router := server.NewRouter(server.RouterConfig{
		Session: session,
		Health:  health,
		Logger:  logger,
		Version: version,
	})
	return server.NewAPIServer(addr, router, health, logger).ListenAndServe(shutdownCtx)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// startupPrompt asks the operator whether to authenticate right away.
type startupPrompt struct {
	enabled bool
	in      io.Reader
	out     io.Writer
}

func (p startupPrompt) confirm(question string) bool {
	if !p.enabled {
		return false
	}
	fmt.Fprintf(p.out, "%s (y/n): ", question)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// startupCheck reports missing credentials and the Gmail connection state.
// It never stops the server from starting.
func startupCheck(ctx context.Context, session *server.Session, logger *slog.Logger, prompt startupPrompt) {
	status := session.Status(ctx)
	if !status.Configured {
		for _, key := range status.MissingCredentials {
			attrs := []any{slog.String("credential", key)}
			if env := config.EnvVar(key); env != "" {
				attrs = append(attrs, slog.String("env", env))
			}
			logger.Warn("missing credential", attrs...)
		}
		logger.Warn("starting in limited mode; supply credentials with POST /config or 'mailagent config set'")
		return
	}

	if status.Authenticated {
		logger.Info("gmail connected",
			logging.UserID(status.UserID),
			logging.ConnectionID(session.State().ConnectionID()),
		)
		return
	}

	logger.Warn("gmail not connected; call POST /authenticate or run 'mailagent authenticate'")
	if !prompt.confirm("Gmail is not connected. Authenticate now?") {
		return
	}
	res, err := session.Authenticate(ctx)
	if err != nil {
		logger.Error("authentication failed", logging.Err(err))
		return
	}
	logger.Info("gmail connected", logging.ConnectionID(res.ConnectionID))
}
