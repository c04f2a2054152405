package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/teemow/mailagent/internal/auth"
	"github.com/teemow/mailagent/internal/config"
	"github.com/teemow/mailagent/internal/instrumentation"
	"github.com/teemow/mailagent/internal/logging"
	"github.com/teemow/mailagent/internal/server"
)

// resolveStateDir returns --state-dir or the default state directory.
func resolveStateDir() string {
	if globals.stateDir != "" {
		return globals.stateDir
	}
	return config.DefaultStateDir()
}

// newLogger builds the process logger on stderr from the global flags.
func newLogger() (*slog.Logger, error) {
	format := globals.logFormat
	if env := os.Getenv("LOG_FORMAT"); env != "" && !rootCmd.PersistentFlags().Changed("log-format") {
		format = env
	}
	return logging.NewLogger(os.Stderr, logging.Options{Format: format, Debug: globals.debug})
}

// sessionOptions are the parts of a session that differ between commands.
type sessionOptions struct {
	logger  *slog.Logger
	notify  io.Writer
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// openSession loads both records from the state directory and builds the
// session. Missing credentials leave it in limited mode.
func openSession(opts sessionOptions) *server.Session {
	dir := resolveStateDir()
	return server.NewSession(server.SessionConfig{
		Credentials: config.LoadCredentials(dir),
		State:       config.LoadAuthState(dir),
		Logger:      opts.logger,
		Metrics:     opts.metrics,
		Audit:       opts.audit,
		Notifier:    auth.WriterNotifier{W: opts.notify},
		OpenBrowser: auth.OpenBrowser,
	})
}
