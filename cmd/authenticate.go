package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mailagent/internal/auth"
	"github.com/teemow/mailagent/internal/config"
	"github.com/teemow/mailagent/internal/server"
)

func newAuthenticateCmd() *cobra.Command {
	var (
		timeout   time.Duration
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "authenticate",
		Short: "Connect a Gmail account",
		Long: `Connect a Gmail account through the tool-execution provider's OAuth flow.

Prints an authorization URL, tries to open it in a browser and waits until
the connection becomes active or the timeout expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			dir := resolveStateDir()
			cfg := server.SessionConfig{
				Credentials: config.LoadCredentials(dir),
				State:       config.LoadAuthState(dir),
				Logger:      logger,
				Notifier:    auth.WriterNotifier{W: cmd.OutOrStdout()},
				OpenBrowser: auth.OpenBrowser,
				AuthTimeout: timeout,
			}
			if noBrowser {
				cfg.OpenBrowser = func(string) error { return nil }
			}
			session := server.NewSession(cfg)

			res, err := session.Authenticate(cmd.Context())
			if err != nil {
				return err
			}
			if res.AlreadyConnected {
				fmt.Fprintf(cmd.OutOrStdout(), "Already authenticated (connection %s)\n", res.ConnectionID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful (connection %s)\n", res.ConnectionID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", auth.DefaultTimeout, "How long to wait for the authorization to complete")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Only print the authorization URL")
	return cmd
}
