package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mailagent application
var rootCmd = &cobra.Command{
	Use:   "mailagent",
	Short: "Operate a Gmail account with natural-language requests",
	Long: `mailagent turns natural-language requests into Gmail actions. A language
model plans the actions and a tool-execution provider runs them against the
connected Gmail account.

It can run as:
  - An HTTP JSON API (default)
  - An MCP (Model Context Protocol) server over stdio
  - One-shot CLI commands (query, status, authenticate, ...)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	stateDir  string
	debug     bool
	logFormat string
}

var globals globalOptions

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailagent version %s\n" .Version}}`)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globals.stateDir, "state-dir", "", "Directory holding credentials.json and auth_config.json (default: $MAILAGENT_STATE_DIR or the binary's directory)")
	rootCmd.PersistentFlags().BoolVar(&globals.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&globals.logFormat, "log-format", "text", "Log format: text or json. Can also use LOG_FORMAT env var.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newAuthenticateCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
