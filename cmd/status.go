package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailagent/internal/server"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configuration and Gmail connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			session := openSession(sessionOptions{logger: logger, notify: cmd.ErrOrStderr()})
			return printStatus(cmd.OutOrStdout(), session.Status(cmd.Context()), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func printStatus(w io.Writer, st server.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(w, "User:          %s\n", st.UserID)
	fmt.Fprintf(w, "Configured:    %s\n", yesNo(st.Configured))
	if len(st.MissingCredentials) > 0 {
		fmt.Fprintf(w, "Missing:       %s\n", strings.Join(st.MissingCredentials, ", "))
	}
	fmt.Fprintf(w, "Authenticated: %s\n", yesNo(st.Authenticated))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
