package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var showTools bool

	cmd := &cobra.Command{
		Use:   `query "<request>"`,
		Short: "Run one natural-language Gmail request",
		Example: `  mailagent query "Summarize my 5 most recent unread emails"
  mailagent query --show-tools "Create a draft to bob@example.com saying I'm late"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			session := openSession(sessionOptions{logger: logger, notify: cmd.ErrOrStderr()})

			res, err := session.Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Response)
			if showTools && len(res.ToolResults) > 0 {
				fmt.Fprintln(out)
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.ToolResults)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTools, "show-tools", false, "Also print the raw result of every Gmail action")
	return cmd
}
