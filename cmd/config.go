package cmd

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mailagent/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change stored credentials",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := resolveStateDir()
			view := config.Masked(config.LoadCredentials(dir), config.LoadAuthState(dir))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value [key=value...]",
		Short: "Store credentials",
		Long: fmt.Sprintf(`Store one or more credentials in credentials.json.

Keys: %s

Empty values are ignored. Stored values take precedence over the environment.`,
			strings.Join(config.SettableKeys(), ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(args)
			if err != nil {
				return err
			}
			creds := config.LoadCredentials(resolveStateDir())
			if err := creds.SetMany(values); err != nil {
				return err
			}
			if creds.IsConfigured() {
				fmt.Fprintln(cmd.OutOrStdout(), "Configuration updated")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration updated; still missing: %s\n", strings.Join(creds.Missing(), ", "))
			}
			return nil
		},
	}
}

// parseAssignments turns key=value arguments into a map, rejecting unknown
// keys before anything is written.
func parseAssignments(args []string) (map[string]string, error) {
	known := config.SettableKeys()
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", arg)
		}
		if !slices.Contains(known, key) {
			return nil, fmt.Errorf("unknown key %q", key)
		}
		values[key] = strings.TrimSpace(value)
	}
	return values, nil
}
