// Package cmd implements the mailagent command-line interface.
//
// Commands:
//   - serve: run the HTTP API (default) or the MCP stdio server
//   - status: show configuration and Gmail connection status
//   - authenticate: connect a Gmail account through the provider's OAuth flow
//   - logout: forget the connected account
//   - config show / config set: inspect and change stored credentials
//   - query: run one natural-language request and print the answer
//   - generate-docs: write markdown documentation for the MCP tools
//   - version: print the version
//
// serve runs when no subcommand is given.
package cmd
