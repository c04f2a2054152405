// Package composio is a small REST client for the Composio v3 API, the
// tool-execution provider that holds the operator's Gmail OAuth connection
// and runs Gmail actions on their behalf.
//
// Only the endpoints the agent needs are covered: connected accounts, auth
// configs, tool schemas and tool execution.
package composio
