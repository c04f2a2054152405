// Package agent_tools exposes the Gmail agent over MCP.
//
// Tools:
//   - gmail_agent_query: run a natural-language Gmail request
//   - gmail_agent_status: configuration and connection status
//   - gmail_agent_authenticate: run the OAuth handshake and wait for it
//   - gmail_agent_logout: forget the recorded connection
package agent_tools
