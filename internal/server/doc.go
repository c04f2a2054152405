// Package server provides the HTTP surface of the mail agent.
//
// # Key Components
//
// Session owns the provider clients. They are built from the current
// credentials and rebuilt by Reload after POST /config. Without complete
// credentials the session runs in limited mode and every Gmail operation
// fails with a configuration error naming the missing credentials.
//
// NewRouter serves the JSON API:
//   - GET /status and GET /config report configuration and authentication
//   - POST /authenticate blocks while the operator completes Gmail OAuth
//   - POST /query, /send, /draft and GET /emails, /drafts, /labels run the agent
//
// HealthChecker serves /healthz and /readyz. MetricsServer exposes
// Prometheus metrics on a separate port.
package server
