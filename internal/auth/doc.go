// Package auth manages the operator's Gmail connection at the
// tool-execution provider: finding or creating the reusable auth config,
// running the blocking OAuth handshake, detecting an existing ACTIVE
// connection and forgetting it again on logout.
package auth
