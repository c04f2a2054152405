// Package config persists the operator's credentials and the Gmail
// connection state as two small JSON records.
//
// Credentials resolves each setting from the stored record first, then the
// process environment, then a built-in default. AuthState remembers the
// provider-side connection and auth-config identifiers so a restart does not
// require a new OAuth handshake.
//
// Every mutation rewrites the affected record in full through a temp file and
// rename. A missing or corrupt record loads as empty.
package config
