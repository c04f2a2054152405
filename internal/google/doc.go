// Package google describes the operator's own Google OAuth client. Gmail
// connections created with bring-your-own credentials use it to pick the
// scopes and endpoints the tool-execution provider should request.
package google
