// Package auth provides the pluggable authentication gate for wicket.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid or uncheckable), or Abstain (can't handle the scheme). A
// configurable default voter decides when all authenticators abstain.
//
// The gate is implemented as HTTP middleware, one gate per principal kind.
// A successful authentication records the identity in the request context
// strictly before the downstream handler runs; a gate that finds its kind
// already authenticated passes the request through without touching
// credentials or performing any I/O, so gates compose and stack freely.
package auth
