// Package storage provides utilities shared across credential store
// implementations, currently the sentinel errors.
//
// Store adapters (memory, postgres) implement the basic.ConnectionProvider
// and basic.CredentialStore interfaces defined in pkg/auth/basic. This
// package contains only shared helpers, not the interfaces themselves.
package storage
