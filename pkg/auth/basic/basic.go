// Package basic provides the HTTP Basic authenticator: it extracts
// username and password from the Authorization header, resolves the
// account by username over a pooled store connection, and verifies the
// password with a pluggable verifier.
package basic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wicket-auth/wicket/pkg/auth"
	"github.com/wicket-auth/wicket/pkg/password"
	"github.com/wicket-auth/wicket/pkg/storage"
)

// Account is the stored record for an authenticatable principal. The
// authenticator borrows it for the duration of one request; ownership
// stays with the credential store.
type Account struct {
	// Subject is the stable identifier reported in the identity.
	Subject string

	// Username is the login name presented in the Basic header.
	Username string

	// PasswordHash is the stored hash in the verifier's format.
	PasswordHash []byte

	// ServiceTier and Metadata are carried into the identity unchanged.
	ServiceTier string
	Metadata    map[string]string
}

// Connection is a short-lived handle to a backing store, valid for the
// scope of one lookup. Release returns it to its provider and must be
// called exactly once.
type Connection interface {
	Release()
}

// ConnectionProvider acquires pooled connections by database name. An
// empty name selects the provider's default database. Acquisition
// respects ctx cancellation; a failure here is an infrastructure error,
// never an authentication outcome.
type ConnectionProvider interface {
	Acquire(ctx context.Context, database string) (Connection, error)
}

// CredentialStore resolves accounts over a connection acquired from the
// matching provider. FindByUsername returns storage.ErrNotFound when no
// account matches; that is a valid outcome, not an infrastructure error.
type CredentialStore interface {
	FindByUsername(ctx context.Context, conn Connection, username string) (*Account, error)
}

// Config assembles an Authenticator.
type Config struct {
	// Provider acquires connections, Store resolves accounts over them.
	Provider ConnectionProvider
	Store    CredentialStore

	// Verifier checks a plaintext candidate against the stored hash.
	Verifier password.Verifier

	// Database names the backing store to acquire connections for.
	// Empty selects the provider's default.
	Database string
}

// Authenticator validates HTTP Basic credentials against a credential store.
type Authenticator struct {
	provider ConnectionProvider
	store    CredentialStore
	verifier password.Verifier
	database string
}

// New creates a Basic authenticator. Provider, Store, and Verifier are
// required.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Provider == nil {
		return nil, errors.New("basic: Provider is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("basic: Store is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("basic: Verifier is required")
	}
	return &Authenticator{
		provider: cfg.Provider,
		store:    cfg.Store,
		verifier: cfg.Verifier,
		database: cfg.Database,
	}, nil
}

// Authenticate runs one authentication attempt.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not the Basic scheme, with no
//     I/O performed, so other authenticators can handle the request
//   - No with auth.ErrMissingCredentials: Basic header present but
//     undecodable (client usage error)
//   - No with auth.ErrInvalidCredentials: unknown username or wrong
//     password, deliberately indistinguishable from each other
//   - No with any other error: connection acquisition or lookup failed;
//     the error is propagated unmodified
//   - Yes: verified account mapped to an identity
//
// The connection is released before the result is returned, and the
// plaintext password is not retained past verification.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.Result {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Result{Decision: auth.Abstain}
	}

	// Must be the Basic scheme.
	if !strings.HasPrefix(header, "Basic ") {
		return auth.Result{Decision: auth.Abstain}
	}

	username, candidate, err := decodeCredentials(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		return auth.Result{Decision: auth.No, Err: auth.ErrMissingCredentials}
	}

	conn, err := a.provider.Acquire(ctx, a.database)
	if err != nil {
		return auth.Result{Decision: auth.No, Err: fmt.Errorf("acquiring connection: %w", err)}
	}

	acct, err := a.store.FindByUsername(ctx, conn, username)
	conn.Release()

	if errors.Is(err, storage.ErrNotFound) {
		return auth.Result{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}
	if err != nil {
		return auth.Result{Decision: auth.No, Err: fmt.Errorf("looking up account: %w", err)}
	}

	if err := a.verifier.Verify(candidate, acct.PasswordHash); err != nil {
		return auth.Result{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}

	subject := acct.Subject
	if subject == "" {
		subject = acct.Username
	}

	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     subject,
			ServiceTier: acct.ServiceTier,
			Metadata:    acct.Metadata,
		},
	}
}

// decodeCredentials parses the base64 payload of a Basic header into
// username and password. Empty usernames are rejected; empty passwords
// are passed through to verification.
func decodeCredentials(payload string) (username, pass string, err error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("decoding basic payload: %w", err)
	}
	username, pass, ok := strings.Cut(string(raw), ":")
	if !ok || username == "" {
		return "", "", errors.New("malformed basic payload")
	}
	return username, pass, nil
}
