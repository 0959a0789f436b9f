package auth

import (
	"context"
	"errors"
	"net/http"
)

// Decision represents the three possible outcomes of an authentication attempt.
type Decision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes Decision = iota

	// No means credentials are present but invalid, or checking them failed.
	// The chain stops and the request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials scheme.
	// The chain continues to the next authenticator.
	Abstain
)

// Result carries the outcome of an authentication attempt.
type Result struct {
	Decision Decision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated principal.
type Identity struct {
	// Subject is the unique identifier (required, non-empty).
	Subject string

	// ServiceTier determines rate limits and priority.
	ServiceTier string

	// Metadata carries authenticator-specific data.
	Metadata map[string]string
}

// Authenticator examines request credentials and returns a three-outcome vote.
// Implementations must not retain the request or any plaintext credentials
// past the call.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

// Sentinel errors. ErrMissingCredentials and ErrInvalidCredentials are the
// only two credential-failure signals: "unknown username" and "wrong
// password" both surface as ErrInvalidCredentials so the response never
// reveals whether an account exists. Any other error returned by an
// authenticator is an infrastructure failure and is propagated unmodified.
var (
	ErrMissingCredentials = errors.New("no credentials presented")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyRequests    = errors.New("rate limit exceeded")
)

// Chain evaluates authenticators in order using three-outcome voting.
type Chain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator

	// DefaultDecision is used when all authenticators abstain.
	// Use Yes for development (accept anonymously) or No for production.
	DefaultDecision Decision
}

// Authenticate runs the chain. Stops on the first Yes or No.
// If all abstain, returns the default decision; a default rejection reports
// ErrMissingCredentials, since no authenticator recognized any credentials.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	// All abstained: use default.
	if c.DefaultDecision == Yes {
		return Result{
			Decision: Yes,
			Identity: &Identity{Subject: "anonymous", ServiceTier: "default"},
		}
	}

	return Result{
		Decision: No,
		Err:      ErrMissingCredentials,
	}
}
