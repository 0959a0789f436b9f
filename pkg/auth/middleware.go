package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wicket-auth/wicket/pkg/observability"
	"github.com/wicket-auth/wicket/pkg/transport"
)

// Middleware creates the HTTP middleware gate for one principal kind.
// It checks the bypass list, passes through requests that already carry an
// identity of this kind (set by an earlier gate in the stack), runs the
// chain, optionally enforces rate limits, and records the identity in the
// request context strictly before the next handler runs.
//
// Failure mapping: missing or malformed credentials are a client usage
// error (400); present-but-wrong credentials are 401 with a Basic
// challenge; any other chain error is an infrastructure failure (503) and
// is logged rather than echoed to the client.
func Middleware(kind string, chain *Chain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Check bypass list.
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// Idempotent pass-through: an earlier gate already authenticated
			// this kind, so no credential work happens at all.
			if IdentityFromContext(r.Context(), kind) != nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			result := chain.Authenticate(r.Context(), r)
			observability.AuthDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

			if result.Decision == No {
				rejectWith(w, r, kind, result.Err)
				return
			}

			if result.Decision != Yes || result.Identity == nil {
				rejectWith(w, r, kind, ErrMissingCredentials)
				return
			}

			// Validate identity.
			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject", "kind", kind)
				observability.AuthAttemptsTotal.WithLabelValues(kind, "error").Inc()
				transport.WriteError(w, http.StatusInternalServerError, transport.KindServerError, "internal authentication error")
				return
			}

			// Rate limiting (if configured).
			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.ServiceTier).Inc()
					transport.WriteError(w, http.StatusTooManyRequests, transport.KindTooManyRequests, "rate limit exceeded")
					return
				}
			}

			slog.Debug("authentication succeeded",
				"subject", result.Identity.Subject,
				"kind", kind,
				"path", r.URL.Path,
			)
			observability.AuthAttemptsTotal.WithLabelValues(kind, "success").Inc()

			// Record the identity before the downstream handler runs.
			ctx := WithIdentity(r.Context(), kind, result.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rejectWith writes the failure response for a No decision. Credential
// failures carry their own kind; everything else is an infrastructure
// failure and must not leak backend detail to the client.
func rejectWith(w http.ResponseWriter, r *http.Request, kind string, err error) {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		observability.AuthAttemptsTotal.WithLabelValues(kind, "missing_credentials").Inc()
		transport.WriteError(w, http.StatusBadRequest, transport.KindMissingCredentials, "authorization header absent or malformed")
	case errors.Is(err, ErrInvalidCredentials):
		observability.AuthAttemptsTotal.WithLabelValues(kind, "invalid_credentials").Inc()
		w.Header().Set("WWW-Authenticate", `Basic realm="`+kind+`", charset="UTF-8"`)
		transport.WriteError(w, http.StatusUnauthorized, transport.KindInvalidCredentials, "invalid credentials")
	default:
		slog.Error("authentication backend failure",
			"kind", kind,
			"path", r.URL.Path,
			"error", err,
		)
		observability.AuthAttemptsTotal.WithLabelValues(kind, "transport_failure").Inc()
		transport.WriteError(w, http.StatusServiceUnavailable, transport.KindTransportFailure, "authentication backend unavailable")
	}
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}
