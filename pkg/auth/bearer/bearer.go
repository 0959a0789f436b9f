// Package bearer provides a JWT bearer-token authenticator validated
// against a static HMAC secret or RSA public key, with issuer and
// audience checks. It abstains on requests without a Bearer scheme so
// it chains with credential gates for other schemes.
package bearer

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/wicket-auth/wicket/pkg/auth"
)

// Config holds the bearer authenticator configuration. Exactly one of
// HMACSecret or RSAPublicKey must be set.
type Config struct {
	// Issuer is the expected iss claim. If empty, issuer is not validated.
	Issuer string

	// Audience is the expected aud claim. If empty, audience is not validated.
	Audience string

	// HMACSecret enables HS256/384/512 validation.
	HMACSecret []byte

	// RSAPublicKey is a PEM-encoded public key enabling RS256/384/512
	// validation.
	RSAPublicKey []byte

	// SubjectClaim is the claim used as the identity subject. Default: "sub".
	SubjectClaim string

	// TierClaim is the claim used as the service tier. Default: "tier".
	TierClaim string
}

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	config Config
	rsaKey *rsa.PublicKey
}

// New creates a bearer authenticator with the given configuration.
func New(cfg Config) (*Authenticator, error) {
	if cfg.SubjectClaim == "" {
		cfg.SubjectClaim = "sub"
	}
	if cfg.TierClaim == "" {
		cfg.TierClaim = "tier"
	}

	if (len(cfg.HMACSecret) == 0) == (len(cfg.RSAPublicKey) == 0) {
		return nil, errors.New("bearer: exactly one of HMACSecret or RSAPublicKey must be set")
	}

	a := &Authenticator{config: cfg}
	if len(cfg.RSAPublicKey) > 0 {
		key, err := jwtlib.ParseRSAPublicKeyFromPEM(cfg.RSAPublicKey)
		if err != nil {
			return nil, fmt.Errorf("bearer: parsing RSA public key: %w", err)
		}
		a.rsaKey = key
	}
	return a, nil
}

// Authenticate extracts a bearer token from the Authorization header and
// validates it as a JWT.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: token present but invalid (expired, wrong issuer or audience,
//     bad signature, missing subject)
//   - Yes: valid JWT with populated identity
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Result{Decision: auth.Abstain}
	}

	// Must be a Bearer token.
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.Result{Decision: auth.Abstain}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}

	opts := []jwtlib.ParserOption{jwtlib.WithValidMethods(a.validMethods())}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}

	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(tokenStr, claims, a.keyFunc, opts...)
	if err != nil {
		return auth.Result{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}

	subject, _ := claims[a.config.SubjectClaim].(string)
	if subject == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrInvalidCredentials}
	}
	tier, _ := claims[a.config.TierClaim].(string)

	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{
			Subject:     subject,
			ServiceTier: tier,
		},
	}
}

// keyFunc returns the verification key matching the configured scheme.
func (a *Authenticator) keyFunc(token *jwtlib.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwtlib.SigningMethodHMAC:
		if len(a.config.HMACSecret) == 0 {
			return nil, errors.New("HMAC tokens not accepted")
		}
		return a.config.HMACSecret, nil
	case *jwtlib.SigningMethodRSA:
		if a.rsaKey == nil {
			return nil, errors.New("RSA tokens not accepted")
		}
		return a.rsaKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// validMethods lists the algorithms the configured key can verify.
func (a *Authenticator) validMethods() []string {
	if a.rsaKey != nil {
		return []string{"RS256", "RS384", "RS512"}
	}
	return []string{"HS256", "HS384", "HS512"}
}
