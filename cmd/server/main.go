// Command server runs the wicket authentication gateway.
//
// Configuration is read from a YAML file (WICKET_CONFIG, ./config.yaml,
// or /etc/wicket/config.yaml) with WICKET_* environment overrides; see
// pkg/config for the full reference.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wicket-auth/wicket/pkg/auth"
	"github.com/wicket-auth/wicket/pkg/auth/basic"
	"github.com/wicket-auth/wicket/pkg/auth/bearer"
	"github.com/wicket-auth/wicket/pkg/config"
	"github.com/wicket-auth/wicket/pkg/observability"
	"github.com/wicket-auth/wicket/pkg/password"
	"github.com/wicket-auth/wicket/pkg/storage/memory"
	"github.com/wicket-auth/wicket/pkg/storage/postgres"
	"github.com/wicket-auth/wicket/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	verifier, err := newVerifier(cfg.Auth.Hash)
	if err != nil {
		return err
	}

	provider, store, health, closeStore, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	basicAuthn, err := basic.New(basic.Config{
		Provider: provider,
		Store:    store,
		Verifier: verifier,
		Database: cfg.Auth.Database,
	})
	if err != nil {
		return fmt.Errorf("creating basic authenticator: %w", err)
	}

	chain := &auth.Chain{
		Authenticators:  []auth.Authenticator{basicAuthn},
		DefaultDecision: auth.No,
	}

	if cfg.Auth.Bearer.Enabled {
		bearerAuthn, err := newBearer(cfg.Auth.Bearer)
		if err != nil {
			return err
		}
		// Bearer first: it abstains cheaply on Basic requests.
		chain.Authenticators = append([]auth.Authenticator{bearerAuthn}, chain.Authenticators...)
		slog.Info("bearer authentication enabled", "issuer", cfg.Auth.Bearer.Issuer)
	}

	var limiter auth.RateLimiter
	if cfg.Auth.RateLimit.DefaultRPM > 0 || len(cfg.Auth.RateLimit.Tiers) > 0 {
		tiers := make(map[string]auth.TierConfig, len(cfg.Auth.RateLimit.Tiers))
		for name, rpm := range cfg.Auth.RateLimit.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, cfg.Auth.RateLimit.DefaultRPM)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /whoami", whoamiHandler(cfg.Auth.Kind))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := health(r.Context()); err != nil {
			transport.WriteError(w, http.StatusServiceUnavailable, transport.KindTransportFailure, "store unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	handler := transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(nil),
		observability.MetricsMiddleware,
		auth.Middleware(cfg.Auth.Kind, chain, limiter, cfg.Auth.Bypass),
	)(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "storage", cfg.Storage.Type, "kind", cfg.Auth.Kind)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// newVerifier maps the configured hash scheme to a verifier.
func newVerifier(hash string) (password.Verifier, error) {
	switch hash {
	case "bcrypt":
		return &password.Bcrypt{}, nil
	case "sha256":
		return password.SHA256Hex{}, nil
	default:
		return nil, fmt.Errorf("unknown auth.hash %q", hash)
	}
}

// newStorage builds the connection provider and credential store for the
// configured backend. It returns a health probe and a close function
// alongside the two contracts.
func newStorage(ctx context.Context, cfg *config.Config) (basic.ConnectionProvider, basic.CredentialStore, func(context.Context) error, func(), error) {
	switch cfg.Storage.Type {
	case "memory":
		mem := memory.New()
		for _, acct := range cfg.Storage.Accounts {
			err := mem.CreateAccount("", basic.Account{
				Subject:      acct.Subject,
				Username:     acct.Username,
				PasswordHash: []byte(acct.PasswordHash),
				ServiceTier:  acct.ServiceTier,
			})
			if err != nil {
				return nil, nil, nil, nil, fmt.Errorf("seeding account %q: %w", acct.Username, err)
			}
		}
		slog.Info("storage enabled", "type", "memory", "accounts", len(cfg.Storage.Accounts))
		return mem, mem, mem.HealthCheck, func() {}, nil

	case "postgres":
		databases := make(map[string]postgres.Config, len(cfg.Storage.Postgres.Databases))
		for name, db := range cfg.Storage.Postgres.Databases {
			databases[name] = postgres.Config{
				DSN:            db.DSN,
				MaxConns:       db.MaxConns,
				MigrateOnStart: db.MigrateOnStart,
			}
		}
		provider, err := postgres.NewProvider(ctx, databases, cfg.Storage.Postgres.DefaultDatabase)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("creating postgres provider: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "databases", len(databases))
		return provider, postgres.NewStore(), provider.HealthCheck, func() { provider.Close() }, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage.type %q", cfg.Storage.Type)
	}
}

// newBearer builds the JWT authenticator from config.
func newBearer(cfg config.BearerConfig) (*bearer.Authenticator, error) {
	bcfg := bearer.Config{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	}
	if cfg.HMACSecret != "" {
		bcfg.HMACSecret = []byte(cfg.HMACSecret)
	}
	if cfg.RSAPublicKeyFile != "" {
		pem, err := os.ReadFile(cfg.RSAPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading auth.bearer.rsa_public_key_file: %w", err)
		}
		bcfg.RSAPublicKey = pem
	}
	authn, err := bearer.New(bcfg)
	if err != nil {
		return nil, fmt.Errorf("creating bearer authenticator: %w", err)
	}
	return authn, nil
}

// whoamiHandler reports the authenticated identity for the gate's kind.
func whoamiHandler(kind string) http.HandlerFunc {
	type response struct {
		Subject     string            `json:"subject"`
		Kind        string            `json:"kind"`
		ServiceTier string            `json:"service_tier,omitempty"`
		Metadata    map[string]string `json:"metadata,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context(), kind)
		if id == nil {
			// The gate runs before this handler; a nil identity here means
			// the route was added to the bypass list by mistake.
			transport.WriteError(w, http.StatusInternalServerError, transport.KindServerError, "no identity in context")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response{
			Subject:     id.Subject,
			Kind:        kind,
			ServiceTier: id.ServiceTier,
			Metadata:    id.Metadata,
		})
	}
}
