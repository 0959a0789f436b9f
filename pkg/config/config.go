// Package config provides unified configuration for the wicket gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (WICKET_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the wicket gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 30s
}

// StorageConfig holds credential store settings.
type StorageConfig struct {
	Type     string          `yaml:"type"`     // "memory" or "postgres", default: "memory"
	Accounts []AccountConfig `yaml:"accounts"` // seed accounts for the memory store
	Postgres PostgresConfig  `yaml:"postgres"`
}

// AccountConfig seeds one account into the memory store. PasswordHash is
// in the configured verifier's format (see `wicket-passwd`); plaintext
// passwords never appear in configuration.
type AccountConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Subject      string `yaml:"subject"`
	ServiceTier  string `yaml:"service_tier"`
}

// PostgresConfig holds PostgreSQL-specific settings: named databases and
// which of them an empty database identifier resolves to.
type PostgresConfig struct {
	DefaultDatabase string                      `yaml:"default_database"` // default: "default"
	Databases       map[string]PostgresDatabase `yaml:"databases"`
}

// PostgresDatabase describes one named connection pool.
type PostgresDatabase struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Kind names the principal type this gate authenticates. Default: "user".
	Kind string `yaml:"kind"`

	// Hash selects the password verifier: "bcrypt" or "sha256". Default: "bcrypt".
	Hash string `yaml:"hash"`

	// Database selects the named store the Basic gate queries.
	// Empty resolves to the provider's default database.
	Database string `yaml:"database"`

	// Bypass lists endpoints that skip authentication.
	// Default: /healthz, /readyz, /metrics.
	Bypass []string `yaml:"bypass"`

	Bearer    BearerConfig    `yaml:"bearer"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// BearerConfig holds JWT bearer token settings for the optional second
// gate in the chain.
type BearerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Issuer           string `yaml:"issuer"`
	Audience         string `yaml:"audience"`
	HMACSecret       string `yaml:"hmac_secret"`
	HMACSecretFile   string `yaml:"hmac_secret_file"` // _file variant for hmac_secret
	RSAPublicKeyFile string `yaml:"rsa_public_key_file"`
}

// RateLimitConfig holds per-tier request limits. A zero DefaultRPM
// disables limiting for tiers without an explicit entry.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Tiers      map[string]int `yaml:"tiers"` // tier name -> requests per minute
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				DefaultDatabase: "default",
			},
		},
		Auth: AuthConfig{
			Kind:   "user",
			Hash:   "bcrypt",
			Bypass: []string{"/healthz", "/readyz", "/metrics"},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
