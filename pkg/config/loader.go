package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, WICKET_CONFIG env, ./config.yaml, /etc/wicket/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. WICKET_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/wicket/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check WICKET_CONFIG env var.
	if envPath := os.Getenv("WICKET_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/wicket/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WICKET_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WICKET_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("WICKET_PG_DSN"); v != "" {
		// Shortcut for single-database deployments: configure the
		// default database directly from the environment.
		if cfg.Storage.Postgres.Databases == nil {
			cfg.Storage.Postgres.Databases = map[string]PostgresDatabase{}
		}
		db := cfg.Storage.Postgres.Databases[cfg.Storage.Postgres.DefaultDatabase]
		db.DSN = v
		cfg.Storage.Postgres.Databases[cfg.Storage.Postgres.DefaultDatabase] = db
	}
	if v := os.Getenv("WICKET_AUTH_KIND"); v != "" {
		cfg.Auth.Kind = v
	}
	if v := os.Getenv("WICKET_AUTH_HASH"); v != "" {
		cfg.Auth.Hash = v
	}
	if v := os.Getenv("WICKET_BEARER_SECRET"); v != "" {
		cfg.Auth.Bearer.Enabled = true
		cfg.Auth.Bearer.HMACSecret = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// storage.postgres.databases[*].dsn_file -> dsn
	for name, db := range cfg.Storage.Postgres.Databases {
		if db.DSNFile != "" && db.DSN == "" {
			val, err := readSecretFile(db.DSNFile)
			if err != nil {
				return fmt.Errorf("storage.postgres.databases[%s].dsn_file: %w", name, err)
			}
			db.DSN = val
			cfg.Storage.Postgres.Databases[name] = db
		}
	}

	// auth.bearer.hmac_secret_file -> auth.bearer.hmac_secret
	if cfg.Auth.Bearer.HMACSecretFile != "" && cfg.Auth.Bearer.HMACSecret == "" {
		val, err := readSecretFile(cfg.Auth.Bearer.HMACSecretFile)
		if err != nil {
			return fmt.Errorf("auth.bearer.hmac_secret_file: %w", err)
		}
		cfg.Auth.Bearer.HMACSecret = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
