package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// storage.type must be a known value.
	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	// If storage.type is "postgres", at least the default database must be configured.
	if c.Storage.Type == "postgres" {
		def := c.Storage.Postgres.DefaultDatabase
		db, ok := c.Storage.Postgres.Databases[def]
		if !ok {
			errs = append(errs, fmt.Errorf("storage.postgres.databases must contain the default database %q", def))
		} else if db.DSN == "" && db.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.databases[%s].dsn or dsn_file is required", def))
		}
	}

	// Seed accounts need both a username and a password hash.
	for i, acct := range c.Storage.Accounts {
		if acct.Username == "" {
			errs = append(errs, fmt.Errorf("storage.accounts[%d].username is required", i))
		}
		if acct.PasswordHash == "" {
			errs = append(errs, fmt.Errorf("storage.accounts[%d].password_hash is required", i))
		}
	}

	// auth.kind must be set; it scopes the request's auth state and
	// names the Basic challenge realm.
	if c.Auth.Kind == "" {
		errs = append(errs, fmt.Errorf("auth.kind is required"))
	}

	// auth.hash must be a known verifier.
	switch c.Auth.Hash {
	case "bcrypt", "sha256":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.hash must be \"bcrypt\" or \"sha256\", got %q", c.Auth.Hash))
	}

	// Bearer needs exactly one key source when enabled.
	if c.Auth.Bearer.Enabled {
		hasHMAC := c.Auth.Bearer.HMACSecret != "" || c.Auth.Bearer.HMACSecretFile != ""
		hasRSA := c.Auth.Bearer.RSAPublicKeyFile != ""
		if hasHMAC == hasRSA {
			errs = append(errs, fmt.Errorf("auth.bearer requires exactly one of hmac_secret(_file) or rsa_public_key_file"))
		}
	}

	return errors.Join(errs...)
}
