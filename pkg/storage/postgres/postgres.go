// Package postgres provides a PostgreSQL credential store. It uses
// pgx/v5 connection pools, one per named database; acquiring a
// connection checks one out of the pool for the scope of a single
// lookup and Release returns it.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wicket-auth/wicket/pkg/auth/basic"
	"github.com/wicket-auth/wicket/pkg/storage"
)

// Provider manages named pgx connection pools and hands out pooled
// connections by database name.
type Provider struct {
	pools       map[string]*pgxpool.Pool
	defaultName string
}

// Ensure contracts are implemented at compile time.
var (
	_ basic.ConnectionProvider = (*Provider)(nil)
	_ basic.CredentialStore    = (*Store)(nil)
)

// NewProvider creates pools for every configured database and verifies
// connectivity. defaultName selects the pool an empty database
// identifier resolves to and must be one of the configured names.
func NewProvider(ctx context.Context, databases map[string]Config, defaultName string) (*Provider, error) {
	if len(databases) == 0 {
		return nil, errors.New("no databases configured")
	}
	if _, ok := databases[defaultName]; !ok {
		return nil, fmt.Errorf("default database %q is not configured", defaultName)
	}

	p := &Provider{
		pools:       make(map[string]*pgxpool.Pool, len(databases)),
		defaultName: defaultName,
	}

	for name, cfg := range databases {
		pool, err := newPool(ctx, cfg)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("database %q: %w", name, err)
		}
		p.pools[name] = pool

		if cfg.MigrateOnStart {
			if err := migrate(ctx, pool); err != nil {
				p.Close()
				return nil, fmt.Errorf("database %q: running migrations: %w", name, err)
			}
		}
	}

	return p, nil
}

// newPool builds and pings a single pgx pool.
func newPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

// Conn wraps a checked-out pool connection. Release returns it to the
// pool; the pool owns the connection's lifetime beyond that.
type Conn struct {
	conn *pgxpool.Conn
}

// Release returns the connection to its pool.
func (c *Conn) Release() { c.conn.Release() }

// Acquire checks a connection out of the named database's pool. An
// empty name selects the default database. Acquisition suspends on pool
// exhaustion and unwinds cleanly when ctx is cancelled.
func (p *Provider) Acquire(ctx context.Context, database string) (basic.Connection, error) {
	if database == "" {
		database = p.defaultName
	}
	pool, ok := p.pools[database]
	if !ok {
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDatabase, database)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring pooled connection: %w", err)
	}
	return &Conn{conn: conn}, nil
}

// HealthCheck pings every configured pool.
func (p *Provider) HealthCheck(ctx context.Context) error {
	for name, pool := range p.pools {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("database %q: %w", name, err)
		}
	}
	return nil
}

// Close releases all connection pools.
func (p *Provider) Close() error {
	for _, pool := range p.pools {
		pool.Close()
	}
	return nil
}

// Store resolves accounts over connections handed out by a Provider.
// It is stateless; the connection carries the database selection.
type Store struct{}

// NewStore creates a postgres-backed credential store.
func NewStore() *Store { return &Store{} }

// FindByUsername resolves an account by username. Returns
// storage.ErrNotFound when no row matches; any other failure is a
// transport error and is propagated.
func (s *Store) FindByUsername(ctx context.Context, c basic.Connection, username string) (*basic.Account, error) {
	pc, ok := c.(*Conn)
	if !ok {
		return nil, errors.New("connection was not acquired from a postgres provider")
	}

	var acct basic.Account
	var metadata map[string]string

	err := pc.conn.QueryRow(ctx, `
		SELECT subject, username, password_hash, service_tier, metadata
		FROM accounts
		WHERE lower(username) = lower($1) AND disabled_at IS NULL
	`, username).Scan(&acct.Subject, &acct.Username, &acct.PasswordHash, &acct.ServiceTier, &metadata)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	acct.Metadata = metadata
	return &acct, nil
}

// CreateAccount inserts a new account. Returns storage.ErrConflict when
// the username is already taken.
func (s *Store) CreateAccount(ctx context.Context, c basic.Connection, acct basic.Account) error {
	pc, ok := c.(*Conn)
	if !ok {
		return errors.New("connection was not acquired from a postgres provider")
	}

	_, err := pc.conn.Exec(ctx, `
		INSERT INTO accounts (subject, username, password_hash, service_tier, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.Subject, acct.Username, acct.PasswordHash, acct.ServiceTier, acct.Metadata)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
