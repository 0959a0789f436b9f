// Package memory provides an in-memory credential store for tests and
// lightweight deployments. It implements both the connection provider
// and the credential store contracts; connections are cheap handles
// bound to a named database.
package memory

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/wicket-auth/wicket/pkg/auth/basic"
	"github.com/wicket-auth/wicket/pkg/storage"
)

// DefaultDatabase is the database name an empty identifier resolves to.
const DefaultDatabase = "default"

// Store is an in-memory account store keyed by database name and
// username. All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]map[string]basic.Account // database -> username -> account
}

// Compile-time contract checks.
var (
	_ basic.ConnectionProvider = (*Store)(nil)
	_ basic.CredentialStore    = (*Store)(nil)
)

// New creates an empty in-memory store with a default database.
func New() *Store {
	return &Store{
		accounts: map[string]map[string]basic.Account{
			DefaultDatabase: {},
		},
	}
}

// conn is a connection handle bound to one database. Releasing it is a
// no-op; the handle only scopes lookups the way a pooled connection would.
type conn struct {
	database string
}

func (*conn) Release() {}

// Acquire returns a handle for the named database. An empty name selects
// the default database. Unknown names fail with storage.ErrUnknownDatabase,
// mirroring a pool that was never configured for that backend.
func (s *Store) Acquire(ctx context.Context, database string) (basic.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if database == "" {
		database = DefaultDatabase
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.accounts[database]; !ok {
		return nil, storage.ErrUnknownDatabase
	}
	return &conn{database: database}, nil
}

// FindByUsername resolves an account by username on the connection's
// database. Lookups are case-insensitive on the username, matching the
// postgres store's citext-like behavior.
func (s *Store) FindByUsername(ctx context.Context, c basic.Connection, username string) (*basic.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mc, ok := c.(*conn)
	if !ok {
		return nil, storage.ErrUnknownDatabase
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	db, ok := s.accounts[mc.database]
	if !ok {
		return nil, storage.ErrUnknownDatabase
	}
	acct, ok := db[strings.ToLower(username)]
	if !ok {
		return nil, storage.ErrNotFound
	}

	// Copy so callers cannot mutate the stored record.
	out := acct
	out.PasswordHash = append([]byte(nil), acct.PasswordHash...)
	out.Metadata = maps.Clone(acct.Metadata)
	return &out, nil
}

// CreateAccount adds an account to the named database, creating the
// database on first use. An empty database name selects the default.
// Returns storage.ErrConflict if the username is taken.
func (s *Store) CreateAccount(database string, acct basic.Account) error {
	if database == "" {
		database = DefaultDatabase
	}
	key := strings.ToLower(acct.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	db, ok := s.accounts[database]
	if !ok {
		db = map[string]basic.Account{}
		s.accounts[database] = db
	}
	if _, exists := db[key]; exists {
		return storage.ErrConflict
	}
	db[key] = acct
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *Store) HealthCheck(context.Context) error { return nil }

// Close releases nothing; present for interface symmetry with the
// postgres provider.
func (s *Store) Close() error { return nil }
