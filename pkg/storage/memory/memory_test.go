package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/wicket-auth/wicket/pkg/auth/basic"
	"github.com/wicket-auth/wicket/pkg/storage"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.CreateAccount("", basic.Account{
		Subject:      "acct-1",
		Username:     "Alice",
		PasswordHash: []byte("hash-1"),
		ServiceTier:  "premium",
		Metadata:     map[string]string{"team": "core"},
	}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return s
}

func TestFindByUsername_CaseInsensitive(t *testing.T) {
	s := seeded(t)
	conn, err := s.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer conn.Release()

	for _, name := range []string{"alice", "Alice", "ALICE"} {
		acct, err := s.FindByUsername(context.Background(), conn, name)
		if err != nil {
			t.Errorf("FindByUsername(%q): %v", name, err)
			continue
		}
		if acct.Subject != "acct-1" {
			t.Errorf("FindByUsername(%q).Subject = %q, want %q", name, acct.Subject, "acct-1")
		}
	}
}

func TestFindByUsername_NotFound(t *testing.T) {
	s := seeded(t)
	conn, _ := s.Acquire(context.Background(), "")
	defer conn.Release()

	if _, err := s.FindByUsername(context.Background(), conn, "bob"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFindByUsername_ReturnsCopy(t *testing.T) {
	s := seeded(t)
	conn, _ := s.Acquire(context.Background(), "")
	defer conn.Release()

	acct, err := s.FindByUsername(context.Background(), conn, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	acct.PasswordHash[0] = 'X'
	acct.ServiceTier = "mutated"
	acct.Metadata["team"] = "mutated"

	again, err := s.FindByUsername(context.Background(), conn, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if string(again.PasswordHash) != "hash-1" || again.ServiceTier != "premium" {
		t.Errorf("stored account mutated through returned copy: %+v", again)
	}
	if again.Metadata["team"] != "core" {
		t.Errorf("stored metadata mutated through returned copy: %v", again.Metadata)
	}
}

func TestAcquire_UnknownDatabase(t *testing.T) {
	s := New()
	if _, err := s.Acquire(context.Background(), "nope"); !errors.Is(err, storage.ErrUnknownDatabase) {
		t.Errorf("err = %v, want ErrUnknownDatabase", err)
	}
}

func TestAcquire_EmptySelectsDefault(t *testing.T) {
	s := seeded(t)
	conn, err := s.Acquire(context.Background(), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer conn.Release()

	if _, err := s.FindByUsername(context.Background(), conn, "alice"); err != nil {
		t.Errorf("default database lookup failed: %v", err)
	}
}

func TestAcquire_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Acquire(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestCreateAccount_Conflict(t *testing.T) {
	s := seeded(t)
	err := s.CreateAccount("", basic.Account{Username: "ALICE", PasswordHash: []byte("other")})
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestCreateAccount_NamedDatabaseIsolation(t *testing.T) {
	s := seeded(t)
	if err := s.CreateAccount("tenant-b", basic.Account{Username: "bob", PasswordHash: []byte("h")}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	connB, err := s.Acquire(context.Background(), "tenant-b")
	if err != nil {
		t.Fatalf("Acquire(tenant-b): %v", err)
	}
	defer connB.Release()

	if _, err := s.FindByUsername(context.Background(), connB, "bob"); err != nil {
		t.Errorf("bob missing in tenant-b: %v", err)
	}
	// alice lives in the default database only.
	if _, err := s.FindByUsername(context.Background(), connB, "alice"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("alice visible from tenant-b: err = %v, want ErrNotFound", err)
	}
}
