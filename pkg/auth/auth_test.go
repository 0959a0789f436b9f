package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// mockAuthn is a test authenticator with configurable behavior.
type mockAuthn struct {
	result Result
	calls  int
}

func (m *mockAuthn) Authenticate(_ context.Context, _ *http.Request) Result {
	m.calls++
	return m.result
}

func TestChain_FirstYesStops(t *testing.T) {
	second := &mockAuthn{result: Result{Decision: No, Err: ErrInvalidCredentials}}
	chain := &Chain{
		Authenticators: []Authenticator{
			&mockAuthn{result: Result{Decision: Yes, Identity: &Identity{Subject: "alice"}}},
			second,
		},
		DefaultDecision: No,
	}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "alice")
	}
	if second.calls != 0 {
		t.Errorf("second authenticator ran %d times, want 0", second.calls)
	}
}

func TestChain_FirstNoStops(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{
			&mockAuthn{result: Result{Decision: No, Err: ErrInvalidCredentials}},
			&mockAuthn{result: Result{Decision: Yes, Identity: &Identity{Subject: "bob"}}},
		},
		DefaultDecision: No,
	}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}
	if !errors.Is(result.Err, ErrInvalidCredentials) {
		t.Errorf("Err = %v, want ErrInvalidCredentials", result.Err)
	}
}

func TestChain_AllAbstain_DefaultReject(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{
			&mockAuthn{result: Result{Decision: Abstain}},
			&mockAuthn{result: Result{Decision: Abstain}},
		},
		DefaultDecision: No,
	}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != No {
		t.Errorf("Decision = %d, want No (default reject)", result.Decision)
	}
	// Nobody recognized any credentials, so the failure is "missing",
	// not "invalid".
	if !errors.Is(result.Err, ErrMissingCredentials) {
		t.Errorf("Err = %v, want ErrMissingCredentials", result.Err)
	}
}

func TestChain_AllAbstain_DefaultAccept(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{
			&mockAuthn{result: Result{Decision: Abstain}},
		},
		DefaultDecision: Yes,
	}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes (default accept)", result.Decision)
	}
	if result.Identity.Subject != "anonymous" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "anonymous")
	}
}

func TestChain_Empty_DefaultReject(t *testing.T) {
	chain := &Chain{DefaultDecision: No}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != No {
		t.Errorf("Decision = %d, want No (empty chain)", result.Decision)
	}
}

func TestChain_AbstainThenYes(t *testing.T) {
	chain := &Chain{
		Authenticators: []Authenticator{
			&mockAuthn{result: Result{Decision: Abstain}},
			&mockAuthn{result: Result{Decision: Yes, Identity: &Identity{Subject: "token-user"}}},
		},
		DefaultDecision: No,
	}

	r, _ := http.NewRequest("GET", "/", nil)
	result := chain.Authenticate(context.Background(), r)

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "token-user" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "token-user")
	}
}

func TestIdentityContext_PerKind(t *testing.T) {
	ctx := context.Background()

	// No identity set.
	if IdentityFromContext(ctx, "user") != nil {
		t.Error("expected nil identity from empty context")
	}

	// Set and retrieve.
	ctx = WithIdentity(ctx, "user", &Identity{Subject: "alice"})
	got := IdentityFromContext(ctx, "user")
	if got == nil || got.Subject != "alice" {
		t.Errorf("got %v, want alice", got)
	}

	// A different kind stays empty and can hold its own identity.
	if IdentityFromContext(ctx, "service") != nil {
		t.Error("expected nil identity for unrelated kind")
	}
	ctx = WithIdentity(ctx, "service", &Identity{Subject: "batch-runner"})
	if got := IdentityFromContext(ctx, "user"); got == nil || got.Subject != "alice" {
		t.Error("user identity lost after setting service identity")
	}
	if got := IdentityFromContext(ctx, "service"); got == nil || got.Subject != "batch-runner" {
		t.Error("service identity not retrievable")
	}
}
