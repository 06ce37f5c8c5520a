package userutil

import (
	"errors"
	"os/user"
	"testing"
)

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "alice", want: "alice"},
		{name: "domain user", input: "DOMAIN\\user", want: "DOMAIN_user"},
		{name: "email", input: "user@domain.com", want: "user_domain.com"},
		{name: "spaces collapse", input: "unit  user!", want: "unit_user_"},
		{name: "empty", input: "", want: "unknown"},
		{name: "whitespace", input: "  ", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUsername(tt.input); got != tt.want {
				t.Fatalf("SanitizeUsername(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCurrentUsername(t *testing.T) {
	orig := lookupCurrentUser
	t.Cleanup(func() { lookupCurrentUser = orig })

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("USERNAME", " alice ")
		lookupCurrentUser = func() (*user.User, error) { return &user.User{Username: "bob"}, nil }
		if got := CurrentUsername(); got != "alice" {
			t.Fatalf("CurrentUsername() = %q, want alice", got)
		}
	})
	t.Run("falls back to account", func(t *testing.T) {
		t.Setenv("USERNAME", "")
		lookupCurrentUser = func() (*user.User, error) { return &user.User{Username: `CORP\bob`}, nil }
		if got := CurrentUsername(); got != `CORP\bob` {
			t.Fatalf("CurrentUsername() = %q", got)
		}
		if got := ScopedName("winseek-"); got != "winseek-CORP_bob" {
			t.Fatalf("ScopedName() = %q", got)
		}
	})
	t.Run("lookup failure", func(t *testing.T) {
		t.Setenv("USERNAME", "")
		lookupCurrentUser = func() (*user.User, error) { return nil, errors.New("no user") }
		if got := ScopedName("winseek-"); got != "winseek-unknown" {
			t.Fatalf("ScopedName() = %q, want winseek-unknown", got)
		}
	})
}
