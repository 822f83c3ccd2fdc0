package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/iho/networth/internal/domain"
)

func newTestUser() *domain.User {
	return &domain.User{ID: "user-1", Email: "a@example.com"}
}

func staticID() string { return "jti-1" }

func TestJWTManager_GenerateAndVerify(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, staticID)

	token, err := m.Generate(newTestUser())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user id = %q", claims.UserID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.ID != "jti-1" {
		t.Errorf("jti = %q, want the generated id", claims.ID)
	}
}

func TestJWTManager_Verify_WrongSecret(t *testing.T) {
	m1 := NewJWTManager("secret-one", time.Hour, staticID)
	m2 := NewJWTManager("secret-two", time.Hour, staticID)

	token, err := m1.Generate(newTestUser())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m2.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_Verify_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", time.Minute, staticID)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.Generate(newTestUser())
	if err != nil {
		t.Fatal(err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); !errors.Is(err, domain.ErrExpiredToken) {
		t.Errorf("error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTManager_Verify_Garbage(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour, staticID)
	for _, tok := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := m.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}
