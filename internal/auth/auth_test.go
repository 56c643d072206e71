package auth

import (
	"testing"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "password123"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", "gestion-scolaire", time.Hour)
	token, err := tokens.Issue(&models.User{ID: 42, Role: models.Teacher})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Role != models.Teacher || claims.Subject != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejected(t *testing.T) {
	tokens := NewTokens("secret", "gestion-scolaire", time.Hour)
	token, err := tokens.Issue(&models.User{ID: 1, Role: models.Admin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokens("other", "gestion-scolaire", time.Hour).Parse(token); err == nil {
		t.Fatalf("expected signature error")
	}
	if _, err := NewTokens("secret", "someone-else", time.Hour).Parse(token); err == nil {
		t.Fatalf("expected issuer error")
	}

	expired, err := NewTokens("secret", "gestion-scolaire", -time.Minute).Issue(&models.User{ID: 1, Role: models.Admin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Parse(expired); err == nil {
		t.Fatalf("expected expiry error")
	}
}
